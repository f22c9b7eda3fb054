package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sideline/internal/common"
	"github.com/ternarybob/sideline/internal/services/engine"
	"github.com/ternarybob/sideline/internal/storage/sqlite"
)

// configPaths allows multiple -config flags; later files override earlier
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: sideline [flags] <command>

Commands:
  run-cycle   Run one discovery cycle and exit
  serve       Run cycles on the configured schedule until interrupted
  test        Exercise every component without mutating the catalog
  train       Run the configured classifier training pipeline
  status      Print a catalog summary

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Sideline version %s\n", common.GetVersion())
		os.Exit(0)
	}

	command := flag.Arg(0)
	if command == "" {
		usage()
		os.Exit(2)
	}

	// Auto-discover a config file next to the binary when none is given
	if len(configFiles) == 0 {
		for _, candidate := range []string{"sideline.toml", "sideline.json", "deployments/local/sideline.toml"} {
			if _, err := os.Stat(candidate); err == nil {
				configFiles = append(configFiles, candidate)
				break
			}
		}
	}

	config, err := common.LoadConfig(configFiles...)
	if err != nil {
		arbor.NewLogger().Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}
	if err := config.Validate(); err != nil {
		arbor.NewLogger().Fatal().Err(err).Msg("Invalid configuration")
		os.Exit(1)
	}

	logger := common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	logger.Info().
		Strs("config_files", configFiles).
		Str("db_path", config.Storage.SQLite.Path).
		Str("command", command).
		Msg("Configuration loaded")

	db, err := sqlite.NewSQLiteDB(logger, &config.Storage.SQLite)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open catalog database")
		os.Exit(1)
	}
	storage := sqlite.NewCatalogStorage(db, logger)
	defer storage.Close()

	eng, err := engine.New(config, storage, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize engine")
		os.Exit(1)
	}
	defer eng.Close()

	ctx := context.Background()
	if err := dispatch(ctx, eng, command); err != nil {
		logger.Error().Str("command", command).Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func dispatch(ctx context.Context, eng *engine.Engine, command string) error {
	switch command {
	case "run-cycle":
		_, err := eng.RunCycle(ctx)
		return err
	case "serve":
		return eng.Serve(ctx)
	case "test":
		return eng.Test(ctx)
	case "train":
		return eng.Train(ctx)
	case "status":
		return eng.Status(ctx)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

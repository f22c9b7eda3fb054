package hunters

import (
	"context"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sideline/internal/common"
	"github.com/ternarybob/sideline/internal/models"
)

// Hunter is one discovery strategy
type Hunter interface {
	Name() string
	Hunt(ctx context.Context) ([]models.Candidate, error)
}

// Runner executes hunters in sequence and union-merges their output.
// A hunter that errors contributes whatever it found before failing.
type Runner struct {
	hunters []Hunter
	logger  arbor.ILogger
}

// NewRunner creates a runner over the given hunters
func NewRunner(logger arbor.ILogger, hunters ...Hunter) *Runner {
	return &Runner{hunters: hunters, logger: logger}
}

// Run executes every hunter and merges candidates by canonical URL,
// summing prior bonuses up to the cap.
func (r *Runner) Run(ctx context.Context) []models.Candidate {
	lists := make([][]models.Candidate, 0, len(r.hunters))

	for _, hunter := range r.hunters {
		candidates, err := hunter.Hunt(ctx)
		if err != nil {
			r.logger.Warn().
				Str("hunter", hunter.Name()).
				Int("partial_candidates", len(candidates)).
				Err(err).
				Msg("Hunter failed, keeping partial results")
		} else {
			r.logger.Info().
				Str("hunter", hunter.Name()).
				Int("candidates", len(candidates)).
				Msg("Hunter completed")
		}
		lists = append(lists, candidates)
	}

	merged := models.MergeCandidates(common.CanonicalizeURL, lists...)
	r.logger.Info().Int("merged", len(merged)).Msg("Hunter candidates merged")
	return merged
}

package hunters

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sideline/internal/models"
)

// Prober tests host reachability without downloading a body
type Prober interface {
	Head(ctx context.Context, url string) models.ProbeResult
}

// Permutation generates candidate domains from base names crossed with
// TLDs and keeps the ones that answer a HEAD probe. These candidates
// carry no community signal, so their prior bonus is zero.
type Permutation struct {
	prober Prober
	bases  []string
	tlds   []string
	logger arbor.ILogger
}

// NewPermutation creates the permutation hunter
func NewPermutation(prober Prober, bases, tlds []string, logger arbor.ILogger) *Permutation {
	return &Permutation{prober: prober, bases: bases, tlds: tlds, logger: logger}
}

// Name identifies the hunter in logs and candidate records
func (p *Permutation) Name() string {
	return string(models.SourcePermutation)
}

// Hunt probes the full Cartesian product of bases and TLDs
func (p *Permutation) Hunt(ctx context.Context) ([]models.Candidate, error) {
	p.logger.Info().
		Int("bases", len(p.bases)).
		Int("tlds", len(p.tlds)).
		Msg("Permutation hunter probing domain combinations")

	var candidates []models.Candidate
	for _, base := range p.bases {
		for _, tld := range p.tlds {
			if ctx.Err() != nil {
				return candidates, ctx.Err()
			}

			candidateURL := fmt.Sprintf("https://%s%s", base, tld)
			probe := p.prober.Head(ctx, candidateURL)
			if !probe.OK {
				continue
			}

			p.logger.Debug().
				Str("url", candidateURL).
				Int("status", probe.StatusCode).
				Msg("Permutation hunter found live domain")
			candidates = append(candidates, models.Candidate{
				URL:        candidateURL,
				Source:     models.SourcePermutation,
				PriorBonus: 0,
			})
		}
	}

	p.logger.Info().Int("candidates", len(candidates)).Msg("Permutation hunter finished")
	return candidates, nil
}

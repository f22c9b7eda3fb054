package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/sideline/internal/models"
)

// SweepResult summarizes one re-verification pass
type SweepResult struct {
	Checked     int
	Quarantined int
	Reactivated int
	Deactivated int
}

// SweepQuarantine is the maintenance prelude to each cycle. Quarantined
// rows get another chance: a passing verification reactivates them, a
// failing one bumps the failure counter, and rows that exhaust the
// failure budget are deactivated for good. Active rows whose last
// verification is older than the staleness window are re-checked and
// quarantined on failure.
func (s *Service) SweepQuarantine(ctx context.Context) SweepResult {
	var result SweepResult

	// Snapshot before the stale pass: a row quarantined during this sweep
	// waits for the next cycle, so each URL is checked at most once here
	// and a single failing sweep costs a single failed attempt.
	quarantined, err := s.storage.ListByStatus(ctx, models.SiteStatusQuarantined)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Sweep could not list quarantined sites")
		quarantined = nil
	}

	s.sweepStale(ctx, &result)
	s.sweepQuarantined(ctx, quarantined, &result)

	s.bump(func(st *Stats) {
		st.SitesQuarantined += result.Quarantined
		st.SitesReactivated += result.Reactivated
		st.SitesDeactivated += result.Deactivated
	})

	s.logger.Info().
		Int("checked", result.Checked).
		Int("quarantined", result.Quarantined).
		Int("reactivated", result.Reactivated).
		Int("deactivated", result.Deactivated).
		Msg("Re-verification sweep completed")
	return result
}

// sweepStale re-verifies active rows not verified within the window
func (s *Service) sweepStale(ctx context.Context, result *SweepResult) {
	if s.config.DeactivationWindow <= 0 {
		return
	}

	active, err := s.storage.ListActive(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Sweep could not list active sites")
		return
	}

	cutoff := time.Now().Add(-s.config.DeactivationWindow)
	for _, site := range active {
		if ctx.Err() != nil {
			return
		}
		if site.LastVerified.After(cutoff) {
			continue
		}

		result.Checked++
		verification := s.verifier.Verify(ctx, site.URL)
		s.record(fmt.Sprintf("V2 verification for %s composite=%d passed=%t",
			site.URL, verification.Composite, verification.Passed))

		if verification.Passed {
			if _, _, err := s.writer.Write(ctx, models.SiteUpsert{
				Name:            site.Name,
				URL:             site.URL,
				Source:          site.Source,
				ConfidenceScore: verification.Composite,
			}); err != nil {
				s.setFatal(err)
				return
			}
			continue
		}

		if err := s.storage.Quarantine(ctx, site.URL, "failed re-verification"); err != nil {
			s.logger.Warn().Str("url", site.URL).Err(err).Msg("Quarantine transition failed")
			continue
		}
		result.Quarantined++
	}
}

// sweepQuarantined gives quarantined rows their re-verification chance
func (s *Service) sweepQuarantined(ctx context.Context, quarantined []models.Site, result *SweepResult) {
	for _, site := range quarantined {
		if ctx.Err() != nil {
			return
		}

		result.Checked++
		verification := s.verifier.Verify(ctx, site.URL)
		s.record(fmt.Sprintf("V2 verification for %s composite=%d passed=%t",
			site.URL, verification.Composite, verification.Passed))

		if verification.Passed {
			if err := s.storage.Reactivate(ctx, site.URL, verification.Composite); err != nil {
				s.logger.Warn().Str("url", site.URL).Err(err).Msg("Reactivation failed")
				continue
			}
			result.Reactivated++
			continue
		}

		if site.FailedAttempts+1 >= s.config.MaxFailedAttempts {
			if err := s.storage.Deactivate(ctx, site.URL); err != nil {
				s.logger.Warn().Str("url", site.URL).Err(err).Msg("Deactivation failed")
				continue
			}
			result.Deactivated++
			continue
		}

		if err := s.storage.Quarantine(ctx, site.URL, "failed re-verification"); err != nil {
			s.logger.Warn().Str("url", site.URL).Err(err).Msg("Quarantine update failed")
			continue
		}
	}
}

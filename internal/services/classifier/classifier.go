// Package classifier scores pages with a trained logistic model. It is the
// second stage of the admission funnel: fast, local, no network. When no
// model artifact is present the service degrades to an always-negative gate
// instead of aborting the cycle.
package classifier

import (
	"math"
	"sort"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sideline/internal/models"
)

const keyFeatureCount = 5

// Service evaluates feature vectors against the loaded model
type Service struct {
	model     *Model
	threshold float64
	logger    arbor.ILogger
}

// NewService loads the model artifact at modelPath. A load failure is
// logged and yields a degraded service whose verdicts are never positive.
func NewService(modelPath string, threshold float64, logger arbor.ILogger) *Service {
	s := &Service{threshold: threshold, logger: logger}

	model, err := LoadModel(modelPath)
	if err != nil {
		logger.Warn().Str("path", modelPath).Err(err).Msg("Classifier model unavailable, running degraded")
		return s
	}

	s.model = model
	logger.Info().
		Str("version", model.Version).
		Int("features", len(model.FeatureNames)).
		Msg("Classifier model loaded")
	return s
}

// Available reports whether a model is loaded
func (s *Service) Available() bool {
	return s.model != nil
}

// Classify scores a feature vector. Features absent from the vector score
// as zero; features absent from the model are ignored.
func (s *Service) Classify(vector map[string]float64) models.Classification {
	if s.model == nil {
		return models.Classification{
			Available: false,
			Tier:      models.TierVeryLow,
			Err:       "no model loaded",
		}
	}

	z := s.model.Intercept
	contributions := make([]featureContribution, 0, len(s.model.FeatureNames))
	for _, name := range s.model.FeatureNames {
		value := vector[name]
		weight := s.model.Weights[name]
		z += weight * value
		if value != 0 && weight != 0 {
			contributions = append(contributions, featureContribution{name, math.Abs(weight * value)})
		}
	}

	probability := 1.0 / (1.0 + math.Exp(-z))

	return models.Classification{
		Available:   true,
		IsPositive:  probability >= s.threshold,
		Probability: probability,
		Tier:        tierFor(probability),
		KeyFeatures: topFeatures(contributions),
	}
}

type featureContribution struct {
	name   string
	impact float64
}

func topFeatures(contributions []featureContribution) []string {
	sort.Slice(contributions, func(i, j int) bool {
		return contributions[i].impact > contributions[j].impact
	})
	limit := min(keyFeatureCount, len(contributions))
	names := make([]string, 0, limit)
	for _, c := range contributions[:limit] {
		names = append(names, c.name)
	}
	return names
}

func tierFor(probability float64) models.ConfidenceTier {
	switch {
	case probability >= 0.9:
		return models.TierVeryHigh
	case probability >= 0.7:
		return models.TierHigh
	case probability >= 0.5:
		return models.TierMedium
	case probability >= 0.3:
		return models.TierLow
	default:
		return models.TierVeryLow
	}
}

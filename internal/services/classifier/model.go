package classifier

import (
	"encoding/json"
	"fmt"
	"os"
)

// Model is the trained logistic artifact loaded from disk. The artifact is
// produced offline by the training pipeline; this package only scores.
type Model struct {
	Version            string             `json:"version"`
	TrainedAt          string             `json:"trained_at"`
	FeatureNames       []string           `json:"feature_names"`
	Weights            map[string]float64 `json:"weights"`
	Intercept          float64            `json:"intercept"`
	PerformanceMetrics map[string]float64 `json:"performance_metrics"`
}

// LoadModel reads and validates a model artifact. An artifact whose weight
// table does not cover its declared feature names is rejected.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact: %w", err)
	}

	var model Model
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("failed to parse model artifact: %w", err)
	}

	if len(model.FeatureNames) == 0 {
		return nil, fmt.Errorf("model artifact has no feature names")
	}
	for _, name := range model.FeatureNames {
		if _, ok := model.Weights[name]; !ok {
			return nil, fmt.Errorf("model artifact missing weight for feature %q", name)
		}
	}

	return &model, nil
}

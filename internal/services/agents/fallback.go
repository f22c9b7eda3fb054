package agents

import (
	"fmt"
	"time"

	"github.com/ternarybob/sideline/internal/models"
)

var genesisFallbackQueries = []string{
	"watch NFL live free streaming",
	"soccer stream free online",
	"NBA live stream reddit",
	"MLB streaming sites free",
	"live sports streaming free",
}

// Query set when the previous cycle discovered sites: stay the course
var continueQueries = []string{
	"live sports stream free online",
	"watch sports streaming free",
	"sports stream websites free",
	"streaming sports live free",
	"free sports streaming sites",
}

// Query set when the previous cycle came up empty: pivot toward
// community and aggregator discovery
var pivotQueries = []string{
	"sports streaming reddit communities",
	"live sports broadcasting free",
	"stream sports online free",
	"sports stream aggregator sites",
	"free live sports streaming",
}

// fallbackPlan builds a deterministic plan when the model is out of the
// loop. Genesis mode uses proven query patterns; adaptive mode branches
// on whether the previous cycle found anything.
func (p *Planner) fallbackPlan(previous *models.AfterActionReport) models.MissionPlan {
	if previous == nil {
		return models.MissionPlan{
			MissionType: models.MissionFallback,
			Timestamp:   time.Now(),
			SeedQueries: append([]string(nil), genesisFallbackQueries...),
			Reasoning: models.ReasoningTrace{
				StatusReview:          "Starting mission with no prior data and no strategic reasoning engine available.",
				StrategicGoal:         "Discover active sports streaming websites using proven query patterns targeting major sports and community-driven discovery.",
				TacticalExecutionPlan: "Deploy a multi-angle query set covering direct sport searches, community platforms, and streaming-focused terms.",
				Conclusion:            "Execute the fixed genesis query set and let the funnel filter results.",
			},
			Confidence: 50,
		}
	}

	newSites := previous.Discovery.NewSitesFound
	if newSites > 0 {
		return models.MissionPlan{
			MissionType: models.MissionFallback,
			Timestamp:   time.Now(),
			SeedQueries: append([]string(nil), continueQueries...),
			Reasoning: models.ReasoningTrace{
				StatusReview:          fmt.Sprintf("Previous mission discovered %d new sites; the current approach is productive.", newSites),
				StrategicGoal:         "Sustain the discovery rate while expanding coverage with query variations.",
				TacticalExecutionPlan: "Continue the successful discovery pattern with slight variations to broaden reach.",
				Conclusion:            "Stay the course with varied streaming-focused queries.",
			},
			Confidence:      55,
			AdaptationsMade: fmt.Sprintf("Maintained the effective approach that discovered %d new sites", newSites),
		}
	}

	return models.MissionPlan{
		MissionType: models.MissionFallback,
		Timestamp:   time.Now(),
		SeedQueries: append([]string(nil), pivotQueries...),
		Reasoning: models.ReasoningTrace{
			StatusReview:          "Previous mission discovered no new sites; the current query angle is exhausted.",
			StrategicGoal:         "Recover the discovery rate by changing the search angle.",
			TacticalExecutionPlan: "Pivot to community-focused and aggregator-based discovery queries.",
			Conclusion:            "Execute the pivot query set and reassess next cycle.",
		},
		Confidence:      45,
		AdaptationsMade: "Strategic pivot implemented after a zero-discovery mission",
	}
}

package models

import "time"

// MissionType distinguishes how a plan was produced
type MissionType string

const (
	MissionGenesis  MissionType = "genesis"
	MissionAdaptive MissionType = "adaptive"
	MissionFallback MissionType = "fallback"
)

// ReasoningTrace is the structured strategic reasoning attached to a plan.
// All four fields are required; missing values are synthesized with
// sentinels at the LLM boundary.
type ReasoningTrace struct {
	StatusReview          string `json:"status_review" validate:"required"`
	StrategicGoal         string `json:"strategic_goal" validate:"required"`
	TacticalExecutionPlan string `json:"tactical_execution_plan" validate:"required"`
	Conclusion            string `json:"conclusion" validate:"required"`
}

// MissionPlan is emitted by the planner and consumed by the crawler for
// one cycle.
type MissionPlan struct {
	MissionType          MissionType    `json:"mission_type" validate:"required"`
	Timestamp            time.Time      `json:"timestamp"`
	SeedQueries          []string       `json:"seed_queries" validate:"required,min=1,dive,required"`
	Reasoning            ReasoningTrace `json:"strategic_reasoning_process"`
	Confidence           int            `json:"confidence" validate:"gte=0,lte=100"`
	AdaptationsMade      string         `json:"adaptations_made,omitempty"`
	ExpectedImprovements []string       `json:"expected_improvements,omitempty"`
}

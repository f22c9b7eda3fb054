package models

import "time"

// FetchResult is the outcome of retrieving one URL. Failures are data,
// not errors: OK is false and Err carries the cause.
type FetchResult struct {
	FinalURL   string
	StatusCode int
	Body       string
	Elapsed    time.Duration
	Rendered   bool // True when a headless browser produced the body
	OK         bool
	Err        string
}

// ConfidenceTier buckets classifier probabilities for logging
type ConfidenceTier string

const (
	TierVeryLow  ConfidenceTier = "very_low"
	TierLow      ConfidenceTier = "low"
	TierMedium   ConfidenceTier = "medium"
	TierHigh     ConfidenceTier = "high"
	TierVeryHigh ConfidenceTier = "very_high"
)

// Classification is the statistical classifier verdict. When no model
// artifact is loaded, Available is false and the verdict is a gate failure
// rather than a cycle abort.
type Classification struct {
	Available   bool
	IsPositive  bool
	Probability float64
	Tier        ConfidenceTier
	KeyFeatures []string
	Err         string
}

// Analysis is the cognitive analyzer verdict. ParseError is set when the
// model response could not be interpreted; the verdict then defaults
// negative and never vetoes admission outside strict mode.
type Analysis struct {
	ServiceName     string         `json:"service_name"`
	PrimaryCategory string         `json:"primary_category"`
	IsStreamingSite bool           `json:"is_sports_streaming_site"`
	Reasoning       ReasoningBlock `json:"full_reasoning_process"`
	Confidence      int            `json:"final_confidence_score"`
	ParseError      string         `json:"-"`
	Err             string         `json:"-"`
}

// ReasoningBlock is the chain-of-thought-with-self-critique structure the
// analyzer prompt elicits. All four fields are required in responses.
type ReasoningBlock struct {
	InitialAnalysis string `json:"initial_analysis"`
	Hypothesis      string `json:"hypothesis"`
	SelfCritique    string `json:"self_critique"`
	Conclusion      string `json:"conclusion"`
}

// ProbeResult is the reachability sub-probe outcome
type ProbeResult struct {
	OK         bool
	StatusCode int
	Latency    time.Duration
	FinalURL   string
	Err        string
}

// Verification is the technical verifier composite result
type Verification struct {
	URL          string
	Passed       bool
	Composite    int // 0..100
	Probe        ProbeResult
	ContentScore int
	DOMScore     int
	Indicators   []string
	Timestamp    time.Time
}

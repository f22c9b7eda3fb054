package models

import "time"

// MissionSummary describes what one cycle did
type MissionSummary struct {
	Duration       time.Duration `json:"duration"`
	PagesCrawled   int           `json:"pages_crawled"`
	LinksEvaluated int           `json:"links_evaluated"`
}

// DiscoveryResults quantifies catalog changes from one cycle
type DiscoveryResults struct {
	NewSitesFound    int `json:"new_sites_found"`
	SitesQuarantined int `json:"sites_quarantined"`
	TotalActiveSites int `json:"total_active_sites"`
}

// PerformanceAnalysis carries the derived success metrics
type PerformanceAnalysis struct {
	ClassifierSuccessRate float64 `json:"classifier_success_rate"`
	VerifierSuccessRate   float64 `json:"verifier_success_rate"`
	MostEffectiveSource   string  `json:"most_effective_source"`
	AvgSitesPerQuery      float64 `json:"avg_sites_per_query"`
}

// CognitiveReasoning is the observation → insight → recommendation section
type CognitiveReasoning struct {
	Observations             []string `json:"observations"`
	Insights                 []string `json:"insights"`
	PrimaryRecommendation    string   `json:"primary_recommendation"`
	SecondaryRecommendations []string `json:"secondary_recommendations"`
	ReasoningConfidence      int      `json:"reasoning_confidence"`
}

// AfterActionReport closes the cognitive loop: reporting emits it at cycle
// end, the planner consumes it at the start of the next cycle.
type AfterActionReport struct {
	ReportType  string              `json:"report_type"`
	Timestamp   time.Time           `json:"timestamp"`
	CycleID     string              `json:"cycle_id,omitempty"`
	Summary     MissionSummary      `json:"mission_summary"`
	Discovery   DiscoveryResults    `json:"discovery_results"`
	Performance PerformanceAnalysis `json:"performance_analysis"`
	Reasoning   CognitiveReasoning  `json:"cognitive_reasoning_process"`
}

package models

import "time"

// SiteStatus represents the lifecycle state of a catalog row
type SiteStatus string

const (
	SiteStatusActive      SiteStatus = "active"
	SiteStatusQuarantined SiteStatus = "quarantined"
	SiteStatusInactive    SiteStatus = "inactive"
)

// SiteSource identifies which discovery path produced a site
type SiteSource string

const (
	SourceAggregator   SiteSource = "aggregator"
	SourcePermutation  SiteSource = "permutation"
	SourceSearchEngine SiteSource = "search_engine"
	SourceCrawl        SiteSource = "crawl"
	SourceGenesisSeed  SiteSource = "genesis_seed"
	SourceFallback     SiteSource = "fallback"
)

// Site is the canonical catalog entity. URL is the unique key and is
// always stored canonicalized. IsActive is derived from Status and the two
// must never disagree at rest.
type Site struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	URL             string     `json:"url"`
	Source          SiteSource `json:"source"`
	LastVerified    time.Time  `json:"last_verified"`
	ConfidenceScore int        `json:"confidence_score"`
	IsActive        bool       `json:"is_active"`
	Status          SiteStatus `json:"status"`
	Category        string     `json:"category,omitempty"`
	LLMVerified     *bool      `json:"llm_verified,omitempty"`
	LLMReasoning    string     `json:"llm_reasoning,omitempty"`
	FailedAttempts  int        `json:"failed_attempts"`
}

// SiteUpsert carries the writable fields of an upsert. Nil pointers leave
// the stored value untouched on update.
type SiteUpsert struct {
	Name            string
	URL             string
	Source          SiteSource
	ConfidenceScore int
	Status          SiteStatus
	Category        string
	LLMVerified     *bool
	LLMReasoning    string
}

// UpsertOutcome describes what an upsert did to the catalog
type UpsertOutcome struct {
	Inserted    bool
	PriorStatus SiteStatus // Zero value when Inserted
}

// CatalogStatus summarizes the catalog for reporting
type CatalogStatus struct {
	TotalSites      int
	ActiveSites     int
	QuarantinedSites int
	InactiveSites   int
	AddedLastHour   int
	SourceBreakdown map[string]int
	LastActivity    time.Time
}

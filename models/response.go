package models

// ExtractResponse is the response for POST /api/v1/extract and the
// per-URL result shape inside batch jobs.
type ExtractResponse struct {
	// Success indicates whether the extraction completed without errors.
	Success bool `json:"success"`

	// Page is the parent page extraction. Nil on failure.
	Page *PageExtraction `json:"page,omitempty"`

	// Children holds one level of follow-up extractions, in the order
	// the links were discovered on the parent page.
	Children []*PageExtraction `json:"children,omitempty"`

	// Telemetry describes how the parent page was fetched.
	Telemetry *FetchTelemetry `json:"telemetry,omitempty"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// CacheStatus indicates whether the response was served from cache.
	// Values: "hit", "miss", or empty (caching not requested).
	CacheStatus string `json:"cache_status,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// FetchTelemetry mirrors the fetch result minus the body: which
// impersonation profile finally got through and what it cost.
type FetchTelemetry struct {
	ProfileUsed string `json:"profile_used"`
	Attempts    int    `json:"attempts"`
	DurationMS  int64  `json:"duration_ms"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMS is the end-to-end duration in milliseconds.
	TotalMS int64 `json:"total_ms"`

	// FetchMS is the time spent fetching the parent page.
	FetchMS int64 `json:"fetch_ms"`

	// ExtractMS is the time spent scraping and following children.
	ExtractMS int64 `json:"extract_ms"`
}

// ChildrenResponse is the response for POST /api/v1/children.
type ChildrenResponse struct {
	URL      string   `json:"url"`
	Count    int      `json:"count"`
	Children []string `json:"children"`
}

// ReadableResponse is the response for POST /api/v1/readable.
type ReadableResponse struct {
	URL          string    `json:"url"`
	Title        string    `json:"title,omitempty"`
	Byline       string    `json:"byline,omitempty"`
	OutputFormat string    `json:"output_format"`
	Content      string    `json:"content"`
	Tokens       TokenInfo `json:"tokens"`
}

// TokenInfo provides before/after token estimates to show how much of
// the raw page the readable view discards.
type TokenInfo struct {
	// OriginalEstimate is the estimated token count of the raw HTML.
	OriginalEstimate int `json:"original_estimate"`

	// CleanedEstimate is the estimated token count of the cleaned output.
	CleanedEstimate int `json:"cleaned_estimate"`

	// SavingsPercent is the percentage of tokens removed (0-100).
	SavingsPercent float64 `json:"savings_percent"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status   string `json:"status"` // "healthy" or "degraded"
	Uptime   string `json:"uptime"`
	Policies int    `json:"policies"` // stored policy count
	Version  string `json:"version"`
}

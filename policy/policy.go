// Package policy defines the per-domain extraction policy document:
// how to fetch a domain's pages and which page areas to scrape.
package policy

import (
	"github.com/use-agent/qrawl/domain"
)

// Strategy selects the fetch ladder behavior.
type Strategy string

const (
	// StrategyFast attempts exactly one profile (Minimal).
	StrategyFast Strategy = "fast"
	// StrategyAdaptive walks the profile ladder with inter-attempt delays.
	StrategyAdaptive Strategy = "adaptive"
)

// Scope restricts which discovered child links may be followed.
type Scope string

const (
	ScopeSameDomain Scope = "same_domain"
	ScopeAnyDomain  Scope = "any_domain"
	ScopeAllowList  Scope = "allow_list"
)

// Policy is the per-domain extraction contract.
type Policy struct {
	Domain      domain.Domain       `json:"domain"`
	Fetch       FetchConfig         `json:"fetch"`
	Scrape      ScrapeConfig        `json:"scrape"`
	Performance *PerformanceProfile `json:"performance_profile,omitempty"`
}

// FetchConfig controls the fetch ladder for a domain.
type FetchConfig struct {
	Strategy Strategy `json:"strategy"`
}

// ScrapeConfig controls what is extracted from a fetched page.
type ScrapeConfig struct {
	ExtractJSONLD bool         `json:"extract_json_ld"`
	Areas         []AreaPolicy `json:"areas"`
}

// AreaPolicy describes one extraction region of a page.
// An area matches when any of its root selectors matches.
type AreaPolicy struct {
	// Role labels the area's purpose (e.g. "listing", "article").
	Role string `json:"role"`

	// Roots are CSS selectors locating the area. Tried in order.
	Roots []string `json:"roots"`

	// ExcludeWithin skips a matched root entirely when any of these
	// selectors matches inside it.
	ExcludeWithin []string `json:"exclude_within,omitempty"`

	// Fields are per-family selectors for content inside the root.
	Fields FieldSelectors `json:"fields"`

	// IsRepeating extracts every root match; false stops after the
	// first match per root selector.
	IsRepeating bool `json:"is_repeating"`

	// FollowLinks controls child-page discovery from this area's page.
	FollowLinks FollowLinks `json:"follow_links"`
}

// FieldSelectors lists the CSS selectors per content family. An element
// inside an area contributes content only when it matches a selector of
// its own family.
type FieldSelectors struct {
	Title      []string `json:"title,omitempty"`
	Headings   []string `json:"headings,omitempty"`
	Paragraphs []string `json:"paragraphs,omitempty"`
	Images     []string `json:"images,omitempty"`
	Links      []string `json:"links,omitempty"`
	Lists      []string `json:"lists,omitempty"`
	Tables     []string `json:"tables,omitempty"`
}

// Empty reports whether no family carries a selector.
func (f FieldSelectors) Empty() bool {
	return len(f.Title) == 0 &&
		len(f.Headings) == 0 &&
		len(f.Paragraphs) == 0 &&
		len(f.Images) == 0 &&
		len(f.Links) == 0 &&
		len(f.Lists) == 0 &&
		len(f.Tables) == 0
}

// FollowLinks controls one level of child-page fetching.
type FollowLinks struct {
	Enabled      bool            `json:"enabled"`
	Scope        Scope           `json:"scope,omitempty"`
	AllowDomains []domain.Domain `json:"allow_domains,omitempty"`
	Max          int             `json:"max"`
	Dedupe       bool            `json:"dedupe"`
}

// PerformanceProfile records what inference learned about a domain.
type PerformanceProfile struct {
	OptimalTimeoutMS     int64    `json:"optimal_timeout_ms"`
	WorkingStrategy      string   `json:"working_strategy"`
	AvgResponseSizeBytes int      `json:"avg_response_size_bytes"`
	StrategiesTried      []string `json:"strategies_tried"`
	StrategiesFailed     []string `json:"strategies_failed,omitempty"`
	LastTestedAt         string   `json:"last_tested_at"`
	SuccessRate          float64  `json:"success_rate"`

	// StructureFingerprint is the drift baseline: the DOM-structure
	// fingerprint of the page the policy was learned from.
	StructureFingerprint string `json:"structure_fingerprint,omitempty"`
}

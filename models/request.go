package models

// ExtractRequest is the payload for POST /api/v1/extract.
type ExtractRequest struct {
	// URL is the target page to extract. Required.
	URL string `json:"url" binding:"required,url"`

	// Unknown forces policy-free extraction: a policy is inferred for
	// this request only and never persisted.
	// Default: false (a stored policy is required).
	Unknown bool `json:"unknown,omitempty"`

	// MaxAgeMS serves a cached response when one younger than this many
	// milliseconds exists. 0 (default) bypasses the cache.
	MaxAgeMS int64 `json:"max_age_ms,omitempty" binding:"omitempty,min=0"`
}

// PolicyCreateRequest is the payload for POST /api/v1/policies.
type PolicyCreateRequest struct {
	// Domain to infer and store a policy for. Required.
	// Canonicalized before use (lowercased, "www." stripped).
	Domain string `json:"domain" binding:"required"`

	// Seed is an optional page URL probed before the domain's own
	// candidates. Useful when the interesting listings do not live
	// at the site root.
	Seed string `json:"seed,omitempty" binding:"omitempty,url"`
}

// PoliciesDeleteRequest is the payload for DELETE /api/v1/policies,
// which wipes every stored policy.
type PoliciesDeleteRequest struct {
	// Confirm must be true; the server refuses the wipe otherwise.
	Confirm bool `json:"confirm"`
}

// ChildrenRequest is the payload for POST /api/v1/children.
type ChildrenRequest struct {
	// URL is the page whose child links are mined. Required.
	URL string `json:"url" binding:"required,url"`
}

// ReadableRequest is the payload for POST /api/v1/readable.
type ReadableRequest struct {
	// URL is the page to render as a readable article. Required.
	URL string `json:"url" binding:"required,url"`

	// OutputFormat controls the content format.
	// Allowed: "markdown" (default), "text", "html", "markdown_citations".
	OutputFormat string `json:"output_format,omitempty" binding:"omitempty,oneof=markdown text html markdown_citations"`

	// CSSSelector optionally narrows the input HTML before extraction.
	// When set, only the matched elements' outer HTML is processed.
	CSSSelector string `json:"css_selector,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *ReadableRequest) Defaults() {
	if r.OutputFormat == "" {
		r.OutputFormat = "markdown"
	}
}

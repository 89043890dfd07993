package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/use-agent/qrawl/domain"
	"github.com/use-agent/qrawl/drift"
	"github.com/use-agent/qrawl/infer"
	"github.com/use-agent/qrawl/models"
	"github.com/use-agent/qrawl/policy"
)

// CreatePolicyAuto infers a policy for dom, verifies it against the live
// site, and stores it. An existing policy is never overwritten: delete
// first, then re-create.
func (e *Engine) CreatePolicyAuto(ctx context.Context, dom domain.Domain) (*policy.Policy, error) {
	return e.CreatePolicySeeded(ctx, dom, "")
}

// CreatePolicySeeded is CreatePolicyAuto with an optional seed URL that
// inference probes first.
func (e *Engine) CreatePolicySeeded(ctx context.Context, dom domain.Domain, seed string) (*policy.Policy, error) {
	canonical := domain.Canonicalize(string(dom))
	if canonical == "" {
		return nil, models.ErrMissingDomain()
	}

	existing, err := e.store.Get(canonical)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.ErrOther(fmt.Sprintf("policy already exists for domain %s", canonical), nil)
	}

	pol, err := infer.InferWithSeed(ctx, e.fetcher, e.scraper, canonical, seed)
	if err != nil {
		return nil, err
	}
	if _, err := e.verifyPolicy(ctx, pol); err != nil {
		return nil, err
	}
	if err := e.store.Set(pol); err != nil {
		return nil, err
	}
	return pol, nil
}

// UpdatePolicyChecked stores pol only after it validates statically and
// produces content against the live site.
func (e *Engine) UpdatePolicyChecked(ctx context.Context, pol *policy.Policy) error {
	if err := policy.Validate(pol); err != nil {
		return err
	}
	if _, err := e.verifyPolicy(ctx, pol); err != nil {
		return err
	}
	return e.store.Set(pol)
}

// ReadPolicy returns the stored policy for target. The reserved target
// "all" is rejected; listing is a separate operation.
func (e *Engine) ReadPolicy(target string) (*policy.Policy, error) {
	if strings.EqualFold(target, "all") {
		return nil, models.ErrValidation("target", "use list for 'all'")
	}
	canonical := domain.Canonicalize(target)
	if canonical == "" {
		return nil, models.ErrMissingDomain()
	}
	pol, err := e.store.Get(canonical)
	if err != nil {
		return nil, err
	}
	if pol == nil {
		return nil, models.ErrMissingPolicy(string(canonical))
	}
	return pol, nil
}

// ListPolicies returns every stored policy, sorted by domain.
func (e *Engine) ListPolicies() ([]*policy.Policy, error) {
	return e.store.List()
}

// DeletePolicy removes the policy for target; the reserved target "all"
// wipes every policy. Confirmation is the caller's job.
func (e *Engine) DeletePolicy(target string) error {
	if strings.EqualFold(target, "all") {
		return e.store.DeleteAll()
	}
	canonical := domain.Canonicalize(target)
	if canonical == "" {
		return models.ErrMissingDomain()
	}
	return e.store.Delete(canonical)
}

// AuditEntry is one domain's audit outcome. Drift means the selectors
// still yield content but the page's template no longer matches the
// structure the policy was learned from.
type AuditEntry struct {
	Status string       `json:"status"` // "pass" or "fail"
	Drift  bool         `json:"drift,omitempty"`
	Error  string       `json:"error,omitempty"`
	Config *AuditConfig `json:"config,omitempty"` // when verbose
}

// AuditConfig is the policy config echoed in verbose audits.
type AuditConfig struct {
	Fetch  policy.FetchConfig  `json:"fetch"`
	Scrape policy.ScrapeConfig `json:"scrape"`
}

// AuditPolicies verifies every stored policy against its live site.
func (e *Engine) AuditPolicies(ctx context.Context, verbose bool) (map[string]AuditEntry, error) {
	pols, err := e.store.List()
	if err != nil {
		return nil, err
	}

	out := make(map[string]AuditEntry, len(pols))
	for _, pol := range pols {
		entry := AuditEntry{Status: "pass"}
		html, err := e.verifyPolicy(ctx, pol)
		switch {
		case err != nil:
			entry.Status = "fail"
			entry.Error = err.Error()
		case pol.Performance != nil:
			entry.Drift = drift.Diverged(pol.Performance.StructureFingerprint, drift.FingerprintHTML(html))
		}
		if verbose {
			entry.Config = &AuditConfig{Fetch: pol.Fetch, Scrape: pol.Scrape}
		}
		out[string(pol.Domain)] = entry
	}
	return out, nil
}

// verifyPolicy runs pol against the domain's homepage, https then http,
// and demands the scrape produce something. An empty yield means the
// selectors no longer match the site. On success it returns the HTML
// that passed, so callers can inspect the live page.
func (e *Engine) verifyPolicy(ctx context.Context, pol *policy.Policy) (string, error) {
	var lastErr error
	for _, scheme := range []string{"https", "http"} {
		target := scheme + "://" + string(pol.Domain) + "/"

		res, err := e.fetcher.Fetch(ctx, target, pol.Fetch)
		if err != nil {
			lastErr = models.ErrOther("fetch/scrape failed", err)
			continue
		}
		page, err := e.scraper.Scrape(target, res.HTML, pol.Scrape)
		if err != nil {
			lastErr = models.ErrOther("fetch/scrape failed", err)
			continue
		}

		if pageHasContent(page) {
			return res.HTML, nil
		}
		lastErr = models.ErrOther("scrape succeeded but produced no content - adjust selectors", nil)
	}
	return "", lastErr
}

// pageHasContent reports whether an extraction yielded anything: parsed
// JSON-LD, area content blocks, or a non-blank area title.
func pageHasContent(page *models.PageExtraction) bool {
	if len(page.JSONLD) > 0 {
		return true
	}
	for _, area := range page.Areas {
		if len(area.Content) > 0 {
			return true
		}
		if area.Title != nil && strings.TrimSpace(*area.Title) != "" {
			return true
		}
	}
	return false
}

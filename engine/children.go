package engine

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/use-agent/qrawl/domain"
	"github.com/use-agent/qrawl/jsonld"
	"github.com/use-agent/qrawl/miner"
	"github.com/use-agent/qrawl/models"
	"github.com/use-agent/qrawl/policy"
)

// followDefaults is the synthetic follow config applied when no area
// asks for following but the parent page carries an item list.
var followDefaults = policy.FollowLinks{
	Enabled: true,
	Scope:   policy.ScopeSameDomain,
	Max:     10,
	Dedupe:  true,
}

// followConfig picks the follow rules for a page: the first enabled area
// wins; with none, a parent whose JSON-LD contains an item list follows
// with the defaults. The second return is false when nothing follows.
func followConfig(page *models.PageExtraction, pol *policy.Policy) (policy.FollowLinks, bool) {
	for _, area := range pol.Scrape.Areas {
		if area.FollowLinks.Enabled {
			return area.FollowLinks, true
		}
	}
	for _, node := range page.JSONLD {
		if jsonld.ContainsItemList(node) {
			return followDefaults, true
		}
	}
	return policy.FollowLinks{}, false
}

// followChildren fetches and scrapes one level of child pages. Candidates
// come from the structural miner; a failed child is skipped, never fatal.
func (e *Engine) followChildren(ctx context.Context, pageURL, htmlBody string, page *models.PageExtraction, pol *policy.Policy) []*models.PageExtraction {
	follow, ok := followConfig(page, pol)
	if !ok || !follow.Enabled || follow.Max == 0 {
		return nil
	}

	parent := domain.Domain(page.Domain)
	var links []string
	for _, cand := range miner.Children(htmlBody, pageURL) {
		if inScope(cand, parent, follow) {
			links = append(links, cand)
		}
	}

	if follow.Dedupe {
		seen := make(map[string]struct{}, len(links))
		deduped := links[:0]
		for _, u := range links {
			if _, dup := seen[u]; dup {
				continue
			}
			seen[u] = struct{}{}
			deduped = append(deduped, u)
		}
		links = deduped
	}
	if len(links) > follow.Max {
		links = links[:follow.Max]
	}

	var children []*models.PageExtraction
	for _, child := range links {
		res, err := e.fetcher.Fetch(ctx, child, pol.Fetch)
		if err != nil {
			slog.Debug("child fetch failed", "url", child, "error", err)
			continue
		}
		p, err := e.scraper.Scrape(child, res.HTML, pol.Scrape)
		if err != nil {
			slog.Debug("child scrape failed", "url", child, "error", err)
			continue
		}
		children = append(children, p)
	}
	return children
}

// inScope applies the follow scope to one candidate URL. Scope decisions
// compare canonical domains, so www and case variants never leak through.
func inScope(rawURL string, parent domain.Domain, follow policy.FollowLinks) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	d, ok := domain.FromURL(u)
	if !ok {
		return false
	}

	switch follow.Scope {
	case policy.ScopeAnyDomain:
		return true
	case policy.ScopeAllowList:
		for _, allowed := range follow.AllowDomains {
			if d == domain.Canonicalize(string(allowed)) {
				return true
			}
		}
		return false
	default:
		return d == parent
	}
}

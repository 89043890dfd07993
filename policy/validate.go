package policy

import (
	"fmt"

	"github.com/andybalholm/cascadia"

	"github.com/use-agent/qrawl/models"
)

// Validate runs syntactic checks on a manually supplied policy.
// Inferred policies skip this; it guards the update path where a caller
// hands us arbitrary selectors.
func Validate(p *Policy) error {
	if p.Domain == "" {
		return models.ErrValidation("domain", "must not be empty")
	}
	switch p.Fetch.Strategy {
	case StrategyFast, StrategyAdaptive:
	default:
		return models.ErrValidation("fetch.strategy", fmt.Sprintf("unknown strategy %q", p.Fetch.Strategy))
	}

	// A policy with no areas is legal: inference emits JSON-LD-only
	// policies. Useless configs are caught by the live verify instead.
	for i := range p.Scrape.Areas {
		a := &p.Scrape.Areas[i]
		prefix := fmt.Sprintf("scrape.areas[%d]", i)

		if err := compileAll(prefix+".roots", a.Roots); err != nil {
			return err
		}
		if err := compileAll(prefix+".exclude_within", a.ExcludeWithin); err != nil {
			return err
		}
		for _, fam := range []struct {
			name string
			sels []string
		}{
			{"title", a.Fields.Title},
			{"headings", a.Fields.Headings},
			{"paragraphs", a.Fields.Paragraphs},
			{"images", a.Fields.Images},
			{"links", a.Fields.Links},
			{"lists", a.Fields.Lists},
			{"tables", a.Fields.Tables},
		} {
			if err := compileAll(prefix+".fields."+fam.name, fam.sels); err != nil {
				return err
			}
		}

		switch a.FollowLinks.Scope {
		case "", ScopeSameDomain, ScopeAnyDomain, ScopeAllowList:
		default:
			return models.ErrValidation(prefix+".follow_links.scope", fmt.Sprintf("unknown scope %q", a.FollowLinks.Scope))
		}
		if a.FollowLinks.Scope == ScopeAllowList && len(a.FollowLinks.AllowDomains) == 0 {
			return models.ErrValidation(prefix+".follow_links.allow_domains", "allow_list scope requires at least one domain")
		}
		if a.FollowLinks.Max < 0 {
			return models.ErrValidation(prefix+".follow_links.max", "must not be negative")
		}
	}
	return nil
}

func compileAll(field string, sels []string) error {
	for _, s := range sels {
		if _, err := cascadia.ParseGroup(s); err != nil {
			return models.ErrValidation(field, fmt.Sprintf("invalid selector %q", s))
		}
	}
	return nil
}

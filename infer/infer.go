// Package infer learns a working extraction policy for a domain by
// probing it. Probing walks scheme x host origins (https before http,
// bare host before www), assembles candidate pages per origin — seed,
// homepage, common language roots, sitemap samples — and keeps the first
// candidate that fetches cleanly and carries structured data. The
// learned policy is returned, never persisted; callers decide.
package infer

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/qrawl/domain"
	"github.com/use-agent/qrawl/drift"
	"github.com/use-agent/qrawl/fetch"
	"github.com/use-agent/qrawl/models"
	"github.com/use-agent/qrawl/policy"
)

// Fetcher retrieves pages during probing. Raw is the unvalidated
// single-request path used for robots.txt and sitemap documents.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, cfg policy.FetchConfig) (*fetch.Result, error)
	Raw(ctx context.Context, rawURL string) (int, string, error)
}

// Scraper turns fetched HTML into structured page content.
type Scraper interface {
	Scrape(pageURL, htmlBody string, cfg policy.ScrapeConfig) (*models.PageExtraction, error)
}

const (
	// maxSitemapSamples caps how many content URLs the first fetchable
	// sitemap contributes to the candidate list.
	maxSitemapSamples = 5

	// maxTopReasons caps the failure summary after an exhausted probe.
	maxTopReasons = 8

	// followMaxDefault is the child cap written into inferred listing areas.
	followMaxDefault = 10
)

// langRoots are common localized entry points probed under each origin.
var langRoots = []string{"en/", "en-us/", "us/en/", "gb/en/"}

// Infer probes dom until one candidate page yields structured data and
// returns the policy learned from it.
func Infer(ctx context.Context, f Fetcher, s Scraper, dom domain.Domain) (*policy.Policy, error) {
	return InferWithSeed(ctx, f, s, dom, "")
}

// InferWithSeed is Infer with an optional seed page probed before the
// domain's own candidates. The seed only participates on the host it
// actually names.
func InferWithSeed(ctx context.Context, f Fetcher, s Scraper, dom domain.Domain, seed string) (*policy.Policy, error) {
	canonical := domain.Canonicalize(string(dom))
	if canonical == "" {
		return nil, models.ErrMissingDomain()
	}

	hosts := []string{string(canonical)}
	if !strings.HasPrefix(string(canonical), "www.") {
		hosts = append(hosts, "www."+string(canonical))
	}

	probeCfg := policy.FetchConfig{Strategy: policy.StrategyAdaptive}

	var reasons []string
	attempts := 0

	for _, scheme := range []string{"https", "http"} {
		for _, host := range hosts {
			base := scheme + "://" + host + "/"
			baseURL, err := url.Parse(base)
			if err != nil {
				reasons = append(reasons, fmt.Sprintf("[%s] invalid base %s", scheme, base))
				continue
			}

			for _, cand := range candidates(ctx, f, baseURL, seed, &reasons) {
				attempts++
				slog.Debug("probing candidate", "attempt", attempts, "url", cand)

				res, err := f.Fetch(ctx, cand, probeCfg)
				if err != nil {
					if ctx.Err() != nil {
						return nil, models.ErrFetch(fmt.Sprintf("inference aborted for %s", canonical), ctx.Err())
					}
					reasons = append(reasons, fmt.Sprintf("[%s] fetch failed (%s) at %s", scheme, trimStatus(err.Error()), cand))
					continue
				}

				doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.HTML))
				if err != nil {
					reasons = append(reasons, fmt.Sprintf("[%s] unparseable HTML at %s", scheme, cand))
					continue
				}
				if !hasStructuredData(doc) {
					reasons = append(reasons, fmt.Sprintf("[%s] no structured data at %s", scheme, cand))
					continue
				}

				scrape := policy.ScrapeConfig{ExtractJSONLD: true}
				if hasItemList(doc) {
					scrape.Areas = append(scrape.Areas, listingArea())
				}

				page, err := s.Scrape(cand, res.HTML, scrape)
				if err != nil {
					reasons = append(reasons, fmt.Sprintf("[%s] scrape failed at %s: %v", scheme, cand, err))
					continue
				}
				if len(page.JSONLD) == 0 {
					reasons = append(reasons, fmt.Sprintf("[%s] structured data present but parsed JSON-LD empty at %s", scheme, cand))
					continue
				}

				slog.Info("policy inferred",
					"domain", canonical, "candidate", cand,
					"profile", res.ProfileUsed, "attempts", attempts)
				return learnedPolicy(canonical, scrape, res), nil
			}
		}
	}

	return nil, models.ErrOther(fmt.Sprintf(
		"unable to infer policy for %s. attempts=%d. %s",
		canonical, attempts, summarizeReasons(reasons, maxTopReasons)), nil)
}

// listingArea is the area added when a probe page carries an ItemList:
// no roots yet (the whole page), repeating, following up to ten
// same-domain children.
func listingArea() policy.AreaPolicy {
	return policy.AreaPolicy{
		Role:        "listing",
		IsRepeating: true,
		FollowLinks: policy.FollowLinks{
			Enabled: true,
			Scope:   policy.ScopeSameDomain,
			Max:     followMaxDefault,
			Dedupe:  true,
		},
	}
}

// learnedPolicy assembles the result policy. The domain is always the
// canonical one, even when a www or language variant won the probe, so
// the store keys stay stable.
func learnedPolicy(canonical domain.Domain, scrape policy.ScrapeConfig, res *fetch.Result) *policy.Policy {
	strategy := policy.StrategyAdaptive
	if res.ProfileUsed == fetch.ProfileMinimal.String() {
		strategy = policy.StrategyFast
	}

	ladder := fetch.LadderProfiles(policy.StrategyAdaptive)
	steps := min(res.Attempts, len(ladder))
	tried := make([]string, 0, steps)
	for _, p := range ladder[:steps] {
		tried = append(tried, p.String())
	}

	return &policy.Policy{
		Domain: canonical,
		Fetch:  policy.FetchConfig{Strategy: strategy},
		Scrape: scrape,
		Performance: &policy.PerformanceProfile{
			OptimalTimeoutMS:     optimalTimeoutMS(res.DurationMS),
			WorkingStrategy:      res.ProfileUsed,
			AvgResponseSizeBytes: len(res.HTML),
			StrategiesTried:      tried,
			StrategiesFailed:     tried[:len(tried)-1],
			LastTestedAt:         time.Now().UTC().Format(time.RFC3339),
			SuccessRate:          1.0 / float64(res.Attempts),
			StructureFingerprint: drift.FingerprintHTML(res.HTML),
		},
	}
}

// timeoutSteps are the candidate per-request timeouts recorded in
// performance profiles, smallest first.
var timeoutSteps = []int64{5_000, 10_000, 15_000, 30_000}

// optimalTimeoutMS picks the smallest step that covers the observed
// duration, topping out at the largest step.
func optimalTimeoutMS(observedMS int64) int64 {
	for _, step := range timeoutSteps {
		if observedMS <= step {
			return step
		}
	}
	return timeoutSteps[len(timeoutSteps)-1]
}

// summarizeReasons rolls per-candidate failures into at most topN
// "{count}× {message}" entries, most frequent first, ties broken by
// message order.
func summarizeReasons(reasons []string, topN int) string {
	if len(reasons) == 0 {
		return "no further details"
	}
	counts := make(map[string]int, len(reasons))
	for _, r := range reasons {
		counts[r]++
	}
	msgs := make([]string, 0, len(counts))
	for msg := range counts {
		msgs = append(msgs, msg)
	}
	sort.Slice(msgs, func(i, j int) bool {
		if counts[msgs[i]] != counts[msgs[j]] {
			return counts[msgs[i]] > counts[msgs[j]]
		}
		return msgs[i] < msgs[j]
	})
	if len(msgs) > topN {
		msgs = msgs[:topN]
	}
	parts := make([]string, len(msgs))
	for i, msg := range msgs {
		parts[i] = fmt.Sprintf("%d× %s", counts[msg], msg)
	}
	return "Top reasons: " + strings.Join(parts, " | ")
}

// trimStatus compresses a fetch error down to its status fragment
// ("status 403") when one is present, and strips trailing URLs
// otherwise, so identical failures aggregate across candidates.
func trimStatus(s string) string {
	if pos := strings.Index(s, "status "); pos >= 0 {
		fields := strings.Fields(s[pos:])
		if len(fields) >= 2 {
			return fields[0] + " " + fields[1]
		}
		return s[pos:]
	}
	if pos := strings.Index(s, " for http"); pos >= 0 {
		return s[:pos]
	}
	return s
}

// Package fetch retrieves pages through a ladder of browser profiles.
// Each profile pairs a User-Agent and header set with a matching TLS
// fingerprint; the ladder escalates from the cheapest identity to
// heavier ones until a response validates.
package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/use-agent/qrawl/models"
	"github.com/use-agent/qrawl/policy"
)

// Result is the outcome of a successful ladder run.
type Result struct {
	HTML        string `json:"html"`
	ProfileUsed string `json:"profile_used"`
	DurationMS  int64  `json:"duration_ms"`
	Attempts    int    `json:"attempts"`
}

const (
	interProfileDelayMS  = 50
	interProfileJitterMS = 50
)

// LadderProfiles returns the profile order a strategy walks. Policy
// inference uses it to name tried and failed profiles in the stored
// performance profile.
func LadderProfiles(s policy.Strategy) []Profile {
	return ladderFor(s == policy.StrategyAdaptive)
}

// Fetch runs the profile ladder against one URL. The fast strategy tries
// the Minimal profile only; adaptive walks Minimal, Windows, IOS until a
// response validates. The returned Result records which profile won, the
// total elapsed time, and the 1-based attempt count.
func Fetch(ctx context.Context, rawURL string, cfg policy.FetchConfig) (*Result, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, models.ErrInvalidURL(rawURL)
	}
	origin := u.Scheme + "://" + u.Host + "/"

	ladder := ladderFor(cfg.Strategy == policy.StrategyAdaptive)
	start := time.Now()

	var reasons []string
	for i, p := range ladder {
		if i > 0 {
			delay := time.Duration(interProfileDelayMS+JitterMS(interProfileJitterMS)) * time.Millisecond
			if err := sleep(ctx, delay); err != nil {
				return nil, models.ErrFetch(fmt.Sprintf("fetch aborted for %s", rawURL), err)
			}
		}

		// Later profiles claim to arrive from the site's own front page.
		referer := ""
		if i > 0 {
			referer = origin
		}

		status, body, err := doRequest(ctx, rawURL, referer, p)
		if err != nil {
			if ctx.Err() != nil {
				return nil, models.ErrFetch(fmt.Sprintf("fetch aborted for %s", rawURL), ctx.Err())
			}
			reasons = append(reasons, fmt.Sprintf("%s: %s", p, err))
			continue
		}
		if verr := ValidateResponse(status, body); verr != nil {
			reasons = append(reasons, fmt.Sprintf("%s: %s", p, verr))
			continue
		}

		return &Result{
			HTML:        body,
			ProfileUsed: p.String(),
			DurationMS:  time.Since(start).Milliseconds(),
			Attempts:    i + 1,
		}, nil
	}

	msg := fmt.Sprintf("All %d profiles failed: [%s]", len(ladder), strings.Join(reasons, "; "))
	return nil, models.ErrFetch(msg, nil)
}

// sleep waits for d or until the context is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

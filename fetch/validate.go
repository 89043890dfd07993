package fetch

import (
	"errors"
	"fmt"
	"strings"
)

// minBodyBytes is the smallest body that can plausibly be a real page.
const minBodyBytes = 500

// Phrases block pages use to say "no". Matched against the lowercased body.
var unauthorizedPatterns = []string{
	"access denied",
	"permission denied",
	"forbidden",
	"unauthorized",
}

// Phrases bot-detection vendors leave in challenge pages.
var suspiciousPatterns = []string{
	"verify you are a human",
	"please complete the captcha",
	"solve this captcha",
	"captcha challenge",
	"cf-browser-verification",
	"cf-captcha-container",
	"px-captcha",
	"blocked by cloudflare",
	"please enable javascript and cookies",
	"suspicious activity",
	"bot detection",
	"perimeterx",
}

// ValidateResponse decides whether a fetched page is usable. A nil return
// means the ladder can stop; otherwise the error message becomes the
// per-profile failure reason in telemetry.
func ValidateResponse(status int, body string) error {
	if status < 200 || status > 299 {
		return fmt.Errorf("status %d (%s)", status, statusLabel(status))
	}
	if len(body) < minBodyBytes {
		return errors.New("invalid - body is too short")
	}

	lower := strings.ToLower(body)
	if !strings.Contains(lower, "<html") && !strings.Contains(lower, "<!doctype html") {
		return errors.New("invalid - missing HTML markers")
	}

	// Pages carrying JSON-LD are extractable even when their visible text
	// trips a block-page pattern.
	if strings.Contains(lower, "application/ld+json") {
		return nil
	}
	for _, p := range unauthorizedPatterns {
		if strings.Contains(lower, p) {
			return fmt.Errorf("unauthorized - %s", p)
		}
	}
	for _, p := range suspiciousPatterns {
		if strings.Contains(lower, p) {
			return fmt.Errorf("suspicious - %s", p)
		}
	}
	return nil
}

func statusLabel(status int) string {
	switch status {
	case 429:
		return "rate limited"
	case 403:
		return "forbidden"
	case 404:
		return "not found"
	case 401:
		return "unauthorized"
	case 400:
		return "bad request"
	case 500:
		return "server error"
	}
	return "unknown error"
}

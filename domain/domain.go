// Package domain normalises hosts into the canonical form used as the
// policy key everywhere: lowercase, punycoded, single leading "www."
// label removed.
package domain

import (
	"net/url"
	"strings"

	"golang.org/x/net/idna"

	"github.com/use-agent/qrawl/models"
)

// Domain is a canonical host. The zero value is "no domain".
type Domain string

func (d Domain) String() string { return string(d) }

// Canonicalize normalises a raw host string. Internationalised names are
// punycoded; when IDNA mapping fails the lowercased input is kept as-is.
// A leading "www." is stripped only when something remains after it.
func Canonicalize(raw string) Domain {
	lower := strings.ToLower(strings.TrimSpace(raw))
	ascii, err := idna.Lookup.ToASCII(lower)
	if err != nil {
		ascii = lower
	}
	if rest, ok := strings.CutPrefix(ascii, "www."); ok && rest != "" {
		return Domain(rest)
	}
	return Domain(ascii)
}

// FromURL derives the canonical domain of a parsed URL.
// The second return is false when the URL has no usable host.
func FromURL(u *url.URL) (Domain, bool) {
	host := u.Hostname()
	if host == "" {
		return "", false
	}
	d := Canonicalize(host)
	if d == "" {
		return "", false
	}
	return d, true
}

// Parse parses an absolute http(s) URL and derives its canonical domain.
func Parse(raw string) (*url.URL, Domain, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, "", models.ErrInvalidURL(raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, "", models.ErrInvalidURL(raw)
	}
	d, ok := FromURL(u)
	if !ok {
		return nil, "", models.ErrMissingDomain()
	}
	return u, d, nil
}

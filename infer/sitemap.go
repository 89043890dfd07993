package infer

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// candidates assembles the probe list for one origin, most promising
// first: the seed when it lives on this host, the homepage, common
// language roots, then content URLs sampled from the origin's first
// fetchable sitemap. Duplicates keep their first slot.
func candidates(ctx context.Context, f Fetcher, base *url.URL, seed string, reasons *[]string) []string {
	var out []string

	if seed != "" {
		if su, err := url.Parse(seed); err == nil && su.Host == base.Host {
			out = append(out, su.String())
		}
	}

	out = append(out, base.String())
	for _, lang := range langRoots {
		out = append(out, base.String()+lang)
	}

	out = append(out, sitemapSamples(ctx, f, base, reasons)...)

	seen := make(map[string]struct{}, len(out))
	deduped := out[:0]
	for _, u := range out {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		deduped = append(deduped, u)
	}
	return deduped
}

// sitemapSamples returns up to maxSitemapSamples content URLs from the
// origin's first fetchable sitemap. Sitemap locations come from
// robots.txt "Sitemap:" lines, falling back to the two conventional
// paths when robots.txt names none. Index entries (.xml, .gz) and
// off-host URLs never qualify as samples.
func sitemapSamples(ctx context.Context, f Fetcher, base *url.URL, reasons *[]string) []string {
	sitemaps := robotsSitemaps(ctx, f, base)
	if len(sitemaps) == 0 {
		sitemaps = []string{base.String() + "sitemap.xml", base.String() + "sitemap_index.xml"}
	}

	for _, sm := range sitemaps {
		status, body, err := f.Raw(ctx, sm)
		if err != nil || status < 200 || status > 299 {
			*reasons = append(*reasons, fmt.Sprintf("[%s] sitemap fetch failed for %s", base.Scheme, sm))
			continue
		}

		// First fetchable sitemap wins, even when nothing qualifies.
		var out []string
		for _, loc := range sitemapLocs(body, base) {
			u, err := url.Parse(loc)
			if err != nil || u.Host != base.Host {
				continue
			}
			if strings.HasSuffix(loc, ".xml") || strings.HasSuffix(loc, ".gz") {
				continue
			}
			out = append(out, loc)
			if len(out) == maxSitemapSamples {
				break
			}
		}
		return out
	}
	return nil
}

// robotsSitemaps scans the origin's robots.txt for Sitemap lines.
// An unreachable robots.txt is normal and not a probe failure.
func robotsSitemaps(ctx context.Context, f Fetcher, base *url.URL) []string {
	status, body, err := f.Raw(ctx, base.String()+"robots.txt")
	if err != nil || status < 200 || status > 299 {
		return nil
	}

	var out []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(strings.ToLower(line), "sitemap:") {
			continue
		}
		if sm := strings.TrimSpace(line[len("sitemap:"):]); sm != "" {
			out = append(out, sm)
		}
	}
	return out
}

// sitemapLocs walks <loc> entries literally and resolves relative ones
// against the origin. Real-world sitemaps are often slightly malformed,
// so a full XML parse buys nothing over a text scan here.
func sitemapLocs(xml string, base *url.URL) []string {
	var out []string
	seen := make(map[string]struct{})

	rest := xml
	for {
		s := strings.Index(rest, "<loc>")
		if s < 0 {
			break
		}
		rest = rest[s+len("<loc>"):]
		e := strings.Index(rest, "</loc>")
		if e < 0 {
			break
		}
		loc := strings.TrimSpace(rest[:e])
		rest = rest[e+len("</loc>"):]
		if loc == "" {
			continue
		}

		u, err := url.Parse(loc)
		if err != nil {
			continue
		}
		abs := loc
		if !u.IsAbs() {
			abs = base.ResolveReference(u).String()
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
	}
	return out
}

package miner

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/use-agent/qrawl/scraper"
)

var headingTags = map[string]bool{"h1": true, "h2": true, "h3": true, "h4": true}

var emphasisOrHeading = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true,
	"strong": true, "b": true,
}

// Anchor texts that operate the page rather than name a destination.
var utilityTexts = map[string]bool{
	"share": true, "print": true, "save": true, "pin": true,
	"email": true, "tweet": true, "facebook": true, "pinterest": true,
	"linkedin": true, "reddit": true, "copy link": true,
	"comment": true, "buy": true,
}

var hrefCleaner = strings.NewReplacer(
	`\`, "",
	"&quot;", "",
	"&#34;", "",
	"&apos;", "",
	"&#39;", "",
)

// cleanHref undoes the quoting damage seen in malformed markup: literal
// backslashes, quote entities, and stray surrounding quotes.
func cleanHref(href string) string {
	s := strings.TrimSpace(hrefCleaner.Replace(href))
	s = strings.Trim(s, `"`)
	s = strings.Trim(s, `'`)
	return strings.TrimSpace(s)
}

// resolveHref turns an href into an absolute URL against the base.
// Only http and https results survive.
func resolveHref(base *url.URL, href string) (string, bool) {
	var u *url.URL
	if strings.HasPrefix(href, "//") {
		parsed, err := url.Parse(base.Scheme + ":" + href)
		if err != nil {
			return "", false
		}
		u = parsed
	} else if parsed, err := url.Parse(href); err == nil && parsed.IsAbs() {
		u = parsed
	} else if joined, jerr := base.Parse(href); jerr == nil {
		u = joined
	} else {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	return u.String(), true
}

func hasMeaningfulText(s string) bool {
	return strings.TrimSpace(s) != ""
}

func isUtilityText(s string) bool {
	return utilityTexts[strings.ToLower(strings.TrimSpace(s))]
}

// normalizeText lowercases and collapses whitespace runs to single
// spaces, so link and heading texts compare on their words alone.
func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(m *html.Node) {
		if m.Type == html.TextNode {
			sb.WriteString(m.Data)
		}
		for c := m.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func hasDescendantTag(n *html.Node, tags map[string]bool) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && tags[c.Data] {
			return true
		}
		if hasDescendantTag(c, tags) {
			return true
		}
	}
	return false
}

// isHeadingLink reports whether the anchor lives in heading territory:
// inside an h1-h4, wrapping one, or bound to strong/b emphasis. Anchors
// without visible text never count.
func isHeadingLink(link *html.Node, rawText string) bool {
	if !hasMeaningfulText(rawText) {
		return false
	}
	if headingTags[link.Data] {
		return true
	}
	for t := range headingTags {
		if insideTag(link, t) {
			return true
		}
	}
	if hasDescendantTag(link, emphasisOrHeading) {
		return true
	}
	return insideTag(link, "strong") || insideTag(link, "b")
}

// collectHeadingTexts gathers the normalized non-empty texts of every
// h1-h4 under the scope.
func collectHeadingTexts(scope *html.Node) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && headingTags[n.Data] {
			if t := normalizeText(textOf(n)); t != "" {
				out = append(out, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(scope)
	return out
}

func linkMatchesHeading(linkTextNorm string, headings []string) bool {
	if linkTextNorm == "" {
		return false
	}
	for _, h := range headings {
		if h == "" {
			continue
		}
		if linkTextNorm == h || strings.Contains(linkTextNorm, h) || strings.Contains(h, linkTextNorm) {
			return true
		}
	}
	return false
}

// selectPrimaryLink picks the link a reader would click for the item
// under scope: heading-bound links first, then the first link with
// meaningful non-utility text, then any valid link at all.
func selectPrimaryLink(scope *html.Node, base *url.URL) (string, bool) {
	headings := collectHeadingTexts(scope)

	type headingLink struct{ url, text string }
	var headingLinks []headingLink
	var fallback, primaryText string
	var haveFallback, havePrimaryText bool

	for _, link := range scraper.Selectors().Anchors.MatchAll(scope) {
		href := cleanHref(attr(link, "href"))
		resolved, ok := resolveHref(base, href)
		if !ok {
			continue
		}
		if !haveFallback {
			fallback, haveFallback = resolved, true
		}

		rawText := textOf(link)
		textNorm := normalizeText(rawText)
		if isHeadingLink(link, rawText) || linkMatchesHeading(textNorm, headings) {
			headingLinks = append(headingLinks, headingLink{resolved, textNorm})
		}
		if !havePrimaryText && hasMeaningfulText(rawText) && !isUtilityText(rawText) {
			primaryText, havePrimaryText = resolved, true
		}
	}

	if len(headingLinks) == 1 {
		return headingLinks[0].url, true
	}
	if len(headingLinks) > 1 {
		for _, hl := range headingLinks {
			for _, h := range headings {
				if hl.text == h {
					return hl.url, true
				}
			}
		}
		for _, hl := range headingLinks {
			for _, h := range headings {
				if h != "" && strings.Contains(hl.text, h) {
					return hl.url, true
				}
			}
		}
		for _, hl := range headingLinks {
			for _, h := range headings {
				if hl.text != "" && strings.Contains(h, hl.text) {
					return hl.url, true
				}
			}
		}
		return headingLinks[len(headingLinks)-1].url, true
	}
	if havePrimaryText {
		return primaryText, true
	}
	if haveFallback {
		return fallback, true
	}
	return "", false
}

// SiblingLinks resolves one primary link per member fragment, dropping
// members without a usable link.
func SiblingLinks(members []string, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil || !base.IsAbs() {
		return nil
	}
	var out []string
	for _, member := range members {
		frag, perr := html.Parse(strings.NewReader(member))
		if perr != nil {
			continue
		}
		if link, ok := selectPrimaryLink(frag, base); ok {
			out = append(out, link)
		}
	}
	return out
}

// Links mines the page and returns the primary link of every member of
// the best sibling group, in member order.
func Links(htmlBody, baseURL string) []string {
	return SiblingLinks(Siblings(htmlBody), baseURL)
}

// PageLinks returns every http(s) link on the page resolved against the
// base. Hrefs are taken as written apart from whitespace and stray
// surrounding quotes.
func PageLinks(htmlBody, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil || !base.IsAbs() {
		return nil
	}
	root, err := html.Parse(strings.NewReader(htmlBody))
	if err != nil {
		return nil
	}
	var out []string
	for _, link := range scraper.Selectors().Anchors.MatchAll(root) {
		href := strings.TrimSpace(attr(link, "href"))
		href = strings.Trim(href, `"`)
		href = strings.Trim(href, `'`)
		href = strings.TrimSpace(href)
		if resolved, ok := resolveHref(base, href); ok {
			out = append(out, resolved)
		}
	}
	return out
}

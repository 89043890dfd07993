// Package cleaner produces readable views of fetched pages: junk
// stripping, main-content location, readability extraction with a
// pruning fallback, and the metadata helpers behind the page tools.
package cleaner

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/use-agent/qrawl/scraper"
)

// junkSelector matches elements that never carry readable content.
const junkSelector = "script, style, noscript, iframe, svg, nav, header, footer, aside, form"

// mainSelectors locate the main content region, most specific first.
var mainSelectors = []string{"main", "article", "[role='main']", "#content", ".content", "body"}

var whitespaceRe = regexp.MustCompile(`\s+`)

// Attributes that only style or script the page.
var junkAttrNames = map[string]bool{
	"class": true, "id": true, "style": true, "role": true,
	"tabindex": true, "xmlns": true, "version": true, "viewbox": true,
	"fill": true, "fill-rule": true,
}

var junkAttrPrefixes = []string{"data-", "aria-", "on", "stroke", "xmlns:"}

// Clean strips junk elements, comments, and presentation attributes,
// then collapses whitespace runs to single spaces. Only the content
// structure survives.
func Clean(rawHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return collapseWhitespace(rawHTML)
	}
	doc.Find(junkSelector).Remove()
	removeComments(doc)
	stripJunkAttrs(doc)

	out, err := doc.Html()
	if err != nil {
		return collapseWhitespace(rawHTML)
	}
	return collapseWhitespace(out)
}

// MainHTML returns the outer HTML of the page's main content region:
// the first of mainSelectors with a match wins. Unparseable input comes
// back whole.
func MainHTML(rawHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return rawHTML
	}
	for _, sel := range mainSelectors {
		if m := doc.Find(sel).First(); m.Length() > 0 {
			if out, oerr := goquery.OuterHtml(m); oerr == nil {
				return out
			}
		}
	}
	return rawHTML
}

// BodyHTML returns the <body> outer HTML, or the whole input when no
// body can be located.
func BodyHTML(rawHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return rawHTML
	}
	if body := doc.FindMatcher(scraper.Selectors().Body).First(); body.Length() > 0 {
		if out, oerr := goquery.OuterHtml(body); oerr == nil {
			return out
		}
	}
	return rawHTML
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func removeComments(doc *goquery.Document) {
	for _, root := range doc.Nodes {
		var walk func(*html.Node)
		walk = func(n *html.Node) {
			c := n.FirstChild
			for c != nil {
				next := c.NextSibling
				if c.Type == html.CommentNode {
					n.RemoveChild(c)
				} else {
					walk(c)
				}
				c = next
			}
		}
		walk(root)
	}
}

func stripJunkAttrs(doc *goquery.Document) {
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			kept := n.Attr[:0]
			for _, a := range n.Attr {
				if !isJunkAttr(strings.ToLower(a.Key)) {
					kept = append(kept, a)
				}
			}
			n.Attr = kept
		}
	})
}

func isJunkAttr(key string) bool {
	if junkAttrNames[key] {
		return true
	}
	for _, p := range junkAttrPrefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

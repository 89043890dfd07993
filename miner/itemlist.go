package miner

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/use-agent/qrawl/domain"
	"github.com/use-agent/qrawl/jsonld"
)

// ItemListLinks resolves the members of every JSON-LD ItemList on the
// page to concrete URLs, in list order.
func ItemListLinks(htmlBody, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil || !base.IsAbs() {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
	if err != nil {
		return nil
	}

	var lists []map[string]any
	for _, node := range jsonld.ScriptBlocks(doc) {
		jsonld.CollectItemLists(node, &lists)
	}

	var out []string
	for _, list := range lists {
		var elems []any
		switch v := list["itemListElement"].(type) {
		case []any:
			elems = v
		case map[string]any:
			elems = []any{v}
		default:
			continue
		}
		for _, elem := range elems {
			obj, ok := elem.(map[string]any)
			if !ok {
				continue
			}
			if resolved, ok := resolveItemListURL(doc, base, obj); ok {
				out = append(out, resolved)
			}
		}
	}
	return out
}

// resolveItemListURL turns one itemListElement into a concrete URL.
// Fragment references are dereferenced through the page itself: the
// referenced element's primary link stands in for the fragment.
func resolveItemListURL(doc *goquery.Document, base *url.URL, elem map[string]any) (string, bool) {
	raw, ok := elem["url"].(string)
	if !ok {
		return "", false
	}

	if frag, found := strings.CutPrefix(raw, "#"); found {
		return anchorLink(doc, base, frag)
	}

	if u, err := url.Parse(raw); err == nil && u.IsAbs() {
		if u.Scheme != "http" && u.Scheme != "https" {
			return "", false
		}
		if u.Fragment != "" && u.Scheme == base.Scheme && sameCanonicalHost(u, base) {
			return anchorLink(doc, base, u.Fragment)
		}
		return u.String(), true
	}

	joined, err := base.Parse(raw)
	if err != nil || (joined.Scheme != "http" && joined.Scheme != "https") {
		return "", false
	}
	return joined.String(), true
}

func sameCanonicalHost(a, b *url.URL) bool {
	ah, bh := a.Hostname(), b.Hostname()
	if ah == "" || bh == "" {
		return false
	}
	return domain.Canonicalize(ah) == domain.Canonicalize(bh)
}

// anchorLink finds the element carrying the given id and selects its
// primary link. The selector is built per call since the id is data.
func anchorLink(doc *goquery.Document, base *url.URL, id string) (string, bool) {
	sel, err := cascadia.Compile("[id='" + id + "']")
	if err != nil {
		return "", false
	}
	first := doc.FindMatcher(sel).First()
	if first.Length() == 0 {
		return "", false
	}
	return selectPrimaryLink(first.Get(0), base)
}

package infer

import (
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/use-agent/qrawl/jsonld"
)

// structuredMatchers are the signals that a page carries machine-readable
// data: JSON-LD scripts, microdata scopes, and RDFa attributes.
var structuredMatchers = sync.OnceValue(func() []cascadia.Selector {
	return []cascadia.Selector{
		cascadia.MustCompile(`script[type='application/ld+json']`),
		cascadia.MustCompile(`[itemscope]`),
		cascadia.MustCompile(`[typeof],[property],[about],[rel],[vocab]`),
	}
})

// hasStructuredData reports whether any structured-data signal appears in
// the document. Presence is enough; the probe scrape decides usability.
func hasStructuredData(doc *goquery.Document) bool {
	for _, m := range structuredMatchers() {
		if doc.FindMatcher(m).Length() > 0 {
			return true
		}
	}
	return false
}

// hasItemList reports whether any JSON-LD block in the document contains
// an item list, using the lenient containment check.
func hasItemList(doc *goquery.Document) bool {
	for _, node := range jsonld.ScriptBlocks(doc) {
		if jsonld.ContainsItemList(node) {
			return true
		}
	}
	return false
}

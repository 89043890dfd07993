package scraper

import (
	"sync"

	"github.com/andybalholm/cascadia"
)

// SelectorSet holds the selectors every extraction pass needs, compiled
// once per process.
type SelectorSet struct {
	Anchors  cascadia.Selector
	Body     cascadia.Selector
	Title    cascadia.Selector
	Meta     cascadia.Selector
	HTMLLang cascadia.Selector
}

var selectorSet = sync.OnceValue(func() *SelectorSet {
	return &SelectorSet{
		Anchors:  cascadia.MustCompile("a[href]"),
		Body:     cascadia.MustCompile("body"),
		Title:    cascadia.MustCompile("title"),
		Meta:     cascadia.MustCompile("meta[name], meta[property]"),
		HTMLLang: cascadia.MustCompile("html[lang]"),
	}
})

// Selectors returns the shared compiled selector set.
func Selectors() *SelectorSet {
	return selectorSet()
}

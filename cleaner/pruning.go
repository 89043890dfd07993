package cleaner

import (
	"math"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/qrawl/scraper"
)

// Signal weights for the pruning scorer. A block survives when its
// weighted score lands above zero.
const (
	wTextDensity   = 3.0
	wLinkDensity   = -2.0
	wTagWeight     = 1.5
	wClassIDWeight = 1.0
	wTextLength    = 0.5
)

// Class/id substrings hinting at main content.
var positiveClassIDHints = []string{
	"content", "article", "post", "entry", "body", "main", "text",
}

// Class/id substrings hinting at boilerplate.
var negativeClassIDHints = []string{
	"sidebar", "ad", "widget", "nav", "menu", "comment", "footer",
	"header", "banner", "popup", "modal", "cookie", "social", "share",
	"related", "recommend", "promo",
}

// Prune keeps the main content of a page by scoring every top-level
// block in <body> on text density, link density, semantic tag, class/id
// hints, and text length. Blocks scoring at or below zero are dropped as
// boilerplate. When nothing passes, the whole body survives so the
// output is never empty.
func Prune(rawHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return rawHTML
	}
	body := doc.FindMatcher(scraper.Selectors().Body)
	if body.Length() == 0 {
		return rawHTML
	}

	var retained []string
	body.Children().Each(func(_ int, el *goquery.Selection) {
		if scoreBlock(el) <= 0 {
			return
		}
		if h, herr := goquery.OuterHtml(el); herr == nil {
			retained = append(retained, h)
		}
	})

	if len(retained) == 0 {
		if h, herr := body.Html(); herr == nil {
			return h
		}
		return rawHTML
	}
	return strings.Join(retained, "\n")
}

func scoreBlock(el *goquery.Selection) float64 {
	fullHTML, err := goquery.OuterHtml(el)
	if err != nil {
		return 0
	}

	text := strings.TrimSpace(el.Text())
	textLen := len(text)

	textDensity := 0.0
	if len(fullHTML) > 0 {
		textDensity = float64(textLen) / float64(len(fullHTML))
	}

	linkTextLen := 0
	el.Find("a").Each(func(_ int, a *goquery.Selection) {
		linkTextLen += len(strings.TrimSpace(a.Text()))
	})
	linkDensity := 0.0
	if textLen > 0 {
		linkDensity = float64(linkTextLen) / float64(textLen)
	}

	return textDensity*wTextDensity +
		linkDensity*wLinkDensity +
		tagWeight(el)*wTagWeight +
		classIDWeight(el)*wClassIDWeight +
		math.Log10(float64(textLen)+1)*wTextLength
}

// tagWeight rewards semantic content containers and punishes chrome.
func tagWeight(el *goquery.Selection) float64 {
	switch goquery.NodeName(el) {
	case "article", "main", "section":
		return 5.0
	case "nav", "footer", "aside", "header":
		return -5.0
	default:
		return 0.0
	}
}

// classIDWeight scores class/id attribute hints, at most once per
// direction.
func classIDWeight(el *goquery.Selection) float64 {
	class, _ := el.Attr("class")
	id, _ := el.Attr("id")
	combined := strings.ToLower(class + " " + id)

	score := 0.0
	for _, hint := range positiveClassIDHints {
		if strings.Contains(combined, hint) {
			score += 3.0
			break
		}
	}
	for _, hint := range negativeClassIDHints {
		if strings.Contains(combined, hint) {
			score -= 3.0
			break
		}
	}
	return score
}

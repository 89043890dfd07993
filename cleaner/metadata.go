package cleaner

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/qrawl/scraper"
)

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phoneRe = regexp.MustCompile(`(?:\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
)

// MetaPair is one metadata entry, in document order.
type MetaPair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// PagePreview is the social-card view of a page's metadata.
type PagePreview struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

// Metadata lists a page's metadata in document order: the <title> text,
// every meta[name] / meta[property] with non-empty content, and the
// html[lang] attribute under the key "lang".
func Metadata(rawHTML string) []MetaPair {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil
	}

	sels := scraper.Selectors()
	var pairs []MetaPair
	if title := strings.TrimSpace(doc.FindMatcher(sels.Title).First().Text()); title != "" {
		pairs = append(pairs, MetaPair{Key: "title", Value: title})
	}
	doc.FindMatcher(sels.Meta).Each(func(_ int, s *goquery.Selection) {
		key, ok := s.Attr("name")
		if !ok {
			key, ok = s.Attr("property")
		}
		content, cok := s.Attr("content")
		if !ok || !cok || strings.TrimSpace(content) == "" {
			return
		}
		pairs = append(pairs, MetaPair{Key: key, Value: content})
	})
	if lang, ok := doc.FindMatcher(sels.HTMLLang).First().Attr("lang"); ok {
		pairs = append(pairs, MetaPair{Key: "lang", Value: lang})
	}
	return pairs
}

// Preview assembles a link preview from metadata pairs: the first
// non-empty value per field, in priority order.
func Preview(pairs []MetaPair) PagePreview {
	return PagePreview{
		Title:       firstMetaValue(pairs, "title", "og:title", "twitter:title"),
		Description: firstMetaValue(pairs, "description", "og:description", "twitter:description"),
		Image:       firstMetaValue(pairs, "og:image", "twitter:image", "og:image:secure_url"),
	}
}

func firstMetaValue(pairs []MetaPair, keys ...string) string {
	for _, key := range keys {
		for _, p := range pairs {
			if strings.EqualFold(p.Key, key) {
				if v := strings.TrimSpace(p.Value); v != "" {
					return v
				}
			}
		}
	}
	return ""
}

// SchemaTypes lists the unique schema.org @type values across parsed
// JSON-LD blocks, in first-seen order. Both the string and array forms
// of @type count.
func SchemaTypes(blocks []any) []string {
	var types []string
	for _, block := range blocks {
		obj, ok := block.(map[string]any)
		if !ok {
			continue
		}
		switch t := obj["@type"].(type) {
		case string:
			types = appendUnique(types, t)
		case []any:
			for _, v := range t {
				if s, sok := v.(string); sok {
					types = appendUnique(types, s)
				}
			}
		}
	}
	return types
}

func appendUnique(items []string, v string) []string {
	for _, existing := range items {
		if existing == v {
			return items
		}
	}
	return append(items, v)
}

// Emails returns every email address on the page: mailto: link targets
// first, then regex matches over the visible text. Duplicates between
// the two passes are kept; callers dedupe if they care.
func Emails(rawHTML string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil
	}
	return append(hrefValues(doc, "mailto:"), emailRe.FindAllString(doc.Text(), -1)...)
}

// Phones returns every phone number on the page: tel: link targets
// first, then regex matches over the visible text.
func Phones(rawHTML string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil
	}
	return append(hrefValues(doc, "tel:"), phoneRe.FindAllString(doc.Text(), -1)...)
}

// CleanEmails normalizes raw email candidates: surrounding punctuation
// trimmed, lowercased, deduplicated in order. Empty results are dropped.
func CleanEmails(raw []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, e := range raw {
		e = strings.ToLower(strings.Trim(strings.TrimSpace(e), ".,;:<>()[]{}\"'"))
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}

// CleanPhones normalizes raw phone candidates down to digits, keeping a
// leading + for international numbers, deduplicated in order.
func CleanPhones(raw []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, p := range raw {
		p = strings.TrimSpace(p)
		var b strings.Builder
		if strings.HasPrefix(p, "+") {
			b.WriteByte('+')
		}
		for _, r := range p {
			if r >= '0' && r <= '9' {
				b.WriteRune(r)
			}
		}
		cleaned := b.String()
		if cleaned == "" || cleaned == "+" || seen[cleaned] {
			continue
		}
		seen[cleaned] = true
		out = append(out, cleaned)
	}
	return out
}

// hrefValues collects anchor href values carrying the prefix, query
// string cut off.
func hrefValues(doc *goquery.Document, prefix string) []string {
	var out []string
	doc.FindMatcher(scraper.Selectors().Anchors).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		value, found := strings.CutPrefix(href, prefix)
		if !found {
			return
		}
		value, _, _ = strings.Cut(value, "?")
		if value != "" {
			out = append(out, value)
		}
	})
	return out
}

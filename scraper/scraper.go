// Package scraper pulls structured content out of fetched pages by
// applying a policy's area selectors. It never fetches anything itself.
package scraper

import (
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/use-agent/qrawl/domain"
	"github.com/use-agent/qrawl/jsonld"
	"github.com/use-agent/qrawl/models"
	"github.com/use-agent/qrawl/policy"
)

// Scrape applies a scrape config to already-fetched HTML. Areas without
// root selectors and selectors that fail to compile are skipped rather
// than failing the whole page.
func Scrape(pageURL, htmlBody string, cfg policy.ScrapeConfig) (*models.PageExtraction, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
	if err != nil {
		return nil, models.ErrOther("failed to parse HTML", err)
	}

	var dom string
	if u, uerr := url.Parse(pageURL); uerr == nil {
		if d, ok := domain.FromURL(u); ok {
			dom = string(d)
		}
	}

	out := &models.PageExtraction{
		URL:       pageURL,
		Domain:    dom,
		FetchedAt: time.Now().UTC(),
	}
	if cfg.ExtractJSONLD {
		out.JSONLD = jsonld.ScriptBlocks(doc)
	}
	for _, area := range cfg.Areas {
		if len(area.Roots) == 0 {
			continue
		}
		out.Areas = append(out.Areas, scrapeArea(doc, area)...)
	}
	return out, nil
}

// fieldMatchers carries an area's per-family selectors, compiled.
type fieldMatchers struct {
	title      []cascadia.Selector
	headings   []cascadia.Selector
	paragraphs []cascadia.Selector
	images     []cascadia.Selector
	links      []cascadia.Selector
	lists      []cascadia.Selector
	tables     []cascadia.Selector
}

func compileList(sels []string) []cascadia.Selector {
	var out []cascadia.Selector
	for _, s := range sels {
		if m, err := cascadia.Compile(s); err == nil {
			out = append(out, m)
		}
	}
	return out
}

func compileFields(f policy.FieldSelectors) fieldMatchers {
	return fieldMatchers{
		title:      compileList(f.Title),
		headings:   compileList(f.Headings),
		paragraphs: compileList(f.Paragraphs),
		images:     compileList(f.Images),
		links:      compileList(f.Links),
		lists:      compileList(f.Lists),
		tables:     compileList(f.Tables),
	}
}

func scrapeArea(doc *goquery.Document, area policy.AreaPolicy) []models.AreaContent {
	excludes := compileList(area.ExcludeWithin)
	fields := compileFields(area.Fields)

	var out []models.AreaContent
	for _, rootSel := range area.Roots {
		matcher, err := cascadia.Compile(rootSel)
		if err != nil {
			continue
		}
		roots := doc.FindMatcher(matcher)
		if !area.IsRepeating {
			roots = roots.First()
		}
		roots.Each(func(_ int, root *goquery.Selection) {
			if excludedRoot(root, excludes) {
				return
			}
			out = append(out, models.AreaContent{
				Role:                area.Role,
				RootSelectorMatched: rootSel,
				Title:               findTitle(root, fields.title),
				Content:             walkContent(root, fields),
			})
		})
	}
	return out
}

// excludedRoot reports whether any exclusion selector matches inside
// the root. A hit disqualifies the whole root.
func excludedRoot(root *goquery.Selection, excludes []cascadia.Selector) bool {
	for _, m := range excludes {
		if root.FindMatcher(m).Length() > 0 {
			return true
		}
	}
	return false
}

// findTitle returns the first non-empty trimmed text among the title
// selectors, in selector order then document order.
func findTitle(root *goquery.Selection, titles []cascadia.Selector) *string {
	for _, m := range titles {
		var found *string
		root.FindMatcher(m).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if txt := strings.TrimSpace(s.Text()); txt != "" {
				found = &txt
				return false
			}
			return true
		})
		if found != nil {
			return found
		}
	}
	return nil
}

func matchesAny(el *goquery.Selection, matchers []cascadia.Selector) bool {
	for _, m := range matchers {
		if el.IsMatcher(m) {
			return true
		}
	}
	return false
}

// walkContent visits every descendant element of the root in document
// order. An element contributes a block only when a selector of its own
// tag family matches it.
func walkContent(root *goquery.Selection, fields fieldMatchers) []models.ContentBlock {
	var blocks []models.ContentBlock
	root.Find("*").Each(func(_ int, el *goquery.Selection) {
		node := el.Get(0)
		if node == nil || node.Type != html.ElementNode {
			return
		}
		switch node.Data {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			if !matchesAny(el, fields.headings) {
				return
			}
			if txt := strings.TrimSpace(el.Text()); txt != "" {
				blocks = append(blocks, models.ContentBlock{
					Type:  models.BlockHeading,
					Text:  &txt,
					Level: int(node.Data[1] - '0'),
				})
			}
		case "p":
			if !matchesAny(el, fields.paragraphs) {
				return
			}
			if txt := strings.TrimSpace(el.Text()); txt != "" {
				blocks = append(blocks, models.ContentBlock{Type: models.BlockParagraph, Text: &txt})
			}
		case "img":
			if !matchesAny(el, fields.images) {
				return
			}
			if src, ok := el.Attr("src"); ok {
				blk := models.ContentBlock{Type: models.BlockImage, Src: src}
				if alt, ok := el.Attr("alt"); ok {
					blk.Alt = &alt
				}
				blocks = append(blocks, blk)
			}
		case "a":
			if !matchesAny(el, fields.links) {
				return
			}
			if href, ok := el.Attr("href"); ok {
				txt := strings.TrimSpace(el.Text())
				blocks = append(blocks, models.ContentBlock{Type: models.BlockLink, Href: href, Text: &txt})
			}
		case "ul", "ol":
			if !matchesAny(el, fields.lists) {
				return
			}
			var items []string
			el.Find("li").Each(func(_ int, li *goquery.Selection) {
				if txt := strings.TrimSpace(li.Text()); txt != "" {
					items = append(items, txt)
				}
			})
			if len(items) > 0 {
				blocks = append(blocks, models.ContentBlock{Type: models.BlockList, Items: items})
			}
		case "table":
			if !matchesAny(el, fields.tables) {
				return
			}
			var rows [][]string
			el.Find("tr").Each(func(_ int, tr *goquery.Selection) {
				var cells []string
				tr.Find("td,th").Each(func(_ int, cell *goquery.Selection) {
					cells = append(cells, strings.TrimSpace(cell.Text()))
				})
				if len(cells) > 0 {
					rows = append(rows, cells)
				}
			})
			if len(rows) > 0 {
				blocks = append(blocks, models.ContentBlock{Type: models.BlockTable, Rows: rows})
			}
		}
	})
	return blocks
}

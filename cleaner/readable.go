package cleaner

import (
	"log/slog"
	"math"
	"net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/use-agent/qrawl/models"
)

// minContentLength is the smallest extracted text (in bytes) readability
// output is trusted at. Below it the pruning scorer takes over.
const minContentLength = 50

// Output formats for Readable.
const (
	FormatMarkdown          = "markdown"
	FormatText              = "text"
	FormatHTML              = "html"
	FormatMarkdownCitations = "markdown_citations"
)

// ReadableResult is the readable rendition of one page.
type ReadableResult struct {
	Title   string           `json:"title,omitempty"`
	Byline  string           `json:"byline,omitempty"`
	Content string           `json:"content"`
	Tokens  models.TokenInfo `json:"tokens"`
}

// Pipeline turns raw page HTML into a readable rendition. The markdown
// converter is built once and shared; a Pipeline is safe for concurrent
// use.
type Pipeline struct {
	conv *converter.Converter
}

// NewPipeline builds a pipeline with the standard markdown converter.
func NewPipeline() *Pipeline {
	return &Pipeline{conv: newMarkdownConverter()}
}

// Readable extracts the article content of a page and renders it in the
// requested output format. An empty format means markdown. The token
// numbers compare the raw input against the rendition.
func (p *Pipeline) Readable(pageURL, rawHTML, format string) (*ReadableResult, error) {
	originalTokens := EstimateTokens(rawHTML)
	article := extractArticle(pageURL, rawHTML)

	var content string
	switch format {
	case FormatText:
		content = strings.TrimSpace(article.TextContent)
	case FormatHTML:
		content = article.Content
	case FormatMarkdownCitations:
		md, err := p.toMarkdown(article.Content, pageURL)
		if err != nil {
			return nil, models.ErrOther("markdown conversion failed", err)
		}
		content = ConvertToCitations(md)
	default:
		md, err := p.toMarkdown(article.Content, pageURL)
		if err != nil {
			return nil, models.ErrOther("markdown conversion failed", err)
		}
		content = md
	}

	cleanedTokens := EstimateTokens(content)
	savings := 0.0
	if originalTokens > 0 {
		savings = float64(originalTokens-cleanedTokens) / float64(originalTokens) * 100
		savings = math.Round(savings*100) / 100
	}

	return &ReadableResult{
		Title:   article.Title,
		Byline:  article.Byline,
		Content: content,
		Tokens: models.TokenInfo{
			OriginalEstimate: originalTokens,
			CleanedEstimate:  cleanedTokens,
			SavingsPercent:   savings,
		},
	}, nil
}

// extractArticle runs readability and falls back to the pruning scorer
// when the algorithm fails or yields too little text. The fallback keeps
// whatever metadata readability managed to find.
func extractArticle(pageURL, rawHTML string) readability.Article {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		parsed = &url.URL{}
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsed)
	if err == nil && len(strings.TrimSpace(article.TextContent)) >= minContentLength {
		return article
	}
	if err != nil {
		slog.Debug("readability failed, pruning instead", "url", pageURL, "error", err)
	} else {
		slog.Debug("readability output too short, pruning instead", "url", pageURL, "length", len(article.TextContent))
	}

	pruned := Prune(rawHTML)
	article.Content = pruned
	article.TextContent = stripTags(pruned)
	return article
}

// stripTags returns the visible text of an HTML fragment, trimmed.
func stripTags(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return strings.TrimSpace(doc.Text())
}

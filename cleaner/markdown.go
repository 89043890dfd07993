package cleaner

import (
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// newMarkdownConverter builds the shared HTML-to-markdown converter:
// the base plugin drops script/style/head noise, commonmark renders the
// standard constructs, and the table plugin keeps tabular structure.
// Minimal cell padding skips column alignment, which costs tokens and
// buys nothing.
func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
			),
		),
	)
}

// toMarkdown converts HTML to markdown, resolving relative links and
// image sources against the page URL so the output stands alone.
func (p *Pipeline) toMarkdown(htmlContent, pageURL string) (string, error) {
	return p.conv.ConvertString(htmlContent, converter.WithDomain(pageURL))
}

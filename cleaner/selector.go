package cleaner

import (
	"bytes"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/use-agent/qrawl/models"
)

// ApplyCSSSelector narrows a page to the elements matching the selector,
// concatenating their outer HTML. A selector with no matches leaves the
// input unchanged so downstream stages still have a page to work on.
// An unparseable selector is a validation error.
func ApplyCSSSelector(rawHTML, selector string) (string, error) {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return "", models.ErrValidation("css_selector", err.Error())
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return rawHTML, nil
	}

	matches := cascadia.QueryAll(doc, sel)
	if len(matches) == 0 {
		return rawHTML, nil
	}

	var buf bytes.Buffer
	for _, node := range matches {
		if rerr := html.Render(&buf, node); rerr != nil {
			return "", models.ErrOther("render selected nodes", rerr)
		}
	}
	return buf.String(), nil
}

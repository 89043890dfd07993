package cleaner

import (
	"fmt"
	"regexp"
	"strings"
)

// inlineLinkRe matches markdown inline links: [text](url)
var inlineLinkRe = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)

// ConvertToCitations rewrites inline markdown links as numbered
// reference-style citations, with the reference list appended after a
// rule. Repeated URLs share one number.
//
//	See [Go](https://go.dev) → See [Go][1] ... [1]: https://go.dev
func ConvertToCitations(markdown string) string {
	urlToNum := make(map[string]int)
	var refs []string

	result := inlineLinkRe.ReplaceAllStringFunc(markdown, func(match string) string {
		parts := inlineLinkRe.FindStringSubmatch(match)
		if len(parts) != 3 {
			return match
		}
		text, target := parts[1], parts[2]

		num, seen := urlToNum[target]
		if !seen {
			num = len(urlToNum) + 1
			urlToNum[target] = num
			refs = append(refs, fmt.Sprintf("[%d]: %s", num, target))
		}
		return fmt.Sprintf("[%s][%d]", text, num)
	})

	if len(refs) == 0 {
		return markdown
	}
	return result + "\n\n---\n" + strings.Join(refs, "\n")
}

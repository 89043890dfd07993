// Package miner discovers the repeating structure of listing pages and
// resolves each repeated item to its primary outbound link. It carries
// no site-specific rules: everything is derived from tag structure.
package miner

import (
	"strings"

	"golang.org/x/net/html"
)

const (
	// minGroupSize is the smallest sibling count that counts as a pattern.
	minGroupSize = 3

	// minCommonPrefixLen is how many leading child tags two patterns must
	// share before they merge into one single-element group.
	minCommonPrefixLen = 2

	singleElementPatternLen = 1
	minPatternLen           = 2
	maxPatternRatio         = 2

	mainTag = "main"
)

// Tags that never carry listing content.
var junkTags = map[string]bool{"script": true, "style": true, "iframe": true, "noscript": true}

// Tags whose subtrees are navigation chrome rather than main content.
var navTags = map[string]bool{"nav": true, "footer": true, "aside": true, "header": true}

// siblingGroup is one candidate repeating region of the page.
type siblingGroup struct {
	inMain       bool
	inNavigation bool
	patternLen   int
	members      []string
}

func (g *siblingGroup) coverage() int { return g.patternLen * len(g.members) }

// Siblings returns the member HTML fragments of the page's best
// repeating group, or nil when no group qualifies.
func Siblings(htmlBody string) []string {
	root, err := html.Parse(strings.NewReader(htmlBody))
	if err != nil {
		return nil
	}
	var groups []siblingGroup
	collectGroups(root, &groups)
	best := selectBest(groups)
	if best == nil {
		return nil
	}
	return best.members
}

// collectGroups scans the whole tree: at every element its children form
// a candidate row of peers, inspected by both detectors, then each child
// is scanned in turn.
func collectGroups(n *html.Node, groups *[]siblingGroup) {
	children := elementChildren(n)

	if len(children) >= minGroupSize {
		singleElementGroups(children, groups)
		multiElementGroups(children, groups)
	}
	for _, c := range children {
		collectGroups(c, groups)
	}
}

// elementChildren returns the direct element children with junk tags
// dropped.
func elementChildren(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && !junkTags[c.Data] {
			out = append(out, c)
		}
	}
	return out
}

// structurePattern is the ordered tag list of an element's direct
// element children, junk included.
func structurePattern(n *html.Node) []string {
	var tags []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			tags = append(tags, c.Data)
		}
	}
	return tags
}

// singleElementGroups buckets children whose structure patterns share a
// common prefix of at least minCommonPrefixLen tags. On every merge the
// group's canonical pattern shrinks to the shorter one, so rows with
// optional trailing elements still group together.
func singleElementGroups(children []*html.Node, groups *[]siblingGroup) {
	type bucket struct {
		tags    []string
		indices []int
	}
	var buckets []bucket

	for idx, child := range children {
		pattern := structurePattern(child)
		matched := false
		for i := range buckets {
			b := &buckets[i]
			minLen := min(len(b.tags), len(pattern))
			if minLen >= minCommonPrefixLen && equalPrefix(b.tags, pattern, minLen) {
				b.indices = append(b.indices, idx)
				if len(pattern) < len(b.tags) {
					b.tags = pattern
				}
				matched = true
				break
			}
		}
		if !matched {
			buckets = append(buckets, bucket{tags: pattern, indices: []int{idx}})
		}
	}

	for _, b := range buckets {
		if len(b.indices) < minGroupSize || len(b.tags) == 0 {
			continue
		}
		members := make([]string, 0, len(b.indices))
		for _, i := range b.indices {
			members = append(members, outerHTML(children[i]))
		}
		first := children[b.indices[0]]
		*groups = append(*groups, siblingGroup{
			inMain:       insideTag(first, mainTag),
			inNavigation: insideAny(first, navTags),
			patternLen:   singleElementPatternLen,
			members:      members,
		})
	}
}

// multiElementGroups finds repeating windows of k children whose pattern
// vectors match exactly, for k from 2 up to half the row. Homogeneous
// windows are left to the single-element pass.
func multiElementGroups(children []*html.Node, groups *[]siblingGroup) {
	n := len(children)
	patterns := make([][]string, n)
	for i, c := range children {
		patterns[i] = structurePattern(c)
	}

	for k := minPatternLen; k <= n/maxPatternRatio; k++ {
		if n < k*minGroupSize {
			break
		}

		var order []string
		buckets := map[string][]int{}
		for idx := 0; idx+k <= n; idx++ {
			key := windowKey(patterns[idx : idx+k])
			if _, seen := buckets[key]; !seen {
				order = append(order, key)
			}
			buckets[key] = append(buckets[key], idx)
		}

		for _, key := range order {
			starts := buckets[key]
			if len(starts) < minGroupSize {
				continue
			}
			if homogeneousWindow(patterns[starts[0] : starts[0]+k]) {
				continue
			}

			var picked []int
			for _, s := range starts {
				if !overlapsAny(picked, s, k) {
					picked = append(picked, s)
				}
			}
			if len(picked) < minGroupSize {
				continue
			}

			members := make([]string, 0, len(picked))
			for _, s := range picked {
				var sb strings.Builder
				for off := 0; off < k; off++ {
					sb.WriteString(outerHTML(children[s+off]))
				}
				members = append(members, sb.String())
			}
			first := children[picked[0]]
			*groups = append(*groups, siblingGroup{
				inMain:       insideTag(first, mainTag),
				inNavigation: insideAny(first, navTags),
				patternLen:   k,
				members:      members,
			})
		}
	}
}

func windowKey(window [][]string) string {
	parts := make([]string, len(window))
	for i, p := range window {
		parts[i] = strings.Join(p, ",")
	}
	return strings.Join(parts, "|")
}

func homogeneousWindow(window [][]string) bool {
	for _, p := range window[1:] {
		if !samePattern(window[0], p) {
			return false
		}
	}
	return true
}

func samePattern(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalPrefix(a, b []string, n int) bool {
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func overlapsAny(picked []int, start, k int) bool {
	for _, p := range picked {
		if start < p+k && p < start+k {
			return true
		}
	}
	return false
}

// selectBest ranks groups by: outside navigation, inside main, coverage
// (patternLen x members), member count, pattern length. Earlier groups
// win ties.
func selectBest(groups []siblingGroup) *siblingGroup {
	var best *siblingGroup
	for i := range groups {
		g := &groups[i]
		if best == nil || better(g, best) {
			best = g
		}
	}
	return best
}

func better(a, b *siblingGroup) bool {
	if a.inNavigation != b.inNavigation {
		return !a.inNavigation
	}
	if a.inMain != b.inMain {
		return a.inMain
	}
	if a.coverage() != b.coverage() {
		return a.coverage() > b.coverage()
	}
	if len(a.members) != len(b.members) {
		return len(a.members) > len(b.members)
	}
	return a.patternLen > b.patternLen
}

func insideTag(n *html.Node, tag string) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == tag {
			return true
		}
	}
	return false
}

func insideAny(n *html.Node, tags map[string]bool) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && tags[p.Data] {
			return true
		}
	}
	return false
}

func outerHTML(n *html.Node) string {
	var sb strings.Builder
	if err := html.Render(&sb, n); err != nil {
		return ""
	}
	return sb.String()
}

// Children returns the page's child URLs: the primary link of every
// member of the best sibling group, then every resolved ItemList member.
func Children(htmlBody, baseURL string) []string {
	links := Links(htmlBody, baseURL)
	return append(links, ItemListLinks(htmlBody, baseURL)...)
}

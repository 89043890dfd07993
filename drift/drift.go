// Package drift fingerprints a page's DOM structure so policy audits
// can tell when a site's template changed out from under a stored
// policy. Selector checks alone miss this: a selector can keep matching
// boilerplate long after the layout it was learned from is gone.
//
// Fingerprints are 64-bit SimHashes over shingled tag sequences. Text
// content and attributes do not participate, so the same template with
// different content fingerprints identically.
package drift

import (
	"fmt"
	"hash/fnv"
	"math/bits"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// DefaultThreshold is the Hamming distance above which two structure
// fingerprints count as diverged. Content variance (more or fewer
// repeated blocks) stays well below it; a redesigned template lands
// well above.
const DefaultThreshold = 12

// shingleSize is the tag n-gram width fingerprints are built from.
const shingleSize = 3

// FingerprintHTML returns a hex fingerprint of a page's tag structure,
// or "" when the input has no tags.
func FingerprintHTML(htmlStr string) string {
	tags := tagSequence(htmlStr)
	if len(tags) == 0 {
		return ""
	}

	shingles := shingle(tags, shingleSize)
	if len(shingles) == 0 {
		// Too few tags to shingle; hash the raw sequence.
		shingles = tags
	}

	return fmt.Sprintf("%016x", simhash(shingles))
}

// Diverged reports whether two fingerprints are further apart than
// DefaultThreshold. A missing or malformed fingerprint never counts as
// drift; without a baseline there is nothing to diverge from.
func Diverged(a, b string) bool {
	fa, err := strconv.ParseUint(a, 16, 64)
	if err != nil {
		return false
	}
	fb, err := strconv.ParseUint(b, 16, 64)
	if err != nil {
		return false
	}
	return distance(fa, fb) > DefaultThreshold
}

// distance is the Hamming distance between two raw fingerprints.
func distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// simhash folds token hashes into one 64-bit fingerprint: every
// token's FNV-64a bits vote on the output bits.
func simhash(tokens []string) uint64 {
	var vector [64]int

	for _, tok := range tokens {
		h := fnv.New64a()
		h.Write([]byte(tok))
		sum := h.Sum64()

		for i := 0; i < 64; i++ {
			if sum&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}

	var fp uint64
	for i := 0; i < 64; i++ {
		if vector[i] > 0 {
			fp |= 1 << uint(i)
		}
	}
	return fp
}

// tagSequence collects open tag names in document order. The tokenizer
// never fails; malformed input just yields fewer tags.
func tagSequence(htmlStr string) []string {
	tokenizer := html.NewTokenizer(strings.NewReader(htmlStr))
	var tags []string

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return tags
		case html.StartTagToken, html.SelfClosingTagToken:
			tn, _ := tokenizer.TagName()
			tags = append(tags, string(tn))
		}
	}
}

// shingle joins consecutive runs of n tokens, or returns nil when there
// are fewer than n.
func shingle(tokens []string, n int) []string {
	if len(tokens) < n {
		return nil
	}
	out := make([]string, 0, len(tokens)-n+1)
	for i := 0; i <= len(tokens)-n; i++ {
		out = append(out, strings.Join(tokens[i:i+n], "_"))
	}
	return out
}

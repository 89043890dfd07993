// Package jsonld digs structured data out of pages. It works on plain
// decoded JSON values, so callers pass in whatever encoding/json produced.
package jsonld

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

var scriptMatcher = cascadia.MustCompile(`script[type='application/ld+json']`)

// ParseBlock parses one JSON-LD script body and returns the flattened
// nodes. Some publishers emit several comma-separated objects in one
// block; bracketing turns that into valid JSON, so a failed direct parse
// gets one retry in that form.
func ParseBlock(txt string) ([]any, bool) {
	trimmed := strings.TrimSpace(txt)
	if trimmed == "" {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		if err := json.Unmarshal([]byte("["+trimmed+"]"), &v); err != nil {
			return nil, false
		}
	}
	return Flatten(v), true
}

// Flatten expands arrays and @graph wrappers into a flat node list.
// Graph members come first, then the wrapper object itself if any keys
// remain once @graph is removed. Everything else passes through whole.
func Flatten(v any) []any {
	var out []any
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			out = append(out, Flatten(item)...)
		}
	case map[string]any:
		graph, ok := t["@graph"]
		if !ok {
			out = append(out, t)
			break
		}
		out = append(out, Flatten(graph)...)
		rest := make(map[string]any, len(t)-1)
		for k, val := range t {
			if k != "@graph" {
				rest[k] = val
			}
		}
		if len(rest) > 0 {
			out = append(out, rest)
		}
	default:
		out = append(out, v)
	}
	return out
}

// TypeIsItemList reports whether v is an object whose @type names
// ItemList, case-insensitively, as a string or an array member.
func TypeIsItemList(v any) bool {
	obj, ok := v.(map[string]any)
	if !ok {
		return false
	}
	switch t := obj["@type"].(type) {
	case string:
		return strings.EqualFold(t, "ItemList")
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.EqualFold(s, "ItemList") {
				return true
			}
		}
	}
	return false
}

// ContainsItemList reports whether any node reachable from v looks like
// an item list. It is deliberately lenient: an itemListElement key counts
// even without a matching @type, and every object value and array member
// is searched.
func ContainsItemList(v any) bool {
	switch t := v.(type) {
	case map[string]any:
		if TypeIsItemList(t) {
			return true
		}
		if _, ok := t["itemListElement"]; ok {
			return true
		}
		for _, val := range t {
			if ContainsItemList(val) {
				return true
			}
		}
	case []any:
		for _, item := range t {
			if ContainsItemList(item) {
				return true
			}
		}
	}
	return false
}

// CollectItemLists appends every object whose @type is ItemList to out.
// Unlike ContainsItemList it only descends through arrays, @graph, and
// mainEntity, so loosely related embeds do not leak in.
func CollectItemLists(v any, out *[]map[string]any) {
	switch t := v.(type) {
	case map[string]any:
		if TypeIsItemList(t) {
			*out = append(*out, t)
		}
		if graph, ok := t["@graph"]; ok {
			CollectItemLists(graph, out)
		}
		if main, ok := t["mainEntity"]; ok {
			CollectItemLists(main, out)
		}
	case []any:
		for _, item := range t {
			CollectItemLists(item, out)
		}
	}
}

// ScriptBlocks parses every JSON-LD script in the document, in document
// order, and returns the concatenated flattened nodes. Unparseable
// scripts are skipped.
func ScriptBlocks(doc *goquery.Document) []any {
	var out []any
	doc.FindMatcher(scriptMatcher).Each(func(_ int, s *goquery.Selection) {
		if nodes, ok := ParseBlock(s.Text()); ok {
			out = append(out, nodes...)
		}
	})
	return out
}

package models

import "time"

// Block type discriminators.
const (
	BlockHeading   = "heading"
	BlockParagraph = "paragraph"
	BlockImage     = "image"
	BlockLink      = "link"
	BlockList      = "list"
	BlockTable     = "table"
)

// ContentBlock is one piece of extracted content. Type selects the
// variant and decides which other fields are populated.
type ContentBlock struct {
	Type string `json:"type"`

	// heading, paragraph, link
	Text *string `json:"text,omitempty"`

	// heading
	Level int `json:"level,omitempty"`

	// image
	Src string  `json:"src,omitempty"`
	Alt *string `json:"alt,omitempty"`

	// link
	Href string `json:"href,omitempty"`

	// list
	Items []string `json:"items,omitempty"`

	// table
	Rows [][]string `json:"rows,omitempty"`
}

// AreaContent is the yield of one matched area root.
type AreaContent struct {
	Role                string         `json:"role"`
	RootSelectorMatched string         `json:"root_selector_matched"`
	Title               *string        `json:"title,omitempty"`
	Content             []ContentBlock `json:"content"`
}

// PageExtraction is everything scraped from one page.
type PageExtraction struct {
	URL       string        `json:"url"`
	Domain    string        `json:"domain"`
	Areas     []AreaContent `json:"areas"`
	JSONLD    []any         `json:"json_ld,omitempty"`
	FetchedAt time.Time     `json:"fetched_at"`
}

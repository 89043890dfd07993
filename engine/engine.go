// Package engine ties fetching, scraping, and policy storage together
// into the extraction entrypoints used by the CLI, the API, and the MCP
// server. The engine owns no state beyond its collaborators; every call
// resolves the policy fresh from the store.
package engine

import (
	"context"

	"github.com/use-agent/qrawl/domain"
	"github.com/use-agent/qrawl/fetch"
	"github.com/use-agent/qrawl/infer"
	"github.com/use-agent/qrawl/models"
	"github.com/use-agent/qrawl/policy"
	"github.com/use-agent/qrawl/scraper"
	"github.com/use-agent/qrawl/store"
)

// Fetcher retrieves pages. Raw is the unvalidated single-request path
// used for robots.txt and sitemap documents during inference.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, cfg policy.FetchConfig) (*fetch.Result, error)
	Raw(ctx context.Context, rawURL string) (int, string, error)
}

// Scraper turns fetched HTML into structured page content.
type Scraper interface {
	Scrape(pageURL, htmlBody string, cfg policy.ScrapeConfig) (*models.PageExtraction, error)
}

// LadderFetcher is the production Fetcher, backed by the profile ladder.
type LadderFetcher struct{}

func (LadderFetcher) Fetch(ctx context.Context, rawURL string, cfg policy.FetchConfig) (*fetch.Result, error) {
	return fetch.Fetch(ctx, rawURL, cfg)
}

func (LadderFetcher) Raw(ctx context.Context, rawURL string) (int, string, error) {
	return fetch.Raw(ctx, rawURL)
}

// AreaScraper is the production Scraper, backed by the area scraper.
type AreaScraper struct{}

func (AreaScraper) Scrape(pageURL, htmlBody string, cfg policy.ScrapeConfig) (*models.PageExtraction, error) {
	return scraper.Scrape(pageURL, htmlBody, cfg)
}

// Bundle is everything one extraction produces: the parent page, one
// level of followed children, and how the parent was fetched.
type Bundle struct {
	Page      *models.PageExtraction   `json:"page"`
	Children  []*models.PageExtraction `json:"children,omitempty"`
	Telemetry models.FetchTelemetry    `json:"telemetry"`
}

// Engine is the extraction orchestrator.
type Engine struct {
	store   store.PolicyStore
	fetcher Fetcher
	scraper Scraper
}

// New builds an engine with the production fetcher and scraper.
func New(st store.PolicyStore) *Engine {
	return NewWith(st, LadderFetcher{}, AreaScraper{})
}

// NewWith builds an engine with explicit collaborators.
func NewWith(st store.PolicyStore, f Fetcher, s Scraper) *Engine {
	return &Engine{store: st, fetcher: f, scraper: s}
}

// ExtractKnown extracts a URL whose domain must already have a stored
// policy.
func (e *Engine) ExtractKnown(ctx context.Context, rawURL string) (*Bundle, error) {
	_, d, err := domain.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	pol, err := e.store.Get(d)
	if err != nil {
		return nil, err
	}
	if pol == nil {
		return nil, models.ErrMissingPolicy(string(d))
	}
	return e.extract(ctx, rawURL, pol)
}

// ExtractUnknown extracts a URL without touching stored policies: a
// policy is inferred for this call, seeded with the target URL, and
// discarded afterwards.
func (e *Engine) ExtractUnknown(ctx context.Context, rawURL string) (*Bundle, error) {
	_, d, err := domain.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	pol, err := infer.InferWithSeed(ctx, e.fetcher, e.scraper, d, rawURL)
	if err != nil {
		return nil, err
	}
	return e.extract(ctx, rawURL, pol)
}

// ExtractAuto extracts with the stored policy when one exists and falls
// back to ExtractUnknown otherwise.
func (e *Engine) ExtractAuto(ctx context.Context, rawURL string) (*Bundle, error) {
	_, d, err := domain.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	pol, err := e.store.Get(d)
	if err != nil {
		return nil, err
	}
	if pol == nil {
		return e.ExtractUnknown(ctx, rawURL)
	}
	return e.extract(ctx, rawURL, pol)
}

func (e *Engine) extract(ctx context.Context, rawURL string, pol *policy.Policy) (*Bundle, error) {
	res, err := e.fetcher.Fetch(ctx, rawURL, pol.Fetch)
	if err != nil {
		return nil, err
	}
	page, err := e.scraper.Scrape(rawURL, res.HTML, pol.Scrape)
	if err != nil {
		return nil, err
	}
	return &Bundle{
		Page:     page,
		Children: e.followChildren(ctx, rawURL, res.HTML, page, pol),
		Telemetry: models.FetchTelemetry{
			ProfileUsed: res.ProfileUsed,
			Attempts:    res.Attempts,
			DurationMS:  res.DurationMS,
		},
	}, nil
}

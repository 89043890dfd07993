package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/use-agent/qrawl/cache"
	"github.com/use-agent/qrawl/cleaner"
	"github.com/use-agent/qrawl/config"
	"github.com/use-agent/qrawl/engine"
	"github.com/use-agent/qrawl/fetch"
	"github.com/use-agent/qrawl/models"
	"github.com/use-agent/qrawl/policy"
	"github.com/use-agent/qrawl/store"
)

type stubFetcher struct {
	pages map[string]string
}

func (s *stubFetcher) Fetch(_ context.Context, rawURL string, _ policy.FetchConfig) (*fetch.Result, error) {
	if html, ok := s.pages[rawURL]; ok {
		return &fetch.Result{HTML: html, ProfileUsed: "Minimal", DurationMS: 7, Attempts: 1}, nil
	}
	return nil, models.ErrFetch("All 3 profiles failed: [Minimal: status 404 (not found)]", nil)
}

func (s *stubFetcher) Raw(context.Context, string) (int, string, error) {
	return 404, "", nil
}

const itemHTML = `<html><head><title>Quiet Item</title></head><body>
<article><h1>Quiet Item</h1><p>Details worth keeping.</p></article>
</body></html>`

const catalogHTML = `<html><head><title>Catalog</title></head><body><main>
<div class="card"><h2><a href="/p/1">One</a></h2><p>First</p></div>
<div class="card"><h2><a href="/p/2">Two</a></h2><p>Second</p></div>
<div class="card"><h2><a href="/p/3">Three</a></h2><p>Third</p></div>
</main></body></html>`

var postHTML = `<html><head><title>Field Notes</title></head><body>
<nav><a href="/">Home</a></nav>
<article>
<h1>Field Notes</h1>
<p>` + strings.Repeat("Observations accumulate value when they are recorded with care. ", 8) + `</p>
<p>` + strings.Repeat("A second paragraph keeps the extractor confident about the text. ", 8) + `</p>
</article>
<footer>Footer boilerplate</footer>
</body></html>`

func articlePolicy() *policy.Policy {
	return &policy.Policy{
		Domain: "shop.example",
		Fetch:  policy.FetchConfig{Strategy: policy.StrategyFast},
		Scrape: policy.ScrapeConfig{
			Areas: []policy.AreaPolicy{{
				Role:   "article",
				Roots:  []string{"article"},
				Fields: policy.FieldSelectors{Title: []string{"h1"}},
			}},
		},
	}
}

func newTestRouter(t *testing.T, pages map[string]string, mutate func(*config.Config)) (http.Handler, store.PolicyStore) {
	t.Helper()
	st := store.NewLocalFSAt(t.TempDir())
	f := &stubFetcher{pages: pages}
	eng := engine.NewWith(st, f, engine.AreaScraper{})
	cfg := &config.Config{
		Server:    config.ServerConfig{Mode: "test"},
		Auth:      config.AuthConfig{Enabled: false},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
		Cache:     config.CacheConfig{MaxEntries: 16},
	}
	if mutate != nil {
		mutate(cfg)
	}
	r := NewRouter(eng, cleaner.NewPipeline(), st, f, cfg, cache.New(cfg.Cache.MaxEntries), time.Now())
	return r, st
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(data))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	r, st := newTestRouter(t, nil, nil)
	if err := st.Set(articlePolicy()); err != nil {
		t.Fatal(err)
	}

	w := doJSON(t, r, http.MethodGet, "/api/v1/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp models.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "healthy" || resp.Policies != 1 || resp.Version == "" {
		t.Errorf("health = %+v", resp)
	}
}

func TestExtractRejectsBadBody(t *testing.T) {
	r, _ := newTestRouter(t, nil, nil)

	w := doJSON(t, r, http.MethodPost, "/api/v1/extract", map[string]any{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp models.ExtractResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Success || resp.Error == nil || resp.Error.Code != models.ErrCodeValidation {
		t.Errorf("response = %+v", resp)
	}
}

func TestExtractWithoutPolicyIs404(t *testing.T) {
	r, _ := newTestRouter(t, map[string]string{
		"https://shop.example/item": itemHTML,
	}, nil)

	w := doJSON(t, r, http.MethodPost, "/api/v1/extract", map[string]any{
		"url": "https://shop.example/item",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp models.ExtractResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error == nil || resp.Error.Code != models.ErrCodeMissingPolicy {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestExtractKnownViaAPI(t *testing.T) {
	r, st := newTestRouter(t, map[string]string{
		"https://shop.example/item": itemHTML,
	}, nil)
	if err := st.Set(articlePolicy()); err != nil {
		t.Fatal(err)
	}

	w := doJSON(t, r, http.MethodPost, "/api/v1/extract", map[string]any{
		"url": "https://shop.example/item",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp models.ExtractResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.Page == nil {
		t.Fatalf("response = %+v", resp)
	}
	if resp.Page.Domain != "shop.example" {
		t.Errorf("page domain = %q", resp.Page.Domain)
	}
	if resp.Telemetry == nil || resp.Telemetry.ProfileUsed != "Minimal" {
		t.Errorf("telemetry = %+v", resp.Telemetry)
	}
	if resp.CacheStatus != "" {
		t.Errorf("cache status = %q without max_age_ms", resp.CacheStatus)
	}
}

func TestExtractCacheMissThenHit(t *testing.T) {
	r, st := newTestRouter(t, map[string]string{
		"https://shop.example/item": itemHTML,
	}, nil)
	if err := st.Set(articlePolicy()); err != nil {
		t.Fatal(err)
	}

	body := map[string]any{"url": "https://shop.example/item", "max_age_ms": 60_000}

	w := doJSON(t, r, http.MethodPost, "/api/v1/extract", body)
	var first models.ExtractResponse
	if err := json.Unmarshal(w.Body.Bytes(), &first); err != nil {
		t.Fatal(err)
	}
	if first.CacheStatus != "miss" {
		t.Fatalf("first cache status = %q, want miss", first.CacheStatus)
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/extract", body)
	var second models.ExtractResponse
	if err := json.Unmarshal(w.Body.Bytes(), &second); err != nil {
		t.Fatal(err)
	}
	if second.CacheStatus != "hit" {
		t.Fatalf("second cache status = %q, want hit", second.CacheStatus)
	}
	if second.Page == nil || second.Page.Domain != "shop.example" {
		t.Errorf("cached page = %+v", second.Page)
	}
}

func TestPolicyLifecycleViaAPI(t *testing.T) {
	r, _ := newTestRouter(t, map[string]string{
		"https://shop.example/": itemHTML,
	}, nil)

	// PUT validates and verifies against the live (stubbed) site.
	w := doJSON(t, r, http.MethodPut, "/api/v1/policies/shop.example", articlePolicy())
	if w.Code != http.StatusOK {
		t.Fatalf("put status = %d, body = %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/policies/shop.example", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d, body = %s", w.Code, w.Body.String())
	}
	var pol policy.Policy
	if err := json.Unmarshal(w.Body.Bytes(), &pol); err != nil {
		t.Fatal(err)
	}
	if pol.Domain != "shop.example" || pol.Fetch.Strategy != policy.StrategyFast {
		t.Errorf("policy = %+v", pol)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/policies", nil)
	var list struct {
		Count    int              `json:"count"`
		Policies []*policy.Policy `json:"policies"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if list.Count != 1 || len(list.Policies) != 1 {
		t.Errorf("list = %+v", list)
	}

	w = doJSON(t, r, http.MethodDelete, "/api/v1/policies/shop.example", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d, body = %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/policies/shop.example", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestUpdatePolicyRejectsInvalidConfig(t *testing.T) {
	r, _ := newTestRouter(t, nil, nil)

	bad := articlePolicy()
	bad.Fetch.Strategy = "turbo"
	w := doJSON(t, r, http.MethodPut, "/api/v1/policies/shop.example", bad)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestDeleteAllPoliciesConfirmGate(t *testing.T) {
	r, st := newTestRouter(t, nil, nil)
	if err := st.Set(articlePolicy()); err != nil {
		t.Fatal(err)
	}

	w := doJSON(t, r, http.MethodDelete, "/api/v1/policies", map[string]any{"confirm": false})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unconfirmed status = %d, body = %s", w.Code, w.Body.String())
	}
	if pols, _ := st.List(); len(pols) != 1 {
		t.Fatal("policy deleted without confirmation")
	}

	w = doJSON(t, r, http.MethodDelete, "/api/v1/policies", map[string]any{"confirm": true})
	if w.Code != http.StatusOK {
		t.Fatalf("confirmed status = %d, body = %s", w.Code, w.Body.String())
	}
	if pols, _ := st.List(); len(pols) != 0 {
		t.Fatal("policies remain after confirmed wipe")
	}
}

func TestDeletePolicyRejectsReservedAll(t *testing.T) {
	r, st := newTestRouter(t, nil, nil)
	if err := st.Set(articlePolicy()); err != nil {
		t.Fatal(err)
	}

	w := doJSON(t, r, http.MethodDelete, "/api/v1/policies/all", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if pols, _ := st.List(); len(pols) != 1 {
		t.Fatal("reserved target wiped the store")
	}
}

func TestAuditEndpoint(t *testing.T) {
	r, st := newTestRouter(t, map[string]string{
		"https://shop.example/": itemHTML,
	}, nil)
	if err := st.Set(articlePolicy()); err != nil {
		t.Fatal(err)
	}

	w := doJSON(t, r, http.MethodGet, "/api/v1/policies/audit?verbose=true", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Count   int                          `json:"count"`
		Results map[string]engine.AuditEntry `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	entry, ok := resp.Results["shop.example"]
	if !ok {
		t.Fatalf("results = %+v", resp.Results)
	}
	if entry.Status != "pass" {
		t.Errorf("status = %q, error = %q", entry.Status, entry.Error)
	}
	if entry.Config == nil {
		t.Error("verbose audit missing config")
	}
}

func TestChildrenEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, map[string]string{
		"https://shop.example/catalog": catalogHTML,
	}, nil)

	w := doJSON(t, r, http.MethodPost, "/api/v1/children", map[string]any{
		"url": "https://shop.example/catalog",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp models.ChildrenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"https://shop.example/p/1",
		"https://shop.example/p/2",
		"https://shop.example/p/3",
	}
	if resp.Count != len(want) || len(resp.Children) != len(want) {
		t.Fatalf("children = %+v", resp)
	}
	for i := range want {
		if resp.Children[i] != want[i] {
			t.Errorf("children[%d] = %q, want %q", i, resp.Children[i], want[i])
		}
	}
}

func TestReadableEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, map[string]string{
		"https://blog.example/post": postHTML,
	}, nil)

	w := doJSON(t, r, http.MethodPost, "/api/v1/readable", map[string]any{
		"url": "https://blog.example/post",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp models.ReadableResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.OutputFormat != "markdown" {
		t.Errorf("output format = %q", resp.OutputFormat)
	}
	if !strings.Contains(resp.Content, "Observations accumulate") {
		t.Errorf("content missing article text: %q", resp.Content)
	}
	if resp.Tokens.CleanedEstimate <= 0 || resp.Tokens.OriginalEstimate < resp.Tokens.CleanedEstimate {
		t.Errorf("tokens = %+v", resp.Tokens)
	}
}

func TestBatchExtractFlow(t *testing.T) {
	r, st := newTestRouter(t, map[string]string{
		"https://shop.example/p/1": itemHTML,
		"https://shop.example/p/2": itemHTML,
	}, nil)
	if err := st.Set(articlePolicy()); err != nil {
		t.Fatal(err)
	}

	w := doJSON(t, r, http.MethodPost, "/api/v1/batch/extract", map[string]any{
		"urls": []string{"https://shop.example/p/1", "https://shop.example/p/2"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("post status = %d, body = %s", w.Code, w.Body.String())
	}
	var created models.BatchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(created.ID, "batch-") || created.Total != 2 {
		t.Fatalf("created = %+v", created)
	}

	var status models.BatchStatusResponse
	deadline := time.Now().Add(2 * time.Second)
	for {
		w = doJSON(t, r, http.MethodGet, "/api/v1/batch/"+created.ID, nil)
		if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
			t.Fatal(err)
		}
		if status.Status != "processing" || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if status.Status != "completed" {
		t.Fatalf("status = %+v", status)
	}
	if status.Completed != 2 || len(status.Results) != 2 {
		t.Fatalf("results = %+v", status)
	}
	for i, res := range status.Results {
		if res == nil || !res.Success {
			t.Errorf("result[%d] = %+v", i, res)
		}
	}
}

func TestBatchStatusUnknownJob(t *testing.T) {
	r, _ := newTestRouter(t, nil, nil)

	w := doJSON(t, r, http.MethodGet, "/api/v1/batch/batch-doesnotexist", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestAuthProtectsAPIButNotHealth(t *testing.T) {
	r, _ := newTestRouter(t, nil, func(cfg *config.Config) {
		cfg.Auth = config.AuthConfig{Enabled: true, APIKeys: []string{"k1"}}
	})

	w := doJSON(t, r, http.MethodGet, "/api/v1/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d, want open access", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/policies", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/policies", nil)
	req.Header.Set("X-API-Key", "k1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated status = %d, want 200", rec.Code)
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	r, _ := newTestRouter(t, nil, nil)

	// Prime the counters with one request.
	doJSON(t, r, http.MethodGet, "/api/v1/health", nil)

	w := doJSON(t, r, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "qrawl_http_requests_total") {
		t.Error("metrics output missing qrawl_http_requests_total")
	}
}

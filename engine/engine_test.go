package engine

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/use-agent/qrawl/domain"
	"github.com/use-agent/qrawl/drift"
	"github.com/use-agent/qrawl/fetch"
	"github.com/use-agent/qrawl/models"
	"github.com/use-agent/qrawl/policy"
	"github.com/use-agent/qrawl/store"
)

// stubFetcher serves canned pages by exact URL. Unknown URLs fail the
// way an exhausted ladder does.
type stubFetcher struct {
	pages   map[string]string
	fetched []string
}

func (s *stubFetcher) Fetch(_ context.Context, rawURL string, _ policy.FetchConfig) (*fetch.Result, error) {
	s.fetched = append(s.fetched, rawURL)
	if html, ok := s.pages[rawURL]; ok {
		return &fetch.Result{HTML: html, ProfileUsed: "Minimal", DurationMS: 12, Attempts: 1}, nil
	}
	return nil, models.ErrFetch("All 3 profiles failed: [Minimal: status 404 (not found)]", nil)
}

func (s *stubFetcher) Raw(context.Context, string) (int, string, error) {
	return 404, "", nil
}

// catalogPage repeats three product cards and names the same three URLs
// again in a JSON-LD ItemList, so child candidates arrive duplicated.
const catalogPage = `<!DOCTYPE html>
<html><head><title>Catalog</title>
<script type="application/ld+json">
{"@context":"https://schema.org","@type":"ItemList","itemListElement":[
  {"@type":"ListItem","position":1,"url":"/p/1"},
  {"@type":"ListItem","position":2,"url":"/p/2"},
  {"@type":"ListItem","position":3,"url":"/p/3"}]}
</script>
</head><body><main>
<div class="card"><h2><a href="/p/1">Item One</a></h2><p>First.</p></div>
<div class="card"><h2><a href="/p/2">Item Two</a></h2><p>Second.</p></div>
<div class="card"><h2><a href="/p/3">Item Three</a></h2><p>Third.</p></div>
</main></body></html>`

// plainCardsPage has the repeating cards but no structured data at all.
const plainCardsPage = `<!DOCTYPE html>
<html><head><title>Catalog</title></head><body><main>
<div class="card"><h2><a href="/p/1">Item One</a></h2><p>First.</p></div>
<div class="card"><h2><a href="/p/2">Item Two</a></h2><p>Second.</p></div>
<div class="card"><h2><a href="/p/3">Item Three</a></h2><p>Third.</p></div>
</main></body></html>`

const itemPage = `<!DOCTYPE html>
<html><head><title>Quiet Item</title></head>
<body><article><h1>Quiet Item</h1><p>Details.</p></article></body></html>`

func childPage(name string) string {
	return `<!DOCTYPE html><html><head><title>` + name + `</title></head>` +
		`<body><article><h1>` + name + `</h1><p>About ` + name + `.</p></article></body></html>`
}

func listingPolicy() *policy.Policy {
	return &policy.Policy{
		Domain: "shop.example",
		Fetch:  policy.FetchConfig{Strategy: policy.StrategyFast},
		Scrape: policy.ScrapeConfig{
			ExtractJSONLD: true,
			Areas: []policy.AreaPolicy{{
				Role:        "listing",
				IsRepeating: true,
				FollowLinks: policy.FollowLinks{
					Enabled: true,
					Scope:   policy.ScopeSameDomain,
					Max:     10,
					Dedupe:  true,
				},
			}},
		},
	}
}

// manualPolicy is a hand-written policy of the kind the update path
// receives: one article area rooted at the given selector.
func manualPolicy(root string) *policy.Policy {
	return &policy.Policy{
		Domain: "shop.example",
		Fetch:  policy.FetchConfig{Strategy: policy.StrategyFast},
		Scrape: policy.ScrapeConfig{
			Areas: []policy.AreaPolicy{{
				Role:   "article",
				Roots:  []string{root},
				Fields: policy.FieldSelectors{Title: []string{"h1"}},
			}},
		},
	}
}

func newStore(t *testing.T) *store.LocalFSStore {
	t.Helper()
	return store.NewLocalFSAt(t.TempDir())
}

func TestExtractKnownFollowsListingChildren(t *testing.T) {
	st := newStore(t)
	if err := st.Set(listingPolicy()); err != nil {
		t.Fatalf("Set: %v", err)
	}
	f := &stubFetcher{pages: map[string]string{
		"https://shop.example/catalog": catalogPage,
		"https://shop.example/p/1":     childPage("Item One"),
		"https://shop.example/p/2":     childPage("Item Two"),
		"https://shop.example/p/3":     childPage("Item Three"),
	}}
	eng := NewWith(st, f, AreaScraper{})

	b, err := eng.ExtractKnown(context.Background(), "https://shop.example/catalog")
	if err != nil {
		t.Fatalf("ExtractKnown: %v", err)
	}

	if b.Page.Domain != "shop.example" {
		t.Errorf("page domain = %q, want shop.example", b.Page.Domain)
	}
	if len(b.Page.JSONLD) != 1 {
		t.Errorf("JSONLD blocks = %d, want 1", len(b.Page.JSONLD))
	}
	if b.Telemetry.ProfileUsed != "Minimal" || b.Telemetry.Attempts != 1 {
		t.Errorf("telemetry = %+v, want Minimal in 1 attempt", b.Telemetry)
	}

	// Cards and ItemList both name /p/1 /p/2 /p/3; dedupe collapses the
	// six candidates to three children, in first-seen order.
	if len(b.Children) != 3 {
		t.Fatalf("children = %d, want 3", len(b.Children))
	}
	for i, want := range []string{
		"https://shop.example/p/1",
		"https://shop.example/p/2",
		"https://shop.example/p/3",
	} {
		if b.Children[i].URL != want {
			t.Errorf("children[%d].URL = %q, want %q", i, b.Children[i].URL, want)
		}
	}

	wantFetched := []string{
		"https://shop.example/catalog",
		"https://shop.example/p/1",
		"https://shop.example/p/2",
		"https://shop.example/p/3",
	}
	if !reflect.DeepEqual(f.fetched, wantFetched) {
		t.Errorf("fetched = %v, want %v", f.fetched, wantFetched)
	}
}

func TestExtractKnownWithoutPolicy(t *testing.T) {
	f := &stubFetcher{}
	eng := NewWith(newStore(t), f, AreaScraper{})

	_, err := eng.ExtractKnown(context.Background(), "https://nobody.example/")
	if models.CodeOf(err) != models.ErrCodeMissingPolicy {
		t.Fatalf("code = %q, want missing_policy (err: %v)", models.CodeOf(err), err)
	}
	if len(f.fetched) != 0 {
		t.Errorf("fetched %v before the policy check, want nothing", f.fetched)
	}
}

func TestExtractKnownRejectsNonHTTPURL(t *testing.T) {
	eng := NewWith(newStore(t), &stubFetcher{}, AreaScraper{})
	_, err := eng.ExtractKnown(context.Background(), "ftp://shop.example/x")
	if models.CodeOf(err) != models.ErrCodeInvalidURL {
		t.Fatalf("code = %q, want invalid_url (err: %v)", models.CodeOf(err), err)
	}
}

func TestExtractAutoUsesStoredPolicy(t *testing.T) {
	st := newStore(t)
	if err := st.Set(listingPolicy()); err != nil {
		t.Fatalf("Set: %v", err)
	}
	f := &stubFetcher{pages: map[string]string{
		"https://shop.example/catalog": catalogPage,
		"https://shop.example/p/1":     childPage("Item One"),
		"https://shop.example/p/2":     childPage("Item Two"),
		"https://shop.example/p/3":     childPage("Item Three"),
	}}
	eng := NewWith(st, f, AreaScraper{})

	b, err := eng.ExtractAuto(context.Background(), "https://shop.example/catalog")
	if err != nil {
		t.Fatalf("ExtractAuto: %v", err)
	}
	if len(b.Children) != 3 {
		t.Errorf("children = %d, want 3", len(b.Children))
	}
	// With a stored policy the target is fetched directly: no homepage
	// or language-root probing.
	if f.fetched[0] != "https://shop.example/catalog" {
		t.Errorf("first fetch = %q, want the target itself", f.fetched[0])
	}
	if len(f.fetched) != 4 {
		t.Errorf("fetches = %v, want target plus 3 children", f.fetched)
	}
}

func TestExtractAutoInfersWhenUnknown(t *testing.T) {
	st := newStore(t)
	f := &stubFetcher{pages: map[string]string{
		"https://shop.example/catalog": catalogPage,
		"https://shop.example/p/1":     childPage("Item One"),
		"https://shop.example/p/2":     childPage("Item Two"),
		"https://shop.example/p/3":     childPage("Item Three"),
	}}
	eng := NewWith(st, f, AreaScraper{})

	b, err := eng.ExtractAuto(context.Background(), "https://shop.example/catalog")
	if err != nil {
		t.Fatalf("ExtractAuto: %v", err)
	}
	if len(b.Children) != 3 {
		t.Errorf("children = %d, want 3", len(b.Children))
	}

	// Inference probes the seed first, then the freshly learned policy
	// drives the real extraction of the same URL.
	wantFetched := []string{
		"https://shop.example/catalog",
		"https://shop.example/catalog",
		"https://shop.example/p/1",
		"https://shop.example/p/2",
		"https://shop.example/p/3",
	}
	if !reflect.DeepEqual(f.fetched, wantFetched) {
		t.Errorf("fetched = %v, want %v", f.fetched, wantFetched)
	}

	// The inferred policy is for this call only.
	pols, err := st.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(pols) != 0 {
		t.Errorf("store has %d policies after auto-extract, want 0", len(pols))
	}
}

func TestFollowChildrenHonorsMax(t *testing.T) {
	st := newStore(t)
	pol := listingPolicy()
	pol.Scrape.Areas[0].FollowLinks.Max = 2
	if err := st.Set(pol); err != nil {
		t.Fatalf("Set: %v", err)
	}
	f := &stubFetcher{pages: map[string]string{
		"https://shop.example/catalog": catalogPage,
		"https://shop.example/p/1":     childPage("Item One"),
		"https://shop.example/p/2":     childPage("Item Two"),
	}}
	eng := NewWith(st, f, AreaScraper{})

	b, err := eng.ExtractKnown(context.Background(), "https://shop.example/catalog")
	if err != nil {
		t.Fatalf("ExtractKnown: %v", err)
	}
	if len(b.Children) != 2 {
		t.Fatalf("children = %d, want 2 (max)", len(b.Children))
	}
	for _, u := range f.fetched {
		if u == "https://shop.example/p/3" {
			t.Error("fetched /p/3 past the follow limit")
		}
	}
}

func TestFollowChildrenSkipsFailedChildren(t *testing.T) {
	st := newStore(t)
	if err := st.Set(listingPolicy()); err != nil {
		t.Fatalf("Set: %v", err)
	}
	// /p/2 is down; the other children still come back.
	f := &stubFetcher{pages: map[string]string{
		"https://shop.example/catalog": catalogPage,
		"https://shop.example/p/1":     childPage("Item One"),
		"https://shop.example/p/3":     childPage("Item Three"),
	}}
	eng := NewWith(st, f, AreaScraper{})

	b, err := eng.ExtractKnown(context.Background(), "https://shop.example/catalog")
	if err != nil {
		t.Fatalf("ExtractKnown: %v", err)
	}
	if len(b.Children) != 2 {
		t.Fatalf("children = %d, want 2", len(b.Children))
	}
	if b.Children[0].URL != "https://shop.example/p/1" || b.Children[1].URL != "https://shop.example/p/3" {
		t.Errorf("children = [%s, %s], want /p/1 then /p/3", b.Children[0].URL, b.Children[1].URL)
	}
}

func TestFollowDisabledWithoutItemList(t *testing.T) {
	st := newStore(t)
	pol := listingPolicy()
	pol.Scrape.Areas[0].FollowLinks.Enabled = false
	if err := st.Set(pol); err != nil {
		t.Fatalf("Set: %v", err)
	}
	f := &stubFetcher{pages: map[string]string{
		"https://shop.example/catalog": plainCardsPage,
	}}
	eng := NewWith(st, f, AreaScraper{})

	b, err := eng.ExtractKnown(context.Background(), "https://shop.example/catalog")
	if err != nil {
		t.Fatalf("ExtractKnown: %v", err)
	}
	if b.Children != nil {
		t.Errorf("children = %v, want none with following disabled", b.Children)
	}
	if len(f.fetched) != 1 {
		t.Errorf("fetches = %v, want the catalog only", f.fetched)
	}
}

func TestItemListAloneTriggersFollowDefaults(t *testing.T) {
	st := newStore(t)
	// No areas at all: the extracted ItemList is what asks for children.
	pol := &policy.Policy{
		Domain: "shop.example",
		Fetch:  policy.FetchConfig{Strategy: policy.StrategyFast},
		Scrape: policy.ScrapeConfig{ExtractJSONLD: true},
	}
	if err := st.Set(pol); err != nil {
		t.Fatalf("Set: %v", err)
	}
	f := &stubFetcher{pages: map[string]string{
		"https://shop.example/catalog": catalogPage,
		"https://shop.example/p/1":     childPage("Item One"),
		"https://shop.example/p/2":     childPage("Item Two"),
		"https://shop.example/p/3":     childPage("Item Three"),
	}}
	eng := NewWith(st, f, AreaScraper{})

	b, err := eng.ExtractKnown(context.Background(), "https://shop.example/catalog")
	if err != nil {
		t.Fatalf("ExtractKnown: %v", err)
	}
	if len(b.Children) != 3 {
		t.Errorf("children = %d, want 3 via the item-list defaults", len(b.Children))
	}
}

func TestInScope(t *testing.T) {
	cases := []struct {
		name   string
		url    string
		follow policy.FollowLinks
		want   bool
	}{
		{
			name:   "same domain",
			url:    "https://shop.example/p/1",
			follow: policy.FollowLinks{Scope: policy.ScopeSameDomain},
			want:   true,
		},
		{
			name:   "www variant of same domain",
			url:    "https://www.shop.example/p/1",
			follow: policy.FollowLinks{Scope: policy.ScopeSameDomain},
			want:   true,
		},
		{
			name:   "foreign host",
			url:    "https://cdn.other.example/p/1",
			follow: policy.FollowLinks{Scope: policy.ScopeSameDomain},
			want:   false,
		},
		{
			name:   "any domain keeps foreign hosts",
			url:    "https://cdn.other.example/p/1",
			follow: policy.FollowLinks{Scope: policy.ScopeAnyDomain},
			want:   true,
		},
		{
			name: "allow list matches canonically",
			url:  "https://WWW.Partner.Example/p",
			follow: policy.FollowLinks{
				Scope:        policy.ScopeAllowList,
				AllowDomains: []domain.Domain{"partner.example"},
			},
			want: true,
		},
		{
			name: "allow list rejects the rest",
			url:  "https://shop.example/p",
			follow: policy.FollowLinks{
				Scope:        policy.ScopeAllowList,
				AllowDomains: []domain.Domain{"partner.example"},
			},
			want: false,
		},
		{
			name:   "unparseable URL",
			url:    "://broken",
			follow: policy.FollowLinks{Scope: policy.ScopeAnyDomain},
			want:   false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := inScope(tc.url, "shop.example", tc.follow); got != tc.want {
				t.Errorf("inScope(%q) = %v, want %v", tc.url, got, tc.want)
			}
		})
	}
}

func TestCreatePolicyAutoStoresVerifiedPolicy(t *testing.T) {
	st := newStore(t)
	f := &stubFetcher{pages: map[string]string{
		"https://shop.example/": catalogPage,
	}}
	eng := NewWith(st, f, AreaScraper{})

	pol, err := eng.CreatePolicyAuto(context.Background(), "www.Shop.Example")
	if err != nil {
		t.Fatalf("CreatePolicyAuto: %v", err)
	}
	if string(pol.Domain) != "shop.example" {
		t.Errorf("Domain = %q, want shop.example", pol.Domain)
	}
	if pol.Fetch.Strategy != policy.StrategyFast {
		t.Errorf("Strategy = %q, want fast", pol.Fetch.Strategy)
	}

	stored, err := st.Get("shop.example")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored == nil {
		t.Fatal("policy not persisted")
	}
	if !stored.Scrape.ExtractJSONLD {
		t.Error("stored policy lost ExtractJSONLD")
	}
}

func TestCreatePolicyAutoRefusesExisting(t *testing.T) {
	st := newStore(t)
	if err := st.Set(listingPolicy()); err != nil {
		t.Fatalf("Set: %v", err)
	}
	f := &stubFetcher{}
	eng := NewWith(st, f, AreaScraper{})

	_, err := eng.CreatePolicyAuto(context.Background(), "shop.example")
	if err == nil {
		t.Fatal("expected error for existing policy")
	}
	if !strings.Contains(err.Error(), "policy already exists for domain shop.example") {
		t.Errorf("error = %v, want the already-exists message", err)
	}
	if len(f.fetched) != 0 {
		t.Errorf("fetched %v, want no network before the existence check", f.fetched)
	}
}

func TestCreatePolicyAutoPropagatesInferenceFailure(t *testing.T) {
	st := newStore(t)
	eng := NewWith(st, &stubFetcher{}, AreaScraper{})

	_, err := eng.CreatePolicyAuto(context.Background(), "dead.example")
	if err == nil {
		t.Fatal("expected inference failure")
	}
	if !strings.Contains(err.Error(), "unable to infer policy for dead.example") {
		t.Errorf("error = %v, want the inference failure message", err)
	}
	pols, _ := st.List()
	if len(pols) != 0 {
		t.Errorf("store has %d policies after failed create, want 0", len(pols))
	}
}

func TestReadPolicy(t *testing.T) {
	st := newStore(t)
	if err := st.Set(listingPolicy()); err != nil {
		t.Fatalf("Set: %v", err)
	}
	eng := NewWith(st, &stubFetcher{}, AreaScraper{})

	t.Run("all is reserved", func(t *testing.T) {
		for _, target := range []string{"all", "ALL"} {
			_, err := eng.ReadPolicy(target)
			if models.CodeOf(err) != models.ErrCodeValidation {
				t.Fatalf("ReadPolicy(%q) code = %q, want validation", target, models.CodeOf(err))
			}
			if !strings.Contains(err.Error(), "use list for 'all'") {
				t.Errorf("error = %v, want pointer to list", err)
			}
		}
	})

	t.Run("www variant reads the canonical policy", func(t *testing.T) {
		pol, err := eng.ReadPolicy("www.shop.example")
		if err != nil {
			t.Fatalf("ReadPolicy: %v", err)
		}
		if string(pol.Domain) != "shop.example" {
			t.Errorf("Domain = %q, want shop.example", pol.Domain)
		}
	})

	t.Run("missing domain", func(t *testing.T) {
		_, err := eng.ReadPolicy("nobody.example")
		if models.CodeOf(err) != models.ErrCodeMissingPolicy {
			t.Fatalf("code = %q, want missing_policy", models.CodeOf(err))
		}
	})
}

func TestDeletePolicyAllWipesStore(t *testing.T) {
	st := newStore(t)
	a := listingPolicy()
	b := listingPolicy()
	b.Domain = "other.example"
	if err := st.Set(a); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := st.Set(b); err != nil {
		t.Fatalf("Set: %v", err)
	}
	eng := NewWith(st, &stubFetcher{}, AreaScraper{})

	if err := eng.DeletePolicy("all"); err != nil {
		t.Fatalf("DeletePolicy: %v", err)
	}
	pols, err := st.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(pols) != 0 {
		t.Errorf("store has %d policies after delete all, want 0", len(pols))
	}
}

func TestUpdatePolicyChecked(t *testing.T) {
	t.Run("static validation first", func(t *testing.T) {
		f := &stubFetcher{}
		eng := NewWith(newStore(t), f, AreaScraper{})

		pol := manualPolicy("article")
		pol.Fetch.Strategy = "turbo"
		err := eng.UpdatePolicyChecked(context.Background(), pol)
		if models.CodeOf(err) != models.ErrCodeValidation {
			t.Fatalf("code = %q, want validation (err: %v)", models.CodeOf(err), err)
		}
		if len(f.fetched) != 0 {
			t.Errorf("fetched %v, want no network for a statically invalid policy", f.fetched)
		}
	})

	t.Run("rejects a policy that yields nothing", func(t *testing.T) {
		st := newStore(t)
		f := &stubFetcher{pages: map[string]string{
			"https://shop.example/": itemPage,
			"http://shop.example/":  itemPage,
		}}
		eng := NewWith(st, f, AreaScraper{})

		err := eng.UpdatePolicyChecked(context.Background(), manualPolicy("#nowhere"))
		if err == nil {
			t.Fatal("expected rejection of a no-yield policy")
		}
		if !strings.Contains(err.Error(), "produced no content - adjust selectors") {
			t.Errorf("error = %v, want the no-content message", err)
		}
		if stored, _ := st.Get("shop.example"); stored != nil {
			t.Error("rejected policy was persisted")
		}
	})

	t.Run("saves a working policy", func(t *testing.T) {
		st := newStore(t)
		f := &stubFetcher{pages: map[string]string{
			"https://shop.example/": itemPage,
		}}
		eng := NewWith(st, f, AreaScraper{})

		if err := eng.UpdatePolicyChecked(context.Background(), manualPolicy("article")); err != nil {
			t.Fatalf("UpdatePolicyChecked: %v", err)
		}
		stored, err := st.Get("shop.example")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if stored == nil {
			t.Fatal("policy not persisted")
		}
		if got := stored.Scrape.Areas[0].Roots[0]; got != "article" {
			t.Errorf("stored root = %q, want article", got)
		}
	})
}

func TestAuditPolicies(t *testing.T) {
	st := newStore(t)
	good := listingPolicy()
	bad := listingPolicy()
	bad.Domain = "dead.example"
	if err := st.Set(good); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := st.Set(bad); err != nil {
		t.Fatalf("Set: %v", err)
	}
	f := &stubFetcher{pages: map[string]string{
		"https://shop.example/": catalogPage,
	}}
	eng := NewWith(st, f, AreaScraper{})

	got, err := eng.AuditPolicies(context.Background(), false)
	if err != nil {
		t.Fatalf("AuditPolicies: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("entries = %d, want 2", len(got))
	}
	if e := got["shop.example"]; e.Status != "pass" || e.Error != "" || e.Config != nil {
		t.Errorf("shop.example = %+v, want bare pass", e)
	}
	if e := got["dead.example"]; e.Status != "fail" || !strings.Contains(e.Error, "fetch/scrape failed") {
		t.Errorf("dead.example = %+v, want fail with fetch error", e)
	}

	verbose, err := eng.AuditPolicies(context.Background(), true)
	if err != nil {
		t.Fatalf("AuditPolicies verbose: %v", err)
	}
	cfg := verbose["shop.example"].Config
	if cfg == nil {
		t.Fatal("verbose audit dropped the config")
	}
	if cfg.Fetch.Strategy != policy.StrategyFast {
		t.Errorf("echoed strategy = %q, want fast", cfg.Fetch.Strategy)
	}
}

func TestAuditPoliciesReportsDrift(t *testing.T) {
	st := newStore(t)

	// fresh was learned from the page the site still serves; stale was
	// learned from a template the site has since replaced.
	fresh := listingPolicy()
	fresh.Performance = &policy.PerformanceProfile{
		WorkingStrategy:      "Minimal",
		StructureFingerprint: drift.FingerprintHTML(catalogPage),
	}
	stale := listingPolicy()
	stale.Domain = "legacy.example"
	stale.Performance = &policy.PerformanceProfile{
		WorkingStrategy:      "Minimal",
		StructureFingerprint: drift.FingerprintHTML(itemPage),
	}

	if err := st.Set(fresh); err != nil {
		t.Fatalf("Set fresh: %v", err)
	}
	if err := st.Set(stale); err != nil {
		t.Fatalf("Set stale: %v", err)
	}

	f := &stubFetcher{pages: map[string]string{
		"https://shop.example/":   catalogPage,
		"https://legacy.example/": catalogPage,
	}}
	eng := NewWith(st, f, AreaScraper{})

	got, err := eng.AuditPolicies(context.Background(), false)
	if err != nil {
		t.Fatalf("AuditPolicies: %v", err)
	}
	if e := got["shop.example"]; e.Status != "pass" || e.Drift {
		t.Errorf("shop.example = %+v, want pass without drift", e)
	}
	if e := got["legacy.example"]; e.Status != "pass" || !e.Drift {
		t.Errorf("legacy.example = %+v, want pass with drift", e)
	}
}

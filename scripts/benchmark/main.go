package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

// CLI flags
var (
	apiURL = flag.String("api-url", "http://localhost:8080", "Qrawl API base URL")
	apiKey = flag.String("api-key", "", "API key for authenticated requests")
	runs   = flag.Int("runs", 3, "Number of runs per URL for averaging")
	output = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// Test URLs covering different page shapes.
var testURLs = []struct {
	Label string
	URL   string
}{
	{"Static", "https://example.com"},
	{"Blog", "https://go.dev/blog/go1.21"},
	{"Docs", "https://go.dev/doc/effective_go"},
	{"News", "https://www.bbc.com/news"},
	{"Listing", "https://news.ycombinator.com"},
}

// --- Request / Response types (mirrors models package) ---

type extractRequest struct {
	URL     string `json:"url"`
	Unknown bool   `json:"unknown"`
}

type extractResponse struct {
	Success bool `json:"success"`
	Page    *struct {
		URL    string `json:"url"`
		Domain string `json:"domain"`
		Areas  []struct {
			Role    string            `json:"role"`
			Content []json.RawMessage `json:"content"`
		} `json:"areas"`
		JSONLD []json.RawMessage `json:"json_ld"`
	} `json:"page"`
	Children  []json.RawMessage `json:"children"`
	Telemetry *struct {
		ProfileUsed string `json:"profile_used"`
		Attempts    int    `json:"attempts"`
		DurationMS  int64  `json:"duration_ms"`
	} `json:"telemetry"`
	Timing struct {
		TotalMS   int64 `json:"total_ms"`
		FetchMS   int64 `json:"fetch_ms"`
		ExtractMS int64 `json:"extract_ms"`
	} `json:"timing"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Benchmark result types ---

type runResult struct {
	Run       int    `json:"run"`
	TotalMS   int64  `json:"total_ms"`
	FetchMS   int64  `json:"fetch_ms"`
	ExtractMS int64  `json:"extract_ms"`
	Profile   string `json:"profile,omitempty"`
	Attempts  int    `json:"attempts"`
	Areas     int    `json:"areas"`
	Blocks    int    `json:"blocks"`
	JSONLD    int    `json:"json_ld"`
	Children  int    `json:"children"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

type urlAverages struct {
	TotalMS   float64 `json:"total_ms"`
	FetchMS   float64 `json:"fetch_ms"`
	ExtractMS float64 `json:"extract_ms"`
	Attempts  float64 `json:"attempts"`
	Blocks    float64 `json:"blocks"`
}

type urlResult struct {
	URL      string       `json:"url"`
	Label    string       `json:"label"`
	Runs     []runResult  `json:"runs"`
	Averages *urlAverages `json:"averages,omitempty"`
}

type benchmarkReport struct {
	Timestamp  string      `json:"timestamp"`
	APIURL     string      `json:"api_url"`
	RunsPerURL int         `json:"runs_per_url"`
	Results    []urlResult `json:"results"`
}

func main() {
	flag.Parse()

	fmt.Println("=== Qrawl Benchmark Suite ===")
	fmt.Printf("API URL:   %s\n", *apiURL)
	fmt.Printf("Runs/URL:  %d\n", *runs)
	fmt.Printf("Output:    %s\n", *output)
	fmt.Println()

	// Quick connectivity check.
	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		fmt.Fprintf(os.Stderr, "Make sure qrawl-api is running\n")
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		APIURL:     *apiURL,
		RunsPerURL: *runs,
	}

	for _, t := range testURLs {
		fmt.Printf("Benchmarking [%s] %s ...\n", t.Label, t.URL)
		ur := urlResult{URL: t.URL, Label: t.Label}

		for i := 1; i <= *runs; i++ {
			fmt.Printf("  Run %d/%d ... ", i, *runs)
			rr := benchmarkURL(t.URL, i)
			if rr.Success {
				fmt.Printf("OK  %dms  %s x%d  %d blocks\n", rr.TotalMS, rr.Profile, rr.Attempts, rr.Blocks)
			} else {
				fmt.Printf("FAILED: %s\n", rr.Error)
			}
			ur.Runs = append(ur.Runs, rr)
		}

		ur.Averages = computeAverages(ur.Runs)
		report.Results = append(report.Results, ur)
		fmt.Println()
	}

	// Print summary table.
	printTable(report.Results)

	// Write JSON report.
	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/v1/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func benchmarkURL(url string, run int) runResult {
	rr := runResult{Run: run}

	// Unknown mode: no stored policies needed for a fresh server.
	reqBody := extractRequest{URL: url, Unknown: true}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		rr.Error = fmt.Sprintf("marshal error: %v", err)
		return rr
	}

	req, err := http.NewRequest("POST", *apiURL+"/api/v1/extract", bytes.NewReader(bodyBytes))
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	req.Header.Set("Content-Type", "application/json")
	if *apiKey != "" {
		req.Header.Set("X-API-Key", *apiKey)
	}

	client := &http.Client{Timeout: 90 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()

	var er extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}

	rr.Success = er.Success
	rr.TotalMS = er.Timing.TotalMS
	rr.FetchMS = er.Timing.FetchMS
	rr.ExtractMS = er.Timing.ExtractMS
	rr.Children = len(er.Children)

	if er.Telemetry != nil {
		rr.Profile = er.Telemetry.ProfileUsed
		rr.Attempts = er.Telemetry.Attempts
	}
	if er.Page != nil {
		rr.Areas = len(er.Page.Areas)
		rr.JSONLD = len(er.Page.JSONLD)
		for _, area := range er.Page.Areas {
			rr.Blocks += len(area.Content)
		}
	}
	if er.Error != nil {
		rr.Error = er.Error.Message
	}

	return rr
}

func computeAverages(runs []runResult) *urlAverages {
	var successCount int
	var avg urlAverages

	for _, r := range runs {
		if !r.Success {
			continue
		}
		successCount++
		avg.TotalMS += float64(r.TotalMS)
		avg.FetchMS += float64(r.FetchMS)
		avg.ExtractMS += float64(r.ExtractMS)
		avg.Attempts += float64(r.Attempts)
		avg.Blocks += float64(r.Blocks)
	}

	if successCount == 0 {
		return nil
	}

	n := float64(successCount)
	avg.TotalMS /= n
	avg.FetchMS /= n
	avg.ExtractMS /= n
	avg.Attempts /= n
	avg.Blocks /= n
	return &avg
}

func printTable(results []urlResult) {
	fmt.Println(strings.Repeat("─", 85))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "URL\tAvg Latency\tAvg Fetch\tProfile\tBlocks\n")
	fmt.Fprintf(w, "───\t───────────\t─────────\t───────\t──────\n")

	for _, r := range results {
		if r.Averages == nil {
			fmt.Fprintf(w, "%s\tFAILED\t-\t-\t-\n", truncateURL(r.URL, 40))
			continue
		}

		fmt.Fprintf(w, "%s\t%dms\t%dms\t%s\t%s\n",
			truncateURL(r.URL, 40),
			int64(r.Averages.TotalMS),
			int64(r.Averages.FetchMS),
			dominantProfile(r.Runs),
			formatInt(int(r.Averages.Blocks)),
		)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 85))
}

// dominantProfile picks the profile most runs succeeded with.
func dominantProfile(runs []runResult) string {
	counts := map[string]int{}
	for _, r := range runs {
		if r.Success {
			counts[r.Profile]++
		}
	}
	best, bestCount := "-", 0
	for profile, count := range counts {
		if count > bestCount {
			best = profile
			bestCount = count
		}
	}
	return best
}

func truncateURL(u string, max int) string {
	if len(u) <= max {
		return u
	}
	return u[:max-3] + "..."
}

func formatInt(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var result []byte
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(c))
	}
	return string(result)
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

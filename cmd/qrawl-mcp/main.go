package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// extractRequest mirrors the Qrawl API extract request model.
type extractRequest struct {
	URL     string `json:"url"`
	Unknown bool   `json:"unknown,omitempty"`
}

// pageExtraction mirrors the Qrawl API page model.
type pageExtraction struct {
	URL    string `json:"url"`
	Domain string `json:"domain"`
	Areas  []struct {
		Role    string            `json:"role"`
		Title   *string           `json:"title"`
		Content []json.RawMessage `json:"content"`
	} `json:"areas"`
	JSONLD []json.RawMessage `json:"json_ld"`
}

// extractResponse mirrors the Qrawl API extract response model.
type extractResponse struct {
	Success   bool              `json:"success"`
	Page      json.RawMessage   `json:"page"`
	Children  []json.RawMessage `json:"children"`
	Telemetry *struct {
		ProfileUsed string `json:"profile_used"`
		Attempts    int    `json:"attempts"`
		DurationMS  int64  `json:"duration_ms"`
	} `json:"telemetry"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// policyList mirrors the Qrawl API policy list response.
type policyList struct {
	Count    int `json:"count"`
	Policies []struct {
		Domain string `json:"domain"`
	} `json:"policies"`
}

// childrenResponse mirrors the Qrawl API children response.
type childrenResponse struct {
	URL      string   `json:"url"`
	Count    int      `json:"count"`
	Children []string `json:"children"`
}

// readableResponse mirrors the Qrawl API readable response.
type readableResponse struct {
	URL          string `json:"url"`
	Title        string `json:"title"`
	Byline       string `json:"byline"`
	OutputFormat string `json:"output_format"`
	Content      string `json:"content"`
	Tokens       struct {
		OriginalEstimate int     `json:"original_estimate"`
		CleanedEstimate  int     `json:"cleaned_estimate"`
		SavingsPercent   float64 `json:"savings_percent"`
	} `json:"tokens"`
}

// apiError mirrors the plain error envelope of non-extract endpoints.
type apiError struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	apiURL := os.Getenv("QRAWL_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("QRAWL_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "QRAWL_API_KEY is required")
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"qrawl",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	extractURLTool := mcp.NewTool("extract_url",
		mcp.WithDescription("Extract structured content from a web page using the stored policy for its domain. Returns content areas as typed blocks plus any JSON-LD found on the page."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the web page to extract"),
		),
		mcp.WithBoolean("unknown",
			mcp.Description("Extract without a stored policy using generic heuristics (set when no policy exists for the domain)"),
		),
	)
	s.AddTool(extractURLTool, handleExtractURL(apiURL, apiKey))

	extractAutoTool := mcp.NewTool("extract_auto",
		mcp.WithDescription("Extract a web page, inferring and storing a policy for its domain first if none exists. Use this when you want extraction to just work on a new domain."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the web page to extract"),
		),
	)
	s.AddTool(extractAutoTool, handleExtractAuto(apiURL, apiKey))

	createPolicyTool := mcp.NewTool("create_policy",
		mcp.WithDescription("Infer, verify and store an extraction policy for a domain by analysing its homepage. Fails if a policy already exists for the domain."),
		mcp.WithString("domain",
			mcp.Required(),
			mcp.Description("The domain to create a policy for (e.g. 'news.example.com')"),
		),
	)
	s.AddTool(createPolicyTool, handleCreatePolicy(apiURL, apiKey))

	readPolicyTool := mcp.NewTool("read_policy",
		mcp.WithDescription("Read the stored extraction policy for a domain as JSON."),
		mcp.WithString("target",
			mcp.Required(),
			mcp.Description("The domain whose policy to read"),
		),
	)
	s.AddTool(readPolicyTool, handleReadPolicy(apiURL, apiKey))

	listPoliciesTool := mcp.NewTool("list_policies",
		mcp.WithDescription("List the domains that have stored extraction policies."),
	)
	s.AddTool(listPoliciesTool, handleListPolicies(apiURL, apiKey))

	deletePolicyTool := mcp.NewTool("delete_policy",
		mcp.WithDescription("Delete the stored policy for a domain. Pass target 'all' with confirm=true to delete every policy."),
		mcp.WithString("target",
			mcp.Required(),
			mcp.Description("The domain whose policy to delete, or 'all'"),
		),
		mcp.WithBoolean("confirm",
			mcp.Description("Must be true when target is 'all'"),
		),
	)
	s.AddTool(deletePolicyTool, handleDeletePolicy(apiURL, apiKey))

	pageChildrenTool := mcp.NewTool("page_children",
		mcp.WithDescription("Discover child page URLs linked from a listing page (repeated card links, ItemList entries). Returns URLs without extracting their content."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the listing page"),
		),
	)
	s.AddTool(pageChildrenTool, handlePageChildren(apiURL, apiKey))

	readableTool := mcp.NewTool("readable",
		mcp.WithDescription("Extract the readable main content of a web page as markdown, plain text or HTML. Policy-free; works on any article-like page."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the web page"),
		),
		mcp.WithString("output_format",
			mcp.Description("Output format: 'markdown' (default), 'text', 'html', or 'markdown_citations'"),
			mcp.Enum("markdown", "text", "html", "markdown_citations"),
		),
	)
	s.AddTool(readableTool, handleReadable(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiDo sends a request to the Qrawl API and returns the response body.
// Payload may be nil for body-less methods.
func apiDo(ctx context.Context, client *http.Client, apiURL, apiKey, method, path string, payload interface{}) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-API-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// plainError extracts the error envelope of non-extract endpoints, or ""
// when the body carries no error.
func plainError(body []byte) string {
	var e apiError
	if err := json.Unmarshal(body, &e); err != nil || e.Error == nil {
		return ""
	}
	return fmt.Sprintf("[%s] %s", e.Error.Code, e.Error.Message)
}

// formatExtraction renders an extract response as a text block: telemetry
// header, pretty page JSON, then discovered children.
func formatExtraction(resp *extractResponse) string {
	var sb strings.Builder

	var page pageExtraction
	if err := json.Unmarshal(resp.Page, &page); err == nil {
		sb.WriteString(fmt.Sprintf("URL: %s\nDomain: %s\n", page.URL, page.Domain))
	}
	if resp.Telemetry != nil {
		t := resp.Telemetry
		sb.WriteString(fmt.Sprintf("Fetched with profile %s (%d attempts, %dms)\n", t.ProfileUsed, t.Attempts, t.DurationMS))
	}
	sb.WriteString("\n")

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, resp.Page, "", "  "); err != nil {
		pretty.Write(resp.Page)
	}
	sb.Write(pretty.Bytes())

	if len(resp.Children) > 0 {
		sb.WriteString(fmt.Sprintf("\n\nChild pages (%d):\n", len(resp.Children)))
		for i, raw := range resp.Children {
			var child pageExtraction
			if err := json.Unmarshal(raw, &child); err != nil {
				continue
			}
			sb.WriteString(fmt.Sprintf("--- [%d] %s ---\n", i+1, child.URL))
		}
	}

	return sb.String()
}

func handleExtract(apiURL, apiKey, path string, buildPayload func(request mcp.CallToolRequest, url string) interface{}) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		respBody, err := apiDo(ctx, client, apiURL, apiKey, http.MethodPost, path, buildPayload(request, url))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("extract request failed: %v", err)), nil
		}

		var extResp extractResponse
		if err := json.Unmarshal(respBody, &extResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse extract response: %v", err)), nil
		}

		if !extResp.Success {
			errMsg := "extraction failed"
			if extResp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", extResp.Error.Code, extResp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		return mcp.NewToolResultText(formatExtraction(&extResp)), nil
	}
}

func handleExtractURL(apiURL, apiKey string) server.ToolHandlerFunc {
	return handleExtract(apiURL, apiKey, "/api/v1/extract", func(request mcp.CallToolRequest, url string) interface{} {
		return extractRequest{URL: url, Unknown: request.GetBool("unknown", false)}
	})
}

func handleExtractAuto(apiURL, apiKey string) server.ToolHandlerFunc {
	return handleExtract(apiURL, apiKey, "/api/v1/extract/auto", func(_ mcp.CallToolRequest, url string) interface{} {
		return extractRequest{URL: url}
	})
}

func handleCreatePolicy(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dom, err := request.RequireString("domain")
		if err != nil {
			return mcp.NewToolResultError("domain is required"), nil
		}

		respBody, err := apiDo(ctx, client, apiURL, apiKey, http.MethodPost, "/api/v1/policies", map[string]string{"domain": dom})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("policy request failed: %v", err)), nil
		}
		if errMsg := plainError(respBody); errMsg != "" {
			return mcp.NewToolResultError(errMsg), nil
		}

		var pretty bytes.Buffer
		if err := json.Indent(&pretty, respBody, "", "  "); err != nil {
			pretty.Write(respBody)
		}
		return mcp.NewToolResultText(fmt.Sprintf("Created policy for %s:\n%s", dom, pretty.String())), nil
	}
}

func handleReadPolicy(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		target, err := request.RequireString("target")
		if err != nil {
			return mcp.NewToolResultError("target is required"), nil
		}

		respBody, err := apiDo(ctx, client, apiURL, apiKey, http.MethodGet, "/api/v1/policies/"+target, nil)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("policy request failed: %v", err)), nil
		}
		if errMsg := plainError(respBody); errMsg != "" {
			return mcp.NewToolResultError(errMsg), nil
		}

		var pretty bytes.Buffer
		if err := json.Indent(&pretty, respBody, "", "  "); err != nil {
			pretty.Write(respBody)
		}
		return mcp.NewToolResultText(pretty.String()), nil
	}
}

func handleListPolicies(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		respBody, err := apiDo(ctx, client, apiURL, apiKey, http.MethodGet, "/api/v1/policies", nil)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("policy request failed: %v", err)), nil
		}
		if errMsg := plainError(respBody); errMsg != "" {
			return mcp.NewToolResultError(errMsg), nil
		}

		var list policyList
		if err := json.Unmarshal(respBody, &list); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse policy list: %v", err)), nil
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("%d stored policies:\n\n", list.Count))
		for _, p := range list.Policies {
			sb.WriteString(p.Domain + "\n")
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleDeletePolicy(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		target, err := request.RequireString("target")
		if err != nil {
			return mcp.NewToolResultError("target is required"), nil
		}

		var respBody []byte
		if strings.EqualFold(target, "all") {
			if !request.GetBool("confirm", false) {
				return mcp.NewToolResultError("deleting all policies requires confirm=true"), nil
			}
			respBody, err = apiDo(ctx, client, apiURL, apiKey, http.MethodDelete, "/api/v1/policies", map[string]bool{"confirm": true})
		} else {
			respBody, err = apiDo(ctx, client, apiURL, apiKey, http.MethodDelete, "/api/v1/policies/"+target, nil)
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("policy request failed: %v", err)), nil
		}
		if errMsg := plainError(respBody); errMsg != "" {
			return mcp.NewToolResultError(errMsg), nil
		}

		var deleted struct {
			Deleted string `json:"deleted"`
		}
		if err := json.Unmarshal(respBody, &deleted); err != nil || deleted.Deleted == "" {
			return mcp.NewToolResultError("policy deletion failed"), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Deleted: %s", deleted.Deleted)), nil
	}
}

func handlePageChildren(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		respBody, err := apiDo(ctx, client, apiURL, apiKey, http.MethodPost, "/api/v1/children", map[string]string{"url": url})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("children request failed: %v", err)), nil
		}
		if errMsg := plainError(respBody); errMsg != "" {
			return mcp.NewToolResultError(errMsg), nil
		}

		var children childrenResponse
		if err := json.Unmarshal(respBody, &children); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse children response: %v", err)), nil
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Found %d child pages:\n\n", children.Count))
		for _, u := range children.Children {
			sb.WriteString(u + "\n")
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleReadable(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		payload := map[string]string{"url": url}
		if format := request.GetString("output_format", ""); format != "" {
			payload["output_format"] = format
		}

		respBody, err := apiDo(ctx, client, apiURL, apiKey, http.MethodPost, "/api/v1/readable", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("readable request failed: %v", err)), nil
		}
		if errMsg := plainError(respBody); errMsg != "" {
			return mcp.NewToolResultError(errMsg), nil
		}

		var readable readableResponse
		if err := json.Unmarshal(respBody, &readable); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse readable response: %v", err)), nil
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Title: %s\nSource: %s\n", readable.Title, readable.URL))
		if readable.Byline != "" {
			sb.WriteString(fmt.Sprintf("Byline: %s\n", readable.Byline))
		}
		sb.WriteString("\n")
		sb.WriteString(readable.Content)

		t := readable.Tokens
		sb.WriteString(fmt.Sprintf("\n\n---\nTokens: %d (saved %.0f%% from original %d)",
			t.CleanedEstimate, t.SavingsPercent, t.OriginalEstimate))

		return mcp.NewToolResultText(sb.String()), nil
	}
}

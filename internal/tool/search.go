package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// WebSearchName is the registry name of the web search tool.
const WebSearchName = "web_search"

// Searcher performs a web search and returns a readable summary of results.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// NewWebSearch builds the tool that lets agents ground their answers in
// current literature via a search provider.
func NewWebSearch(s Searcher) *Spec {
	return &Spec{
		Name:        WebSearchName,
		Description: "Searches the web for medical and nutritional literature. Returns titles, links and snippets.",
		Inputs: []Field{
			{Name: "query", Type: "string", Description: "Search query", Required: true},
		},
		Run: func(ctx context.Context, inputs map[string]interface{}) (string, error) {
			query, _ := inputs["query"].(string)
			return s.Search(ctx, query)
		},
	}
}

// SerperClient queries the Serper search API.
type SerperClient struct {
	apiKey   string
	endpoint string
	client   *http.Client
	maxHits  int
}

// NewSerperClient creates a Serper-backed Searcher with the given API key.
func NewSerperClient(apiKey string) *SerperClient {
	return &SerperClient{
		apiKey:   apiKey,
		endpoint: "https://google.serper.dev/search",
		client:   &http.Client{Timeout: 15 * time.Second},
		maxHits:  5,
	}
}

// serperResponse is the subset of the Serper payload we consume.
type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

// Search posts the query to Serper and formats the organic results.
func (c *SerperClient) Search(ctx context.Context, query string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("web search is not configured: missing serper api key")
	}

	body, err := json.Marshal(map[string]string{"q": query})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("search returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var parsed serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding search response: %w", err)
	}

	if len(parsed.Organic) == 0 {
		return "No results found for: " + query, nil
	}

	var sb strings.Builder
	for i, hit := range parsed.Organic {
		if i >= c.maxHits {
			break
		}
		fmt.Fprintf(&sb, "%d. %s\n   %s\n   %s\n", i+1, hit.Title, hit.Link, hit.Snippet)
	}
	return sb.String(), nil
}

package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/patrickmn/go-cache"
)

const (
	tavilyEndpoint = "https://api.tavily.com/search"
	maxResults     = 3

	// Web results age slowly compared to a chat turn; a short TTL keeps
	// repeated questions from burning through the API quota.
	cacheTTL     = 15 * time.Minute
	cachePurge   = 5 * time.Minute
	snippetLimit = 400
)

// Client searches the web through Tavily and renders the response as a
// compact text block for prompt enrichment. Results are cached per
// normalized query.
type Client struct {
	apiKey     string
	httpClient *http.Client
	cache      *cache.Cache
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		cache:      cache.New(cacheTTL, cachePurge),
	}
}

type tavilyRequest struct {
	ApiKey        string `json:"api_key"`
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	MaxResults    int    `json:"max_results"`
	IncludeAnswer bool   `json:"include_answer"`
}

type tavilyResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

type tavilyResponse struct {
	Answer  string         `json:"answer"`
	Results []tavilyResult `json:"results"`
}

// Search returns a text rendering of the top web results for query, or
// an empty string when the web genuinely has nothing. Errors are for
// transport and API failures; callers degrade them to "no enrichment".
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	key := strings.ToLower(strings.Join(strings.Fields(query), " "))
	if cached, found := c.cache.Get(key); found {
		return cached.(string), nil
	}

	payload, err := json.Marshal(tavilyRequest{
		ApiKey:        c.apiKey,
		Query:         query,
		SearchDepth:   "basic",
		MaxResults:    maxResults,
		IncludeAnswer: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal tavily request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tavilyEndpoint, bytes.NewBuffer(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create tavily request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("tavily request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tavily returned status %d", resp.StatusCode)
	}

	var parsed tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode tavily response: %w", err)
	}

	text := renderResults(parsed)
	c.cache.Set(key, text, cache.DefaultExpiration)
	return text, nil
}

func renderResults(resp tavilyResponse) string {
	var b strings.Builder
	if answer := strings.TrimSpace(resp.Answer); answer != "" {
		b.WriteString(answer)
	}
	for _, r := range resp.Results {
		content := strings.TrimSpace(r.Content)
		if content == "" {
			continue
		}
		if len(content) > snippetLimit {
			// Cut on a rune boundary, Arabic snippets are multi-byte.
			cut := snippetLimit
			for cut > 0 && !utf8.RuneStart(content[cut]) {
				cut--
			}
			content = content[:cut] + "..."
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "%s (%s)\n%s", r.Title, r.URL, content)
	}
	return b.String()
}

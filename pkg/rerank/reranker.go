package rerank

import (
	"ai-agent-be/pkg/store"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

// Reranker scores documents against a query.
// Results are ordered by descending score; ties keep input order.
type Reranker interface {
	Rerank(ctx context.Context, query string, documents []string) ([]store.RankedDocument, error)
}

// Config configures a cross-encoder reranking provider
type Config struct {
	Provider string // "cohere", "jina", "generic" or "keyword"
	Model    string
	APIKey   string
	APIURL   string
}

// New builds the reranker named by cfg.Provider. An empty provider selects
// the keyword-overlap scorer.
func New(cfg Config) (Reranker, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	apiURL := strings.TrimRight(cfg.APIURL, "/")

	switch provider {
	case "", "keyword":
		return NewKeywordReranker(), nil
	case "cohere":
		if apiURL == "" {
			apiURL = "https://api.cohere.com/v2"
		}
	case "jina":
		if apiURL == "" {
			apiURL = "https://api.jina.ai/v1"
		}
	case "generic":
		if apiURL == "" {
			return nil, errors.New("RERANKER_API_URL is required for generic provider")
		}
	default:
		return nil, fmt.Errorf("unknown reranker provider %q", provider)
	}

	return &Client{
		client:   &http.Client{Timeout: 30 * time.Second},
		provider: provider,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		apiURL:   apiURL,
	}, nil
}

// Client calls a hosted /rerank endpoint. Cohere v2, Jina and the generic
// pattern (Voyage, self-hosted TEI) share one request and response shape.
type Client struct {
	client   *http.Client
	provider string
	model    string
	apiKey   string
	apiURL   string
}

type rerankRequest struct {
	Model     string   `json:"model,omitempty"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

func (c *Client) Rerank(ctx context.Context, query string, documents []string) ([]store.RankedDocument, error) {
	if len(documents) == 0 {
		return nil, nil
	}

	start := time.Now()
	ranked, err := c.rerank(ctx, query, documents)
	rerankDuration.WithLabelValues(c.provider).Observe(time.Since(start).Seconds())
	if err != nil {
		rerankCallsTotal.WithLabelValues(c.provider, "error").Inc()
		return nil, fmt.Errorf("%s rerank: %w", c.provider, err)
	}
	rerankCallsTotal.WithLabelValues(c.provider, "success").Inc()
	return ranked, nil
}

func (c *Client) rerank(ctx context.Context, query string, documents []string) ([]store.RankedDocument, error) {
	payload, err := json.Marshal(rerankRequest{
		Model:     c.model,
		Query:     query,
		Documents: documents,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/rerank", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var decoded rerankResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	ranked := make([]store.RankedDocument, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		if r.Index < 0 || r.Index >= len(documents) {
			return nil, fmt.Errorf("result index %d out of range", r.Index)
		}
		ranked = append(ranked, store.RankedDocument{Content: documents[r.Index], Score: r.RelevanceScore})
	}
	SortDescending(ranked)
	return ranked, nil
}

// SortDescending orders ranked documents by score, keeping input order on ties
func SortDescending(ranked []store.RankedDocument) {
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].Score > ranked[b].Score
	})
}

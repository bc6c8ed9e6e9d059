package builtin

import (
	"ai-agent-be/pkg/tools"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

type customSearchResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

// GoogleSearch queries the Programmable Search JSON API
func GoogleSearch(cfg Config) tools.Tool {
	cfg.applyDefaults()
	return tools.Tool{
		Descriptor: tools.Descriptor{
			Name:        "google_search",
			Description: "Search the web and return the top results",
			Params: []tools.Param{
				{Name: "query", Type: tools.TypeString, Required: true},
			},
		},
		Run: func(ctx context.Context, args map[string]interface{}) (string, error) {
			if cfg.GoogleAPIKey == "" || cfg.GoogleCX == "" {
				return "", errors.New("web search is not configured")
			}
			query, err := tools.String(args, "query")
			if err != nil {
				return "", err
			}

			q := url.Values{}
			q.Set("key", cfg.GoogleAPIKey)
			q.Set("cx", cfg.GoogleCX)
			q.Set("q", query)
			q.Set("num", "5")

			var resp customSearchResponse
			if err := getJSON(ctx, cfg.HTTPClient, cfg.GoogleURL+"?"+q.Encode(), &resp); err != nil {
				return "", fmt.Errorf("web search: %w", err)
			}
			if len(resp.Items) == 0 {
				return fmt.Sprintf("No web results for %q.", query), nil
			}

			var sb strings.Builder
			for i, item := range resp.Items {
				fmt.Fprintf(&sb, "%d. %s\n%s\n%s\n", i+1, item.Title, item.Link, item.Snippet)
			}
			return strings.TrimRight(sb.String(), "\n"), nil
		},
	}
}

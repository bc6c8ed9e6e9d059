package builtin

import (
	"ai-agent-be/pkg/tools"
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
)

type arxivFeed struct {
	Entries []struct {
		ID        string `xml:"id"`
		Title     string `xml:"title"`
		Summary   string `xml:"summary"`
		Published string `xml:"published"`
		Authors   []struct {
			Name string `xml:"name"`
		} `xml:"author"`
	} `xml:"entry"`
}

// Arxiv searches the arXiv Atom API
func Arxiv(cfg Config) tools.Tool {
	cfg.applyDefaults()
	return tools.Tool{
		Descriptor: tools.Descriptor{
			Name:        "get_arxiv",
			Description: "Search arXiv for research papers",
			Params: []tools.Param{
				{Name: "query", Type: tools.TypeString, Required: true},
				{Name: "max_results", Type: tools.TypeInteger, Description: "Defaults to 3, at most 10"},
			},
		},
		Run: func(ctx context.Context, args map[string]interface{}) (string, error) {
			query, err := tools.String(args, "query")
			if err != nil {
				return "", err
			}
			limit, err := tools.Int(args, "max_results", 3)
			if err != nil {
				return "", err
			}
			if limit < 1 || limit > 10 {
				limit = 3
			}

			q := url.Values{}
			q.Set("search_query", "all:"+query)
			q.Set("start", "0")
			q.Set("max_results", fmt.Sprint(limit))

			body, err := get(ctx, cfg.HTTPClient, cfg.ArxivURL+"?"+q.Encode())
			if err != nil {
				return "", fmt.Errorf("arxiv search: %w", err)
			}

			var feed arxivFeed
			if err := xml.Unmarshal(body, &feed); err != nil {
				return "", fmt.Errorf("decode arxiv feed: %w", err)
			}
			if len(feed.Entries) == 0 {
				return fmt.Sprintf("No arXiv papers found for %q.", query), nil
			}

			var sb strings.Builder
			for i, e := range feed.Entries {
				if i > 0 {
					sb.WriteString("\n\n")
				}
				authors := make([]string, 0, len(e.Authors))
				for _, a := range e.Authors {
					authors = append(authors, a.Name)
				}
				published := e.Published
				if len(published) >= 10 {
					published = published[:10]
				}
				fmt.Fprintf(&sb, "Title: %s\nAuthors: %s\nPublished: %s\nURL: %s\nSummary: %s",
					collapseSpace(e.Title), strings.Join(authors, ", "), published,
					strings.TrimSpace(e.ID), truncate(collapseSpace(e.Summary), 600))
			}
			return sb.String(), nil
		},
	}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

package builtin

import (
	"ai-agent-be/pkg/tools"
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	readability "codeberg.org/readeck/go-readability/v2"
	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
)

// CrawlWeb fetches a page and returns its main article as markdown
func CrawlWeb(cfg Config) tools.Tool {
	cfg.applyDefaults()
	return tools.Tool{
		Descriptor: tools.Descriptor{
			Name:        "crawl_web",
			Description: "Fetch a web page and return its readable content",
			Params: []tools.Param{
				{Name: "url", Type: tools.TypeString, Description: "Absolute http(s) URL", Required: true},
			},
		},
		Run: func(ctx context.Context, args map[string]interface{}) (string, error) {
			raw, err := tools.String(args, "url")
			if err != nil {
				return "", err
			}
			pageURL, err := url.Parse(raw)
			if err != nil || (pageURL.Scheme != "http" && pageURL.Scheme != "https") {
				return "", fmt.Errorf("%w: %q is not an http url", tools.ErrInvalidArgs, raw)
			}

			body, err := get(ctx, cfg.HTTPClient, pageURL.String())
			if err != nil {
				return "", fmt.Errorf("fetch %s: %w", pageURL, err)
			}

			title, content := extractContent(body, pageURL)
			if content == "" {
				return fmt.Sprintf("No readable content found at %s.", pageURL), nil
			}
			content = truncate(content, cfg.CrawlMaxChars)
			if title != "" {
				return "# " + title + "\n\n" + content, nil
			}
			return content, nil
		},
	}
}

func extractContent(data []byte, pageURL *url.URL) (title, content string) {
	article, err := readability.FromReader(bytes.NewReader(data), pageURL)
	if err == nil && article.Node != nil {
		if md, mdErr := htmltomarkdown.ConvertNode(article.Node); mdErr == nil {
			if text := normalizeContent(string(md)); text != "" {
				return article.Title(), text
			}
		}
		var buf bytes.Buffer
		_ = article.RenderText(&buf)
		if text := normalizeContent(buf.String()); text != "" {
			return article.Title(), text
		}
	}

	node, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", ""
	}
	return "", normalizeContent(visibleText(node))
}

func visibleText(node *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "nav", "footer", "header", "template":
				return
			case "p", "div", "li", "h1", "h2", "h3", "br":
				sb.WriteString("\n")
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				sb.WriteString(text)
				sb.WriteString(" ")
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(node)
	return sb.String()
}

// normalizeContent trims lines and collapses blank runs
func normalizeContent(content string) string {
	lines := strings.Split(content, "\n")
	cleaned := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if !blank {
				cleaned = append(cleaned, "")
				blank = true
			}
			continue
		}
		blank = false
		cleaned = append(cleaned, trimmed)
	}
	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}

// Package builtin holds the local actions an agent can be allow-listed for.
package builtin

import (
	"ai-agent-be/internal/pkg/mailer"
	"ai-agent-be/pkg/tools"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	DefaultForecastURL  = "https://api.open-meteo.com/v1/forecast"
	DefaultDeliveryURL  = "https://api.binderbyte.com/v1/track"
	DefaultArxivURL     = "https://export.arxiv.org/api/query"
	DefaultGoogleURL    = "https://www.googleapis.com/customsearch/v1"

	maxResponseBytes = 2 << 20
)

type Config struct {
	HTTPClient *http.Client

	GeocodingURL string
	ForecastURL  string

	DeliveryURL    string
	DeliveryAPIKey string

	ArxivURL string

	GoogleURL    string
	GoogleAPIKey string
	GoogleCX     string

	Mailer mailer.IEmailService

	CrawlMaxChars int
}

func (c *Config) applyDefaults() {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 20 * time.Second}
	}
	if c.GeocodingURL == "" {
		c.GeocodingURL = DefaultGeocodingURL
	}
	if c.ForecastURL == "" {
		c.ForecastURL = DefaultForecastURL
	}
	if c.DeliveryURL == "" {
		c.DeliveryURL = DefaultDeliveryURL
	}
	if c.ArxivURL == "" {
		c.ArxivURL = DefaultArxivURL
	}
	if c.GoogleURL == "" {
		c.GoogleURL = DefaultGoogleURL
	}
	if c.CrawlMaxChars <= 0 {
		c.CrawlMaxChars = 8000
	}
}

// Register adds every builtin to reg. send_email is skipped without a mailer.
func Register(reg *tools.Registry, cfg Config) error {
	cfg.applyDefaults()

	all := []tools.Tool{
		Weather(cfg),
		Delivery(cfg),
		CrawlWeb(cfg),
		Arxiv(cfg),
		GoogleSearch(cfg),
	}
	if cfg.Mailer != nil {
		all = append(all, SendEmail(cfg.Mailer))
	}

	for _, t := range all {
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}

func getJSON(ctx context.Context, client *http.Client, url string, out interface{}) error {
	body, err := get(ctx, client, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func get(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "ai-agent-be/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("upstream status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

package builtin

import (
	"ai-agent-be/pkg/tools"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

type trackingResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Summary struct {
			Awb     string `json:"awb"`
			Courier string `json:"courier"`
			Status  string `json:"status"`
			Date    string `json:"date"`
		} `json:"summary"`
		History []struct {
			Date     string `json:"date"`
			Desc     string `json:"desc"`
			Location string `json:"location"`
		} `json:"history"`
	} `json:"data"`
}

// Delivery tracks a parcel through the Binderbyte tracking API
func Delivery(cfg Config) tools.Tool {
	cfg.applyDefaults()
	return tools.Tool{
		Descriptor: tools.Descriptor{
			Name:        "get_delivery",
			Description: "Track a parcel by courier code and waybill number",
			Params: []tools.Param{
				{Name: "courier", Type: tools.TypeString, Description: "Courier code, e.g. jne, jnt, sicepat", Required: true},
				{Name: "awb", Type: tools.TypeString, Description: "Waybill / tracking number", Required: true},
			},
		},
		Run: func(ctx context.Context, args map[string]interface{}) (string, error) {
			if cfg.DeliveryAPIKey == "" {
				return "", errors.New("delivery tracking is not configured")
			}
			courier, err := tools.String(args, "courier")
			if err != nil {
				return "", err
			}
			awb, err := tools.String(args, "awb")
			if err != nil {
				return "", err
			}

			q := url.Values{}
			q.Set("api_key", cfg.DeliveryAPIKey)
			q.Set("courier", strings.ToLower(courier))
			q.Set("awb", awb)

			var resp trackingResponse
			if err := getJSON(ctx, cfg.HTTPClient, cfg.DeliveryURL+"?"+q.Encode(), &resp); err != nil {
				return "", fmt.Errorf("track %s: %w", awb, err)
			}
			if resp.Status != 200 {
				return "", fmt.Errorf("track %s: %s", awb, resp.Message)
			}

			var sb strings.Builder
			s := resp.Data.Summary
			fmt.Fprintf(&sb, "Parcel %s (%s): %s", s.Awb, strings.ToUpper(s.Courier), s.Status)
			for i, h := range resp.Data.History {
				if i == 5 {
					break
				}
				fmt.Fprintf(&sb, "\n- %s %s", h.Date, h.Desc)
				if h.Location != "" {
					fmt.Fprintf(&sb, " (%s)", h.Location)
				}
			}
			return sb.String(), nil
		},
	}
}

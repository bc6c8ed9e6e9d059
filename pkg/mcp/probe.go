package mcp

import (
	"ai-agent-be/internal/pkg/logger"
	"context"
	"time"
)

// Prober checks that a server is reachable before it is saved and reports
// the tools it exposes.
type Prober struct {
	timeout time.Duration
	logger  logger.ILogger
}

func NewProber(connectTimeout time.Duration, log logger.ILogger) *Prober {
	return &Prober{timeout: connectTimeout, logger: log}
}

// Probe connects once, lists the tool names and disconnects
func (p *Prober) Probe(ctx context.Context, server ServerConfig) ([]string, error) {
	g := NewGateway(p.timeout, p.logger)
	if err := g.Connect(ctx, []ServerConfig{server}); err != nil {
		return nil, err
	}
	defer g.Close()

	descriptors := g.Descriptors()
	names := make([]string, len(descriptors))
	for i, d := range descriptors {
		names[i] = d.Name
	}
	return names, nil
}

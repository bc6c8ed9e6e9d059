// Package mcp connects an agent to remote Model Context Protocol tool servers.
package mcp

import (
	"ai-agent-be/internal/pkg/logger"
	"ai-agent-be/pkg/tools"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"
)

const (
	TransportSSE        = "sse"
	TransportStreamable = "streamable"
	TransportWebsocket  = "websocket"
	TransportStdio      = "stdio"

	DefaultConnectTimeout = 10 * time.Second
)

var ErrUnknownTool = errors.New("mcp: unknown tool")

// ServerConfig describes one remote tool server
type ServerConfig struct {
	ID      string
	Name    string
	Type    string
	URL     string
	Command string
	Args    []string
	Env     map[string]string
	Headers map[string]string
}

type connection struct {
	server  ServerConfig
	session *sdkmcp.ClientSession
	tools   []tools.Descriptor
}

// Gateway holds the sessions of one agent. The catalog is fixed after Connect.
type Gateway struct {
	client  *sdkmcp.Client
	timeout time.Duration
	logger  logger.ILogger

	mu          sync.RWMutex
	connections []*connection
	owner       map[string]*connection
}

func NewGateway(connectTimeout time.Duration, log logger.ILogger) *Gateway {
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	return &Gateway{
		client: sdkmcp.NewClient(&sdkmcp.Implementation{
			Name:    "ai-agent-be",
			Version: "1.0.0",
		}, nil),
		timeout: connectTimeout,
		logger:  log,
		owner:   make(map[string]*connection),
	}
}

// Connect opens every server concurrently, each bounded by the connect
// timeout. Any failure closes what was opened and fails the whole call.
func (g *Gateway) Connect(ctx context.Context, servers []ServerConfig) error {
	conns := make([]*connection, len(servers))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, server := range servers {
		eg.Go(func() error {
			conn, err := g.open(egCtx, server)
			if err != nil {
				return fmt.Errorf("mcp server %q: %w", server.Name, err)
			}
			conns[i] = conn
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		for _, c := range conns {
			if c != nil {
				_ = c.session.Close()
			}
		}
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for _, conn := range conns {
		g.connections = append(g.connections, conn)
		for _, d := range conn.tools {
			if prev, taken := g.owner[d.Name]; taken {
				g.logger.Warn("Gateway", "duplicate remote tool ignored", map[string]interface{}{
					"tool":   d.Name,
					"kept":   prev.server.Name,
					"server": conn.server.Name,
				})
				continue
			}
			g.owner[d.Name] = conn
		}
	}
	return nil
}

func (g *Gateway) open(ctx context.Context, server ServerConfig) (*connection, error) {
	transport, err := newTransport(server)
	if err != nil {
		return nil, err
	}

	connectCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	session, err := g.client.Connect(connectCtx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	result, err := session.ListTools(connectCtx, nil)
	if err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("list tools: %w", err)
	}

	descriptors := make([]tools.Descriptor, 0, len(result.Tools))
	for _, t := range result.Tools {
		descriptors = append(descriptors, tools.DescriptorFromSchema(t.Name, t.Description, convertInputSchema(t.InputSchema)))
	}

	g.logger.Info("Gateway", "connected to mcp server", map[string]interface{}{
		"server":    server.Name,
		"transport": server.Type,
		"tools":     len(descriptors),
	})
	return &connection{server: server, session: session, tools: descriptors}, nil
}

func newTransport(server ServerConfig) (sdkmcp.Transport, error) {
	switch strings.ToLower(server.Type) {
	case TransportSSE:
		if server.URL == "" {
			return nil, errors.New("sse transport requires a url")
		}
		return &sdkmcp.SSEClientTransport{Endpoint: server.URL, HTTPClient: httpClient(server.Headers)}, nil
	case TransportStreamable, TransportWebsocket, "":
		// websocket entries predate streamable HTTP and are dialled as such
		if server.URL == "" {
			return nil, errors.New("streamable transport requires a url")
		}
		return &sdkmcp.StreamableClientTransport{Endpoint: server.URL, HTTPClient: httpClient(server.Headers)}, nil
	case TransportStdio:
		if server.Command == "" {
			return nil, errors.New("stdio transport requires a command")
		}
		cmd := exec.Command(server.Command, server.Args...)
		cmd.Env = os.Environ()
		for k, v := range server.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
		return &sdkmcp.CommandTransport{Command: cmd}, nil
	default:
		return nil, fmt.Errorf("unsupported transport %q", server.Type)
	}
}

// Catalog maps server id to the tools it exposes
func (g *Gateway) Catalog() map[string][]tools.Descriptor {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make(map[string][]tools.Descriptor, len(g.connections))
	for _, c := range g.connections {
		out[c.server.ID] = c.tools
	}
	return out
}

// Descriptors lists every invocable remote tool once, in connect order
func (g *Gateway) Descriptors() []tools.Descriptor {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []tools.Descriptor
	for _, c := range g.connections {
		for _, d := range c.tools {
			if g.owner[d.Name] == c {
				out = append(out, d)
			}
		}
	}
	return out
}

func (g *Gateway) Invoke(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	g.mu.RLock()
	conn, ok := g.owner[name]
	g.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	result, err := conn.session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return "", fmt.Errorf("mcp: call %s: %w", name, err)
	}
	if result.IsError {
		if text := extractTextContent(result); text != "" {
			return "", fmt.Errorf("mcp: tool %s returned error: %s", name, text)
		}
		return "", fmt.Errorf("mcp: tool %s returned error", name)
	}
	return extractTextContent(result), nil
}

func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	var errs []error
	for _, c := range g.connections {
		if err := c.session.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	g.connections = nil
	g.owner = make(map[string]*connection)
	return errors.Join(errs...)
}

func convertInputSchema(schema any) map[string]interface{} {
	empty := map[string]interface{}{"type": "object", "properties": map[string]any{}}
	if schema == nil {
		return empty
	}
	if m, ok := schema.(map[string]any); ok {
		return m
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return empty
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil || m == nil {
		return empty
	}
	return m
}

func extractTextContent(result *sdkmcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	var parts []string
	for _, c := range result.Content {
		if tc, ok := c.(*sdkmcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func httpClient(headers map[string]string) *http.Client {
	if len(headers) == 0 {
		return http.DefaultClient
	}
	return &http.Client{Transport: &headerTransport{base: http.DefaultTransport, headers: headers}}
}

// headerTransport adds per-server headers such as API keys
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.base.RoundTrip(req)
}

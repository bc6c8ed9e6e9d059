package entity

import (
	"github.com/google/uuid"
)

const (
	McpTransportSSE        = "sse"
	McpTransportStreamable = "streamable"
	McpTransportWebsocket  = "websocket"
	McpTransportStdio      = "stdio"
)

type McpServer struct {
	Id      uuid.UUID
	Name    string
	UserId  uuid.UUID
	Type    string
	URL     string
	Command string
	Args    []string
	Env     map[string]string
}

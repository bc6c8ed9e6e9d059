package dto

import "github.com/google/uuid"

type CreateMcpServerRequest struct {
	Name    string            `json:"name" validate:"required,max=255"`
	Type    string            `json:"type" validate:"required,oneof=sse streamable websocket stdio"`
	URL     string            `json:"url" validate:"required_unless=Type stdio,max=500"`
	Command string            `json:"command" validate:"required_if=Type stdio,max=500"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env"`
}

type UpdateMcpServerRequest CreateMcpServerRequest

type McpServerResponse struct {
	Id      uuid.UUID         `json:"id"`
	Name    string            `json:"name"`
	Type    string            `json:"type"`
	URL     string            `json:"url,omitempty"`
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
	// Tools is what the server exposed when it was last checked
	Tools []string `json:"tools,omitempty"`
}

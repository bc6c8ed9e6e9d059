package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Chunk is one increment of a streamed reply
type Chunk struct {
	Content string
}

// Stream yields chunks until Recv returns io.EOF.
// Close releases the underlying connection and may be called at any point.
type Stream interface {
	Recv() (Chunk, error)
	Close() error
}

type sliceStream struct {
	parts []string
	pos   int
}

// NewSliceStream returns a Stream over pre-computed parts
func NewSliceStream(parts ...string) Stream {
	return &sliceStream{parts: parts}
}

func (s *sliceStream) Recv() (Chunk, error) {
	if s.pos >= len(s.parts) {
		return Chunk{}, io.EOF
	}
	part := s.parts[s.pos]
	s.pos++
	return Chunk{Content: part}, nil
}

func (s *sliceStream) Close() error {
	s.pos = len(s.parts)
	return nil
}

// Collect drains a stream into a single string and closes it
func Collect(stream Stream) (string, error) {
	defer stream.Close()

	var sb strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return sb.String(), nil
		}
		if err != nil {
			return sb.String(), err
		}
		sb.WriteString(chunk.Content)
	}
}

// ErrMalformedToolCall marks a tool selection whose payload could not be parsed.
// Callers treat it as no selection rather than a transport failure.
var ErrMalformedToolCall = errors.New("malformed tool call")

// DecodeArguments parses a JSON argument object as returned by tool-calling APIs
func DecodeArguments(raw string) (map[string]interface{}, error) {
	args := map[string]interface{}{}
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("%w: decode tool arguments: %w", ErrMalformedToolCall, err)
	}
	return args, nil
}

// SplitSystem separates leading system messages from the conversation,
// for providers that take the system prompt out of band.
func SplitSystem(history []Message) (string, []Message) {
	var system []string
	rest := make([]Message, 0, len(history))
	for _, msg := range history {
		if msg.Role == RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		rest = append(rest, msg)
	}
	return strings.Join(system, "\n\n"), rest
}

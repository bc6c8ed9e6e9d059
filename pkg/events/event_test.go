package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	raw, err := Encode(BaseEvent{
		Type:       TypeKnowledgeFileDeleted,
		Data:       map[string]interface{}{"scope": "kb-1", "file_id": "f1"},
		OccurredAt: at,
	})
	require.NoError(t, err)

	event, err := Decode(Subject(TypeKnowledgeFileDeleted), raw)
	require.NoError(t, err)
	assert.Equal(t, TypeKnowledgeFileDeleted, event.EventType())
	assert.Equal(t, "kb-1", event.Payload()["scope"])
	assert.True(t, at.Equal(event.Timestamp()))
}

func TestDecode_BarePayloadTakesTypeFromSubject(t *testing.T) {
	event, err := Decode("events.knowledge.file_deleted", []byte(`{"scope":"kb-1","file_id":"f1"}`))
	require.NoError(t, err)
	assert.Equal(t, "knowledge.file_deleted", event.Type)
	assert.Equal(t, "f1", event.Data["file_id"])
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode("events.x", []byte(`not json`))
	assert.Error(t, err)
}

func TestDecodeData(t *testing.T) {
	var out struct {
		Scope  string `json:"scope"`
		Chunks []struct {
			Content string `json:"content"`
		} `json:"chunks"`
	}
	event := BaseEvent{Data: map[string]interface{}{
		"scope":  "kb-1",
		"chunks": []interface{}{map[string]interface{}{"content": "hello"}},
	}}
	require.NoError(t, DecodeData(event, &out))
	assert.Equal(t, "kb-1", out.Scope)
	require.Len(t, out.Chunks, 1)
	assert.Equal(t, "hello", out.Chunks[0].Content)
}

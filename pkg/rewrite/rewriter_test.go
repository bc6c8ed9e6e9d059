package rewrite

import (
	"ai-agent-be/internal/pkg/logger"
	"ai-agent-be/pkg/llm"
	"ai-agent-be/pkg/llm/llmtest"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVariants(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		max  int
		want []string
	}{
		{
			name: "plain lines",
			raw:  "annual leave rules\nholiday entitlement",
			max:  3,
			want: []string{"vacation policy", "annual leave rules", "holiday entitlement"},
		},
		{
			name: "strips numbering and bullets",
			raw:  "1. annual leave rules\n- holiday entitlement\n* \"time off policy\"",
			max:  3,
			want: []string{"vacation policy", "annual leave rules", "holiday entitlement", "time off policy"},
		},
		{
			name: "drops duplicates of the original",
			raw:  "Vacation  Policy\nannual leave rules",
			max:  3,
			want: []string{"vacation policy", "annual leave rules"},
		},
		{
			name: "caps at max",
			raw:  "a1\na2\na3\na4",
			max:  2,
			want: []string{"vacation policy", "a1", "a2"},
		},
		{
			name: "empty output keeps original",
			raw:  "\n\n",
			max:  3,
			want: []string{"vacation policy"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseVariants("vacation policy", tt.raw, tt.max))
		})
	}
}

func TestLLMRewriter_PropagatesError(t *testing.T) {
	provider := &llmtest.Provider{
		ChatFunc: func(context.Context, []llm.Message) (string, error) {
			return "", errors.New("model down")
		},
	}
	_, err := NewLLMRewriter(provider, 2).Rewrite(context.Background(), "q")
	assert.Error(t, err)
}

func TestCachedRewriter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	provider := &llmtest.Provider{
		ChatFunc: func(context.Context, []llm.Message) (string, error) {
			return "annual leave rules", nil
		},
	}
	cached := NewCachedRewriter(NewLLMRewriter(provider, 2), client, time.Hour, logger.NewNopLogger())

	first, err := cached.Rewrite(context.Background(), "vacation policy")
	require.NoError(t, err)
	second, err := cached.Rewrite(context.Background(), "vacation policy")
	require.NoError(t, err)

	assert.Equal(t, []string{"vacation policy", "annual leave rules"}, first)
	assert.Equal(t, first, second)
	assert.Len(t, provider.ChatCalls, 1)
	assert.True(t, mr.Exists(cacheKey("vacation policy")))
}

func TestCachedRewriter_RedisDownFallsThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	cached := NewCachedRewriter(Identity{}, client, time.Hour, logger.NewNopLogger())
	variants, err := cached.Rewrite(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, []string{"q"}, variants)
}

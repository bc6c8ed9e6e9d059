package implementation

import (
	"context"
	"os"
	"testing"

	"ai-agent-be/internal/entity"
	"ai-agent-be/internal/model"
	"ai-agent-be/internal/repository/contract"
	"ai-agent-be/internal/repository/specification"
	"ai-agent-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitVector(hot int) []float32 {
	v := make([]float32, 768)
	v[hot] = 1
	return v
}

func TestKnowledgeChunkRepository_Postgres(t *testing.T) {
	_ = godotenv.Load("../../../.env")

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, database.DefaultPoolConfig())
	require.NoError(t, err)
	require.NoError(t, db.Exec(`CREATE EXTENSION IF NOT EXISTS vector`).Error)
	require.NoError(t, db.AutoMigrate(&model.KnowledgeChunk{}))

	ctx := context.Background()
	repo := NewKnowledgeChunkRepository(db)
	scope := "it-" + uuid.NewString()[:8]
	t.Cleanup(func() {
		_ = repo.Delete(ctx, specification.ByScopes{Scopes: []string{scope}})
	})

	require.NoError(t, repo.CreateBulk(ctx, []*entity.KnowledgeChunk{
		{Id: uuid.New(), Scope: scope, FileId: "a.md", Content: "alpha", ContentEmbedding: unitVector(0)},
		{Id: uuid.New(), Scope: scope, FileId: "a.md", ChunkIndex: 1, Content: "beta", ContentEmbedding: unitVector(1)},
	}))

	scored, err := repo.SearchSimilarWithScore(ctx, unitVector(0), contract.ContentEmbeddingColumn, []string{scope}, 2)
	require.NoError(t, err)
	require.Len(t, scored, 2)
	assert.Equal(t, "alpha", scored[0].Chunk.Content)
	assert.InDelta(t, 1.0, scored[0].Similarity, 1e-6)

	all, err := repo.FindAll(ctx, specification.ByScopes{Scopes: []string{scope}})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, repo.Delete(ctx, specification.ByFileID{Scope: scope, FileID: "a.md"}))
	count, err := repo.Count(ctx, specification.ByScopes{Scopes: []string{scope}})
	require.NoError(t, err)
	assert.Zero(t, count)
}

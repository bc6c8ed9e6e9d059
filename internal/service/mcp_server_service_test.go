package service

import (
	"context"
	"testing"

	"ai-agent-be/internal/dto"
	"ai-agent-be/internal/entity"
	"ai-agent-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mcpFixture struct {
	service IMcpServerService
	uow     *fakeUow
	prober  *fakeProber
	evictor *fakeEvictor
	userId  uuid.UUID
}

func newMcpFixture() *mcpFixture {
	factory := newFakeFactory()
	fx := &mcpFixture{
		uow:     factory.uow,
		prober:  &fakeProber{tools: []string{"get_issue", "search_issues"}},
		evictor: &fakeEvictor{},
		userId:  uuid.New(),
	}
	fx.service = NewMcpServerService(factory, fx.prober, fx.evictor, logger.NewNopLogger())
	return fx
}

func trackerRequest() *dto.CreateMcpServerRequest {
	return &dto.CreateMcpServerRequest{Name: "tracker", Type: entity.McpTransportStreamable, URL: "http://tracker.local/mcp"}
}

func TestMcpServerService_CreateReportsTools(t *testing.T) {
	fx := newMcpFixture()

	created, err := fx.service.Create(context.Background(), fx.userId, trackerRequest())
	require.NoError(t, err)
	assert.Equal(t, []string{"get_issue", "search_issues"}, created.Tools)
	require.Len(t, fx.uow.servers.rows, 1)
	assert.Equal(t, fx.userId, fx.uow.servers.rows[0].UserId)

	_, err = fx.service.Create(context.Background(), fx.userId, trackerRequest())
	assert.Equal(t, fiber.StatusConflict, statusOf(t, err))
}

func TestMcpServerService_UnreachableServerIsNotSaved(t *testing.T) {
	fx := newMcpFixture()
	fx.prober.err = errBoom

	_, err := fx.service.Create(context.Background(), fx.userId, trackerRequest())
	assert.Equal(t, fiber.StatusFailedDependency, statusOf(t, err))
	assert.Empty(t, fx.uow.servers.rows)
}

func TestMcpServerService_UpdateProbesOnlyOnConnectionChange(t *testing.T) {
	fx := newMcpFixture()
	ctx := context.Background()
	created, err := fx.service.Create(ctx, fx.userId, trackerRequest())
	require.NoError(t, err)
	require.Equal(t, 1, fx.prober.calls)

	user := &entity.Agent{Id: uuid.New(), UserId: fx.userId, McpServerIds: []uuid.UUID{created.Id}}
	fx.uow.agents.rows = append(fx.uow.agents.rows, user)

	rename := dto.UpdateMcpServerRequest(*trackerRequest())
	rename.Name = "issue tracker"
	res, err := fx.service.Update(ctx, fx.userId, created.Id, &rename)
	require.NoError(t, err)
	assert.Equal(t, "issue tracker", res.Name)
	assert.Equal(t, 1, fx.prober.calls)

	moved := rename
	moved.URL = "http://tracker.internal/mcp"
	_, err = fx.service.Update(ctx, fx.userId, created.Id, &moved)
	require.NoError(t, err)
	assert.Equal(t, 2, fx.prober.calls)
	assert.Equal(t, []uuid.UUID{user.Id, user.Id}, fx.evictor.evicted)
}

func TestMcpServerService_DeleteDetachesFromAgents(t *testing.T) {
	fx := newMcpFixture()
	ctx := context.Background()
	created, err := fx.service.Create(ctx, fx.userId, trackerRequest())
	require.NoError(t, err)

	kept := uuid.New()
	user := &entity.Agent{Id: uuid.New(), UserId: fx.userId, McpServerIds: []uuid.UUID{kept, created.Id}}
	bystander := &entity.Agent{Id: uuid.New(), UserId: fx.userId, McpServerIds: []uuid.UUID{kept}}
	fx.uow.agents.rows = append(fx.uow.agents.rows, user, bystander)

	err = fx.service.Delete(ctx, uuid.New(), created.Id)
	assert.Equal(t, fiber.StatusNotFound, statusOf(t, err))

	require.NoError(t, fx.service.Delete(ctx, fx.userId, created.Id))
	assert.Equal(t, []uuid.UUID{created.Id}, fx.uow.servers.deleted)
	assert.Equal(t, []uuid.UUID{kept}, fx.uow.agents.rows[0].McpServerIds)
	assert.Equal(t, 1, fx.uow.agents.updated)
	assert.Equal(t, 1, fx.uow.committed)
	assert.Equal(t, []uuid.UUID{user.Id}, fx.evictor.evicted)
}

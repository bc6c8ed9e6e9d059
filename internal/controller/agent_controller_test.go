package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-agent-be/internal/dto"
	"ai-agent-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAgentService struct {
	users    []uuid.UUID
	searched string
	created  *dto.CreateAgentRequest
	err      error
}

func (s *stubAgentService) List(ctx context.Context, userId uuid.UUID) ([]*dto.AgentResponse, error) {
	s.users = append(s.users, userId)
	return []*dto.AgentResponse{{Id: uuid.New(), Name: "support"}}, s.err
}

func (s *stubAgentService) Search(ctx context.Context, userId uuid.UUID, name string) ([]*dto.AgentResponse, error) {
	s.users = append(s.users, userId)
	s.searched = name
	return nil, s.err
}

func (s *stubAgentService) Show(ctx context.Context, userId, id uuid.UUID) (*dto.AgentResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.AgentResponse{Id: id}, nil
}

func (s *stubAgentService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateAgentRequest) (*dto.AgentResponse, error) {
	s.users = append(s.users, userId)
	s.created = req
	return &dto.AgentResponse{Id: uuid.New(), Name: req.Name}, s.err
}

func (s *stubAgentService) Update(ctx context.Context, userId, id uuid.UUID, req *dto.UpdateAgentRequest) (*dto.AgentResponse, error) {
	return &dto.AgentResponse{Id: id, Name: req.Name}, s.err
}

func (s *stubAgentService) Delete(ctx context.Context, userId, id uuid.UUID) error {
	return s.err
}

func bearer(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func newJSONRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAgentController_ListUsesTokenSubject(t *testing.T) {
	svc := &stubAgentService{}
	app := newTestApp(NewAgentController(svc, "secret").RegisterRoutes)
	userId := uuid.New()

	req := httptest.NewRequest("GET", "/api/agent/v1", nil)
	req.Header.Set("Authorization", bearer(t, "secret", jwt.MapClaims{"user_id": userId.String()}))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, []uuid.UUID{userId}, svc.users)

	var body serverutils.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)

	req = httptest.NewRequest("GET", "/api/agent/v1", nil)
	req.Header.Set("Authorization", bearer(t, "secret", jwt.MapClaims{"user_id": "not-a-uuid"}))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	req = httptest.NewRequest("GET", "/api/agent/v1", nil)
	req.Header.Set("Authorization", bearer(t, "secret", jwt.MapClaims{"role": "admin"}))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
	assert.Len(t, svc.users, 1)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/agent/v1", nil))
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestAgentController_SearchPassesName(t *testing.T) {
	svc := &stubAgentService{}
	app := newTestApp(NewAgentController(svc, "").RegisterRoutes)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/agent/v1/search?name=supp", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "supp", svc.searched)
	assert.Equal(t, []uuid.UUID{uuid.Nil}, svc.users)
}

func TestAgentController_CreateValidates(t *testing.T) {
	svc := &stubAgentService{}
	app := newTestApp(NewAgentController(svc, "").RegisterRoutes)

	resp, err := app.Test(newJSONRequest(t, "POST", "/api/agent/v1", map[string]interface{}{"name": "support"}))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Nil(t, svc.created)

	resp, err = app.Test(newJSONRequest(t, "POST", "/api/agent/v1", map[string]interface{}{
		"name":       "support",
		"llm_id":     uuid.NewString(),
		"tool_names": []string{"get_weather"},
	}))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	require.NotNil(t, svc.created)
	assert.Equal(t, []string{"get_weather"}, svc.created.ToolNames)
}

func TestAgentController_ServiceErrorsKeepStatus(t *testing.T) {
	tests := []struct {
		name   string
		req    *http.Request
		err    error
		status int
	}{
		{"bad id", httptest.NewRequest("GET", "/api/agent/v1/nope", nil), nil, 400},
		{"not found", httptest.NewRequest("GET", "/api/agent/v1/"+uuid.NewString(), nil), fiber.NewError(404, "Agent not found"), 404},
		{"conflict", newJSONRequest(t, "PUT", "/api/agent/v1/"+uuid.NewString(), map[string]interface{}{
			"name": "support", "llm_id": uuid.NewString(),
		}), fiber.NewError(409, "Agent \"support\" already exists"), 409},
		{"delete", httptest.NewRequest("DELETE", "/api/agent/v1/"+uuid.NewString(), nil), nil, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(NewAgentController(&stubAgentService{err: tt.err}, "").RegisterRoutes)
			resp, err := app.Test(tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

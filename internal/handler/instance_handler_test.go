package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/studioflow/studioflow-api/internal/dto"
	"github.com/studioflow/studioflow-api/internal/handler"
	"github.com/studioflow/studioflow-api/internal/models"
	"github.com/studioflow/studioflow-api/internal/service"
)

type mockInstanceService struct {
	lastTemplateID uint
	lastDate       time.Time
	response       dto.InstanceResponse
	err            error
}

func (m *mockInstanceService) GetOrCreate(_ context.Context, templateID uint, date time.Time) (dto.InstanceResponse, error) {
	m.lastTemplateID = templateID
	m.lastDate = date
	if m.err != nil {
		return dto.InstanceResponse{}, m.err
	}
	return m.response, nil
}

func (m *mockInstanceService) Get(_ context.Context, _ uint) (dto.InstanceDetailResponse, error) {
	return dto.InstanceDetailResponse{Instance: m.response}, m.err
}

func (m *mockInstanceService) EnsureFresh(_ context.Context, _ uint) (models.ClassInstance, error) {
	return models.ClassInstance{}, m.err
}

func (m *mockInstanceService) Regenerate(_ context.Context, _ uint) (dto.InstanceResponse, error) {
	return m.response, m.err
}

func (m *mockInstanceService) AddStudent(_ context.Context, _ uint, _ dto.RosterEditRequest) (dto.InstanceResponse, error) {
	return m.response, m.err
}

func (m *mockInstanceService) RemoveStudent(_ context.Context, _ uint, _ dto.RosterEditRequest) (dto.InstanceResponse, error) {
	return m.response, m.err
}

func (m *mockInstanceService) CreateStandalone(_ context.Context, _ uint, _ dto.StandaloneInstanceRequest) (dto.InstanceResponse, error) {
	return m.response, m.err
}

func (m *mockInstanceService) Cancel(_ context.Context, _ uint) (dto.InstanceResponse, error) {
	return m.response, m.err
}

func (m *mockInstanceService) AddTempStudent(_ context.Context, _ uint, _ dto.TempStudentRequest) (dto.TempStudentResponse, error) {
	return dto.TempStudentResponse{}, m.err
}

func (m *mockInstanceService) DeactivateTempStudent(_ context.Context, _ uint) error {
	return m.err
}

func newInstanceTestApp(svc service.InstanceService) *fiber.App {
	app := fiber.New()
	handler.NewInstanceHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/api/v1/instances"))
	return app
}

func TestInstanceHandler_Materialize(t *testing.T) {
	svc := &mockInstanceService{response: dto.InstanceResponse{ID: 5, Date: "2025-09-08", StudentIDs: []uint{1}}}
	app := newInstanceTestApp(svc)

	payload := `{"template_id": 3, "date": "2025-09-08"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/instances/materialize", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(3), svc.lastTemplateID)
	require.Equal(t, time.Date(2025, 9, 8, 0, 0, 0, 0, time.UTC), svc.lastDate)

	var body struct {
		Success bool                 `json:"success"`
		Data    dto.InstanceResponse `json:"data"`
	}
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.True(t, body.Success)
	require.Equal(t, uint(5), body.Data.ID)
}

func TestInstanceHandler_MaterializeRejectsBadPayload(t *testing.T) {
	app := newInstanceTestApp(&mockInstanceService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/instances/materialize", strings.NewReader(`{"date":"2025-09-08"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/instances/materialize", strings.NewReader(`{"template_id":3,"date":"next monday"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestInstanceHandler_RegenerateConflicts(t *testing.T) {
	svc := &mockInstanceService{err: service.ErrInstanceModified}
	app := newInstanceTestApp(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/instances/7/regenerate", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	svc.err = service.ErrInstanceNotFound
	req = httptest.NewRequest(http.MethodPost, "/api/v1/instances/7/regenerate", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

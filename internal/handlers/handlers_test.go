package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"taskTriage/internal/handlers"
	"taskTriage/internal/logger"
	"taskTriage/internal/models/project"
	"taskTriage/internal/models/task"
	"taskTriage/internal/repository"
	"taskTriage/internal/service"
	"taskTriage/internal/triage"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init(true)
	os.Exit(m.Run())
}

// MockService - мок сервиса
type MockService struct {
	mock.Mock
}

func (m *MockService) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockService) CreateTask(ctx context.Context, title, projectName, notes, dueDate string, source task.Source) (*task.Task, error) {
	args := m.Called(ctx, title, projectName, notes, dueDate, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockService) GetTaskByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockService) UpdateTask(ctx context.Context, id uuid.UUID, options ...task.TaskOption) (*task.Task, error) {
	args := m.Called(ctx, id, options)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockService) DeleteTask(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockService) ListTasks(ctx context.Context, filter repository.TaskFilter) ([]*task.Task, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockService) Triage(ctx context.Context, options ...triage.Option) (*triage.Buckets, error) {
	args := m.Called(ctx, options)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*triage.Buckets), args.Error(1)
}

func (m *MockService) CreateProject(ctx context.Context, name string) (*project.Project, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*project.Project), args.Error(1)
}

func (m *MockService) ListProjects(ctx context.Context) ([]*project.Project, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*project.Project), args.Error(1)
}

func (m *MockService) RenameProject(ctx context.Context, id uuid.UUID, newName string) (*project.Project, error) {
	args := m.Called(ctx, id, newName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*project.Project), args.Error(1)
}

func (m *MockService) DeleteProject(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ handlers.Service = (*MockService)(nil)

func newRouter(mockService *MockService) *chi.Mux {
	handler := handlers.NewTriageHandler(mockService)

	r := chi.NewRouter()
	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", handler.GetTasks)
		r.Post("/", handler.PostTask)
		r.Get("/triage", handler.GetTriage)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", handler.GetTaskByID)
			r.Put("/", handler.UpdateTaskByID)
			r.Delete("/", handler.DeleteTaskByID)
		})
	})
	r.Route("/projects", func(r chi.Router) {
		r.Get("/", handler.GetProjects)
		r.Post("/", handler.PostProject)
		r.Route("/{id}", func(r chi.Router) {
			r.Put("/", handler.RenameProjectByID)
			r.Delete("/", handler.DeleteProjectByID)
		})
	})
	r.Get("/health", handler.HealthCheck)
	return r
}

// TestPostTask тестирует создание задачи через HTTP
func TestPostTask(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		mockService := new(MockService)
		created := &task.Task{
			UUID:    uuid.New(),
			Title:   "Ship",
			Project: "Alpha",
			Status:  task.StatusPending,
			Source:  task.SourceManual,
		}
		mockService.On("CreateTask", mock.Anything, "Ship", "Alpha", "", "2026-03-20", task.SourceManual).
			Return(created, nil)

		body := `{"title":"Ship","project":"Alpha","due_date":"2026-03-20","source":"manual"}`
		req := httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		newRouter(mockService).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		var response map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Equal(t, "Ship", response["title"])
		mockService.AssertExpectations(t)
	})

	t.Run("missing content type", func(t *testing.T) {
		mockService := new(MockService)
		req := httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()

		newRouter(mockService).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
		mockService.AssertNotCalled(t, "CreateTask")
	})

	t.Run("validation error maps to 400", func(t *testing.T) {
		mockService := new(MockService)
		mockService.On("CreateTask", mock.Anything, "", "Alpha", "", "", task.Source("")).
			Return(nil, service.NewValidationError("title", "пустое значение"))

		body := `{"project":"Alpha"}`
		req := httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		newRouter(mockService).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var response map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Equal(t, "VALIDATION_ERROR", response["error"])
	})

	t.Run("invalid json", func(t *testing.T) {
		mockService := new(MockService)
		req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewReader([]byte(`{broken`)))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		newRouter(mockService).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

// TestGetTaskByID тестирует чтение задачи
func TestGetTaskByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		mockService := new(MockService)
		stored := &task.Task{UUID: uuid.New(), Title: "Ship", Project: "Alpha", Status: task.StatusPending}
		mockService.On("GetTaskByID", mock.Anything, stored.UUID).Return(stored, nil)

		req := httptest.NewRequest(http.MethodGet, "/tasks/"+stored.UUID.String(), nil)
		rec := httptest.NewRecorder()

		newRouter(mockService).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		mockService := new(MockService)
		req := httptest.NewRequest(http.MethodGet, "/tasks/not-a-uuid", nil)
		rec := httptest.NewRecorder()

		newRouter(mockService).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "GetTaskByID")
	})

	t.Run("not found maps to 404", func(t *testing.T) {
		mockService := new(MockService)
		id := uuid.New()
		mockService.On("GetTaskByID", mock.Anything, id).
			Return(nil, service.NewNotFound("задача", id.String()))

		req := httptest.NewRequest(http.MethodGet, "/tasks/"+id.String(), nil)
		rec := httptest.NewRecorder()

		newRouter(mockService).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

// TestUpdateTaskByID тестирует частичное обновление
func TestUpdateTaskByID(t *testing.T) {
	mockService := new(MockService)
	id := uuid.New()
	updated := &task.Task{UUID: id, Title: "Ship", Project: "Alpha", Status: task.StatusDone}

	mockService.On("UpdateTask", mock.Anything, id, mock.MatchedBy(func(options []task.TaskOption) bool {
		// присланы два поля - собраны ровно две опции
		return len(options) == 2
	})).Return(updated, nil)

	body := `{"status":"done","due_date":""}`
	req := httptest.NewRequest(http.MethodPut, "/tasks/"+id.String(), strings.NewReader(body))
	rec := httptest.NewRecorder()

	newRouter(mockService).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	mockService.AssertExpectations(t)
}

// TestDeleteTaskByID тестирует удаление задачи
func TestDeleteTaskByID(t *testing.T) {
	mockService := new(MockService)
	id := uuid.New()
	mockService.On("DeleteTask", mock.Anything, id).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/tasks/"+id.String(), nil)
	rec := httptest.NewRecorder()

	newRouter(mockService).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

// TestGetTasks тестирует фильтры списка
func TestGetTasks(t *testing.T) {
	mockService := new(MockService)
	mockService.On("ListTasks", mock.Anything, repository.TaskFilter{Project: "Alpha", Status: task.StatusPending}).
		Return([]*task.Task{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/tasks?project=Alpha&status=pending", nil)
	rec := httptest.NewRecorder()

	newRouter(mockService).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	mockService.AssertExpectations(t)
}

// TestGetTriage тестирует эндпоинт корзин
func TestGetTriage(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		mockService := new(MockService)
		buckets := &triage.Buckets{
			Overdue:     []*task.Task{},
			DueToday:    []*task.Task{},
			Upcoming:    []*task.Task{},
			Scheduled:   []*task.Task{},
			Completed:   []*task.Task{},
			Unscheduled: []*task.Task{},
		}
		mockService.On("Triage", mock.Anything, mock.Anything).Return(buckets, nil)

		req := httptest.NewRequest(http.MethodGet, "/tasks/triage?scheduled_sort=desc&completed_on=2026-03-10", nil)
		rec := httptest.NewRecorder()

		newRouter(mockService).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var response map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		for _, bucket := range []string{"overdue", "due_today", "upcoming", "scheduled", "completed", "unscheduled"} {
			assert.Contains(t, response, bucket)
		}
	})

	t.Run("bad sort param", func(t *testing.T) {
		mockService := new(MockService)
		req := httptest.NewRequest(http.MethodGet, "/tasks/triage?scheduled_sort=sideways", nil)
		rec := httptest.NewRecorder()

		newRouter(mockService).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "Triage")
	})

	t.Run("bad completed_on", func(t *testing.T) {
		mockService := new(MockService)
		req := httptest.NewRequest(http.MethodGet, "/tasks/triage?completed_on=10.03.2026", nil)
		rec := httptest.NewRecorder()

		newRouter(mockService).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "Triage")
	})
}

// TestProjects тестирует проектные эндпоинты
func TestProjects(t *testing.T) {
	t.Run("create", func(t *testing.T) {
		mockService := new(MockService)
		created := &project.Project{UUID: uuid.New(), Name: "Gamma"}
		mockService.On("CreateProject", mock.Anything, "Gamma").Return(created, nil)

		req := httptest.NewRequest(http.MethodPost, "/projects", strings.NewReader(`{"name":"Gamma"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		newRouter(mockService).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("duplicate name maps to 409", func(t *testing.T) {
		mockService := new(MockService)
		mockService.On("CreateProject", mock.Anything, "Gamma").
			Return(nil, service.NewNameConflict("Gamma"))

		req := httptest.NewRequest(http.MethodPost, "/projects", strings.NewReader(`{"name":"Gamma"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		newRouter(mockService).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
		var response map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Equal(t, "NAME_CONFLICT", response["error"])
		assert.Contains(t, response["message"], "Gamma")
	})

	t.Run("list with counts", func(t *testing.T) {
		mockService := new(MockService)
		alpha := &project.Project{UUID: uuid.New(), Name: "Alpha", TaskCount: 2}
		mockService.On("ListProjects", mock.Anything).Return([]*project.Project{alpha}, nil)

		req := httptest.NewRequest(http.MethodGet, "/projects", nil)
		rec := httptest.NewRecorder()

		newRouter(mockService).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var response []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		require.Len(t, response, 1)
		assert.Equal(t, float64(2), response[0]["task_count"])
	})

	t.Run("rename", func(t *testing.T) {
		mockService := new(MockService)
		id := uuid.New()
		renamed := &project.Project{UUID: id, Name: "Beta"}
		mockService.On("RenameProject", mock.Anything, id, "Beta").Return(renamed, nil)

		req := httptest.NewRequest(http.MethodPut, "/projects/"+id.String(), strings.NewReader(`{"name":"Beta"}`))
		rec := httptest.NewRecorder()

		newRouter(mockService).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		mockService := new(MockService)
		id := uuid.New()
		mockService.On("DeleteProject", mock.Anything, id).Return(nil)

		req := httptest.NewRequest(http.MethodDelete, "/projects/"+id.String(), nil)
		rec := httptest.NewRecorder()

		newRouter(mockService).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

// TestStorageErrorOpaque тестирует, что ошибка хранилища не утекает клиенту
func TestStorageErrorOpaque(t *testing.T) {
	mockService := new(MockService)
	mockService.On("ListTasks", mock.Anything, mock.Anything).
		Return(nil, errors.New("pq: connection refused at 10.0.0.5"))

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	rec := httptest.NewRecorder()

	newRouter(mockService).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
}

// TestHealthCheck тестирует health эндпоинт
func TestHealthCheck(t *testing.T) {
	mockService := new(MockService)
	mockService.On("HealthCheck", mock.Anything).Return(nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	newRouter(mockService).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

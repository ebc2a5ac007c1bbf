package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"taskTriage/internal/logger"
	"taskTriage/internal/handlers/dto"
	"taskTriage/internal/models/task"
	"taskTriage/internal/repository"
	"taskTriage/internal/triage"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TriageHandler struct {
	service Service
}

func NewTriageHandler(service Service) TriageHandler {
	return TriageHandler{
		service: service,
	}
}

func parseIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idParam := chi.URLParam(r, "id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		logger.Warn("HTTP: Не удалось получить id",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "не удалось получить id:"+err.Error())
		return uuid.Nil, false
	}

	if id == uuid.Nil {
		logger.Warn("HTTP: Неверное значение id",
			zap.String("error", "nil id"),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "id не может быть пустым")
		return uuid.Nil, false
	}

	return id, true
}

func (h *TriageHandler) PostTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: Неверный тип контента",
			zap.String("expected", "application/json"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверное тело запроса:"+err.Error())
		return
	}

	logger.Info("HTTP: Вызов сервиса создания задач")
	created, err := h.service.CreateTask(r.Context(), request.Title, request.Project, request.Notes, request.DueDate, task.Source(request.Source))
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		respondStorageError(w, "create_task", err)
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.String("task_id", created.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithBody(w, http.StatusCreated, dto.FromTask(created))
}

func (h *TriageHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	filter := repository.TaskFilter{
		Project: r.URL.Query().Get("project"),
		Status:  task.Status(r.URL.Query().Get("status")),
	}

	logger.Info("HTTP: Вызов сервиса для получения задач")

	tasks, err := h.service.ListTasks(r.Context(), filter)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		respondStorageError(w, "list_tasks", err)
		return
	}

	logger.Info("HTTP_OUT: Задачи получены",
		zap.Int("count", len(tasks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, dto.FromTaskList(tasks))
}

func (h *TriageHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	logger.Info("HTTP: Вызов сервиса для получения задачи")

	t, err := h.service.GetTaskByID(r.Context(), id)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		respondStorageError(w, "get_task", err)
		return
	}

	logger.Info("HTTP_OUT: Задача получена",
		zap.String("task_id", t.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, dto.FromTask(t))
}

func (h *TriageHandler) UpdateTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var request dto.UpdateTaskRequest

	decoder := json.NewDecoder(r.Body)
	defer r.Body.Close()

	if err := decoder.Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверно переданы параметры обновления:"+err.Error())
		return
	}

	// опции собираются только из присланных полей
	options := []task.TaskOption{}
	if request.Title != nil {
		options = append(options, task.WithTitle(*request.Title))
	}
	if request.Notes != nil {
		options = append(options, task.WithNotes(*request.Notes))
	}
	if request.Project != nil {
		options = append(options, task.WithProject(*request.Project))
	}
	if request.Status != nil {
		options = append(options, task.WithStatus(*request.Status))
	}
	if request.DueDate != nil {
		options = append(options, task.WithDueDate(*request.DueDate))
	}
	if request.SnoozedUntil != nil {
		options = append(options, task.WithSnoozedUntil(*request.SnoozedUntil))
	}

	logger.Info("HTTP: запрос к сервису обновления данных")

	updated, err := h.service.UpdateTask(r.Context(), id, options...)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		respondStorageError(w, "update_task", err)
		return
	}

	logger.Info("HTTP_OUT: Задача обновлена",
		zap.String("task_id", updated.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, dto.FromTask(updated))
}

func (h *TriageHandler) DeleteTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	logger.Info("HTTP: Обращение к сервису для удаления задачи")

	if err := h.service.DeleteTask(r.Context(), id); err != nil {
		if handleBusinessError(w, err) {
			return
		}
		respondStorageError(w, "delete_task", err)
		return
	}

	logger.Info("HTTP_OUT: Задача удалена",
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusNoContent))

	w.WriteHeader(http.StatusNoContent)
}

// GetTriage отдаёт шесть корзин, раскладка считается на каждый запрос
func (h *TriageHandler) GetTriage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	options := []triage.Option{}

	switch sortParam := r.URL.Query().Get("scheduled_sort"); sortParam {
	case "", "asc":
	case "desc":
		options = append(options, triage.WithScheduledSort(true))
	default:
		logger.Warn("HTTP: Неверное значение параметра",
			zap.String("query", "scheduled_sort"),
			zap.String("received", sortParam),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "scheduled_sort принимает asc или desc")
		return
	}

	if day := r.URL.Query().Get("completed_on"); day != "" {
		if _, err := time.Parse(task.DateLayout, day); err != nil {
			logger.Warn("HTTP: Неверное значение параметра",
				zap.String("query", "completed_on"),
				zap.String("received", day),
				zap.String("client_ip", r.RemoteAddr))

			responseWithError(w, http.StatusBadRequest, "completed_on ожидает дату формата "+task.DateLayout)
			return
		}
		options = append(options, triage.WithCompletedOn(day))
	}

	logger.Info("HTTP: Вызов сервиса классификации задач")

	buckets, err := h.service.Triage(r.Context(), options...)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		respondStorageError(w, "triage", err)
		return
	}

	logger.Info("HTTP_OUT: Задачи классифицированы",
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, buckets)
}

func (h *TriageHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	if err := h.service.HealthCheck(r.Context()); err != nil {
		responseWithJSON(w, http.StatusServiceUnavailable, toPayload("status", "unavailable"))
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("status", "ok"))
}

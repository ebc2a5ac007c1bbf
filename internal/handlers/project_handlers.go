package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"taskTriage/internal/handlers/dto"
	"taskTriage/internal/logger"

	"go.uber.org/zap"
)

func (h *TriageHandler) PostProject(w http.ResponseWriter, r *http.Request) {
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

	var request dto.CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверное тело запроса:"+err.Error())
		return
	}

	logger.Info("HTTP: Вызов сервиса создания проекта")

	created, err := h.service.CreateProject(r.Context(), request.Name)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		respondStorageError(w, "create_project", err)
		return
	}

	logger.Info("HTTP_OUT: Проект создан",
		zap.String("project_id", created.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithBody(w, http.StatusCreated, dto.FromProject(created))
}

func (h *TriageHandler) GetProjects(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	logger.Info("HTTP: Вызов сервиса для получения проектов")

	projects, err := h.service.ListProjects(r.Context())
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		respondStorageError(w, "list_projects", err)
		return
	}

	logger.Info("HTTP_OUT: Проекты получены",
		zap.Int("count", len(projects)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, dto.FromProjectList(projects))
}

func (h *TriageHandler) RenameProjectByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var request dto.RenameProjectRequest

	decoder := json.NewDecoder(r.Body)
	defer r.Body.Close()

	if err := decoder.Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверно переданы параметры обновления:"+err.Error())
		return
	}

	logger.Info("HTTP: Вызов сервиса переименования проекта")

	renamed, err := h.service.RenameProject(r.Context(), id, request.Name)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		respondStorageError(w, "rename_project", err)
		return
	}

	logger.Info("HTTP_OUT: Проект переименован",
		zap.String("project_id", renamed.UUID.String()),
		zap.String("name", renamed.Name),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, dto.FromProject(renamed))
}

func (h *TriageHandler) DeleteProjectByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	logger.Info("HTTP: Обращение к сервису для удаления проекта")

	if err := h.service.DeleteProject(r.Context(), id); err != nil {
		if handleBusinessError(w, err) {
			return
		}
		respondStorageError(w, "delete_project", err)
		return
	}

	logger.Info("HTTP_OUT: Проект удалён",
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusNoContent))

	w.WriteHeader(http.StatusNoContent)
}

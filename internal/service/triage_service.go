package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskTriage/internal/clock"
	"taskTriage/internal/logger"
	"taskTriage/internal/models/project"
	"taskTriage/internal/models/task"
	rep "taskTriage/internal/repository"
	"taskTriage/internal/repository/inter"
	"taskTriage/internal/triage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// здесь происходит проверка ошибок бизнес-логики

type TriageService struct {
	repo     inter.Storage
	clock    clock.Clock
	sentinel string
}

func NewTriageService(repo inter.Storage, clk clock.Clock, sentinel string) TriageService {
	if sentinel == "" {
		sentinel = project.SentinelName
	}
	return TriageService{
		repo:     repo,
		clock:    clk,
		sentinel: sentinel,
	}
}

func (s *TriageService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	}
	return nil
}

func validDate(value string) bool {
	_, err := time.Parse(task.DateLayout, value)
	return err == nil
}

func (s *TriageService) CreateTask(ctx context.Context, title, projectName, notes, dueDate string, source task.Source) (*task.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, NewValidationError("title", "пустое значение")
	}

	projectName = strings.TrimSpace(projectName)
	if projectName == "" {
		return nil, NewValidationError("project", "пустое значение")
	}

	var due *string
	if dueDate != "" {
		if !validDate(dueDate) {
			return nil, NewValidationError("due_date", "ожидается дата формата "+task.DateLayout)
		}
		due = &dueDate
	}

	if source == "" {
		source = task.SourceManual
	}
	if !task.ValidSource(source) {
		return nil, NewValidationError("source", "допустимы manual и assistant")
	}

	// каждое создание задачи гарантирует существование её проекта
	if _, err := s.EnsureProject(ctx, projectName); err != nil {
		return nil, err
	}

	t := &task.Task{
		UUID:      uuid.New(),
		Title:     title,
		Notes:     notes,
		Project:   projectName,
		Status:    task.StatusPending,
		DueDate:   due,
		Source:    source,
		CreatedAt: time.Now(),
	}

	if err := s.repo.CreateTask(ctx, t); err != nil {
		return nil, fmt.Errorf("создание задачи: %w", err)
	}
	return t, nil
}

func (s *TriageService) GetTaskByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	t, err := s.repo.GetTaskByID(ctx, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_id", id.String()))
			return nil, NewNotFound("задача", id.String())
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return triage.Resolve(t, s.clock.Today()), nil
}

func (s *TriageService) UpdateTask(ctx context.Context, id uuid.UUID, options ...task.TaskOption) (*task.Task, error) {
	t, err := s.repo.GetTaskByID(ctx, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_id", id.String()))
			return nil, NewNotFound("задача", id.String())
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	previousProject := t.Project

	// все опции применяются к одной копии, запись ниже одна -
	// частичного применения не бывает
	for _, opt := range options {
		opt(t)
	}

	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return nil, NewValidationError("title", "пустое значение")
	}
	if !task.ValidStatus(t.Status) {
		return nil, NewValidationError("status", "допустимы pending, in_progress, done, snoozed")
	}
	if t.DueDate != nil && !validDate(*t.DueDate) {
		return nil, NewValidationError("due_date", "ожидается дата формата "+task.DateLayout)
	}
	if t.SnoozedUntil != nil && !validDate(*t.SnoozedUntil) {
		return nil, NewValidationError("snoozed_until", "ожидается дата формата "+task.DateLayout)
	}

	t.Project = strings.TrimSpace(t.Project)
	if t.Project == "" {
		return nil, NewValidationError("project", "пустое значение")
	}
	if t.Project != previousProject {
		if _, err := s.EnsureProject(ctx, t.Project); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateTask(ctx, t); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound("задача", id.String())
		}
		return nil, fmt.Errorf("обновление задачи: %w", err)
	}
	return t, nil
}

func (s *TriageService) DeleteTask(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteTask(ctx, id); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_id", id.String()))
			return NewNotFound("задача", id.String())
		}
		return fmt.Errorf("удаление задачи: %w", err)
	}
	return nil
}

// ListTasks отдаёт срез задач, каждая пропущена через снуз-проекцию
func (s *TriageService) ListTasks(ctx context.Context, filter rep.TaskFilter) ([]*task.Task, error) {
	if filter.Status != "" && !task.ValidStatus(filter.Status) {
		return nil, NewValidationError("status", "допустимы pending, in_progress, done, snoozed")
	}

	tasks, err := s.repo.ListTasks(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	today := s.clock.Today()
	resolved := make([]*task.Task, len(tasks))
	for i, t := range tasks {
		resolved[i] = triage.Resolve(t, today)
	}
	return resolved, nil
}

// Triage - чтение шести корзин; раскладка пересчитывается
// на каждом вызове, нигде не хранится
func (s *TriageService) Triage(ctx context.Context, options ...triage.Option) (*triage.Buckets, error) {
	resolved, err := s.ListTasks(ctx, rep.TaskFilter{})
	if err != nil {
		return nil, err
	}

	buckets, err := triage.Classify(resolved, s.clock.Today(), options...)
	if err != nil {
		return nil, fmt.Errorf("классификация задач: %w", err)
	}
	return buckets, nil
}

func (s *TriageService) CreateProject(ctx context.Context, name string) (*project.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewValidationError("name", "пустое значение")
	}

	p := &project.Project{
		UUID:      uuid.New(),
		Name:      name,
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateProject(ctx, p); err != nil {
		if errors.Is(err, rep.ErrNameConflict) {
			logger.Info("Service: Конфликт имени проекта", zap.String("name", name))
			return nil, NewNameConflict(name)
		}
		return nil, fmt.Errorf("создание проекта: %w", err)
	}
	return p, nil
}

// EnsureProject - идемпотентный upsert: существующий проект
// возвращается как есть, ничего не перезаписывается
func (s *TriageService) EnsureProject(ctx context.Context, name string) (*project.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewValidationError("name", "пустое значение")
	}

	existing, err := s.repo.GetProjectByName(ctx, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, rep.ErrNotFound) {
		return nil, fmt.Errorf("получение проекта: %w", err)
	}

	p := &project.Project{
		UUID:      uuid.New(),
		Name:      name,
		CreatedAt: time.Now(),
	}
	err = s.repo.CreateProject(ctx, p)
	if err == nil {
		logger.Info("Service: Проект создан по требованию", zap.String("name", name))
		return p, nil
	}
	if errors.Is(err, rep.ErrNameConflict) {
		// гонка с параллельным созданием - проект уже есть
		return s.repo.GetProjectByName(ctx, name)
	}
	return nil, fmt.Errorf("создание проекта: %w", err)
}

func (s *TriageService) ListProjects(ctx context.Context) ([]*project.Project, error) {
	projects, err := s.repo.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение проектов: %w", err)
	}

	counts, err := s.repo.CountTasksByProject(ctx)
	if err != nil {
		return nil, fmt.Errorf("подсчёт задач: %w", err)
	}

	for _, p := range projects {
		p.TaskCount = counts[p.Name]
	}
	return projects, nil
}

func (s *TriageService) RenameProject(ctx context.Context, id uuid.UUID, newName string) (*project.Project, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, NewValidationError("name", "пустое значение")
	}

	p, err := s.repo.RenameProject(ctx, id, newName)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Проект не найден", zap.String("target_id", id.String()))
			return nil, NewNotFound("проект", id.String())
		}
		if errors.Is(err, rep.ErrNameConflict) {
			logger.Info("Service: Конфликт имени проекта", zap.String("name", newName))
			return nil, NewNameConflict(newName)
		}
		return nil, fmt.Errorf("переименование проекта: %w", err)
	}
	return p, nil
}

func (s *TriageService) DeleteProject(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteProject(ctx, id, s.sentinel); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Проект не найден", zap.String("target_id", id.String()))
			return NewNotFound("проект", id.String())
		}
		return fmt.Errorf("удаление проекта: %w", err)
	}
	return nil
}

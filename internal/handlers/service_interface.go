package handlers

import (
	"context"

	"taskTriage/internal/models/project"
	"taskTriage/internal/models/task"
	"taskTriage/internal/repository"
	"taskTriage/internal/triage"

	"github.com/google/uuid"
)

type Service interface {
	HealthCheck(ctx context.Context) error

	CreateTask(ctx context.Context, title, projectName, notes, dueDate string, source task.Source) (*task.Task, error)
	GetTaskByID(ctx context.Context, id uuid.UUID) (*task.Task, error)
	UpdateTask(ctx context.Context, id uuid.UUID, options ...task.TaskOption) (*task.Task, error)
	DeleteTask(ctx context.Context, id uuid.UUID) error
	ListTasks(ctx context.Context, filter repository.TaskFilter) ([]*task.Task, error)
	Triage(ctx context.Context, options ...triage.Option) (*triage.Buckets, error)

	CreateProject(ctx context.Context, name string) (*project.Project, error)
	ListProjects(ctx context.Context) ([]*project.Project, error)
	RenameProject(ctx context.Context, id uuid.UUID, newName string) (*project.Project, error)
	DeleteProject(ctx context.Context, id uuid.UUID) error
}

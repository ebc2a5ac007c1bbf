package inter

import (
	"context"

	"taskTriage/internal/models/project"
	"taskTriage/internal/models/task"
	"taskTriage/internal/repository"

	"github.com/google/uuid"
)

// Storage - общий контракт хранилища задач и проектов. Проекты и задачи
// живут в одном хранилище, потому что переименование и удаление проекта
// каскадно трогают задачи и должны выполняться одной транзакцией.
type Storage interface {
	HealthCheck(ctx context.Context) error

	CreateTask(ctx context.Context, t *task.Task) error
	GetTaskByID(ctx context.Context, id uuid.UUID) (*task.Task, error)
	UpdateTask(ctx context.Context, t *task.Task) error
	DeleteTask(ctx context.Context, id uuid.UUID) error
	// ListTasks отдаёт свежий срез: датированные задачи по возрастанию
	// дедлайна, затем задачи без дедлайна в порядке создания
	ListTasks(ctx context.Context, filter repository.TaskFilter) ([]*task.Task, error)

	CreateProject(ctx context.Context, p *project.Project) error
	GetProjectByID(ctx context.Context, id uuid.UUID) (*project.Project, error)
	GetProjectByName(ctx context.Context, name string) (*project.Project, error)
	ListProjects(ctx context.Context) ([]*project.Project, error)
	CountTasksByProject(ctx context.Context) (map[string]int, error)

	// RenameProject атомарно меняет имя проекта и поле project у всех
	// задач со старым именем. Частичное применение недопустимо.
	RenameProject(ctx context.Context, id uuid.UUID, newName string) (*project.Project, error)
	// DeleteProject атомарно переводит задачи удаляемого проекта на
	// sentinel (создавая его при необходимости) и удаляет сам проект
	DeleteProject(ctx context.Context, id uuid.UUID, sentinel string) error
}

package dto

import (
	"time"

	"taskTriage/internal/models/project"
	"taskTriage/internal/models/task"

	"github.com/google/uuid"
)

type CreateTaskRequest struct {
	Title   string `json:"title"`
	Project string `json:"project"`
	Notes   string `json:"notes,omitempty"`
	DueDate string `json:"due_date,omitempty"`
	Source  string `json:"source,omitempty"`
}

// указатели различают "поле не прислано" и "поле сброшено":
// присланная пустая строка в due_date / snoozed_until снимает дату
type UpdateTaskRequest struct {
	Title        *string      `json:"title,omitempty"`
	Notes        *string      `json:"notes,omitempty"`
	Project      *string      `json:"project,omitempty"`
	Status       *task.Status `json:"status,omitempty"`
	DueDate      *string      `json:"due_date,omitempty"`
	SnoozedUntil *string      `json:"snoozed_until,omitempty"`
}

type CreateProjectRequest struct {
	Name string `json:"name"`
}

type RenameProjectRequest struct {
	Name string `json:"name"`
}

type TaskResponse struct {
	UUID         uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Notes        string     `json:"notes,omitempty"`
	Project      string     `json:"project"`
	Status       string     `json:"status"`
	DueDate      *string    `json:"due_date,omitempty"`
	SnoozedUntil *string    `json:"snoozed_until,omitempty"`
	Source       string     `json:"source"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

func FromTask(t *task.Task) TaskResponse {
	return TaskResponse{
		UUID:         t.UUID,
		Title:        t.Title,
		Notes:        t.Notes,
		Project:      t.Project,
		Status:       string(t.Status),
		DueDate:      t.DueDate,
		SnoozedUntil: t.SnoozedUntil,
		Source:       string(t.Source),
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func FromTaskList(tasks []*task.Task) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t)
	}
	return result
}

type ProjectResponse struct {
	UUID      uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	TaskCount int       `json:"task_count"`
	CreatedAt time.Time `json:"created_at"`
}

func FromProject(p *project.Project) ProjectResponse {
	return ProjectResponse{
		UUID:      p.UUID,
		Name:      p.Name,
		TaskCount: p.TaskCount,
		CreatedAt: p.CreatedAt,
	}
}

func FromProjectList(projects []*project.Project) []ProjectResponse {
	result := make([]ProjectResponse, len(projects))
	for i, p := range projects {
		result[i] = FromProject(p)
	}
	return result
}

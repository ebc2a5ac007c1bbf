package project

import (
	"time"

	"github.com/google/uuid"
)

// SentinelName - проект-приёмник задач удалённых проектов.
// Создаётся по требованию, задачи никогда не остаются без проекта.
const SentinelName = "Uncategorised"

type Project struct {
	UUID      uuid.UUID `json:"uuid" db:"uuid"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// TaskCount считается при чтении группировкой задач по имени, не хранится
	TaskCount int `json:"task_count" db:"-"`
}

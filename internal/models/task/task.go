package task

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout - формат календарной даты без компонента времени.
// Строки этого формата сравниваются лексикографически как даты.
const DateLayout = "2006-01-02"

type Task struct {
	UUID         uuid.UUID  `json:"uuid" db:"uuid"`
	Title        string     `json:"title" db:"title"`
	Notes        string     `json:"notes" db:"notes"`
	Project      string     `json:"project" db:"project"`
	Status       Status     `json:"status" db:"status"`
	DueDate      *string    `json:"due_date,omitempty" db:"due_date"`
	SnoozedUntil *string    `json:"snoozed_until,omitempty" db:"snoozed_until"`
	Source       Source     `json:"source" db:"source"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty" db:"updated_at,omitempty"`
}

type Status string
type Source string

const StatusPending Status = "pending"
const StatusInProgress Status = "in_progress"
const StatusDone Status = "done"
const StatusSnoozed Status = "snoozed"

const SourceManual Source = "manual"
const SourceAssistant Source = "assistant"

func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusDone, StatusSnoozed:
		return true
	}
	return false
}

func ValidSource(s Source) bool {
	return s == SourceManual || s == SourceAssistant
}

// Clone возвращает независимую копию задачи
func (t *Task) Clone() *Task {
	copied := *t
	if t.DueDate != nil {
		due := *t.DueDate
		copied.DueDate = &due
	}
	if t.SnoozedUntil != nil {
		until := *t.SnoozedUntil
		copied.SnoozedUntil = &until
	}
	if t.UpdatedAt != nil {
		updated := *t.UpdatedAt
		copied.UpdatedAt = &updated
	}
	return &copied
}

// LastTouched - момент последней записи; по нему сортируются
// и фильтруются выполненные задачи
func (t *Task) LastTouched() time.Time {
	if t.UpdatedAt != nil {
		return *t.UpdatedAt
	}
	return t.CreatedAt
}

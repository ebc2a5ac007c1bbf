package clock

import (
	"time"

	"taskTriage/internal/models/task"
)

// Clock отдаёт сегодняшнюю календарную дату. Внедряется зависимостью,
// чтобы классификация была детерминированной в тестах.
type Clock interface {
	Today() string
}

type System struct{}

func (System) Today() string {
	return time.Now().Format(task.DateLayout)
}

// Fixed - часы с зафиксированной датой для тестов
type Fixed struct {
	Day string
}

func (f Fixed) Today() string {
	return f.Day
}

package repository

import (
	"errors"

	"taskTriage/internal/models/task"
)

var ErrNotFound = errors.New("запись не найдена")
var ErrNameConflict = errors.New("имя проекта уже занято")

// TaskFilter - необязательные условия выборки задач
type TaskFilter struct {
	Project string
	Status  task.Status
}

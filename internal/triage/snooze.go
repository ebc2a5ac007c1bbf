package triage

import (
	"taskTriage/internal/models/task"
)

// Resolve возвращает копию задачи с эффективным статусом:
// snoozed с истёкшей snoozed_until читается как pending.
// Истечение строгое - при snoozed_until == today задача ещё спит.
// Проекция только на чтение, в хранилище ничего не пишется;
// разбудить задачу насовсем может только явное обновление статуса.
func Resolve(t *task.Task, today string) *task.Task {
	resolved := t.Clone()
	if resolved.Status != task.StatusSnoozed {
		return resolved
	}
	if resolved.SnoozedUntil == nil {
		return resolved
	}
	if *resolved.SnoozedUntil < today {
		resolved.Status = task.StatusPending
	}
	return resolved
}

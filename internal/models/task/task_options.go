package task

// TaskOption - функция частичного обновления задачи.
// Хендлер собирает опции только из присланных полей,
// сервис применяет их все к одной копии задачи - поэтому
// "переоткрытие" (статус + новый дедлайн) всегда атомарно.
type TaskOption func(*Task)

func WithTitle(title string) TaskOption {
	return func(t *Task) {
		t.Title = title
	}
}

func WithNotes(notes string) TaskOption {
	return func(t *Task) {
		t.Notes = notes
	}
}

func WithProject(project string) TaskOption {
	return func(t *Task) {
		t.Project = project
	}
}

func WithStatus(status Status) TaskOption {
	return func(t *Task) {
		t.Status = status
	}
}

// WithDueDate с пустой строкой снимает дедлайн (задача становится unscheduled)
func WithDueDate(dueDate string) TaskOption {
	return func(t *Task) {
		if dueDate == "" {
			t.DueDate = nil
			return
		}
		t.DueDate = &dueDate
	}
}

// WithSnoozedUntil с пустой строкой сбрасывает дату пробуждения
func WithSnoozedUntil(until string) TaskOption {
	return func(t *Task) {
		if until == "" {
			t.SnoozedUntil = nil
			return
		}
		t.SnoozedUntil = &until
	}
}

package triage

import (
	"fmt"
	"sort"
	"time"

	"taskTriage/internal/models/task"
)

// Горизонты исходной системы: upcoming заканчивается на today+6
// (включительно, 7-дневное окно вместе с сегодня), scheduled начинается
// с today+7. Две разные константы, но промежуток разбивается без дыр
// и пересечений - это проверяется тестами на границах.
const UpcomingHorizonDays = 6
const ScheduledHorizonDays = 7

// Buckets - взаимоисключающее и полное разбиение задач по времени
type Buckets struct {
	Overdue     []*task.Task `json:"overdue"`
	DueToday    []*task.Task `json:"due_today"`
	Upcoming    []*task.Task `json:"upcoming"`
	Scheduled   []*task.Task `json:"scheduled"`
	Completed   []*task.Task `json:"completed"`
	Unscheduled []*task.Task `json:"unscheduled"`
}

type settings struct {
	scheduledDesc bool
	completedOn   string
}

type Option func(*settings)

// WithScheduledSort задаёт порядок корзины scheduled:
// по возрастанию дедлайна (по умолчанию) или по убыванию
func WithScheduledSort(desc bool) Option {
	return func(s *settings) {
		s.scheduledDesc = desc
	}
}

// WithCompletedOn оставляет в completed только задачи,
// закрытые в указанный календарный день
func WithCompletedOn(day string) Option {
	return func(s *settings) {
		s.completedOn = day
	}
}

// Classify разбивает задачи на шесть корзин относительно today.
// Задачи должны быть уже пропущены через Resolve. Статус done
// перекрывает любую логику дат. Порядок overdue/due_today/upcoming
// наследуется от хранилища (оно отдаёт датированные задачи по
// возрастанию дедлайна), completed сортируется по убыванию момента
// последней записи.
func Classify(tasks []*task.Task, today string, options ...Option) (*Buckets, error) {
	cfg := settings{}
	for _, opt := range options {
		opt(&cfg)
	}

	parsedToday, err := time.Parse(task.DateLayout, today)
	if err != nil {
		return nil, fmt.Errorf("разбор даты %q: %w", today, err)
	}
	horizonEnd := parsedToday.AddDate(0, 0, UpcomingHorizonDays).Format(task.DateLayout)

	buckets := &Buckets{
		Overdue:     []*task.Task{},
		DueToday:    []*task.Task{},
		Upcoming:    []*task.Task{},
		Scheduled:   []*task.Task{},
		Completed:   []*task.Task{},
		Unscheduled: []*task.Task{},
	}

	for _, t := range tasks {
		switch {
		case t.Status == task.StatusDone:
			buckets.Completed = append(buckets.Completed, t)
		case t.DueDate == nil:
			buckets.Unscheduled = append(buckets.Unscheduled, t)
		case *t.DueDate < today:
			buckets.Overdue = append(buckets.Overdue, t)
		case *t.DueDate == today:
			buckets.DueToday = append(buckets.DueToday, t)
		case *t.DueDate <= horizonEnd:
			buckets.Upcoming = append(buckets.Upcoming, t)
		default:
			buckets.Scheduled = append(buckets.Scheduled, t)
		}
	}

	sort.SliceStable(buckets.Scheduled, func(i, j int) bool {
		if cfg.scheduledDesc {
			return *buckets.Scheduled[i].DueDate > *buckets.Scheduled[j].DueDate
		}
		return *buckets.Scheduled[i].DueDate < *buckets.Scheduled[j].DueDate
	})

	sort.SliceStable(buckets.Completed, func(i, j int) bool {
		return buckets.Completed[i].LastTouched().After(buckets.Completed[j].LastTouched())
	})

	if cfg.completedOn != "" {
		filtered := []*task.Task{}
		for _, t := range buckets.Completed {
			if t.LastTouched().Format(task.DateLayout) == cfg.completedOn {
				filtered = append(filtered, t)
			}
		}
		buckets.Completed = filtered
	}

	return buckets, nil
}

package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"taskTriage/internal/logger"
	"taskTriage/internal/models/project"
	"taskTriage/internal/models/task"
	repo "taskTriage/internal/repository"

	"github.com/google/uuid"
)

// Storage - хранилище в памяти. Каскады rename/delete выполняются
// под одним Lock, так что атомарность получается бесплатно.
// Наружу всегда отдаются копии, чтобы откат неудачной записи
// не оставлял следов в хранимом состоянии.
type Storage struct {
	tasks    map[uuid.UUID]*task.Task
	projects map[uuid.UUID]*project.Project
	byName   map[string]uuid.UUID
	taskIDs  []uuid.UUID
	mtx      *sync.RWMutex
}

func NewStorage() *Storage {
	return &Storage{
		tasks:    make(map[uuid.UUID]*task.Task),
		projects: make(map[uuid.UUID]*project.Project),
		byName:   make(map[string]uuid.UUID),
		taskIDs:  []uuid.UUID{},
		mtx:      &sync.RWMutex{},
	}
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	logger.Info("Repository: Соединение стабильно")
	return nil
}

func (s *Storage) CreateTask(ctx context.Context, t *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	t.CreatedAt = time.Now()

	s.tasks[t.UUID] = t.Clone()
	s.taskIDs = append(s.taskIDs, t.UUID)
	return nil
}

func (s *Storage) GetTaskByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return t.Clone(), nil
}

func (s *Storage) UpdateTask(ctx context.Context, t *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.tasks[t.UUID]; !ok {
		return repo.ErrNotFound
	}

	now := time.Now()
	t.UpdatedAt = &now
	s.tasks[t.UUID] = t.Clone()
	return nil
}

func (s *Storage) DeleteTask(ctx context.Context, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return repo.ErrNotFound
	}

	delete(s.tasks, id)
	for ind, val := range s.taskIDs {
		if val == id {
			s.taskIDs = append(s.taskIDs[:ind], s.taskIDs[ind+1:]...)
			break
		}
	}
	return nil
}

// датированные задачи по возрастанию дедлайна, затем без дедлайна
func (s *Storage) ListTasks(ctx context.Context, filter repo.TaskFilter) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	for _, id := range s.taskIDs {
		t := s.tasks[id]
		if filter.Project != "" && t.Project != filter.Project {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		res = append(res, t.Clone())
	}

	sort.SliceStable(res, func(i, j int) bool {
		left, right := res[i].DueDate, res[j].DueDate
		if left == nil {
			return false
		}
		if right == nil {
			return true
		}
		return *left < *right
	})

	return res, nil
}

func (s *Storage) CreateProject(ctx context.Context, p *project.Project) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, taken := s.byName[p.Name]; taken {
		return repo.ErrNameConflict
	}

	p.CreatedAt = time.Now()

	stored := *p
	s.projects[p.UUID] = &stored
	s.byName[p.Name] = p.UUID
	return nil
}

func (s *Storage) GetProjectByID(ctx context.Context, id uuid.UUID) (*project.Project, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (s *Storage) GetProjectByName(ctx context.Context, name string) (*project.Project, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	id, ok := s.byName[name]
	if !ok {
		return nil, repo.ErrNotFound
	}
	copied := *s.projects[id]
	return &copied, nil
}

func (s *Storage) ListProjects(ctx context.Context) ([]*project.Project, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*project.Project{}
	for _, p := range s.projects {
		copied := *p
		res = append(res, &copied)
	}

	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Name < res[j].Name
	})
	return res, nil
}

func (s *Storage) CountTasksByProject(ctx context.Context) (map[string]int, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	counts := make(map[string]int)
	for _, t := range s.tasks {
		counts[t.Project]++
	}
	return counts, nil
}

// переименование проекта и перенос задач со старого имени - под одним Lock
func (s *Storage) RenameProject(ctx context.Context, id uuid.UUID, newName string) (*project.Project, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, repo.ErrNotFound
	}

	if takenBy, taken := s.byName[newName]; taken && takenBy != id {
		return nil, repo.ErrNameConflict
	}

	// старое имя читается до мутации - дальше оно будет перезаписано
	oldName := p.Name

	delete(s.byName, oldName)
	p.Name = newName
	s.byName[newName] = id

	for _, t := range s.tasks {
		if t.Project == oldName {
			t.Project = newName
		}
	}

	copied := *p
	return &copied, nil
}

func (s *Storage) DeleteProject(ctx context.Context, id uuid.UUID, sentinel string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return repo.ErrNotFound
	}

	oldName := p.Name

	delete(s.projects, id)
	delete(s.byName, oldName)

	orphaned := 0
	for _, t := range s.tasks {
		if t.Project == oldName {
			orphaned++
		}
	}
	if orphaned == 0 {
		return nil
	}

	// sentinel создаётся до перепривязки; при удалении самого sentinel
	// здесь появляется его свежая строка и задачи остаются консистентны
	if _, exists := s.byName[sentinel]; !exists {
		fallback := &project.Project{
			UUID:      uuid.New(),
			Name:      sentinel,
			CreatedAt: time.Now(),
		}
		s.projects[fallback.UUID] = fallback
		s.byName[sentinel] = fallback.UUID
	}

	for _, t := range s.tasks {
		if t.Project == oldName {
			t.Project = sentinel
		}
	}

	return nil
}

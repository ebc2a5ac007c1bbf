package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"taskTriage/internal/logger"
	"taskTriage/internal/models/project"
	"taskTriage/internal/models/task"
	repo "taskTriage/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

type Storage struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, connString string) (*Storage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnIdleTime = time.Minute * 5

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return &Storage{pool: pool}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	err := s.pool.Ping(ctx)
	if err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	logger.Info("Repository: Соединение стабильно")
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (s *Storage) CreateTask(ctx context.Context, t *task.Task) error {
	start := time.Now()

	query := `INSERT INTO tasks
				(uuid, title, notes, project, status, due_date, snoozed_until, source, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				RETURNING created_at`

	err := s.pool.QueryRow(ctx, query,
		t.UUID,
		t.Title,
		t.Notes,
		t.Project,
		t.Status,
		t.DueDate,
		t.SnoozedUntil,
		t.Source,
		time.Now(),
	).Scan(&t.CreatedAt)

	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*50 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) GetTaskByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	start := time.Now()

	query := `SELECT
				uuid,
				title,
				notes,
				project,
				status,
				due_date,
				snoozed_until,
				source,
				created_at,
				updated_at
				FROM tasks
				WHERE uuid = $1`

	t := &task.Task{}
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&t.UUID,
		&t.Title,
		&t.Notes,
		&t.Project,
		&t.Status,
		&t.DueDate,
		&t.SnoozedUntil,
		&t.Source,
		&t.CreatedAt,
		&t.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}

	return t, nil
}

func (s *Storage) UpdateTask(ctx context.Context, t *task.Task) error {
	start := time.Now()

	query := `UPDATE tasks
			SET title = $1,
				notes = $2,
				project = $3,
				status = $4,
				due_date = $5,
				snoozed_until = $6,
				updated_at = NOW()
			WHERE uuid = $7
			RETURNING updated_at`

	err := s.pool.QueryRow(ctx, query,
		t.Title,
		t.Notes,
		t.Project,
		t.Status,
		t.DueDate,
		t.SnoozedUntil,
		t.UUID,
	).Scan(&t.UpdatedAt)

	if err != nil {
		if err == pgx.ErrNoRows {
			return repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось обновить задачу", err)
		return fmt.Errorf("обновление задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) DeleteTask(ctx context.Context, id uuid.UUID) error {
	start := time.Now()

	query := `DELETE FROM tasks
				WHERE uuid = $1`

	tag, err := s.pool.Exec(ctx, query, id)

	if err != nil {
		logger.Error("Repository: Удаление задачи", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление задачи: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}

	return nil
}

// датированные задачи по возрастанию дедлайна, затем без дедлайна
func (s *Storage) ListTasks(ctx context.Context, filter repo.TaskFilter) ([]*task.Task, error) {
	start := time.Now()

	query := `SELECT
				uuid,
				title,
				notes,
				project,
				status,
				due_date,
				snoozed_until,
				source,
				created_at,
				updated_at
				FROM tasks
				WHERE ($1 = '' OR project = $1)
				AND ($2 = '' OR status = $2)
				ORDER BY due_date ASC NULLS LAST, created_at ASC`

	rows, err := s.pool.Query(ctx, query, filter.Project, string(filter.Status))
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	defer rows.Close()

	tasks := []*task.Task{}

	for rows.Next() {
		t := &task.Task{}

		err := rows.Scan(
			&t.UUID,
			&t.Title,
			&t.Notes,
			&t.Project,
			&t.Status,
			&t.DueDate,
			&t.SnoozedUntil,
			&t.Source,
			&t.CreatedAt,
			&t.UpdatedAt,
		)

		if err != nil {
			logger.Warn("Repository: Ошибка сканирования задачи", zap.Error(err))
		}

		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}

	return tasks, nil
}

func (s *Storage) CreateProject(ctx context.Context, p *project.Project) error {
	start := time.Now()

	query := `INSERT INTO projects
				(uuid, name, created_at)
				VALUES ($1, $2, $3)
				RETURNING created_at`

	err := s.pool.QueryRow(ctx, query, p.UUID, p.Name, time.Now()).Scan(&p.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			logger.Warn("Repository: Конфликт имени проекта", zap.String("name", p.Name))
			return repo.ErrNameConflict
		}
		logger.Error("Repository: Не удалось добавить проект", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление проекта: %w", err)
	}

	if time.Since(start) > time.Millisecond*50 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) GetProjectByID(ctx context.Context, id uuid.UUID) (*project.Project, error) {
	query := `SELECT uuid, name, created_at FROM projects WHERE uuid = $1`

	p := &project.Project{}
	err := s.pool.QueryRow(ctx, query, id).Scan(&p.UUID, &p.Name, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить проект", err)
		return nil, fmt.Errorf("получение проекта: %w", err)
	}
	return p, nil
}

func (s *Storage) GetProjectByName(ctx context.Context, name string) (*project.Project, error) {
	query := `SELECT uuid, name, created_at FROM projects WHERE name = $1`

	p := &project.Project{}
	err := s.pool.QueryRow(ctx, query, name).Scan(&p.UUID, &p.Name, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить проект", err)
		return nil, fmt.Errorf("получение проекта: %w", err)
	}
	return p, nil
}

func (s *Storage) ListProjects(ctx context.Context) ([]*project.Project, error) {
	start := time.Now()

	query := `SELECT uuid, name, created_at FROM projects ORDER BY name ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		logger.Error("Repository: Не удалось получить проекты", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение проектов: %w", err)
	}
	defer rows.Close()

	projects := []*project.Project{}
	for rows.Next() {
		p := &project.Project{}
		if err := rows.Scan(&p.UUID, &p.Name, &p.CreatedAt); err != nil {
			logger.Warn("Repository: Ошибка сканирования проекта", zap.Error(err))
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	return projects, nil
}

func (s *Storage) CountTasksByProject(ctx context.Context) (map[string]int, error) {
	query := `SELECT project, COUNT(*) FROM tasks GROUP BY project`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		logger.Error("Repository: Не удалось посчитать задачи", err)
		return nil, fmt.Errorf("подсчёт задач: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			logger.Warn("Repository: Ошибка сканирования счётчика", zap.Error(err))
			continue
		}
		counts[name] = count
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	return counts, nil
}

// RenameProject: имя проекта и поле project задач меняются одной
// serializable-транзакцией. Конкурентное создание задачи под старым
// именем либо целиком предшествует переименованию, либо целиком следует.
func (s *Storage) RenameProject(ctx context.Context, id uuid.UUID, newName string) (*project.Project, error) {
	start := time.Now()

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		logger.Error("Repository: Не удалось открыть транзакцию", err)
		return nil, fmt.Errorf("открытие транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	// старое имя читается до мутации, переименование его перезапишет
	var oldName string
	err = tx.QueryRow(ctx, `SELECT name FROM projects WHERE uuid = $1 FOR UPDATE`, id).Scan(&oldName)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить проект", err)
		return nil, fmt.Errorf("получение проекта: %w", err)
	}

	p := &project.Project{}
	err = tx.QueryRow(ctx,
		`UPDATE projects SET name = $1 WHERE uuid = $2 RETURNING uuid, name, created_at`,
		newName, id,
	).Scan(&p.UUID, &p.Name, &p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			logger.Warn("Repository: Конфликт имени проекта", zap.String("name", newName))
			return nil, repo.ErrNameConflict
		}
		logger.Error("Repository: Не удалось переименовать проект", err)
		return nil, fmt.Errorf("переименование проекта: %w", err)
	}

	tag, err := tx.Exec(ctx, `UPDATE tasks SET project = $1 WHERE project = $2`, newName, oldName)
	if err != nil {
		logger.Error("Repository: Не удалось перепривязать задачи", err)
		return nil, fmt.Errorf("перепривязка задач: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		logger.Error("Repository: Не удалось закоммитить переименование", err)
		return nil, fmt.Errorf("коммит переименования: %w", err)
	}

	logger.Info("Repository: Проект переименован",
		zap.String("old_name", oldName),
		zap.String("new_name", newName),
		zap.Int64("tasks_moved", tag.RowsAffected()),
		zap.Duration("ms", time.Since(start)))

	return p, nil
}

// DeleteProject: задачи удаляемого проекта переводятся на sentinel
// (строка создаётся при необходимости), затем проект удаляется - всё
// в одной транзакции, задача ни в какой момент не видна без проекта.
// Удаление самого sentinel не запрещено: его строка пересоздаётся
// и задачи остаются под тем же именем.
func (s *Storage) DeleteProject(ctx context.Context, id uuid.UUID, sentinel string) error {
	start := time.Now()

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		logger.Error("Repository: Не удалось открыть транзакцию", err)
		return fmt.Errorf("открытие транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var oldName string
	err = tx.QueryRow(ctx, `SELECT name FROM projects WHERE uuid = $1 FOR UPDATE`, id).Scan(&oldName)
	if err != nil {
		if err == pgx.ErrNoRows {
			return repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить проект", err)
		return fmt.Errorf("получение проекта: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM projects WHERE uuid = $1`, id); err != nil {
		logger.Error("Repository: Не удалось удалить проект", err)
		return fmt.Errorf("удаление проекта: %w", err)
	}

	var orphaned bool
	err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tasks WHERE project = $1)`, oldName).Scan(&orphaned)
	if err != nil {
		logger.Error("Repository: Не удалось проверить задачи проекта", err)
		return fmt.Errorf("проверка задач проекта: %w", err)
	}

	moved := int64(0)
	if orphaned {
		_, err = tx.Exec(ctx,
			`INSERT INTO projects (uuid, name, created_at) VALUES ($1, $2, NOW())
				ON CONFLICT (name) DO NOTHING`,
			uuid.New(), sentinel)
		if err != nil {
			logger.Error("Repository: Не удалось создать sentinel-проект", err)
			return fmt.Errorf("создание sentinel-проекта: %w", err)
		}

		tag, err := tx.Exec(ctx, `UPDATE tasks SET project = $1 WHERE project = $2`, sentinel, oldName)
		if err != nil {
			logger.Error("Repository: Не удалось перепривязать задачи", err)
			return fmt.Errorf("перепривязка задач: %w", err)
		}
		moved = tag.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		logger.Error("Repository: Не удалось закоммитить удаление", err)
		return fmt.Errorf("коммит удаления: %w", err)
	}

	logger.Info("Repository: Проект удалён",
		zap.String("name", oldName),
		zap.Int64("tasks_moved", moved),
		zap.Duration("ms", time.Since(start)))

	return nil
}

func (s *Storage) Migrate(ctx context.Context) error {
	logger.Info("Попытка миграций")

	initUp, err := os.ReadFile("internal/migrations/001_init.up.sql")
	if err != nil {
		logger.Error("failed to read 001_init.up.sql", err)
		return err
	}

	indexesUp, err := os.ReadFile("internal/migrations/002_indexes.up.sql")
	if err != nil {
		logger.Error("failed to read 002_indexes.up.sql", err)
		return err
	}

	_, err = s.pool.Exec(ctx, string(initUp))
	if err != nil {
		logger.Error("failed to apply 001_init", err)
		return err
	}

	_, err = s.pool.Exec(ctx, string(indexesUp))
	if err != nil {
		logger.Error("failed to apply 002_indexes", err)
		return err
	}

	logger.Info("Миграции применены")
	return nil
}

func (s *Storage) Down(ctx context.Context) error {
	logger.Info("Откат миграций")

	indexesDown, err := os.ReadFile("internal/migrations/002_indexes.down.sql")
	if err != nil {
		logger.Error("failed to read 002_indexes.down.sql", err)
		return err
	}

	initDown, err := os.ReadFile("internal/migrations/001_init.down.sql")
	if err != nil {
		logger.Error("failed to read 001_init.down.sql", err)
		return err
	}

	_, err = s.pool.Exec(ctx, string(indexesDown))
	if err != nil {
		logger.Error("failed to rollback 002_indexes", err)
		return err
	}

	_, err = s.pool.Exec(ctx, string(initDown))
	if err != nil {
		logger.Error("failed to rollback 001_init", err)
		return err
	}

	logger.Info("Миграции откатаны")
	return nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"taskSync/internal/config"
	"taskSync/internal/logger"
	"taskSync/internal/models/task"
	repo "taskSync/internal/repository"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const seededKey = "seeded"

type Storage struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, cfg config.DatabaseConfig) (*Storage, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnIdleTime = time.Minute * 5
	if cfg.MaxConnections > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConnections)
	}
	if cfg.MinConnections > 0 {
		poolConfig.MinConns = int32(cfg.MinConnections)
	}
	if cfg.IdleTimeout > 0 {
		poolConfig.MaxConnIdleTime = cfg.IdleTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
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
	return nil
}

func (s *Storage) HasData(ctx context.Context) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM tasks)
				OR EXISTS(SELECT 1 FROM sync_state WHERE key = $1)`

	var has bool
	if err := s.pool.QueryRow(ctx, query, seededKey).Scan(&has); err != nil {
		return false, fmt.Errorf("проверка наличия данных: %w", err)
	}
	return has, nil
}

func (s *Storage) GetAll(ctx context.Context) ([]*task.Task, error) {
	start := time.Now()

	query := `SELECT
				id,
				title,
				desc_text,
				date_created,
				is_completed
				FROM tasks`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t := &task.Task{}

		err := rows.Scan(
			&t.ID,
			&t.Title,
			&t.Description,
			&t.DateCreated,
			&t.IsCompleted,
		)
		if err != nil {
			return nil, fmt.Errorf("сканирование задачи: %w", err)
		}

		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	if time.Since(start) > time.Millisecond*50+time.Millisecond*time.Duration(len(tasks)) {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}

	return tasks, nil
}

func (s *Storage) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	query := `SELECT
				id,
				title,
				desc_text,
				date_created,
				is_completed
				FROM tasks
				WHERE id = $1`

	t := &task.Task{}
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.DateCreated,
		&t.IsCompleted,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err)
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return t, nil
}

// CreateBatch копирует задачи через COPY в одной транзакции вместе с отметкой синхронизации
func (s *Storage) CreateBatch(ctx context.Context, tasks []*task.Task) error {
	start := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	rows := make([][]any, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []any{t.ID, t.Title, t.Description, t.DateCreated, t.IsCompleted})
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"tasks"},
		[]string{"id", "title", "desc_text", "date_created", "is_completed"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return mapInsertError(err)
	}

	_, err = tx.Exec(ctx, `INSERT INTO sync_state (key, value) VALUES ($1, $2)
				ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		seededKey, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("отметка первой синхронизации: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		logger.Error("Repository: Не удалось зафиксировать пакет", err)
		return fmt.Errorf("фиксация транзакции: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)), zap.Int("count", len(tasks)))
	}
	return nil
}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()

	query := `INSERT INTO tasks
				(id, title, desc_text, date_created, is_completed)
				VALUES ($1, $2, $3, $4, $5)`

	_, err := s.pool.Exec(ctx, query,
		taskToCreate.ID,
		taskToCreate.Title,
		taskToCreate.Description,
		taskToCreate.DateCreated,
		taskToCreate.IsCompleted,
	)
	if err != nil {
		return mapInsertError(err)
	}

	if time.Since(start) > time.Millisecond*50 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	var created *time.Time
	if !taskToUpdate.DateCreated.IsZero() {
		created = &taskToUpdate.DateCreated
	}

	query := `UPDATE tasks
			SET title = $1,
				desc_text = $2,
				is_completed = $3,
				date_created = COALESCE($4, date_created)
			WHERE id = $5`

	tag, err := s.pool.Exec(ctx, query,
		taskToUpdate.Title,
		taskToUpdate.Description,
		taskToUpdate.IsCompleted,
		created,
		taskToUpdate.ID,
	)
	if err != nil {
		logger.Error("Repository: Не удалось обновить задачу", err)
		return fmt.Errorf("обновление задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) ToggleCompleted(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `UPDATE tasks SET is_completed = NOT is_completed WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("переключение выполнения: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		logger.Error("Repository: Удаление задачи", err)
		return fmt.Errorf("удаление задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) Clear(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE tasks, sync_state`)
	if err != nil {
		return fmt.Errorf("очистка хранилища: %w", err)
	}
	return nil
}

func mapInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return repo.ErrDuplicateID
	}
	logger.Error("Repository: Не удалось добавить задачу", err)
	return fmt.Errorf("добавление задачи: %w", err)
}

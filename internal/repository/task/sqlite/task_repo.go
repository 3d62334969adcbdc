package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"taskSync/internal/logger"
	"taskSync/internal/models/task"
	repo "taskSync/internal/repository"
	"time"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const schema = `
	CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		desc_text TEXT NOT NULL DEFAULT '',
		date_created DATETIME NOT NULL,
		is_completed BOOLEAN NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS sync_state (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
`

const seededKey = "seeded"

const slowQuery = 50 * time.Millisecond

// Storage - локальное хранилище задач в файле SQLite
type Storage struct {
	db   *sql.DB
	path string
}

func New(ctx context.Context, path string) (*Storage, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("домашний каталог: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		logger.Error("Repository: Не удалось создать каталог базы", err, zap.String("path", path))
		return nil, fmt.Errorf("создание каталога: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		logger.Error("Repository: Ошибка открытия SQLite", err)
		return nil, fmt.Errorf("открытие базы: %w", err)
	}
	// одна общая точка записи на процесс
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		logger.Error("Repository: Не удалось применить схему", err)
		return nil, fmt.Errorf("создание схемы: %w", err)
	}

	logger.Info("Repository: Успешное открытие SQLite", zap.String("path", path))
	return &Storage{db: db, path: path}, nil
}

func (s *Storage) Close() error {
	logger.Info("Repository: Закрытие SQLite", zap.String("path", s.path))
	return s.db.Close()
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) HasData(ctx context.Context) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM tasks)
				OR EXISTS(SELECT 1 FROM sync_state WHERE key = ?)`

	var has bool
	if err := s.db.QueryRowContext(ctx, query, seededKey).Scan(&has); err != nil {
		return false, fmt.Errorf("проверка наличия данных: %w", err)
	}
	return has, nil
}

func (s *Storage) GetAll(ctx context.Context) ([]*task.Task, error) {
	start := time.Now()

	query := `SELECT id, title, desc_text, date_created, is_completed
				FROM tasks
				ORDER BY rowid`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t := &task.Task{}
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.DateCreated, &t.IsCompleted); err != nil {
			return nil, fmt.Errorf("сканирование задачи: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	if time.Since(start) > slowQuery {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return tasks, nil
}

func (s *Storage) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	query := `SELECT id, title, desc_text, date_created, is_completed
				FROM tasks
				WHERE id = ?`

	t := &task.Task{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Title, &t.Description, &t.DateCreated, &t.IsCompleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return t, nil
}

// CreateBatch вставляет все задачи одной транзакцией и помечает хранилище заполненным
func (s *Storage) CreateBatch(ctx context.Context, tasks []*task.Task) error {
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO tasks
				(id, title, desc_text, date_created, is_completed)
				VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("подготовка вставки: %w", err)
	}
	defer stmt.Close()

	for _, t := range tasks {
		if _, err := stmt.ExecContext(ctx, t.ID, t.Title, t.Description, t.DateCreated, t.IsCompleted); err != nil {
			return mapInsertError(err)
		}
	}

	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO sync_state (key, value) VALUES (?, ?)`,
		seededKey, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("отметка первой синхронизации: %w", err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("Repository: Не удалось зафиксировать пакет", err)
		return fmt.Errorf("фиксация транзакции: %w", err)
	}

	if time.Since(start) > slowQuery+time.Millisecond*time.Duration(len(tasks)) {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)), zap.Int("count", len(tasks)))
	}
	return nil
}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	query := `INSERT INTO tasks
				(id, title, desc_text, date_created, is_completed)
				VALUES (?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		taskToCreate.ID,
		taskToCreate.Title,
		taskToCreate.Description,
		taskToCreate.DateCreated,
		taskToCreate.IsCompleted,
	)
	if err != nil {
		return mapInsertError(err)
	}
	return nil
}

func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	// нулевая дата не перезаписывает дату создания
	var created any
	if !taskToUpdate.DateCreated.IsZero() {
		created = taskToUpdate.DateCreated
	}

	query := `UPDATE tasks
			SET title = ?,
				desc_text = ?,
				is_completed = ?,
				date_created = COALESCE(?, date_created)
			WHERE id = ?`

	res, err := s.db.ExecContext(ctx, query,
		taskToUpdate.Title,
		taskToUpdate.Description,
		taskToUpdate.IsCompleted,
		created,
		taskToUpdate.ID,
	)
	if err != nil {
		return fmt.Errorf("обновление задачи: %w", err)
	}
	return expectOneRow(res)
}

func (s *Storage) ToggleCompleted(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET is_completed = NOT is_completed WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("переключение выполнения: %w", err)
	}
	return expectOneRow(res)
}

func (s *Storage) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("удаление задачи: %w", err)
	}
	return expectOneRow(res)
}

func (s *Storage) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return fmt.Errorf("очистка задач: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sync_state`); err != nil {
		return fmt.Errorf("очистка состояния: %w", err)
	}
	return tx.Commit()
}

func expectOneRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("число изменённых строк: %w", err)
	}
	if affected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func mapInsertError(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return repo.ErrDuplicateID
	}
	return fmt.Errorf("добавление задачи: %w", err)
}

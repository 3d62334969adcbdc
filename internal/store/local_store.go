package store

import (
	"context"
	"errors"
	"taskSync/internal/logger"
	"taskSync/internal/models/task"
	repo "taskSync/internal/repository"

	"go.uber.org/zap"
)

// LocalTaskStore - долговременное хранилище задач с политикой "отказ = пусто":
// ошибки чтения превращаются в "данных нет", ошибки записи логируются и
// отражаются в Outcome, но не возвращаются.
type LocalTaskStore struct {
	repo     TaskRepository
	observer func(Outcome)
}

type Option func(*LocalTaskStore)

// WithObserver получает итог каждой мутации
func WithObserver(fn func(Outcome)) Option {
	return func(s *LocalTaskStore) {
		s.observer = fn
	}
}

func New(repository TaskRepository, options ...Option) *LocalTaskStore {
	s := &LocalTaskStore{repo: repository}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *LocalTaskStore) HealthCheck(ctx context.Context) error {
	return s.repo.HealthCheck(ctx)
}

// HasAnyData отличает холодный старт от тёплого. Сбой чтения = холодный старт.
func (s *LocalTaskStore) HasAnyData(ctx context.Context) bool {
	has, err := s.repo.HasData(ctx)
	if err != nil {
		logger.Warn("Store: Ошибка проверки наличия данных, считаем хранилище пустым", zap.Error(err))
		return false
	}
	return has
}

// FetchAll возвращает все задачи без гарантии порядка; при сбое - пустой список
func (s *LocalTaskStore) FetchAll(ctx context.Context) []task.Task {
	stored, err := s.repo.GetAll(ctx)
	if err != nil {
		logger.Warn("Store: Ошибка чтения задач, возвращаем пустой список", zap.Error(err))
		return []task.Task{}
	}

	tasks := make([]task.Task, 0, len(stored))
	for _, t := range stored {
		tasks = append(tasks, *t)
	}
	return tasks
}

// InsertAll - только для первой синхронизации, когда хранилище заведомо пусто
func (s *LocalTaskStore) InsertAll(ctx context.Context, tasks []task.Task) Outcome {
	batch := make([]*task.Task, 0, len(tasks))
	for i := range tasks {
		t := tasks[i]
		batch = append(batch, &t)
	}

	err := s.repo.CreateBatch(ctx, batch)
	return s.finish(Outcome{Op: OpInsertAll, Count: len(tasks)}, err)
}

func (s *LocalTaskStore) InsertOne(ctx context.Context, t task.Task) Outcome {
	err := s.repo.Create(ctx, &t)
	return s.finish(Outcome{Op: OpInsertOne, TaskID: t.ID, Count: 1}, err)
}

func (s *LocalTaskStore) UpdateOne(ctx context.Context, t task.Task) Outcome {
	err := s.repo.Update(ctx, &t)
	return s.finish(Outcome{Op: OpUpdate, TaskID: t.ID, Count: 1}, err)
}

// EditOne читает задачу по id и записывает её изменённую копию.
// Отсутствующий id - промах, сбой чтения - ошибка записи.
func (s *LocalTaskStore) EditOne(ctx context.Context, id int64, options ...task.TaskOption) Outcome {
	outcome := Outcome{Op: OpUpdate, TaskID: id, Count: 1}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return s.finish(outcome, err)
	}

	edited := current.Apply(options...)
	return s.finish(outcome, s.repo.Update(ctx, &edited))
}

func (s *LocalTaskStore) DeleteOne(ctx context.Context, t task.Task) Outcome {
	err := s.repo.Delete(ctx, t.ID)
	return s.finish(Outcome{Op: OpDelete, TaskID: t.ID, Count: 1}, err)
}

func (s *LocalTaskStore) ToggleCompletion(ctx context.Context, t task.Task) Outcome {
	err := s.repo.ToggleCompleted(ctx, t.ID)
	return s.finish(Outcome{Op: OpToggle, TaskID: t.ID, Count: 1}, err)
}

// Clear - внешняя очистка; следующая загрузка снова пойдёт в удалённый источник
func (s *LocalTaskStore) Clear(ctx context.Context) Outcome {
	err := s.repo.Clear(ctx)
	return s.finish(Outcome{Op: OpClear}, err)
}

func (s *LocalTaskStore) finish(outcome Outcome, err error) Outcome {
	fields := []zap.Field{
		zap.String("op", string(outcome.Op)),
		zap.Int64("task_id", outcome.TaskID),
		zap.Int("count", outcome.Count),
	}

	switch {
	case err == nil:
		outcome.Status = StatusApplied
		logger.Debug("Store: Изменение применено", fields...)
	case errors.Is(err, repo.ErrNotFound):
		outcome.Status = StatusMissed
		outcome.Count = 0
		logger.Info("Store: Задача не найдена, изменение пропущено", fields...)
	default:
		outcome.Status = StatusFailed
		outcome.Err = err
		outcome.Count = 0
		logger.Error("Store: Ошибка записи", err, fields...)
	}

	if s.observer != nil {
		s.observer(outcome)
	}
	return outcome
}

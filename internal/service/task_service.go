package service

import (
	"context"
	"fmt"
	"taskSync/internal/logger"
	"taskSync/internal/models/task"
	"taskSync/internal/store"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// TaskSynchronizer решает, откуда брать задачи (холодный/тёплый старт),
// проводит изменения через локальное хранилище и перечитывает список после каждого.
// Своих данных не держит, кроме блокировок.
type TaskSynchronizer struct {
	store  LocalStore
	remote RemoteSource
	cold   singleflight.Group
	locks  *keyedLock
}

// MutationResult - список после изменения и наблюдаемый итог самой записи
type MutationResult struct {
	Tasks   []task.Task
	Outcome store.Outcome
}

func NewTaskSynchronizer(local LocalStore, remote RemoteSource) *TaskSynchronizer {
	return &TaskSynchronizer{
		store:  local,
		remote: remote,
		locks:  newKeyedLock(),
	}
}

func (s *TaskSynchronizer) HealthCheck(ctx context.Context) error {
	if err := s.store.HealthCheck(ctx); err != nil {
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	}
	return nil
}

// LoadTasks: тёплый старт читает хранилище, холодный - удалённый источник с сохранением.
// Ошибка возможна только на холодном пути.
func (s *TaskSynchronizer) LoadTasks(ctx context.Context) ([]task.Task, error) {
	if s.store.HasAnyData(ctx) {
		return s.warmRead(ctx), nil
	}
	return s.coldFetch(ctx)
}

func (s *TaskSynchronizer) warmRead(ctx context.Context) []task.Task {
	tasks := s.store.FetchAll(ctx)
	task.SortNewestFirst(tasks)
	return tasks
}

// одновременные холодные загрузки делят один запрос и одну пакетную вставку
func (s *TaskSynchronizer) coldFetch(ctx context.Context) ([]task.Task, error) {
	v, err, shared := s.cold.Do("cold", func() (any, error) {
		if s.store.HasAnyData(ctx) {
			return s.store.FetchAll(ctx), nil
		}

		start := time.Now()
		logger.Info("Service: Холодный старт, загрузка из удалённого источника")

		fetched, err := s.remote.FetchAll(ctx)
		if err != nil {
			logger.Error("Service: Не удалось загрузить задачи", err)
			return nil, NewRemoteFetchFailed(err)
		}

		outcome := s.store.InsertAll(ctx, fetched)
		logger.Info("Service: Первая синхронизация завершена",
			zap.Int("count", len(fetched)),
			zap.String("store", string(outcome.Status)),
			zap.Duration("ms", time.Since(start)))

		return fetched, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logger.Debug("Service: Холодная загрузка разделена с параллельным запросом")
	}

	tasks := append([]task.Task(nil), v.([]task.Task)...)
	task.SortNewestFirst(tasks)
	return tasks, nil
}

func (s *TaskSynchronizer) CreateTask(ctx context.Context, t task.Task) (MutationResult, error) {
	if t.ID == 0 {
		return MutationResult{}, NewValidationError("id", "id не может быть нулевым", ToDetail("title", t.Title))
	}
	if t.DateCreated.IsZero() {
		t.DateCreated = time.Now()
	}
	return s.mutate(ctx, t.ID, func() store.Outcome {
		return s.store.InsertOne(ctx, t)
	})
}

func (s *TaskSynchronizer) UpdateTask(ctx context.Context, t task.Task) (MutationResult, error) {
	return s.mutate(ctx, t.ID, func() store.Outcome {
		return s.store.UpdateOne(ctx, t)
	})
}

// EditTask меняет только переданные поля: чтение и запись идут под блокировкой id,
// поэтому параллельное переключение того же id не теряется.
// Холодное хранилище сначала наполняется, иначе правка существующей задачи дала бы промах.
func (s *TaskSynchronizer) EditTask(ctx context.Context, id int64, options ...task.TaskOption) (MutationResult, error) {
	if _, err := s.LoadTasks(ctx); err != nil {
		return MutationResult{}, err
	}
	return s.mutate(ctx, id, func() store.Outcome {
		return s.store.EditOne(ctx, id, options...)
	})
}

func (s *TaskSynchronizer) DeleteTask(ctx context.Context, t task.Task) (MutationResult, error) {
	return s.mutate(ctx, t.ID, func() store.Outcome {
		return s.store.DeleteOne(ctx, t)
	})
}

func (s *TaskSynchronizer) ToggleCompletion(ctx context.Context, t task.Task) (MutationResult, error) {
	return s.mutate(ctx, t.ID, func() store.Outcome {
		return s.store.ToggleCompletion(ctx, t)
	})
}

// Reset очищает хранилище; следующая загрузка снова будет холодной
func (s *TaskSynchronizer) Reset(ctx context.Context) store.Outcome {
	outcome := s.store.Clear(ctx)
	logger.Info("Service: Локальное хранилище очищено", zap.String("store", string(outcome.Status)))
	return outcome
}

// mutate: одно изменение, затем полный повтор загрузки.
// Для одного id цикл сериализован, поэтому вызывающий видит свою запись.
func (s *TaskSynchronizer) mutate(ctx context.Context, id int64, apply func() store.Outcome) (MutationResult, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	outcome := apply()

	tasks, err := s.LoadTasks(ctx)
	if err != nil {
		return MutationResult{Outcome: outcome}, err
	}
	return MutationResult{Tasks: tasks, Outcome: outcome}, nil
}

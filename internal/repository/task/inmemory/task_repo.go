package inmemory

import (
	"context"
	"sync"
	"taskSync/internal/logger"
	"taskSync/internal/models/task"
	repo "taskSync/internal/repository"
)

// TaskStorage хранит копии задач, наружу тоже отдаются копии
type TaskStorage struct {
	storage map[int64]*task.Task
	mtx     *sync.RWMutex
	ids     []int64
	seeded  bool
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage: make(map[int64]*task.Task),
		mtx:     &sync.RWMutex{},
		ids:     []int64{},
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	logger.Debug("Repository: Соединение стабильно")
	return nil
}

func (s *TaskStorage) HasData(ctx context.Context) (bool, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return s.seeded || len(s.ids) > 0, nil
}

// получение всех задач в порядке вставки
func (s *TaskStorage) GetAll(ctx context.Context) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := make([]*task.Task, 0, len(s.ids))
	for _, id := range s.ids {
		copied := *s.storage[id]
		res = append(res, &copied)
	}
	return res, nil
}

func (s *TaskStorage) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	taskToGet, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	copied := *taskToGet
	return &copied, nil
}

// пакетная вставка первой синхронизации: всё или ничего
func (s *TaskStorage) CreateBatch(ctx context.Context, tasks []*task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	batch := make(map[int64]struct{}, len(tasks))
	for _, t := range tasks {
		if _, ok := s.storage[t.ID]; ok {
			return repo.ErrDuplicateID
		}
		if _, ok := batch[t.ID]; ok {
			return repo.ErrDuplicateID
		}
		batch[t.ID] = struct{}{}
	}

	for _, t := range tasks {
		s.insert(t)
	}
	s.seeded = true
	return nil
}

func (s *TaskStorage) Create(ctx context.Context, taskToCreate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[taskToCreate.ID]; ok {
		return repo.ErrDuplicateID
	}
	s.insert(taskToCreate)
	return nil
}

func (s *TaskStorage) insert(t *task.Task) {
	copied := *t
	s.storage[t.ID] = &copied
	s.ids = append(s.ids, t.ID)
}

// Update перезаписывает изменяемые поля; нулевая дата создания сохраняет прежнюю
func (s *TaskStorage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existed, ok := s.storage[taskToUpdate.ID]
	if !ok {
		return repo.ErrNotFound
	}

	existed.Title = taskToUpdate.Title
	existed.Description = taskToUpdate.Description
	existed.IsCompleted = taskToUpdate.IsCompleted
	if !taskToUpdate.DateCreated.IsZero() {
		existed.DateCreated = taskToUpdate.DateCreated
	}
	return nil
}

func (s *TaskStorage) ToggleCompleted(ctx context.Context, id int64) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existed, ok := s.storage[id]
	if !ok {
		return repo.ErrNotFound
	}
	existed.IsCompleted = !existed.IsCompleted
	return nil
}

func (s *TaskStorage) Delete(ctx context.Context, id int64) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[id]; !ok {
		return repo.ErrNotFound
	}

	delete(s.storage, id)
	for ind, val := range s.ids {
		if val == id {
			s.ids = append(s.ids[:ind], s.ids[ind+1:]...)
			break
		}
	}
	return nil
}

// Clear - внешняя очистка: после неё снова будет холодный старт
func (s *TaskStorage) Clear(ctx context.Context) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.storage = make(map[int64]*task.Task)
	s.ids = []int64{}
	s.seeded = false
	return nil
}

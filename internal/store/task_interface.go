package store

import (
	"context"
	"taskSync/internal/models/task"
)

// TaskRepository - сырой бэкенд (sqlite, postgres, inmemory).
// Промах по id возвращается как repository.ErrNotFound.
type TaskRepository interface {
	HealthCheck(ctx context.Context) error
	HasData(ctx context.Context) (bool, error)
	GetAll(ctx context.Context) ([]*task.Task, error)
	GetByID(ctx context.Context, id int64) (*task.Task, error)
	CreateBatch(ctx context.Context, tasks []*task.Task) error
	Create(ctx context.Context, t *task.Task) error
	Update(ctx context.Context, t *task.Task) error
	ToggleCompleted(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	Clear(ctx context.Context) error
}

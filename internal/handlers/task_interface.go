package handlers

import (
	"context"
	"taskSync/internal/models/task"
	"taskSync/internal/worker"
)

// Service - асинхронная сторона синхронизатора: каждый вызов отдаёт
// канал с единственным результатом.
type Service interface {
	HealthCheck(ctx context.Context) error
	Load() <-chan worker.Result
	Create(t task.Task) <-chan worker.Result
	Edit(id int64, options ...task.TaskOption) <-chan worker.Result
	Delete(t task.Task) <-chan worker.Result
	Toggle(t task.Task) <-chan worker.Result
}

package service

import (
	"context"
	"taskSync/internal/models/task"
	"taskSync/internal/store"
)

// LocalStore - локальное хранилище; ошибок наружу не отдаёт
type LocalStore interface {
	HealthCheck(ctx context.Context) error
	HasAnyData(ctx context.Context) bool
	FetchAll(ctx context.Context) []task.Task
	InsertAll(ctx context.Context, tasks []task.Task) store.Outcome
	InsertOne(ctx context.Context, t task.Task) store.Outcome
	UpdateOne(ctx context.Context, t task.Task) store.Outcome
	EditOne(ctx context.Context, id int64, options ...task.TaskOption) store.Outcome
	DeleteOne(ctx context.Context, t task.Task) store.Outcome
	ToggleCompletion(ctx context.Context, t task.Task) store.Outcome
	Clear(ctx context.Context) store.Outcome
}

// RemoteSource - однократное получение полного списка, без повторов
type RemoteSource interface {
	FetchAll(ctx context.Context) ([]task.Task, error)
}

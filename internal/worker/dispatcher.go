package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"taskSync/internal/logger"
	"taskSync/internal/models/task"
	"taskSync/internal/service"
	"taskSync/internal/store"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

type Synchronizer interface {
	HealthCheck(ctx context.Context) error
	LoadTasks(ctx context.Context) ([]task.Task, error)
	CreateTask(ctx context.Context, t task.Task) (service.MutationResult, error)
	UpdateTask(ctx context.Context, t task.Task) (service.MutationResult, error)
	EditTask(ctx context.Context, id int64, options ...task.TaskOption) (service.MutationResult, error)
	DeleteTask(ctx context.Context, t task.Task) (service.MutationResult, error)
	ToggleCompletion(ctx context.Context, t task.Task) (service.MutationResult, error)
}

// Result - единственный ответ на один запрос.
// Outcome заполнен только для изменений.
type Result struct {
	Tasks   []task.Task
	Outcome *store.Outcome
	Err     error
}

// Dispatcher выполняет запросы к синхронизатору в пуле (ввод-вывод),
// а результат отдаёт в канал, который читает вызывающий (доставка).
type Dispatcher struct {
	sync    Synchronizer
	pool    *pool.Pool
	ctx     context.Context
	pending atomic.Int64
}

func NewDispatcher(ctx context.Context, sync Synchronizer, concurrency *int) *Dispatcher {
	var workers int
	if concurrency == nil || *concurrency < 1 {
		workers = 4
	} else {
		workers = *concurrency
	}

	return &Dispatcher{
		sync: sync,
		pool: pool.New().WithMaxGoroutines(workers),
		ctx:  ctx,
	}
}

// HealthCheck выполняется синхронно, в обход пула
func (d *Dispatcher) HealthCheck(ctx context.Context) error {
	return d.sync.HealthCheck(ctx)
}

func (d *Dispatcher) Load() <-chan Result {
	return d.submit("load", 0, func(ctx context.Context) Result {
		tasks, err := d.sync.LoadTasks(ctx)
		return Result{Tasks: tasks, Err: err}
	})
}

func (d *Dispatcher) Create(t task.Task) <-chan Result {
	return d.submit("create", t.ID, mutation(func(ctx context.Context) (service.MutationResult, error) {
		return d.sync.CreateTask(ctx, t)
	}))
}

func (d *Dispatcher) Update(t task.Task) <-chan Result {
	return d.submit("update", t.ID, mutation(func(ctx context.Context) (service.MutationResult, error) {
		return d.sync.UpdateTask(ctx, t)
	}))
}

// Edit применяет опции к текущей версии задачи под блокировкой id
func (d *Dispatcher) Edit(id int64, options ...task.TaskOption) <-chan Result {
	return d.submit("edit", id, mutation(func(ctx context.Context) (service.MutationResult, error) {
		return d.sync.EditTask(ctx, id, options...)
	}))
}

func (d *Dispatcher) Delete(t task.Task) <-chan Result {
	return d.submit("delete", t.ID, mutation(func(ctx context.Context) (service.MutationResult, error) {
		return d.sync.DeleteTask(ctx, t)
	}))
}

func (d *Dispatcher) Toggle(t task.Task) <-chan Result {
	return d.submit("toggle", t.ID, mutation(func(ctx context.Context) (service.MutationResult, error) {
		return d.sync.ToggleCompletion(ctx, t)
	}))
}

// Pending - число запросов, результат которых ещё не готов
func (d *Dispatcher) Pending() int64 {
	return d.pending.Load()
}

// Wait дожидается всех отправленных запросов; после него диспетчер не используется
func (d *Dispatcher) Wait() {
	logger.Info("Worker: Ожидание незавершённых запросов", zap.Int64("pending", d.Pending()))
	d.pool.Wait()
	logger.Info("Worker: Диспетчер остановлен")
}

func mutation(fn func(ctx context.Context) (service.MutationResult, error)) func(ctx context.Context) Result {
	return func(ctx context.Context) Result {
		res, err := fn(ctx)
		outcome := res.Outcome
		return Result{Tasks: res.Tasks, Outcome: &outcome, Err: err}
	}
}

// submit блокируется, только если все воркеры заняты
func (d *Dispatcher) submit(op string, id int64, run func(ctx context.Context) Result) <-chan Result {
	out := make(chan Result, 1)
	d.pending.Add(1)

	d.pool.Go(func() {
		start := time.Now()
		defer d.pending.Add(-1)
		defer close(out)
		// паника не должна оставить вызывающего без результата
		defer func() {
			if rec := recover(); rec != nil {
				err := fmt.Errorf("паника в запросе %s: %v", op, rec)
				logger.Error("Worker: Паника при выполнении запроса", err,
					zap.String("op", op),
					zap.Int64("task_id", id))
				out <- Result{Err: err}
			}
		}()

		result := run(d.ctx)
		if result.Err != nil {
			logger.Warn("Worker: Запрос завершился ошибкой",
				zap.String("op", op),
				zap.Int64("task_id", id),
				zap.Error(result.Err))
		} else {
			logger.Debug("Worker: Запрос выполнен",
				zap.String("op", op),
				zap.Int64("task_id", id),
				zap.Int("tasks", len(result.Tasks)),
				zap.Duration("ms", time.Since(start)))
		}

		out <- result
	})
	return out
}

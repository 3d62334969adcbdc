package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"taskSync/internal/config"
	"taskSync/internal/handlers"
	"taskSync/internal/logger"
	"taskSync/internal/middleware"
	"taskSync/internal/remote"
	"taskSync/internal/repository/task/inmemory"
	"taskSync/internal/repository/task/postgres"
	"taskSync/internal/repository/task/sqlite"
	"taskSync/internal/service"
	"taskSync/internal/store"
	"taskSync/internal/worker"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	requestsPerMinute = 100
	shutdownTimeout   = 10 * time.Second
)

// App владеет временем жизни хранилища: оно открывается в Init и закрывается в Shutdown
type App struct {
	config       *config.Config
	server       *http.Server
	router       *chi.Mux
	repository   store.TaskRepository
	synchronizer *service.TaskSynchronizer
	dispatcher   *worker.Dispatcher
	shutdowns    []func() // выполняются в обратном порядке
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) (*App, error) {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return nil, fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	repo, err := a.initRepository(ctx)
	if err != nil {
		a.Shutdown()
		return nil, err
	}
	a.repository = repo

	client := remote.NewClient(a.config.Remote.URL, a.config.Remote.Timeout,
		remote.WithToken(a.config.Remote.Token))

	a.synchronizer = service.NewTaskSynchronizer(store.New(repo), client)
	a.dispatcher = worker.NewDispatcher(ctx, a.synchronizer, &a.config.Worker.Concurrency)

	a.shutdowns = append(a.shutdowns, func() {
		a.dispatcher.Wait()
	})

	logger.Info("App: Инициализация завершена",
		zap.String("repository", a.config.Repository.Type),
		zap.String("remote", a.config.Remote.URL),
		zap.Int("workers", a.config.Worker.Concurrency))

	return a, nil
}

func (a *App) initRepository(ctx context.Context) (store.TaskRepository, error) {
	switch a.config.Repository.Type {
	case config.RepoPostgres:
		if err := postgres.Migrate(a.config.Database.URL); err != nil {
			return nil, fmt.Errorf("миграции postgres: %w", err)
		}
		repo, err := postgres.New(ctx, a.config.Database)
		if err != nil {
			return nil, fmt.Errorf("подключение к postgres: %w", err)
		}
		a.shutdowns = append(a.shutdowns, func() {
			logger.Info("Закрытие пула postgres...")
			repo.Close()
		})
		return repo, nil

	case config.RepoInMemory:
		return inmemory.NewTaskStorage(), nil

	default:
		repo, err := sqlite.New(ctx, a.config.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("открытие sqlite: %w", err)
		}
		a.shutdowns = append(a.shutdowns, func() {
			logger.Info("Закрытие sqlite...")
			if err := repo.Close(); err != nil {
				logger.Error("App: Ошибка закрытия sqlite", err)
			}
		})
		return repo, nil
	}
}

func (a *App) Synchronizer() *service.TaskSynchronizer {
	return a.synchronizer
}

func (a *App) Dispatcher() *worker.Dispatcher {
	return a.dispatcher
}

func (a *App) Router() *chi.Mux {
	if a.router != nil {
		return a.router
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.Recover)
	r.Use(middleware.RateLimit(requestsPerMinute))

	handler := handlers.NewTaskHandler(a.dispatcher)
	handler.Register(r)

	a.router = r
	return r
}

// Run блокируется до отмены ctx или ошибки сервера
func (a *App) Run(ctx context.Context) error {
	a.server = &http.Server{
		Addr:              a.config.GetServerAddr(),
		Handler:           a.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("App: Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("сервер: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger.Info("App: Остановка сервера...")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("остановка сервера: %w", err)
	}
	return nil
}

func (a *App) Shutdown() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = a.shutdowns[:0]
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Запустить HTTP API",
		Long: `Запускает HTTP API поверх локального хранилища.

Маршруты:
  GET    /tasks
  POST   /tasks
  PUT    /tasks/{id}
  DELETE /tasks/{id}
  POST   /tasks/{id}/toggle
  GET    /health`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// приложение живёт дольше сигнального контекста, чтобы дописать начатые запросы
			a, err := openApp(context.Background())
			if err != nil {
				return err
			}
			defer a.Shutdown()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return a.Run(ctx)
		},
	}
}

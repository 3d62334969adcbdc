package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"taskSync/internal/app"
	"taskSync/internal/config"
	"taskSync/internal/service"

	"github.com/spf13/cobra"
)

var Version = "dev"

var configPath string

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, userMessage(err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tasksync",
		Short:         "tasksync - локальный список задач с первой загрузкой из удалённого источника",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "путь к файлу конфигурации")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(editCmd())
	rootCmd.AddCommand(toggleCmd())
	rootCmd.AddCommand(deleteCmd())
	rootCmd.AddCommand(resetCmd())
	rootCmd.AddCommand(configCmd())

	return rootCmd
}

// openApp загружает конфиг и открывает хранилище; вызывающий обязан выполнить Shutdown
func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return app.New(cfg).Init(ctx)
}

func userMessage(err error) string {
	var businessErr *service.BusinessError
	if errors.As(err, &businessErr) {
		return businessErr.Message
	}
	return err.Error()
}

package main

import (
	"fmt"
	"taskSync/internal/config"

	"github.com/spf13/cobra"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Работа с файлом конфигурации",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Записать конфигурацию по умолчанию в --config",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteDefault(configPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Конфигурация записана в %s\n", configPath)
			return nil
		},
	})

	return cmd
}

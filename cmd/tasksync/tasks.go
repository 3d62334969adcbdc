package main

import (
	"fmt"
	"io"
	"strconv"
	"taskSync/internal/models/task"
	"taskSync/internal/store"
	"taskSync/internal/worker"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Показать задачи (при первом запуске загрузить из удалённого источника)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDispatcher(cmd, func(d *worker.Dispatcher) error {
				res := <-d.Load()
				if res.Err != nil {
					return res.Err
				}
				printTasks(cmd.OutOrStdout(), res.Tasks)
				return nil
			})
		},
	}
}

func addCmd() *cobra.Command {
	var description string
	var completed bool

	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Добавить задачу",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			newTask := task.New(args[0], description)
			newTask.IsCompleted = completed

			return withDispatcher(cmd, func(d *worker.Dispatcher) error {
				return printMutation(cmd.OutOrStdout(), <-d.Create(newTask))
			})
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "описание")
	cmd.Flags().BoolVar(&completed, "completed", false, "сразу отметить выполненной")
	return cmd
}

func editCmd() *cobra.Command {
	var title, description string
	var completed bool

	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Изменить поля задачи",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			options := make([]task.TaskOption, 0, 3)
			if cmd.Flags().Changed("title") {
				options = append(options, task.WithTitle(title))
			}
			if cmd.Flags().Changed("description") {
				options = append(options, task.WithDescription(description))
			}
			if cmd.Flags().Changed("completed") {
				options = append(options, task.WithCompleted(completed))
			}
			if len(options) == 0 {
				return fmt.Errorf("укажите хотя бы одно из --title, --description, --completed")
			}

			return withDispatcher(cmd, func(d *worker.Dispatcher) error {
				res := <-d.Edit(id, options...)
				if res.Err == nil && res.Outcome != nil && res.Outcome.Status == store.StatusMissed {
					return fmt.Errorf("задача %d не найдена", id)
				}
				return printMutation(cmd.OutOrStdout(), res)
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "новое название")
	cmd.Flags().StringVarP(&description, "description", "d", "", "новое описание")
	cmd.Flags().BoolVar(&completed, "completed", false, "отметка о выполнении")
	return cmd
}

func toggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle [id]",
		Short: "Переключить отметку о выполнении",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withDispatcher(cmd, func(d *worker.Dispatcher) error {
				return printMutation(cmd.OutOrStdout(), <-d.Toggle(task.Task{ID: id}))
			})
		},
	}
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Удалить задачу",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withDispatcher(cmd, func(d *worker.Dispatcher) error {
				return printMutation(cmd.OutOrStdout(), <-d.Delete(task.Task{ID: id}))
			})
		},
	}
}

func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Очистить локальное хранилище; следующий list загрузит задачи заново",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Shutdown()

			outcome := a.Synchronizer().Reset(ctx)
			fmt.Fprintln(cmd.OutOrStdout(), outcome.String())
			if outcome.Status == store.StatusFailed {
				return fmt.Errorf("не удалось очистить хранилище: %w", outcome.Err)
			}
			return nil
		},
	}
}

func withDispatcher(cmd *cobra.Command, fn func(d *worker.Dispatcher) error) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Shutdown()

	return fn(a.Dispatcher())
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("неверный id %q", raw)
	}
	return id, nil
}

func printMutation(w io.Writer, res worker.Result) error {
	if res.Err != nil {
		return res.Err
	}
	if res.Outcome != nil {
		fmt.Fprintln(w, res.Outcome.String())
	}
	printTasks(w, res.Tasks)
	return nil
}

func printTasks(w io.Writer, tasks []task.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "Задач нет")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tГОТОВО\tСОЗДАНА\tНАЗВАНИЕ\tОПИСАНИЕ")
	for _, t := range tasks {
		done := " "
		if t.IsCompleted {
			done = "x"
		}
		fmt.Fprintf(tw, "%d\t[%s]\t%s\t%s\t%s\n",
			t.ID, done, t.DateCreated.Local().Format(time.DateTime), t.Title, t.Description)
	}
	tw.Flush()
}

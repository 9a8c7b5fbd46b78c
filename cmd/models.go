package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func modelsCommand(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Управление моделями",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Список моделей",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := env.openStore()
				if err != nil {
					return err
				}
				defer store.Close()

				models, err := env.newContainer(store, nil, nil, nil).ModelService.ListModels(cmd.Context())
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tCREATED\tSOURCE")
				for _, m := range models {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", m.ID, m.Name, m.CreatedAt.Local().Format("2006-01-02 15:04"), m.SourceURL)
				}
				return w.Flush()
			},
		},
		&cobra.Command{
			Use:   "add <name> <url>",
			Short: "Скачать модель по URL",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := env.openStore()
				if err != nil {
					return err
				}
				defer store.Close()

				id, err := env.newContainer(store, nil, nil, nil).ModelService.ImportFromURL(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "model #%d added\n", id)
				return nil
			},
		},
		&cobra.Command{
			Use:   "import <name> <file>",
			Short: "Импортировать модель из файла",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				blob, err := os.ReadFile(args[1])
				if err != nil {
					return fmt.Errorf("failed to read model: %w", err)
				}

				store, err := env.openStore()
				if err != nil {
					return err
				}
				defer store.Close()

				id, err := env.newContainer(store, nil, nil, nil).ModelService.Import(cmd.Context(), args[0], blob)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "model #%d imported\n", id)
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Удалить модель",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid model id %q", args[0])
				}

				store, err := env.openStore()
				if err != nil {
					return err
				}
				defer store.Close()

				if err := env.newContainer(store, nil, nil, nil).ModelService.DeleteModel(cmd.Context(), nil, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "model #%d deleted\n", id)
				return nil
			},
		},
	)
	return cmd
}

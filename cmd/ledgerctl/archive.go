package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"budget/internal/report"
	"budget/internal/storage"
)

func archiveCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Manage the SQLite backup archive",
		Example: `  # Store a backup file
  ledgerctl archive save budget-backup-20240310.json --label "before import"

  # List the newest backups
  ledgerctl archive list --limit 5

  # Write a stored backup back out, ready for POST /api/import
  ledgerctl archive show <id> > restore.json

  # Keep only the 10 newest
  ledgerctl archive prune --keep 10`,
	}

	cmd.AddCommand(archiveSaveCmd(opts))
	cmd.AddCommand(archiveListCmd(opts))
	cmd.AddCommand(archiveShowCmd(opts))
	cmd.AddCommand(archiveDeleteCmd(opts))
	cmd.AddCommand(archivePruneCmd(opts))
	return cmd
}

func openArchive(opts *options) (*storage.SQLiteRepository, error) {
	if opts.dbPath == "" {
		return nil, fmt.Errorf("no archive configured: pass --db or set SQLITE_DB_PATH")
	}
	repo, err := storage.NewSQLiteRepository(opts.dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	return repo, nil
}

func archiveSaveCmd(opts *options) *cobra.Command {
	var label string
	cmd := &cobra.Command{
		Use:   "save <backup.json>",
		Short: "Store a backup file in the archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := readBackup(cmd, args[0])
			if err != nil {
				return err
			}
			repo, err := openArchive(opts)
			if err != nil {
				return err
			}
			defer repo.Close()

			info, err := repo.SaveBackup(cmd.Context(), b, label)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved backup %s (%d transactions, %d categories)\n",
				info.ID, info.TransactionCount, info.CategoryCount)
			return nil
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "label stored with the backup")
	return cmd
}

func archiveListCmd(opts *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := openArchive(opts)
			if err != nil {
				return err
			}
			defer repo.Close()

			list, err := repo.ListBackups(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No backups found")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCREATED\tEXPORTED\tTXNS\tCATEGORIES\tLABEL")
			for _, b := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
					b.ID,
					b.CreatedAt.Local().Format(time.DateTime),
					b.ExportDate.Format(time.DateOnly),
					b.TransactionCount,
					b.CategoryCount,
					b.Label)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "show at most N backups (0 = all)")
	return cmd
}

func archiveShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Write a stored backup as JSON to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openArchive(opts)
			if err != nil {
				return err
			}
			defer repo.Close()

			b, err := repo.LoadBackup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			data, err := report.Marshal(b)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(append(data, '\n'))
			return err
		},
	}
}

func archiveDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openArchive(opts)
			if err != nil {
				return err
			}
			defer repo.Close()

			if err := repo.DeleteBackup(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted backup %s\n", args[0])
			return nil
		},
	}
}

func archivePruneCmd(opts *options) *cobra.Command {
	var keep int
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if keep < 0 {
				return fmt.Errorf("--keep must not be negative")
			}
			repo, err := openArchive(opts)
			if err != nil {
				return err
			}
			defer repo.Close()

			n, err := repo.Prune(cmd.Context(), keep)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d backups, kept the newest %d\n", n, keep)
			return nil
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 10, "number of backups to keep")
	return cmd
}


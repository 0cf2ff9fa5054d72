package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"budget/internal/aggregate"
	"budget/internal/ledger"
	"budget/internal/report"
)

// readBackup parses the backup at path. "-" reads stdin.
func readBackup(cmd *cobra.Command, path string) (report.Backup, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return report.Backup{}, fmt.Errorf("failed to read backup: %w", err)
	}
	b, err := report.Parse(data)
	if err != nil {
		return report.Backup{}, fmt.Errorf("failed to parse backup %s: %w", path, err)
	}
	return b, nil
}

func summaryCmd() *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "summary <backup.json>",
		Short: "Print totals and per-category groups of a backup",
		Example: `  ledgerctl summary budget-backup-20240310.json
  curl -s localhost:8081/api/export/json | ledgerctl summary -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := readBackup(cmd, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			s := aggregate.Summarize(b.Transactions)

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Exported\t%s\n", b.ExportDate.Format(time.RFC3339))
			fmt.Fprintf(w, "Transactions\t%d\n", s.Count)
			fmt.Fprintf(w, "Income\t%s\n", s.TotalIncome)
			fmt.Fprintf(w, "Expenses\t%s\n", s.TotalExpenses)
			fmt.Fprintf(w, "Balance\t%s\n", s.Balance)
			if err := w.Flush(); err != nil {
				return err
			}

			groups := aggregate.GroupByCategory(b.Transactions, b.Categories)
			if top > 0 {
				groups = aggregate.TopCategories(b.Transactions, b.Categories, top)
			}
			if len(groups) == 0 {
				return nil
			}
			fmt.Fprintln(out)
			w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CATEGORY\tTYPE\tCOUNT\tTOTAL")
			for _, g := range groups {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", g.Category.Name, g.Category.Type, len(g.Transactions), g.Magnitude())
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&top, "top", 0, "show only the N largest expense categories")
	return cmd
}

func exportCmd() *cobra.Command {
	var (
		full   bool
		output string
	)
	cmd := &cobra.Command{
		Use:   "csv <backup.json>",
		Short: "Convert a backup to CSV",
		Long:  `Write the transactions of a backup as CSV, or the sectioned report with --report.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := readBackup(cmd, args[0])
			if err != nil {
				return err
			}
			table := report.TransactionRows(b.Transactions, b.Categories)
			if full {
				table = report.Report(b.Transactions, b.Categories, b.ExportDate)
			}

			out := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer f.Close()
				out = f
			}
			if err := report.WriteCSV(out, table); err != nil {
				return fmt.Errorf("failed to write CSV: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&full, "report", false, "write the sectioned report instead of the transaction list")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <backup.json>",
		Short: "Check that a backup restores cleanly",
		Long: `Parse a backup and load it into an empty ledger, which checks field
validation and that every transaction references a category of its type.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := readBackup(cmd, args[0])
			if err != nil {
				return err
			}
			if err := ledger.New().Restore(b.Categories, b.Transactions); err != nil {
				return fmt.Errorf("backup does not restore: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK: version %s, %d categories, %d transactions\n",
				b.Version, len(b.Categories), len(b.Transactions))
			return nil
		},
	}
}

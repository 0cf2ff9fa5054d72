package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"budget/internal/cli"
	"budget/internal/config"
	applog "budget/internal/log"
)

var version = "dev"

type options struct {
	dbPath   string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Inspect ledger backups and manage the backup archive",
		Long: `ledgerctl works offline on ledger backup files (the JSON produced by
GET /api/export/json) and on the SQLite backup archive.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := slog.LevelInfo
			if err := level.UnmarshalText([]byte(opts.logLevel)); err != nil {
				return fmt.Errorf("invalid log level %q", opts.logLevel)
			}
			applog.SetDefault(applog.New(applog.Config{
				Level:     level,
				Component: applog.ComponentCLI,
				Output:    cmd.ErrOrStderr(),
			}))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.dbPath, "db", config.Load().SQLiteDBPath, "backup archive path (default $SQLITE_DB_PATH)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(archiveCmd(opts))
	rootCmd.AddCommand(versionCmd())
	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "ledgerctl", version)
		},
	}
}

func main() {
	cli.LoadEnvFile()

	ctx, cancel := cli.SignalContext(applog.New(applog.Config{Level: slog.LevelWarn, Component: applog.ComponentCLI, Output: os.Stderr}))
	err := newRootCmd().ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}


// Package backend wires a ledger runtime from configuration: the store, its
// service layer and the optional archive, AMQP and report sink.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"budget/internal/amqp"
	"budget/internal/ledger"
	"budget/internal/services"
	"budget/internal/sheets"
	gsheet "budget/internal/sheets/google"
	"budget/internal/sheets/memory"
	"budget/internal/storage"
)

// DefaultFactory implements Factory.
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// Create builds the runtime. A failing AMQP connection is logged and the
// runtime continues without events; every other failure is returned after
// releasing what was already opened.
func (f *DefaultFactory) Create(ctx context.Context, config Config) (*Components, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var opts []ledger.Option
	if config.SeedDefaults {
		opts = append(opts, ledger.WithDefaultCategories())
	}
	c := &Components{Store: ledger.New(opts...)}

	if config.SQLiteDBPath != "" {
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize backup archive: %w", err)
		}
		c.Archive = repo
		c.onClose(repo.Close)
		f.logger.Info("Initialized backup archive", "db_path", config.SQLiteDBPath)
	}

	var events services.EventPublisher
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			c.Events = client
			c.onClose(client.Close)
			events = client
			f.logger.Info("Initialized AMQP client", "exchange", config.AMQPExchange)
		}
	}

	c.Ledger = services.NewLedgerService(c.Store, events)
	c.Processor = services.NewRecurringProcessor(c.Ledger)

	writer, err := f.createSink(ctx, config)
	if err != nil {
		c.Close()
		return nil, err
	}
	if writer != nil {
		c.Reports = services.NewReportSync(c.Store, writer, services.ReportSyncConfig{
			ReportSheet:       config.ReportSheet,
			TransactionsSheet: config.TransactionsSheet,
		})
	}

	f.logger.Info("Initialized ledger",
		"seeded", config.SeedDefaults,
		"categories", len(c.Store.ListCategories()),
		"archive_enabled", c.Archive != nil,
		"amqp_enabled", c.Events != nil,
		"report_sink", config.Sink.String())
	return c, nil
}

func (f *DefaultFactory) createSink(ctx context.Context, config Config) (sheets.ReportWriter, error) {
	switch config.Sink {
	case GoogleSink:
		cli, err := gsheet.New(ctx, config.GoogleSpreadsheetID)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		f.logger.Info("Initialized Google Sheets sink", "spreadsheet_id", config.GoogleSpreadsheetID)
		return cli, nil
	case MemorySink:
		f.logger.Info("Initialized memory report sink")
		return memory.New(), nil
	default:
		return nil, nil
	}
}

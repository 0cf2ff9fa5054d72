package backend

import (
	"context"
	"path/filepath"
	"testing"

	"budget/internal/config"
	"budget/internal/core"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"bare in-memory ledger", Config{Sink: NoSink}, false},
		{"memory sink", Config{Sink: MemorySink, ReportSheet: "Report"}, false},
		{"unknown sink", Config{Sink: "excel"}, true},
		{"empty sink", Config{}, true},
		{"google without spreadsheet", Config{Sink: GoogleSink, ReportSheet: "Report"}, true},
		{"memory without report sheet", Config{Sink: MemorySink}, true},
		{"amqp without exchange", Config{Sink: NoSink, AMQPURL: "amqp://localhost"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}

	app := &config.Config{
		SeedDefaults:            true,
		SQLiteDBPath:            "archive.db",
		GoogleSpreadsheetID:     "sheet-123",
		GoogleReportSheet:       "Report",
		GoogleTransactionsSheet: "Transactions",
		AMQPExchange:            "ledger",
	}
	cfg, err := FromAppConfig(app)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Sink != GoogleSink || !cfg.SeedDefaults || cfg.SQLiteDBPath != "archive.db" || cfg.TransactionsSheet != "Transactions" {
		t.Errorf("unexpected config %+v", cfg)
	}

	app.GoogleSpreadsheetID = ""
	cfg, _ = FromAppConfig(app)
	if cfg.Sink != NoSink {
		t.Errorf("Sink = %s, want none", cfg.Sink)
	}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	c, err := NewFactory(nil).Create(ctx, Config{
		SeedDefaults: true,
		SQLiteDBPath: filepath.Join(t.TempDir(), "archive.db"),
		Sink:         MemorySink,
		ReportSheet:  "Report",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer c.Close()

	if got := len(c.Store.ListCategories()); got != len(core.DefaultCategories) {
		t.Errorf("seeded categories = %d, want %d", got, len(core.DefaultCategories))
	}
	if c.Archive == nil || c.Reports == nil || c.Processor == nil {
		t.Fatalf("missing components: %+v", c)
	}
	if c.Events != nil {
		t.Error("events must be nil without AMQP_URL")
	}
	if err := c.Archive.Ping(ctx); err != nil {
		t.Errorf("archive ping: %v", err)
	}

	ref, err := c.Reports.Sync(ctx)
	if err != nil || ref == "" {
		t.Errorf("Sync() = %q, %v", ref, err)
	}
}

func TestCreateBareLedger(t *testing.T) {
	c, err := NewFactory(nil).Create(context.Background(), Config{Sink: NoSink})
	if err != nil {
		t.Fatal(err)
	}
	if c.Archive != nil || c.Reports != nil {
		t.Error("optional components should be nil")
	}
	if got := len(c.Store.ListCategories()); got != 0 {
		t.Errorf("categories = %d, want 0 without seeding", got)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestCloseRunsInReverse(t *testing.T) {
	var order []int
	c := &Components{}
	for i := 1; i <= 3; i++ {
		c.onClose(func() error { order = append(order, i); return nil })
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if len(order) != 3 || order[0] != 3 || order[2] != 1 {
		t.Errorf("cleanup order = %v", order)
	}
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"budget/internal/amqp"
	"budget/internal/ledger"
	"budget/internal/report"
	"budget/internal/sheets"
)

// ReportSyncConfig names the sheets a ReportSync writes.
type ReportSyncConfig struct {
	// ReportSheet receives the sectioned summary report.
	ReportSheet string
	// TransactionsSheet receives the flat transaction list. Empty skips it.
	TransactionsSheet string
}

// DefaultReportSyncConfig returns the default sheet names.
func DefaultReportSyncConfig() ReportSyncConfig {
	return ReportSyncConfig{
		ReportSheet:       "Report",
		TransactionsSheet: "Transactions",
	}
}

// ReportSync mirrors the ledger into a spreadsheet whenever a ledger event
// reports a version newer than the last one written.
type ReportSync struct {
	store  *ledger.Store
	writer sheets.ReportWriter
	config ReportSyncConfig
	now    func() time.Time

	mu     sync.Mutex
	synced uint64
}

func NewReportSync(store *ledger.Store, writer sheets.ReportWriter, config ReportSyncConfig) *ReportSync {
	return &ReportSync{
		store:  store,
		writer: writer,
		config: config,
		now:    time.Now,
	}
}

// HandleEvent syncs unless ev is already covered by an earlier write.
func (s *ReportSync) HandleEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	if ev.Version <= s.SyncedVersion() {
		slog.DebugContext(ctx, "Skipping stale ledger event",
			"entity", ev.Entity,
			"op", ev.Op,
			"version", ev.Version)
		return nil
	}
	_, err := s.Sync(ctx)
	return err
}

// Sync writes the current ledger and returns the report reference.
func (s *ReportSync) Sync(ctx context.Context) (string, error) {
	if s.store == nil || s.writer == nil {
		return "", fmt.Errorf("report sync not properly initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	version := s.store.Version()
	snap := s.store.Snapshot()

	ref, err := s.writer.WriteReport(ctx, s.config.ReportSheet, report.Report(snap.Transactions, snap.Categories, s.now()))
	if err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	if s.config.TransactionsSheet != "" {
		if _, err := s.writer.WriteReport(ctx, s.config.TransactionsSheet, report.TransactionRows(snap.Transactions, snap.Categories)); err != nil {
			return "", fmt.Errorf("write transactions: %w", err)
		}
	}

	if version > s.synced {
		s.synced = version
	}
	slog.InfoContext(ctx, "Synced ledger report",
		"version", version,
		"transactions", len(snap.Transactions),
		"sheets_ref", ref)
	return ref, nil
}

// SyncedVersion is the store version covered by the last successful write.
func (s *ReportSync) SyncedVersion() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.synced
}

// Package storage archives ledger backups in SQLite so a ledger can be
// restored after the process restarts.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"budget/internal/core"
	"budget/internal/report"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

// BackupInfo describes an archived backup without its payload.
type BackupInfo struct {
	ID               string    `json:"id"`
	ExportDate       time.Time `json:"exportDate"`
	Version          string    `json:"version"`
	TransactionCount int       `json:"transactionCount"`
	CategoryCount    int       `json:"categoryCount"`
	Label            string    `json:"label"`
	CreatedAt        time.Time `json:"createdAt"`
}

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := MigrateArchive(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SaveBackup archives b under a fresh id.
func (r *SQLiteRepository) SaveBackup(ctx context.Context, b report.Backup, label string) (BackupInfo, error) {
	payload, err := report.Marshal(b)
	if err != nil {
		return BackupInfo{}, err
	}
	info := BackupInfo{
		ID:               uuid.New().String(),
		ExportDate:       b.ExportDate.UTC(),
		Version:          b.Version,
		TransactionCount: len(b.Transactions),
		CategoryCount:    len(b.Categories),
		Label:            strings.TrimSpace(label),
		CreatedAt:        r.now().UTC(),
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO backups (id, export_date, version, transaction_count, category_count, label, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		info.ID,
		info.ExportDate.Format(timeLayout),
		info.Version,
		info.TransactionCount,
		info.CategoryCount,
		info.Label,
		payload,
		info.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return BackupInfo{}, fmt.Errorf("insert backup: %w", err)
	}

	slog.InfoContext(ctx, "Backup archived",
		"id", info.ID,
		"transactions", info.TransactionCount,
		"categories", info.CategoryCount)
	return info, nil
}

// ListBackups returns archived backups newest first. limit <= 0 lists all.
func (r *SQLiteRepository) ListBackups(ctx context.Context, limit int) ([]BackupInfo, error) {
	query := `
		SELECT id, export_date, version, transaction_count, category_count, label, created_at
		FROM backups
		ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	defer rows.Close()

	out := []BackupInfo{}
	for rows.Next() {
		var (
			info              BackupInfo
			exportAt, created string
		)
		if err := rows.Scan(&info.ID, &exportAt, &info.Version, &info.TransactionCount, &info.CategoryCount, &info.Label, &created); err != nil {
			return nil, fmt.Errorf("scan backup: %w", err)
		}
		if info.ExportDate, err = time.Parse(timeLayout, exportAt); err != nil {
			return nil, fmt.Errorf("parse export date of %s: %w", info.ID, err)
		}
		if info.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("parse created_at of %s: %w", info.ID, err)
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate backups: %w", err)
	}
	return out, nil
}

// LoadBackup returns the parsed payload of backup id.
func (r *SQLiteRepository) LoadBackup(ctx context.Context, id string) (report.Backup, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM backups WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return report.Backup{}, &core.NotFoundError{Entity: "backup", ID: id}
	}
	if err != nil {
		return report.Backup{}, fmt.Errorf("load backup %s: %w", id, err)
	}
	return report.Parse(payload)
}

func (r *SQLiteRepository) DeleteBackup(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM backups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete backup %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete backup %s: %w", id, err)
	}
	if n == 0 {
		return &core.NotFoundError{Entity: "backup", ID: id}
	}
	return nil
}

// Prune keeps the newest keep backups and deletes the rest.
func (r *SQLiteRepository) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM backups WHERE id NOT IN (
			SELECT id FROM backups ORDER BY created_at DESC, id LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune backups: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune backups: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Pruned archived backups", "deleted", n, "kept", keep)
	}
	return n, nil
}

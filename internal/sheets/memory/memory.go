package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"budget/internal/report"
)

// Writer keeps the last table written to each sheet.
type Writer struct {
	mu     sync.Mutex
	tables map[string]report.Table
	writes int
}

func New() *Writer {
	return &Writer{tables: make(map[string]report.Table)}
}

// WriteReport stores a copy of t and returns a synthetic reference.
func (w *Writer) WriteReport(_ context.Context, sheet string, t report.Table) (string, error) {
	sheet = strings.TrimSpace(sheet)
	if sheet == "" {
		return "", errors.New("sheet name is required")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tables[sheet] = copyTable(t)
	w.writes++
	return fmt.Sprintf("mem:%s:%d", sheet, w.writes), nil
}

// Table returns the last table written to sheet.
func (w *Writer) Table(sheet string) (report.Table, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	t, ok := w.tables[sheet]
	if !ok {
		return report.Table{}, false
	}
	return copyTable(t), true
}

// Writes counts successful writes.
func (w *Writer) Writes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes
}

func copyTable(t report.Table) report.Table {
	out := report.Table{Header: append([]string(nil), t.Header...)}
	if t.Rows != nil {
		out.Rows = make([][]string, len(t.Rows))
		for i, r := range t.Rows {
			out.Rows[i] = append([]string(nil), r...)
		}
	}
	return out
}

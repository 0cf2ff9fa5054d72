package http

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"budget/internal/report"
)

const attachmentDate = "20060102"

func attachment(w http.ResponseWriter, contentType, name string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
}

func (s *Server) backup() report.Backup {
	snap := s.deps.Ledger.Store().Snapshot()
	return report.Serialize(snap.Transactions, snap.Categories, s.now())
}

func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	body, err := report.Marshal(s.backup())
	if err != nil {
		writeError(w, r, err)
		return
	}
	attachment(w, "application/json; charset=utf-8", "budget-backup-"+s.now().Format(attachmentDate)+".json")
	_, _ = w.Write(body)
}

func (s *Server) writeTable(w http.ResponseWriter, r *http.Request, name string, t report.Table) {
	attachment(w, "text/csv; charset=utf-8", name+"-"+s.now().Format(attachmentDate)+".csv")
	if err := report.WriteCSV(w, t); err != nil {
		// headers are gone, only the log can tell
		s.deps.Logger.ErrorContext(r.Context(), "CSV export failed", "error", err, "export", name)
	}
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	snap := s.deps.Ledger.Store().Snapshot()
	s.writeTable(w, r, "transactions", report.TransactionRows(snap.Transactions, snap.Categories))
}

func (s *Server) handleExportReportCSV(w http.ResponseWriter, r *http.Request) {
	snap := s.deps.Ledger.Store().Snapshot()
	s.writeTable(w, r, "report", report.Report(snap.Transactions, snap.Categories, s.now()))
}

func (s *Server) handleExportRecurringCSV(w http.ResponseWriter, r *http.Request) {
	store := s.deps.Ledger.Store()
	s.writeTable(w, r, "recurring", report.RecurringRows(store.ListRecurring(), store.ListCategories(), s.now()))
}

func (s *Server) handleExportSheets(w http.ResponseWriter, r *http.Request) {
	if s.deps.Sheets == nil {
		writeError(w, r, fmt.Errorf("sheets export: %w", errUnavailable))
		return
	}
	ref, err := s.deps.Sheets.Sync(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"ref": ref})
}

type restoreResult struct {
	Categories   int `json:"categories"`
	Transactions int `json:"transactions"`
}

func (s *Server) restore(w http.ResponseWriter, r *http.Request, b report.Backup) {
	if err := s.deps.Ledger.Restore(r.Context(), b.Categories, b.Transactions); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, restoreResult{Categories: len(b.Categories), Transactions: len(b.Transactions)})
}

// handleImport replaces categories and transactions with a posted backup.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, malformed("cannot read body: "+err.Error()))
		return
	}
	b, err := report.Parse(data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.restore(w, r, b)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.deps.Ledger.Reset(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Archive

func (s *Server) archive(w http.ResponseWriter, r *http.Request) (Archive, bool) {
	if s.deps.Archive == nil {
		writeError(w, r, fmt.Errorf("backup archive: %w", errUnavailable))
		return nil, false
	}
	return s.deps.Archive, true
}

func (s *Server) handleListBackups(w http.ResponseWriter, r *http.Request) {
	a, ok := s.archive(w, r)
	if !ok {
		return
	}
	limit, err := parseLimit(r.URL.Query(), "limit", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := a.ListBackups(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleSaveBackup(w http.ResponseWriter, r *http.Request) {
	a, ok := s.archive(w, r)
	if !ok {
		return
	}
	info, err := a.SaveBackup(r.Context(), s.backup(), r.URL.Query().Get("label"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

func (s *Server) handleDeleteBackup(w http.ResponseWriter, r *http.Request) {
	a, ok := s.archive(w, r)
	if !ok {
		return
	}
	if err := a.DeleteBackup(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRestoreBackup(w http.ResponseWriter, r *http.Request) {
	a, ok := s.archive(w, r)
	if !ok {
		return
	}
	b, err := a.LoadBackup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.restore(w, r, b)
}

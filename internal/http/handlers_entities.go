package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"budget/internal/aggregate"
	"budget/internal/core"
	"budget/internal/services"
)

// goalView adds derived progress figures to a goal.
type goalView struct {
	core.Goal
	Progress  float64    `json:"progress"`
	Remaining core.Money `json:"remaining"`
	IsOverdue bool       `json:"isOverdue"`
}

func newGoalView(g core.Goal, now time.Time) goalView {
	return goalView{Goal: g, Progress: g.Progress(), Remaining: g.Remaining(), IsOverdue: g.IsOverdue(now)}
}

type recurringView struct {
	core.RecurringTransaction
	IsOverdue bool `json:"isOverdue"`
}

func newRecurringView(r core.RecurringTransaction, now time.Time) recurringView {
	return recurringView{RecurringTransaction: r, IsOverdue: services.IsOverdue(r, now)}
}

// Categories

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Ledger.Store().ListCategories())
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := s.deps.Ledger.Store().GetCategory(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var in core.Category
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.deps.Ledger.CreateCategory(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var p core.CategoryPatch
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.deps.Ledger.UpdateCategory(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Ledger.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Transactions

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	crit, err := parseCriteria(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs := aggregate.Filter(s.deps.Ledger.Store().ListTransactions(), crit)
	if r.URL.Query().Get("sort") == "date" {
		txs = aggregate.SortByDate(txs, true)
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.deps.Ledger.Store().GetTransaction(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var in transactionInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.deps.Ledger.CreateTransaction(r.Context(), in.transaction())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var in transactionPatchInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.deps.Ledger.UpdateTransaction(r.Context(), chi.URLParam(r, "id"), in.patch())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Ledger.DeleteTransaction(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Goals

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	goals := s.deps.Ledger.Store().ListGoals()
	out := make([]goalView, 0, len(goals))
	for _, g := range goals {
		out = append(out, newGoalView(g, now))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	g, err := s.deps.Ledger.Store().GetGoal(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newGoalView(g, s.now()))
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var in goalInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	g, err := s.deps.Ledger.CreateGoal(r.Context(), in.goal())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newGoalView(g, s.now()))
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	var in goalPatchInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	g, err := s.deps.Ledger.UpdateGoal(r.Context(), chi.URLParam(r, "id"), in.patch())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newGoalView(g, s.now()))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Ledger.DeleteGoal(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Recurring

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	entries := s.deps.Ledger.Store().ListRecurring()
	out := make([]recurringView, 0, len(entries))
	for _, e := range entries {
		out = append(out, newRecurringView(e, now))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetRecurring(w http.ResponseWriter, r *http.Request) {
	e, err := s.deps.Ledger.Store().GetRecurring(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newRecurringView(e, s.now()))
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	var in recurringInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := s.deps.Ledger.CreateRecurring(r.Context(), in.recurring())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newRecurringView(e, s.now()))
}

func (s *Server) handleUpdateRecurring(w http.ResponseWriter, r *http.Request) {
	var in recurringPatchInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := s.deps.Ledger.UpdateRecurring(r.Context(), chi.URLParam(r, "id"), in.patch())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newRecurringView(e, s.now()))
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Ledger.DeleteRecurring(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleRecurring(w http.ResponseWriter, r *http.Request) {
	e, err := s.deps.Ledger.ToggleRecurring(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newRecurringView(e, s.now()))
}

func (s *Server) handleAdvanceRecurring(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	asOf, err := parseAsOf(r.URL.Query(), now)
	if err != nil {
		writeError(w, r, err)
		return
	}
	e, err := s.deps.Ledger.AdvanceRecurring(r.Context(), chi.URLParam(r, "id"), asOf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newRecurringView(e, now))
}

// handleProcessRecurring materializes every due entry as of asOf.
func (s *Server) handleProcessRecurring(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	n, err := s.deps.Processor.ProcessDue(r.Context(), asOf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"processed": n, "asOf": asOf})
}

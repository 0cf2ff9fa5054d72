package http

import (
	"encoding/json"
	"net/http"

	"budget/internal/aggregate"
	"budget/internal/cache"
	applog "budget/internal/log"
)

// cached serves the JSON of compute, memoized per route, query and ledger
// version. Every ledger mutation changes the version, so entries never go
// stale.
func (s *Server) cached(w http.ResponseWriter, r *http.Request, compute func() (any, error)) {
	build := func() ([]byte, error) {
		v, err := compute()
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	}
	if s.deps.Cache == nil {
		body, err := build()
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeRawJSON(w, http.StatusOK, body)
		return
	}

	key := cache.Key(r.URL.Path, r.URL.Query(), s.deps.Ledger.Store().Version())
	body, err := s.deps.Cache.GetOrCompute(key, build)
	if err != nil {
		writeError(w, r, err)
		return
	}
	applog.FromContext(r.Context()).DebugContext(r.Context(), "Aggregation served", "key", key)
	writeRawJSON(w, http.StatusOK, body)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.cached(w, r, func() (any, error) {
		crit, err := parseCriteria(r.URL.Query())
		if err != nil {
			return nil, err
		}
		return aggregate.Summarize(aggregate.Filter(s.deps.Ledger.Store().ListTransactions(), crit)), nil
	})
}

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	s.cached(w, r, func() (any, error) {
		crit, err := parseCriteria(r.URL.Query())
		if err != nil {
			return nil, err
		}
		snap := s.deps.Ledger.Store().Snapshot()
		return aggregate.GroupByCategory(aggregate.Filter(snap.Transactions, crit), snap.Categories), nil
	})
}

func (s *Server) handleTopCategories(w http.ResponseWriter, r *http.Request) {
	s.cached(w, r, func() (any, error) {
		limit, err := parseLimit(r.URL.Query(), "limit", defaultTop)
		if err != nil {
			return nil, err
		}
		crit, err := parseCriteria(r.URL.Query())
		if err != nil {
			return nil, err
		}
		snap := s.deps.Ledger.Store().Snapshot()
		return aggregate.TopCategories(aggregate.Filter(snap.Transactions, crit), snap.Categories, limit), nil
	})
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	s.cached(w, r, func() (any, error) {
		crit, err := parseCriteria(r.URL.Query())
		if err != nil {
			return nil, err
		}
		return aggregate.MonthlyTotals(aggregate.Filter(s.deps.Ledger.Store().ListTransactions(), crit)), nil
	})
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	s.cached(w, r, func() (any, error) {
		limit, err := parseLimit(r.URL.Query(), "limit", defaultRecent)
		if err != nil {
			return nil, err
		}
		return aggregate.Recent(s.deps.Ledger.Store().ListTransactions(), limit), nil
	})
}

package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/dvloznov/wallet-ledger/internal/api/middleware"
)

// Router wires handlers to routes.
type Router struct {
	Ledger          *LedgerHandler
	Reconciliations *ReconciliationsHandler
	Jobs            *JobsHandler
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

// Mux builds the HTTP route table.
func (rt Router) Mux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/wallets", only(http.MethodGet, rt.Ledger.ListWallets))
	mux.HandleFunc("/api/balances", only(http.MethodGet, rt.Ledger.Balances))
	mux.HandleFunc("/api/discrepancy", only(http.MethodGet, rt.Ledger.Discrepancy))
	mux.HandleFunc("/api/running-balances", only(http.MethodGet, rt.Ledger.RunningBalances))
	mux.HandleFunc("/api/reports", only(http.MethodGet, rt.Ledger.Report))
	mux.HandleFunc("/api/issues", only(http.MethodGet, rt.Ledger.Issues))

	mux.HandleFunc("/api/reconciliations", only(http.MethodPost, rt.Reconciliations.EnqueueReconciliation))
	mux.HandleFunc("/api/runs", only(http.MethodGet, rt.Reconciliations.ListRuns))

	// Jobs endpoints
	mux.HandleFunc("/api/jobs", only(http.MethodGet, rt.Jobs.ListJobs))
	mux.HandleFunc("/api/jobs/", only(http.MethodGet, func(w http.ResponseWriter, r *http.Request) {
		// Extract job ID from path
		jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
		if jobID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
			return
		}
		rt.Jobs.GetJob(w, r, jobID)
	}))

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	if rt.Metrics != nil {
		mux.Handle("/metrics", rt.Metrics)
	}

	return mux
}

// RouteLabel returns the matched route pattern for metrics labels.
// It must be read after the mux has served the request.
func RouteLabel(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	return "unmatched"
}

func only(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h(w, r)
	}
}

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dvloznov/wallet-ledger/internal/api/middleware"
	"github.com/dvloznov/wallet-ledger/internal/bigquery"
	"github.com/dvloznov/wallet-ledger/internal/domain"
	"github.com/dvloznov/wallet-ledger/internal/jobs"
	"github.com/dvloznov/wallet-ledger/internal/ledger"
	"github.com/dvloznov/wallet-ledger/internal/snapshot"
	"github.com/rs/zerolog"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

// Balance kinds accepted by GET /api/balances.
const (
	KindAll      = "all"
	KindPhysical = "physical"
	KindLogical  = "logical"
)

// LedgerHandler serves read-only reconciliation views computed from the ledger.
type LedgerHandler struct {
	loader    snapshot.Loader
	tolerance float64
	log       zerolog.Logger
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(loader snapshot.Loader, tolerance float64, log zerolog.Logger) *LedgerHandler {
	return &LedgerHandler{
		loader:    loader,
		tolerance: tolerance,
		log:       log,
	}
}

// load parses the cutoff query parameter and loads the ledger.
// It writes the error response itself and returns ok=false on failure.
func (h *LedgerHandler) load(w http.ResponseWriter, r *http.Request) (l *snapshot.Ledger, cutoff *time.Time, ok bool) {
	cutoff, err := domain.ParseCutoff(r.URL.Query().Get("cutoff"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid cutoff, expected YYYY-MM-DD or RFC 3339")
		return nil, nil, false
	}

	l, err = h.loader.LoadLedger(r.Context(), cutoff)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load ledger")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load ledger")
		return nil, nil, false
	}
	return l, cutoff, true
}

// filter resolves the wallet_id query parameter. Unknown wallets are a 404.
func (h *LedgerHandler) filter(w http.ResponseWriter, r *http.Request, wallets []domain.Wallet) (domain.WalletFilter, bool) {
	walletID := r.URL.Query().Get("wallet_id")
	if walletID != "" {
		if _, known := domain.IndexWallets(wallets)[walletID]; !known {
			middleware.WriteError(w, http.StatusNotFound, "Wallet not found")
			return domain.WalletFilter{}, false
		}
	}
	return domain.FilterFor(walletID, wallets), true
}

func (h *LedgerHandler) report(w http.ResponseWriter, r *http.Request) (*ledger.Report, bool) {
	l, cutoff, ok := h.load(w, r)
	if !ok {
		return nil, false
	}
	f, ok := h.filter(w, r, l.Wallets)
	if !ok {
		return nil, false
	}
	return ledger.BuildReport(l.Wallets, l.Transactions, ledger.ReportOptions{
		Cutoff:    cutoff,
		Filter:    f,
		Tolerance: h.tolerance,
	}), true
}

// ListWallets handles GET /api/wallets
func (h *LedgerHandler) ListWallets(w http.ResponseWriter, r *http.Request) {
	l, err := h.loader.LoadLedger(r.Context(), nil)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list wallets")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list wallets")
		return
	}

	wallets := l.Wallets
	if wallets == nil {
		wallets = []domain.Wallet{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"wallets": wallets,
		"count":   len(wallets),
	})
}

// Balances handles GET /api/balances?cutoff=&wallet_id=&kind=all|physical|logical
func (h *LedgerHandler) Balances(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	if kind == "" {
		kind = KindAll
	}
	if kind != KindAll && kind != KindPhysical && kind != KindLogical {
		middleware.WriteError(w, http.StatusBadRequest, "kind must be one of all, physical, logical")
		return
	}

	l, cutoff, ok := h.load(w, r)
	if !ok {
		return
	}
	f, ok := h.filter(w, r, l.Wallets)
	if !ok {
		return
	}

	resp := map[string]interface{}{
		"cutoff": cutoff,
		"filter": f.String(),
	}
	if kind != KindLogical {
		resp["physical"] = ledger.ReconstructPhysicalBalances(l.Wallets, l.Transactions, cutoff, f)
	}
	if kind != KindPhysical {
		resp["logical"] = ledger.ReconstructLogicalBalances(l.Wallets, l.Transactions, cutoff, f)
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

// Discrepancy handles GET /api/discrepancy?cutoff=
func (h *LedgerHandler) Discrepancy(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.report(w, r)
	if !ok {
		return
	}

	resp := map[string]interface{}{
		"cutoff":         rep.Cutoff,
		"discrepancy":    rep.Discrepancy,
		"total_physical": rep.TotalPhysical,
		"total_logical":  rep.TotalLogical,
	}
	if rep.Discrepancy {
		resp["transaction_id"] = rep.DiscrepancyTransactionID
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

// RunningBalances handles GET /api/running-balances?cutoff=
func (h *LedgerHandler) RunningBalances(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.report(w, r)
	if !ok {
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"cutoff": rep.Cutoff,
		"rows":   rep.RunningBalances,
		"count":  len(rep.RunningBalances),
	})
}

// Report handles GET /api/reports?cutoff=&wallet_id=
func (h *LedgerHandler) Report(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.report(w, r)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, rep)
}

// Issues handles GET /api/issues
func (h *LedgerHandler) Issues(w http.ResponseWriter, r *http.Request) {
	l, err := h.loader.LoadLedger(r.Context(), nil)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load ledger")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load ledger")
		return
	}

	issues := ledger.Validate(l.Wallets, l.Transactions)
	if issues == nil {
		issues = []ledger.Issue{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"issues": issues,
		"count":  len(issues),
	})
}

// ReconciliationsHandler enqueues reconciliations and lists persisted runs.
type ReconciliationsHandler struct {
	publisher jobs.Publisher
	runs      bigquery.RunRepository
	log       zerolog.Logger
}

// NewReconciliationsHandler creates a new reconciliations handler. runs may be nil.
func NewReconciliationsHandler(publisher jobs.Publisher, runs bigquery.RunRepository, log zerolog.Logger) *ReconciliationsHandler {
	return &ReconciliationsHandler{
		publisher: publisher,
		runs:      runs,
		log:       log,
	}
}

// EnqueueReconciliation handles POST /api/reconciliations
func (h *ReconciliationsHandler) EnqueueReconciliation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Cutoff   string `json:"cutoff"`
		WalletID string `json:"wallet_id"`
	}

	// An empty body reconciles current balances for all wallets.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cutoff, err := domain.ParseCutoff(req.Cutoff)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid cutoff, expected YYYY-MM-DD or RFC 3339")
		return
	}

	job := &jobs.ReconcileJob{
		Cutoff:   cutoff,
		WalletID: req.WalletID,
	}

	if err := h.publisher.PublishReconcile(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue reconciliation job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue reconciliation job")
		return
	}
	jobID, status := job.JobID, job.Status

	h.log.Info().
		Str("job_id", jobID).
		Str("cutoff", domain.FormatCutoff(cutoff)).
		Str("wallet_id", req.WalletID).
		Msg("Reconciliation job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": jobID,
		"status": string(status),
	})
}

// ListRuns handles GET /api/runs?limit=
func (h *ReconciliationsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Run history is not configured")
		return
	}

	limit := defaultRunsLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 {
			limit = min(n, maxRunsLimit)
		}
	}

	runs, err := h.runs.ListReconciliationRuns(r.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list reconciliation runs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list reconciliation runs")
		return
	}

	if runs == nil {
		runs = []*bigquery.ReconciliationRunRow{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if errors.Is(err, jobs.ErrJobNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Parse query parameters
	query := r.URL.Query()
	filter := jobs.JobFilter{
		WalletID: query.Get("wallet_id"),
		Status:   jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}

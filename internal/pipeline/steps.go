package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	bq "github.com/dvloznov/wallet-ledger/internal/bigquery"
	"github.com/dvloznov/wallet-ledger/internal/domain"
	"github.com/dvloznov/wallet-ledger/internal/ledger"
	"github.com/dvloznov/wallet-ledger/internal/logger"
	"github.com/dvloznov/wallet-ledger/internal/metrics"
)

// Step 1: StartRunStep records a run with status=RUNNING.
type StartRunStep struct {
	Runs RunRepository
}

func (s *StartRunStep) Execute(ctx context.Context, state *PipelineState) error {
	runID, err := s.Runs.StartReconciliationRun(ctx, bq.RunParams{
		Cutoff:   state.Params.Cutoff,
		WalletID: state.Params.WalletID,
		Source:   state.Params.Source,
	})
	if err != nil {
		return fmt.Errorf("StartRunStep: %w", err)
	}
	state.RunID = runID
	return nil
}

// Step 2: LoadLedgerStep loads wallets and transactions.
type LoadLedgerStep struct {
	Loader LedgerLoader
}

func (s *LoadLedgerStep) Execute(ctx context.Context, state *PipelineState) error {
	l, err := s.Loader.LoadLedger(ctx, state.Params.Cutoff)
	if err != nil {
		return fmt.Errorf("LoadLedgerStep: %w", err)
	}
	state.Ledger = l

	log := logger.FromContext(ctx)
	log.Debug().
		Str("run_id", state.RunID).
		Int("wallets", len(l.Wallets)).
		Int("transactions", len(l.Transactions)).
		Msg("ledger loaded")
	return nil
}

// Step 3: ValidateStep records data-quality issues. It never fails the run.
type ValidateStep struct{}

func (s *ValidateStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Issues = ledger.Validate(state.Ledger.Wallets, state.Ledger.Transactions)
	if len(state.Issues) > 0 {
		log := logger.FromContext(ctx)
		log.Warn().
			Str("run_id", state.RunID).
			Int("issues", len(state.Issues)).
			Msg("ledger has data-quality issues")
	}
	return nil
}

// Step 4: AnalyzeStep replays the ledger and locates the first discrepancy.
type AnalyzeStep struct {
	Metrics metrics.Recorder
}

func (s *AnalyzeStep) Execute(ctx context.Context, state *PipelineState) error {
	l := state.Ledger
	state.Report = ledger.BuildReport(l.Wallets, l.Transactions, ledger.ReportOptions{
		Cutoff:    state.Params.Cutoff,
		Filter:    domain.FilterFor(state.Params.WalletID, l.Wallets),
		Tolerance: state.Params.Tolerance,
	})

	if s.Metrics != nil {
		s.Metrics.RecordDiscrepancy(state.Report.Discrepancy)
		s.Metrics.RecordTotals(state.Report.TotalPhysical, state.Report.TotalLogical)
	}
	return nil
}

// Step 5: ExplainStep asks the explainer about a discrepancy.
// It is skipped when no explainer is configured or the ledger balances; explainer
// errors are logged and do not fail the run.
type ExplainStep struct {
	Explainer Explainer
}

func (s *ExplainStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Explainer == nil || !state.Report.Discrepancy {
		return nil
	}

	text, err := s.Explainer.Explain(ctx, state.Report)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Warn().
			Err(err).
			Str("run_id", state.RunID).
			Str("transaction_id", state.Report.DiscrepancyTransactionID).
			Msg("ExplainStep: explanation unavailable")
		return nil
	}
	state.Explanation = text
	return nil
}

// ExportedReport is the JSON document written to storage.
type ExportedReport struct {
	RunID       string         `json:"run_id"`
	GeneratedAt time.Time      `json:"generated_at"`
	Report      *ledger.Report `json:"report"`
	Issues      []ledger.Issue `json:"issues"`
	Explanation string         `json:"explanation,omitempty"`
}

// Step 6: ExportReportStep uploads the report as JSON. Skipped without a bucket.
type ExportReportStep struct {
	Uploader ReportUploader
	Bucket   string
	Now      func() time.Time
}

func (s *ExportReportStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Uploader == nil || s.Bucket == "" {
		return nil
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	issues := state.Issues
	if issues == nil {
		issues = []ledger.Issue{}
	}
	data, err := json.MarshalIndent(ExportedReport{
		RunID:       state.RunID,
		GeneratedAt: now().UTC(),
		Report:      state.Report,
		Issues:      issues,
		Explanation: state.Explanation,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("ExportReportStep: encoding report: %w", err)
	}

	uri, err := s.Uploader.UploadBytes(ctx, s.Bucket, ReportObjectName(state.RunID, state.Params.Cutoff), ReportContentType, data)
	if err != nil {
		return fmt.Errorf("ExportReportStep: %w", err)
	}
	state.ReportURI = uri
	return nil
}

// ReportObjectName returns reports/<cutoff date or "current">/<run id>.json.
func ReportObjectName(runID string, cutoff *time.Time) string {
	return path.Join(reportPrefix, domain.FormatCutoff(cutoff), runID+".json")
}

// Step 7: MarkSuccessStep marks the run as SUCCESS and stores its outcome.
type MarkSuccessStep struct {
	Runs RunRepository
}

func (s *MarkSuccessStep) Execute(ctx context.Context, state *PipelineState) error {
	summary := bq.RunSummary{
		TotalPhysical:            state.Report.TotalPhysical,
		TotalLogical:             state.Report.TotalLogical,
		Discrepancy:              state.Report.Discrepancy,
		DiscrepancyTransactionID: state.Report.DiscrepancyTransactionID,
		IssueCount:               len(state.Issues),
		ReportURI:                state.ReportURI,
	}
	if err := s.Runs.MarkReconciliationRunSucceeded(ctx, state.RunID, summary); err != nil {
		return fmt.Errorf("MarkSuccessStep: %w", err)
	}
	return nil
}

// Package pipeline runs a reconciliation end to end: it records the run, loads the ledger,
// replays and analyses it, optionally asks a model to explain a discrepancy and exports the report.
package pipeline

import (
	"context"
	"fmt"
	"time"

	bq "github.com/dvloznov/wallet-ledger/internal/bigquery"
	"github.com/dvloznov/wallet-ledger/internal/ledger"
	"github.com/dvloznov/wallet-ledger/internal/logger"
	"github.com/dvloznov/wallet-ledger/internal/metrics"
	"github.com/dvloznov/wallet-ledger/internal/snapshot"
)

// Params selects what a reconciliation covers.
type Params struct {
	// Cutoff is nil for current balances.
	Cutoff   *time.Time
	WalletID string
	// Source describes where the ledger came from, e.g. "bigquery" or a snapshot URI.
	Source    string
	Tolerance float64
}

// Deps are the collaborators a reconciliation needs. Explainer, Uploader and Bucket are optional.
type Deps struct {
	Runs      RunRepository
	Loader    LedgerLoader
	Explainer Explainer
	Uploader  ReportUploader
	Bucket    string
	Metrics   metrics.Recorder
	Now       func() time.Time
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	Params      Params
	RunID       string
	Ledger      *snapshot.Ledger
	Issues      []ledger.Issue
	Report      *ledger.Report
	Explanation string
	ReportURI   string
}

// PipelineStep represents a single step in the reconciliation pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps     []PipelineStep
	onFailure func(ctx context.Context, state *PipelineState, err error)
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// OnFailure registers a hook called once with the wrapped error when a step fails.
func (p *Pipeline) OnFailure(fn func(ctx context.Context, state *PipelineState, err error)) *Pipeline {
	p.onFailure = fn
	return p
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			wrapped := fmt.Errorf("pipeline step %d failed: %w", i+1, err)
			if p.onFailure != nil {
				p.onFailure(ctx, state, wrapped)
			}
			return wrapped
		}
	}
	return nil
}

// NewReconciliationPipeline creates the standard 7-step reconciliation pipeline.
// A failed step marks the run FAILED when one was started.
func NewReconciliationPipeline(deps Deps) *Pipeline {
	rec := deps.recorder()
	return NewPipeline(
		&StartRunStep{Runs: deps.Runs},
		&LoadLedgerStep{Loader: deps.Loader},
		&ValidateStep{},
		&AnalyzeStep{Metrics: rec},
		&ExplainStep{Explainer: deps.Explainer},
		&ExportReportStep{Uploader: deps.Uploader, Bucket: deps.Bucket, Now: deps.now},
		&MarkSuccessStep{Runs: deps.Runs},
	).OnFailure(func(ctx context.Context, state *PipelineState, err error) {
		if state.RunID != "" {
			deps.Runs.MarkReconciliationRunFailed(ctx, state.RunID, err)
		}
	})
}

// Reconcile runs the reconciliation pipeline and returns its final state.
func Reconcile(ctx context.Context, deps Deps, params Params) (*PipelineState, error) {
	log := logger.FromContext(ctx)
	start := deps.now()
	rec := deps.recorder()

	state := &PipelineState{Params: params}
	err := NewReconciliationPipeline(deps).Execute(ctx, state)
	if err != nil {
		rec.RecordRun(bq.RunStatusFailed, deps.now().Sub(start))
		log.Error().Err(err).Str("run_id", state.RunID).Msg("reconciliation failed")
		return state, fmt.Errorf("Reconcile: %w", err)
	}

	rec.RecordRun(bq.RunStatusSuccess, deps.now().Sub(start))
	log.Info().
		Str("run_id", state.RunID).
		Bool("discrepancy", state.Report.Discrepancy).
		Str("transaction_id", state.Report.DiscrepancyTransactionID).
		Int("issues", len(state.Issues)).
		Msg("reconciliation finished")
	return state, nil
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d Deps) recorder() metrics.Recorder {
	if d.Metrics != nil {
		return d.Metrics
	}
	return metrics.NoOp{}
}

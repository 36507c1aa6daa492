package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/wallet-ledger/internal/jobs"
	"github.com/dvloznov/wallet-ledger/internal/logger"
)

// JobHandler runs a reconciliation for each ReconcileJob and records its outcome on the job.
func JobHandler(deps Deps, source string, tolerance float64) jobs.JobHandler {
	return func(ctx context.Context, job jobs.Job) error {
		rj, ok := job.(*jobs.ReconcileJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		ctx = logger.WithContext(ctx, logger.FromContext(ctx).With().Str("job_id", rj.JobID).Logger())

		state, err := Reconcile(ctx, deps, Params{
			Cutoff:    rj.Cutoff,
			WalletID:  rj.WalletID,
			Source:    source,
			Tolerance: tolerance,
		})
		rj.RunID = state.RunID
		if err != nil {
			return err
		}

		rj.Discrepancy = state.Report.Discrepancy
		rj.DiscrepancyTransactionID = state.Report.DiscrepancyTransactionID
		rj.ReportURI = state.ReportURI
		return nil
	}
}

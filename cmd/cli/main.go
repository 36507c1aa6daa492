package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"text/tabwriter"
	"time"

	bq "github.com/dvloznov/wallet-ledger/internal/bigquery"
	"github.com/dvloznov/wallet-ledger/internal/config"
	"github.com/dvloznov/wallet-ledger/internal/domain"
	"github.com/dvloznov/wallet-ledger/internal/gcsuploader"
	infraBQ "github.com/dvloznov/wallet-ledger/internal/infra/bigquery"
	"github.com/dvloznov/wallet-ledger/internal/ledger"
	"github.com/dvloznov/wallet-ledger/internal/logger"
	"github.com/dvloznov/wallet-ledger/internal/snapshot"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewWithLevel(cfg.LogLevel)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "balances", "discrepancy", "running", "report", "validate":
		runView(log, cfg, os.Args[1], os.Args[2:])
	case "upload":
		runUpload(log, cfg, os.Args[2:])
	case "import":
		runImport(log, cfg, os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Wallet Ledger CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  balances     Reconstruct physical and logical balances at a cutoff")
	fmt.Println("  discrepancy  Find the transaction where physical and logical totals diverged")
	fmt.Println("  running      Print running physical/logical totals per transaction")
	fmt.Println("  report       Print the full reconciliation report")
	fmt.Println("  validate     List data-quality issues in the ledger")
	fmt.Println("  upload       Upload a ledger snapshot to GCS")
	fmt.Println("  import       Load a snapshot into BigQuery")
	fmt.Println("  help         Show this help message")
	fmt.Println("\nThe ledger is read from BigQuery unless -snapshot PATH|gs://bucket/object is given.")
	fmt.Println("Run 'cli <command> -h' for more information on a command.")
}

// viewOptions are the flags shared by the read-only commands.
type viewOptions struct {
	snapshot  string
	cutoff    *time.Time
	walletID  string
	asJSON    bool
	tolerance float64
}

func runView(log zerolog.Logger, cfg *config.Config, command string, args []string) {
	fs := flag.NewFlagSet(command, flag.ExitOnError)
	snapPath := fs.String("snapshot", "", "Snapshot path or gs:// URI (default: BigQuery)")
	cutoffStr := fs.String("cutoff", "", "Cutoff as YYYY-MM-DD or RFC 3339 (default: current balances)")
	walletID := fs.String("wallet", "", "Restrict balances to one wallet ID")
	asJSON := fs.Bool("json", false, "Print JSON instead of a table")
	fs.Parse(args)

	cutoff, err := domain.ParseCutoff(*cutoffStr)
	if err != nil {
		log.Fatal().Err(err).Msg("Error: invalid -cutoff")
	}
	opts := viewOptions{snapshot: *snapPath, cutoff: cutoff, walletID: *walletID, asJSON: *asJSON, tolerance: cfg.Tolerance}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	loader, closeFn := openLoader(ctx, log, cfg, opts.snapshot)
	defer closeFn()

	l, err := loader.LoadLedger(ctx, cutoff)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load ledger")
	}

	if err := render(os.Stdout, command, l, opts); err != nil {
		log.Fatal().Err(err).Msg("Failed to render output")
	}
}

// openLoader returns a snapshot loader when source is set, BigQuery otherwise.
func openLoader(ctx context.Context, log zerolog.Logger, cfg *config.Config, source string) (snapshot.Loader, func()) {
	if source != "" {
		return snapshot.FileLoader{Source: source, Storage: gcsuploader.NewGCSStorageService()}, func() {}
	}
	repo := openRepository(ctx, log, cfg)
	return snapshot.RepositoryLoader{Repo: repo}, func() { repo.Close() }
}

func openRepository(ctx context.Context, log zerolog.Logger, cfg *config.Config) *infraBQ.BigQueryLedgerRepository {
	if err := cfg.Require("gcp.project"); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	repo, err := infraBQ.NewBigQueryLedgerRepository(ctx, infraBQ.Dataset{ProjectID: cfg.GCP.ProjectID, Name: cfg.GCP.Dataset})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create ledger repository")
	}
	return repo
}

// render writes the output of a read-only command.
func render(w io.Writer, command string, l *snapshot.Ledger, opts viewOptions) error {
	if command == "validate" {
		issues := ledger.Validate(l.Wallets, l.Transactions)
		if opts.asJSON {
			return writeJSON(w, issues)
		}
		if len(issues) == 0 {
			fmt.Fprintln(w, "No issues found.")
			return nil
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "KIND\tMESSAGE")
		for _, is := range issues {
			fmt.Fprintf(tw, "%s\t%s\n", is.Kind, is.Message)
		}
		return tw.Flush()
	}

	if opts.walletID != "" {
		if _, ok := domain.IndexWallets(l.Wallets)[opts.walletID]; !ok {
			return fmt.Errorf("wallet %q not found", opts.walletID)
		}
	}

	rep := ledger.BuildReport(l.Wallets, l.Transactions, ledger.ReportOptions{
		Cutoff:    opts.cutoff,
		Filter:    domain.FilterFor(opts.walletID, l.Wallets),
		Tolerance: opts.tolerance,
	})

	switch command {
	case "balances":
		if opts.asJSON {
			return writeJSON(w, map[string]interface{}{"physical": rep.PhysicalBalances, "logical": rep.LogicalBalances})
		}
		return writeBalances(w, l.Wallets, rep)
	case "discrepancy":
		if opts.asJSON {
			return writeJSON(w, map[string]interface{}{"discrepancy": rep.Discrepancy, "transaction_id": rep.DiscrepancyTransactionID})
		}
		writeDiscrepancy(w, rep)
		return nil
	case "running":
		if opts.asJSON {
			return writeJSON(w, rep.RunningBalances)
		}
		return writeRunning(w, rep.RunningBalances)
	case "report":
		if opts.asJSON {
			return writeJSON(w, rep)
		}
		fmt.Fprintf(w, "Reconciliation report (%s, %s)\n\n", domain.FormatCutoff(rep.Cutoff), rep.Filter)
		if err := writeBalances(w, l.Wallets, rep); err != nil {
			return err
		}
		fmt.Fprintln(w)
		writeComposition(w, rep.Composition)
		fmt.Fprintln(w)
		writeDiscrepancy(w, rep)
		return nil
	}
	return fmt.Errorf("unknown command %q", command)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeBalances(w io.Writer, wallets []domain.Wallet, rep *ledger.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "TYPE\tWALLET\tNAME\tBALANCE\t")
	for _, section := range []struct {
		kind     domain.WalletType
		balances map[string]float64
	}{
		{domain.WalletTypePhysical, rep.PhysicalBalances},
		{domain.WalletTypeLogical, rep.LogicalBalances},
	} {
		for _, wallet := range sortedWallets(wallets, section.balances) {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", section.kind, wallet.ID, wallet.Name, ledger.FormatAmount(section.balances[wallet.ID]))
		}
	}
	fmt.Fprintf(tw, "TOTAL\tPHYSICAL\t\t%s\t\n", ledger.FormatAmount(rep.TotalPhysical))
	fmt.Fprintf(tw, "TOTAL\tLOGICAL\t\t%s\t\n", ledger.FormatAmount(rep.TotalLogical))
	return tw.Flush()
}

func writeComposition(w io.Writer, composition map[domain.PhysicalForm]float64) {
	forms := make([]string, 0, len(composition))
	for f := range composition {
		forms = append(forms, string(f))
	}
	sort.Strings(forms)
	fmt.Fprintln(w, "Composition:")
	for _, f := range forms {
		fmt.Fprintf(w, "  %-16s %s\n", f, ledger.FormatAmount(composition[domain.PhysicalForm(f)]))
	}
}

func writeDiscrepancy(w io.Writer, rep *ledger.Report) {
	if !rep.Discrepancy {
		fmt.Fprintln(w, "Physical and logical totals are balanced.")
		return
	}
	fmt.Fprintf(w, "Discrepancy: totals diverge from transaction %s (physical %s, logical %s).\n",
		rep.DiscrepancyTransactionID, ledger.FormatAmount(rep.TotalPhysical), ledger.FormatAmount(rep.TotalLogical))
}

func writeRunning(w io.Writer, rows []ledger.TransactionWithBalances) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tTRANSACTION\tTYPE\tAMOUNT\tPHYSICAL\tLOGICAL\tDIFF")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			row.Transaction.Date.UTC().Format(time.DateTime),
			row.Transaction.ID,
			row.Transaction.Type,
			ledger.FormatAmount(row.Transaction.Magnitude()),
			ledger.FormatAmount(row.PhysicalBalance),
			ledger.FormatAmount(row.LogicalBalance),
			ledger.FormatAmount(row.Difference),
		)
	}
	return tw.Flush()
}

// sortedWallets returns the wallets present in balances ordered by ID.
func sortedWallets(wallets []domain.Wallet, balances map[string]float64) []domain.Wallet {
	var out []domain.Wallet
	for _, w := range wallets {
		if _, ok := balances[w.ID]; ok {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func runUpload(log zerolog.Logger, cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	bucketName := fs.String("bucket", cfg.GCP.Bucket, "GCS bucket name (or set GCS_BUCKET)")
	objectName := fs.String("object", "", "GCS object name (default: snapshots/<date>.json)")
	filePath := fs.String("file", "", "Local snapshot to upload (default: take a snapshot from BigQuery)")
	fs.Parse(args)

	if *bucketName == "" {
		log.Fatal().Msg("Usage: cli upload -bucket NAME [-file PATH] [-object NAME]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	var l *snapshot.Ledger
	var err error
	if *filePath != "" {
		l, err = snapshot.FileLoader{Source: *filePath}.LoadLedger(ctx, nil)
	} else {
		repo := openRepository(ctx, log, cfg)
		defer repo.Close()
		l, err = snapshot.RepositoryLoader{Repo: repo}.LoadLedger(ctx, nil)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load ledger")
	}

	data, err := l.Encode()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to encode snapshot")
	}

	if *objectName == "" {
		*objectName = snapshotObjectName(l.TakenAt)
	}

	log.Info().
		Str("bucket", *bucketName).
		Str("object", *objectName).
		Int("wallets", len(l.Wallets)).
		Int("transactions", len(l.Transactions)).
		Msg("Uploading snapshot to GCS")

	uri, err := gcsuploader.UploadBytes(ctx, *bucketName, *objectName, "application/json", data)
	if err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("Uploaded snapshot to %s\n", uri)
}

// snapshotObjectName is snapshots/<YYYY-MM-DD>.json for the snapshot time, or today when unset.
func snapshotObjectName(takenAt *time.Time) string {
	t := time.Now().UTC()
	if takenAt != nil {
		t = takenAt.UTC()
	}
	return path.Join("snapshots", t.Format(domain.DateLayout)+".json")
}

func runImport(log zerolog.Logger, cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	snapPath := fs.String("snapshot", "", "Snapshot path or gs:// URI (required)")
	replace := fs.Bool("replace", false, "Replace existing wallets and transactions instead of appending")
	fs.Parse(args)

	if *snapPath == "" {
		log.Fatal().Msg("Error: -snapshot is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	l, err := snapshot.FileLoader{Source: *snapPath, Storage: gcsuploader.NewGCSStorageService()}.LoadLedger(ctx, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load snapshot")
	}

	if issues := ledger.Validate(l.Wallets, l.Transactions); len(issues) > 0 {
		log.Warn().Int("issues", len(issues)).Msg("Snapshot has data-quality issues; run 'cli validate' for details")
	}

	repo := openRepository(ctx, log, cfg)
	defer repo.Close()

	if *replace {
		log.Warn().Msg("Replacing existing wallets and transactions")
	}

	if err := importLedger(ctx, repo, l, time.Now().UTC(), *replace); err != nil {
		log.Fatal().Err(err).Msg("Import failed")
	}

	fmt.Printf("Imported %d wallets and %d transactions.\n", len(l.Wallets), len(l.Transactions))
}

// importLedger writes a snapshot through w.
func importLedger(ctx context.Context, w bq.LedgerWriter, l *snapshot.Ledger, created time.Time, replace bool) error {
	walletRows := make([]*bq.WalletRow, 0, len(l.Wallets))
	for _, wallet := range l.Wallets {
		walletRows = append(walletRows, bq.WalletRowFromDomain(wallet))
	}

	txRows := make([]*bq.TransactionRow, 0, len(l.Transactions))
	for _, tx := range l.Transactions {
		txRows = append(txRows, bq.TransactionRowFromDomain(tx, created))
	}

	if err := w.ImportLedger(ctx, walletRows, txRows, replace); err != nil {
		return fmt.Errorf("importLedger: %w", err)
	}
	return nil
}

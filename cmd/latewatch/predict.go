package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/MohaMazouz/latewatch/internal/common"
	"github.com/MohaMazouz/latewatch/internal/storage"
)

func predictCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "predict [file]",
		Short: "Predict delay classes and amount at risk",
		Long: `Predict runs the feature pipeline against the stored model's schema and
prints each invoice's predicted delay class and amount at risk. Fails when
no model has been trained yet.

With no file argument, prediction runs on the invoices already in storage.

Examples:
  latewatch predict invoices.xlsx
  latewatch predict`,
		Args: cobra.MaximumNArgs(1),
		RunE: runPredict,
	}
}

func runPredict(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	pipeline, store, cfg, err := setup(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	invoices, err := loadInvoices(ctx, pipeline, store, cfg, path)
	if err != nil {
		return err
	}

	results, _, err := pipeline.Predict(ctx, invoices)
	if err != nil {
		return err
	}

	fmt.Printf("%-14s %-16s %-22s %12s %10s %12s\n",
		"invoice", "client", "prediction", "amount", "days late", "at risk")
	totalAtRisk := 0.0
	for _, r := range results {
		fmt.Printf("%-14s %-16s %-22s %12.2f %10d %12.2f\n",
			r.InvoiceID, r.ClientID, r.Label, r.AmountInclTax, r.DaysLate, r.AmountAtRisk)
		totalAtRisk += r.AmountAtRisk
	}
	fmt.Printf("\nTotal at risk: %.2f across %d invoices\n", totalAtRisk, len(results))

	run := storage.PredictionRun{
		ID:           uuid.New().String(),
		CreatedAt:    cfg.Now(),
		InvoiceCount: len(results),
		TotalAtRisk:  totalAtRisk,
	}
	if artifact := pipeline.CurrentArtifact(); artifact != nil {
		run.ArtifactID = artifact.ID
	}
	if err := store.SaveRun(ctx, run); err != nil {
		common.LogError(err, "Failed to record prediction run", common.Fields{"run_id": run.ID})
	}
	return nil
}

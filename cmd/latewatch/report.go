package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [file]",
		Short: "Merged rule + model risk report",
		Long: `Report combines rule-engine categories with model predictions: the
per-client majority predicted class, the highest-exposure invoices, and
descriptive statistics per predicted category.

Examples:
  latewatch report invoices.xlsx
  latewatch report --top 20`,
		Args: cobra.MaximumNArgs(1),
		RunE: runReport,
	}

	cmd.Flags().Int("top", 0, "Number of top at-risk invoices to show (0 = default)")
	_ = viper.BindPFlag("pipeline.top_n", cmd.Flags().Lookup("top"))

	return cmd
}

func runReport(cmd *cobra.Command, args []string) error {
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

	_, summary, err := pipeline.Predict(ctx, invoices)
	if err != nil {
		return err
	}

	fmt.Printf("Top invoices by amount at risk\n")
	for _, r := range summary.TopAtRisk {
		fmt.Printf("  %-14s %-24s rule=%-16s %-22s %12.2f at risk %12.2f\n",
			r.InvoiceID, r.ClientName, r.RuleCategory, r.Label, r.AmountInclTax, r.AmountAtRisk)
	}

	fmt.Printf("\nPredicted categories\n")
	for _, c := range summary.ByCategory {
		fmt.Printf("  %-22s count=%-5d mean=%.2f max=%.2f mean delay=%.1f days  at risk=%.2f\n",
			c.Label, c.Count, c.MeanAmount, c.MaxAmount, c.MeanDaysLate, c.TotalAtRisk)
	}

	fmt.Printf("\nClients by predicted exposure\n")
	for _, c := range summary.Clients {
		fmt.Printf("  %-16s %-24s majority=%-22s invoices=%-4d at risk=%.2f\n",
			c.ClientID, c.ClientName, c.MajorityLabel, c.InvoiceCount, c.TotalAtRisk)
	}

	runs, err := store.RecentRuns(ctx, 5)
	if err != nil {
		return err
	}
	if len(runs) > 0 {
		fmt.Printf("\nRecent prediction runs\n")
		for _, run := range runs {
			fmt.Printf("  %s  %s  invoices=%-5d at risk=%.2f\n",
				run.CreatedAt.Format("2006-01-02"), run.ID, run.InvoiceCount, run.TotalAtRisk)
		}
	}
	return nil
}

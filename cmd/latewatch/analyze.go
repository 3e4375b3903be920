package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MohaMazouz/latewatch/internal/ingest"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Apply delay rules and client risk scoring to an invoice export",
		Long: `Analyze normalizes a raw invoice export (.xlsx or .csv), applies the
payment-delay rules, aggregates client risk against cautions, and prints
portfolio KPIs plus the prioritized collection worklist.

Examples:
  latewatch analyze invoices.xlsx
  latewatch analyze invoices.xlsx --save
  latewatch analyze invoices.csv --as-of 2025-06-30`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyze,
	}

	cmd.Flags().Bool("save", false, "Persist the normalized invoices")
	_ = viper.BindPFlag("analyze.save", cmd.Flags().Lookup("save"))

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	pipeline, store, _, err := setup(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	table, err := ingest.ReadFile(args[0])
	if err != nil {
		return err
	}

	result, err := pipeline.Analyze(table)
	if err != nil {
		return err
	}

	if viper.GetBool("analyze.save") {
		if err := store.SaveInvoices(ctx, result.Invoices); err != nil {
			return err
		}
		fmt.Printf("Saved %d invoices\n", len(result.Invoices))
	}

	k := result.KPIs
	fmt.Printf("\nPortfolio\n")
	fmt.Printf("  invoices: %d  clients: %d  total incl. tax: %.2f  mean invoice: %.2f\n",
		k.InvoiceCount, k.ClientCount, k.TotalInclTax, k.MeanInvoice)
	fmt.Printf("  on time: %d  late: %d  excessive: %d  late rate: %.1f%%\n",
		k.OnTimeCount, k.LateCount, k.ExcessiveCount, k.GlobalLateRate*100)
	fmt.Printf("  unpaid: %d  outstanding: %.2f  mean delay: %.1f days  oldest: %d days\n",
		k.UnpaidCount, k.UnpaidOutstanding, k.UnpaidMeanDays, k.OldestUnpaidDays)

	fmt.Printf("\nClients by risk\n")
	for _, p := range result.Profiles {
		fmt.Printf("  %-16s %-24s %-14s score=%d outstanding=%.2f overrun=%.2f avg delay=%.1f\n",
			p.ClientID, p.ClientName, p.Risk, p.RiskScore, p.TotalOutstanding, p.Overrun, p.AverageDaysLate)
	}

	a := result.Actions
	if len(a.Urgent) > 0 {
		fmt.Printf("\nUrgent\n")
		for _, act := range a.Urgent {
			fmt.Printf("  %s (%s): %s [outstanding %.2f, overrun %.2f]\n",
				act.ClientName, act.ClientID, act.Action, act.Outstanding, act.Overrun)
		}
	}
	if len(a.Important) > 0 {
		fmt.Printf("\nImportant\n")
		for _, act := range a.Important {
			fmt.Printf("  invoice %s (%s): %s [%.2f, %d days late]\n",
				act.InvoiceID, act.ClientName, act.Action, act.Amount, act.DaysLate)
		}
	}
	if len(a.Watch) > 0 {
		fmt.Printf("\nWatch\n")
		for _, act := range a.Watch {
			fmt.Printf("  invoice %s (%s): %s [%.2f, %d days late]\n",
				act.InvoiceID, act.ClientName, act.Action, act.Amount, act.DaysLate)
		}
	}

	return nil
}

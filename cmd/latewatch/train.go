package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func trainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train [file]",
		Short: "Train the delay prediction model",
		Long: `Train builds the 3-class delay target from the rule engine, engineers the
feature table, rebalances the rare excessive-delay class, fits the
gradient-boosted classifier and stores the artifact with its feature schema.

With no file argument, training runs on the invoices already in storage.

Examples:
  latewatch train invoices.xlsx
  latewatch train --rounds 120
  latewatch train invoices.xlsx --as-of 2025-06-30`,
		Args: cobra.MaximumNArgs(1),
		RunE: runTrain,
	}

	cmd.Flags().Int("rounds", 0, "Boosting rounds (0 = default)")
	cmd.Flags().Float64("learning-rate", 0, "Boosting learning rate (0 = default)")
	cmd.Flags().Bool("no-progress", false, "Disable the progress bar")
	_ = viper.BindPFlag("training.rounds", cmd.Flags().Lookup("rounds"))
	_ = viper.BindPFlag("training.learning_rate", cmd.Flags().Lookup("learning-rate"))
	_ = viper.BindPFlag("training.no_progress", cmd.Flags().Lookup("no-progress"))

	return cmd
}

func runTrain(cmd *cobra.Command, args []string) error {
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

	artifact, diag, err := pipeline.Train(ctx, invoices)
	if err != nil {
		return err
	}

	if err := store.SaveArtifact(ctx, artifact, diag); err != nil {
		return err
	}

	fmt.Printf("Trained model %s on %d invoices\n\n%s", artifact.ID, len(invoices), diag)
	return nil
}

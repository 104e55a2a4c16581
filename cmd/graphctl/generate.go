package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/champtc/cyio-graph/internal/generator"
)

func generateCmd() *cobra.Command {
	cfg := generator.DefaultConfig()
	var output string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic STIX dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.ReportShareChance = clampProbability(cfg.ReportShareChance)
			cfg.MarkingChance = clampProbability(cfg.MarkingChance)

			dataset, err := generator.New(cfg).Generate(cmd.Context())
			if err != nil {
				return fmt.Errorf("generate dataset: %w", err)
			}

			if output == "" {
				return generator.EncodeDataset(dataset, cmd.OutOrStdout())
			}
			if err := generator.WriteDataset(dataset, output); err != nil {
				return err
			}
			entities, relationships, reports := dataset.Counts()
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %d entities, %d relationships, %d reports -> %s\n",
				brand.Sprint("generated"), entities, relationships, reports, output)
			return nil
		},
	}

	cmd.Flags().IntVar(&cfg.NumObjects, "objects", cfg.NumObjects, "Number of entities")
	cmd.Flags().IntVar(&cfg.NumRelationships, "relationships", cfg.NumRelationships, "Number of relationships")
	cmd.Flags().IntVar(&cfg.NumReports, "reports", cfg.NumReports, "Number of reports")
	cmd.Flags().Float64Var(&cfg.ReportShareChance, "report-chance", cfg.ReportShareChance, "Probability that an entity appears in reports")
	cmd.Flags().Float64Var(&cfg.MarkingChance, "marking-chance", cfg.MarkingChance, "Probability that a record carries a TLP marking")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed for deterministic generation")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the dataset to this file instead of stdout")
	return cmd
}

func clampProbability(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show aggregator retention, schedule and the last tick",
		RunE: func(_ *cobra.Command, _ []string) error {
			status, err := newClient().Status(context.Background())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(status)
			}
			return printStatus(os.Stdout, status)
		},
	}
}

func evaluateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate",
		Short: "Run one evaluation tick on the server now",
		Long: "Triggers an immediate evaluation of every rule. Transitions are\n" +
			"delivered to the configured sinks exactly as a scheduled tick would.",
		RunE: func(_ *cobra.Command, _ []string) error {
			report, err := newClient().Evaluate(context.Background())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(report)
			}
			return printTickReport(os.Stdout, report)
		},
	}
}

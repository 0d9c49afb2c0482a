package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func alertsCmd() *cobra.Command {
	alertsRoot := &cobra.Command{
		Use:   "alerts",
		Short: "Inspect active and resolved alerts",
	}

	alertsRoot.AddCommand(
		alertsListCmd(),
		alertsHistoryCmd(),
		alertsFeedCmd(),
	)

	return alertsRoot
}

func alertsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List open and suppressed alerts",
		Example: `  chatwatch alerts list
  chatwatch alerts list --output json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			result, err := newClient().ListAlerts(context.Background())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(result)
			}
			if len(result.Alerts) == 0 {
				fmt.Println("No active alerts.")
			} else if err := printAlertsTable(os.Stdout, result.Alerts); err != nil {
				return err
			}
			printReloadError(os.Stdout, result.LastReloadError)
			return nil
		},
	}
}

func alertsHistoryCmd() *cobra.Command {
	var (
		ruleID string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show resolved alerts, newest first",
		Example: `  chatwatch alerts history
  chatwatch alerts history --rule error-rate --limit 10`,
		RunE: func(_ *cobra.Command, _ []string) error {
			alerts, err := newClient().AlertHistory(context.Background(), ruleID, limit)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(alerts)
			}
			if len(alerts) == 0 {
				fmt.Println("No resolved alerts found.")
				return nil
			}
			return printAlertsTable(os.Stdout, alerts)
		},
	}

	cmd.Flags().StringVar(&ruleID, "rule", "", "only show alerts for this rule ID")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum alerts to show")

	return cmd
}

func alertsFeedCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Show the most recent notifications from the dashboard feed",
		RunE: func(_ *cobra.Command, _ []string) error {
			items, err := newClient().Feed(context.Background(), limit)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(items)
			}
			if len(items) == 0 {
				fmt.Println("No notifications in the feed.")
				return nil
			}
			return printNotificationsTable(os.Stdout, items)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum notifications to show")

	return cmd
}

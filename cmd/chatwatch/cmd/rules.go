package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/chatwatch/internal/rules"
)

func rulesCmd() *cobra.Command {
	rulesRoot := &cobra.Command{
		Use:   "rules",
		Short: "Validate, list and reload threshold rules",
	}

	rulesRoot.AddCommand(
		rulesValidateCmd(),
		rulesListCmd(),
		rulesReloadCmd(),
	)

	return rulesRoot
}

func rulesValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a rule file without contacting the server",
		Args:  cobra.ExactArgs(1),
		Example: `  chatwatch rules validate rules.yaml
  chatwatch rules validate rules.json --output json`,
		RunE: func(_ *cobra.Command, args []string) error {
			set, err := rules.Load(args[0])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(set)
			}
			fmt.Printf("%s: %d rule(s) OK\n\n", args[0], len(set.Rules))
			return printRulesTable(os.Stdout, set.Rules)
		},
	}
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the rules the server is evaluating",
		RunE: func(_ *cobra.Command, _ []string) error {
			set, err := newClient().ListRules(context.Background())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(set)
			}
			if len(set.Rules) == 0 {
				fmt.Println("No rules loaded.")
				return nil
			}
			return printRulesTable(os.Stdout, set.Rules)
		},
	}
}

func rulesReloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Re-read the rule file on the server",
		Long: "Asks the server to re-read its rule file. On failure the server keeps\n" +
			"evaluating the previous rules and the error is printed here.",
		RunE: func(_ *cobra.Command, _ []string) error {
			set, err := newClient().ReloadRules(context.Background())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(set)
			}
			fmt.Printf("Reloaded %d rule(s).\n", len(set.Rules))
			return nil
		},
	}
}

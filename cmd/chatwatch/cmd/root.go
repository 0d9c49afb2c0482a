// Package cmd implements the chatwatch CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	apiclient "github.com/donaldgifford/chatwatch/internal/api/client"
)

var (
	cfgFile       string
	clientCfgFile string
	rootCmd       = &cobra.Command{
		Use:   "chatwatch",
		Short: "Threshold alerting for a chat service",
		Long: "chatwatch ingests request outcomes, latency and cost from a chat service,\n" +
			"probes its health endpoint, evaluates declarative threshold rules over\n" +
			"sliding windows and delivers debounced alert notifications.",
		SilenceUsage: true,
	}
)

// Root returns the root cobra command for documentation generation.
func Root() *cobra.Command {
	return rootCmd
}

// Execute runs the root command. Any returned error exits non-zero.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().
		StringVar(&cfgFile, "config", "config.yaml", "server config file")
	rootCmd.PersistentFlags().
		StringVar(&clientCfgFile, "client-config", "", "client config file (default $HOME/.chatwatch.yaml)")
	rootCmd.PersistentFlags().
		String("server", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().
		String("output", "table", "output format (table, json)")

	cobra.CheckErr(viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server")))
	cobra.CheckErr(viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output")))

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(dryrunCmd())
	rootCmd.AddCommand(alertsCmd())
	rootCmd.AddCommand(rulesCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(evaluateCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(versionCmd())
}

func initConfig() {
	if clientCfgFile != "" {
		viper.SetConfigFile(clientCfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".chatwatch")
	}

	viper.SetEnvPrefix("CHATWATCH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func newClient() *apiclient.Client {
	return apiclient.New(viper.GetString("server"))
}

func jsonOutput() bool {
	return viper.GetString("output") == "json"
}

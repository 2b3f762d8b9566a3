package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/quarrylabs/leadharvest/internal/config"
	"github.com/quarrylabs/leadharvest/internal/logging"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leadharvest",
		Short: "A polite web crawler that extracts business leads from websites.",
		Long: `leadharvest fetches company websites under per-domain politeness limits
and robots.txt rules, extracts contact details (names, phones, emails,
addresses, social profiles) from the HTML, and persists the resulting
lead records.`,
	}

	cobra.OnInitialize(initConfig)

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches ., /etc/leadharvest, $HOME/.leadharvest)")

	cmd.AddCommand(newHarvestCmd())

	return cmd
}

// initConfig installs defaults and reads the optional config file.
func initConfig() {
	config.InitViper()
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
	if err := viper.ReadInConfig(); err == nil {
		logging.L.Info("Using config file", zap.String("path", viper.ConfigFileUsed()))
	}
}

// Execute is the main entry point.
func Execute() {
	logging.InitLogger(false)

	if err := newRootCmd().Execute(); err != nil {
		logging.L.Fatal("Command execution failed", zap.Error(err))
	}
}

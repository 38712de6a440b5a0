package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/Lumos-Labs-HQ/flowpulse/internal/config"
	ierr "github.com/Lumos-Labs-HQ/flowpulse/internal/errors"
	"github.com/Lumos-Labs-HQ/flowpulse/internal/logger"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
	verbose bool
	Version = "1.0.0"
)

func showBanner() {
	greenColor := color.New(color.FgGreen, color.Bold)

	banner := []string{
		"╔══════════════════════════════════════════════════════╗",
		"║                                                      ║",
		"║     ~~~  F L O W P U L S E  ~~~                      ║",
		"║                                                      ║",
		"║     Synthetic SaaS data: channels • customers •      ║",
		"║     subscriptions • payments • usage events          ║",
		"║                                                      ║",
		"╚══════════════════════════════════════════════════════╝",
	}

	for _, line := range banner {
		greenColor.Println(line)
	}

	fmt.Print("                   ")
	color.New(color.FgCyan, color.Bold).Print("Version: ")
	color.New(color.FgYellow, color.Bold).Printf("%s\n", Version)
}

var rootCmd = &cobra.Command{
	Use:   "flowpulse",
	Short: "Generate a relationally consistent synthetic SaaS dataset",
	Long: `
FlowPulse synthesizes a realistic SaaS business dataset for analytics
demos and tests, without any real user data.

Tables (written in dependency order):
- marketing_channels
- customers
- subscriptions
- payments
- user_events

Outputs:
- CSV files (default)
- SQLite database file
- PostgreSQL / MySQL (URL read from DATABASE_URL)`,

	SilenceUsage:  true,
	SilenceErrors: true,

	Run: func(cmd *cobra.Command, args []string) {
		showVersion, _ := cmd.Flags().GetBool("version")
		if showVersion {
			fmt.Printf("FlowPulse CLI version %s\n", Version)
			return
		}

		showBanner()
		fmt.Println()
		cmd.Help()
	},
}

// Execute runs the CLI and renders any error with its hints.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		color.Red("❌ %v", err)
		for _, hint := range ierr.Hints(err) {
			color.Yellow("💡 %s", hint)
		}
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./flowpulse.config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "Emit structured logs for every stage")
	rootCmd.PersistentFlags().BoolP("force", "f", false, "Skip confirmations")

	rootCmd.Flags().BoolP("version", "v", false, "Show CLI version")
}

func initConfig() {
	if err := godotenv.Load(); err != nil {
		godotenv.Load(".env.local")
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("flowpulse.config")
	}

	viper.SetEnvPrefix("FLOWPULSE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			fmt.Fprintf(os.Stderr, "warning: could not read config %s: %v\n", cfgFile, err)
		}
	}
}

// loadConfig loads and validates the merged file/env/flag configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	log, err := logger.New(cfg.Environment, verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return log, nil
}

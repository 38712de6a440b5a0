package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/Lumos-Labs-HQ/flowpulse/internal/config"
	"github.com/Lumos-Labs-HQ/flowpulse/internal/dataset"
	"github.com/Lumos-Labs-HQ/flowpulse/internal/generator"
	"github.com/Lumos-Labs-HQ/flowpulse/internal/sink"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the dataset and write it to the configured output",
	Long: `Generate every table in dependency order and write it to CSV files,
a SQLite file, or a PostgreSQL/MySQL database.

The same seed and parameters always produce byte-identical output,
regardless of --workers.`,
	Example: `  flowpulse generate
  flowpulse generate --customers 1000 --seed 7 --out ./data/raw
  flowpulse generate --format sqlite --out ./data
  DATABASE_URL=postgres://localhost/flowpulse flowpulse generate --format postgres --truncate`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Sync()

		force, _ := cmd.Flags().GetBool("force")
		if cfg.Output.Truncate && cfg.Output.Format != "csv" &&
			!askConfirmation(cmd.InOrStdin(), fmt.Sprintf("⚠️  This clears every FlowPulse table in the %s output. Continue?", cfg.Output.Format), force) {
			color.Yellow("Aborted")
			return nil
		}

		return runGenerate(ctx, cfg, log)
	},
}

func runGenerate(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	started := time.Now()

	color.Cyan("🌱 Generating %d customers (%s → %s, seed %d)",
		cfg.Customers.Count, cfg.Horizon.Start, cfg.Horizon.End, cfg.Seed)

	ds, order, err := buildDataset(ctx, cfg, log)
	if err != nil {
		return err
	}

	out, err := sink.New(cfg, log)
	if err != nil {
		return err
	}
	defer out.Close()

	color.Cyan("💾 Writing %s output", cfg.Output.Format)
	if err := sink.WriteAll(ctx, out, ds, order); err != nil {
		return err
	}

	fmt.Println()
	color.Green("✅ Dataset written in %s", time.Since(started).Round(time.Millisecond))
	printSummary(ds, order)
	if csvOut, ok := out.(*sink.CSV); ok {
		fmt.Println()
		fmt.Println("📁 Files:")
		for _, name := range order {
			fmt.Printf("   %s\n", csvOut.Path(name))
		}
	}
	return nil
}

// buildDataset runs the generation pipeline and returns the tables with
// the order they must be written in.
func buildDataset(ctx context.Context, cfg *config.Config, log *zap.Logger) (*dataset.Dataset, []string, error) {
	settings, err := generator.NewSettings(cfg)
	if err != nil {
		return nil, nil, err
	}

	pipeline := generator.NewPipeline(settings, cfg.Seed, log)
	pipeline.OnStage = func(res generator.StageResult) {
		color.Green("   ✓ %-20s %8d rows  (%s)", res.Name, res.Rows, res.Duration.Round(time.Millisecond))
	}

	order, err := pipeline.Order()
	if err != nil {
		return nil, nil, err
	}
	ds, err := pipeline.Run(ctx)
	if err != nil {
		return nil, nil, err
	}
	return ds, order, nil
}

func printSummary(ds *dataset.Dataset, order []string) {
	fmt.Println()
	fmt.Println("📊 Summary:")
	for _, name := range order {
		fmt.Printf("   %-20s %d\n", name, ds.Table(name).Len())
	}
}

func init() {
	rootCmd.AddCommand(generateCmd)

	def := config.Default()
	flags := generateCmd.Flags()
	flags.Int("customers", def.Customers.Count, "Number of customers to generate")
	flags.String("start", def.Horizon.Start, "First date of the horizon (YYYY-MM-DD)")
	flags.String("end", def.Horizon.End, "Last date of the horizon (YYYY-MM-DD)")
	flags.Int64("seed", def.Seed, "Master random seed")
	flags.Float64("churn-rate", def.Customers.ChurnRate, "Probability that a customer churns")
	flags.Float64("avg-events", def.Events.Average, "Mean number of events per customer")
	flags.Int("workers", def.Workers, "Parallel workers per stage (does not change output)")
	flags.StringP("out", "o", def.Output.Dir, "Output directory")
	flags.String("format", def.Output.Format, "Output format (csv, sqlite, postgres, mysql)")
	flags.Bool("truncate", def.Output.Truncate, "Clear existing rows before writing to a database")

	bindings := map[string]string{
		"customers.count":      "customers",
		"horizon.start":        "start",
		"horizon.end":          "end",
		"seed":                 "seed",
		"customers.churn_rate": "churn-rate",
		"events.average":       "avg-events",
		"workers":              "workers",
		"output.dir":           "out",
		"output.format":        "format",
		"output.truncate":      "truncate",
	}
	for key, flag := range bindings {
		viper.BindPFlag(key, flags.Lookup(flag))
	}
}

package cmd

import (
	"fmt"
	"os"
	"os/signal"

	ierr "github.com/Lumos-Labs-HQ/flowpulse/internal/errors"
	"github.com/Lumos-Labs-HQ/flowpulse/internal/integrity"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var checkLimit int

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Generate the dataset in memory and verify its invariants",
	Long: `Run the full generation pipeline without writing anything, then check
foreign keys, date ordering, payment amounts, and event windows across
every table. Exits non-zero when any violation is found.`,
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

		color.Cyan("🔍 Checking %d customers (seed %d)", cfg.Customers.Count, cfg.Seed)
		ds, order, err := buildDataset(ctx, cfg, log)
		if err != nil {
			return err
		}

		_, end, err := cfg.Horizon.Bounds()
		if err != nil {
			return err
		}
		checker := integrity.NewChecker(end, cfg.Plans.Free)
		checker.Limit = checkLimit
		violations := checker.Check(ds)

		printSummary(ds, order)
		fmt.Println()

		if len(violations) == 0 {
			color.Green("✅ All invariants hold")
			return nil
		}

		for _, v := range violations {
			color.Yellow("   ⚠ %s", v)
		}
		return ierr.NewErrorf("%d invariant violation(s) found", len(violations)).
			WithHint("rerun with --verbose to see stage logs").
			Mark(ierr.ErrIntegrity)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().IntVar(&checkLimit, "limit", 50, "Stop after this many violations (0 for no limit)")
}

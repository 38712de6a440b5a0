package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/Lumos-Labs-HQ/flowpulse/internal/dataset"
	"github.com/Lumos-Labs-HQ/flowpulse/internal/sink"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var schemaDialect string

var schemaCmd = &cobra.Command{
	Use:   "schema [table]",
	Short: "Print the column contract of every table",
	Long: `Print the ordered columns of each output table with their logical type,
nullability, and foreign-key target. With --sql, print the CREATE TABLE
statements a database sink would run instead.`,
	Example: `  flowpulse schema
  flowpulse schema payments
  flowpulse schema --sql postgres`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		schemas := dataset.Schemas()
		if len(args) == 1 {
			var found []dataset.Schema
			for _, s := range schemas {
				if s.Name == args[0] {
					found = append(found, s)
				}
			}
			if len(found) == 0 {
				return fmt.Errorf("unknown table %q", args[0])
			}
			schemas = found
		}

		if schemaDialect != "" {
			d, err := sink.DialectFor(schemaDialect)
			if err != nil {
				return err
			}
			for _, s := range schemas {
				fmt.Println(d.CreateTableSQL(s) + ";")
				fmt.Println()
			}
			return nil
		}

		for _, s := range schemas {
			color.New(color.FgCyan, color.Bold).Printf("📋 %s\n", s.Name)
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, col := range s.Columns {
				null := ""
				if col.Nullable {
					null = "nullable"
				}
				ref := ""
				if col.References != "" {
					ref = "→ " + col.References
				}
				fmt.Fprintf(w, "   %s\t%s\t%s\t%s\n", col.Name, col.Kind, null, ref)
			}
			w.Flush()
			fmt.Println()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.Flags().StringVar(&schemaDialect, "sql", "", "Print CREATE TABLE statements for a dialect (sqlite, postgres, mysql)")
}

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/Lumos-Labs-HQ/flowpulse/template"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const configFileName = "flowpulse.config.yaml"

var (
	initFormat     string
	sqliteFlag     bool
	postgresqlFlag bool
	mysqlFlag      bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a FlowPulse project",
	Long: `Write flowpulse.config.yaml with the reference parameters, create the
output directory, and add a DATABASE_URL entry to .env for database
outputs.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		outputType := template.ValidateOutputType(initFormat)
		flagCount := 0

		if sqliteFlag {
			outputType = template.SQLite
			flagCount++
		}
		if postgresqlFlag {
			outputType = template.PostgreSQL
			flagCount++
		}
		if mysqlFlag {
			outputType = template.MySQL
			flagCount++
		}

		if flagCount > 1 {
			return fmt.Errorf("please specify only one output type (--sqlite, --postgresql, or --mysql)")
		}

		force, _ := cmd.Flags().GetBool("force")
		return initializeProject(outputType, force)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&initFormat, "format", "csv", "Output format (csv, sqlite, postgres, mysql)")
	initCmd.Flags().BoolVar(&sqliteFlag, "sqlite", false, "Write output to a SQLite file")
	initCmd.Flags().BoolVar(&postgresqlFlag, "postgresql", false, "Write output to a PostgreSQL database")
	initCmd.Flags().BoolVar(&mysqlFlag, "mysql", false, "Write output to a MySQL database")
}

func initializeProject(outputType template.OutputType, force bool) error {
	tmpl := template.NewProjectTemplate(outputType)

	if _, err := os.Stat(configFileName); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configFileName)
	}

	directories := tmpl.GetDirectoryStructure()
	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	content, err := tmpl.GetConfig()
	if err != nil {
		return err
	}
	if err := os.WriteFile(configFileName, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to create file %s: %w", configFileName, err)
	}

	if env := tmpl.GetEnvTemplate(); env != "" {
		if err := handleEnvFile(env); err != nil {
			return fmt.Errorf("failed to handle .env file: %w", err)
		}
	}

	color.Green("✅ Initialized FlowPulse project with %s output", outputType)
	fmt.Println()
	fmt.Println("📁 Output directory:")
	for _, dir := range directories {
		fmt.Printf("   %s/\n", dir)
	}
	fmt.Println()
	fmt.Println("📝 Configuration file created:")
	fmt.Printf("   %s\n", configFileName)

	if outputType != template.CSV && os.Getenv("DATABASE_URL") != "" {
		fmt.Println()
		fmt.Println("ℹ️  Using existing DATABASE_URL from environment")
	}

	fmt.Println()
	fmt.Printf("🚀 Next steps:\n")
	fmt.Printf("   flowpulse check      # Verify the dataset invariants\n")
	fmt.Printf("   flowpulse generate   # Write the dataset\n")

	return nil
}

// handleEnvFile creates .env or appends DATABASE_URL to it, leaving an
// existing DATABASE_URL untouched.
func handleEnvFile(defaultEnvContent string) error {
	envPath := ".env"

	existingContent, err := os.ReadFile(envPath)
	if err != nil {
		if os.IsNotExist(err) {
			return os.WriteFile(envPath, []byte(defaultEnvContent), 0644)
		}
		return err
	}

	existingStr := string(existingContent)
	if strings.Contains(existingStr, "DATABASE_URL") {
		return nil
	}

	if len(existingStr) > 0 && !strings.HasSuffix(existingStr, "\n") {
		existingStr += "\n"
	}

	existingStr += "\n# Added by FlowPulse\n" + defaultEnvContent

	return os.WriteFile(envPath, []byte(existingStr), 0644)
}

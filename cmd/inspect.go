package cmd

import (
	"fmt"

	"db-describe/internal/dialect"
	"db-describe/internal/schema"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var failOnDrift bool

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Compare the live MS_Description values with the model",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, expected, err := loadModel()
		if err != nil {
			return err
		}

		config, err := GetActiveDBConfig()
		if err != nil {
			return err
		}
		db, err := openDatabase(config)
		if err != nil {
			return err
		}
		defer db.Close()

		d, err := dialect.GetDialect(config.Driver)
		if err != nil {
			return err
		}

		schemaName := viper.GetString("schema")
		if schemaName == "" {
			schemaName = config.Schema
		}
		schemaName = d.GetSchemaName(schemaName)

		Log.WithField("schema", schemaName).Info("Analyzing schema...")
		tables, err := schema.Analyze(db, d, schemaName)
		if err != nil {
			return err
		}
		for _, t := range tables {
			Log.WithField("table", t.Name).Debug(t.Definition())
		}

		findings := schema.Drift(tables, expected, schemaName)
		if len(findings) == 0 {
			fmt.Printf("✓ %d table(s) in %s match the model.\n", len(tables), schemaName)
			return nil
		}

		fmt.Printf("🔍 Drift in %s:\n", schemaName)
		for i, f := range findings {
			target := f.Table
			if f.Column != "" {
				target += "." + f.Column
			}
			fmt.Printf("[%02d] %-10s %-40s expected %q, found %q", i+1, f.Kind, target, f.Expected, f.Actual)
			if f.Live != "" {
				fmt.Printf(" (%s)", f.Live)
			}
			fmt.Println()
		}
		if failOnDrift {
			return fmt.Errorf("%d description(s) drifted", len(findings))
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().BoolVar(&failOnDrift, "fail-on-drift", false, "Exit with an error when any drift is found")
	inspectCmd.Flags().String("schema", "", "Schema to inspect (default: the database's schema setting, then dbo)")
	viper.BindPFlag("schema", inspectCmd.Flags().Lookup("schema"))
}

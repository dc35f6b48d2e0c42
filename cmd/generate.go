package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"db-describe/internal/dialect"
	"db-describe/internal/migrations"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var dryRun bool

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

var generateCmd = &cobra.Command{
	Use:   "generate [name]",
	Short: "Generate a migration script from the model changes since the last snapshot",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := "migration"
		if len(args) == 1 {
			name = unsafeName.ReplaceAllString(args[0], "_")
		}

		m, current, err := loadModel()
		if err != nil {
			return err
		}

		snapshotPath := viper.GetString("snapshot")
		previous, err := migrations.LoadSnapshot(snapshotPath)
		if err != nil {
			return err
		}

		ops := migrations.Diff(previous, current, Log)
		if len(ops) == 0 {
			fmt.Println("✓ No changes since the last snapshot.")
			return nil
		}

		d, err := dialect.GetDialect("sqlserver")
		if err != nil {
			return err
		}
		cmds, err := migrations.NewGenerator(d, d, Log).Generate(ops, m)
		if err != nil {
			return err
		}

		if dryRun {
			Log.Info("[SIMULATION] Dry-Run Mode Active: nothing will be written.")
			return migrations.WriteScript(os.Stdout, cmds)
		}

		dir := viper.GetString("migrations_dir")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create migrations directory: %w", err)
		}
		id := time.Now().UTC().Format("20060102150405") + "_" + name
		path := filepath.Join(dir, id+".sql")

		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create script: %w", err)
		}
		fmt.Fprintf(f, "-- migration %s\n\n", id)
		if err := migrations.WriteScript(f, cmds); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}

		if err := migrations.WriteSnapshot(snapshotPath, current); err != nil {
			return err
		}

		fmt.Printf("📝 %s: %d operation(s), %d batch(es)\n", path, len(ops), len(cmds))
		for i, op := range ops {
			fmt.Printf("[%02d] %s\n", i+1, op.Kind())
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(generateCmd)

	generateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the script without writing the script or the snapshot")
	generateCmd.Flags().String("migrations-dir", "", "Directory for generated scripts")
	viper.BindPFlag("migrations_dir", generateCmd.Flags().Lookup("migrations-dir"))
}

package cmd

import (
	"fmt"
	"os"
	"time"

	"db-describe/internal/engine"
	"db-describe/internal/migrations"

	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply <script.sql>",
	Short: "Run a generated migration script against the active database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open script: %w", err)
		}
		cmds, err := migrations.ReadScript(f)
		f.Close()
		if err != nil {
			return err
		}
		if len(cmds) == 0 {
			fmt.Println("✓ Script is empty.")
			return nil
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

		fmt.Printf("🦅 Applying %s to %s (%d batches)\n", args[0], config.Name, len(cmds))
		start := time.Now()

		uiprogress.Start()
		bar := uiprogress.AddBar(len(cmds)).AppendCompleted().PrependElapsed()
		bar.PrependFunc(func(b *uiprogress.Bar) string {
			return "Applying: "
		})

		ex := engine.NewExecutor(db, Log)
		ex.OnProgress = func() { bar.Incr() }
		results, err := ex.Execute(cmd.Context(), cmds)

		uiprogress.Stop()

		fmt.Println("\n📊 Summary Report:")
		for _, r := range results {
			mode := "tx"
			if !r.Transactional {
				mode = "no tx"
			}
			fmt.Printf("[✓] batch %02d/%02d (%s) %s\n", r.Batch, len(cmds), mode, r.Duration.Round(time.Millisecond))
		}
		fmt.Println("--------------------------------------------------")
		if err != nil {
			return fmt.Errorf("apply stopped, %d of %d batches applied: %w", len(results), len(cmds), err)
		}
		Log.Infof("Apply done! Time Elapsed: %s", time.Since(start))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(applyCmd)
}

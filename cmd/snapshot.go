package cmd

import (
	"os"

	"db-describe/internal/migrations"

	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Print the snapshot of the current model with harvested descriptions",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, s, err := loadModel()
		if err != nil {
			return err
		}
		return migrations.EncodeSnapshot(os.Stdout, s)
	},
}

func init() {
	RootCmd.AddCommand(snapshotCmd)
}

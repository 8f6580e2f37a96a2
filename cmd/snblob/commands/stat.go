package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statCmd = &cobra.Command{
	Use:   "stat [blobId]",
	Short: "Check existence and size of a blob",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]

		exists, err := SN.Provider.Exists(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("existence check failed: %w", err)
		}
		if !exists {
			fmt.Printf("❌ %s does not exist\n", id)
			return nil
		}

		size, err := SN.Store.Size(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to read size: %w", err)
		}
		fmt.Printf("✅ %s\n   size: %d bytes\n", id, size)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statCmd)
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all blob identifiers in the tenant container",
	Long:  `Enumerates the container lazily. Used for cleanup and diagnostics; the listing is consistent as of the moment the call is issued.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		count := 0
		for id, err := range SN.Provider.ListIDs(cmd.Context()) {
			if err != nil {
				return fmt.Errorf("listing failed after %d entries: %w", count, err)
			}
			fmt.Println(id)
			count++
		}
		fmt.Printf("✅ %d blob(s).\n", count)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lsCmd)
}

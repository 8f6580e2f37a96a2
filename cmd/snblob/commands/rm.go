package commands

import (
	"errors"
	"fmt"

	"github.com/SenseNet/sn-blob-azure/pkg/provider"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm [blobIds...]",
	Short: "Delete blobs unconditionally",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		count := 0
		for _, id := range args {
			tc := &provider.TransferContext{Data: provider.ProviderData{BlobID: id}}
			err := SN.Provider.Delete(cmd.Context(), tc)
			switch {
			case errors.Is(err, provider.ErrNotFound):
				// 删除不存在的对象视为已满足
				fmt.Printf("Already gone: %s\n", id)
			case err != nil:
				return fmt.Errorf("failed to delete %s: %w", id, err)
			default:
				fmt.Printf("Deleted: %s\n", id)
				count++
			}
		}
		fmt.Printf("✅ Removed %d blob(s).\n", count)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rmCmd)
}

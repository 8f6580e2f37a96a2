package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/SenseNet/sn-blob-azure/pkg/provider"

	"github.com/spf13/cobra"
)

var catOutput string

var catCmd = &cobra.Command{
	Use:   "cat [blobId]",
	Short: "Download a blob and write it to stdout (or a file)",
	Long:  `Reconstructs the blob content through the read stream. Binary content can be redirected or written with -o.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tc := &provider.TransferContext{
			Data: provider.ProviderData{BlobID: args[0], ChunkSize: SN.Provider.ChunkSize()},
		}

		stream, err := SN.Provider.GetReadStream(cmd.Context(), tc)
		if err != nil {
			return fmt.Errorf("cat failed: %w", err)
		}
		defer stream.Close()

		// 默认写 stdout，文本直接显示，二进制可以重定向
		var out io.Writer = os.Stdout
		if catOutput != "" {
			f, err := os.Create(catOutput)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}

		if _, err := io.Copy(out, stream); err != nil {
			return fmt.Errorf("cat failed: %w", err)
		}
		return nil
	},
}

func init() {
	catCmd.Flags().StringVarP(&catOutput, "output", "o", "", "write content to file instead of stdout")
	rootCmd.AddCommand(catCmd)
}

package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/SenseNet/sn-blob-azure/pkg/provider"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// 同时上传的文件数上限。
// 注意：并发只发生在不同对象之间；单个对象内部的块必须串行按序写入。
const uploadParallelism = 4

var uploadCmd = &cobra.Command{
	Use:   "upload [files...]",
	Short: "Upload files as blobs through the chunked upload protocol",
	Long:  `Each file becomes one blob. The file is pushed chunk by chunk at the configured chunk size; the blob becomes readable only after the final chunk commits the block list. Prints the provider data needed to re-locate each blob.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(uploadParallelism)

		for _, path := range args {
			g.Go(func() error {
				if err := uploadFile(ctx, path); err != nil {
					return fmt.Errorf("upload of %s failed: %w", path, err)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		fmt.Printf("✅ Uploaded %d file(s).\n", len(args))
		return nil
	},
}

// uploadFile 完整走一遍协议: Allocate -> WriteChunk... -> (最后一块触发提交)
func uploadFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	tc := &provider.TransferContext{Length: info.Size()}
	if err := SN.Provider.Allocate(ctx, tc); err != nil {
		return err
	}

	// 按约定块大小顺序推送。buffer 复用，WriteChunk 不保留引用。
	buf := make([]byte, tc.Data.ChunkSize)
	var offset int64
	for offset < info.Size() {
		n, err := io.ReadFull(f, buf)
		if err == io.ErrUnexpectedEOF {
			// 最后一个残块
			err = nil
		}
		if err != nil {
			return err
		}
		if err := SN.Provider.WriteChunk(ctx, tc, offset, buf[:n]); err != nil {
			return err
		}
		offset += int64(n)
	}

	text, err := tc.Data.Serialize()
	if err != nil {
		return err
	}
	fmt.Printf("%s -> %s\n   provider data: %s\n", path, tc.Data.BlobID, text)
	return nil
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}

package blockstore

import (
	"context"
	"errors"
	"io"
	"iter"
)

var (
	ErrNotFound = errors.New("blob not found")
)

// Store defines the interface for a block-based blob backend.
// Implementations can be the real Azure adapter, an in-memory store for tests,
// or a caching decorator wrapping either.
type Store interface {
	// StageBlock 将一个数据块暂存到指定 Blob 名下
	// 暂存的块对读者不可见，直到 CommitBlockList 把它纳入提交列表
	StageBlock(ctx context.Context, blobID, blockID string, data []byte) error

	// CommitBlockList 按给定顺序提交块列表，Blob 从这一刻起才可读
	// meta 会作为对象元数据一并写入 (审计/清理用，读路径不依赖它)
	CommitBlockList(ctx context.Context, blobID string, blockIDs []string, meta map[string]string) error

	// SetMetadata 覆盖已存在 Blob 的元数据
	SetMetadata(ctx context.Context, blobID string, meta map[string]string) error

	// Download 打开一段范围读取流
	// count < 0 表示一直读到对象末尾
	// 注意：返回的是 io.ReadCloser 而不是 []byte，大对象必须流式读取
	Download(ctx context.Context, blobID string, offset, count int64) (io.ReadCloser, error)

	// Size 返回已提交 Blob 的字节长度
	Size(ctx context.Context, blobID string) (int64, error)

	// Delete 删除 Blob；对象不存在时返回 ErrNotFound
	Delete(ctx context.Context, blobID string) error

	// Exists 检查 Blob 是否存在 (只看已提交的，不看暂存块)
	Exists(ctx context.Context, blobID string) (bool, error)

	// List 惰性枚举容器内所有 Blob 标识
	// 每次调用产生一个新的、调用时刻一致的序列，可以重新开始
	List(ctx context.Context) iter.Seq2[string, error]
}

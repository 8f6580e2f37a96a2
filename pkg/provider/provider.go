package provider

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/SenseNet/sn-blob-azure/pkg/blockid"
	"github.com/SenseNet/sn-blob-azure/pkg/blockstore"
)

// DefaultChunkSize 是未显式配置时的块大小
const DefaultChunkSize = 4 << 20 // 4MB

// Provider 实现了分块上传协议：
//
//	Unallocated -> Allocated -> Staging(k/N) -> Committed
//
// 状态本身不存在 Provider 里——每次 WriteChunk 的全部依据都来自
// 调用方带来的 TransferContext 和 offset 算术，提交列表在最后一块
// 到达时由 codec 从零重建。无状态意味着重复发送某个块是自愈的。
//
// 并发模型：同一个 BlobID 的调用必须由调用方串行化 (offset 单调不减)；
// 不同 BlobID 之间完全独立，Provider 和底层 Store 都可以并发使用。
type Provider struct {
	store     blockstore.Store
	chunkSize int
	logger    *slog.Logger
}

func New(store blockstore.Store, chunkSize int) *Provider {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Provider{
		store:     store,
		chunkSize: chunkSize,
		logger:    slog.Default(),
	}
}

// ChunkSize 返回配置的块大小
func (p *Provider) ChunkSize() int {
	return p.chunkSize
}

// Allocate 为传输分配对象标识: Unallocated -> Allocated。
// 宿主已经提供标识时原样复用 (确定性测试、同 ID 重试都靠这个)，
// 否则铸造一个新的。ChunkSize 永远盖写成 Provider 配置的值。
//
// 零长度传输在这里直接提交一个空块列表：协议里不会再有任何
// WriteChunk 触发提交，不这么做对象会永远停在 Staging。
func (p *Provider) Allocate(ctx context.Context, tc *TransferContext) error {
	if tc.Data.IsEmpty() {
		tc.Data.BlobID = newBlobID()
	}
	tc.Data.ChunkSize = p.chunkSize

	if tc.Length == 0 {
		if err := p.store.CommitBlockList(ctx, tc.Data.BlobID, nil, tc.blobMetadata()); err != nil {
			return fmt.Errorf("failed to commit zero-length blob %s: %w", tc.Data.BlobID, err)
		}
	}
	return nil
}

// WriteChunk 暂存一个块；收到最后一块时提交整个对象。
//
// 调用方必须使用 Allocate 时约定的块大小：buffer 和 offset 的算术
// 跟 ProviderData.ChunkSize 对不上就返回 ConfigMismatchError，
// 这种错误永远不重试 (重试只会复现同样错位的块边界)。
// 存储端的瞬时故障由 SDK 的重试策略兜底，重试耗尽后原样上抛。
func (p *Provider) WriteChunk(ctx context.Context, tc *TransferContext, offset int64, buf []byte) error {
	d := tc.Data
	if d.IsEmpty() {
		return ErrNotAllocated
	}
	if d.ChunkSize <= 0 {
		return p.mismatch(d, offset, len(buf), "chunk size was never agreed at allocation")
	}

	chunkSize := int64(d.ChunkSize)

	// 前置校验：对不上约定的块大小就是配置错误，见 ConfigMismatchError
	if int64(len(buf)) > chunkSize {
		return p.mismatch(d, offset, len(buf), "buffer exceeds the agreed chunk size")
	}
	if offset%chunkSize != 0 {
		return p.mismatch(d, offset, len(buf), "offset is not a multiple of the agreed chunk size")
	}

	// 块序号和总块数。
	// 向上取整用整数公式，2^53 以上的长度用浮点会丢精度。
	index := offset/chunkSize + 1
	blockCount := (tc.Length + chunkSize - 1) / chunkSize

	if blockCount == 0 {
		// 零长度传输：Allocate 已经提交过了。
		// 空 buffer 的写入当作幂等的再次提交接受，带数据的写入是矛盾的。
		if len(buf) > 0 {
			return p.mismatch(d, offset, len(buf), "non-empty buffer for a zero-length transfer")
		}
		return p.commit(ctx, tc, 0)
	}

	if index > blockCount {
		return p.mismatch(d, offset, len(buf), "offset lies beyond the declared total length")
	}

	// 显式合同：中间块必须是满块，最后一块必须刚好补齐总长度
	if index < blockCount && int64(len(buf)) != chunkSize {
		return p.mismatch(d, offset, len(buf), "non-final chunk must fill the agreed chunk size")
	}
	if index == blockCount {
		want := tc.Length - (blockCount-1)*chunkSize
		if int64(len(buf)) != want {
			return p.mismatch(d, offset, len(buf),
				fmt.Sprintf("final chunk must contain the remaining %d bytes", want))
		}
	}

	// 暂存远端块
	blockID, err := blockid.Encode(int(index))
	if err != nil {
		return fmt.Errorf("cannot derive block id for blob %s: %w", d.BlobID, err)
	}
	if err := p.store.StageBlock(ctx, d.BlobID, blockID, buf); err != nil {
		p.logger.Error("chunk staging failed",
			slog.String("blob", d.BlobID),
			slog.Int64("offset", offset),
			slog.Int("chunkSize", d.ChunkSize),
			slog.String("err", err.Error()))
		return err
	}

	// 不是最后一块：继续 Staging，不缓存任何跨调用状态
	if index < blockCount {
		return nil
	}
	return p.commit(ctx, tc, blockCount)
}

// commit 重建 1..blockCount 的有序块列表并提交，随后对象才可读。
// 元数据 (entity/version/property) 在同一个请求里打上去。
func (p *Provider) commit(ctx context.Context, tc *TransferContext, blockCount int64) error {
	ids, err := blockid.Sequence(int(blockCount))
	if err != nil {
		return fmt.Errorf("cannot derive commit list for blob %s: %w", tc.Data.BlobID, err)
	}
	if err := p.store.CommitBlockList(ctx, tc.Data.BlobID, ids, tc.blobMetadata()); err != nil {
		p.logger.Error("block list commit failed",
			slog.String("blob", tc.Data.BlobID),
			slog.Int64("blockCount", blockCount),
			slog.Int("chunkSize", tc.Data.ChunkSize),
			slog.String("err", err.Error()))
		return err
	}
	return nil
}

// Delete 无条件删除对象。
// 对象不存在时返回 ErrNotFound——单独可识别，调用方通常视为已满足。
func (p *Provider) Delete(ctx context.Context, tc *TransferContext) error {
	if tc.Data.IsEmpty() {
		return ErrNotAllocated
	}
	return p.store.Delete(ctx, tc.Data.BlobID)
}

// Exists 存在性探测，无副作用
func (p *Provider) Exists(ctx context.Context, blobID string) (bool, error) {
	return p.store.Exists(ctx, blobID)
}

// ListIDs 惰性枚举容器内所有对象标识 (清理/诊断用)。
// 每次调用产生一个全新的序列，可重新开始。
func (p *Provider) ListIDs(ctx context.Context) iter.Seq2[string, error] {
	return p.store.List(ctx)
}

func (p *Provider) mismatch(d ProviderData, offset int64, bufSize int, reason string) error {
	err := &ConfigMismatchError{
		BlobID:     d.BlobID,
		Offset:     offset,
		BufferSize: bufSize,
		ChunkSize:  d.ChunkSize,
		Reason:     reason,
	}
	// 诊断：把请求参数记下来，除此之外不吞任何错误
	p.logger.Error("chunk write rejected", slog.String("err", err.Error()))
	return err
}

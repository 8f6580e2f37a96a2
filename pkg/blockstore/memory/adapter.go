package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"iter"
	"maps"
	"slices"
	"sync"

	"github.com/SenseNet/sn-blob-azure/pkg/blockstore"
)

// Adapter 实现了 blockstore.Store 接口 (纯内存版，测试用)。
// 它刻意模拟了 Block Blob 的核心可见性语义：
// 暂存块 (staged) 对读者完全不可见，只有 CommitBlockList 之后对象才存在。
type Adapter struct {
	mu sync.RWMutex

	// blobID -> blockID -> data (未提交的块)
	staged map[string]map[string][]byte

	// blobID -> 已提交的完整内容
	committed map[string][]byte

	// blobID -> 元数据
	metadata map[string]map[string]string
}

func NewAdapter() *Adapter {
	return &Adapter{
		staged:    make(map[string]map[string][]byte),
		committed: make(map[string][]byte),
		metadata:  make(map[string]map[string]string),
	}
}

func (a *Adapter) StageBlock(_ context.Context, blobID, blockID string, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	blocks, ok := a.staged[blobID]
	if !ok {
		blocks = make(map[string][]byte)
		a.staged[blobID] = blocks
	}
	// 防御性拷贝：调用方可能会复用 buffer
	blocks[blockID] = bytes.Clone(data)
	return nil
}

func (a *Adapter) CommitBlockList(_ context.Context, blobID string, blockIDs []string, meta map[string]string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	blocks := a.staged[blobID]
	var buf bytes.Buffer
	for _, id := range blockIDs {
		data, ok := blocks[id]
		if !ok {
			// 和真实存储一致：引用了未暂存的块，整个提交失败
			return fmt.Errorf("commit of blob %s references unknown block %s", blobID, id)
		}
		buf.Write(data)
	}

	a.committed[blobID] = buf.Bytes()
	a.metadata[blobID] = maps.Clone(meta)
	// 提交后丢弃暂存块 (没被列表引用的块也一并作废)
	delete(a.staged, blobID)
	return nil
}

func (a *Adapter) SetMetadata(_ context.Context, blobID string, meta map[string]string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.committed[blobID]; !ok {
		return blockstore.ErrNotFound
	}
	a.metadata[blobID] = maps.Clone(meta)
	return nil
}

func (a *Adapter) Download(_ context.Context, blobID string, offset, count int64) (io.ReadCloser, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	data, ok := a.committed[blobID]
	if !ok {
		return nil, blockstore.ErrNotFound
	}
	if offset < 0 || offset > int64(len(data)) {
		return nil, fmt.Errorf("offset %d out of range for blob %s (size %d)", offset, blobID, len(data))
	}

	end := int64(len(data))
	if count >= 0 && offset+count < end {
		end = offset + count
	}
	return io.NopCloser(bytes.NewReader(data[offset:end])), nil
}

func (a *Adapter) Size(_ context.Context, blobID string) (int64, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	data, ok := a.committed[blobID]
	if !ok {
		return 0, blockstore.ErrNotFound
	}
	return int64(len(data)), nil
}

func (a *Adapter) Delete(_ context.Context, blobID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.committed[blobID]; !ok {
		return blockstore.ErrNotFound
	}
	delete(a.committed, blobID)
	delete(a.metadata, blobID)
	delete(a.staged, blobID)
	return nil
}

func (a *Adapter) Exists(_ context.Context, blobID string) (bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	_, ok := a.committed[blobID]
	return ok, nil
}

// List 返回调用时刻的一致快照，排序保证枚举顺序稳定
func (a *Adapter) List(_ context.Context) iter.Seq2[string, error] {
	a.mu.RLock()
	ids := slices.Sorted(maps.Keys(a.committed))
	a.mu.RUnlock()

	return func(yield func(string, error) bool) {
		for _, id := range ids {
			if !yield(id, nil) {
				return
			}
		}
	}
}

// Metadata 返回已提交 Blob 的元数据 (仅测试断言用，不属于 Store 接口)
func (a *Adapter) Metadata(blobID string) (map[string]string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	meta, ok := a.metadata[blobID]
	return maps.Clone(meta), ok
}

// StagedBlockCount 返回某个 Blob 当前暂存的块数 (仅测试断言用)
func (a *Adapter) StagedBlockCount(blobID string) int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return len(a.staged[blobID])
}

package provider

import (
	"errors"
	"fmt"

	"github.com/SenseNet/sn-blob-azure/pkg/blockstore"
)

var (
	// ErrNotFound 对象不存在 (删除或读取时)。
	// 调用方通常把“删除不存在的对象”当作已满足，所以要单独可识别。
	ErrNotFound = blockstore.ErrNotFound

	// ErrMalformedProviderData 宿主持久化的 provider data 文本损坏了
	ErrMalformedProviderData = errors.New("malformed provider data")

	// ErrNotAllocated 传输还没有分配对象标识就开始写入
	ErrNotAllocated = errors.New("transfer has no allocated blob identity")
)

// ConfigMismatchError 表示写入调用和分配时约定的块大小对不上：
// buffer 超过块大小，或者 offset 不是块大小的整数倍。
// 这是致命错误，永远不重试——用同样错位的参数重试只会复现同样的脏块边界。
// 错误里带上全部现场参数，让调用方不用自己重新推导就能定位问题。
type ConfigMismatchError struct {
	BlobID     string
	Offset     int64
	BufferSize int
	ChunkSize  int
	Reason     string
}

func (e *ConfigMismatchError) Error() string {
	return fmt.Sprintf("chunk size configuration mismatch on blob %s: %s (offset=%d bufferSize=%d chunkSize=%d)",
		e.BlobID, e.Reason, e.Offset, e.BufferSize, e.ChunkSize)
}

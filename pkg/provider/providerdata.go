package provider

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ProviderData 是宿主仓库替我们保管的“回程票”：
// 进程重启之后，凭这条记录就能重新定位远端对象和它的块大小。
// 序列化格式是稳定的 JSON，没有 schema 版本号——
// 新增字段必须是可选的，旧文本反序列化时安全落到零值。
type ProviderData struct {
	// BlobID 是对象在容器内的全局唯一标识，分配后不可变
	BlobID string `json:"blobId"`

	// ChunkSize 是这次传输约定的块大小。
	// 这是整个协议的承重不变量：之后每一次写入的 buffer 和 offset
	// 都必须和它对得上，对不上就是致命的配置错误。
	ChunkSize int `json:"chunkSize"`
}

// IsEmpty 判断宿主是否还没有为这条记录分配过对象
func (d ProviderData) IsEmpty() bool {
	return d.BlobID == ""
}

// Serialize 输出稳定的文本形式，宿主把它当作不透明元数据持久化
func (d ProviderData) Serialize() (string, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("failed to serialize provider data: %w", err)
	}
	return string(data), nil
}

// ParseProviderData 从文本还原 ProviderData。
// 保证 ParseProviderData(d.Serialize()) == d 对所有合法值成立。
// 文本损坏时立刻报 ErrMalformedProviderData，不做任何猜测性修复。
func ParseProviderData(text string) (ProviderData, error) {
	var d ProviderData
	if err := json.Unmarshal([]byte(text), &d); err != nil {
		return ProviderData{}, fmt.Errorf("%w: %v", ErrMalformedProviderData, err)
	}
	return d, nil
}

// newBlobID 铸造一个新的全局唯一对象标识
func newBlobID() string {
	return uuid.NewString()
}

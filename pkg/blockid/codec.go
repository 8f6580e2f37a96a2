package blockid

import (
	"encoding/base64"
	"fmt"
)

// Azure 对 Block ID 的硬性要求:
//  1. Base64 编码 (二进制安全)
//  2. 同一个 Blob 内所有 Block ID 长度必须一致
// 所以我们把 1-based 的块序号补零到固定宽度，再做 Base64。
// 宽度 6 位 -> 最多 999,999 个块，按 4MB 块算可以覆盖约 3.8TB 的单个对象。
const (
	indexWidth = 6
	MaxIndex   = 999999
)

// Encode 将 1-based 的块序号编码为 Block ID。
// 纯函数：相同输入永远得到相同输出，且不同序号的输出一定不同 (单射)。
// 注意编码后的字符串不保证字典序和数值序一致 (Base64 字母表打乱了
// 数字的 ASCII 顺序)，块的顺序完全由提交时显式给出的有序列表决定。
func Encode(index int) (string, error) {
	if index < 1 {
		return "", fmt.Errorf("block index must be positive, got %d", index)
	}
	if index > MaxIndex {
		// 超过宽度上限会破坏“等长”约束，直接拒绝
		return "", fmt.Errorf("block index %d exceeds maximum %d", index, MaxIndex)
	}
	padded := fmt.Sprintf("%0*d", indexWidth, index)
	return base64.StdEncoding.EncodeToString([]byte(padded)), nil
}

// Sequence 重新推导 1..count 的完整有序 Block ID 列表。
// 提交 Block List 时用它从零重建，而不是在每次写入之间累积状态。
// 这样即使某个块被重复发送，列表也是自洽的。
func Sequence(count int) ([]string, error) {
	if count < 0 {
		return nil, fmt.Errorf("block count must not be negative, got %d", count)
	}
	ids := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		id, err := Encode(i)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

package provider

import "strconv"

// TransferContext 是宿主仓库为一次传输提供的上下文记录。
// 记录归宿主所有：我们只读 Length，读写 Data (provider 专属槽位)，
// 其余三个标识只在提交时作为对象元数据打上去，读路径不依赖它们。
type TransferContext struct {
	// EntityID 拥有这段内容的实体 (文件) 标识
	EntityID int64

	// VersionID 逻辑版本标识
	VersionID int64

	// PropertyID 属性/槽位判别标识
	PropertyID int64

	// Length 内容总字节数
	Length int64

	// Data 是 provider 专属槽位，由 Allocate 写回
	Data ProviderData
}

// blobMetadata 生成提交时写到远端对象上的元数据。
// 这些是 best-effort 的审计/清理标签 (离线找孤儿对象用)。
// 键名必须是合法的 C# 标识符，这是 Azure 元数据的硬性要求。
func (tc *TransferContext) blobMetadata() map[string]string {
	return map[string]string{
		"entityid":   strconv.FormatInt(tc.EntityID, 10),
		"versionid":  strconv.FormatInt(tc.VersionID, 10),
		"propertyid": strconv.FormatInt(tc.PropertyID, 10),
	}
}

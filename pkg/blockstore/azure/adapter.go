package azure

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/SenseNet/sn-blob-azure/pkg/blockstore"
	"github.com/SenseNet/sn-blob-azure/pkg/container"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/streaming"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blockblob"
	azcontainer "github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
)

// Adapter 实现了 blockstore.Store 接口
// 一个 Adapter 绑定一个租户容器，租户在构造时就固定下来，之后不可变。
// 需要切换租户时构造一个新的 Adapter，而不是去改共享状态。
type Adapter struct {
	client *azcontainer.Client
	name   string // 解析后的容器名
}

// Config 用于初始化 Adapter
type Config struct {
	// ConnectionString 是标准的 Azure Storage 连接串
	ConnectionString string

	// 容器名 = ContainerPrefix + TenantID (单租户时 TenantID 留空)
	ContainerPrefix string
	TenantID        string

	// 瞬时故障重试策略。我们不在自己的代码里做重试：
	// 重试完全交给 SDK 的 pipeline，重试耗尽后错误原样上抛。
	MaxRetries int32         // 0 使用 SDK 默认值
	RetryDelay time.Duration // 两次重试之间的间隔
}

// NewAdapter 初始化 Azure Block Blob 客户端。
// 容器名校验在发起任何网络请求之前完成：名字不合法时直接失败，
// 不会让用户去猜一个 400 响应到底是什么意思。
func NewAdapter(ctx context.Context, cfg Config) (*Adapter, error) {
	// 1. 本地推导并校验容器名 (fail fast)
	name, err := container.Resolve(cfg.ContainerPrefix, cfg.TenantID)
	if err != nil {
		return nil, err
	}

	// 2. 创建客户端，重试策略注入到 SDK pipeline
	opts := &azblob.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries: cfg.MaxRetries,
				RetryDelay: cfg.RetryDelay,
			},
		},
	}
	client, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, opts)
	if err != nil {
		return nil, fmt.Errorf("unable to create azure blob client: %w", err)
	}
	containerClient := client.ServiceClient().NewContainerClient(name)

	// 3. 确保容器存在 (幂等的 create-if-absent)
	_, err = containerClient.Create(ctx, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return nil, fmt.Errorf("failed to ensure container %q: %w", name, err)
	}

	return &Adapter{
		client: containerClient,
		name:   name,
	}, nil
}

// ContainerName 返回解析后的容器名 (诊断用)
func (a *Adapter) ContainerName() string {
	return a.name
}

func (a *Adapter) StageBlock(ctx context.Context, blobID, blockID string, data []byte) error {
	bb := a.client.NewBlockBlobClient(blobID)
	_, err := bb.StageBlock(ctx, blockID, streaming.NopCloser(bytes.NewReader(data)), nil)
	if err != nil {
		return fmt.Errorf("stage block %s of blob %s failed: %w", blockID, blobID, err)
	}
	return nil
}

func (a *Adapter) CommitBlockList(ctx context.Context, blobID string, blockIDs []string, meta map[string]string) error {
	bb := a.client.NewBlockBlobClient(blobID)
	_, err := bb.CommitBlockList(ctx, blockIDs, &blockblob.CommitBlockListOptions{
		Metadata: toAzureMetadata(meta),
	})
	if err != nil {
		return fmt.Errorf("commit block list of blob %s failed: %w", blobID, err)
	}
	return nil
}

func (a *Adapter) SetMetadata(ctx context.Context, blobID string, meta map[string]string) error {
	bc := a.client.NewBlobClient(blobID)
	_, err := bc.SetMetadata(ctx, toAzureMetadata(meta), nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return blockstore.ErrNotFound
		}
		return fmt.Errorf("set metadata of blob %s failed: %w", blobID, err)
	}
	return nil
}

func (a *Adapter) Download(ctx context.Context, blobID string, offset, count int64) (io.ReadCloser, error) {
	bc := a.client.NewBlobClient(blobID)

	// HTTPRange 的 Count=0 表示“读到末尾”，和我们接口里的 count<0 对齐
	httpRange := blob.HTTPRange{Offset: offset}
	if count > 0 {
		httpRange.Count = count
	}

	resp, err := bc.DownloadStream(ctx, &blob.DownloadStreamOptions{Range: httpRange})
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, blockstore.ErrNotFound
		}
		return nil, fmt.Errorf("download blob %s (offset=%d count=%d) failed: %w", blobID, offset, count, err)
	}
	return resp.Body, nil
}

func (a *Adapter) Size(ctx context.Context, blobID string) (int64, error) {
	bc := a.client.NewBlobClient(blobID)
	props, err := bc.GetProperties(ctx, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return 0, blockstore.ErrNotFound
		}
		return 0, fmt.Errorf("get properties of blob %s failed: %w", blobID, err)
	}
	if props.ContentLength == nil {
		return 0, nil
	}
	return *props.ContentLength, nil
}

func (a *Adapter) Delete(ctx context.Context, blobID string) error {
	bc := a.client.NewBlobClient(blobID)
	_, err := bc.Delete(ctx, nil)
	if err != nil {
		// NotFound 单独上报，调用方通常把“删除不存在的对象”当作已满足
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return blockstore.ErrNotFound
		}
		return fmt.Errorf("delete blob %s failed: %w", blobID, err)
	}
	return nil
}

func (a *Adapter) Exists(ctx context.Context, blobID string) (bool, error) {
	bc := a.client.NewBlobClient(blobID)
	_, err := bc.GetProperties(ctx, nil)
	if err == nil {
		return true, nil
	}
	if bloberror.HasCode(err, bloberror.BlobNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("existence check of blob %s failed: %w", blobID, err)
}

// List 惰性枚举容器内的所有 Blob 名。
// 每次调用都会创建一个新的 pager，所以序列是可重新开始的；
// 一致性以 Azure 自己的 listing 语义为准，我们不在上面叠加游标。
func (a *Adapter) List(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		pager := a.client.NewListBlobsFlatPager(nil)
		for pager.More() {
			page, err := pager.NextPage(ctx)
			if err != nil {
				yield("", fmt.Errorf("list blobs in %s failed: %w", a.name, err))
				return
			}
			for _, item := range page.Segment.BlobItems {
				if item.Name == nil {
					continue
				}
				if !yield(*item.Name, nil) {
					return
				}
			}
		}
	}
}

// --- 辅助转换 ---

// Azure SDK 的元数据是 map[string]*string，做一层拷贝转换
func toAzureMetadata(meta map[string]string) map[string]*string {
	if len(meta) == 0 {
		return nil
	}
	out := make(map[string]*string, len(meta))
	for k, v := range meta {
		out[k] = to.Ptr(v)
	}
	return out
}

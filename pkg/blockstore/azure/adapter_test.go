package azure

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/SenseNet/sn-blob-azure/pkg/blockid"
	"github.com/SenseNet/sn-blob-azure/pkg/blockstore"
	"github.com/SenseNet/sn-blob-azure/pkg/container"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Azurite 的 well-known 开发账号 (docker run mcr.microsoft.com/azure-storage/azurite)
const azuriteConnString = "DefaultEndpointsProtocol=http;" +
	"AccountName=devstoreaccount1;" +
	"AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;" +
	"BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;"

// 检查本地 Azurite 端口是否开放 (10000)
// 如果没开，跳过集成测试，避免报错干扰
func isAzuriteAvailable(t *testing.T) bool {
	host := "127.0.0.1:10000"
	conn, err := net.DialTimeout("tcp", host, 1*time.Second)
	if err != nil {
		t.Logf("⚠️ Azurite not reachable at %s. Skipping integration tests.", host)
		return false
	}
	conn.Close()
	return true
}

// 命名校验必须在任何网络调用之前失败：
// 这里故意不起 Azurite，传一个坏名字也不应该走到网络层
func TestNewAdapter_InvalidName_NoNetwork(t *testing.T) {
	_, err := NewAdapter(context.Background(), Config{
		ConnectionString: azuriteConnString,
		ContainerPrefix:  "bad_prefix",
		TenantID:         "tenant",
	})
	require.Error(t, err)

	var nerr *container.NamingError
	assert.ErrorAs(t, err, &nerr, "should fail locally with a NamingError")
}

func TestAdapter_Integration(t *testing.T) {
	// A. 环境检查
	if !isAzuriteAvailable(t) {
		t.Skip("Skipping Azure integration tests (Azurite down)")
	}

	// B. 初始化 Adapter
	ctx := context.Background()
	store, err := NewAdapter(ctx, Config{
		ConnectionString: azuriteConnString,
		ContainerPrefix:  "snblob-test",
		TenantID:         "",
		MaxRetries:       2,
		RetryDelay:       100 * time.Millisecond,
	})
	require.NoError(t, err, "Failed to connect to Azurite")
	assert.Equal(t, "snblob-test", store.ContainerName())

	blobID := "integration-test-blob"
	meta := map[string]string{"entityid": "42", "versionid": "7", "propertyid": "1"}

	// --- 测试 1: Stage + Commit ---
	t.Run("StageAndCommit", func(t *testing.T) {
		id1, err := blockid.Encode(1)
		require.NoError(t, err)
		id2, err := blockid.Encode(2)
		require.NoError(t, err)

		require.NoError(t, store.StageBlock(ctx, blobID, id1, []byte("hello ")))

		// 提交之前对象必须不可见
		exists, err := store.Exists(ctx, blobID)
		require.NoError(t, err)
		assert.False(t, exists, "staged-only blob must not be readable")

		require.NoError(t, store.StageBlock(ctx, blobID, id2, []byte("azure")))
		require.NoError(t, store.CommitBlockList(ctx, blobID, []string{id1, id2}, meta))

		exists, err = store.Exists(ctx, blobID)
		require.NoError(t, err)
		assert.True(t, exists)

		size, err := store.Size(ctx, blobID)
		require.NoError(t, err)
		assert.Equal(t, int64(len("hello azure")), size)
	})

	// --- 测试 2: 范围读取 ---
	t.Run("DownloadRange", func(t *testing.T) {
		rc, err := store.Download(ctx, blobID, 6, 5)
		require.NoError(t, err)
		defer rc.Close()

		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "azure", string(data))
	})

	// --- 测试 3: 枚举 ---
	t.Run("List", func(t *testing.T) {
		var found bool
		for name, err := range store.List(ctx) {
			require.NoError(t, err)
			if name == blobID {
				found = true
			}
		}
		assert.True(t, found, "committed blob should show up in listing")
	})

	// --- 测试 4: 删除与 NotFound 映射 ---
	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, blobID))

		exists, err := store.Exists(ctx, blobID)
		require.NoError(t, err)
		assert.False(t, exists)

		// 再删一次：必须上报可识别的 ErrNotFound
		err = store.Delete(ctx, blobID)
		assert.ErrorIs(t, err, blockstore.ErrNotFound)

		_, err = store.Download(ctx, blobID, 0, -1)
		assert.ErrorIs(t, err, blockstore.ErrNotFound)
	})
}

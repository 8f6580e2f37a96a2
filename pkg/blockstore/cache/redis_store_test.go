package cache

import (
	"context"
	"fmt"
	"io"
	"iter"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SenseNet/sn-blob-azure/pkg/blockstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// 1. SpyStore (间谍存储)
// 用于统计底层方法被调用的次数，验证请求是否穿透了缓存
// -----------------------------------------------------------------------------
type SpyStore struct {
	existsCount int32
	committed   map[string][]byte
}

func NewSpyStore() *SpyStore {
	return &SpyStore{committed: make(map[string][]byte)}
}

func (s *SpyStore) Exists(ctx context.Context, blobID string) (bool, error) {
	atomic.AddInt32(&s.existsCount, 1) // 记录调用次数
	_, ok := s.committed[blobID]
	return ok, nil
}

func (s *SpyStore) CommitBlockList(ctx context.Context, blobID string, blockIDs []string, meta map[string]string) error {
	s.committed[blobID] = []byte("committed")
	return nil
}

func (s *SpyStore) Delete(ctx context.Context, blobID string) error {
	if _, ok := s.committed[blobID]; !ok {
		return blockstore.ErrNotFound
	}
	delete(s.committed, blobID)
	return nil
}

// 其他接口存根 (Stub)
func (s *SpyStore) StageBlock(ctx context.Context, blobID, blockID string, data []byte) error {
	return nil
}
func (s *SpyStore) SetMetadata(ctx context.Context, blobID string, meta map[string]string) error {
	return nil
}
func (s *SpyStore) Download(ctx context.Context, blobID string, offset, count int64) (io.ReadCloser, error) {
	return nil, nil
}
func (s *SpyStore) Size(ctx context.Context, blobID string) (int64, error) { return 0, nil }
func (s *SpyStore) List(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {}
}

// -----------------------------------------------------------------------------
// 2. 集成测试
// -----------------------------------------------------------------------------

func TestCachedStore_Integration(t *testing.T) {
	// A. 环境检查: 确保 Redis 在运行
	redisAddr := "localhost:6379"
	conn, err := net.DialTimeout("tcp", redisAddr, 1*time.Second)
	if err != nil {
		t.Skipf("Skipping Redis integration test: %v", err)
	}
	conn.Close()

	// B. 初始化
	ctx := context.Background()
	spy := NewSpyStore()
	cachedStore, err := NewCachedStore(spy, Config{
		RedisURL: fmt.Sprintf("redis://%s/0", redisAddr),
		TTL:      1 * time.Hour,
	})
	require.NoError(t, err)

	// 清理 Redis (防止上次测试残留)
	cachedStore.client.FlushDB(ctx)

	blobID := "cache-test-blob"

	// --- Step 1: Cache Miss ---
	t.Log("Step 1: Check non-existent blob (Cache Miss)")
	exists, err := cachedStore.Exists(ctx, blobID)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, int32(1), atomic.LoadInt32(&spy.existsCount), "Backend Exists() should be called on miss")

	// --- Step 2: Commit (存在性写入缓存) ---
	t.Log("Step 2: Commit blob (Fill Cache)")
	require.NoError(t, cachedStore.CommitBlockList(ctx, blobID, nil, nil))

	key := cachedStore.cacheKey(blobID)
	redisVal, err := cachedStore.client.Exists(ctx, key).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), redisVal, "Redis key should be set after commit")

	// --- Step 3: Cache Hit ---
	t.Log("Step 3: Check existing blob again (Cache Hit)")
	exists, err = cachedStore.Exists(ctx, blobID)
	require.NoError(t, err)
	assert.True(t, exists)

	// 核心断言：Spy 的 Exists 调用次数依然是 1
	// 证明请求被 Redis 拦截，根本没到底层
	assert.Equal(t, int32(1), atomic.LoadInt32(&spy.existsCount), "Backend Exists() should NOT be called on hit")

	// --- Step 4: Delete 使缓存失效 ---
	t.Log("Step 4: Delete blob (Invalidate Cache)")
	require.NoError(t, cachedStore.Delete(ctx, blobID))

	redisVal, err = cachedStore.client.Exists(ctx, key).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), redisVal, "Redis key should be gone after delete")

	exists, err = cachedStore.Exists(ctx, blobID)
	require.NoError(t, err)
	assert.False(t, exists)
}

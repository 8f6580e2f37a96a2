package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"time"

	"github.com/SenseNet/sn-blob-azure/pkg/blockstore"

	"github.com/redis/go-redis/v9"
)

// CachedStore 是一个装饰器，它为底层的 blockstore.Store 添加 Redis 存在性缓存。
// 只缓存 Exists 结果：Blob 数据本身可能非常大，Redis 内存宝贵，
// 只存 Existence 的性价比最高。
type CachedStore struct {
	backend blockstore.Store
	client  *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
}

type Config struct {
	RedisURL string        // 标准连接字符串: redis://<user>:<password>@<host>:<port>/<db>
	TTL      time.Duration // 缓存过期时间 (例如 24h)
}

func NewCachedStore(backend blockstore.Store, cfg Config) (*CachedStore, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	// Fail-fast 连接检查
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &CachedStore{
		backend: backend,
		client:  client,
		ttl:     cfg.TTL,
		logger:  slog.Default(),
	}, nil
}

// cacheKey 生成 Redis Key，添加前缀防止冲突
func (s *CachedStore) cacheKey(blobID string) string {
	return "snblob:exists:" + blobID
}

// Exists 优先查 Redis，实现毫秒级存在性探测
func (s *CachedStore) Exists(ctx context.Context, blobID string) (bool, error) {
	key := s.cacheKey(blobID)

	val, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		// 缓存故障降级：Redis 挂了就退化为无缓存模式，直接查底层存储
		s.logger.Warn("redis exists check failed, falling back to backend",
			slog.String("blob", blobID), slog.String("err", err.Error()))
	} else if val > 0 {
		// Cache Hit! 不需要发起存储端网络请求
		return true, nil
	}

	found, err := s.backend.Exists(ctx, blobID)
	if err != nil {
		return false, err
	}

	// 缓存回填：异步写入，不阻塞主流程
	// 用 context.Background()，即使上层 ctx 取消回填也能完成
	if found {
		go func() {
			fillCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			s.client.Set(fillCtx, key, "1", s.ttl)
		}()
	}

	return found, nil
}

// CommitBlockList 穿透到底层，成功后写缓存 (对象从此刻起存在)
func (s *CachedStore) CommitBlockList(ctx context.Context, blobID string, blockIDs []string, meta map[string]string) error {
	if err := s.backend.CommitBlockList(ctx, blobID, blockIDs, meta); err != nil {
		return err
	}
	// Set 失败可以忽略，不影响主流程
	s.client.Set(ctx, s.cacheKey(blobID), "1", s.ttl)
	return nil
}

// Delete 穿透到底层，并使缓存失效
// 注意顺序：先删存储再删缓存，这样最坏情况是缓存短暂多报一次 true
func (s *CachedStore) Delete(ctx context.Context, blobID string) error {
	err := s.backend.Delete(ctx, blobID)
	if err != nil && !errors.Is(err, blockstore.ErrNotFound) {
		return err
	}
	s.client.Del(ctx, s.cacheKey(blobID))
	return err
}

// --- 以下操作透传，缓存不参与 ---

func (s *CachedStore) StageBlock(ctx context.Context, blobID, blockID string, data []byte) error {
	return s.backend.StageBlock(ctx, blobID, blockID, data)
}

func (s *CachedStore) SetMetadata(ctx context.Context, blobID string, meta map[string]string) error {
	return s.backend.SetMetadata(ctx, blobID, meta)
}

func (s *CachedStore) Download(ctx context.Context, blobID string, offset, count int64) (io.ReadCloser, error) {
	return s.backend.Download(ctx, blobID, offset, count)
}

func (s *CachedStore) Size(ctx context.Context, blobID string) (int64, error) {
	return s.backend.Size(ctx, blobID)
}

func (s *CachedStore) List(ctx context.Context) iter.Seq2[string, error] {
	return s.backend.List(ctx)
}

// pkg/app/app.go
package app

import (
	"context"
	"fmt"

	"github.com/SenseNet/sn-blob-azure/pkg/blockstore"
	"github.com/SenseNet/sn-blob-azure/pkg/blockstore/azure"
	"github.com/SenseNet/sn-blob-azure/pkg/blockstore/cache"
	"github.com/SenseNet/sn-blob-azure/pkg/provider"

	"github.com/spf13/viper"
)

// App 是整个应用程序的依赖容器 (Dependency Container)
// 它持有所有“单例”服务
type App struct {
	Store    blockstore.Store
	Provider *provider.Provider
}

// NewApp 是工厂函数，负责按 Viper 配置组装这一台机器
// 租户标识在这里一次性固定：要换租户就构造新的 App
func NewApp(ctx context.Context) (*App, error) {
	// 1. 连接串是唯一的硬前提
	connString := viper.GetString("azure.connection_string")
	if connString == "" {
		return nil, fmt.Errorf("azure.connection_string not set (config file or SNBLOB_AZURE_CONNECTION_STRING)")
	}

	// 2. 初始化存储层
	var store blockstore.Store
	store, err := azure.NewAdapter(ctx, azure.Config{
		ConnectionString: connString,
		ContainerPrefix:  viper.GetString("azure.container_prefix"),
		TenantID:         viper.GetString("azure.tenant_id"),
		MaxRetries:       viper.GetInt32("azure.retry.max_tries"),
		RetryDelay:       viper.GetDuration("azure.retry.delay"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init azure store: %w", err)
	}

	// 3. 可选：套一层 Redis 存在性缓存
	if redisURL := viper.GetString("cache.redis_url"); redisURL != "" {
		store, err = cache.NewCachedStore(store, cache.Config{
			RedisURL: redisURL,
			TTL:      viper.GetDuration("cache.ttl"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to init redis cache: %w", err)
		}
	}

	return &App{
		Store:    store,
		Provider: provider.New(store, viper.GetInt("provider.chunk_size")),
	}, nil
}

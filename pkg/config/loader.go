package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Load 初始化 Viper 配置
// cfgFile: 可选，用户显式指定的配置文件路径
func Load(cfgFile string) error {
	// 1. 设置默认值 (Defaults)
	setDefaults()

	// 2. 配置搜索路径
	if cfgFile != "" {
		// 如果用户指定了文件，直接使用
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}

		// 搜索顺序：当前目录 -> ./.snblob -> ~/.snblob
		viper.AddConfigPath(".")
		viper.AddConfigPath(".snblob")
		viper.AddConfigPath(filepath.Join(home, ".snblob"))

		viper.SetConfigType("yaml")
		viper.SetConfigName("config") // 找 config.yaml
	}

	// 3. 读取环境变量 (SNBLOB_AZURE_CONNECTION_STRING 等)
	viper.SetEnvPrefix("SNBLOB")
	viper.AutomaticEnv()

	// 4. 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		// 没找到配置文件不算错 (连接串可能完全来自环境变量)
		// 但配置文件格式错就是错
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("fatal error config file: %w", err)
		}
	}

	return nil
}

func setDefaults() {
	// Azure 存储
	viper.SetDefault("azure.connection_string", "")
	viper.SetDefault("azure.container_prefix", "snblob")
	viper.SetDefault("azure.tenant_id", "")

	// 瞬时故障重试 (交给 SDK pipeline 执行)
	viper.SetDefault("azure.retry.max_tries", 3)
	viper.SetDefault("azure.retry.delay", "500ms")

	// 分块上传协议
	viper.SetDefault("provider.chunk_size", 4*1024*1024)

	// 存在性缓存 (可选，留空禁用)
	viper.SetDefault("cache.redis_url", "")
	viper.SetDefault("cache.ttl", "24h")
}

package app

import (
	"context"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewApp_MissingConnectionString(t *testing.T) {
	// 1. Mock 配置：故意不设置连接串
	viper.Reset()

	// 2. 调用工厂
	app, err := NewApp(context.Background())

	// 3. 验证：必须在本地失败，带可操作的提示
	require.Error(t, err)
	assert.Nil(t, app)
	assert.Contains(t, err.Error(), "azure.connection_string")
}

func TestNewApp_InvalidContainerName(t *testing.T) {
	viper.Reset()
	viper.Set("azure.connection_string", "DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;")
	viper.Set("azure.container_prefix", "bad_prefix") // 下划线不合法

	// 命名校验在任何网络请求之前执行，所以不需要 Azurite 在线
	app, err := NewApp(context.Background())
	assert.Error(t, err)
	assert.Nil(t, app)
}

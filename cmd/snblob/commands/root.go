package commands

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/SenseNet/sn-blob-azure/pkg/app"
	"github.com/SenseNet/sn-blob-azure/pkg/config"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool

	// 全局应用实例，供子命令使用
	SN *app.App
)

var rootCmd = &cobra.Command{
	Use:   "snblob",
	Short: "Maintenance CLI for the Azure blob storage provider",
	Long:  `Upload, download, list, inspect and delete blobs in the provider's tenant container. Intended for diagnostics and cleanup, not as a user-facing tool.`,
	// PersistentPreRunE 会在所有子命令执行前运行，统一初始化 App
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()

		var err error
		SN, err = app.NewApp(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to initialize blob provider: %w", err)
		}
		return nil
	},
}

// Execute 是入口
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// 在初始化时，加载配置
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.snblob/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	// 常用配置项同时暴露成 flag，yaml / 环境变量 / flag 三者等价
	rootCmd.PersistentFlags().String("tenant", "", "tenant identifier (container namespace suffix)")
	if err := viper.BindPFlag("azure.tenant_id", rootCmd.PersistentFlags().Lookup("tenant")); err != nil {
		fmt.Println("Failed to bind flag:", err)
		os.Exit(1)
	}
	rootCmd.PersistentFlags().Int("chunk-size", 0, "chunk size in bytes (0 = configured default)")
	if err := viper.BindPFlag("provider.chunk_size", rootCmd.PersistentFlags().Lookup("chunk-size")); err != nil {
		fmt.Println("Failed to bind flag:", err)
		os.Exit(1)
	}
}

// initConfig 读取配置文件和环境变量
func initConfig() {
	if err := config.Load(cfgFile); err != nil {
		fmt.Println("Config error:", err)
		os.Exit(1)
	}
}

// setupLogger 配置全局 slog (tint: 带颜色的终端 Handler)
func setupLogger() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	})))
}

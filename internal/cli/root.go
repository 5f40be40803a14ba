// Package cli implements the mdimg command line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roboco-io/mdimg/internal/config"
	"github.com/roboco-io/mdimg/internal/logging"
)

var version = "dev"

var (
	rootConfigPath string
	rootLogLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "mdimg",
	Short: "Markdown 문서의 이미지 크기 조절 도구",
	Long: `mdimg는 Markdown 문서에서 커서 위치의 이미지를 찾아
원본 크기를 확인하고 Markdown 또는 HTML 구문으로 다시 작성합니다.

리소스 이미지(:/<32자리 hex>)는 리소스 디렉토리에서,
외부 이미지(http/https)는 네트워크에서 크기를 읽습니다.

예시:
  mdimg resize note.md --line 3 --col 10 --percent 50
  mdimg detect note.md --line 3 --col 10
  mdimg size https://example.com/image.png`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootConfigPath, "config", "", "설정 파일 경로 (기본: ~/.mdimg/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "", "로그 레벨 (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "버전 정보 표시",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "mdimg version %s\n", version)
	},
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the configuration selected by --config or MDIMG_CONFIG.
func loadConfig() (*config.Config, error) {
	loader, err := newConfigLoader()
	if err != nil {
		return nil, err
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("설정 로드 실패: %w", err)
	}
	if rootLogLevel != "" {
		if err := cfg.Set("log.level", rootLogLevel); err != nil {
			return nil, fmt.Errorf("유효하지 않은 로그 레벨: %s", rootLogLevel)
		}
	}
	return cfg, nil
}

func newConfigLoader() (*config.Loader, error) {
	path := rootConfigPath
	if path == "" {
		path = config.GetEnvOrDefault("MDIMG_CONFIG", "")
	}
	if path != "" {
		return config.NewLoaderWithPath(path), nil
	}
	loader, err := config.NewLoader()
	if err != nil {
		return nil, fmt.Errorf("설정 로더 초기화 실패: %w", err)
	}
	return loader, nil
}

// newLogger builds the command logger writing to stderr.
func newLogger(cmd *cobra.Command, cfg *config.Config) (*zap.Logger, error) {
	lc, err := cfg.Logging()
	if err != nil {
		return nil, err
	}
	lc.Output = cmd.ErrOrStderr()
	return logging.New(lc)
}

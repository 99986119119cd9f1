package config

import (
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/shouni/netarmor/securenet"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return value
}

// GetWorkDir は特定のリクエストに対する一意の作業ディレクトリを返します。
// 例: "output/20260113-ABCD"
func (c Config) GetWorkDir(requestID string) string {
	return path.Join(c.BaseOutputDir, requestID)
}

// GetArchiveURI は、指定されたパスから完全なオブジェクトURL ("gs://...") を組み立てます。
// pathが既に "gs://" プレフィックスを持つ場合は、そのままpathを返します。
// c.ArchiveBucketが空文字列の場合、この関数は引数で与えられたpathをそのまま返します。
func (c Config) GetArchiveURI(objectPath string) string {
	if strings.HasPrefix(objectPath, "gs://") {
		return objectPath
	}
	if c.ArchiveBucket != "" {
		return fmt.Sprintf("gs://%s/%s", c.ArchiveBucket, objectPath)
	}

	return objectPath
}

// ArchiveEnabled はアーカイブ保存が構成されているか判定します。
func (c Config) ArchiveEnabled() bool {
	return c.ArchiveBucket != ""
}

// --- バリデーション ---

// ValidateEssentialConfig はアプリケーション実行に不可欠な設定を検証します。
func ValidateEssentialConfig(cfg *Config) error {
	if !IsSecureURL(cfg.ServiceURL) {
		return fmt.Errorf("security error: SERVICE_URL ('%s') must be HTTPS in production", cfg.ServiceURL)
	}

	switch cfg.Provider {
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return fmt.Errorf("configuration error: GEMINI_API_KEY is not set")
		}
	case ProviderMock:
		// モックは外部資格情報を必要としません
	default:
		return fmt.Errorf("configuration error: unknown INSTRUCTION_PROVIDER '%s'", cfg.Provider)
	}

	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		return fmt.Errorf("configuration error: GEMINI_TEMPERATURE (%.2f) must be between 0 and 2", cfg.Temperature)
	}

	return nil
}

// IsSecureURL は指定された URL が HTTPS または localhost であるか判定します。
func IsSecureURL(rawURL string) bool {
	return securenet.IsSecureServiceURL(rawURL)
}

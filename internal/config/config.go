package config

import (
	"os"
	"path"
	"time"
)

const (
	DefaultModel = "gemini-3-flash-preview"
	// DefaultProviderTimeout Gemini API の応答を考慮したタイムアウト
	DefaultProviderTimeout = 60 * time.Second
	DefaultTemperature     = 0.7

	ProviderGemini = "gemini"
	ProviderMock   = "mock"
)

// Config は環境変数から読み込まれたアプリケーションの全設定を保持します。
type Config struct {
	ServiceURL string
	Port       string

	// Provider は指示ドキュメントの供給元です。("gemini" または "mock")
	Provider        string
	GeminiAPIKey    string
	GeminiModel     string // 指示ドキュメント生成用モデル
	Temperature     float64
	ProviderTimeout time.Duration

	ArchiveBucket   string // 生成された指示JSONとHTMLを保存するバケット。空ならアーカイブ無効
	BaseOutputDir   string // バケット内のベースルート (例: "output")
	SlackWebhookURL string
	TemplateDir     string // HTMLテンプレートの格納ディレクトリ
	ShutdownTimeout time.Duration
}

// LoadConfig は環境変数から設定を読み込み、Config 構造体を生成します。
func LoadConfig() *Config {
	// 実行環境（Cloud Run, ko）に応じたパスの解決
	baseDir := "."
	if os.Getenv("KO_DATA_PATH") != "" || os.Getenv("K_SERVICE") != "" {
		baseDir = "/app"
	}

	return &Config{
		ServiceURL:      getEnv("SERVICE_URL", "http://localhost:8080"),
		Port:            getEnv("PORT", "8080"),
		Provider:        getEnv("INSTRUCTION_PROVIDER", ProviderMock),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", DefaultModel),
		Temperature:     getEnvFloat("GEMINI_TEMPERATURE", DefaultTemperature),
		ProviderTimeout: DefaultProviderTimeout,
		ArchiveBucket:   getEnv("ARCHIVE_BUCKET", ""),
		BaseOutputDir:   getEnv("BASE_OUTPUT_DIR", "output"),
		SlackWebhookURL: getEnv("SLACK_WEBHOOK_URL", ""),
		TemplateDir:     path.Join(baseDir, "templates"),
		ShutdownTimeout: 15 * time.Second,
	}
}

// Package builder はアプリケーションの依存関係を組み立てます。
package builder

import (
	"context"
	"fmt"
	"log/slog"

	"ap-scivis-web/internal/adapters"
	"ap-scivis-web/internal/config"
	"ap-scivis-web/internal/provider"
	"ap-scivis-web/internal/templates"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/gcsfactory"
	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// AppContext はアプリケーションの依存関係を保持します。
// 各フィールドをインターフェースで定義することで、将来的なモック利用を容易にします。
type AppContext struct {
	Config        *config.Config
	Source        provider.InstructionSource
	Fallback      *provider.MockSource
	Registry      *templates.Registry
	Writer        remoteio.OutputWriter
	SlackNotifier adapters.SlackNotifier
	HTTPClient    httpkit.HTTPClient

	ioFactory remoteio.IOFactory
}

// BuildAppContext は外部サービスとの接続を確立し、依存関係を組み立てます。
func BuildAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	// 1. 基盤クライアントの初期化
	httpClient := httpkit.New(config.DefaultProviderTimeout)

	// 2. テンプレートレジストリの構築（プロセス起動時に一度だけ）
	registry, err := templates.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to build template registry: %w", err)
	}

	// 3. プロバイダの決定。モックは常に構築し、フォールバックとしても使います。
	fallback, err := provider.NewMockSource()
	if err != nil {
		return nil, fmt.Errorf("failed to build mock source: %w", err)
	}

	var source provider.InstructionSource = fallback
	if cfg.Provider == config.ProviderGemini {
		source, err = provider.NewGeminiSource(ctx, provider.GeminiConfig{
			APIKey:      cfg.GeminiAPIKey,
			Model:       cfg.GeminiModel,
			Temperature: float32(cfg.Temperature),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build gemini source: %w", err)
		}
	}

	// 4. I/O インフラ (GCS等) の初期化。アーカイブ無効時は接続しません。
	var writer remoteio.OutputWriter
	var ioFactory remoteio.IOFactory
	if cfg.ArchiveEnabled() {
		ioFactory, err = gcsfactory.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create GCS factory: %w", err)
		}
		writer, err = ioFactory.OutputWriter()
		if err != nil {
			return nil, fmt.Errorf("failed to create output writer: %w", err)
		}
	} else {
		slog.Info("Archive bucket is not configured, artifact saving is disabled")
	}

	// 5. アダプターの初期化
	slack, err := adapters.NewSlackAdapter(httpClient, cfg.SlackWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Slack adapter: %w", err)
	}

	return &AppContext{
		Config:        cfg,
		Source:        source,
		Fallback:      fallback,
		Registry:      registry,
		Writer:        writer,
		SlackNotifier: slack,
		HTTPClient:    httpClient,
		ioFactory:     ioFactory,
	}, nil
}

// Close は保持しているリモート接続を解放します。
func (a *AppContext) Close() error {
	if a.ioFactory != nil {
		return a.ioFactory.Close()
	}
	return nil
}

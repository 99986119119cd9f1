// Package pipeline は質問からテキスト・指示ドキュメント・HTML可視化までの
// オーケストレーションを提供します。モデル障害はフォールバック生成で吸収し、
// 利用者へ 5xx を返すことはありません。
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ap-scivis-web/internal/compiler"
	"ap-scivis-web/internal/config"
	"ap-scivis-web/internal/domain"
	"ap-scivis-web/internal/provider"
	"ap-scivis-web/internal/schema"
	"ap-scivis-web/internal/templates"

	"github.com/google/uuid"
	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// QueryPipeline は依存コンポーネントを束ね、1 質問の処理全体を実行します。
type QueryPipeline struct {
	cfg          *config.Config
	source       provider.InstructionSource
	fallback     *provider.MockSource
	registry     *templates.Registry
	writer       remoteio.OutputWriter // nil の場合アーカイブは無効
	notifier     Notifier
	providerName string
}

// Notifier は完了・エラー通知の送信先です。
type Notifier interface {
	Notify(ctx context.Context, req domain.NotificationRequest) error
	NotifyError(ctx context.Context, errDetail error, req domain.NotificationRequest) error
}

func NewQueryPipeline(
	cfg *config.Config,
	source provider.InstructionSource,
	fallback *provider.MockSource,
	registry *templates.Registry,
	writer remoteio.OutputWriter,
	notifier Notifier,
) *QueryPipeline {
	return &QueryPipeline{
		cfg:          cfg,
		source:       source,
		fallback:     fallback,
		registry:     registry,
		writer:       writer,
		notifier:     notifier,
		providerName: cfg.Provider,
	}
}

// Execute は質問を処理し、必ず完全な応答を返します。戻り値の error は
// 内部バグ（直列化不能など）のみを表し、モデル・ドキュメント起因の失敗は
// テキストのみの応答へ縮退します。
func (p *QueryPipeline) Execute(ctx context.Context, question string) (domain.QueryResponse, error) {
	requestID := uuid.NewString()
	slog.InfoContext(ctx, "Pipeline execution started",
		"request_id", requestID,
		"provider", p.providerName,
	)

	raw, usedProvider := p.runFetchStep(ctx, question)

	env, err := schema.DecodeEnvelope([]byte(raw))
	if err != nil {
		// エンベロープすら読めない応答は生テキストをそのまま説明として返します。
		slog.WarnContext(ctx, "Provider reply is not a valid envelope", "request_id", requestID, "error", err)
		return domain.QueryResponse{TextResponse: raw}, nil
	}

	doc, err := schema.DecodeDocument(env.Instructions)
	if err != nil {
		slog.WarnContext(ctx, "Instruction document rejected", "request_id", requestID, "error", err)
		return domain.QueryResponse{TextResponse: env.Text}, nil
	}

	if violations := schema.Validate(doc); len(violations) > 0 {
		for _, v := range violations {
			slog.WarnContext(ctx, "Document violation",
				"request_id", requestID,
				"code", string(v.Code),
				"field", v.Field,
				"message", v.Message,
			)
		}
	}

	scene, err := compiler.Compile(doc)
	if err != nil {
		if errors.Is(err, compiler.ErrEmptyScene) {
			// アクターが残らないドキュメントは全体棄却し、説明テキストのみ返します。
			slog.WarnContext(ctx, "Document has no usable actors", "request_id", requestID)
			return domain.QueryResponse{TextResponse: env.Text}, nil
		}
		wrapped := fmt.Errorf("scene compilation failed: %w", err)
		p.runNotifyErrorStep(ctx, wrapped, domain.NotificationRequest{
			Question:      question,
			SceneType:     string(doc.Scene),
			RequestID:     requestID,
			ExecutionMode: usedProvider,
		})
		return domain.QueryResponse{}, wrapped
	}
	for _, w := range scene.Warnings {
		slog.WarnContext(ctx, "Compile warning",
			"request_id", requestID,
			"code", string(w.Code),
			"message", w.Message,
		)
	}

	response := domain.QueryResponse{
		TextResponse:          env.Text,
		AnimationInstructions: doc,
	}

	html, err := p.registry.Render(doc, scene)
	if err != nil {
		// レンダリング失敗時も検証済みドキュメントは返します。
		slog.ErrorContext(ctx, "HTML rendering failed", "request_id", requestID, "error", err)
	} else {
		response.HTMLAnimation = &html
	}

	archiveURI := p.runArchiveStep(ctx, requestID, doc, response.HTMLAnimation)
	p.runNotifyStep(ctx, domain.NotificationRequest{
		Question:      question,
		SceneType:     string(doc.Scene),
		RequestID:     requestID,
		ArchiveURI:    archiveURI,
		ExecutionMode: usedProvider,
	})

	slog.InfoContext(ctx, "Pipeline execution finished",
		"request_id", requestID,
		"scene", string(doc.Scene),
		"html", response.HTMLAnimation != nil,
	)
	return response, nil
}

// runFetchStep はプロバイダから生の指示テキストを取得します。
// 失敗時はモックへフォールバックし、実際に使ったプロバイダ名を返します。
func (p *QueryPipeline) runFetchStep(ctx context.Context, question string) (string, string) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.cfg.ProviderTimeout)
	defer cancel()

	raw, err := p.source.Fetch(fetchCtx, question)
	if err == nil {
		return raw, p.providerName
	}

	slog.WarnContext(ctx, "Provider fetch failed, falling back to rule-based generation", "error", err)

	raw, fallbackErr := p.fallback.Fetch(ctx, question)
	if fallbackErr != nil {
		// モックは決定論的で、ここに来るのは直列化バグのみです。
		slog.ErrorContext(ctx, "Fallback generation failed", "error", fallbackErr)
		return "", config.ProviderMock
	}
	return raw, config.ProviderMock
}

// runNotifyStep は完了通知を送信します。通知失敗は応答へ影響しません。
func (p *QueryPipeline) runNotifyStep(ctx context.Context, req domain.NotificationRequest) {
	if p.notifier == nil {
		return
	}
	if req.ArchiveURI == "" {
		req.ArchiveURI = domain.SceneNotAvailable
	}
	if err := p.notifier.Notify(ctx, req); err != nil {
		slog.ErrorContext(ctx, "Notification failed", "request_id", req.RequestID, "error", err)
	}
}

// runNotifyErrorStep は内部エラーの通知を送信します。通知失敗は握りつぶします。
func (p *QueryPipeline) runNotifyErrorStep(ctx context.Context, cause error, req domain.NotificationRequest) {
	if p.notifier == nil {
		return
	}
	if req.SceneType == "" {
		req.SceneType = domain.SceneNotAvailable
	}
	if notifyErr := p.notifier.NotifyError(ctx, cause, req); notifyErr != nil {
		slog.ErrorContext(ctx, "Error notification failed", "request_id", req.RequestID, "error", notifyErr)
	}
}

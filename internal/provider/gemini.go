package provider

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"
)

// GeminiConfig は Gemini プロバイダの初期化設定です。
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float32
}

// GeminiSource は google.golang.org/genai 経由の実プロバイダです。
type GeminiSource struct {
	client       *genai.Client
	model        string
	temperature  float32
	systemPrompt string
}

// NewGeminiSource は Gemini クライアントを初期化し、システムプロンプトを確定します。
func NewGeminiSource(ctx context.Context, cfg GeminiConfig) (*GeminiSource, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini source requires an API key")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}

	systemPrompt, err := BuildSystemPrompt()
	if err != nil {
		return nil, err
	}

	return &GeminiSource{
		client:       client,
		model:        cfg.Model,
		temperature:  cfg.Temperature,
		systemPrompt: systemPrompt,
	}, nil
}

// Fetch は質問文を投げ、応答エンベロープの JSON テキストを返します。
// 呼び出し側の ctx によるタイムアウト・キャンセルに従います。
func (s *GeminiSource) Fetch(ctx context.Context, question string) (string, error) {
	genCfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(s.temperature),
		ResponseMIMEType: "application/json",
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: s.systemPrompt}},
		},
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(BuildUserPrompt(question)), genCfg)
	if err != nil {
		return "", &ProviderError{Provider: "gemini", Err: err}
	}

	text := resp.Text()
	if text == "" {
		return "", &ProviderError{Provider: "gemini", Err: fmt.Errorf("empty response from model %s", s.model)}
	}

	slog.DebugContext(ctx, "Gemini response received", "model", s.model, "bytes", len(text))
	return text, nil
}

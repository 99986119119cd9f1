package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"ap-scivis-web/internal/domain"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-notifier/pkg/factory"
	"github.com/shouni/go-notifier/pkg/slack"
)

// --- インターフェース定義 ---

type SlackNotifier interface {
	Notify(ctx context.Context, req domain.NotificationRequest) error
	NotifyError(ctx context.Context, errDetail error, req domain.NotificationRequest) error
}

// --- 具象アダプター ---

type SlackAdapter struct {
	httpClient  httpkit.HTTPClient
	webhookURL  string
	slackClient *slack.Client
}

func NewSlackAdapter(httpClient httpkit.HTTPClient, webhookURL string) (*SlackAdapter, error) {
	if webhookURL == "" {
		return &SlackAdapter{webhookURL: webhookURL}, nil
	}
	client, err := factory.GetSlackClient(httpClient)
	if err != nil {
		return nil, fmt.Errorf("Slackクライアントの初期化に失敗したのだ: %w", err)
	}

	return &SlackAdapter{
		httpClient:  httpClient,
		webhookURL:  webhookURL,
		slackClient: client,
	}, nil
}

// Notify 可視化の生成完了時のSlack通知送信。
func (a *SlackAdapter) Notify(ctx context.Context, req domain.NotificationRequest) error {
	if a.slackClient == nil {
		slog.Info("Slackクライアントが初期化されていないため、通知をスキップします。", "request_id", req.RequestID)
		return nil
	}

	// シーン種別に応じた絵文字の出し分けをすると可愛いのだ！
	icon := "🔬"
	switch req.SceneType {
	case "solar_system":
		icon = "🪐"
	case "photosynthesis":
		icon = "🌱"
	case "circuit":
		icon = "⚡"
	case "wave_interference":
		icon = "🌊"
	case "molecular":
		icon = "🧪"
	}

	title := fmt.Sprintf("%s 科学可視化の生成が完了しました！", icon)
	content := a.buildSlackContent(req)

	if err := a.slackClient.SendTextWithHeader(ctx, title, content); err != nil {
		return fmt.Errorf("Slackへの投稿に失敗しました: %w", err)
	}

	slog.Info("Slack に完了通知を送信しました。", "request_id", req.RequestID)
	return nil
}

// NotifyError エラー詳細と実行メタデータを含むSlackエラー通知の送信。
func (a *SlackAdapter) NotifyError(ctx context.Context, errDetail error, req domain.NotificationRequest) error {
	if a.slackClient == nil {
		slog.Info("Slackクライアントが初期化されていないため、エラー通知をスキップします。", "error", errDetail)
		return nil
	}

	// Slackのmrkdwn形式では、アスタリスク(*)でテキストを囲むと太字として解釈されます。
	title := "❌ 処理中にエラーが発生しました"

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*質問:* `%s`\n", req.Question))
	sb.WriteString(fmt.Sprintf("*プロバイダ:* `%s`\n", req.ExecutionMode))
	sb.WriteString(fmt.Sprintf("*リクエストID:* `%s`\n\n", req.RequestID))

	// エラー詳細をコードブロックで囲むことで、スタックトレースなどの可読性を向上させます。
	sb.WriteString("*エラー内容:*\n")
	sb.WriteString(fmt.Sprintf("```\n%v\n```\n", errDetail))

	// エラー発生時でもシーン種別が判明している場合は、その情報を通知に含めることで調査を容易にします。
	if req.SceneType != "" && req.SceneType != domain.SceneNotAvailable {
		sb.WriteString(fmt.Sprintf("\n📍 *シーン:* `%s`", req.SceneType))
	}

	content := sb.String()

	if err := a.slackClient.SendTextWithHeader(ctx, title, content); err != nil {
		return fmt.Errorf("Slackへのエラー通知に失敗しました: %w", err)
	}

	slog.Info("Slack にエラー通知を送信しました。", "error", errDetail)
	return nil
}

// buildSlackContent 通知リクエストに基づき、Slack メッセージの内容を生成します。
func (a *SlackAdapter) buildSlackContent(req domain.NotificationRequest) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("**質問:** `%s`\n", req.Question))
	sb.WriteString(fmt.Sprintf("**シーン:** `%s`\n", req.SceneType))
	sb.WriteString(fmt.Sprintf("**プロバイダ:** `%s`\n\n", req.ExecutionMode))

	// アーカイブリンク（保存が有効な場合のみ）
	if req.ArchiveURI != "" && req.ArchiveURI != domain.SceneNotAvailable {
		consoleURL := "https://console.cloud.google.com/storage/browser/" + strings.TrimPrefix(req.ArchiveURI, "gs://")
		sb.WriteString(fmt.Sprintf("📂 **管理者(Console):** <%s|GCSで直接見るのだ！>\n", consoleURL))
		sb.WriteString(fmt.Sprintf("📍 **保存場所(URI):** `%s`\n", req.ArchiveURI))
	}

	return sb.String()
}

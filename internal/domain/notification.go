package domain

const SceneNotAvailable = "N/A"

// NotificationRequest は Slack 等の通知コンポーネントで共有されるデータ構造です。
// 生成された可視化のメタデータを通知先に伝えるために使用します。
type NotificationRequest struct {
	// Question は、可視化の元になった質問文です。
	Question string `json:"question"`

	// SceneType は、選択されたシーン種別です。(例: "solar_system")
	SceneType string `json:"scene_type"`

	// RequestID は、この実行を一意に識別するIDです。
	RequestID string `json:"request_id"`

	// ArchiveURI は、成果物が保存された場所です。(例: "gs://bucket/output/...")
	ArchiveURI string `json:"archive_uri"`

	// ExecutionMode は、使用されたプロバイダです。(例: "gemini", "mock")
	ExecutionMode string `json:"execution_mode"`
}

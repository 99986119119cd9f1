// Package domain はコンポーネント間で共有される中核データ構造を定義します。
package domain

import "ap-scivis-web/internal/schema"

// Query は利用者から受け取る質問リクエストです。
type Query struct {
	// Content は自然言語の科学質問文です。空であってはなりません。
	Content string `json:"content"`
}

// QueryResponse は質問処理の最終結果です。モデル障害やドキュメント不正の
// 場合でもテキスト応答は必ず返し、アニメーション側のフィールドを null に
// します。フィールドが部分的に欠けることはありません。
type QueryResponse struct {
	// TextResponse は概念の散文説明です。常に非 null です。
	TextResponse string `json:"text_response"`

	// AnimationInstructions は検証済みの指示ドキュメントです。生成失敗時は null。
	AnimationInstructions *schema.AnimationInstructions `json:"animation_instructions"`

	// HTMLAnimation は自己完結の HTML 可視化です。レンダリング失敗時は null。
	HTMLAnimation *string `json:"html_animation"`
}

// Package provider は指示ドキュメントの供給元（Instruction Source）を抽象化します。
// 実プロバイダ（Gemini）とキーワードルール駆動のモックを同じ契約で提供し、
// どちらを使うかは起動時に一度だけ決定されます。
package provider

import (
	"context"
	"fmt"
)

// InstructionSource は質問文から生の指示テキストを取得するケーパビリティです。
// 戻り値のテキストは応答エンベロープ（text + animation_instructions）の JSON
// であることが期待されますが、パース可能性の保証は呼び出し側の責務です。
type InstructionSource interface {
	Fetch(ctx context.Context, question string) (string, error)
}

// ProviderError はネットワーク・タイムアウト・認証など、プロバイダ呼び出し自体の
// 失敗を表します。オーケストレーション境界で捕捉され、フォールバック生成を
// 引き起こします。利用者に生のエラーが見えることはありません。
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

package builder

import (
	"context"
	"fmt"

	"ap-scivis-web/internal/domain"
	"ap-scivis-web/internal/server/handlers"
)

// AppHandlers は生成されたすべての HTTP ハンドラーを保持する構造体です。
// server パッケージはこの構造体を受け取ってルーティングを行います。
type AppHandlers struct {
	Web *handlers.Handler
}

// QueryExecutor は、質問を受け取り対応するビジネスロジックを実行する
// 責務を抽象化します。
type QueryExecutor interface {
	Execute(ctx context.Context, question string) (domain.QueryResponse, error)
}

// BuildHandlers は各ハンドラーの依存関係をすべて組み立て、AppHandlers 構造体を返します。
func BuildHandlers(appCtx *AppContext, executor QueryExecutor) (*AppHandlers, error) {
	webHandler, err := handlers.NewHandler(appCtx.Config, executor)
	if err != nil {
		return nil, fmt.Errorf("WebHandlerの初期化に失敗しました: %w", err)
	}

	return &AppHandlers{
		Web: webHandler,
	}, nil
}

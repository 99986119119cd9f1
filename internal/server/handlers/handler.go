package handlers

import (
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"ap-scivis-web/internal/config"
	"ap-scivis-web/internal/domain"
)

const titleSuffix = " - AP SciVis Web"

// QueryExecutor は質問処理パイプラインの実行面です。
type QueryExecutor interface {
	Execute(ctx context.Context, question string) (domain.QueryResponse, error)
}

type Handler struct {
	cfg           *config.Config
	templateCache map[string]*template.Template
	executor      QueryExecutor
}

// NewHandler は指定された構成に基づいて新しいハンドラーを初期化します。
// テンプレートをコンパイルし、レイアウトファイルが存在することを確認します。
func NewHandler(cfg *config.Config, executor QueryExecutor) (*Handler, error) {
	cache := make(map[string]*template.Template)
	layoutPath := filepath.Join(cfg.TemplateDir, "layout.html")
	if _, err := os.Stat(layoutPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("レイアウトテンプレートが見つかりません: %s", layoutPath)
	}

	pagePaths, err := filepath.Glob(filepath.Join(cfg.TemplateDir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("ページテンプレートの検索に失敗しました: %w", err)
	}

	for _, pagePath := range pagePaths {
		pageName := filepath.Base(pagePath)
		if pageName == "layout.html" {
			continue
		}

		tmpl, err := template.New(pageName).ParseFiles(layoutPath, pagePath)
		if err != nil {
			return nil, fmt.Errorf("テンプレート %s の解析に失敗しました: %w", pageName, err)
		}
		cache[pageName] = tmpl
	}

	return &Handler{
		cfg:           cfg,
		templateCache: cache,
		executor:      executor,
	}, nil
}

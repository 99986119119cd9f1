package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path"
	"strings"

	"ap-scivis-web/internal/schema"

	"golang.org/x/sync/errgroup"
)

// runArchiveStep は検証済みドキュメントと生成HTMLをリクエスト単位の
// ディレクトリへ保存します。アーカイブ失敗は応答へ影響しないため、
// エラーはログに記録するのみです。保存先URIを返します。
func (p *QueryPipeline) runArchiveStep(ctx context.Context, requestID string, doc *schema.AnimationInstructions, html *string) string {
	if p.writer == nil {
		return ""
	}

	workDir := p.cfg.GetWorkDir(requestID)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		slog.ErrorContext(ctx, "Instruction JSON serialization failed", "request_id", requestID, "error", err)
		return ""
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		objectPath := path.Join(workDir, "instructions.json")
		return p.writer.Write(gctx, objectPath, bytes.NewReader(data), "application/json")
	})

	if html != nil {
		g.Go(func() error {
			objectPath := path.Join(workDir, "animation.html")
			return p.writer.Write(gctx, objectPath, strings.NewReader(*html), "text/html")
		})
	}

	if err := g.Wait(); err != nil {
		slog.ErrorContext(ctx, "Archive saving failed", "request_id", requestID, "error", err)
		return ""
	}

	uri := p.cfg.GetArchiveURI(workDir)
	slog.InfoContext(ctx, "Artifacts archived", "request_id", requestID, "uri", uri)
	return uri
}

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"ap-scivis-web/internal/domain"
)

// HandleQuery は科学質問リクエストを処理します。モデル起因の失敗はパイプラインが
// 縮退応答で吸収するため、ここで 5xx になるのは内部バグのみです。
func (h *Handler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	var query domain.Query
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		slog.WarnContext(r.Context(), "リクエストボディの解析に失敗しました", "error", err)
		http.Error(w, "リクエストの解析に失敗しました", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(query.Content) == "" {
		http.Error(w, "質問（content）は必須項目です", http.StatusBadRequest)
		return
	}

	response, err := h.executor.Execute(r.Context(), query.Content)
	if err != nil {
		slog.ErrorContext(r.Context(), "質問処理に失敗しました", "error", err)
		http.Error(w, "質問の処理に失敗しました。管理者にお問い合わせください。", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, response)
}

package handlers

import "net/http"

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "demo.html", "Science Visualizer", nil)
}

// Health は稼働確認用のエンドポイントです。
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

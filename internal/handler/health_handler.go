package handler

import (
	"encoding/json"
	"net/http"
)

// HealthHandler はヘルスチェックのHTTPハンドラー。
// 外部依存を持たないliveness確認のみを提供する。
type HealthHandler struct{}

// NewHealthHandler はHealthHandlerを生成する。
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Check はヘルスチェックリクエストを処理する。
// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

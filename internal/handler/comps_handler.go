package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/pricecomps/internal/model"
)

// CompsServiceInterface は検索ハンドラーが必要とするサービスインターフェース。
type CompsServiceInterface interface {
	// Search はクエリに対する市場統計を返す。
	Search(ctx context.Context, query string) (*model.SearchResult, error)
}

// CompsHandler は市場統計検索のHTTPハンドラー。
type CompsHandler struct {
	service CompsServiceInterface
	logger  *slog.Logger
}

// NewCompsHandler はCompsHandlerを生成する。
func NewCompsHandler(service CompsServiceInterface, logger *slog.Logger) *CompsHandler {
	return &CompsHandler{
		service: service,
		logger:  logger,
	}
}

// clientErrorResponse は4xxエラーのレスポンスボディ。
type clientErrorResponse struct {
	Error string `json:"error"`
}

// serverErrorResponse は5xxエラーのレスポンスボディ。
type serverErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Search は検索リクエストを処理する。
// GET /api/comps?q={query}
func (h *CompsHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	result, err := h.service.Search(r.Context(), query)
	if err != nil {
		h.handleSearchError(w, query, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}

// handleSearchError はサービス層のエラーをHTTPレスポンスに変換する。
// クエリ欠落は400、それ以外（上流障害など）は500とする。
func (h *CompsHandler) handleSearchError(w http.ResponseWriter, query string, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeMissingQuery {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(clientErrorResponse{
			Error: apiErr.Message,
		})
		return
	}

	h.logger.Error("search failed",
		slog.String("query", query),
		slog.String("error", err.Error()),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(serverErrorResponse{
		Error:   "検索に失敗しました。",
		Message: err.Error(),
	})
}

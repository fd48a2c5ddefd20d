package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// NewRecoveryMiddleware はpanic発生時にプロセスクラッシュを防ぎ、
// APIの他のエラーレスポンスと同じJSON形式で500を返すミドルウェアを生成する。
// LoggingMiddlewareの内側で動作するため、レスポンスヘッダーに付与済みの
// X-Request-IDをログに含める。
func NewRecoveryMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					slog.Error("panic recovered",
						slog.Any("panic", rec),
						slog.String("request_id", w.Header().Get("X-Request-ID")),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.String("stack", string(debug.Stack())),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					w.Write([]byte(`{"error": "サーバー内部でエラーが発生しました。"}`))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

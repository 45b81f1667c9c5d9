package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// logSlotContextKey はロギングミドルウェアが内側のミドルウェアから情報を受け取るためのキー。
var logSlotContextKey = contextKey("log_slot")

// logSlot は内側で解決されたユーザーIDをロギングミドルウェアへ渡す。
// 認証はロギングより内側で行われるため、コンテキスト経由では外側から参照できない。
type logSlot struct {
	userID string
}

// quietPaths はコンテナのヘルスチェックなど、成功時はDebugで記録するパス。
var quietPaths = map[string]bool{
	"/api/health": true,
	"/metrics":    true,
}

// statusRecorder は最初に送ったステータスコードと書き込んだバイト数を記録する。
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	bytes      int
	written    bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.statusCode = http.StatusOK
		sr.written = true
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

// NewLoggingMiddleware はリクエストごとに1行のJSONログを出力するミドルウェアを返す。
// method, path, status, duration_ms, bytes に加え、
// 認証済みならuser_id、chiのRequestIDが有効ならrequest_idを含める。
func NewLoggingMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			slot := &logSlot{}
			next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), logSlotContextKey, slot)))

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.statusCode),
				slog.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
				slog.Int("bytes", rec.bytes),
			}
			if reqID := chimw.GetReqID(r.Context()); reqID != "" {
				attrs = append(attrs, slog.String("request_id", reqID))
			}
			userID := slot.userID
			if userID == "" {
				userID, _ = UserIDFromContext(r.Context())
			}
			if userID != "" {
				attrs = append(attrs, slog.String("user_id", userID))
			}

			logger.LogAttrs(r.Context(), requestLogLevel(r.URL.Path, rec.statusCode), "http_request", attrs...)
		})
	}
}

// requestLogLevel は5xxをError、4xxをWarn、それ以外をInfoにする。
// quietPathsの成功応答はDebug。
func requestLogLevel(path string, status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	case quietPaths[path]:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

package gateway

import (
	"log/slog"
	"net/http"
)

// Recovery recovers from a panic anywhere in the handler chain (including
// mid-stream in DispatchStream), logs it through this gateway's slog
// handler (internal/observability), and writes an HTTP 500 error response
// instead of letting the connection die silently. If the handler had
// already sent its headers (an open SSE stream), the status stays as sent
// and only the error text is appended to the body.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.ErrorContext(r.Context(), "panic recovered in handler",
					"error", rec,
					"method", r.Method,
					"path", r.URL.Path,
				)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// RequestSizeLimit bounds the size of an incoming /v1/messages body.
// Handlers that read the body receive *http.MaxBytesError when the limit
// is exceeded.
func RequestSizeLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"net/http"
	"net/url"
	"time"

	"activity-guard/internal/common/logging"
)

// Query parameters whose values are credentials and must never reach the
// logs: the authorization code and the webhook verify token.
var sensitiveParams = map[string]bool{
	"code":             true,
	"hub.verify_token": true,
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs all HTTP requests with method, path, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap the ResponseWriter to capture status code
		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK, // default to 200
		}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)

		fields := []logging.Field{
			{Key: "method", Value: r.Method},
			{Key: "path", Value: r.URL.Path},
			{Key: "status", Value: wrapped.statusCode},
			{Key: "duration_ms", Value: duration.Milliseconds()},
			{Key: "remote_addr", Value: r.RemoteAddr},
		}

		if r.URL.RawQuery != "" {
			fields = append(fields, logging.Field{Key: "query", Value: redactQuery(r.URL.Query())})
		}

		if ua := r.Header.Get("User-Agent"); ua != "" {
			fields = append(fields, logging.Field{Key: "user_agent", Value: ua})
		}

		if subject := r.Header.Get("X-Subject"); subject != "" {
			fields = append(fields, logging.Field{Key: "subject", Value: subject})
		}

		if wrapped.statusCode >= 500 {
			logging.Error("HTTP request completed", nil, fields...)
		} else if wrapped.statusCode >= 400 {
			logging.Warn("HTTP request completed", fields...)
		} else {
			logging.Info("HTTP request completed", fields...)
		}
	})
}

// redactQuery rebuilds the query string with credential values masked.
func redactQuery(query url.Values) string {
	redacted := url.Values{}
	for key, values := range query {
		if sensitiveParams[key] {
			redacted.Set(key, "[REDACTED]")
			continue
		}
		for _, v := range values {
			redacted.Add(key, v)
		}
	}
	return redacted.Encode()
}

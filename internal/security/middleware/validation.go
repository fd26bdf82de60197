package middleware

import (
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"
	"strings"
)

// ValidateJSONContentType rejects record writes under prefix whose body is
// not JSON. Reads, bodiless requests and other paths pass through.
func ValidateJSONContentType(prefix string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isRecordWrite(r, prefix) || r.ContentLength == 0 {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			if mediaType, _, err := mime.ParseMediaType(contentType); err == nil && mediaType == "application/json" {
				next.ServeHTTP(w, r)
				return
			}

			log.Warn("record write without JSON body",
				slog.String("path", r.URL.Path),
				slog.String("content_type", contentType),
				slog.String("method", r.Method),
			)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnsupportedMediaType)
			json.NewEncoder(w).Encode(map[string]string{"error": "employee records must be sent as application/json"})
		})
	}
}

func isRecordWrite(r *http.Request, prefix string) bool {
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		return false
	}
	return r.URL.Path == prefix || strings.HasPrefix(r.URL.Path, prefix+"/")
}

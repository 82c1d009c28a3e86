package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rs/cors"
)

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string
	MaxAge         int
	Debug          bool
	Logger         *slog.Logger
}

// CORS builds the rs/cors handler. The dashboard is read-only, so only safe
// methods are allowed.
func CORS(cfg CORSConfig) func(next http.Handler) http.Handler {
	maxAge := cfg.MaxAge
	if maxAge == 0 {
		maxAge = 300
	}
	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader, "Content-Disposition"},
		MaxAge:         maxAge,
		Debug:          cfg.Debug,
	})
	if cfg.Debug && cfg.Logger != nil {
		c.Log = corsLogger{cfg.Logger}
	}
	return c.Handler
}

type corsLogger struct {
	logger *slog.Logger
}

func (l corsLogger) Printf(format string, v ...interface{}) {
	l.logger.Debug("cors", slog.String("message", fmt.Sprintf(format, v...)))
}

// SecurityHeaders adds security-related headers. Charts are same-origin
// SVG images, hence img-src 'self'.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")

		if r.TLS != nil {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

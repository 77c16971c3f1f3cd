package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
	"github.com/tilequote/quote-api/internal/config"
	"go.uber.org/zap"
)

// CORS builds the go-chi/cors handler for the dashboard front end.
//
// Origins resolve in this order: an explicit list, a "*" entry (any origin, with a
// warning outside development), and when nothing is configured, any origin in
// development and none elsewhere.
func CORS(cfg *config.CORSConfig, environment string, logger *zap.Logger) func(http.Handler) http.Handler {
	options := cors.Options{
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   withHeader(cfg.ExposedHeaders, "Content-Disposition"),
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}
	devLike := environment == "" || environment == "development" || environment == "local"

	switch {
	case containsFold(cfg.AllowedOrigins, "*"):
		if !devLike {
			logger.Warn("CORS allows any origin outside development", zap.String("environment", environment))
		}
		options.AllowOriginFunc = anyOrigin
	case len(cfg.AllowedOrigins) > 0:
		options.AllowedOrigins = cfg.AllowedOrigins
		logger.Info("CORS configured with explicit origins", zap.Strings("origins", cfg.AllowedOrigins))
	case devLike:
		options.AllowOriginFunc = anyOrigin
		logger.Info("CORS allows any origin in development")
	default:
		// go-chi/cors reads an empty AllowedOrigins as "*", so deny explicitly
		options.AllowOriginFunc = func(*http.Request, string) bool { return false }
		logger.Warn("CORS has no allowed origins, cross-origin requests will be denied",
			zap.String("environment", environment))
	}

	return cors.Handler(options)
}

func anyOrigin(_ *http.Request, origin string) bool {
	return origin != ""
}

// withHeader returns headers with name appended unless it is already present.
// Export and backup downloads are named through Content-Disposition.
func withHeader(headers []string, name string) []string {
	if containsFold(headers, name) {
		return headers
	}
	return append(append([]string{}, headers...), name)
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}

package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	"arguxai/internal/platform/config"
	"arguxai/internal/platform/net/middleware"
)

// CommonStack is the middleware applied to every /api/v1 route; cfg is the CORE_API_ view
func CommonStack(cfg config.Conf) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.AccessLog(middleware.AccessLogOptions{Slow: cfg.MayDuration("SLOW_REQUEST", 500*time.Millisecond)}),
		middleware.RecoverJSON,
		middleware.NoCache(),
		middleware.CORS(middleware.CORSOptions{AllowedOrigins: cfg.MayCSV("CORS_ORIGINS", nil)}),
		middleware.Compress(flate.BestSpeed),
		middleware.StripSlashes(),
		// manual detection cycles and diagnoses can take a while
		middleware.Timeout(cfg.MayDuration("REQUEST_TIMEOUT", 90*time.Second)),
	}
}

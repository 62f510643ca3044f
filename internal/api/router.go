package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/mcoot/skyrace/internal/api/handler"
	"github.com/mcoot/skyrace/internal/api/middleware"
	"github.com/mcoot/skyrace/internal/services/session"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	Coordinator *session.Coordinator
	Stream      handler.StreamConfig
	RateLimit   middleware.RateLimitConfig
	// CORSOrigins lists browser origins allowed to call the API. "*"
	// allows any origin. Empty disables cross-origin access.
	CORSOrigins []string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	corsOpts := cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}
	if len(cfg.CORSOrigins) == 0 {
		// rs/cors treats an empty list as "*"
		corsOpts.AllowOriginFunc = func(string) bool { return false }
	}
	corsHandler := cors.New(corsOpts)

	// Non-browser clients send no Origin header
	streamCfg := cfg.Stream
	streamCfg.CheckOrigin = func(req *http.Request) bool {
		return req.Header.Get("Origin") == "" || corsHandler.OriginAllowed(req)
	}

	// Create handlers
	sessionHandler := handler.NewSessionHandler(cfg.Coordinator)
	streamHandler := handler.NewStreamHandler(cfg.Coordinator, streamCfg, cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(middleware.Logging(cfg.Logger))
	api.Use(middleware.RateLimit(cfg.RateLimit, cfg.Logger))

	// Player routes
	api.HandleFunc("/players", sessionHandler.Join).Methods(http.MethodPost)
	api.HandleFunc("/players/{id}", sessionHandler.GetPlayer).Methods(http.MethodGet)
	api.HandleFunc("/players/{id}/updates", sessionHandler.SubmitUpdate).Methods(http.MethodPost)
	api.HandleFunc("/players/{id}/finish", sessionHandler.ReportFinish).Methods(http.MethodPost)

	// Lobby routes
	api.HandleFunc("/lobby", sessionHandler.Lobby).Methods(http.MethodGet)
	api.HandleFunc("/stream", streamHandler.Stream).Methods(http.MethodGet)

	api.HandleFunc("/health", sessionHandler.Health).Methods(http.MethodGet)

	return corsHandler.Handler(r)
}

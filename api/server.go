package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rpupo63/verbavista-backend/auth"
	"github.com/rpupo63/verbavista-backend/config"
	"github.com/rpupo63/verbavista-backend/database"
	"github.com/rpupo63/verbavista-backend/services"
	"github.com/rs/zerolog/log"
)

const healthMessage = "verbaVista API is running"

type Server struct {
	*http.Server
	startupTime time.Time
}

func NewServer(database database.Database, c map[string]string, tokens *auth.TokenManager, images services.ImageStore) (Server, error) {
	if tokens == nil {
		return Server{}, fmt.Errorf("token manager is required")
	}
	if images == nil {
		return Server{}, fmt.Errorf("image store is required")
	}

	port := config.GetString(c, "PORT", "8080")
	address := fmt.Sprintf("0.0.0.0:%s", port) // Bind to 0.0.0.0 for external access

	// Capture startup time
	startupTime := time.Now()

	router := newRouter(database, tokens, images, withConfig(c), withStartupTime(startupTime))

	// Get timeout values from config with sensible defaults
	readTimeout := time.Duration(config.GetInt(c, "READ_TIMEOUT_SECONDS", 30)) * time.Second
	writeTimeout := time.Duration(config.GetInt(c, "WRITE_TIMEOUT_SECONDS", 30)) * time.Second
	idleTimeout := time.Duration(config.GetInt(c, "IDLE_TIMEOUT_SECONDS", 120)) * time.Second

	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  readTimeout,  // Timeout for reading the entire request
		WriteTimeout: writeTimeout, // Timeout for writing the response
		IdleTimeout:  idleTimeout,  // Timeout for idle connections
	}

	return Server{server, startupTime}, nil
}

type router struct {
	config      map[string]string
	startupTime time.Time
}

func withConfig(c map[string]string) func(*router) {
	return func(r *router) {
		r.config = c
	}
}

func withStartupTime(startupTime time.Time) func(*router) {
	return func(r *router) {
		r.startupTime = startupTime
	}
}

func newRouter(database database.Database, tokens *auth.TokenManager, images services.ImageStore, opts ...func(*router)) *chi.Mux {
	var router router
	for _, opt := range opts {
		opt(&router)
	}
	if router.startupTime.IsZero() {
		router.startupTime = time.Now()
	}

	chiRouter := chi.NewRouter()
	chiRouter.Use(LogInternalServerErrors)
	chiRouter.Use(corsMiddleware(config.GetList(router.config, "ACCEPTED_ORIGINS")))

	// Initialize all handlers
	handlers := initializeHandlers(database, tokens, images)

	// Initialize auth middleware
	authMiddleware := newAuthMiddleware(tokens)
	limiter := newIPRateLimiter(
		config.GetInt(router.config, "AUTH_RATE_PER_MINUTE", 10),
		config.GetInt(router.config, "AUTH_RATE_BURST", 5),
	)

	chiRouter.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, healthMessage)
	})
	chiRouter.Get("/health", healthHandler(database, router.startupTime))

	if local, ok := images.(*services.LocalImageStore); ok {
		setupUploadRoutes(chiRouter, local.Dir())
	}

	// Setup all route types
	setupRoutes(chiRouter, handlers, authMiddleware, limiter)

	return chiRouter
}

type HealthResponse struct {
	Status   string `json:"status" example:"ok"`
	Database string `json:"database" example:"ok"`
	Uptime   string `json:"uptime" example:"1h2m3s"`
}

// healthHandler reports uptime and whether the database answers a ping
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse "Service healthy"
// @Failure 503 {object} HealthResponse "Database unreachable"
// @Router /health [get]
func healthHandler(database database.Database, startupTime time.Time) http.HandlerFunc {
	responder := NewResponder(log.With().Str("handlerName", "healthHandler").Logger())
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := HealthResponse{Status: "ok", Database: "ok", Uptime: time.Since(startupTime).Round(time.Second).String()}
		status := http.StatusOK
		if err := database.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("health check database ping failed")
			resp.Status = "degraded"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		}
		responder.WriteJSONStatus(w, status, resp)
	}
}

func (s Server) Start(errChannel chan<- error) {
	log.Info().Msgf("Server started on: %s", s.Addr)
	errChannel <- s.ListenAndServe()
}

func (s Server) ShutdownGracefully(timeout time.Duration) {
	log.Info().Msg("Gracefully shutting down...")

	gracefullCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(gracefullCtx); err != nil {
		log.Error().Msgf("Error shutting down the server: %v", err)
	} else {
		log.Info().Msg("HttpServer gracefully shut down")
	}
}

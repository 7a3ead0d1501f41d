package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/earningbee/bee-engine/internal/activity"
	"github.com/earningbee/bee-engine/internal/assistant"
	"github.com/earningbee/bee-engine/internal/auth"
	"github.com/earningbee/bee-engine/internal/config"
	"github.com/earningbee/bee-engine/internal/recommend"
	"github.com/earningbee/bee-engine/internal/services"
	"github.com/earningbee/bee-engine/internal/storage"
)

// Deps are the collaborators the HTTP layer serves
type Deps struct {
	Engine   *recommend.Engine
	Auth     *auth.Service
	Scanner  auth.BiometricProvider
	Activity *activity.Tracker
	Repo     storage.Repository
	Parser   assistant.VoiceCommandParser
	Health   *services.Registry
}

// Server represents the HTTP API server
type Server struct {
	config         config.ServerConfig
	router         *chi.Mux
	engine         *recommend.Engine
	auth           *auth.Service
	scanner        auth.BiometricProvider
	activity       *activity.Tracker
	repo           storage.Repository
	parser         assistant.VoiceCommandParser
	health         *services.Registry
	sessions       *SessionMiddleware
	limiter        *RateLimiter
	logger         *zap.Logger
	requestTimeout time.Duration
}

// NewServer creates a new API server. A nil limiter disables rate limiting.
func NewServer(cfg config.ServerConfig, deps Deps, limiter *RateLimiter, logger *zap.Logger) *Server {
	parser := deps.Parser
	if parser == nil {
		parser = assistant.KeywordParser{}
	}

	s := &Server{
		config:         cfg,
		engine:         deps.Engine,
		auth:           deps.Auth,
		scanner:        deps.Scanner,
		activity:       deps.Activity,
		repo:           deps.Repo,
		parser:         parser,
		health:         deps.Health,
		sessions:       NewSessionMiddleware(deps.Auth, logger),
		limiter:        limiter,
		logger:         logger,
		requestTimeout: 60 * time.Second,
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.Middleware)
		}

		// The assistant socket is long-lived and must not sit behind the
		// request timeout.
		r.With(s.sessions.RequireSession).Get("/assistant/ws", s.handleAssistantWS)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.requestTimeout))

			r.Route("/methods", func(r chi.Router) {
				r.Get("/", s.handleListMethods)
				r.Get("/{id}", s.handleGetMethod)
				r.Post("/{id}/score", s.handleScoreMethod)
			})

			r.With(s.sessions.OptionalSession).Post("/recommendations", s.handleRecommend)

			r.Route("/auth", func(r chi.Router) {
				r.Post("/scan", s.handleScan)
				r.Post("/login", s.handleLogin)
				r.With(s.sessions.RequireSession).Post("/logout", s.handleLogout)
			})

			r.Route("/me", func(r chi.Router) {
				r.Use(s.sessions.RequireSession)

				r.Get("/", s.handleMe)
				r.Put("/profile", s.handleUpdateProfile)
				r.Post("/avatar", s.handleRegenerateAvatar)

				r.Get("/input", s.handleGetSavedInput)
				r.Get("/recommendations", s.handleSavedRecommendations)

				r.Get("/theme", s.handleGetTheme)
				r.Put("/theme", s.handleSetTheme)

				r.Route("/activity", func(r chi.Router) {
					r.Get("/", s.handleGetActivity)
					r.Delete("/", s.handleResetActivity)
					r.Post("/pages", s.handleRecordPage)
					r.Post("/views", s.handleRecordView)
					r.Post("/time", s.handleAddTime)
				})
			})
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("remote_addr", r.RemoteAddr),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

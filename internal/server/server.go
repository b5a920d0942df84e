package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xela07ax/insights-digest/internal/infra"
	"github.com/xela07ax/insights-digest/internal/server/handler"
)

// Server — HTTP-поверхность сервиса: триггер дайджеста, health, метрики.
type Server struct {
	router *chi.Mux
	logger *zap.Logger
	cfg    *infra.Config

	digestHandler  *handler.DigestHandler
	metricsHandler http.Handler

	// Лимитер общий на процесс: триггер тяжелый (два внешних вызова),
	// и защищаем его целиком, а не по-клиентски
	limiter *rate.Limiter
}

func New(cfg *infra.Config, logger *zap.Logger, digestH *handler.DigestHandler, metricsH http.Handler) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		logger:         logger.Named("http"),
		cfg:            cfg,
		digestHandler:  digestH,
		metricsHandler: metricsH,
		limiter:        rate.NewLimiter(rate.Limit(cfg.Limits.RPS), cfg.Limits.Burst),
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware (для всех) ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// --- 2. Служебные роуты (без лимитера) ---
	r.Group(func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		r.Handle("/metrics", s.metricsHandler)
	})

	// --- 3. Триггер дайджеста ---
	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Get("/api/v1/digest", s.digestHandler.Trigger)
		r.Post("/api/v1/digest", s.digestHandler.Trigger)
	})
}

// rateLimit отсекает лишние вызовы триггера. 429 — транспортный отказ,
// политика "триггер всегда отвечает 200" начинается после него.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			s.logger.Warn("digest trigger rate limited", zap.String("remote", r.RemoteAddr))
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ServeHTTP позволяет использовать Server как стандартный http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

package web

import (
	"context"
	"net/http"
	"time"

	"tiktok-scraping-service/internal/infra/logging"
	"tiktok-scraping-service/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// ProxyForwarder relays a raw payload to one of the engine webhooks.
type ProxyForwarder interface {
	Forward(ctx context.Context, body []byte, hashtag bool) (status int, respBody []byte, err error)
}

type Server struct {
	triggerUC    *usecase.TriggerUseCase
	ingestUC     *usecase.IngestUseCase
	sessionUC    *usecase.SessionUseCase
	forwarder    ProxyForwarder
	maxBodyBytes int64
	log          *zerolog.Logger
}

func NewServer(
	triggerUC *usecase.TriggerUseCase,
	ingestUC *usecase.IngestUseCase,
	sessionUC *usecase.SessionUseCase,
	forwarder ProxyForwarder,
	maxBodyBytes int64,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "web").Logger()
	return &Server{
		triggerUC:    triggerUC,
		ingestUC:     ingestUC,
		sessionUC:    sessionUC,
		forwarder:    forwarder,
		maxBodyBytes: maxBodyBytes,
		log:          &l,
	}
}

// Routes builds the chi router for the whole HTTP surface.
func (s *Server) Routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.accessLog)

	r.Get("/health", s.handleHealth)
	r.Get("/test", s.handleTest)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.With(s.bodyLimit).Post("/trigger-scraping", s.handleTrigger)
		r.With(s.bodyLimit).Post("/n8n-proxy", s.handleProxy)
		r.With(s.bodyLimit).Post("/scraping-results", s.handleIngest)

		r.Get("/scraping-sessions", s.handleListSessions)
		r.Get("/scraping-sessions/{id}", s.handleGetSession)
		r.Get("/results", s.handleAllResults)
		r.Get("/results/{sessionId}", s.handleSessionResults)

		r.Put("/scraping-results/{id}", s.handleReplaceSession)
		r.Delete("/scraping-results/{id}", s.handleDeleteSession)
	})
	return r
}

// bodyLimit rejects oversized payloads before any handler processing.
func (s *Server) bodyLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := logging.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))
		logging.With(ctx, s.log).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleTest(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "scraping service is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Package server exposes the dashboard API: aggregated coin data,
// newsletter subscription and preview, and advertiser slot booking.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/cryptomonth/cryptomonth/internal/advertiser"
	"github.com/cryptomonth/cryptomonth/internal/domain"
	"github.com/cryptomonth/cryptomonth/internal/payments"
)

// SnapshotProvider serves the current aggregated market snapshot.
type SnapshotProvider interface {
	Snapshot(ctx context.Context) (*domain.Snapshot, error)
}

// Subscriber adds readers to the newsletter list.
type Subscriber interface {
	IsConfigured() bool
	Subscribe(ctx context.Context, email, firstName string) error
}

// IntentCreator opens payment intents for advertiser bookings.
type IntentCreator interface {
	IsConfigured() bool
	CreateIntent(ctx context.Context, submissionID, companyName string) (payments.Intent, error)
}

// Config carries the handler knobs the server needs.
type Config struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	BaseURL         string
	SubjectPrefix   string
	GainersLimit    int
	LosersLimit     int
	DefaultPageSize int
	MaxPageSize     int
}

type Server struct {
	router     *mux.Router
	server     *http.Server
	log        zerolog.Logger
	cfg        Config
	snapshots  SnapshotProvider
	advertiser *advertiser.Service
	payments   IntentCreator
	mailer     Subscriber
}

func New(cfg Config, snapshots SnapshotProvider, adv *advertiser.Service,
	pay IntentCreator, mailer Subscriber, log zerolog.Logger) *Server {
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 100
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 500
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 60 * time.Second
	}

	s := &Server{
		router:     mux.NewRouter(),
		log:        log.With().Str("component", "server").Logger(),
		cfg:        cfg,
		snapshots:  snapshots,
		advertiser: adv,
		payments:   pay,
		mailer:     mailer,
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Handler exposes the routed handler, used by tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.timeoutMiddleware)
	s.router.Use(s.corsMiddleware)

	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := s.router.PathPrefix("/").Subrouter()
	api.Use(jsonContentTypeMiddleware)

	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/coins", s.handleCoins).Methods(http.MethodGet)
	api.HandleFunc("/coins/{symbol}", s.handleCoin).Methods(http.MethodGet)
	api.HandleFunc("/subscribe", s.handleSubscribe).Methods(http.MethodPost)
	api.HandleFunc("/advertiser/weeks", s.handleAdvertiserWeeks).Methods(http.MethodGet)
	api.HandleFunc("/advertiser/submissions", s.handleAdvertiserSubmit).Methods(http.MethodPost)
	api.HandleFunc("/advertiser/payment-intent", s.handlePaymentIntent).Methods(http.MethodPost)

	// Preview serves HTML, so it stays outside the JSON subrouter.
	s.router.HandleFunc("/newsletter/preview", s.handlePreview).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("http server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.server.Shutdown(ctx)
}

type ctxKey string

const requestIDKey ctxKey = "request_id"

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()[:8]
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		requestID, _ := r.Context().Value(requestIDKey).(string)
		s.log.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.status).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("request")
	})
}

func (s *Server) timeoutMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 25*time.Second)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func normalizeSymbol(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/AntonStoeckl/booklending/catalog"
	"github.com/AntonStoeckl/booklending/server/core"
	"github.com/AntonStoeckl/booklending/shell"
)

var (
	// ErrNilStore is returned when NewServer is called without a Store.
	ErrNilStore = errors.New("store must not be nil")

	// ErrNilTokenIssuer is returned when NewServer is called without a TokenIssuer.
	ErrNilTokenIssuer = errors.New("token issuer must not be nil")

	// ErrNilClock is returned when a clock option is given nil.
	ErrNilClock = errors.New("clock must not be nil")

	// ErrNilRegisterer is returned when WithPrometheusRegistry is given nil.
	ErrNilRegisterer = errors.New("prometheus registry must not be nil")
)

// Store is what the HTTP API needs from persistence. *postgres.Store implements it.
type Store interface {
	ListBooks(ctx context.Context, query catalog.ListQuery) (catalog.Page, error)
	GetBook(ctx context.Context, id int64) (catalog.Record, error)
	GetBookByISBN(ctx context.Context, isbn string) (catalog.Record, error)
	CreateBook(ctx context.Context, draft catalog.Draft, entry core.ActionEntry) (catalog.Record, error)
	UpdateBook(ctx context.Context, record catalog.Record) (catalog.Record, error)
	DeleteBook(ctx context.Context, history core.BookHistory, entry core.ActionEntry) error
	BookHistory(ctx context.Context, bookID int64) (core.BookHistory, error)
	AppendAction(ctx context.Context, history core.BookHistory, decision core.DecisionResult) (catalog.Record, error)
	FindUser(ctx context.Context, username string) (core.User, error)
	CreateUser(ctx context.Context, username, passwordHash string, role catalog.Role) (core.User, error)
}

// Server serves the catalog HTTP API.
type Server struct {
	store            Store
	issuer           *TokenIssuer
	now              func() time.Time
	registry         *prometheus.Registry
	httpMetrics      *httpMetrics
	retryOptions     []shell.RetryOption
	metricsCollector shell.MetricsCollector
	tracingCollector shell.TracingCollector
	contextualLogger shell.ContextualLogger
	logger           shell.Logger
}

// Option defines a functional option for configuring Server.
type Option func(*Server) error

// WithClock replaces time.Now for action dates.
func WithClock(now func() time.Time) Option {
	return func(s *Server) error {
		if now == nil {
			return ErrNilClock
		}

		s.now = now

		return nil
	}
}

// WithPrometheusRegistry serves /metrics from registry instead of a private one.
func WithPrometheusRegistry(registry *prometheus.Registry) Option {
	return func(s *Server) error {
		if registry == nil {
			return ErrNilRegisterer
		}

		s.registry = registry

		return nil
	}
}

// WithRetryOptions tunes the backoff used when an action runs into a concurrency conflict.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(s *Server) error {
		s.retryOptions = append(s.retryOptions, opts...)
		return nil
	}
}

// WithMetrics sets the metrics collector for action handling.
func WithMetrics(collector shell.MetricsCollector) Option {
	return func(s *Server) error {
		s.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for action handling.
func WithTracing(collector shell.TracingCollector) Option {
	return func(s *Server) error {
		s.tracingCollector = collector
		return nil
	}
}

// WithContextualLogging sets the contextual logger for the Server.
func WithContextualLogging(logger shell.ContextualLogger) Option {
	return func(s *Server) error {
		s.contextualLogger = logger
		return nil
	}
}

// WithLogging sets the basic logger for the Server.
func WithLogging(logger shell.Logger) Option {
	return func(s *Server) error {
		s.logger = logger
		return nil
	}
}

// NewServer creates a Server on top of store, authenticating with issuer.
func NewServer(store Store, issuer *TokenIssuer, opts ...Option) (*Server, error) {
	if store == nil {
		return nil, ErrNilStore
	}

	if issuer == nil {
		return nil, ErrNilTokenIssuer
	}

	s := &Server{
		store:  store,
		issuer: issuer,
		now:    time.Now,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}

	m, err := newHTTPMetrics(s.registry)
	if err != nil {
		return nil, err
	}

	s.httpMetrics = m

	return s, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.requestID, s.instrument)

	r.Handle("/metrics", s.httpMetrics.handler(s.registry)).Methods(http.MethodGet)
	r.HandleFunc("/api/auth/login", s.handleLogin).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.authenticate)

	api.HandleFunc("/books", s.handleListBooks).Methods(http.MethodGet)
	api.HandleFunc("/books", s.handleCreateBook).Methods(http.MethodPost)
	api.HandleFunc("/books/isbn/{isbn}", s.handleGetBookByISBN).Methods(http.MethodGet)
	api.HandleFunc("/books/{id:[0-9]+}", s.handleGetBook).Methods(http.MethodGet)
	api.HandleFunc("/books/{id:[0-9]+}", s.handleUpdateBook).Methods(http.MethodPut)
	api.HandleFunc("/books/{id:[0-9]+}", s.handleDeleteBook).Methods(http.MethodDelete)
	api.HandleFunc("/actions/{endpoint}", s.handleAction).Methods(http.MethodPost)
	api.HandleFunc("/users", s.handleCreateUser).Methods(http.MethodPost)

	return r
}

func (s *Server) logDebug(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.DebugContext(ctx, msg, args...)
	} else if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *Server) logError(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.ErrorContext(ctx, msg, args...)
	} else if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}

// Package api is the HTTP control surface: stream control, the library
// CRUD endpoints, auth, docs and operational plumbing. Stream control is
// deliberately open; only library mutations and personal data sit behind
// the token middleware.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"library-streaming-api/internal/models"
	"library-streaming-api/internal/store"
	"library-streaming-api/pkg/auth"
	"library-streaming-api/pkg/metrics"
	"library-streaming-api/pkg/stream"
	"library-streaming-api/pkg/websocket"
)

// Deps bundles everything the server serves.
type Deps struct {
	Registry *stream.Registry
	Store    *store.Store
	Auth     *auth.Service
	WS       *websocket.Handler
	Metrics  *metrics.Metrics
	Log      *logrus.Entry

	// MetricsHandler exposes the process registry on /metrics; leave nil
	// to serve no scrape endpoint.
	MetricsHandler http.Handler

	RateLimit rate.Limit
	RateBurst int
}

// Server carries the handler state. Build one with NewServer and mount
// Router on an http.Server.
type Server struct {
	registry       *stream.Registry
	store          *store.Store
	auth           *auth.Service
	ws             *websocket.Handler
	met            *metrics.Metrics
	log            *logrus.Entry
	metricsHandler http.Handler
	limiter        *rate.Limiter
}

func NewServer(d Deps) *Server {
	return &Server{
		registry:       d.Registry,
		store:          d.Store,
		auth:           d.Auth,
		ws:             d.WS,
		met:            d.Metrics,
		log:            d.Log,
		metricsHandler: d.MetricsHandler,
		limiter:        rate.NewLimiter(d.RateLimit, d.RateBurst),
	}
}

// Router builds the full route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)
	r.Use(s.limitRequests)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if s.metricsHandler != nil {
		r.Handle("/metrics", s.metricsHandler).Methods(http.MethodGet)
	}
	r.HandleFunc("/ws", s.ws.HandleConnection)

	r.HandleFunc("/docs", s.handleDocsIndex).Methods(http.MethodGet)
	r.HandleFunc("/docs/rest", s.handleDocsREST).Methods(http.MethodGet)
	r.HandleFunc("/docs/events", s.handleDocsEvents).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/streams", s.handleStreamList).Methods(http.MethodGet)
	api.HandleFunc("/streams/start", s.handleStreamStart).Methods(http.MethodPost)
	api.HandleFunc("/streams/stop-all", s.handleStreamStopAll).Methods(http.MethodPost)
	api.HandleFunc("/streams/presets", s.handlePresetList).Methods(http.MethodGet)
	api.HandleFunc("/streams/presets/{name}", s.handlePresetStart).Methods(http.MethodPost)
	api.HandleFunc("/streams/{name}/stop", s.handleStreamStop).Methods(http.MethodPost)

	api.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)

	api.HandleFunc("/books", s.handleBookList).Methods(http.MethodGet)
	api.HandleFunc("/books/{id}", s.handleBookGet).Methods(http.MethodGet)
	api.Handle("/books", s.authed(s.handleBookCreate)).Methods(http.MethodPost)
	api.Handle("/books/{id}", s.authed(s.handleBookUpdate)).Methods(http.MethodPut)
	api.Handle("/books/{id}", s.admin(s.handleBookDelete)).Methods(http.MethodDelete)

	api.Handle("/users", s.admin(s.handleUserList)).Methods(http.MethodGet)
	api.Handle("/users/me", s.authed(s.handleMe)).Methods(http.MethodGet)

	api.HandleFunc("/issues", s.handleIssueList).Methods(http.MethodGet)
	api.Handle("/issues", s.authed(s.handleIssueCreate)).Methods(http.MethodPost)
	api.Handle("/issues/{id}/return", s.authed(s.handleIssueReturn)).Methods(http.MethodPost)

	api.Handle("/fines", s.authed(s.handleFineList)).Methods(http.MethodGet)
	api.Handle("/fines/{id}/pay", s.authed(s.handleFinePay)).Methods(http.MethodPost)

	return r
}

func (s *Server) authed(h http.HandlerFunc) http.Handler {
	return s.auth.Middleware(h)
}

func (s *Server) admin(h http.HandlerFunc) http.Handler {
	return s.auth.Middleware(auth.RequireRole(models.RoleAdmin)(h))
}

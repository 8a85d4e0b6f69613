package devprovider

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// DefaultCodeExpiry is how long an issued authorization code stays redeemable
const DefaultCodeExpiry = time.Minute

// Server is the development authorization server
type Server struct {
	router       *chi.Mux
	store        Store
	logger       logrus.FieldLogger
	clientID     string
	clientSecret string
	codeExpiry   time.Duration
	deny         bool
	version      string
	random       io.Reader
	now          func() time.Time
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithCodeExpiry sets the authorization code lifetime
func WithCodeExpiry(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.codeExpiry = d
		}
	}
}

// WithDeny makes the consent endpoint refuse every request with access_denied
func WithDeny(deny bool) Option {
	return func(s *Server) {
		s.deny = deny
	}
}

// WithVersion sets the version reported by /health
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// WithRandom sets the source for codes and tokens
func WithRandom(r io.Reader) Option {
	return func(s *Server) {
		s.random = r
	}
}

// NewServer creates a Server that accepts a single registered client
func NewServer(store Store, clientID, clientSecret string, opts ...Option) *Server {
	s := &Server{
		router:       chi.NewRouter(),
		store:        store,
		logger:       logrus.StandardLogger(),
		clientID:     clientID,
		clientSecret: clientSecret,
		codeExpiry:   DefaultCodeExpiry,
		version:      "unknown",
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))

	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get("/health", s.handleHealth())
	s.router.Get("/authorize", s.handleAuthorize())
	s.router.Post("/token", s.handleToken())
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// requestLogger logs one line per request; query strings carry codes and are never logged
func requestLogger(logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   ww.Status(),
				"bytes":    ww.BytesWritten(),
				"duration": time.Since(start),
			}).Info("request")
		})
	}
}

// Package server implements the thinkofyou HTTP interface.
//
// Every route except /healthz requires an access key (?k= or the
// X-Access-Key header). The key decides who is tapping (Identity.Owner)
// and whose bubbles are shown (Identity.Partner).
//
// # Routes
//
//	GET    /                        tap page
//	POST   /api/tap                 record a tap
//	DELETE /api/taps/{id}           remove one of your own taps
//	GET    /api/bubbles.svg         one-shot SVG of the partner's bubbles
//	GET    /api/stream              live diffs as server-sent events
//	POST   /api/views/{id}/resize   resize a live view
//	GET    /healthz                 liveness
package server

import (
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/thinkofyou/pkg/access"
	"github.com/matzehuels/thinkofyou/pkg/bubble"
	"github.com/matzehuels/thinkofyou/pkg/pipeline"
	"github.com/matzehuels/thinkofyou/pkg/store"
	"github.com/matzehuels/thinkofyou/pkg/tap"
	"github.com/matzehuels/thinkofyou/pkg/view"
)

// Config wires a Server.
type Config struct {
	Store  store.Store
	Keys   *access.Keys
	Tapper *tap.Service
	Runner *pipeline.Runner
	Logger *log.Logger

	// Location is the zone periods are evaluated in.
	Location *time.Location
	// Limit is the size of the recent window.
	Limit int
	// Width and Height are used when a client reports no size.
	Width, Height float64
	// Heartbeat is the interval of SSE keep-alive comments.
	Heartbeat time.Duration
}

// DefaultHeartbeat keeps idle event streams open through proxies.
const DefaultHeartbeat = 25 * time.Second

// Server serves the app.
type Server struct {
	cfg    Config
	views  *view.Registry
	logger *log.Logger
	router chi.Router
}

// New creates a server. Store and Keys are required.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Tapper == nil {
		cfg.Tapper = tap.New(cfg.Store, tap.WithLogger(cfg.Logger), tap.WithLocation(cfg.Location))
	}
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(nil, nil, cfg.Logger)
	}
	if cfg.Limit == 0 {
		cfg.Limit = pipeline.DefaultLimit
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		cfg.Width, cfg.Height = bubble.ReferenceWidth, bubble.ReferenceHeight
	}
	if cfg.Heartbeat == 0 {
		cfg.Heartbeat = DefaultHeartbeat
	}

	s := &Server{
		cfg:    cfg,
		views:  view.NewRegistry(),
		logger: cfg.Logger,
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// Views returns the number of live views.
func (s *Server) Views() int { return s.views.Len() }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.cfg.Keys.Middleware(s.deny))

		r.Get("/", s.handlePage)
		r.Route("/api", func(r chi.Router) {
			r.Post("/tap", s.handleTap)
			r.Delete("/taps/{id}", s.handleDeleteTap)
			r.Get("/bubbles.svg", s.handleSVG)
			r.Get("/stream", s.handleStream)
			r.Post("/views/{id}/resize", s.handleResize)
		})
	})
	return r
}

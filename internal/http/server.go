package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/go-hclog"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"

	"github.com/Clark-Hu/cinelog/internal/backend"
	"github.com/Clark-Hu/cinelog/internal/config"
	"github.com/Clark-Hu/cinelog/internal/domain"
	"github.com/Clark-Hu/cinelog/internal/marks"
	"github.com/Clark-Hu/cinelog/internal/session"
	"github.com/Clark-Hu/cinelog/internal/state"
)

// HealthChecker is the database view used by /healthz.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
	Stats() *pgxpool.Stat
}

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg      config.Config
	health   HealthChecker
	api      backend.Client
	cache    *state.Cache
	sessions *session.Manager
	marks    *marks.Tracker
	views    *views
	logger   hclog.Logger
	router   chi.Router
	httpSrv  *http.Server
}

// New constructs the HTTP server with base middleware and routes. health may
// be nil, in which case /healthz only reports the catalog.
func New(cfg config.Config, health HealthChecker, api backend.Client, cache *state.Cache, sessions *session.Manager, tracker *marks.Tracker, logger hclog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	s := &Server{
		cfg:      cfg,
		health:   health,
		api:      api,
		cache:    cache,
		sessions: sessions,
		marks:    tracker,
		views:    mustParseViews(),
		logger:   logger,
		router:   r,
	}
	s.registerRoutes()
	return s
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealthz)

	s.router.Group(func(r chi.Router) {
		r.Use(s.withVisitor)

		r.Get("/", s.handleCatalog)
		r.Get("/search", s.handleSearch)
		r.Get("/lists", s.handleLists)
		r.Get("/activity", s.handleActivity)

		r.Get("/login", s.handleLoginPage)
		r.Post("/login", s.handleLogin)
		r.Post("/signup", s.handleSignup)
		r.Post("/logout", s.handleLogout)

		r.Route("/movies/{id}", func(r chi.Router) {
			r.Get("/", s.handleMovie)
			r.Group(func(r chi.Router) {
				r.Use(s.requireVisitor)
				r.Post("/reviews", s.handleCreateReview)
				r.Post("/watched", s.handleToggleMark(domain.MarkWatched))
				r.Post("/favorite", s.handleToggleMark(domain.MarkFavorites))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireVisitor)
			r.Get("/profile", s.handleProfile)
			r.Post("/profile", s.handleRename)
			r.Get("/friends", s.handleFriends)
			r.Post("/friends", s.handleAddFriend)
		})

		r.Route("/api", func(r chi.Router) {
			r.Use(cors.New(corsOptions(s.cfg.CORSAllowedOrigins)).Handler)
			r.Get("/movies", s.handleAPIMovies)
			r.Get("/movies/{id}", s.handleAPIMovie)
			r.Get("/activity", s.handleAPIActivity)
			r.Get("/session", s.handleAPISession)
		})
	})
}

// corsOptions allows credentialed requests only from explicitly listed
// origins. An empty list or a "*" entry means any origin, without cookies.
func corsOptions(origins []string) cors.Options {
	credentials := len(origins) > 0
	for _, o := range origins {
		if o == "*" {
			credentials = false
			break
		}
	}
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet},
		AllowCredentials: credentials,
	}
}

// Start boots the HTTP server asynchronously.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

type healthResponse struct {
	Status        string       `json:"status"`
	CatalogLoaded bool         `json:"catalogLoaded"`
	Banner        string       `json:"banner,omitempty"`
	DB            *poolMetrics `json:"db,omitempty"`
}

type poolMetrics struct {
	TotalConns    int32 `json:"totalConns"`
	IdleConns     int32 `json:"idleConns"`
	AcquiredConns int32 `json:"acquiredConns"`
	MaxConns      int32 `json:"maxConns"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:        "ok",
		CatalogLoaded: s.cache.Loaded(),
		Banner:        s.cache.Banner(),
	}
	if s.health != nil {
		if err := s.health.HealthCheck(ctx); err != nil {
			s.logger.Error("health check failed", "error", err)
			s.respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "database unreachable")
			return
		}
		if st := s.health.Stats(); st != nil {
			resp.DB = &poolMetrics{
				TotalConns:    st.TotalConns(),
				IdleConns:     st.IdleConns(),
				AcquiredConns: st.AcquiredConns(),
				MaxConns:      st.MaxConns(),
			}
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

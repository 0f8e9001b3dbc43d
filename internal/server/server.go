package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jobtracker/apiserver/config"
	"github.com/jobtracker/apiserver/internal/auth"
	"github.com/jobtracker/apiserver/internal/db"
	"github.com/jobtracker/apiserver/internal/handlers"
	"github.com/jobtracker/apiserver/internal/logging"
	"github.com/jobtracker/apiserver/internal/metrics"
	"github.com/jobtracker/apiserver/internal/mq"
	"github.com/jobtracker/apiserver/internal/services"
	"github.com/jobtracker/apiserver/internal/session"
	"github.com/jobtracker/apiserver/internal/storage"
	"github.com/jobtracker/apiserver/internal/store"
)

// ProfileStore is the persistence the server needs for profiles.
type ProfileStore interface {
	auth.ProfileFinder
	services.ProfileRepository
}

// Components are the external collaborators the HTTP surface is built on.
type Components struct {
	Profiles ProfileStore
	Sessions session.Store
	Events   mq.Backend
	// Resumes is nil when resume uploads are disabled.
	Resumes *storage.Storage
	// Health is probed by /healthz; nil reports healthy.
	Health func(ctx context.Context) error
	// Closers run in order on Shutdown.
	Closers []func() error
}

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	logger     *slog.Logger
	closers    []func() error
}

// New opens the database and the configured session, broker and storage
// backends, then builds the server on them.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	comps, err := openComponents(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewWithComponents(cfg, logger, comps), nil
}

func openComponents(ctx context.Context, cfg config.Config, logger *slog.Logger) (comps Components, err error) {
	defer func() {
		if err != nil {
			closeAll(logger, comps.Closers)
		}
	}()

	dbConn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return comps, fmt.Errorf("open database: %w", err)
	}
	comps.Closers = append(comps.Closers, dbConn.Close)
	comps.Profiles = store.NewProfileRepository(dbConn)
	comps.Health = dbConn.PingContext

	if cfg.Redis.Addr != "" {
		client, err := session.NewRedisClient(cfg.Redis)
		if err != nil {
			return comps, fmt.Errorf("redis client: %w", err)
		}
		comps.Closers = append(comps.Closers, client.Close)
		redisStore := session.NewRedisStore(client, cfg.Session.TTL)
		if err := redisStore.Ping(ctx); err != nil {
			return comps, fmt.Errorf("connect redis: %w", err)
		}
		comps.Sessions = redisStore
		logger.Info("sessions stored in redis", "addr", cfg.Redis.Addr)
	} else {
		comps.Sessions = session.NewMemoryStore(cfg.Session.TTL)
		logger.Warn("sessions stored in process memory")
	}

	backend, err := mq.NewBackend(ctx, cfg)
	if err != nil {
		return comps, fmt.Errorf("open mq backend: %w", err)
	}
	comps.Closers = append(comps.Closers, backend.Close)
	comps.Events = backend

	objects, err := storage.NewBackend(ctx, cfg)
	if err != nil {
		return comps, fmt.Errorf("open storage backend: %w", err)
	}
	if objects != nil {
		resumes := storage.NewStorage(objects, cfg.Resume.PublicBaseURL)
		if err := resumes.EnsureBucket(ctx); err != nil {
			return comps, fmt.Errorf("ensure bucket %s: %w", resumes.Bucket(), err)
		}
		comps.Resumes = resumes
	}

	return comps, nil
}

// NewWithComponents builds the router and HTTP server around comps.
func NewWithComponents(cfg config.Config, logger *slog.Logger, comps Components) *Server {
	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	hasher := auth.NewArgon2idHasher()
	issuer := auth.NewIssuer(cfg.Token.TTL)
	authService := auth.NewService(auth.NewVerifier(comps.Profiles, hasher), issuer)

	deps := services.ProfileServiceDeps{
		Repo:              comps.Profiles,
		Hasher:            hasher,
		Tokens:            issuer,
		Events:            mq.NewEvents(comps.Events, logger),
		ActivationBaseURL: cfg.ActivationBaseURL,
		Logger:            logger,
	}
	if comps.Resumes != nil {
		deps.Resumes = comps.Resumes
	}
	profileService := services.NewProfileService(deps)

	sessions := session.NewManager(comps.Sessions, session.CookieOptions{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.CookieSecure,
		MaxAge: cfg.Session.TTL,
	}, logger)

	authHandler := handlers.NewAuthHandler(authService, profileService, sessions, m, logger)
	profileHandler := handlers.NewProfileHandler(profileService, sessions, m, logger, cfg.Resume.MaxBytes)
	signInLimiter := handlers.NewClientRateLimiter(cfg.SignIn.RatePerMinute, cfg.SignIn.Burst, m)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz(comps.Health))
	if m != nil {
		router.Handle("/metrics", m.Handler())
	}
	router.Route("/api", func(r chi.Router) {
		r.Use(sessions.Middleware)
		handlers.AuthRouter(r, authHandler, signInLimiter)
		r.Route("/profile", func(r chi.Router) {
			handlers.ProfileRouter(r, profileHandler, authHandler.RequireAuth)
		})
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router:  router,
		logger:  logger,
		closers: comps.Closers,
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then releases the backends.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	closeAll(s.logger, s.closers)
	return err
}

func closeAll(logger *slog.Logger, closers []func() error) {
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logging.LogError(logger, "close backend", err)
		}
	}
}

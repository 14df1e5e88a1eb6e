package server

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/gorilla/sessions"
	"github.com/joho/godotenv"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/samber/do/v2"
	"github.com/surrealdb/surrealdb.go"

	"github.com/devanmodhavadiya189/chatapp/internal/config"
	"github.com/devanmodhavadiya189/chatapp/internal/database"
	"github.com/devanmodhavadiya189/chatapp/internal/delivery"
	"github.com/devanmodhavadiya189/chatapp/internal/domain"
	"github.com/devanmodhavadiya189/chatapp/internal/filestore"
	"github.com/devanmodhavadiya189/chatapp/internal/handlers"
	"github.com/devanmodhavadiya189/chatapp/internal/logging"
	"github.com/devanmodhavadiya189/chatapp/internal/middleware"
	"github.com/devanmodhavadiya189/chatapp/internal/presence"
	"github.com/devanmodhavadiya189/chatapp/internal/pubsub"
	"github.com/devanmodhavadiya189/chatapp/internal/storage"
	"github.com/devanmodhavadiya189/chatapp/internal/websocket"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	E   *echo.Echo
	DB  *surrealdb.DB
	Cfg config.Provider

	injector do.Injector
	bus      *pubsub.WatermillBridge
	bridge   *websocket.Bridge
	presence *presence.Service

	cancel         context.CancelFunc
	tracingCleanup func()
}

// New creates a new Server instance with all components wired together.
func New() *Server {
	// Load environment variables from .env file if it exists.
	if err := godotenv.Load(); err != nil {
		// slog is not configured yet; the standard logger is fine here.
		log.Println("No .env file found, relying on environment variables")
	}

	logging.New()
	cfg := config.New()

	injector := do.New()
	do.ProvideValue[config.Provider](injector, cfg)

	do.Provide(injector, func(i do.Injector) (*surrealdb.DB, error) {
		return database.NewDB(context.Background(), do.MustInvoke[config.Provider](i))
	})

	tracingCfg := pubsub.LoadTracingConfigFromEnv()
	tracer, tracingCleanup, err := pubsub.SetupOTel(context.Background(), tracingCfg)
	if err != nil {
		slog.Error("Failed to set up tracing", "error", err)
		os.Exit(1)
	}

	do.Provide(injector, func(i do.Injector) (*pubsub.WatermillBridge, error) {
		if tracingCfg.Enabled {
			return pubsub.NewTracedWatermillBridge(tracer), nil
		}
		return pubsub.NewWatermillBridge(), nil
	})

	do.Provide(injector, func(i do.Injector) (domain.UserRepository, error) {
		c := do.MustInvoke[config.Provider](i)
		return database.NewUserStore(do.MustInvoke[*surrealdb.DB](i), c.GetDBNs(), c.GetDBDb()), nil
	})

	do.Provide(injector, func(i do.Injector) (domain.MessageRepository, error) {
		c := do.MustInvoke[config.Provider](i)
		return database.NewMessageStore(do.MustInvoke[*surrealdb.DB](i), c.GetDBNs(), c.GetDBDb()), nil
	})

	do.Provide(injector, func(i do.Injector) (*websocket.Bridge, error) {
		return websocket.NewBridge(do.MustInvoke[*pubsub.WatermillBridge](i)), nil
	})

	do.Provide(injector, func(i do.Injector) (*presence.Service, error) {
		return presence.NewService(), nil
	})

	do.Provide(injector, func(i do.Injector) (*delivery.Router, error) {
		return delivery.NewRouter(
			do.MustInvoke[*presence.Service](i),
			do.MustInvoke[domain.MessageRepository](i),
			do.MustInvoke[*pubsub.WatermillBridge](i),
		), nil
	})

	do.Provide(injector, func(i do.Injector) (*delivery.Coordinator, error) {
		return delivery.NewCoordinator(
			do.MustInvoke[*presence.Service](i),
			do.MustInvoke[domain.MessageRepository](i),
			do.MustInvoke[*pubsub.WatermillBridge](i),
		), nil
	})

	do.Provide(injector, func(i do.Injector) (*filestore.Service, error) {
		c := do.MustInvoke[config.Provider](i)
		return filestore.NewService(storage.NewLocalStore(c.GetUploadDir()), c.GetAppBaseURL()), nil
	})

	db := do.MustInvoke[*surrealdb.DB](injector)
	bus := do.MustInvoke[*pubsub.WatermillBridge](injector)
	bridge := do.MustInvoke[*websocket.Bridge](injector)
	presenceSvc := do.MustInvoke[*presence.Service](injector)
	presenceSvc.SetSeenMarker(do.MustInvoke[*delivery.Coordinator](injector))

	ctx, cancel := context.WithCancel(context.Background())

	if err := bridge.Start(ctx, bus); err != nil {
		slog.Error("Failed to start WebSocket bridge", "error", err)
		cancel()
		os.Exit(1)
	}
	if err := presenceSvc.Start(ctx, bus); err != nil {
		slog.Error("Failed to start presence service", "error", err)
		cancel()
		os.Exit(1)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.RequestID())
	e.Use(middleware.Logger)
	e.Use(echomw.Recover())

	store := sessions.NewCookieStore([]byte(cfg.GetSessionSecret()))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
	}
	e.Use(session.Middleware(store))

	e.Validator = handlers.NewValidator()

	return &Server{
		E:        e,
		DB:       db,
		Cfg:      cfg,
		injector: injector,
		bus:      bus,
		bridge:   bridge,
		presence: presenceSvc,
		cancel:   cancel,

		tracingCleanup: tracingCleanup,
	}
}

// UserStore is a getter for the server's user store, useful for testing.
func (s *Server) UserStore() domain.UserRepository {
	return do.MustInvoke[domain.UserRepository](s.injector)
}

// MessageStore is a getter for the server's message store, useful for testing.
func (s *Server) MessageStore() domain.MessageRepository {
	return do.MustInvoke[domain.MessageRepository](s.injector)
}

// Presence is a getter for the presence service, useful for testing.
func (s *Server) Presence() *presence.Service {
	return s.presence
}

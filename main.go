package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Billy-Davies-2/wordrush/internal/archive"
	"github.com/Billy-Davies-2/wordrush/internal/auth"
	"github.com/Billy-Davies-2/wordrush/internal/clickhouse"
	"github.com/Billy-Davies-2/wordrush/internal/config"
	"github.com/Billy-Davies-2/wordrush/internal/dal"
	"github.com/Billy-Davies-2/wordrush/internal/dictionary"
	"github.com/Billy-Davies-2/wordrush/internal/game"
	grpcserver "github.com/Billy-Davies-2/wordrush/internal/grpc"
	"github.com/Billy-Davies-2/wordrush/internal/handlers"
	"github.com/Billy-Davies-2/wordrush/internal/logger"
	"github.com/Billy-Davies-2/wordrush/internal/mocks"
	"github.com/Billy-Davies-2/wordrush/internal/models"
	"github.com/Billy-Davies-2/wordrush/internal/pubsub"
	"github.com/Billy-Davies-2/wordrush/internal/ratelimit"
	"google.golang.org/grpc"
)

// analytics is what both ClickHouse and its development stand-in provide
type analytics interface {
	RecordRound(*models.RoundResult) error
	TopWords(limit int) ([]models.WordStat, error)
	Close() error
}

func main() {
	// Initialize logger first
	logger.Init()

	logger.Info("Starting WordRush game service")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		log.Fatalf("Invalid configuration: %v", err)
	}

	dict, err := dictionary.Load(cfg.DictionarySources...)
	if err != nil {
		logger.Error("Failed to load dictionary", "error", err, "sources", cfg.DictionarySources)
		log.Fatalf("Failed to load dictionary: %v", err)
	}
	logger.Info("Dictionary loaded", "words", dict.Len())

	store := openStore(cfg)
	defer store.Close()

	upstream, closeBus := openBus(cfg)
	defer closeBus()
	// Local subscribers hear everything that crosses the shared bus
	bus := pubsub.NewWithUpstream(upstream)

	stats := openAnalytics(cfg)
	defer stats.Close()

	authProvider := openAuth(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := game.DefaultRegistryOptions()
	opts.Room = cfg.Room
	opts.IdleTTL = cfg.RoomIdleTTL
	opts.Limiter = ratelimit.NewLimiter(cfg.RateCapacity, cfg.RateRefillPerSec)
	registry := game.NewRegistry(dict, bus, opts)
	defer registry.Close()
	go registry.Run(ctx)

	// Only the instance hosting a room archives its rounds
	archiver := archive.New(store, stats, registry.Hosts)
	go archiver.Run(ctx, bus)

	// Start gRPC server in a goroutine
	grpcServer := grpc.NewServer()
	grpcserver.RegisterGameServiceServer(grpcServer, grpcserver.NewServer(registry, bus))
	go func() {
		lis, err := net.Listen("tcp", "0.0.0.0:"+cfg.GRPCPort)
		if err != nil {
			logger.Error("Failed to listen for gRPC", "error", err, "port", cfg.GRPCPort)
			log.Fatalf("Failed to listen for gRPC: %v", err)
		}

		logger.Info("gRPC server starting", "address", "0.0.0.0:"+cfg.GRPCPort)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("Failed to serve gRPC", "error", err)
			log.Fatalf("Failed to serve gRPC: %v", err)
		}
	}()

	// Set up HTTP routes
	mux := http.NewServeMux()

	// Auth routes (public)
	mux.HandleFunc("/auth/login", authProvider.LoginHandler)
	mux.HandleFunc("/auth/callback", authProvider.CallbackHandler)
	mux.HandleFunc("/auth/logout", authProvider.LogoutHandler)

	api := handlers.NewAPIHandlers(registry, bus, store, stats)

	// Room API. A logged-in user's name is the default display name.
	mux.HandleFunc("/api/rooms/join", authProvider.OptionalMiddleware(api.JoinRoom))
	mux.HandleFunc("/api/rooms/submit", api.SubmitWord)
	mux.HandleFunc("/api/rooms/leave", api.LeaveRoom)
	mux.HandleFunc("/api/rooms/start", api.StartRound)
	mux.HandleFunc("/api/rooms/state", api.GetRoomState)
	mux.HandleFunc("/api/rooms/results", api.ListResults)
	mux.HandleFunc("/api/stats/words", api.TopWords)

	// Realtime updates
	mux.HandleFunc("/api/events", api.EventsSSE)
	mux.HandleFunc("/ws", authProvider.OptionalMiddleware(api.ServeWS))

	// Health check endpoints
	mux.HandleFunc("/api/health", api.Health)
	mux.HandleFunc("/healthz", api.Liveness) // Kubernetes liveness probe
	mux.HandleFunc("/readyz", api.Readiness) // Kubernetes readiness probe

	addr := "0.0.0.0:" + cfg.Port
	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Info("Server starting", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}
	grpcServer.GracefulStop()
}

func openStore(cfg *config.Config) dal.ResultsDAL {
	switch cfg.DBDriver {
	case "sqlite":
		store, err := dal.NewSQLiteDAL(cfg.SQLiteFile)
		if err != nil {
			logger.Error("Failed to initialize SQLite", "error", err)
			log.Fatalf("Failed to initialize SQLite: %v", err)
		}
		logger.Info("Connected to SQLite database", "file", cfg.SQLiteFile)
		return store
	case "postgres":
		if cfg.DatabaseURL == "" {
			// Development without a Postgres server
			store, err := mocks.NewMockPostgresDAL(cfg.SQLiteFile)
			if err != nil {
				logger.Error("Failed to initialize mock Postgres", "error", err)
				log.Fatalf("Failed to initialize mock Postgres: %v", err)
			}
			return store
		}
		store, err := dal.NewPostgresDAL(cfg.DatabaseURL)
		if err != nil {
			logger.Error("Failed to initialize Postgres", "error", err)
			log.Fatalf("Failed to initialize Postgres: %v", err)
		}
		logger.Info("Connected to Postgres database")
		return store
	}
	logger.Info("Using in-memory round archive")
	return dal.NewMemoryDAL()
}

func openBus(cfg *config.Config) (pubsub.Upstream, func()) {
	switch cfg.EventBus {
	case "nats":
		logger.Info("Using real NATS JetStream")
		realNats, err := pubsub.NewNATSPubSub(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			logger.Error("Failed to initialize NATS", "error", err)
			log.Fatalf("Failed to initialize NATS: %v", err)
		}
		logger.Info("Connected to NATS", "url", cfg.NATSURL)
		return realNats, realNats.Close
	case "memory":
		mockNats := mocks.NewMockNATSPubSub()
		return mockNats, mockNats.Close
	}

	logger.Info("Starting embedded NATS server for local development")
	opts := pubsub.DefaultEmbeddedNATSOptions()
	opts.Subject = cfg.NATSSubject
	embeddedNats, err := pubsub.NewEmbeddedNATSPubSub(opts)
	if err != nil {
		logger.Error("Failed to initialize embedded NATS", "error", err)
		log.Fatalf("Failed to initialize embedded NATS: %v", err)
	}
	logger.Info("Embedded NATS server ready", "url", embeddedNats.GetServerURL())
	return embeddedNats, embeddedNats.Close
}

func openAnalytics(cfg *config.Config) analytics {
	if cfg.IsDevelopment() {
		logger.Info("Using mock ClickHouse for local development (no ClickHouse server required)")
		return mocks.NewMockAnalytics()
	}

	client, err := clickhouse.NewClient(cfg.ClickHouseAddr, cfg.ClickHouseDB, cfg.ClickHouseUser, cfg.ClickHousePassword)
	if err != nil {
		logger.Error("Failed to initialize ClickHouse", "error", err, "address", cfg.ClickHouseAddr)
		log.Fatalf("Failed to initialize ClickHouse: %v", err)
	}
	if err := client.EnsureSchema(); err != nil {
		logger.Error("Failed to create ClickHouse schema", "error", err)
		log.Fatalf("Failed to create ClickHouse schema: %v", err)
	}
	logger.Info("Connected to ClickHouse", "address", cfg.ClickHouseAddr, "database", cfg.ClickHouseDB)
	return client
}

// Use mock auth in development mode, Authentik OAuth2 in production
func openAuth(cfg *config.Config) auth.AuthProvider {
	if cfg.IsDevelopment() {
		logger.Info("Using mock authentication for local development (no Authentik server required)")
		return auth.NewMockAuth()
	}

	logger.Info("Using Authentik authentication", "url", cfg.AuthentikBaseURL)
	return auth.NewAuthentikAuth(&auth.AuthentikConfig{
		BaseURL:      cfg.AuthentikBaseURL,
		ClientID:     cfg.AuthentikClientID,
		ClientSecret: cfg.AuthentikClientSecret,
		RedirectURL:  cfg.AuthentikRedirectURL,
		Scopes:       []string{"openid", "profile", "email"},
	})
}

package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"github.com/joho/godotenv"

	"github.com/example/collab-board/internal"
	"github.com/example/collab-board/modules/api"
	"github.com/example/collab-board/modules/broadcast"
	"github.com/example/collab-board/modules/engine"
	"github.com/example/collab-board/modules/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Collab Board - Room Coordination Server ===")

	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := internal.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Create modules
	storeModule := store.NewModule(cfg.BadgerPath, logger)
	engineModule := engine.NewModule(logger, cfg.ApprovalTimeout)
	broadcastModule := broadcast.NewModule()
	apiModule := api.NewModule(cfg.Port, cfg.EventsPerSecond, cfg.EventBurst)

	// Manual injections for pieces not exposed via ServiceContainer:
	// the engine persists through the store and answers through the hub,
	// the API feeds client events into the engine.
	engineModule.SetStore(storeModule)
	engineModule.SetDispatcher(broadcastModule.GetHub())
	apiModule.SetHub(broadcastModule.GetHub())
	apiModule.SetIntake(engineModule)

	// Register modules with the framework.
	// Order: store first so the snapshot is readable when the engine
	// restores, then the engine, then the consumers and the HTTP edge.
	app.Register(storeModule)     // Badger snapshot persistence
	app.Register(engineModule)    // Room coordination engine + services
	app.Register(broadcastModule) // WebSocket hub + lobby event consumer
	app.Register(apiModule)       // HTTP/WebSocket API

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func printStartupInfo(cfg internal.Config) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Architecture:")
	log.Println("  - HTTP Framework: Fiber with WebSocket support")
	log.Println("  - Coordination: single-writer engine loop, FIFO broadcast hub")
	log.Printf("  - Persistence: badger snapshot store at %s", cfg.BadgerPath)
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", cfg.Port)
	log.Println("  GET /health                    - Health check")
	log.Println("  GET /api/v1/rooms              - List all rooms")
	log.Println("  GET /api/v1/rooms/:id/history  - Get chat history")
	log.Println("  GET /api/v1/rooms/:id/board    - Get whiteboard state")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%s/ws):", cfg.Port)
	log.Println("  Events: join-request, host-response, join-room, leave-room,")
	log.Println("          element-update, chat-message, clear-whiteboard, ...")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}

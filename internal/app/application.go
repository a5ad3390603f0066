package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"proctorhub/internal/api"
	"proctorhub/internal/broadcast"
	"proctorhub/internal/config"
	"proctorhub/internal/hub"
	"proctorhub/internal/quiz"
	"proctorhub/internal/registry"
	"proctorhub/internal/relay"
	"proctorhub/internal/store"
	"proctorhub/internal/websocket"
)

// Application wires every component and owns their lifecycle.
type Application struct {
	config      *config.Config
	quizStore   *store.Store
	registry    *registry.Registry
	coordinator *hub.Coordinator
	httpServer  *http.Server
}

// NewApplication builds the component graph in dependency order:
// store → registry → engines → adapter → coordinator → transport → http.
func NewApplication(cfg *config.Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	quizStore, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open quiz store: %w", err)
	}

	reg := registry.NewRegistry()
	relayEngine := relay.NewEngine(reg)
	broadcastEngine := broadcast.NewEngine(reg)
	quizAdapter := quiz.NewAdapter(broadcastEngine)
	coordinator := hub.NewCoordinator(reg, relayEngine, broadcastEngine, quizAdapter)

	wsHandler := websocket.NewHandler(coordinator,
		cfg.WebSocket.PingInterval, cfg.WebSocket.ReadTimeout)

	apiServer := api.NewServer(quizStore, quizStore, quizAdapter, reg)
	engine := apiServer.Router(cfg.Mode, wsHandler.HandleWebSocket)

	httpServer := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:     engine,
		ReadTimeout: cfg.HTTP.ReadTimeout,
		// No server-level write timeout: /ws connections are long-lived and
		// pace their own writes; the API handlers are bounded by the store.
	}

	return &Application{
		config:      cfg,
		quizStore:   quizStore,
		registry:    reg,
		coordinator: coordinator,
		httpServer:  httpServer,
	}, nil
}

// Start brings the HTTP server up and confirms it is accepting.
func (app *Application) Start(ctx context.Context) error {
	log.Info().Str("module", "app").Str("addr", app.httpServer.Addr).Msg("starting proctorhub")

	serverErrCh := make(chan error, 1)
	go func() {
		if err := app.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case err := <-serverErrCh:
		return err
	case <-time.After(100 * time.Millisecond):
		log.Info().Str("module", "app").Msg("proctorhub started")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop shuts down in reverse order: stop accepting traffic, then close the
// store. Live connections drop; membership is not persisted by design.
func (app *Application) Stop(ctx context.Context) error {
	log.Info().Str("module", "app").Msg("shutting down")

	if err := app.httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Str("module", "app").Msg("http shutdown error")
	}
	if err := app.quizStore.Close(); err != nil {
		log.Error().Err(err).Str("module", "app").Msg("store shutdown error")
	}

	log.Info().Str("module", "app").Msg("shutdown complete")
	return nil
}

// Addr returns the configured listen address.
func (app *Application) Addr() string {
	return app.httpServer.Addr
}

// Package server provides the HTTP server for the scanapi API.
package server

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/t569/scanapi/cmd/application"
	"github.com/t569/scanapi/internal/server/cache"
	"github.com/t569/scanapi/internal/server/events"
	"github.com/t569/scanapi/internal/server/events/adapters"
	"github.com/t569/scanapi/internal/server/sse"
	ws "github.com/t569/scanapi/internal/server/websocket"
	"github.com/t569/scanapi/internal/validation"
	"github.com/t569/scanapi/pkg/endpoints"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	app            application.Application
	registry       application.Registry
	validator      *validation.Validator
	cache          *cache.Cache
	broker         *events.Broker
	wsHub          *ws.Hub
	sseBroadcaster *sse.Broadcaster
	upgrader       websocket.Upgrader
	logger         *zerolog.Logger
	config         Config
	ctx            context.Context
	cancel         context.CancelFunc
	done           chan struct{}
	started        atomic.Bool
	removeHooks    []func()
	startTime      time.Time
}

// New creates a new server instance with the given configuration.
func New(app application.Application, cfg Config) (*Server, error) {
	logger := app.Logger()

	logger.Debug().Msg("Creating new server instance")

	// Set defaults
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.PathPrefix == "" {
		cfg.PathPrefix = DefaultConfig().PathPrefix
	}

	reg, err := app.Registry()
	if err != nil {
		return nil, err
	}
	validator, err := validation.New()
	if err != nil {
		return nil, err
	}

	broker := events.NewBroker(logger)
	wsHub := ws.NewHub(logger)
	sseBroadcaster := sse.NewBroadcaster(logger)

	// Subscribe transports to broker
	broker.Subscribe(adapters.NewWebSocketSubscriber(wsHub))
	broker.Subscribe(adapters.NewSSESubscriber(sseBroadcaster))
	logger.Debug().Int("subscribers", broker.SubscriberCount()).Msg("Transports subscribed to event broker")

	ctx, cancel := context.WithCancel(context.Background())

	server := &Server{
		app:            app,
		registry:       reg,
		validator:      validator,
		cache:          cache.New(cfg.CacheTTL, cfg.CacheTTL*2),
		broker:         broker,
		wsHub:          wsHub,
		sseBroadcaster: sseBroadcaster,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true // Allow all origins for WebSocket
			},
		},
		logger:    logger,
		config:    cfg,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		startTime: time.Now(),
	}

	server.connectHooks()

	logger.Debug().Msg("Server instance created successfully")
	return server, nil
}

// connectHooks registers registry hooks that drop cached list pages and
// publish to the broker. Shutdown removes them again.
func (s *Server) connectHooks() {
	onCreated := s.registry.OnEndpointCreated(func(ep endpoints.Endpoint) {
		s.cache.Invalidate()
		s.broker.Publish(events.EndpointCreated, map[string]any{
			"endpoint": ep,
		})
		s.logger.Debug().
			Str("endpoint", ep.Name).
			Msg("Endpoint created event published")
	})

	onUpdated := s.registry.OnEndpointUpdated(func(old, updated endpoints.Endpoint) {
		s.cache.Invalidate()
		s.broker.Publish(events.EndpointUpdated, map[string]any{
			"old_endpoint": old,
			"new_endpoint": updated,
		})
		s.logger.Debug().
			Str("endpoint", updated.Name).
			Msg("Endpoint updated event published")
	})

	s.removeHooks = []func(){onCreated, onUpdated}

	s.logger.Debug().Msg("Registry hooks connected to event broker")
}

// Start starts background services (broker, WebSocket hub, SSE broadcaster).
func (s *Server) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	s.logger.Debug().Msg("Starting background services")

	services := []func(context.Context){s.broker.Run, s.wsHub.Run, s.sseBroadcaster.Run}
	finished := make(chan struct{}, len(services))
	for _, run := range services {
		go func() {
			run(s.ctx)
			finished <- struct{}{}
		}()
	}
	go func() {
		for range services {
			<-finished
		}
		close(s.done)
	}()

	s.logger.Debug().Msg("All background services started")
}

// Handler returns the configured http.Handler with middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// Shutdown stops background services and waits for them until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down server background services")

	for _, remove := range s.removeHooks {
		remove()
	}
	s.cancel()
	if !s.started.Load() {
		return nil
	}

	select {
	case <-s.done:
		s.logger.Info().Msg("Background services shut down successfully")
		return nil
	case <-ctx.Done():
		s.logger.Warn().Msg("Background services shutdown timed out")
		return ctx.Err()
	}
}

// Cache returns the server's cache instance.
func (s *Server) Cache() *cache.Cache {
	return s.cache
}

// WSHub returns the WebSocket hub.
func (s *Server) WSHub() *ws.Hub {
	return s.wsHub
}

// SSEBroadcaster returns the SSE broadcaster.
func (s *Server) SSEBroadcaster() *sse.Broadcaster {
	return s.sseBroadcaster
}

// Broker returns the event broker for publishing events.
func (s *Server) Broker() *events.Broker {
	return s.broker
}

// StartTime returns the server start time for uptime calculations.
func (s *Server) StartTime() time.Time {
	return s.startTime
}

// Package handlers provides HTTP request handlers for the scanapi API.
package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/t569/scanapi/cmd/application"
	"github.com/t569/scanapi/internal/server/cache"
	"github.com/t569/scanapi/internal/server/sse"
	ws "github.com/t569/scanapi/internal/server/websocket"
	"github.com/t569/scanapi/internal/validation"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	app            application.Application
	registry       application.Registry
	validator      *validation.Validator
	cache          *cache.Cache
	wsHub          *ws.Hub
	sseBroadcaster *sse.Broadcaster
	upgrader       websocket.Upgrader
	logger         *zerolog.Logger
	startTime      time.Time
	metrics        http.Handler
}

// New creates a new Handlers instance.
func New(
	app application.Application,
	registry application.Registry,
	validator *validation.Validator,
	cache *cache.Cache,
	wsHub *ws.Hub,
	sseBroadcaster *sse.Broadcaster,
	upgrader websocket.Upgrader,
	logger *zerolog.Logger,
) *Handlers {
	h := &Handlers{
		app:            app,
		registry:       registry,
		validator:      validator,
		cache:          cache,
		wsHub:          wsHub,
		sseBroadcaster: sseBroadcaster,
		upgrader:       upgrader,
		logger:         logger,
		startTime:      time.Now(),
	}
	h.metrics = newMetricsHandler(h)
	return h
}

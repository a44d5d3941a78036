// Package events connects registry hooks to the real-time transports
// (WebSocket, SSE) through a single broker.
package events

import "time"

// EventType represents the type of registry event.
type EventType string

// Event types.
const (
	EndpointCreated EventType = "endpoint.created"
	EndpointUpdated EventType = "endpoint.updated"

	// ClientConnected is sent by transports to a newly attached client.
	ClientConnected EventType = "client.connected"
)

// Event is a registry event. ID increases monotonically per broker.
type Event struct {
	ID        uint64    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

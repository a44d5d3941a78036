// Package application provides the application interface for scanapi commands
// and the HTTP server.
//
// Commands and the server accept this interface rather than the concrete App
// type, so tests can substitute a Mock:
//
//	mock := &application.Mock{
//	    RegistryFunc: func() (application.Registry, error) {
//	        return registrytest.New(t, nil), nil
//	    },
//	}
//	cmd := endpoints.NewCommand(mock)
package application

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/t569/scanapi/internal/registry"
	"github.com/t569/scanapi/pkg/endpoints"
)

// Registry is the set of registry operations commands and handlers use.
// *registry.Registry implements it.
type Registry interface {
	Create(ctx context.Context, req endpoints.CreateRequest) (registry.CreateResult, error)
	Fetch(ctx context.Context, name, secret string) (*endpoints.Artifact, error)
	Update(ctx context.Context, name, secret string, req endpoints.UpdateRequest) (*endpoints.Endpoint, error)
	List(ctx context.Context, page endpoints.Page) ([]endpoints.Endpoint, error)
	Count(ctx context.Context) (int, error)
	Ping(ctx context.Context) error

	OnEndpointCreated(registry.EndpointCreatedHook) (remove func())
	OnEndpointUpdated(registry.EndpointUpdatedHook) (remove func())
	UpdatePolicy() registry.UpdatePolicy
}

var _ Registry = (*registry.Registry)(nil)

// Application provides what commands need from the running app.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Registry returns the endpoint registry, opening the store on first use.
	Registry() (Registry, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}

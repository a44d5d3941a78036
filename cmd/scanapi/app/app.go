// Package app provides the application context and dependency management
// for the scanapi CLI. It centralizes configuration, logging and the
// lazily opened endpoint registry.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/t569/scanapi/cmd/application"
	"github.com/t569/scanapi/internal/registry"
	"github.com/t569/scanapi/internal/store"
	"github.com/t569/scanapi/pkg/artifact"
	"github.com/t569/scanapi/pkg/credential"
	"github.com/t569/scanapi/pkg/errors"
	"github.com/t569/scanapi/pkg/logging"
)

// App represents the scanapi application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// Registry and its store are opened on first use
	mu       sync.Mutex
	store    store.Store
	registry *registry.Registry
}

var _ application.Application = (*App)(nil)

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string { return a.version }

// Commit returns the git commit hash.
func (a *App) Commit() string { return a.commit }

// Date returns the build date.
func (a *App) Date() string { return a.date }

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string { return a.builtBy }

// Config returns the application configuration.
func (a *App) Config() *Config { return a.config }

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger { return a.logger }

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string { return a.config.Format }

// Registry returns the endpoint registry, opening the store on first use.
// Concurrent callers share one instance.
func (a *App) Registry() (application.Registry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.registry != nil {
		return a.registry, nil
	}

	st := a.store
	if st == nil {
		var err error
		st, err = store.Open(context.Background(), a.config.StoreOptions())
		if err != nil {
			return nil, errors.WrapResource("open", "store", a.config.DatabasePath, err)
		}
	}

	reg, err := a.newRegistry(st)
	if err != nil {
		if a.store == nil {
			_ = st.Close()
		}
		return nil, err
	}

	a.store = st
	a.registry = reg
	a.logger.Debug().
		Str("driver", a.config.StoreDriver).
		Str("path", a.config.DatabasePath).
		Str("duplicate_policy", string(reg.DuplicatePolicy())).
		Str("update_policy", string(reg.UpdatePolicy())).
		Msg("Registry opened")
	return reg, nil
}

func (a *App) newRegistry(st store.Store) (*registry.Registry, error) {
	hasher, err := credential.NewBcryptHasher(a.config.BcryptCost)
	if err != nil {
		return nil, err
	}
	encoder, err := artifact.NewQREncoder(a.config.ArtifactOptions())
	if err != nil {
		return nil, err
	}
	dup, err := registry.ParseDuplicatePolicy(a.config.DuplicatePolicy)
	if err != nil {
		return nil, err
	}
	upd, err := registry.ParseUpdatePolicy(a.config.UpdatePolicy)
	if err != nil {
		return nil, err
	}

	regLogger := logging.WithComponent(a.logger, "registry")
	return registry.New(st, hasher, encoder,
		registry.WithDuplicatePolicy(dup),
		registry.WithUpdatePolicy(upd),
		registry.WithLogger(&regLogger),
	)
}

// Shutdown releases the store if it was opened.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	a.registry = nil
	return err
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithStore sets the store the registry is built on (useful for testing).
func WithStore(st store.Store) Option {
	return func(a *App) error {
		a.store = st
		return nil
	}
}

// Package registry implements the credential-gated endpoint registry:
// creating named endpoints with a generated QR artifact, fetching the
// artifact with the right secret, listing and updating endpoints.
package registry

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/t569/scanapi/internal/store"
	"github.com/t569/scanapi/internal/urlcheck"
	"github.com/t569/scanapi/pkg/artifact"
	"github.com/t569/scanapi/pkg/credential"
	"github.com/t569/scanapi/pkg/endpoints"
	"github.com/t569/scanapi/pkg/errors"
)

// Registry is safe for concurrent use. It keeps no state between calls
// beyond its dependencies and registered hooks.
type Registry struct {
	store   store.Store
	hasher  credential.Hasher
	encoder artifact.Encoder

	duplicatePolicy DuplicatePolicy
	updatePolicy    UpdatePolicy
	validURL        urlcheck.Predicate
	logger          *zerolog.Logger

	hooks *hooks
}

// CreateResult reports the outcome of Create.
type CreateResult struct {
	Endpoint endpoints.Endpoint
	// Created is false when the name already existed and nothing was written.
	Created bool
}

// New wires a Registry from its collaborators.
func New(st store.Store, hasher credential.Hasher, encoder artifact.Encoder, opts ...Option) (*Registry, error) {
	if st == nil || hasher == nil || encoder == nil {
		return nil, errors.NewConfigError("registry", "store, hasher and encoder are required", nil)
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("applying options: %w", err)
		}
	}
	return &Registry{
		store:           st,
		hasher:          hasher,
		encoder:         encoder,
		duplicatePolicy: cfg.duplicatePolicy,
		updatePolicy:    cfg.updatePolicy,
		validURL:        cfg.validURL,
		logger:          cfg.logger,
		hooks:           newHooks(),
	}, nil
}

// DuplicatePolicy returns the configured duplicate-name policy.
func (r *Registry) DuplicatePolicy() DuplicatePolicy { return r.duplicatePolicy }

// UpdatePolicy returns the configured update policy.
func (r *Registry) UpdatePolicy() UpdatePolicy { return r.updatePolicy }

// OnEndpointCreated registers a callback for newly persisted endpoints.
// Calling the returned function removes it.
func (r *Registry) OnEndpointCreated(fn EndpointCreatedHook) (remove func()) {
	return r.hooks.addCreated(fn)
}

// OnEndpointUpdated registers a callback for persisted updates.
// Calling the returned function removes it.
func (r *Registry) OnEndpointUpdated(fn EndpointUpdatedHook) (remove func()) {
	return r.hooks.addUpdated(fn)
}

// Ping checks that the store is reachable.
func (r *Registry) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

// Create registers a new endpoint. When the name already exists the
// outcome depends on the duplicate policy: with DuplicateIgnore the
// caller's input is echoed back and nothing is written.
func (r *Registry) Create(ctx context.Context, req endpoints.CreateRequest) (CreateResult, error) {
	if !r.validURL(req.URL) {
		return CreateResult{}, errors.NewInvalidURLError(req.URL)
	}

	sess, err := r.store.Acquire(ctx)
	if err != nil {
		return CreateResult{}, err
	}
	defer sess.Release()

	if _, err := sess.GetByName(ctx, req.Name); err == nil {
		return r.duplicate(req, nil)
	} else if !errors.IsNotFound(err) {
		return CreateResult{}, err
	}

	data, err := r.encoder.Encode(req.URL)
	if err != nil {
		return CreateResult{}, userSupplied(err)
	}
	digest, err := r.hasher.Hash(req.Secret)
	if err != nil {
		return CreateResult{}, err
	}

	rec := &endpoints.Record{
		Name:     req.Name,
		URL:      req.URL,
		Digest:   digest,
		Artifact: data,
	}
	if err := sess.Insert(ctx, rec); err != nil {
		if errors.IsAlreadyExists(err) {
			// lost a race with a concurrent create of the same name
			return r.duplicate(req, err)
		}
		return CreateResult{}, err
	}

	r.logger.Debug().Str("name", rec.Name).Str("id", rec.ID).Int("artifact_bytes", len(data)).Msg("endpoint created")
	view := rec.View()
	r.hooks.created(view)
	return CreateResult{Endpoint: view, Created: true}, nil
}

func (r *Registry) duplicate(req endpoints.CreateRequest, cause error) (CreateResult, error) {
	if r.duplicatePolicy == DuplicateConflict {
		return CreateResult{}, errors.NewConflictError("endpoint", req.Name, cause)
	}
	r.logger.Debug().Str("name", req.Name).Msg("endpoint exists, create ignored")
	return CreateResult{Endpoint: req.View(), Created: false}, nil
}

// Fetch returns the stored artifact for name once secret verifies.
// The artifact bytes are returned exactly as stored.
func (r *Registry) Fetch(ctx context.Context, name, secret string) (*endpoints.Artifact, error) {
	sess, err := r.store.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Release()

	rec, err := sess.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if !r.hasher.Verify(secret, rec.Digest) {
		r.logger.Debug().Str("name", name).Msg("credential rejected")
		return nil, errors.NewInvalidCredentialError()
	}

	return &endpoints.Artifact{
		Name:      rec.Name,
		MediaType: r.encoder.MediaType(),
		Data:      rec.Artifact,
	}, nil
}

// Update applies a partial update to name. Under UpdateDiscard the merged
// record is built and dropped, and the result is nil. Under UpdatePersist
// secret must verify against the stored digest, renames are rejected
// and the returned endpoint reflects the stored state.
func (r *Registry) Update(ctx context.Context, name, secret string, req endpoints.UpdateRequest) (*endpoints.Endpoint, error) {
	sess, err := r.store.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Release()

	rec, err := sess.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	if r.updatePolicy != UpdatePersist {
		merged := merge(rec, req)
		r.logger.Debug().Str("name", name).Str("merged_url", merged.URL).Msg("update discarded")
		return nil, nil
	}

	if !r.hasher.Verify(secret, rec.Digest) {
		return nil, errors.NewInvalidCredentialError()
	}
	if req.Name != nil && *req.Name != rec.Name {
		return nil, errors.NewValidationError("name", *req.Name, "endpoint names cannot be changed")
	}

	before := rec.View()
	next := *rec
	if req.URL != nil && *req.URL != rec.URL {
		if !r.validURL(*req.URL) {
			return nil, errors.NewInvalidURLError(*req.URL)
		}
		data, err := r.encoder.Encode(*req.URL)
		if err != nil {
			return nil, userSupplied(err)
		}
		next.URL = *req.URL
		next.Artifact = data
	}
	if req.Secret != nil {
		digest, err := r.hasher.Hash(*req.Secret)
		if err != nil {
			return nil, err
		}
		next.Digest = digest
	}

	if err := sess.Update(ctx, &next); err != nil {
		return nil, err
	}

	after := next.View()
	r.logger.Debug().Str("name", name).Bool("url_changed", next.URL != rec.URL).Bool("secret_changed", req.Secret != nil).Msg("endpoint updated")
	r.hooks.updated(before, after)
	return &after, nil
}

// merge overlays the supplied fields on a copy of rec. The digest is left
// as stored.
func merge(rec *endpoints.Record, req endpoints.UpdateRequest) endpoints.Record {
	merged := *rec
	if req.Name != nil {
		merged.Name = *req.Name
	}
	if req.URL != nil {
		merged.URL = *req.URL
	}
	return merged
}

// List returns endpoints in insertion order.
func (r *Registry) List(ctx context.Context, page endpoints.Page) ([]endpoints.Endpoint, error) {
	if page.Skip < 0 || page.Limit < 0 {
		return nil, errors.NewValidationError("page", fmt.Sprintf("skip=%d limit=%d", page.Skip, page.Limit), "skip and limit must be non-negative")
	}

	sess, err := r.store.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Release()

	recs, err := sess.List(ctx, page.Skip, page.Limit)
	if err != nil {
		return nil, err
	}
	out := make([]endpoints.Endpoint, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.View())
	}
	return out, nil
}

// Count returns the number of registered endpoints.
func (r *Registry) Count(ctx context.Context) (int, error) {
	sess, err := r.store.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer sess.Release()
	return sess.Count(ctx)
}

// userSupplied marks an encoding failure as caused by request input.
func userSupplied(err error) error {
	var encErr *errors.EncodingError
	if errors.As(err, &encErr) {
		encErr.UserSupplied = true
	}
	return err
}

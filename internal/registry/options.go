package registry

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/t569/scanapi/internal/urlcheck"
	"github.com/t569/scanapi/pkg/errors"
)

// DuplicatePolicy decides what Create does when the name is taken.
type DuplicatePolicy string

const (
	// DuplicateIgnore echoes the caller's input and writes nothing.
	DuplicateIgnore DuplicatePolicy = "ignore"
	// DuplicateConflict fails with a ConflictError.
	DuplicateConflict DuplicatePolicy = "conflict"
)

// UpdatePolicy decides whether Update writes anything.
type UpdatePolicy string

const (
	// UpdateDiscard builds the merged record and drops it.
	UpdateDiscard UpdatePolicy = "discard"
	// UpdatePersist verifies the caller's credential and stores the change.
	UpdatePersist UpdatePolicy = "persist"
)

// ParseDuplicatePolicy converts a config value. Empty means DuplicateIgnore.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch p := DuplicatePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DuplicateIgnore, nil
	case DuplicateIgnore, DuplicateConflict:
		return p, nil
	default:
		return "", errors.NewConfigError("registry", fmt.Sprintf("unknown duplicate policy %q (want ignore or conflict)", s), nil)
	}
}

// ParseUpdatePolicy converts a config value. Empty means UpdateDiscard.
func ParseUpdatePolicy(s string) (UpdatePolicy, error) {
	switch p := UpdatePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return UpdateDiscard, nil
	case UpdateDiscard, UpdatePersist:
		return p, nil
	default:
		return "", errors.NewConfigError("registry", fmt.Sprintf("unknown update policy %q (want discard or persist)", s), nil)
	}
}

type config struct {
	duplicatePolicy DuplicatePolicy
	updatePolicy    UpdatePolicy
	validURL        urlcheck.Predicate
	logger          *zerolog.Logger
}

func defaultConfig() *config {
	nop := zerolog.Nop()
	return &config{
		duplicatePolicy: DuplicateIgnore,
		updatePolicy:    UpdateDiscard,
		validURL:        urlcheck.Valid,
		logger:          &nop,
	}
}

// Option configures a Registry.
type Option func(*config) error

// WithDuplicatePolicy sets the duplicate-name policy for Create.
func WithDuplicatePolicy(p DuplicatePolicy) Option {
	return func(c *config) error {
		parsed, err := ParseDuplicatePolicy(string(p))
		if err != nil {
			return err
		}
		c.duplicatePolicy = parsed
		return nil
	}
}

// WithUpdatePolicy sets the policy for Update.
func WithUpdatePolicy(p UpdatePolicy) Option {
	return func(c *config) error {
		parsed, err := ParseUpdatePolicy(string(p))
		if err != nil {
			return err
		}
		c.updatePolicy = parsed
		return nil
	}
}

// WithURLPredicate replaces the URL well-formedness check.
func WithURLPredicate(fn urlcheck.Predicate) Option {
	return func(c *config) error {
		if fn == nil {
			return errors.NewConfigError("registry", "url predicate must not be nil", nil)
		}
		c.validURL = fn
		return nil
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *config) error {
		if logger != nil {
			c.logger = logger
		}
		return nil
	}
}

// Package endpoints defines the endpoint record and its public views.
package endpoints

import "time"

// Record is the stored endpoint entity. Digest and Artifact never leave
// the registry; use View for anything that is serialized.
type Record struct {
	ID        string
	Name      string
	URL       string
	Digest    []byte
	Artifact  []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Endpoint is the public representation of an endpoint.
type Endpoint struct {
	ID        string     `json:"id,omitempty" yaml:"id,omitempty"`
	Name      string     `json:"name" yaml:"name"`
	URL       string     `json:"url" yaml:"url"`
	CreatedAt *time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// View returns the public representation of r.
func (r *Record) View() Endpoint {
	created, updated := r.CreatedAt, r.UpdatedAt
	ep := Endpoint{ID: r.ID, Name: r.Name, URL: r.URL}
	if !created.IsZero() {
		ep.CreatedAt = &created
	}
	if !updated.IsZero() {
		ep.UpdatedAt = &updated
	}
	return ep
}

// CreateRequest carries the fields needed to register an endpoint.
type CreateRequest struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Secret string `json:"secret"`
}

// View returns the caller-supplied representation, without the secret.
func (c CreateRequest) View() Endpoint {
	return Endpoint{Name: c.Name, URL: c.URL}
}

// UpdateRequest holds the fields explicitly supplied for an update.
// A nil pointer means the field was not provided.
type UpdateRequest struct {
	Name   *string `json:"name,omitempty"`
	URL    *string `json:"url,omitempty"`
	Secret *string `json:"secret,omitempty"`
}

// Empty reports whether no field was supplied.
func (u UpdateRequest) Empty() bool {
	return u.Name == nil && u.URL == nil && u.Secret == nil
}

// Artifact is the payload returned by a successful fetch.
type Artifact struct {
	Name      string
	MediaType string
	Data      []byte
}

// Page bounds a list call.
type Page struct {
	Skip  int
	Limit int
}

// Package repository provides Git repository domain types for the analytics client.
package repository

import (
	"strings"
	"time"
)

// Repository is a read-mostly client copy of a backend repository record.
type Repository struct {
	id            string
	name          string
	url           string
	private       bool
	provider      string
	defaultBranch string
	status        IndexStatus
	description   string
	language      string
	createdAt     time.Time
	updatedAt     time.Time
	lastIndexedAt time.Time
}

// New creates a Repository with the given identifier and source URL.
func New(id, url string, opts ...Option) Repository {
	r := Repository{
		id:     id,
		url:    url,
		status: StatusDiscovered,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// ID returns the backend identifier, normalized to a string.
func (r Repository) ID() string { return r.id }

// Name returns the backend-supplied display name, which may be empty.
func (r Repository) Name() string { return r.name }

// DisplayName returns the name to render: the backend-supplied name when
// present, otherwise the last two path segments of the source URL.
func (r Repository) DisplayName() string {
	if r.name != "" {
		return r.name
	}
	return NameFromURL(r.url)
}

// URL returns the repository source URL.
func (r Repository) URL() string { return r.url }

// Private returns the visibility flag.
func (r Repository) Private() bool { return r.private }

// Provider returns the hosting provider tag (e.g. "github").
func (r Repository) Provider() string { return r.provider }

// DefaultBranch returns the default branch name.
func (r Repository) DefaultBranch() string { return r.defaultBranch }

// Status returns the last known indexing status.
func (r Repository) Status() IndexStatus { return r.status }

// Description returns the optional description.
func (r Repository) Description() string { return r.description }

// Language returns the optional primary language.
func (r Repository) Language() string { return r.language }

// CreatedAt returns the creation timestamp.
func (r Repository) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the last update timestamp.
func (r Repository) UpdatedAt() time.Time { return r.updatedAt }

// LastIndexedAt returns the last successful index timestamp (zero if never).
func (r Repository) LastIndexedAt() time.Time { return r.lastIndexedAt }

// IsEmpty returns true for the zero Repository.
func (r Repository) IsEmpty() bool { return r.id == "" }

// WithStatus returns a copy with the given status.
func (r Repository) WithStatus(status IndexStatus) Repository {
	r.status = status
	return r
}

// Option applies a modification to a Repository under construction.
type Option func(*Repository)

// WithName sets the display name.
func WithName(name string) Option {
	return func(r *Repository) { r.name = name }
}

// WithPrivate sets the visibility flag.
func WithPrivate(private bool) Option {
	return func(r *Repository) { r.private = private }
}

// WithProvider sets the hosting provider tag.
func WithProvider(provider string) Option {
	return func(r *Repository) { r.provider = provider }
}

// WithDefaultBranch sets the default branch name.
func WithDefaultBranch(branch string) Option {
	return func(r *Repository) { r.defaultBranch = branch }
}

// WithIndexStatus sets the indexing status.
func WithIndexStatus(status IndexStatus) Option {
	return func(r *Repository) { r.status = status }
}

// WithDescription sets the description.
func WithDescription(desc string) Option {
	return func(r *Repository) { r.description = desc }
}

// WithLanguage sets the primary language.
func WithLanguage(lang string) Option {
	return func(r *Repository) { r.language = lang }
}

// WithTimestamps sets the creation and update timestamps.
func WithTimestamps(createdAt, updatedAt time.Time) Option {
	return func(r *Repository) {
		r.createdAt = createdAt
		r.updatedAt = updatedAt
	}
}

// WithLastIndexedAt sets the last successful index timestamp.
func WithLastIndexedAt(t time.Time) Option {
	return func(r *Repository) { r.lastIndexedAt = t }
}

// NameFromURL derives a display name from a repository URL: the last two
// path segments joined with "/" ("org/repo"). Falls back to the URL itself
// when fewer than two segments are present.
func NameFromURL(url string) string {
	trimmed := strings.TrimSuffix(strings.TrimRight(url, "/"), ".git")
	parts := strings.Split(trimmed, "/")

	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	if len(segments) < 2 {
		return url
	}
	return segments[len(segments)-2] + "/" + segments[len(segments)-1]
}

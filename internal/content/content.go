package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/culturebot/culturebot/internal/database/types/enum"
)

// ErrUnsupportedKind indicates that no provider is registered for a media kind.
var ErrUnsupportedKind = errors.New("no provider registered for media kind")

// ErrNotFound indicates that a media item does not exist upstream.
var ErrNotFound = errors.New("media not found")

// Result is a single entry returned by a catalog search.
type Result struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
}

// Media is the full record for a single catalog item.
// Kind-specific fields are zero-valued for kinds they do not apply to.
type Media struct {
	ID          string         `json:"id"`
	Kind        enum.MediaKind `json:"kind"`
	Title       string         `json:"title"`
	Overview    string         `json:"overview"`
	ReleaseDate string         `json:"releaseDate"`
	ImageURL    string         `json:"imageUrl"`
	URL         string         `json:"url"`
	Genres      []string       `json:"genres,omitempty"`

	// Series fields.
	Seasons  int    `json:"seasons,omitempty"`
	Episodes int    `json:"episodes,omitempty"`
	Status   string `json:"status,omitempty"`

	// Game fields.
	Platforms []string `json:"platforms,omitempty"`
	Rating    float64  `json:"rating,omitempty"`
	Developer string   `json:"developer,omitempty"`
	Publisher string   `json:"publisher,omitempty"`

	// Music fields.
	Artist    string `json:"artist,omitempty"`
	Tracks    int    `json:"tracks,omitempty"`
	AlbumType string `json:"albumType,omitempty"`
}

// Provider looks up catalog information for a single media kind.
type Provider interface {
	// Search returns up to a handful of candidate results for a free-text query.
	Search(ctx context.Context, query string) ([]Result, error)
	// GetByID returns the full record for a known catalog ID.
	GetByID(ctx context.Context, id string) (*Media, error)
}

// Registry routes media kinds to their backing catalog providers.
type Registry struct {
	providers map[enum.MediaKind]Provider
}

// NewRegistry builds a registry covering all supported media kinds.
func NewRegistry(movies, series, games, music Provider) *Registry {
	return &Registry{
		providers: map[enum.MediaKind]Provider{
			enum.MediaKindMovie:  movies,
			enum.MediaKindSeries: series,
			enum.MediaKindGame:   games,
			enum.MediaKindMusic:  music,
		},
	}
}

// For returns the provider responsible for the given media kind.
func (r *Registry) For(kind enum.MediaKind) (Provider, error) {
	provider, ok := r.providers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}
	return provider, nil
}

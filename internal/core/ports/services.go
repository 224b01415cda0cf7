package ports

import (
	"context"

	"github.com/samirrijal/lunchpick/internal/core/domain"
)

// PlaceSearcher is implemented by every search provider adapter.
// Search issues exactly one upstream call and only fails with *domain.AdapterError.
type PlaceSearcher interface {
	Name() string
	// NeedsRegionHint reports whether the provider searches by text and
	// therefore wants the query's RegionHint filled in.
	NeedsRegionHint() bool
	Search(ctx context.Context, q domain.RecommendationQuery) ([]domain.PlaceCandidate, error)
}

// ReverseGeocoder turns a coordinate into the smallest named region around it.
type ReverseGeocoder interface {
	Name() string
	ReverseGeocode(ctx context.Context, origin domain.Coordinate) (string, error)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishRecommendation(ctx context.Context, event *domain.RecommendationEvent) error
}

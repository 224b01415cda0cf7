package usecases

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/lunchpick/internal/core/domain"
	"github.com/samirrijal/lunchpick/internal/core/ports"
)

// RegionResolver is the geocoding step: it turns an origin into a region hint.
type RegionResolver struct {
	geocoder ports.ReverseGeocoder
	fallback string
	timeout  time.Duration
}

// NewRegionResolver creates a RegionResolver. geocoder may be nil, in which
// case Resolve always returns the fallback.
func NewRegionResolver(geocoder ports.ReverseGeocoder, fallback string, timeout time.Duration) *RegionResolver {
	return &RegionResolver{geocoder: geocoder, fallback: fallback, timeout: timeout}
}

// Resolve returns the region hint for origin. On a geocoder failure it
// returns the fallback together with a GEOCODE_FAILURE error so the caller
// can decide to continue.
func (r *RegionResolver) Resolve(ctx context.Context, origin domain.Coordinate) (string, error) {
	if r.geocoder == nil {
		return r.fallback, nil
	}

	ctx, span := otel.Tracer("RegionResolver").Start(ctx, "recommend.geocode")
	defer span.End()
	span.SetAttributes(attribute.String("provider", r.geocoder.Name()))

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	hint, err := r.geocoder.ReverseGeocode(ctx, origin)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reverse geocode failed")
		return r.fallback, &domain.RecommendError{Kind: domain.KindGeocodeFailure, Message: "reverse geocode failed", Err: err}
	}
	if hint == "" {
		hint = r.fallback
	}

	span.SetAttributes(attribute.String("region_hint", hint))
	span.SetStatus(codes.Ok, "")
	return hint, nil
}

package usecases

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/lunchpick/internal/core/domain"
	"github.com/samirrijal/lunchpick/internal/core/ports"
	"github.com/samirrijal/lunchpick/internal/pkg/geospatial"
	"github.com/samirrijal/lunchpick/internal/pkg/logging"
	"github.com/samirrijal/lunchpick/internal/pkg/metrics"
)

// RecommendOptions tunes a RecommendationService.
type RecommendOptions struct {
	Keyword     string
	Strategy    domain.Strategy // used when a request names none
	CallTimeout time.Duration   // bound on each upstream call
	Random      RandomSource    // nil uses DefaultRandom
}

// RecommendationService runs the recommendation pipeline for one request at a time.
// It holds no per-request state and is safe for concurrent use.
type RecommendationService struct {
	searcher ports.PlaceSearcher
	regions  *RegionResolver
	events   ports.EventPublisher
	opts     RecommendOptions
}

// NewRecommendationService creates a new RecommendationService.
// regions and events may be nil.
func NewRecommendationService(searcher ports.PlaceSearcher, regions *RegionResolver, events ports.EventPublisher, opts RecommendOptions) *RecommendationService {
	if opts.Strategy == "" {
		opts.Strategy = domain.StrategyRandomOne
	}
	if opts.Random == nil {
		opts.Random = DefaultRandom
	}
	if regions == nil {
		regions = NewRegionResolver(nil, "", 0)
	}
	return &RecommendationService{searcher: searcher, regions: regions, events: events, opts: opts}
}

// Provider returns the name of the active search provider.
func (s *RecommendationService) Provider() string { return s.searcher.Name() }

// DefaultStrategy returns the strategy used when a request names none.
func (s *RecommendationService) DefaultStrategy() domain.Strategy { return s.opts.Strategy }

// RecommendRaw validates raw request parameters before running the pipeline.
// Invalid input fails with BAD_INPUT and never reaches an upstream.
func (s *RecommendationService) RecommendRaw(ctx context.Context, rawLat, rawLng, rawStrategy string) (*domain.Recommendation, error) {
	origin, err := domain.ParseCoordinate(rawLat, rawLng)
	if err != nil {
		metrics.RecommendResults.WithLabelValues(string(domain.StateFailed), string(domain.KindBadInput)).Inc()
		return nil, err
	}
	strategy, err := domain.ParseStrategy(rawStrategy, s.opts.Strategy)
	if err != nil {
		metrics.RecommendResults.WithLabelValues(string(domain.StateFailed), string(domain.KindBadInput)).Inc()
		return nil, err
	}
	return s.Recommend(ctx, origin, strategy)
}

// Recommend runs geocoding (when the searcher needs a region hint), search,
// validation and selection.
//
// A BAD_INPUT error returns a nil Recommendation. A SEARCH_FAILURE returns the
// Recommendation in state FAILED with no items. EMPTY and DONE return a nil error.
func (s *RecommendationService) Recommend(ctx context.Context, origin domain.Coordinate, strategy domain.Strategy) (*domain.Recommendation, error) {
	if !origin.IsValid() {
		metrics.RecommendResults.WithLabelValues(string(domain.StateFailed), string(domain.KindBadInput)).Inc()
		return nil, domain.NewBadInput("coordinate out of range")
	}
	switch strategy {
	case "":
		strategy = s.opts.Strategy
	case domain.StrategyAll, domain.StrategyRandomOne:
	default:
		metrics.RecommendResults.WithLabelValues(string(domain.StateFailed), string(domain.KindBadInput)).Inc()
		return nil, domain.NewBadInput("strategy must be one of: all, random")
	}

	ctx, span := otel.Tracer("RecommendationService").Start(ctx, "recommend", trace.WithAttributes(
		attribute.String("provider", s.searcher.Name()),
		attribute.String("strategy", string(strategy)),
	))
	defer span.End()
	log := logging.FromContext(ctx)

	rec := &domain.Recommendation{
		ID:       uuid.NewString(),
		State:    domain.StateStart,
		Strategy: strategy,
		Provider: s.searcher.Name(),
		Origin:   origin,
		Items:    []domain.PlaceCandidate{},
	}
	query := domain.RecommendationQuery{Origin: origin, Keyword: s.opts.Keyword}

	if s.searcher.NeedsRegionHint() {
		rec.State = domain.StateGeocoding
		hint, err := s.regions.Resolve(ctx, origin)
		if err != nil {
			metrics.GeocodeFallbacks.Inc()
			log.Warn("reverse geocode failed, using fallback region",
				"cause", domain.KindGeocodeFailure, "fallback", hint, "error", err)
		}
		query.RegionHint = hint
		rec.RegionHint = hint
	}

	rec.State = domain.StateSearching
	candidates, err := s.search(ctx, query)
	if err != nil {
		rec.State = domain.StateFailed
		rerr := &domain.RecommendError{Kind: domain.KindSearchFailure, Message: "place search failed", Err: err}
		span.RecordError(rerr)
		span.SetStatus(codes.Error, string(domain.KindSearchFailure))
		log.Error("place search failed", "provider", rec.Provider, "error", err)
		s.finish(ctx, rec, domain.KindSearchFailure)
		return rec, rerr
	}

	rec.State = domain.StateValidating
	valid := s.validate(origin, candidates)
	if len(valid) == 0 {
		rec.State = domain.StateEmpty
		span.SetStatus(codes.Ok, "")
		s.finish(ctx, rec, "")
		return rec, nil
	}

	rec.State = domain.StateSelecting
	rec.Items = Select(valid, strategy, s.opts.Random)
	rec.State = domain.StateDone

	span.SetAttributes(attribute.Int("candidates", len(valid)), attribute.Int("items", len(rec.Items)))
	span.SetStatus(codes.Ok, "")
	s.finish(ctx, rec, "")
	return rec, nil
}

func (s *RecommendationService) search(ctx context.Context, q domain.RecommendationQuery) ([]domain.PlaceCandidate, error) {
	ctx, span := otel.Tracer("RecommendationService").Start(ctx, "recommend.search", trace.WithAttributes(
		attribute.String("provider", s.searcher.Name()),
		attribute.String("region_hint", q.RegionHint),
	))
	defer span.End()

	if s.opts.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.CallTimeout)
		defer cancel()
	}

	candidates, err := s.searcher.Search(ctx, q)
	if err == nil && ctx.Err() != nil {
		err = &domain.AdapterError{Provider: s.searcher.Name(), Op: "search", Reason: domain.ReasonTimeout, Err: ctx.Err()}
	}
	if err != nil {
		var ae *domain.AdapterError
		if !errors.As(err, &ae) {
			err = &domain.AdapterError{Provider: s.searcher.Name(), Op: "search", Reason: domain.ReasonTransport, Err: err}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		return nil, err
	}

	span.SetAttributes(attribute.Int("results", len(candidates)))
	span.SetStatus(codes.Ok, "")
	return candidates, nil
}

// validate drops candidates that cannot be shown and fills in distances.
func (s *RecommendationService) validate(origin domain.Coordinate, candidates []domain.PlaceCandidate) []domain.PlaceCandidate {
	out := make([]domain.PlaceCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Title == "" {
			continue
		}
		switch c.Position.System() {
		case domain.SystemGeodetic:
			pos, _ := c.Position.Geodetic()
			if !pos.IsValid() {
				continue
			}
			d := math.Round(geospatial.Haversine(origin.Lat, origin.Lng, pos.Lat, pos.Lng))
			c.Distance = &d
		case domain.SystemPlanar:
			p, _ := c.Position.Planar()
			if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
				continue
			}
		default:
			continue
		}
		out = append(out, c)
	}
	if dropped := len(candidates) - len(out); dropped > 0 {
		metrics.CandidatesDropped.WithLabelValues(s.searcher.Name()).Add(float64(dropped))
	}
	return out
}

// finish records the terminal state and publishes the event. Publishing is
// best effort and never changes the outcome.
func (s *RecommendationService) finish(ctx context.Context, rec *domain.Recommendation, cause domain.ErrorKind) {
	metrics.RecommendResults.WithLabelValues(string(rec.State), string(cause)).Inc()
	log := logging.FromContext(ctx)
	log.Info("recommendation finished",
		"id", rec.ID,
		"state", rec.State,
		"provider", rec.Provider,
		"items", len(rec.Items),
	)

	if s.events == nil {
		return
	}

	event := &domain.RecommendationEvent{
		ID:       rec.ID,
		Time:     time.Now().UTC(),
		State:    rec.State,
		Strategy: rec.Strategy,
		Provider: rec.Provider,
		Items:    len(rec.Items),
		Cause:    cause,
	}
	if cell, err := geospatial.Cell(rec.Origin.Lat, rec.Origin.Lng, geospatial.OriginCellResolution); err == nil {
		event.OriginCell = cell
	}

	if err := s.events.PublishRecommendation(context.WithoutCancel(ctx), event); err != nil {
		metrics.EventsPublished.WithLabelValues("error").Inc()
		log.Warn("publish recommendation event failed", "id", rec.ID, "error", err)
		return
	}
	metrics.EventsPublished.WithLabelValues("ok").Inc()
}

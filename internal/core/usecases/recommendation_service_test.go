package usecases_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/samirrijal/lunchpick/internal/core/domain"
	"github.com/samirrijal/lunchpick/internal/core/usecases"
)

// --- Mocks ---

type mockSearcher struct {
	name      string
	needsHint bool
	searchFn  func(ctx context.Context, q domain.RecommendationQuery) ([]domain.PlaceCandidate, error)
	calls     int
}

func (m *mockSearcher) Name() string {
	if m.name == "" {
		return "mock-search"
	}
	return m.name
}

func (m *mockSearcher) NeedsRegionHint() bool { return m.needsHint }

func (m *mockSearcher) Search(ctx context.Context, q domain.RecommendationQuery) ([]domain.PlaceCandidate, error) {
	m.calls++
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return nil, nil
}

type mockGeocoder struct {
	reverseFn func(ctx context.Context, origin domain.Coordinate) (string, error)
	calls     int
}

func (m *mockGeocoder) Name() string { return "mock-geocode" }

func (m *mockGeocoder) ReverseGeocode(ctx context.Context, origin domain.Coordinate) (string, error) {
	m.calls++
	if m.reverseFn != nil {
		return m.reverseFn(ctx, origin)
	}
	return "", nil
}

type mockPublisher struct {
	events []*domain.RecommendationEvent
	err    error
}

func (m *mockPublisher) PublishRecommendation(ctx context.Context, e *domain.RecommendationEvent) error {
	m.events = append(m.events, e)
	return m.err
}

var seoul = domain.Coordinate{Lat: 37.5665, Lng: 126.978}

func newService(s *mockSearcher, g *mockGeocoder, opts usecases.RecommendOptions) *usecases.RecommendationService {
	var regions *usecases.RegionResolver
	if g != nil {
		regions = usecases.NewRegionResolver(g, "근처", time.Second)
	}
	if opts.CallTimeout == 0 {
		opts.CallTimeout = time.Second
	}
	return usecases.NewRecommendationService(s, regions, nil, opts)
}

// --- Tests ---

func TestRecommendRaw_BadInputMakesNoCalls(t *testing.T) {
	cases := []struct {
		name, lat, lng, strategy string
	}{
		{"missing lat", "", "126.97", ""},
		{"non-numeric lng", "37.56", "abc", ""},
		{"latitude out of range", "123", "126.97", ""},
		{"unknown strategy", "37.56", "126.97", "cheapest"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &mockSearcher{needsHint: true}
			g := &mockGeocoder{}
			svc := newService(s, g, usecases.RecommendOptions{})

			rec, err := svc.RecommendRaw(context.Background(), tc.lat, tc.lng, tc.strategy)
			if domain.KindOf(err) != domain.KindBadInput {
				t.Fatalf("expected BAD_INPUT, got %v", err)
			}
			if rec != nil {
				t.Errorf("expected nil recommendation, got %+v", rec)
			}
			if s.calls != 0 || g.calls != 0 {
				t.Errorf("expected no outbound calls, got search=%d geocode=%d", s.calls, g.calls)
			}
		})
	}
}

func TestRecommendRaw_ValidInputProceeds(t *testing.T) {
	inputs := [][2]string{{"90", "180"}, {"-90", "-180"}, {"0", "0"}, {"37.5665", "126.978"}}
	for _, in := range inputs {
		s := &mockSearcher{}
		svc := newService(s, nil, usecases.RecommendOptions{})
		if _, err := svc.RecommendRaw(context.Background(), in[0], in[1], ""); domain.KindOf(err) == domain.KindBadInput {
			t.Errorf("%v: unexpected BAD_INPUT: %v", in, err)
		}
		if s.calls != 1 {
			t.Errorf("%v: expected one search call, got %d", in, s.calls)
		}
	}
}

func TestRecommend_UnknownStrategyIsBadInput(t *testing.T) {
	s := &mockSearcher{}
	rec, err := newService(s, nil, usecases.RecommendOptions{}).Recommend(context.Background(), seoul, domain.Strategy("BEST"))
	if domain.KindOf(err) != domain.KindBadInput {
		t.Fatalf("expected BAD_INPUT, got %v", err)
	}
	if rec != nil || s.calls != 0 {
		t.Errorf("expected no recommendation and no search, got %+v calls=%d", rec, s.calls)
	}
}

func TestRecommend_Empty(t *testing.T) {
	s := &mockSearcher{
		searchFn: func(ctx context.Context, q domain.RecommendationQuery) ([]domain.PlaceCandidate, error) {
			return []domain.PlaceCandidate{}, nil
		},
	}
	svc := newService(s, nil, usecases.RecommendOptions{})

	rec, err := svc.Recommend(context.Background(), seoul, domain.StrategyAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.State != domain.StateEmpty {
		t.Errorf("expected EMPTY, got %s", rec.State)
	}
	if rec.Items == nil || len(rec.Items) != 0 {
		t.Errorf("expected empty non-nil items, got %#v", rec.Items)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"items":[]`) {
		t.Errorf("expected explicit empty items in %s", data)
	}
}

func TestRecommend_InvalidCandidatesOnlyIsEmpty(t *testing.T) {
	s := &mockSearcher{
		searchFn: func(ctx context.Context, q domain.RecommendationQuery) ([]domain.PlaceCandidate, error) {
			return []domain.PlaceCandidate{
				{Title: "", Position: domain.GeodeticPosition(seoul)},
				{Title: "off the map", Position: domain.GeodeticPosition(domain.Coordinate{Lat: 137, Lng: 126})},
				{Title: "untagged"},
			}, nil
		},
	}
	rec, err := newService(s, nil, usecases.RecommendOptions{}).Recommend(context.Background(), seoul, domain.StrategyAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.State != domain.StateEmpty {
		t.Errorf("expected EMPTY, got %s", rec.State)
	}
}

func TestRecommend_SearchTimeout(t *testing.T) {
	s := &mockSearcher{
		searchFn: func(ctx context.Context, q domain.RecommendationQuery) ([]domain.PlaceCandidate, error) {
			<-ctx.Done()
			return nil, &domain.AdapterError{Provider: "mock-search", Op: "search", Reason: domain.ReasonTimeout, Err: ctx.Err()}
		},
	}
	svc := newService(s, nil, usecases.RecommendOptions{CallTimeout: 20 * time.Millisecond})

	start := time.Now()
	rec, err := svc.Recommend(context.Background(), seoul, domain.StrategyRandomOne)
	if time.Since(start) > 2*time.Second {
		t.Fatal("timeout did not bound the call")
	}
	if domain.KindOf(err) != domain.KindSearchFailure {
		t.Fatalf("expected SEARCH_FAILURE, got %v", err)
	}
	var ae *domain.AdapterError
	if !errors.As(err, &ae) || ae.Reason != domain.ReasonTimeout {
		t.Errorf("expected wrapped timeout AdapterError, got %v", err)
	}
	if rec == nil || rec.State != domain.StateFailed || len(rec.Items) != 0 {
		t.Errorf("expected FAILED with no items, got %+v", rec)
	}
}

func TestRecommend_SearchIgnoringDeadlineStillFails(t *testing.T) {
	s := &mockSearcher{
		searchFn: func(ctx context.Context, q domain.RecommendationQuery) ([]domain.PlaceCandidate, error) {
			time.Sleep(50 * time.Millisecond)
			return candidates("late"), nil
		},
	}
	svc := newService(s, nil, usecases.RecommendOptions{CallTimeout: 10 * time.Millisecond})

	rec, err := svc.Recommend(context.Background(), seoul, domain.StrategyAll)
	if domain.KindOf(err) != domain.KindSearchFailure {
		t.Fatalf("expected SEARCH_FAILURE, got %v", err)
	}
	if rec.State != domain.StateFailed {
		t.Errorf("expected FAILED, got %s", rec.State)
	}
}

func TestRecommend_GeocodeFailureFallsBack(t *testing.T) {
	g := &mockGeocoder{
		reverseFn: func(ctx context.Context, origin domain.Coordinate) (string, error) {
			return "", &domain.AdapterError{Provider: "mock-geocode", Op: "reverse", Reason: domain.ReasonServer, Status: 503}
		},
	}
	s := &mockSearcher{
		needsHint: true,
		searchFn: func(ctx context.Context, q domain.RecommendationQuery) ([]domain.PlaceCandidate, error) {
			if q.RegionHint != "근처" {
				t.Errorf("expected fallback hint, got %q", q.RegionHint)
			}
			return candidates("국밥집"), nil
		},
	}

	rec, err := newService(s, g, usecases.RecommendOptions{}).Recommend(context.Background(), seoul, domain.StrategyRandomOne)
	if err != nil {
		t.Fatalf("geocode failure must not fail the request: %v", err)
	}
	if rec.State != domain.StateDone {
		t.Errorf("expected DONE, got %s", rec.State)
	}
	if len(rec.Items) != 1 || rec.Items[0].Title != "국밥집" {
		t.Errorf("unexpected items %+v", rec.Items)
	}
	if g.calls != 1 || s.calls != 1 {
		t.Errorf("expected one call each, got geocode=%d search=%d", g.calls, s.calls)
	}
}

func TestRecommend_RegionHintPassedToSearch(t *testing.T) {
	g := &mockGeocoder{
		reverseFn: func(ctx context.Context, origin domain.Coordinate) (string, error) {
			return "태평로1가", nil
		},
	}
	var got string
	s := &mockSearcher{
		needsHint: true,
		searchFn: func(ctx context.Context, q domain.RecommendationQuery) ([]domain.PlaceCandidate, error) {
			got = q.RegionHint
			return candidates("a"), nil
		},
	}

	rec, err := newService(s, g, usecases.RecommendOptions{Keyword: "맛집"}).Recommend(context.Background(), seoul, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "태평로1가" || rec.RegionHint != "태평로1가" {
		t.Errorf("expected region hint to flow through, search=%q rec=%q", got, rec.RegionHint)
	}
	if rec.Strategy != domain.StrategyRandomOne {
		t.Errorf("expected default strategy, got %s", rec.Strategy)
	}
}

func TestRecommend_GeodeticSearchSkipsGeocoding(t *testing.T) {
	g := &mockGeocoder{}
	s := &mockSearcher{
		searchFn: func(ctx context.Context, q domain.RecommendationQuery) ([]domain.PlaceCandidate, error) {
			return candidates("a"), nil
		},
	}
	if _, err := newService(s, g, usecases.RecommendOptions{}).Recommend(context.Background(), seoul, domain.StrategyAll); err != nil {
		t.Fatal(err)
	}
	if g.calls != 0 {
		t.Errorf("expected no geocode call, got %d", g.calls)
	}
}

func TestRecommend_AllDropsInvalidAndComputesDistance(t *testing.T) {
	s := &mockSearcher{
		searchFn: func(ctx context.Context, q domain.RecommendationQuery) ([]domain.PlaceCandidate, error) {
			return []domain.PlaceCandidate{
				{Title: "near", Position: domain.GeodeticPosition(domain.Coordinate{Lat: 37.5665, Lng: 126.979})},
				{Title: "", Position: domain.GeodeticPosition(seoul)},
				{Title: "grid", Position: domain.PlanarPosition(domain.PlanarPoint{X: 309946, Y: 552085})},
			}, nil
		},
	}

	rec, err := newService(s, nil, usecases.RecommendOptions{}).Recommend(context.Background(), seoul, domain.StrategyAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.Items) != 2 {
		t.Fatalf("expected 2 valid items, got %d", len(rec.Items))
	}
	if rec.Items[0].Distance == nil || *rec.Items[0].Distance < 80 || *rec.Items[0].Distance > 100 {
		t.Errorf("expected ~88 m distance, got %v", rec.Items[0].Distance)
	}
	if rec.Items[1].Distance != nil {
		t.Error("planar candidates carry no distance")
	}
	if rec.Items[1].Position.System() != domain.SystemPlanar {
		t.Error("planar candidate must keep its tag")
	}
}

func TestRecommend_RandomOneUsesInjectedSource(t *testing.T) {
	s := &mockSearcher{
		searchFn: func(ctx context.Context, q domain.RecommendationQuery) ([]domain.PlaceCandidate, error) {
			return candidates("a", "b", "c"), nil
		},
	}
	svc := newService(s, nil, usecases.RecommendOptions{Random: constSource{2}})

	rec, err := svc.Recommend(context.Background(), seoul, domain.StrategyRandomOne)
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.Items) != 1 || rec.Items[0].Title != "c" {
		t.Errorf("expected c, got %+v", rec.Items)
	}
}

func TestRecommend_PublishesEvent(t *testing.T) {
	s := &mockSearcher{
		searchFn: func(ctx context.Context, q domain.RecommendationQuery) ([]domain.PlaceCandidate, error) {
			return candidates("a"), nil
		},
	}
	pub := &mockPublisher{err: errors.New("broker down")}
	svc := usecases.NewRecommendationService(s, nil, pub, usecases.RecommendOptions{CallTimeout: time.Second})

	rec, err := svc.Recommend(context.Background(), seoul, domain.StrategyAll)
	if err != nil {
		t.Fatalf("publish failures must not fail the request: %v", err)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected one event, got %d", len(pub.events))
	}
	e := pub.events[0]
	if e.ID != rec.ID || e.State != domain.StateDone || e.Items != 1 {
		t.Errorf("unexpected event %+v", e)
	}
	if e.OriginCell == "" {
		t.Error("expected origin cell")
	}
}

func TestRegionResolver_Idempotent(t *testing.T) {
	g := &mockGeocoder{
		reverseFn: func(ctx context.Context, origin domain.Coordinate) (string, error) {
			return "중구", nil
		},
	}
	r := usecases.NewRegionResolver(g, "근처", time.Second)

	first, err := r.Resolve(context.Background(), seoul)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Resolve(context.Background(), seoul)
	if err != nil {
		t.Fatal(err)
	}
	if first != second || first != "중구" {
		t.Errorf("expected stable hint, got %q then %q", first, second)
	}
}

func TestRegionResolver_ErrorReturnsFallback(t *testing.T) {
	g := &mockGeocoder{
		reverseFn: func(ctx context.Context, origin domain.Coordinate) (string, error) {
			return "", errors.New("boom")
		},
	}
	hint, err := usecases.NewRegionResolver(g, "근처", time.Second).Resolve(context.Background(), seoul)
	if hint != "근처" {
		t.Errorf("expected fallback, got %q", hint)
	}
	if domain.KindOf(err) != domain.KindGeocodeFailure {
		t.Errorf("expected GEOCODE_FAILURE, got %v", err)
	}
}

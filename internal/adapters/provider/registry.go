// Package provider wires configured upstream adapters behind the core ports.
package provider

import (
	"fmt"
	"sort"

	"golang.org/x/time/rate"

	"github.com/samirrijal/lunchpick/internal/adapters/naver"
	"github.com/samirrijal/lunchpick/internal/core/domain"
	"github.com/samirrijal/lunchpick/internal/core/ports"
	"github.com/samirrijal/lunchpick/internal/core/usecases"
	"github.com/samirrijal/lunchpick/internal/pkg/config"
)

// Info describes one registered adapter.
type Info struct {
	Name            string `json:"name"`
	Kind            string `json:"kind"` // search | geocode
	Active          bool   `json:"active"`
	NeedsRegionHint bool   `json:"needs_region_hint,omitempty"`
}

// Registry stores named searchers and geocoders and knows which are active.
type Registry struct {
	searchers      map[string]ports.PlaceSearcher
	geocoders      map[string]ports.ReverseGeocoder
	activeSearch   string
	activeGeocoder string
}

// NewRegistry creates an empty registry with the given active names.
// geocoder may be config.ProviderNone.
func NewRegistry(search, geocoder string) *Registry {
	return &Registry{
		searchers:      make(map[string]ports.PlaceSearcher),
		geocoders:      make(map[string]ports.ReverseGeocoder),
		activeSearch:   search,
		activeGeocoder: geocoder,
	}
}

// FromConfig registers every Naver adapter whose credentials are configured.
// Adapters sharing an API quota share one token bucket.
func FromConfig(cfg *config.Config) *Registry {
	r := NewRegistry(cfg.Provider.Search, cfg.Provider.Geocoder)
	rc := cfg.Recommend

	if cfg.Naver.Maps.ClientID != "" {
		o := naver.Options{
			BaseURL:      cfg.Naver.MapsBaseURL,
			ClientID:     cfg.Naver.Maps.ClientID,
			ClientSecret: cfg.Naver.Maps.ClientSecret,
			Timeout:      rc.CallTimeout,
			Limiter:      rate.NewLimiter(rate.Limit(rc.RatePerSec), rc.Burst),
		}
		r.RegisterSearcher(naver.NewPlaceSearch(o, rc.Keyword))
		r.RegisterGeocoder(naver.NewReverseGeocoder(o, rc.FallbackRegion))
	}

	if cfg.Naver.Search.ClientID != "" {
		o := naver.Options{
			BaseURL:      cfg.Naver.SearchBaseURL,
			ClientID:     cfg.Naver.Search.ClientID,
			ClientSecret: cfg.Naver.Search.ClientSecret,
			Timeout:      rc.CallTimeout,
			Limiter:      rate.NewLimiter(rate.Limit(rc.RatePerSec), rc.Burst),
		}
		r.RegisterSearcher(naver.NewLocalSearch(o, rc.Keyword, rc.FallbackRegion, rc.ResultLimit))
	}

	return r
}

// RegisterSearcher adds or replaces a searcher by name.
func (r *Registry) RegisterSearcher(s ports.PlaceSearcher) {
	if s != nil {
		r.searchers[s.Name()] = s
	}
}

// RegisterGeocoder adds or replaces a geocoder by name.
func (r *Registry) RegisterGeocoder(g ports.ReverseGeocoder) {
	if g != nil {
		r.geocoders[g.Name()] = g
	}
}

// Searcher returns the active searcher.
func (r *Registry) Searcher() (ports.PlaceSearcher, error) {
	s, ok := r.searchers[r.activeSearch]
	if !ok {
		return nil, fmt.Errorf("search provider %q is not registered", r.activeSearch)
	}
	return s, nil
}

// Geocoder returns the active geocoder, or nil when geocoding is disabled.
func (r *Registry) Geocoder() (ports.ReverseGeocoder, error) {
	if r.activeGeocoder == "" || r.activeGeocoder == config.ProviderNone {
		return nil, nil
	}
	g, ok := r.geocoders[r.activeGeocoder]
	if !ok {
		return nil, fmt.Errorf("geocoder %q is not registered", r.activeGeocoder)
	}
	return g, nil
}

// Describe lists registered adapters sorted by kind then name.
func (r *Registry) Describe() []Info {
	out := make([]Info, 0, len(r.searchers)+len(r.geocoders))
	for name, s := range r.searchers {
		out = append(out, Info{Name: name, Kind: "search", Active: name == r.activeSearch, NeedsRegionHint: s.NeedsRegionHint()})
	}
	for name := range r.geocoders {
		out = append(out, Info{Name: name, Kind: "geocode", Active: name == r.activeGeocoder})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind > out[j].Kind
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Recommender builds the recommendation service on the active adapters.
// events may be nil.
func (r *Registry) Recommender(cfg *config.Config, events ports.EventPublisher) (*usecases.RecommendationService, error) {
	searcher, err := r.Searcher()
	if err != nil {
		return nil, err
	}
	geocoder, err := r.Geocoder()
	if err != nil {
		return nil, err
	}
	strategy, err := domain.ParseStrategy(cfg.Recommend.Strategy, domain.StrategyRandomOne)
	if err != nil {
		return nil, fmt.Errorf("recommend.strategy: %w", err)
	}

	regions := usecases.NewRegionResolver(geocoder, cfg.Recommend.FallbackRegion, cfg.Recommend.CallTimeout)
	return usecases.NewRecommendationService(searcher, regions, events, usecases.RecommendOptions{
		Keyword:     cfg.Recommend.Keyword,
		Strategy:    strategy,
		CallTimeout: cfg.Recommend.CallTimeout,
	}), nil
}

package naver

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samirrijal/lunchpick/internal/core/domain"
	"github.com/samirrijal/lunchpick/internal/pkg/textutil"
)

// PlaceSearch queries NCP place search around a coordinate.
// Results are WGS 84 and are passed through untouched.
type PlaceSearch struct {
	c       *client
	keyword string
}

// NewPlaceSearch creates a PlaceSearch using NCP Maps credentials.
// keyword is used when a query carries none.
func NewPlaceSearch(opts Options, keyword string) *PlaceSearch {
	return &PlaceSearch{
		c:       newClient(PlaceProviderName, opts, ncpHeaders(opts)),
		keyword: keyword,
	}
}

type placeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"errorMessage"`
	Places       []struct {
		Name         string `json:"name"`
		Category     string `json:"category"`
		RoadAddress  string `json:"road_address"`
		JibunAddress string `json:"jibun_address"`
		X            string `json:"x"`
		Y            string `json:"y"`
	} `json:"places"`
}

func (s *PlaceSearch) Name() string { return PlaceProviderName }

func (s *PlaceSearch) NeedsRegionHint() bool { return false }

// Search returns the places NCP ranks around q.Origin.
func (s *PlaceSearch) Search(ctx context.Context, q domain.RecommendationQuery) (_ []domain.PlaceCandidate, err error) {
	start := time.Now()
	defer func() { s.c.record("search", start, err) }()

	keyword := q.Keyword
	if keyword == "" {
		keyword = s.keyword
	}

	params := url.Values{}
	params.Set("query", keyword)
	params.Set("coordinate", formatCoord(q.Origin))

	var resp placeResponse
	if err = s.c.getJSON(ctx, "search", "/map-place/v1/search", params, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "" && !strings.EqualFold(resp.Status, "OK") {
		return nil, s.c.fail("search", domain.ReasonRejected, 0,
			fmt.Errorf("status %s: %s", resp.Status, resp.ErrorMessage))
	}

	out := make([]domain.PlaceCandidate, 0, len(resp.Places))
	for i, p := range resp.Places {
		lng, err := parseFloatField("x", p.X)
		if err != nil {
			return nil, s.c.fail("search", domain.ReasonMalformed, 0, fmt.Errorf("place %d: %w", i, err))
		}
		lat, err := parseFloatField("y", p.Y)
		if err != nil {
			return nil, s.c.fail("search", domain.ReasonMalformed, 0, fmt.Errorf("place %d: %w", i, err))
		}

		address := p.RoadAddress
		if address == "" {
			address = p.JibunAddress
		}
		out = append(out, domain.PlaceCandidate{
			Title:    textutil.StripMarkup(p.Name),
			Category: p.Category,
			Address:  address,
			Position: domain.GeodeticPosition(domain.Coordinate{Lat: lat, Lng: lng}),
		})
	}
	return out, nil
}

func parseFloatField(name, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("field %s %q: %w", name, raw, err)
	}
	return v, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

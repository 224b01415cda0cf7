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

// LocalSearch queries Naver Developers local search with a text query.
// Positions come back on the TM128 grid and are tagged PLANAR.
type LocalSearch struct {
	c        *client
	keyword  string
	fallback string
	display  int
}

// NewLocalSearch creates a LocalSearch using Naver Developers credentials.
// fallback replaces a missing region hint; display is capped at 5 by the API.
func NewLocalSearch(opts Options, keyword, fallback string, display int) *LocalSearch {
	if display <= 0 || display > 5 {
		display = 5
	}
	return &LocalSearch{
		c: newClient(LocalProviderName, opts, map[string]string{
			"X-Naver-Client-Id":     opts.ClientID,
			"X-Naver-Client-Secret": opts.ClientSecret,
		}),
		keyword:  keyword,
		fallback: fallback,
		display:  display,
	}
}

type localResponse struct {
	Items []struct {
		Title       string `json:"title"`
		Category    string `json:"category"`
		Address     string `json:"address"`
		RoadAddress string `json:"roadAddress"`
		MapX        string `json:"mapx"`
		MapY        string `json:"mapy"`
	} `json:"items"`
}

func (s *LocalSearch) Name() string { return LocalProviderName }

func (s *LocalSearch) NeedsRegionHint() bool { return true }

// QueryText builds the text query sent upstream.
func (s *LocalSearch) QueryText(q domain.RecommendationQuery) string {
	hint := strings.TrimSpace(q.RegionHint)
	if hint == "" {
		hint = s.fallback
	}
	keyword := q.Keyword
	if keyword == "" {
		keyword = s.keyword
	}
	return strings.TrimSpace(hint + " " + keyword)
}

// Search runs the text query and returns the raw grid positions.
func (s *LocalSearch) Search(ctx context.Context, q domain.RecommendationQuery) (_ []domain.PlaceCandidate, err error) {
	start := time.Now()
	defer func() { s.c.record("search", start, err) }()

	params := url.Values{}
	params.Set("query", s.QueryText(q))
	params.Set("display", strconv.Itoa(s.display))
	params.Set("start", "1")
	params.Set("sort", "random")

	var resp localResponse
	if err = s.c.getJSON(ctx, "search", "/v1/search/local.json", params, &resp); err != nil {
		return nil, err
	}

	out := make([]domain.PlaceCandidate, 0, len(resp.Items))
	for i, it := range resp.Items {
		x, err := parseFloatField("mapx", it.MapX)
		if err != nil {
			return nil, s.c.fail("search", domain.ReasonMalformed, 0, fmt.Errorf("item %d: %w", i, err))
		}
		y, err := parseFloatField("mapy", it.MapY)
		if err != nil {
			return nil, s.c.fail("search", domain.ReasonMalformed, 0, fmt.Errorf("item %d: %w", i, err))
		}

		address := it.RoadAddress
		if address == "" {
			address = it.Address
		}
		out = append(out, domain.PlaceCandidate{
			Title:    textutil.StripMarkup(it.Title),
			Category: it.Category,
			Address:  address,
			Position: domain.PlanarPosition(domain.PlanarPoint{X: x, Y: y}),
		})
	}
	return out, nil
}

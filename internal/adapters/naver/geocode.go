package naver

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/samirrijal/lunchpick/internal/core/domain"
)

// NCP reverse geocoding status codes.
const (
	gcStatusOK        = 0
	gcStatusNoResults = 3
)

// ReverseGeocoder resolves a coordinate to its smallest named region
// using NCP reverse geocoding.
type ReverseGeocoder struct {
	c        *client
	fallback string
}

// NewReverseGeocoder creates a ReverseGeocoder. fallback is returned when the
// upstream knows no region for a coordinate.
func NewReverseGeocoder(opts Options, fallback string) *ReverseGeocoder {
	return &ReverseGeocoder{
		c:        newClient(ReverseProviderName, opts, ncpHeaders(opts)),
		fallback: fallback,
	}
}

type area struct {
	Name string `json:"name"`
}

type reverseResponse struct {
	Status struct {
		Code    int    `json:"code"`
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"status"`
	Results []struct {
		Name   string `json:"name"`
		Region struct {
			Area1 area `json:"area1"`
			Area2 area `json:"area2"`
			Area3 area `json:"area3"`
		} `json:"region"`
	} `json:"results"`
}

func (g *ReverseGeocoder) Name() string { return ReverseProviderName }

// ReverseGeocode returns the most specific of area3, area2 and area1 in the
// first result that names one, or the fallback when the hierarchy is empty.
func (g *ReverseGeocoder) ReverseGeocode(ctx context.Context, origin domain.Coordinate) (_ string, err error) {
	start := time.Now()
	defer func() { g.c.record("reverse", start, err) }()

	params := url.Values{}
	params.Set("coords", formatCoord(origin))
	params.Set("orders", "legalcode,admcode")
	params.Set("output", "json")

	var resp reverseResponse
	if err = g.c.getJSON(ctx, "reverse", "/map-reversegeocode/v2/gc", params, &resp); err != nil {
		return "", err
	}

	switch resp.Status.Code {
	case gcStatusOK:
	case gcStatusNoResults:
		return g.fallback, nil
	default:
		return "", g.c.fail("reverse", domain.ReasonRejected, 0,
			fmt.Errorf("status %d %s: %s", resp.Status.Code, resp.Status.Name, resp.Status.Message))
	}

	for _, r := range resp.Results {
		for _, a := range []area{r.Region.Area3, r.Region.Area2, r.Region.Area1} {
			if name := strings.TrimSpace(a.Name); name != "" {
				return name, nil
			}
		}
	}
	return g.fallback, nil
}

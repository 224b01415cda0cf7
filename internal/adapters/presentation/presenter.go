package presentation

import (
	"fmt"

	"github.com/samirrijal/lunchpick/internal/core/domain"
)

// MapSDK is the slice of a map widget the presenter needs.
type MapSDK interface {
	TransformPlanarToGeodetic(p domain.PlanarPoint) (domain.Coordinate, error)
	CreateMarker(at domain.Coordinate, title string) (Marker, error)
	SetCenter(at domain.Coordinate) error
}

// Marker is a handle to a marker placed on the map.
type Marker interface {
	Remove()
}

// Placed is a candidate together with where it ended up on the map.
type Placed struct {
	Candidate domain.PlaceCandidate
	At        domain.Coordinate
	Marker    Marker
}

// Presenter renders recommendations onto a MapSDK. Each Show replaces the
// markers of the previous one. Not safe for concurrent use.
type Presenter struct {
	sdk     MapSDK
	markers []Marker
}

func NewPresenter(sdk MapSDK) *Presenter {
	return &Presenter{sdk: sdk}
}

// Show places one marker per item and centers the map on the first item,
// or on the origin when there are none.
func (p *Presenter) Show(rec *domain.Recommendation) ([]Placed, error) {
	if rec == nil {
		return nil, fmt.Errorf("presentation: nil recommendation")
	}
	p.Clear()

	placed := make([]Placed, 0, len(rec.Items))
	for _, item := range rec.Items {
		at, err := p.resolve(item.Position)
		if err != nil {
			return placed, fmt.Errorf("place %q: %w", item.Title, err)
		}
		m, err := p.sdk.CreateMarker(at, item.Title)
		if err != nil {
			return placed, fmt.Errorf("create marker %q: %w", item.Title, err)
		}
		p.markers = append(p.markers, m)
		placed = append(placed, Placed{Candidate: item, At: at, Marker: m})
	}

	center := rec.Origin
	if len(placed) > 0 {
		center = placed[0].At
	}
	if err := p.sdk.SetCenter(center); err != nil {
		return placed, fmt.Errorf("set center: %w", err)
	}
	return placed, nil
}

// Clear removes every marker placed by the last Show.
func (p *Presenter) Clear() {
	for _, m := range p.markers {
		m.Remove()
	}
	p.markers = nil
}

func (p *Presenter) resolve(pos domain.Position) (domain.Coordinate, error) {
	switch pos.System() {
	case domain.SystemGeodetic:
		c, _ := pos.Geodetic()
		return c, nil
	case domain.SystemPlanar:
		pt, _ := pos.Planar()
		c, err := p.sdk.TransformPlanarToGeodetic(pt)
		if err != nil {
			return domain.Coordinate{}, fmt.Errorf("transform planar point: %w", err)
		}
		if !c.IsValid() {
			return domain.Coordinate{}, fmt.Errorf("transform produced invalid coordinate %+v", c)
		}
		return c, nil
	default:
		return domain.Coordinate{}, fmt.Errorf("position has no coordinate system")
	}
}

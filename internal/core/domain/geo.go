package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Coordinate represents a geographic coordinate (WGS 84) in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// IsValid reports whether both components are finite and inside the geodetic range.
func (c Coordinate) IsValid() bool {
	if !finite(c.Lat) || !finite(c.Lng) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// ParseCoordinate converts raw query values into a Coordinate.
// Every failure is a BAD_INPUT RecommendError.
func ParseCoordinate(rawLat, rawLng string) (Coordinate, error) {
	lat, err := parseDegrees("lat", rawLat)
	if err != nil {
		return Coordinate{}, err
	}
	lng, err := parseDegrees("lng", rawLng)
	if err != nil {
		return Coordinate{}, err
	}

	if lat < -90 || lat > 90 {
		return Coordinate{}, NewBadInput("lat must be between -90 and 90")
	}
	if lng < -180 || lng > 180 {
		return Coordinate{}, NewBadInput("lng must be between -180 and 180")
	}
	return Coordinate{Lat: lat, Lng: lng}, nil
}

func parseDegrees(name, raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, NewBadInput(name + " is required")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &RecommendError{Kind: KindBadInput, Message: name + " must be a number", Err: err}
	}
	if !finite(v) {
		return 0, NewBadInput(name + " must be a finite number")
	}
	return v, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// PlanarPoint is a position on the TM128 grid returned by Naver local search.
// It has no meaning without the grid transform.
type PlanarPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PositionSystem tags the coordinate system a Position was produced in.
type PositionSystem string

const (
	SystemGeodetic PositionSystem = "GEODETIC"
	SystemPlanar   PositionSystem = "PLANAR"
)

// Position holds either a Coordinate or a PlanarPoint.
// Build it with GeodeticPosition or PlanarPosition so the tag matches the value.
type Position struct {
	system PositionSystem
	geo    Coordinate
	planar PlanarPoint
}

// GeodeticPosition wraps a WGS 84 coordinate.
func GeodeticPosition(c Coordinate) Position {
	return Position{system: SystemGeodetic, geo: c}
}

// PlanarPosition wraps a TM128 grid point.
func PlanarPosition(p PlanarPoint) Position {
	return Position{system: SystemPlanar, planar: p}
}

// System returns the coordinate system tag, or "" for the zero Position.
func (p Position) System() PositionSystem { return p.system }

// Geodetic returns the coordinate when the position is GEODETIC.
func (p Position) Geodetic() (Coordinate, bool) {
	return p.geo, p.system == SystemGeodetic
}

// Planar returns the grid point when the position is PLANAR.
func (p Position) Planar() (PlanarPoint, bool) {
	return p.planar, p.system == SystemPlanar
}

// MarshalJSON emits {"lat","lng"} or {"x","y"} depending on the system.
func (p Position) MarshalJSON() ([]byte, error) {
	switch p.system {
	case SystemGeodetic:
		return json.Marshal(p.geo)
	case SystemPlanar:
		return json.Marshal(p.planar)
	default:
		return []byte("null"), nil
	}
}

package geospatial

import (
	"fmt"
	"math"

	"github.com/uber/h3-go/v4"
)

const earthRadiusKm = 6371.0

// OriginCellResolution keeps published origins at roughly 5 km² cells.
const OriginCellResolution = 7

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c * 1000 // meters
}

// Cell returns the H3 index containing the point at the given resolution.
func Cell(lat, lon float64, res int) (string, error) {
	cell, err := h3.LatLngToCell(h3.NewLatLng(lat, lon), res)
	if err != nil {
		return "", fmt.Errorf("h3 cell at res %d: %w", res, err)
	}
	return cell.String(), nil
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

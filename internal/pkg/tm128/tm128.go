// Package tm128 converts between the TM128 (KATECH) planar grid used by Naver
// local search and WGS 84 geodetic coordinates.
//
// The grid is a Transverse Mercator projection of the Bessel 1841 ellipsoid
// centred on 38°N 128°E. Datum conversion uses a three-parameter shift through
// earth-centred cartesian coordinates. Round trips agree within 1e-6 degrees
// across the Korean peninsula.
package tm128

import (
	"math"

	"github.com/samirrijal/lunchpick/internal/core/domain"
)

type ellipsoid struct {
	a  float64 // semi-major axis, meters
	e2 float64 // first eccentricity squared
}

func newEllipsoid(a, invF float64) ellipsoid {
	f := 1 / invF
	return ellipsoid{a: a, e2: 2*f - f*f}
}

var (
	bessel = newEllipsoid(6377397.155, 299.1528128)
	wgs84  = newEllipsoid(6378137.0, 298.257223563)
)

const (
	originLat     = 38.0
	originLon     = 128.0
	scaleFactor   = 0.9999
	falseEasting  = 400000.0
	falseNorthing = 600000.0
)

// Bessel -> WGS 84 translation in meters.
var datumShift = [3]float64{-146.43, 507.89, 681.46}

// ToGeodetic converts a TM128 grid point to WGS 84 degrees.
func ToGeodetic(p domain.PlanarPoint) domain.Coordinate {
	lat, lon := unproject(p.X, p.Y)
	x, y, z := toCartesian(bessel, lat, lon, 0)
	lat, lon, _ = fromCartesian(wgs84, x+datumShift[0], y+datumShift[1], z+datumShift[2])
	return domain.Coordinate{Lat: deg(lat), Lng: deg(lon)}
}

// ToPlanar converts WGS 84 degrees to a TM128 grid point.
func ToPlanar(c domain.Coordinate) domain.PlanarPoint {
	x, y, z := toCartesian(wgs84, rad(c.Lat), rad(c.Lng), 0)
	lat, lon, _ := fromCartesian(bessel, x-datumShift[0], y-datumShift[1], z-datumShift[2])
	e, n := project(lat, lon)
	return domain.PlanarPoint{X: e, Y: n}
}

// meridianArc is the distance along the Bessel meridian from the equator to lat.
func meridianArc(lat float64) float64 {
	e2 := bessel.e2
	e4 := e2 * e2
	e6 := e4 * e2
	return bessel.a * ((1-e2/4-3*e4/64-5*e6/256)*lat -
		(3*e2/8+3*e4/32+45*e6/1024)*math.Sin(2*lat) +
		(15*e4/256+45*e6/1024)*math.Sin(4*lat) -
		(35*e6/3072)*math.Sin(6*lat))
}

// project maps Bessel latitude/longitude (radians) to grid easting/northing.
func project(lat, lon float64) (easting, northing float64) {
	e2 := bessel.e2
	ep2 := e2 / (1 - e2)

	sin, cos := math.Sincos(lat)
	n := bessel.a / math.Sqrt(1-e2*sin*sin)
	t := math.Tan(lat) * math.Tan(lat)
	c := ep2 * cos * cos
	a := (lon - rad(originLon)) * cos

	a2 := a * a
	a3 := a2 * a
	a4 := a3 * a
	a5 := a4 * a
	a6 := a5 * a

	easting = falseEasting + scaleFactor*n*(a+
		(1-t+c)*a3/6+
		(5-18*t+t*t+72*c-58*ep2)*a5/120)

	northing = falseNorthing + scaleFactor*(meridianArc(lat)-meridianArc(rad(originLat))+
		n*math.Tan(lat)*(a2/2+
			(5-t+9*c+4*c*c)*a4/24+
			(61-58*t+t*t+600*c-330*ep2)*a6/720))
	return easting, northing
}

// unproject maps grid easting/northing to Bessel latitude/longitude in radians.
func unproject(easting, northing float64) (lat, lon float64) {
	e2 := bessel.e2
	e4 := e2 * e2
	e6 := e4 * e2
	ep2 := e2 / (1 - e2)

	m := meridianArc(rad(originLat)) + (northing-falseNorthing)/scaleFactor
	mu := m / (bessel.a * (1 - e2/4 - 3*e4/64 - 5*e6/256))

	e1 := (1 - math.Sqrt(1-e2)) / (1 + math.Sqrt(1-e2))
	phi1 := mu +
		(3*e1/2-27*math.Pow(e1, 3)/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*math.Pow(e1, 4)/32)*math.Sin(4*mu) +
		(151*math.Pow(e1, 3)/96)*math.Sin(6*mu) +
		(1097*math.Pow(e1, 4)/512)*math.Sin(8*mu)

	sin, cos := math.Sincos(phi1)
	tan := math.Tan(phi1)
	c1 := ep2 * cos * cos
	t1 := tan * tan
	w := 1 - e2*sin*sin
	n1 := bessel.a / math.Sqrt(w)
	r1 := bessel.a * (1 - e2) / math.Pow(w, 1.5)
	d := (easting - falseEasting) / (n1 * scaleFactor)

	d2 := d * d
	d3 := d2 * d
	d4 := d3 * d
	d5 := d4 * d
	d6 := d5 * d

	lat = phi1 - (n1*tan/r1)*(d2/2-
		(5+3*t1+10*c1-4*c1*c1-9*ep2)*d4/24+
		(61+90*t1+298*c1+45*t1*t1-252*ep2-3*c1*c1)*d6/720)

	lon = rad(originLon) + (d-
		(1+2*t1+c1)*d3/6+
		(5-2*c1+28*t1-3*c1*c1+8*ep2+24*t1*t1)*d5/120)/cos
	return lat, lon
}

func toCartesian(el ellipsoid, lat, lon, h float64) (x, y, z float64) {
	sinLat, cosLat := math.Sincos(lat)
	sinLon, cosLon := math.Sincos(lon)
	n := el.a / math.Sqrt(1-el.e2*sinLat*sinLat)
	x = (n + h) * cosLat * cosLon
	y = (n + h) * cosLat * sinLon
	z = (n*(1-el.e2) + h) * sinLat
	return x, y, z
}

func fromCartesian(el ellipsoid, x, y, z float64) (lat, lon, h float64) {
	p := math.Hypot(x, y)
	lon = math.Atan2(y, x)
	lat = math.Atan2(z, p*(1-el.e2))

	for i := 0; i < 10; i++ {
		sin, cos := math.Sincos(lat)
		n := el.a / math.Sqrt(1-el.e2*sin*sin)
		h = p/cos - n
		next := math.Atan2(z, p*(1-el.e2*n/(n+h)))
		if math.Abs(next-lat) < 1e-14 {
			lat = next
			break
		}
		lat = next
	}
	return lat, lon, h
}

func rad(d float64) float64 { return d * math.Pi / 180 }
func deg(r float64) float64 { return r * 180 / math.Pi }

// Package geo provides the small amount of geodesy the scan analytics need:
// coordinate validation, fixed-precision cell grouping, and great-circle
// distance.
package geo

import (
	"fmt"
	"math"
)

// earthRadiusMeters is the mean Earth radius used for haversine distances.
const earthRadiusMeters = 6371000.0

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the point lies within coordinate range.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Cell identifies a fixed-precision grouping cell. Two points whose
// coordinates agree after truncation share a cell.
type Cell struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Key returns a stable map key for the cell.
func (c Cell) Key() string {
	return fmt.Sprintf("%g,%g", c.Lat, c.Lon)
}

// CellOf truncates a point to the given number of decimal places. At 4
// decimals a cell is roughly 11m of latitude, which absorbs typical GPS
// jitter without merging distinct venues.
func CellOf(p Point, precision int) Cell {
	scale := math.Pow(10, float64(precision))
	return Cell{
		Lat: math.Trunc(p.Lat*scale) / scale,
		Lon: math.Trunc(p.Lon*scale) / scale,
	}
}

// DistanceMeters returns the haversine great-circle distance between two
// points.
func DistanceMeters(a, b Point) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

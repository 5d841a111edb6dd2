package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPointValid(t *testing.T) {
	assert.True(t, Point{Lat: 0, Lon: 0}.Valid())
	assert.True(t, Point{Lat: -90, Lon: 180}.Valid())
	assert.False(t, Point{Lat: 90.01, Lon: 0}.Valid())
	assert.False(t, Point{Lat: 0, Lon: -180.5}.Valid())
}

func TestCellOfGroupsJitterTogether(t *testing.T) {
	// Differences in the 5th decimal place fall into the same cell.
	a := CellOf(Point{Lat: 51.50731, Lon: -0.12768}, 4)
	b := CellOf(Point{Lat: 51.50739, Lon: -0.12761}, 4)
	assert.Equal(t, a, b)

	// A full degree apart is a different cell.
	c := CellOf(Point{Lat: 52.50731, Lon: -0.12768}, 4)
	assert.NotEqual(t, a, c)
}

func TestCellOfPrecisionZero(t *testing.T) {
	c := CellOf(Point{Lat: 51.5, Lon: -0.6}, 0)
	assert.Equal(t, Cell{Lat: 51, Lon: -0}, c)
}

func TestDistanceMeters(t *testing.T) {
	p := Point{Lat: 48.8566, Lon: 2.3522}
	assert.Equal(t, 0.0, DistanceMeters(p, p))

	// Paris -> London is about 344km.
	london := Point{Lat: 51.5074, Lon: -0.1278}
	d := DistanceMeters(p, london)
	assert.InDelta(t, 344000, d, 5000)

	// One degree of latitude is about 111km.
	d = DistanceMeters(Point{Lat: 0, Lon: 0}, Point{Lat: 1, Lon: 0})
	assert.InDelta(t, 111195, d, 100)
}

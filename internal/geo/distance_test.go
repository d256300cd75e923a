package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		a, b Point
		want float64
	}{
		{"Same Point", Point{51.5, -0.12}, Point{51.5, -0.12}, 0},
		{"London To Paris", Point{51.5074, -0.1278}, Point{48.8566, 2.3522}, 343.5},
		{"One Degree Of Latitude", Point{0, 0}, Point{1, 0}, 111.19},
		{"Antipodes", Point{0, 0}, Point{0, 180}, 20015.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Distance(tt.a, tt.b), 1.0)
		})
	}
}

func TestDistance_Symmetric(t *testing.T) {
	a := Point{40.7128, -74.0060}
	b := Point{34.0522, -118.2437}
	assert.InDelta(t, Distance(a, b), Distance(b, a), 1e-9)
}

func TestWithin(t *testing.T) {
	center := Point{40.0, -75.0}
	assert.True(t, Within(center, Point{40.05, -75.0}, 10))
	assert.False(t, Within(center, Point{41.0, -75.0}, 10))
}

func TestValidPoint(t *testing.T) {
	assert.True(t, ValidPoint(Point{-90, 180}))
	assert.False(t, ValidPoint(Point{91, 0}))
	assert.False(t, ValidPoint(Point{0, -181}))
}

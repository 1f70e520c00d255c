package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestETRS89LCCInverse(t *testing.T) {
	p := ETRS89LCC()

	tests := []struct {
		name     string
		easting  float64
		northing float64
		lat      float64
		lon      float64
	}{
		{"false origin", 4000000, 2800000, 52, 10},
		{"DWD TRY grid cell near Stuttgart", 3936500, 2449500, 48.733839, 9.106609},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, lon := p.Inverse(tt.easting, tt.northing)
			assert.InDelta(t, tt.lat, lat, 1e-5)
			assert.InDelta(t, tt.lon, lon, 1e-5)
		})
	}
}

func TestETRS89LCCRoundTrip(t *testing.T) {
	p := ETRS89LCC()

	for _, pt := range [][2]float64{{47.4, 7.6}, {54.9, 8.3}, {51.0, 14.9}, {36.1, -5.3}} {
		e, n := p.Forward(pt[0], pt[1])
		lat, lon := p.Inverse(e, n)
		assert.InDelta(t, pt[0], lat, 1e-9)
		assert.InDelta(t, pt[1], lon, 1e-9)
	}
}

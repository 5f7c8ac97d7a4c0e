package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		geohash string
		lat     float64
		lng     float64
		wantErr bool
	}{
		{
			name:    "san francisco mission",
			geohash: "9q8yy",
			lat:     37.771,
			lng:     -122.410,
		},
		{
			name:    "london",
			geohash: "gcpuv",
			lat:     51.482,
			lng:     -0.110,
		},
		{
			name:    "single character covers a wide cell",
			geohash: "9",
			lat:     22.5,
			lng:     -112.5,
		},
		{
			name:    "empty input",
			geohash: "",
			wantErr: true,
		},
		{
			name:    "character outside alphabet",
			geohash: "9q8ya!",
			wantErr: true,
		},
		{
			name:    "uppercase is outside the alphabet",
			geohash: "9Q8YY",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			lat, lng, err := Decode(tc.geohash)
			if tc.wantErr {
				assert.Error(t, err, "expected decode error for %q", tc.geohash)
				return
			}

			assert.NoError(t, err)
			assert.InDeltaf(t, tc.lat, lat, 0.05, "latitude for %q", tc.geohash)
			assert.InDeltaf(t, tc.lng, lng, 0.05, "longitude for %q", tc.geohash)
		})
	}
}

func TestDecode_centerIsInsideParentCell(t *testing.T) {
	// A longer geohash refines its prefix, so the child's center must stay
	// close to the parent's center.
	parentLat, parentLng, err := Decode("9q8y")
	assert.NoError(t, err)

	childLat, childLng, err := Decode("9q8yy")
	assert.NoError(t, err)

	assert.Less(t, math.Abs(parentLat-childLat), 0.2)
	assert.Less(t, math.Abs(parentLng-childLng), 0.4)
}

func TestDistanceMiles(t *testing.T) {
	t.Run("zero for identical points", func(t *testing.T) {
		assert.Zero(t, DistanceMiles(37.75, -122.43, 37.75, -122.43))
	})

	t.Run("symmetric", func(t *testing.T) {
		d1 := DistanceMiles(37.75, -122.43, 40.71, -74.01)
		d2 := DistanceMiles(40.71, -74.01, 37.75, -122.43)
		assert.InDelta(t, d1, d2, 1e-9)
	})

	t.Run("san francisco to new york", func(t *testing.T) {
		d := DistanceMiles(37.7749, -122.4194, 40.7128, -74.0060)
		assert.InDeltaf(t, 2566, d, 10, "expected ~2566 miles, got %f", d)
	})

	t.Run("monotonic in separation", func(t *testing.T) {
		near := DistanceMiles(37.75, -122.43, 37.751, -122.43)
		far := DistanceMiles(37.75, -122.43, 37.76, -122.43)
		assert.Less(t, near, far)
	})

	t.Run("one football field is under the proximity threshold", func(t *testing.T) {
		// ~90 meters of latitude is about 0.0008 degrees.
		d := DistanceMiles(37.75, -122.43, 37.7508, -122.43)
		assert.Less(t, d, 0.062)
	})
}

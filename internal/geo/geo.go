// Package geo decodes geohash cells and measures great-circle distances.
package geo

import (
	"fmt"
	"math"
	"strings"
)

const base32Alphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

const earthRadiusMiles = 3958.8

// Decode returns the center point of the bounding box encoded by a
// geohash string. The geohash interleaves longitude and latitude bits,
// starting with longitude, five bits per base-32 character.
func Decode(geohash string) (lat, lng float64, err error) {
	if geohash == "" {
		return 0, 0, fmt.Errorf("empty geohash")
	}

	minLat, maxLat := -90.0, 90.0
	minLng, maxLng := -180.0, 180.0
	evenBit := true

	for _, c := range geohash {
		idx := strings.IndexRune(base32Alphabet, c)
		if idx < 0 {
			return 0, 0, fmt.Errorf("invalid geohash character %q", c)
		}

		for bits := 4; bits >= 0; bits-- {
			bitN := (idx >> bits) & 1
			if evenBit {
				midLng := (minLng + maxLng) / 2
				if bitN == 1 {
					minLng = midLng
				} else {
					maxLng = midLng
				}
			} else {
				midLat := (minLat + maxLat) / 2
				if bitN == 1 {
					minLat = midLat
				} else {
					maxLat = midLat
				}
			}
			evenBit = !evenBit
		}
	}

	return (minLat + maxLat) / 2, (minLng + maxLng) / 2, nil
}

// DistanceMiles returns the haversine great-circle distance in miles
// between two coordinates.
func DistanceMiles(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMiles * c
}

func toRadians(degrees float64) float64 {
	return degrees * (math.Pi / 180)
}

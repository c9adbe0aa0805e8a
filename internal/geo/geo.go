package geo

import (
	"math"

	"hktravel/internal/domain"
)

const earthRadiusMeters = 6371000.0

// Hong Kong SAR bounds, used to reject coordinates outside the service area
var HongKong = domain.BoundingBox{
	MinLat: 22.13,
	MaxLat: 22.58,
	MinLon: 113.82,
	MaxLon: 114.45,
}

// DistanceMeters returns the great-circle distance between two points
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// Between is DistanceMeters for two locations
func Between(a, b domain.Location) float64 {
	return DistanceMeters(a.Lat, a.Lon, b.Lat, b.Lon)
}

// TravelMinutes converts a distance at a constant speed to whole minutes, rounding up.
// Any non-zero distance takes at least one minute.
func TravelMinutes(meters, kmPerHour float64) int {
	if meters <= 0 || kmPerHour <= 0 {
		return 0
	}
	return int(math.Ceil(meters * 60 / (kmPerHour * 1000)))
}

// InHongKong reports whether the coordinates fall inside the service area
func InHongKong(lat, lon float64) bool {
	return HongKong.Contains(lat, lon)
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

package domain

// LocationCategory groups catalog places
type LocationCategory string

const (
	CategoryLandmark  LocationCategory = "landmark"
	CategoryShopping  LocationCategory = "shopping"
	CategoryTransport LocationCategory = "transport"
	CategoryNature    LocationCategory = "nature"
	CategoryCulture   LocationCategory = "culture"
)

// Location is a searchable place in Hong Kong
type Location struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	NameZH   string           `json:"nameZh"`
	Address  string           `json:"address"`
	District string           `json:"district"`
	Lat      float64          `json:"lat"`
	Lon      float64          `json:"lon"`
	Category LocationCategory `json:"category"`
}

// SameSpot reports whether two locations refer to the same point
func (l Location) SameSpot(other Location) bool {
	if l.ID != "" && l.ID == other.ID {
		return true
	}
	const epsilon = 0.000001
	latDiff := l.Lat - other.Lat
	if latDiff < 0 {
		latDiff = -latDiff
	}
	lonDiff := l.Lon - other.Lon
	if lonDiff < 0 {
		lonDiff = -lonDiff
	}
	return latDiff < epsilon && lonDiff < epsilon
}

// BoundingBox represents a geographic rectangle
type BoundingBox struct {
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
	MinLon float64 `json:"minLon"`
	MaxLon float64 `json:"maxLon"`
}

// Contains checks if a point is within the bounding box
func (bb *BoundingBox) Contains(lat, lon float64) bool {
	return lat >= bb.MinLat && lat <= bb.MaxLat &&
		lon >= bb.MinLon && lon <= bb.MaxLon
}

package cache

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	KeyCatalog        = "catalog:full"
	KeyStations       = "catalog:stations"
	KeyBusRoutes      = "catalog:bus_routes"
	KeyLocations      = "catalog:locations"
	KeyCatalogVersion = "catalog:version"

	PatternStopRoutes = "stop_routes:*"
)

func KeyWeatherCurrent(lat, lon float64) string {
	return fmt.Sprintf("weather:current:%s,%s",
		strconv.FormatFloat(lat, 'f', 4, 64),
		strconv.FormatFloat(lon, 'f', 4, 64))
}

func KeyStopRoutes(stopID string) string {
	return fmt.Sprintf("stop_routes:%s", strings.ToUpper(stopID))
}

func KeyLineStations(line string) string {
	return fmt.Sprintf("line_stations:%s", strings.ToUpper(line))
}

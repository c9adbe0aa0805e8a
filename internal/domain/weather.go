package domain

import "time"

// WeatherData is the current conditions shown to travellers
type WeatherData struct {
	Location    string    `json:"location"`
	Temperature float64   `json:"temperature"`
	FeelsLike   float64   `json:"feelsLike"`
	TempMin     float64   `json:"tempMin"`
	TempMax     float64   `json:"tempMax"`
	Humidity    int       `json:"humidity"`
	Pressure    int       `json:"pressure"`
	Main        string    `json:"main"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	WindSpeed   float64   `json:"windSpeed"`
	Visibility  int       `json:"visibility"`
	Sunrise     time.Time `json:"sunrise"`
	Sunset      time.Time `json:"sunset"`
	Timestamp   time.Time `json:"timestamp"`
	Stale       bool      `json:"stale,omitempty"`
}

// IconURL returns the OpenWeatherMap icon image for the condition
func (w *WeatherData) IconURL() string {
	if w.Icon == "" {
		return ""
	}
	return "https://openweathermap.org/img/wn/" + w.Icon + "@2x.png"
}

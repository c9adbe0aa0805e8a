package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"hktravel/internal/domain"
)

const (
	DefaultBaseURL = "https://api.openweathermap.org"
	DefaultLat     = 22.3193
	DefaultLon     = 114.1694
	DefaultLang    = "zh_tw"
)

var ErrMissingAPIKey = errors.New("openweather: api key is required")

type Client struct {
	baseURL    string
	apiKey     string
	lang       string
	httpClient *http.Client
}

func New(baseURL, apiKey, lang string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if lang == "" {
		lang = DefaultLang
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		lang:    lang,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type apiResponse struct {
	Cod     json.RawMessage `json:"cod"`
	Message string          `json:"message"`
	Name    string          `json:"name"`
	Dt      int64           `json:"dt"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		TempMin   float64 `json:"temp_min"`
		TempMax   float64 `json:"temp_max"`
		Pressure  int     `json:"pressure"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Visibility int `json:"visibility"`
	Sys        struct {
		Sunrise int64 `json:"sunrise"`
		Sunset  int64 `json:"sunset"`
	} `json:"sys"`
}

// RequestURL builds the current-weather URL. The query keeps the parameter
// order lat, lon, appid, units, lang, which url.Values would sort away.
func (c *Client) RequestURL(lat, lon float64) string {
	return fmt.Sprintf("%s/data/2.5/weather?lat=%s&lon=%s&appid=%s&units=metric&lang=%s",
		c.baseURL,
		strconv.FormatFloat(lat, 'f', -1, 64),
		strconv.FormatFloat(lon, 'f', -1, 64),
		url.QueryEscape(c.apiKey),
		url.QueryEscape(c.lang),
	)
}

// Current fetches the current conditions at the given coordinates
func (c *Client) Current(ctx context.Context, lat, lon float64) (*domain.WeatherData, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.RequestURL(lat, lon), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	var apiResp apiResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&apiResp)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && apiResp.Message != "" {
			return nil, &StatusError{StatusCode: resp.StatusCode, Message: apiResp.Message}
		}
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decoding response: %w", decodeErr)
	}

	return toDomain(&apiResp), nil
}

// StatusError is returned for any non-200 reply
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("openweather: unexpected status code: %d", e.StatusCode)
	}
	return fmt.Sprintf("openweather: unexpected status code: %d: %s", e.StatusCode, e.Message)
}

func toDomain(r *apiResponse) *domain.WeatherData {
	w := &domain.WeatherData{
		Location:    r.Name,
		Temperature: r.Main.Temp,
		FeelsLike:   r.Main.FeelsLike,
		TempMin:     r.Main.TempMin,
		TempMax:     r.Main.TempMax,
		Humidity:    r.Main.Humidity,
		Pressure:    r.Main.Pressure,
		WindSpeed:   r.Wind.Speed,
		Visibility:  r.Visibility,
		Sunrise:     unixOrZero(r.Sys.Sunrise),
		Sunset:      unixOrZero(r.Sys.Sunset),
		Timestamp:   unixOrZero(r.Dt),
	}
	if len(r.Weather) > 0 {
		w.Main = r.Weather[0].Main
		w.Description = r.Weather[0].Description
		w.Icon = r.Weather[0].Icon
	}
	if w.Timestamp.IsZero() {
		w.Timestamp = time.Now().UTC()
	}
	return w
}

func unixOrZero(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

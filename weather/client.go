// Package weather fetches current conditions for a location from the
// CultivAI backend, which proxies an OpenWeather-style service.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrUnavailable reports a backend that answered with a non-2xx status.
	ErrUnavailable = errors.New("weather unavailable")
	// ErrInvalidCoordinates reports a latitude or longitude out of range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// Coordinates is a WGS84 position.
type Coordinates struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// Validate checks the coordinate ranges.
func (c Coordinates) Validate() error {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) ||
		c.Latitude < -90 || c.Latitude > 90 || c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: %g,%g", ErrInvalidCoordinates, c.Latitude, c.Longitude)
	}
	return nil
}

// Report mirrors the OpenWeather current weather payload. Measurements are
// pointers so an absent value is distinguishable from zero.
type Report struct {
	Name string `json:"name"`
	Main struct {
		Temp      *float64 `json:"temp"`
		FeelsLike *float64 `json:"feels_like"`
		Humidity  *float64 `json:"humidity"`
	} `json:"main"`
	Weather []Condition `json:"weather"`
	Wind    struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
	Sys struct {
		Country string `json:"country"`
	} `json:"sys"`
}

// Condition is one entry of the weather array.
type Condition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon,omitempty"`
}

// Description returns the first condition's description or "".
func (r *Report) Description() string {
	if r == nil || len(r.Weather) == 0 {
		return ""
	}
	return r.Weather[0].Description
}

// Options configures the backend client.
type Options struct {
	BaseURL        string `json:"base_url" yaml:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
}

// ApplyDefaults populates zero values with sensible defaults.
func (o *Options) ApplyDefaults() {
	if strings.TrimSpace(o.BaseURL) == "" {
		o.BaseURL = "http://localhost:5000/api"
	}
	o.BaseURL = strings.TrimRight(strings.TrimSpace(o.BaseURL), "/")
	if o.TimeoutSeconds <= 0 {
		o.TimeoutSeconds = 15
	}
}

// Client queries the weather endpoint of the backend.
type Client struct {
	base string
	do   func(*http.Request) (*http.Response, error)
}

// NewClient builds a client for the given backend.
func NewClient(opts Options) (*Client, error) {
	opts.ApplyDefaults()
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("weather: invalid base url: %w", err)
	}
	hc := &http.Client{Timeout: time.Duration(opts.TimeoutSeconds) * time.Second}
	return &Client{base: opts.BaseURL, do: hc.Do}, nil
}

// Current returns the present conditions at the given coordinates.
func (c *Client) Current(ctx context.Context, at Coordinates) (*Report, error) {
	if err := at.Validate(); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(at.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(at.Longitude, 'f', -1, 64))
	endpoint := c.base + "/weather/?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("get weather: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(slurp)))
	}
	var r Report
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode weather: %w", err)
	}
	return &r, nil
}

package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultWeatherURL is the Open-Meteo forecast endpoint used for
// temperature reads.
const DefaultWeatherURL = "https://api.open-meteo.com/v1/forecast"

// TemperatureSensor is a read-only device reporting the current outdoor
// temperature in degrees Celsius for a fixed geographic location.
//
// Reads delegate to the Open-Meteo API; there is no local state beyond the
// coordinates, so concurrent reads need no locking. Writes always fail.
type TemperatureSensor struct {
	id        string
	latitude  float64
	longitude float64
	timeout   time.Duration

	// baseURL and client are overridable for tests.
	baseURL string
	client  *http.Client
}

// NewTemperatureSensor creates a temperature sensor for the given coordinates.
//
// Parameters:
//   - id: Unique device identifier
//   - latitude: Degrees in [-90, 90]
//   - longitude: Degrees in [-180, 180]
//   - timeout: Upper bound on the fetch round trip
//
// Returns:
//   - *TemperatureSensor: Ready-to-use sensor
//   - error: ErrOutOfRange if a coordinate is outside its valid range
func NewTemperatureSensor(id string, latitude, longitude float64, timeout time.Duration) (*TemperatureSensor, error) {
	if latitude < -90 || latitude > 90 {
		return nil, fmt.Errorf("%w: latitude %v not in [-90, 90]", ErrOutOfRange, latitude)
	}
	if longitude < -180 || longitude > 180 {
		return nil, fmt.Errorf("%w: longitude %v not in [-180, 180]", ErrOutOfRange, longitude)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TemperatureSensor{
		id:        id,
		latitude:  latitude,
		longitude: longitude,
		timeout:   timeout,
		baseURL:   DefaultWeatherURL,
		client:    &http.Client{},
	}, nil
}

// ID returns the sensor's unique identifier.
func (t *TemperatureSensor) ID() string { return t.id }

// Type returns TypeTemperature.
func (t *TemperatureSensor) Type() Type { return TypeTemperature }

// Read fetches the current temperature from the weather API.
//
// Failures are classified: network/connection failure surfaces as
// ErrUnreachable, an exceeded deadline as ErrTimedOut, a non-2xx response
// as ErrUnreachable with the status code, and a missing or malformed
// temperature field as ErrInvalidData.
func (t *TemperatureSensor) Read(ctx context.Context) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.requestURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrUnreachable, err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: fetch exceeded %s", ErrTimedOut, t.timeout)
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return nil, fmt.Errorf("%w: fetch exceeded %s", ErrTimedOut, t.timeout)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: weather API returned status %d", ErrUnreachable, resp.StatusCode)
	}

	var body struct {
		CurrentWeather *struct {
			Temperature *float64 `json:"temperature"`
		} `json:"current_weather"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrInvalidData, err)
	}
	if body.CurrentWeather == nil || body.CurrentWeather.Temperature == nil {
		return nil, fmt.Errorf("%w: response missing current_weather.temperature", ErrInvalidData)
	}

	return *body.CurrentWeather.Temperature, nil
}

// Write always fails: the sensor is read-only.
func (t *TemperatureSensor) Write(ctx context.Context, payload Payload) error {
	return fmt.Errorf("%w: temperature sensor is read-only", ErrInvalidPayload)
}

// Status reports the sensor's health. It never fails.
func (t *TemperatureSensor) Status(ctx context.Context) Status {
	return statusOf(ctx, t)
}

// requestURL builds the forecast query for the sensor's coordinates.
func (t *TemperatureSensor) requestURL() string {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(t.latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(t.longitude, 'f', -1, 64))
	q.Set("current_weather", "true")
	q.Set("temperature_unit", "celsius")
	return t.baseURL + "?" + q.Encode()
}

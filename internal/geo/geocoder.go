// Package geo provides the location collaborators used by the edit flow:
// reverse geocoding of coordinates and a polling position feed.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/marcus/courts/internal/models"
)

// ErrGeocodeUnavailable is returned when no address could be determined.
var ErrGeocodeUnavailable = errors.New("geocode unavailable")

// Geocoder turns a coordinate into an address.
type Geocoder interface {
	Reverse(ctx context.Context, c models.Coordinate) (models.GeoAddress, error)
}

// StaticGeocoder answers from a fixed table keyed by Coordinate.String().
// Unknown coordinates yield ErrGeocodeUnavailable.
type StaticGeocoder map[string]models.GeoAddress

// Reverse implements Geocoder
func (g StaticGeocoder) Reverse(_ context.Context, c models.Coordinate) (models.GeoAddress, error) {
	if addr, ok := g[c.String()]; ok {
		return addr, nil
	}
	return models.GeoAddress{}, ErrGeocodeUnavailable
}

// NoopGeocoder never resolves an address. Used when geocoding is disabled.
type NoopGeocoder struct{}

// Reverse implements Geocoder
func (NoopGeocoder) Reverse(context.Context, models.Coordinate) (models.GeoAddress, error) {
	return models.GeoAddress{}, ErrGeocodeUnavailable
}

// NominatimGeocoder queries a Nominatim-compatible /reverse endpoint.
type NominatimGeocoder struct {
	BaseURL   string
	UserAgent string
	Language  string
	HTTP      *http.Client
}

// NewNominatim creates a geocoder for baseURL (e.g. https://nominatim.openstreetmap.org).
func NewNominatim(baseURL string, timeout time.Duration) *NominatimGeocoder {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NominatimGeocoder{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		UserAgent: "courts-cli",
		HTTP:      &http.Client{Timeout: timeout},
	}
}

type nominatimResponse struct {
	Error   string `json:"error"`
	Address struct {
		Country     string `json:"country"`
		Postcode    string `json:"postcode"`
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
		Road        string `json:"road"`
		HouseNumber string `json:"house_number"`
		State       string `json:"state"`
	} `json:"address"`
}

// Reverse implements Geocoder
func (g *NominatimGeocoder) Reverse(ctx context.Context, c models.Coordinate) (models.GeoAddress, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", models.FormatDegrees(c.Lat))
	q.Set("lon", models.FormatDegrees(c.Lon))
	if g.Language != "" {
		q.Set("accept-language", g.Language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return models.GeoAddress{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if g.UserAgent != "" {
		req.Header.Set("User-Agent", g.UserAgent)
	}

	resp, err := g.HTTP.Do(req)
	if err != nil {
		return models.GeoAddress{}, fmt.Errorf("%w: %v", ErrGeocodeUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return models.GeoAddress{}, fmt.Errorf("%w: read response: %v", ErrGeocodeUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return models.GeoAddress{}, fmt.Errorf("%w: HTTP %d", ErrGeocodeUnavailable, resp.StatusCode)
	}

	var nr nominatimResponse
	if err := json.Unmarshal(body, &nr); err != nil {
		return models.GeoAddress{}, fmt.Errorf("%w: decode: %v", ErrGeocodeUnavailable, err)
	}
	if nr.Error != "" {
		return models.GeoAddress{}, fmt.Errorf("%w: %s", ErrGeocodeUnavailable, nr.Error)
	}

	a := nr.Address
	addr := models.GeoAddress{
		Country:      a.Country,
		PostalCode:   a.Postcode,
		Locality:     firstNonEmpty(a.City, a.Town, a.Village),
		StreetName:   a.Road,
		StreetNumber: a.HouseNumber,
		AdminArea:    a.State,
	}
	if addr.IsUnknown() {
		return models.GeoAddress{}, ErrGeocodeUnavailable
	}
	return addr, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

package models

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Terrain is the surface material of a court
type Terrain string

const (
	TerrainWood       Terrain = "Wood"
	TerrainAsphalt    Terrain = "Asphalt"
	TerrainConcrete   Terrain = "Concrete"
	TerrainPVC        Terrain = "PVC"
	TerrainVinyl      Terrain = "Vinyl"
	TerrainSportTiles Terrain = "Sport tiles"
)

// Terrains returns every known surface material in display order
func Terrains() []Terrain {
	return []Terrain{
		TerrainWood,
		TerrainAsphalt,
		TerrainConcrete,
		TerrainPVC,
		TerrainVinyl,
		TerrainSportTiles,
	}
}

// ValidTerrain reports whether s names a known surface material
func ValidTerrain(s string) bool {
	for _, t := range Terrains() {
		if string(t) == s {
			return true
		}
	}
	return false
}

// Court is a basketball court listing as exchanged with the courts service.
// A nil ID marks a draft that has not been stored by the server yet.
type Court struct {
	ID              *int   `json:"id,omitempty"`
	Name            string `json:"name"`
	Latitude        string `json:"latitude"`
	Longitude       string `json:"longitude"`
	Description     string `json:"description"`
	District        string `json:"district"`
	NumberOfBaskets int    `json:"numberOfBaskets"`
	IsClosedCourt   bool   `json:"isClosedCourt"`
	Terrain         string `json:"terrain"`
	IsPaid          bool   `json:"isPaid"`
	ImageURL        string `json:"imageUrl"`
}

// IntID returns a pointer suitable for Court.ID
func IntID(id int) *int {
	return &id
}

// IsDraft reports whether the court has no server-assigned identifier
func (c Court) IsDraft() bool {
	return c.ID == nil
}

// IDValue returns the identifier, or 0 for drafts
func (c Court) IDValue() int {
	if c.ID == nil {
		return 0
	}
	return *c.ID
}

// Clone returns a copy that shares no memory with c
func (c Court) Clone() Court {
	if c.ID != nil {
		c.ID = IntID(*c.ID)
	}
	return c
}

// Equal compares two courts field by field
func (c Court) Equal(o Court) bool {
	if (c.ID == nil) != (o.ID == nil) {
		return false
	}
	if c.ID != nil && *c.ID != *o.ID {
		return false
	}
	a, b := c, o
	a.ID, b.ID = nil, nil
	return a == b
}

// Coordinate parses the latitude/longitude strings. ok is false when either
// side is missing or not a number.
func (c Court) Coordinate() (Coordinate, bool) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(c.Latitude), 64)
	if err != nil {
		return Coordinate{}, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(c.Longitude), 64)
	if err != nil {
		return Coordinate{}, false
	}
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return Coordinate{}, false
	}
	return Coordinate{Lat: lat, Lon: lon}, true
}

// MapURL returns a maps search link for the court location, or "" when the
// coordinates do not parse
func (c Court) MapURL() string {
	coord, ok := c.Coordinate()
	if !ok {
		return ""
	}
	q := url.Values{}
	q.Set("api", "1")
	q.Set("query", coord.String())
	return "https://www.google.com/maps/search/?" + q.Encode()
}

// OpenLabel is "Closed" for indoor courts and "Open" otherwise
func (c Court) OpenLabel() string {
	if c.IsClosedCourt {
		return "Closed"
	}
	return "Open"
}

// PaidLabel is "Paid" or "Free"
func (c Court) PaidLabel() string {
	if c.IsPaid {
		return "Paid"
	}
	return "Free"
}

// Coordinate is a WGS84 point in decimal degrees
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// String formats the coordinate as "lat,lon"
func (c Coordinate) String() string {
	return FormatDegrees(c.Lat) + "," + FormatDegrees(c.Lon)
}

// FormatDegrees renders a degree value the way courts store it
func FormatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

const earthRadiusMeters = 6371008.8

// Distance returns the great-circle distance between a and b in metres
func Distance(a, b Coordinate) float64 {
	rad := math.Pi / 180
	dLat := (b.Lat - a.Lat) * rad
	dLon := (b.Lon - a.Lon) * rad
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*rad)*math.Cos(b.Lat*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Position is a single device location sample
type Position struct {
	Coordinate
	Accuracy float64   `json:"accuracy,omitempty"` // metres
	At       time.Time `json:"at"`
}

// GeoAddress is a reverse-geocoded projection of a coordinate. The zero value
// means the address is unknown.
type GeoAddress struct {
	Country      string `json:"country,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
	Locality     string `json:"locality,omitempty"`
	StreetName   string `json:"street_name,omitempty"`
	StreetNumber string `json:"street_number,omitempty"`
	AdminArea    string `json:"admin_area,omitempty"`
}

// IsUnknown reports whether no address component is set
func (a GeoAddress) IsUnknown() bool {
	return a == GeoAddress{}
}

// Lines renders the address as "street number, postal" and
// "locality, area, country". Unknown addresses render nothing.
func (a GeoAddress) Lines() []string {
	if a.IsUnknown() {
		return nil
	}
	street := joinNonEmpty(" ", a.StreetName, a.StreetNumber)
	first := joinNonEmpty(", ", street, a.PostalCode)
	second := joinNonEmpty(", ", a.Locality, a.AdminArea, a.Country)
	var lines []string
	for _, l := range []string{first, second} {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// String joins Lines with "; "
func (a GeoAddress) String() string {
	if a.IsUnknown() {
		return "unknown"
	}
	return strings.Join(a.Lines(), "; ")
}

func joinNonEmpty(sep string, parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

// ParseID converts a user-supplied court identifier
func ParseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(s), "#"))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid court id %q", s)
	}
	return id, nil
}

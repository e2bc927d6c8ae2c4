package session

import (
	"strings"

	"github.com/marcus/courts/internal/models"
)

// Command is a single edit applied through Session.Apply.
type Command interface {
	apply(s *Session) (Effect, error)
}

// SetName replaces the court name
type SetName struct{ Name string }

// SetDescription replaces the free-text description
type SetDescription struct{ Description string }

// SetDistrict replaces the district
type SetDistrict struct{ District string }

// SetLatitude replaces the latitude string and requests a new address
type SetLatitude struct{ Latitude string }

// SetLongitude replaces the longitude string and requests a new address
type SetLongitude struct{ Longitude string }

// UseCoordinate sets both coordinates, typically from the device position
type UseCoordinate struct{ Coordinate models.Coordinate }

// AdjustBasketCount changes the basket count by Delta (see AdjustBaskets)
type AdjustBasketCount struct{ Delta int }

// SetTerrain selects the surface material. An empty value clears it.
type SetTerrain struct{ Terrain string }

// SetClosed marks the court as indoor (closed) or outdoor (open)
type SetClosed struct{ Closed bool }

// SetPaid marks the court as paid or free
type SetPaid struct{ Paid bool }

// SetImage attaches a local image reference to upload with the next save
type SetImage struct{ Ref string }

// ClearImage keeps the existing remote image
type ClearImage struct{}

// RequestDelete raises the delete confirmation flag for one court
type RequestDelete struct{ ID int }

// CancelDelete lowers the delete confirmation flag
type CancelDelete struct{}

func (c SetName) apply(s *Session) (Effect, error) {
	s.st.Draft.Name = c.Name
	return Effect{}, nil
}

func (c SetDescription) apply(s *Session) (Effect, error) {
	s.st.Draft.Description = c.Description
	return Effect{}, nil
}

func (c SetDistrict) apply(s *Session) (Effect, error) {
	s.st.Draft.District = c.District
	return Effect{}, nil
}

func (c SetLatitude) apply(s *Session) (Effect, error) {
	s.st.Draft.Latitude = c.Latitude
	return s.geocodeEffect(), nil
}

func (c SetLongitude) apply(s *Session) (Effect, error) {
	s.st.Draft.Longitude = c.Longitude
	return s.geocodeEffect(), nil
}

func (c UseCoordinate) apply(s *Session) (Effect, error) {
	s.st.Draft.Latitude = models.FormatDegrees(c.Coordinate.Lat)
	s.st.Draft.Longitude = models.FormatDegrees(c.Coordinate.Lon)
	return s.geocodeEffect(), nil
}

func (c AdjustBasketCount) apply(s *Session) (Effect, error) {
	s.st.Draft.NumberOfBaskets = AdjustBaskets(s.st.Draft.NumberOfBaskets, c.Delta)
	return Effect{}, nil
}

func (c SetTerrain) apply(s *Session) (Effect, error) {
	if c.Terrain != "" && !models.ValidTerrain(c.Terrain) {
		return Effect{}, ErrUnknownTerrain
	}
	s.st.Draft.Terrain = c.Terrain
	return Effect{}, nil
}

func (c SetClosed) apply(s *Session) (Effect, error) {
	s.st.Draft.IsClosedCourt = c.Closed
	return Effect{}, nil
}

func (c SetPaid) apply(s *Session) (Effect, error) {
	s.st.Draft.IsPaid = c.Paid
	return Effect{}, nil
}

func (c SetImage) apply(s *Session) (Effect, error) {
	s.st.ImageRef = strings.TrimSpace(c.Ref)
	return Effect{}, nil
}

func (ClearImage) apply(s *Session) (Effect, error) {
	s.st.ImageRef = ""
	return Effect{}, nil
}

func (c RequestDelete) apply(s *Session) (Effect, error) {
	if c.ID <= 0 {
		return Effect{}, ErrNoDeleteTarget
	}
	s.st.ConfirmDelete = true
	s.st.DeleteTarget = c.ID
	return Effect{}, nil
}

func (CancelDelete) apply(s *Session) (Effect, error) {
	s.st.ConfirmDelete = false
	s.st.DeleteTarget = 0
	return Effect{}, nil
}

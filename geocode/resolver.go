// Package geocode resolves coordinates or free-text place names into
// canonical location records, with a cache in front of each upstream.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"envscan/bigdatacloud"
	"envscan/cache"
	"envscan/geo"
	"envscan/model"
	"envscan/openmeteo"
)

// ErrNotFound is returned by ForwardGeocode when the upstream has no match
// for the requested name.
var ErrNotFound = errors.New("geocode: no matching location")

type ReverseProvider interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (*bigdatacloud.Place, error)
}

type ForwardProvider interface {
	SearchCity(ctx context.Context, name string) ([]openmeteo.CityMatch, error)
}

type Resolver struct {
	reverse ReverseProvider
	forward ForwardProvider

	reverseCache *cache.Store[string, model.LocationRecord]
	forwardCache *cache.Store[string, model.LocationRecord]

	timeout time.Duration
}

func NewResolver(
	reverse ReverseProvider,
	forward ForwardProvider,
	reverseCache *cache.Store[string, model.LocationRecord],
	forwardCache *cache.Store[string, model.LocationRecord],
	timeout time.Duration,
) *Resolver {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Resolver{
		reverse:      reverse,
		forward:      forward,
		reverseCache: reverseCache,
		forwardCache: forwardCache,
		timeout:      timeout,
	}
}

// ReverseGeocode turns coordinates into a location record. It never fails:
// when the upstream is unavailable it returns a coordinate-labelled
// placeholder with degraded=true. Placeholders are not cached, so a later
// call retries the upstream.
func (r *Resolver) ReverseGeocode(ctx context.Context, lat, lon float64) (model.LocationRecord, bool) {
	key := geo.CoordsKey(lat, lon)
	if loc, ok := r.reverseCache.Get(key); ok {
		return loc, false
	}

	rlat, rlon := geo.RoundCoords(lat, lon)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	place, err := r.reverse.ReverseGeocode(ctx, rlat, rlon)
	if err != nil || place == nil {
		return placeholderLocation(rlat, rlon), true
	}

	city := strings.TrimSpace(place.City)
	if city == "" {
		city = strings.TrimSpace(place.Locality)
	}
	if city == "" {
		city = "Unknown"
	}
	loc := model.LocationRecord{
		City:        city,
		Region:      place.PrincipalSubdivision,
		Country:     place.CountryName,
		CountryCode: place.CountryCode,
		Lat:         rlat,
		Lon:         rlon,
	}
	r.reverseCache.Set(key, loc)
	return loc, false
}

// ForwardGeocode resolves a place name to its best match. Coordinates are
// snapped onto the shared grid so downstream cache keys line up with the
// reverse-geocode path.
func (r *Resolver) ForwardGeocode(ctx context.Context, name string) (model.LocationRecord, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return model.LocationRecord{}, fmt.Errorf("%w: empty name", ErrNotFound)
	}
	if loc, ok := r.forwardCache.Get(key); ok {
		return loc, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	matches, err := r.forward.SearchCity(ctx, name)
	if err != nil {
		return model.LocationRecord{}, fmt.Errorf("geocode: city search: %w", err)
	}
	if len(matches) == 0 {
		return model.LocationRecord{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	best := matches[0]
	rlat, rlon := geo.RoundCoords(best.Latitude, best.Longitude)
	loc := model.LocationRecord{
		City:        best.Name,
		Region:      best.Admin1,
		Country:     best.Country,
		CountryCode: strings.ToUpper(best.CountryCode),
		Lat:         rlat,
		Lon:         rlon,
	}
	r.forwardCache.Set(key, loc)
	return loc, nil
}

func placeholderLocation(rlat, rlon float64) model.LocationRecord {
	return model.LocationRecord{
		City: fmt.Sprintf("Location (%s, %s)", geo.FormatCoord(rlat), geo.FormatCoord(rlon)),
		Lat:  rlat,
		Lon:  rlon,
	}
}

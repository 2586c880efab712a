// Package iplocate resolves client IP addresses to geolocation records,
// cached by the raw address string.
package iplocate

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"envscan/cache"
	"envscan/ipapi"
	"envscan/model"
)

// ErrLookupFailed is returned when the upstream reports a non-success
// status for the address.
var ErrLookupFailed = errors.New("iplocate: lookup failed")

type Provider interface {
	Lookup(ctx context.Context, ip string) (*ipapi.Geolocation, error)
}

type Locator struct {
	provider Provider
	store    *cache.Store[string, model.IPLocationRecord]
	timeout  time.Duration
}

func NewLocator(provider Provider, store *cache.Store[string, model.IPLocationRecord], timeout time.Duration) *Locator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Locator{
		provider: provider,
		store:    store,
		timeout:  timeout,
	}
}

// Resolve looks up the address, consulting the cache first. Callers must
// screen private and loopback addresses with IsPrivateIP beforehand; Resolve
// forwards whatever it is given and private addresses will fail upstream.
func (l *Locator) Resolve(ctx context.Context, ip string) (model.IPLocationRecord, error) {
	if rec, ok := l.store.Get(ip); ok {
		return rec, nil
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	geo, err := l.provider.Lookup(ctx, ip)
	if err != nil {
		var statusErr *ipapi.StatusError
		if errors.As(err, &statusErr) {
			return model.IPLocationRecord{}, fmt.Errorf("%w: %s", ErrLookupFailed, statusErr.Message)
		}
		return model.IPLocationRecord{}, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}

	rec := model.IPLocationRecord{
		IP:          geo.Query,
		Lat:         geo.Lat,
		Lon:         geo.Lon,
		City:        geo.City,
		Region:      geo.RegionName,
		RegionCode:  geo.Region,
		Country:     geo.Country,
		CountryCode: geo.CountryCode,
		Zip:         geo.Zip,
		Timezone:    geo.Timezone,
		ISP:         geo.ISP,
		Org:         geo.Org,
		AS:          geo.AS,
	}
	if rec.IP == "" {
		rec.IP = ip
	}
	l.store.Set(ip, rec)
	return rec, nil
}

var private172 = regexp.MustCompile(`^172\.(1[6-9]|2[0-9]|3[01])\.`)

// IsPrivateIP reports whether the address is loopback or RFC 1918 private
// space, which must never be forwarded to the geolocation upstream.
func IsPrivateIP(ip string) bool {
	switch ip {
	case "127.0.0.1", "::1", "localhost":
		return true
	}
	if strings.HasPrefix(ip, "10.") || strings.HasPrefix(ip, "192.168.") {
		return true
	}
	return private172.MatchString(ip)
}

// Package biztime holds the business timezone and the clock used across the service.
// Storage and transport are UTC; the business timezone only interprets provider
// timestamps that carry no zone and drives the scheduler.
package biztime

import (
	"fmt"
	"sync"
	"time"
)

// DefaultTimezone is used when no timezone is configured.
const DefaultTimezone = "UTC"

var (
	bizLocation *time.Location
	locationMu  sync.RWMutex
)

// Init sets the business timezone; an empty tz selects DefaultTimezone.
func Init(tz string) error {
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("failed to load timezone %q: %w", tz, err)
	}
	locationMu.Lock()
	bizLocation = loc
	locationMu.Unlock()
	return nil
}

// Location returns the business timezone, UTC until Init is called.
func Location() *time.Location {
	locationMu.RLock()
	defer locationMu.RUnlock()
	if bizLocation == nil {
		return time.UTC
	}
	return bizLocation
}

func NowUTC() time.Time {
	return time.Now().UTC()
}

// providerLayouts are the timestamp formats seen in provider payloads, most specific first.
var providerLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateTime,
}

// ParseProviderTime parses a provider timestamp into UTC. Timestamps without
// a zone offset are read in the business timezone.
func ParseProviderTime(s string) (time.Time, error) {
	for _, layout := range providerLayouts {
		if t, err := time.ParseInLocation(layout, s, Location()); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// Clock abstracts the wall clock so expiry logic can be tested.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns the real UTC clock.
func SystemClock() Clock { return systemClock{} }

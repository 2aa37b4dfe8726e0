package domain

import (
	"strings"
	"time"

	// Embedded zone database so zone lookups do not depend on the host.
	_ "time/tzdata"
)

const dateLayout = "2006-01-02"

// DayRange is a half-open UTC interval [Start, End).
type DayRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether ts falls inside the range.
func (r DayRange) Contains(ts time.Time) bool {
	return !ts.Before(r.Start) && ts.Before(r.End)
}

// LoadZone resolves an IANA zone name. An empty name means UTC.
func LoadZone(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.UTC, nil
	}
	if name == "Local" {
		return nil, validationf("invalid timezone %q", name)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, validationf("invalid timezone %q", name)
	}
	return loc, nil
}

// ResolveDay converts a local calendar date in the named zone to the UTC interval
// spanning local midnight to the next local midnight.
func ResolveDay(date, zone string) (DayRange, error) {
	day, err := time.Parse(dateLayout, strings.TrimSpace(date))
	if err != nil {
		return DayRange{}, validationf("date must be formatted as YYYY-MM-DD")
	}
	loc, err := LoadZone(zone)
	if err != nil {
		return DayRange{}, err
	}
	return DayRangeIn(day.Year(), day.Month(), day.Day(), loc), nil
}

// DayRangeIn computes the UTC interval for the given local calendar day.
func DayRangeIn(year int, month time.Month, day int, loc *time.Location) DayRange {
	start := time.Date(year, month, day, 0, 0, 0, 0, loc)
	end := time.Date(year, month, day+1, 0, 0, 0, 0, loc)
	return DayRange{Start: start.UTC(), End: end.UTC()}
}

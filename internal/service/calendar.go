package service

import (
	"time"

	"github.com/GTDGit/halal_inventory_api/internal/classification"
	"github.com/GTDGit/halal_inventory_api/internal/clock"
)

// calendar answers "what day is it" for the inventory time zone.
type calendar struct {
	clock clock.Clock
	loc   *time.Location
}

func newCalendar(c clock.Clock, loc *time.Location) calendar {
	if c == nil {
		c = clock.NewRealClock()
	}
	if loc == nil {
		loc = time.UTC
	}
	return calendar{clock: c, loc: loc}
}

func (c calendar) today() time.Time {
	return classification.Today(c.clock.Now(), c.loc)
}

// parseDate reads a YYYY-MM-DD field. Empty input is nil.
func parseDate(field string, raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return nil, validation(field, "must be a date in YYYY-MM-DD format")
	}
	return &t, nil
}

package planner

import (
	"bytes"
	"errors"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

var (
	ErrNotFound     = errors.New("plan not found")
	ErrInvalidDates = errors.New("invalid plan dates")
	// ErrForbidden is returned when a plan belongs to another household.
	ErrForbidden = errors.New("plan belongs to another household")
)

// Date is a calendar day encoded as YYYY-MM-DD.
type Date struct {
	time.Time
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Today is the current local calendar day.
func Today() Date {
	return DateOf(time.Now())
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrInvalidDates, s)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) || bytes.Equal(b, []byte(`""`)) {
		*d = Date{}
		return nil
	}
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("%w: expected a string", ErrInvalidDates)
	}
	parsed, err := ParseDate(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MealRef points at a meal included in a plan.
type MealRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
	Slug string `json:"slug,omitempty"`
}

// Plan is a date range of meals belonging to one household.
type Plan struct {
	ID          int64     `json:"id"`
	StartDate   Date      `json:"start_date,omitzero"`
	EndDate     Date      `json:"end_date,omitzero"`
	HouseholdID int64     `json:"household_id,omitempty"`
	// Stored plans always carry a non-nil slice, so "meals":[] is written
	// for a plan without meals; a bare {id} reference omits the key.
	Meals []MealRef `json:"meals,omitzero"`
}

// Validate requires both dates to be today or later and start not after end.
// New plans are checked with it.
func (p Plan) Validate(today Date) error {
	if err := p.ValidateRange(); err != nil {
		return err
	}
	if p.StartDate.Before(today.Time) || p.EndDate.Before(today.Time) {
		return fmt.Errorf("%w: dates must not be in the past", ErrInvalidDates)
	}
	return nil
}

// ValidateRange requires both dates and start not after end. Updates use it
// so a plan that has started can still change its meals.
func (p Plan) ValidateRange() error {
	if p.StartDate.IsZero() || p.EndDate.IsZero() {
		return fmt.Errorf("%w: start_date and end_date are required", ErrInvalidDates)
	}
	if p.StartDate.After(p.EndDate.Time) {
		return fmt.Errorf("%w: start_date is after end_date", ErrInvalidDates)
	}
	return nil
}

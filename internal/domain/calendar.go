package domain

import (
	"errors"
	"fmt"
	"time"
)

// dateLayout is the wire and storage form of a local calendar date.
const dateLayout = "2006-01-02"

// LocalDate converts a UTC instant into its calendar date in loc. Date
// derivation is deliberately this one function so midnight and DST cases
// can be pinned in tests.
func LocalDate(instant time.Time, loc *time.Location) string {
	return instant.In(loc).Format(dateLayout)
}

// ResolveLocation parses an IANA timezone name. Empty names are rejected
// explicitly; time.LoadLocation would silently return UTC for them.
func ResolveLocation(name string) (*time.Location, error) {
	if name == "" {
		return nil, errors.New("empty timezone")
	}
	return time.LoadLocation(name)
}

// ParseDate validates a YYYY-MM-DD string.
func ParseDate(date string) (time.Time, error) {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	return d, nil
}

// DayMark is one entry of the weekly calendar.
type DayMark struct {
	Date      string `json:"date"`
	Practiced bool   `json:"practiced"`
}

// WeekDates returns the seven dates Monday through Sunday of the week
// containing date.
func WeekDates(date string) ([7]string, error) {
	d, err := ParseDate(date)
	if err != nil {
		return [7]string{}, err
	}

	wd := int(d.Weekday())
	if wd == 0 { // time.Sunday
		wd = 7
	}
	monday := d.AddDate(0, 0, 1-wd)

	var days [7]string
	for i := range days {
		days[i] = monday.AddDate(0, 0, i).Format(dateLayout)
	}
	return days, nil
}

// MarkWeek builds the Monday-first calendar, marking the dates present in
// practiced.
func MarkWeek(days [7]string, practiced map[string]bool) []DayMark {
	marks := make([]DayMark, len(days))
	for i, d := range days {
		marks[i] = DayMark{Date: d, Practiced: practiced[d]}
	}
	return marks
}

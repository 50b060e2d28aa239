package models

import (
	"strings"
	"time"
)

// SeatCapacity is the fixed number of seats; sitNo ranges over 1..SeatCapacity.
const SeatCapacity = 100

const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

type Student struct {
	SitNo   int     `json:"sitNo"`
	Name    string  `json:"name"`
	Gender  string  `json:"gender"`
	Mobile  string  `json:"mobile"`
	Email   string  `json:"email"`
	Address string  `json:"address"`
	Fees    float64 `json:"fees"`
	Date    string  `json:"date"`
	Ledger  Ledger  `json:"year_month,omitempty"`
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"}

// ParseDate reads the admission date in the forms the backend and the form use.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormDate returns the admission date as yyyy-mm-dd, or "" when it cannot be parsed.
func (s Student) FormDate() string {
	t, ok := ParseDate(s.Date)
	if !ok {
		return ""
	}
	return t.Format("2006-01-02")
}

func ValidSitNo(n int) bool { return n >= 1 && n <= SeatCapacity }

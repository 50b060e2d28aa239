package models

import (
	"fmt"
	"strings"
	"time"
)

// Month is a lowercase three-letter month key as stored in the ledger ("jan".."dec").
type Month string

const (
	Jan Month = "jan"
	Feb Month = "feb"
	Mar Month = "mar"
	Apr Month = "apr"
	May Month = "may"
	Jun Month = "jun"
	Jul Month = "jul"
	Aug Month = "aug"
	Sep Month = "sep"
	Oct Month = "oct"
	Nov Month = "nov"
	Dec Month = "dec"
)

var Months = [12]Month{Jan, Feb, Mar, Apr, May, Jun, Jul, Aug, Sep, Oct, Nov, Dec}

// ParseMonth accepts any case, full names and the "sept" spelling some clients send.
func ParseMonth(s string) (Month, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "sept" {
		return Sep, nil
	}
	if len(s) >= 3 {
		for _, m := range Months {
			if strings.HasPrefix(s, string(m)) && (len(s) == 3 || strings.HasPrefix(fullNames[m.Index()], s)) {
				return m, nil
			}
		}
	}
	return "", fmt.Errorf("unknown month %q", s)
}

var fullNames = [12]string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// Index is the zero-based month number, -1 for an invalid key.
func (m Month) Index() int {
	for i, v := range Months {
		if v == m {
			return i
		}
	}
	return -1
}

func (m Month) Valid() bool { return m.Index() >= 0 }

// Title returns "Jan".
func (m Month) Title() string {
	if m == "" {
		return ""
	}
	return strings.ToUpper(string(m[:1])) + string(m[1:])
}

func MonthOf(t time.Time) Month { return Months[int(t.Month())-1] }

// ValidYear reports whether s is a four-digit year key.
func ValidYear(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

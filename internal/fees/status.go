// Package fees derives payment and seat status from student ledgers.
// Everything here is pure: same students and selection, same result.
package fees

import (
	"fmt"
	"sort"
	"time"

	"github.com/Spok95/hallboard/internal/models"
)

type Status string

const (
	Paid   Status = "paid"
	Unpaid Status = "unpaid"
	NA     Status = "n/a"
	Vacant Status = "vacant"
)

// Label is the display form used in tables and exports.
func (s Status) Label() string {
	switch s {
	case Paid:
		return "Paid"
	case Unpaid:
		return "Unpaid"
	case Vacant:
		return "Vacant"
	default:
		return "N/A"
	}
}

// Selection is the globally selected (year, month).
type Selection struct {
	Year  string       `json:"year"`
	Month models.Month `json:"month"`
}

// StatusOf reports paid, unpaid or n/a for one ledger and selection.
// An entry without a positive value carries no obligation and counts as n/a.
func StatusOf(l models.Ledger, sel Selection) Status {
	e, ok := l.Entry(sel.Year, sel.Month)
	if !ok || e.Value <= 0 {
		return NA
	}
	if e.Paid > 0 {
		return Paid
	}
	return Unpaid
}

// Years lists every year present in any ledger, newest first.
func Years(students []models.Student) []string {
	seen := map[string]struct{}{}
	for _, s := range students {
		for y := range s.Ledger {
			seen[y] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for y := range seen {
		out = append(out, y)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out
}

// Row is one student as shown for a selected month.
type Row struct {
	Student models.Student  `json:"student"`
	Entry   models.FeeEntry `json:"entry"`
	Status  Status          `json:"status"`
}

// MonthRows returns the students that have a ledger entry for sel, ordered by sitNo.
func MonthRows(students []models.Student, sel Selection) []Row {
	out := make([]Row, 0, len(students))
	for _, s := range students {
		e, ok := s.Ledger.Entry(sel.Year, sel.Month)
		if !ok {
			continue
		}
		out = append(out, Row{Student: s, Entry: e, Status: StatusOf(s.Ledger, sel)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Student.SitNo < out[j].Student.SitNo })
	return out
}

// ParseSelection validates a (year, month) pair from user input.
func ParseSelection(year, month string) (Selection, error) {
	if !models.ValidYear(year) {
		return Selection{}, fmt.Errorf("bad year %q", year)
	}
	m, err := models.ParseMonth(month)
	if err != nil {
		return Selection{}, err
	}
	return Selection{Year: year, Month: m}, nil
}

// Current is the selection for t.
func Current(t time.Time) Selection {
	return Selection{Year: fmt.Sprintf("%04d", t.Year()), Month: models.MonthOf(t)}
}

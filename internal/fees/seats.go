package fees

import (
	"fmt"

	"github.com/Spok95/hallboard/internal/models"
)

type Seat struct {
	SitNumber int             `json:"sitNumber"`
	Occupant  *models.Student `json:"occupant,omitempty"`
	Status    Status          `json:"status"`
}

// SeatGrid projects exactly models.SeatCapacity slots. Unmatched slots are vacant
// whatever the selection; occupied slots take StatusOf their occupant's ledger.
// When two students claim one sitNo the first in list order wins.
func SeatGrid(students []models.Student, sel Selection) []Seat {
	bySit := make(map[int]int, len(students))
	for i, s := range students {
		if _, dup := bySit[s.SitNo]; !dup {
			bySit[s.SitNo] = i
		}
	}
	grid := make([]Seat, models.SeatCapacity)
	for i := range grid {
		n := i + 1
		grid[i] = Seat{SitNumber: n, Status: Vacant}
		if idx, ok := bySit[n]; ok {
			occ := students[idx]
			grid[i].Occupant = &occ
			grid[i].Status = StatusOf(occ.Ledger, sel)
		}
	}
	return grid
}

// VacantCount is capacity minus distinct occupied sitNo values. Not month scoped.
func VacantCount(students []models.Student) int {
	occupied := map[int]struct{}{}
	for _, s := range students {
		if models.ValidSitNo(s.SitNo) {
			occupied[s.SitNo] = struct{}{}
		}
	}
	return models.SeatCapacity - len(occupied)
}

// AvailableSeats lists unoccupied sitNo values in ascending order.
func AvailableSeats(students []models.Student) []int {
	used := map[int]struct{}{}
	for _, s := range students {
		used[s.SitNo] = struct{}{}
	}
	out := make([]int, 0, models.SeatCapacity)
	for n := 1; n <= models.SeatCapacity; n++ {
		if _, ok := used[n]; !ok {
			out = append(out, n)
		}
	}
	return out
}

// Filter selects which seats a grid view shows.
type Filter string

const (
	FilterAll    Filter = "all"
	FilterPaid   Filter = "paid"
	FilterUnpaid Filter = "unpaid"
	FilterNA     Filter = "n/a"
	FilterVacant Filter = "vacant"
)

func ParseFilter(s string) (Filter, error) {
	switch f := Filter(s); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterPaid, FilterUnpaid, FilterNA, FilterVacant:
		return f, nil
	case "na":
		return FilterNA, nil
	}
	return "", fmt.Errorf("unknown seat filter %q", s)
}

func FilterSeats(grid []Seat, f Filter) []Seat {
	if f == FilterAll || f == "" {
		return grid
	}
	out := make([]Seat, 0, len(grid))
	for _, s := range grid {
		if string(s.Status) == string(f) {
			out = append(out, s)
		}
	}
	return out
}

// Summary feeds the dashboard cards.
type Summary struct {
	Total  int `json:"total"`
	Male   int `json:"male"`
	Female int `json:"female"`
	Paid   int `json:"paid"`
	Unpaid int `json:"unpaid"`
	NA     int `json:"na"`
	Vacant int `json:"vacant"`
}

func Summarize(students []models.Student, sel Selection) Summary {
	sum := Summary{Total: len(students), Vacant: VacantCount(students)}
	for _, s := range students {
		switch s.Gender {
		case models.GenderMale:
			sum.Male++
		case models.GenderFemale:
			sum.Female++
		}
		switch StatusOf(s.Ledger, sel) {
		case Paid:
			sum.Paid++
		case Unpaid:
			sum.Unpaid++
		default:
			sum.NA++
		}
	}
	return sum
}

// FilterRows applies a status filter to month rows. Rows are never vacant, so
// FilterVacant yields nothing.
func FilterRows(rows []Row, f Filter) []Row {
	if f == FilterAll || f == "" {
		return rows
	}
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if string(r.Status) == string(f) {
			out = append(out, r)
		}
	}
	return out
}

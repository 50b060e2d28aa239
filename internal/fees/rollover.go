package fees

import (
	"fmt"
	"strconv"

	"github.com/Spok95/hallboard/internal/models"
)

// PreviousMonth steps one calendar month back; jan of Y maps to dec of Y-1.
func PreviousMonth(sel Selection) (Selection, error) {
	y, err := strconv.Atoi(sel.Year)
	if err != nil || !models.ValidYear(sel.Year) {
		return Selection{}, fmt.Errorf("bad year %q", sel.Year)
	}
	idx := sel.Month.Index()
	if idx < 0 {
		return Selection{}, fmt.Errorf("bad month %q", sel.Month)
	}
	idx--
	if idx < 0 {
		idx = 11
		y--
	}
	return Selection{Year: fmt.Sprintf("%04d", y), Month: models.Months[idx]}, nil
}

// CopyRequest is the body of POST /api/students/copy-fees-next-month.
type CopyRequest struct {
	FromYear  string       `json:"fromYear"`
	FromMonth models.Month `json:"fromMonth"`
	ToYear    string       `json:"toYear"`
	ToMonth   models.Month `json:"toMonth"`
}

// RolloverRequest builds the bulk copy of every ledger from the month before target into target.
func RolloverRequest(target Selection) (CopyRequest, error) {
	from, err := PreviousMonth(target)
	if err != nil {
		return CopyRequest{}, err
	}
	return CopyRequest{
		FromYear:  from.Year,
		FromMonth: from.Month,
		ToYear:    target.Year,
		ToMonth:   target.Month,
	}, nil
}

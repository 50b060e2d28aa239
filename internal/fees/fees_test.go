package fees

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/hallboard/internal/models"
)

func sel(y string, m models.Month) Selection { return Selection{Year: y, Month: m} }

func TestStatusOf(t *testing.T) {
	l := models.Ledger{"2024": {
		models.Jan: {Value: 500, Paid: 500},
		models.Feb: {Value: 500, Paid: 0},
		models.Mar: {Value: 0, Paid: 0},
	}}
	tests := []struct {
		name string
		sel  Selection
		want Status
	}{
		{"paid", sel("2024", models.Jan), Paid},
		{"unpaid", sel("2024", models.Feb), Unpaid},
		{"zero value", sel("2024", models.Mar), NA},
		{"absent month", sel("2024", models.Apr), NA},
		{"absent year", sel("2023", models.Jan), NA},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(l, tt.sel))
		})
	}
	assert.Equal(t, NA, StatusOf(nil, sel("2024", models.Jan)))
}

func TestSeatGrid_Scenario(t *testing.T) {
	students := []models.Student{{
		SitNo:  1,
		Ledger: models.Ledger{"2024": {models.Jan: {Value: 500, Paid: 500}}},
	}}

	grid := SeatGrid(students, sel("2024", models.Jan))
	require.Len(t, grid, models.SeatCapacity)
	assert.Equal(t, Paid, grid[0].Status)
	require.NotNil(t, grid[0].Occupant)
	assert.Equal(t, 1, grid[0].Occupant.SitNo)

	grid = SeatGrid(students, sel("2024", models.Feb))
	assert.Equal(t, NA, grid[0].Status)
	for _, s := range grid[1:] {
		assert.Equal(t, Vacant, s.Status)
		assert.Nil(t, s.Occupant)
	}
}

func TestSeatGrid_VacantIgnoresLedgers(t *testing.T) {
	// a student outside the seat range must not occupy a slot
	students := []models.Student{
		{SitNo: 5},
		{SitNo: 101, Ledger: models.Ledger{"2024": {models.Jan: {Value: 1, Paid: 1}}}},
	}
	grid := SeatGrid(students, sel("2024", models.Jan))
	for _, s := range grid {
		if s.SitNumber == 5 {
			assert.Equal(t, NA, s.Status)
			continue
		}
		assert.Equal(t, Vacant, s.Status, "seat %d", s.SitNumber)
	}
}

func TestVacantCount(t *testing.T) {
	students := []models.Student{{SitNo: 1}, {SitNo: 2}, {SitNo: 2}, {SitNo: 300}}
	assert.Equal(t, 98, VacantCount(students))
	assert.Equal(t, 100, VacantCount(nil))
}

func TestAvailableSeats(t *testing.T) {
	students := []models.Student{{SitNo: 1}, {SitNo: 3}}
	avail := AvailableSeats(students)
	assert.Len(t, avail, 98)
	assert.Equal(t, 2, avail[0])
	assert.NotContains(t, avail, 3)
}

func TestFilterSeats(t *testing.T) {
	students := []models.Student{
		{SitNo: 1, Ledger: models.Ledger{"2024": {models.Jan: {Value: 1, Paid: 1}}}},
		{SitNo: 2, Ledger: models.Ledger{"2024": {models.Jan: {Value: 1}}}},
		{SitNo: 3},
	}
	grid := SeatGrid(students, sel("2024", models.Jan))
	assert.Len(t, FilterSeats(grid, FilterPaid), 1)
	assert.Len(t, FilterSeats(grid, FilterUnpaid), 1)
	assert.Len(t, FilterSeats(grid, FilterNA), 1)
	assert.Len(t, FilterSeats(grid, FilterVacant), 97)
	assert.Len(t, FilterSeats(grid, FilterAll), 100)

	f, err := ParseFilter("")
	require.NoError(t, err)
	assert.Equal(t, FilterAll, f)
	_, err = ParseFilter("reserved")
	assert.Error(t, err)
}

func TestPreviousMonth(t *testing.T) {
	prev, err := PreviousMonth(sel("2025", models.Jan))
	require.NoError(t, err)
	assert.Equal(t, sel("2024", models.Dec), prev)

	prev, err = PreviousMonth(sel("2024", models.Jul))
	require.NoError(t, err)
	assert.Equal(t, sel("2024", models.Jun), prev)

	_, err = PreviousMonth(sel("20x4", models.Jan))
	assert.Error(t, err)
	_, err = PreviousMonth(sel("2024", "foo"))
	assert.Error(t, err)
}

func TestRolloverRequest_Scenario(t *testing.T) {
	req, err := RolloverRequest(sel("2025", models.Jan))
	require.NoError(t, err)
	assert.Equal(t, CopyRequest{FromYear: "2024", FromMonth: models.Dec, ToYear: "2025", ToMonth: models.Jan}, req)
}

func TestMonthRowsAndSummary(t *testing.T) {
	students := []models.Student{
		{SitNo: 9, Gender: models.GenderFemale, Ledger: models.Ledger{"2024": {models.Jan: {Value: 1}}}},
		{SitNo: 2, Gender: models.GenderMale, Ledger: models.Ledger{"2024": {models.Jan: {Value: 1, Paid: 1}}}},
		{SitNo: 4, Gender: models.GenderMale, Ledger: models.Ledger{"2023": {models.Dec: {Value: 1}}}},
	}
	s := sel("2024", models.Jan)

	rows := MonthRows(students, s)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Student.SitNo)
	assert.Equal(t, Paid, rows[0].Status)
	assert.Equal(t, Unpaid, rows[1].Status)

	sum := Summarize(students, s)
	assert.Equal(t, Summary{Total: 3, Male: 2, Female: 1, Paid: 1, Unpaid: 1, NA: 1, Vacant: 97}, sum)

	assert.Equal(t, []string{"2024", "2023"}, Years(students))
}

func TestParseSelectionAndCurrent(t *testing.T) {
	s, err := ParseSelection("2024", "Sept")
	require.NoError(t, err)
	assert.Equal(t, sel("2024", models.Sep), s)

	_, err = ParseSelection("24", "jan")
	assert.Error(t, err)

	assert.Equal(t, sel("2026", models.Oct), Current(time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "N/A", NA.Label())
}

func TestFilterRows(t *testing.T) {
	rows := []Row{{Status: Paid}, {Status: Unpaid}, {Status: NA}, {Status: Paid}}
	assert.Len(t, FilterRows(rows, FilterPaid), 2)
	assert.Len(t, FilterRows(rows, FilterNA), 1)
	assert.Len(t, FilterRows(rows, FilterAll), 4)
	assert.Empty(t, FilterRows(rows, FilterVacant))
}

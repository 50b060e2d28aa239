package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMonth(t *testing.T) {
	tests := []struct {
		in   string
		want Month
		ok   bool
	}{
		{"jan", Jan, true},
		{"Jan", Jan, true},
		{"SEPT", Sep, true},
		{"September", Sep, true},
		{"marc", Mar, true},
		{"ma", "", false},
		{"janx", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := ParseMonth(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m)
		})
	}
	assert.Equal(t, 0, Jan.Index())
	assert.Equal(t, 11, Dec.Index())
	assert.Equal(t, "Feb", Feb.Title())
}

func TestLedger_SetKeepsSiblings(t *testing.T) {
	var l Ledger
	l.Set("2024", Jan, FeeEntry{Value: 500, Paid: 1})
	l.Set("2024", Feb, FeeEntry{Value: 500})
	l.Set("2025", Jan, FeeEntry{Value: 600})

	l.SetPaid("2024", Feb, true, 1)

	jan, _ := l.Entry("2024", Jan)
	feb, _ := l.Entry("2024", Feb)
	next, _ := l.Entry("2025", Jan)
	assert.Equal(t, FeeEntry{Value: 500, Paid: 1}, jan)
	assert.Equal(t, FeeEntry{Value: 500, Paid: 1}, feb)
	assert.Equal(t, FeeEntry{Value: 600}, next)
	assert.Equal(t, []string{"2025", "2024"}, l.Years())
}

func TestLedger_SetPaidSeedsMissingMonth(t *testing.T) {
	l := Ledger{}
	l.SetPaid("2024", Mar, false, 1)
	e, ok := l.Entry("2024", Mar)
	require.True(t, ok)
	assert.Equal(t, FeeEntry{Value: 1, Paid: 0}, e)
}

func TestLedger_JSONForms(t *testing.T) {
	wrapped := `{"2024":{"months":{"jan":{"value":500,"paid":500},"sept":{"value":1,"paid":0}}}}`
	flat := `{"2024":{"jan":{"value":500,"paid":500},"sept":{"value":1,"paid":0}}}`

	for name, in := range map[string]string{"wrapped": wrapped, "flat": flat} {
		t.Run(name, func(t *testing.T) {
			var l Ledger
			require.NoError(t, json.Unmarshal([]byte(in), &l))
			e, ok := l.Entry("2024", Jan)
			require.True(t, ok)
			assert.Equal(t, 500.0, e.Paid)
			_, ok = l.Entry("2024", Sep)
			assert.True(t, ok)
		})
	}

	l := Ledger{"2024": {Jan: {Value: 1}}}
	b, err := json.Marshal(l)
	require.NoError(t, err)
	assert.JSONEq(t, `{"2024":{"months":{"jan":{"value":1,"paid":0}}}}`, string(b))
}

func TestLedger_CloneIsDeep(t *testing.T) {
	l := Ledger{"2024": {Jan: {Value: 1}}}
	c := l.Clone()
	c.Set("2024", Jan, FeeEntry{Value: 9})
	e, _ := l.Entry("2024", Jan)
	assert.Equal(t, 1.0, e.Value)
}

func TestRawLocation_Point(t *testing.T) {
	var items []RawLocation
	in := `[
		{"latlong":{"lat":"12.9","long":"77.6"},"time":"2024-05-01T10:00:00Z"},
		{"lat":"bad","long":"77.7"},
		{"lat":12.95,"long":77.65},
		{"latlong":{"lat":null,"long":"1"}},
		{"lat":"NaN","long":"1"},
		{}
	]`
	require.NoError(t, json.Unmarshal([]byte(in), &items))
	require.Len(t, items, 6)

	p, ok := items[0].Point()
	require.True(t, ok)
	assert.Equal(t, [2]float64{12.9, 77.6}, p.Pair())
	require.NotNil(t, p.Time)

	_, ok = items[1].Point()
	assert.False(t, ok)

	p, ok = items[2].Point()
	require.True(t, ok)
	assert.Equal(t, [2]float64{12.95, 77.65}, p.Pair())

	for _, i := range []int{3, 4, 5} {
		_, ok = items[i].Point()
		assert.False(t, ok, "item %d", i)
	}
}

func TestVehicleType(t *testing.T) {
	v, err := ParseVehicleType("truck")
	require.NoError(t, err)
	assert.Equal(t, Truck, v)

	_, err = ParseVehicleType("boat")
	assert.Error(t, err)

	var veh Vehicle
	require.NoError(t, json.Unmarshal([]byte(`{"vehicleNo":"KA01","driverName":"Ravi","vehicleType":"bike"}`), &veh))
	assert.Equal(t, Bike, veh.VehicleType)
}

func TestStudent_FormDate(t *testing.T) {
	s := Student{Date: "2024-03-15T00:00:00.000Z"}
	assert.Equal(t, "2024-03-15", s.FormDate())
	assert.Equal(t, "", Student{Date: "someday"}.FormDate())
	assert.True(t, ValidSitNo(100))
	assert.False(t, ValidSitNo(0))
	assert.True(t, ValidYear("2024"))
	assert.False(t, ValidYear("24"))
}

func TestLedger_BothSeptemberSpellingsSurvive(t *testing.T) {
	in := `{"2024":{"months":{"sep":{"value":1,"paid":1},"sept":{"value":1,"paid":0},"jan":{"value":1,"paid":0}}}}`

	for i := 0; i < 50; i++ {
		var l Ledger
		require.NoError(t, json.Unmarshal([]byte(in), &l))
		require.Len(t, l["2024"], 3)
		e, ok := l.Entry("2024", Sep)
		require.True(t, ok)
		assert.Equal(t, FeeEntry{Value: 1, Paid: 1}, e, "canonical spelling wins lookups")
	}

	var l Ledger
	require.NoError(t, json.Unmarshal([]byte(in), &l))
	l.SetPaid("2024", Jan, true, 1)
	b, err := json.Marshal(l)
	require.NoError(t, err)
	assert.JSONEq(t, `{"2024":{"months":{
		"jan":{"value":1,"paid":1},
		"sep":{"value":1,"paid":1},
		"sept":{"value":1,"paid":0}}}}`, string(b))
}

func TestLedger_KeepsStoredMonthKey(t *testing.T) {
	var l Ledger
	require.NoError(t, json.Unmarshal([]byte(`{"2024":{"sept":{"value":1,"paid":0}}}`), &l))

	k, ok := l.Key("2024", Sep)
	require.True(t, ok)
	assert.Equal(t, Month("sept"), k)

	l.SetPaid("2024", Sep, true, 1)
	b, err := json.Marshal(l)
	require.NoError(t, err)
	assert.JSONEq(t, `{"2024":{"months":{"sept":{"value":1,"paid":1}}}}`, string(b))

	_, ok = l.Key("2024", Oct)
	assert.False(t, ok)
}

func TestCoord_Float(t *testing.T) {
	tests := []struct {
		in   Coord
		want float64
		ok   bool
	}{
		{"12.9", 12.9, true},
		{" -77.65 ", -77.65, true},
		{"12.9 N", 12.9, true},
		{"12.9abc", 12.9, true},
		{".5", 0.5, true},
		{"1e2", 100, true},
		{"1e", 1, true},
		{"0x1p-2", 0, true},
		{"", 0, false},
		{"bad", 0, false},
		{"NaN", 0, false},
		{"Infinity", 0, false},
		{"1e999", 0, false},
		{".", 0, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			f, ok := tt.in.Float()
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, f, 1e-9)
			}
		})
	}
}

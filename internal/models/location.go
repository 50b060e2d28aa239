package models

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type LocationPoint struct {
	Lat  float64    `json:"lat"`
	Lng  float64    `json:"lng"`
	Time *time.Time `json:"time,omitempty"`
}

// Pair returns [lat, lng].
func (p LocationPoint) Pair() [2]float64 { return [2]float64{p.Lat, p.Lng} }

// Coord holds a coordinate exactly as the feed sent it: string, number or null.
type Coord string

func (c *Coord) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*c = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = Coord(s)
		return nil
	}
	// numbers and anything else are kept verbatim and judged by Float
	*c = Coord(b)
	return nil
}

// leadingNumber is the decimal prefix a browser's parseFloat would read.
var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// Float reads the leading decimal number of the coordinate, so "12.9 N" is 12.9
// and "0x1p-2" is 0. ok is false when there is no number or it is not finite.
func (c Coord) Float() (float64, bool) {
	num := leadingNumber.FindString(strings.TrimSpace(string(c)))
	if num == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

type RawLatLong struct {
	Lat  Coord `json:"lat"`
	Long Coord `json:"long"`
}

// RawLocation is one feed item. Coordinates arrive nested under "latlong" or flat.
type RawLocation struct {
	LatLong *RawLatLong `json:"latlong,omitempty"`
	Lat     Coord       `json:"lat,omitempty"`
	Long    Coord       `json:"long,omitempty"`
	Time    string      `json:"time,omitempty"`
}

// Point converts the item; ok is false when either coordinate is missing or not finite.
func (r RawLocation) Point() (LocationPoint, bool) {
	lat, long := r.Lat, r.Long
	if r.LatLong != nil {
		lat, long = r.LatLong.Lat, r.LatLong.Long
	}
	la, ok1 := lat.Float()
	lo, ok2 := long.Float()
	if !ok1 || !ok2 {
		return LocationPoint{}, false
	}
	p := LocationPoint{Lat: la, Lng: lo}
	if r.Time != "" {
		if t, err := time.Parse(time.RFC3339Nano, r.Time); err == nil {
			p.Time = &t
		}
	}
	return p, true
}

// VehicleLocations is the body of /api/auth/getVehicleLocations/:vehicleNo.
type VehicleLocations struct {
	VehicleNo string        `json:"vehicleNo,omitempty"`
	Locations []RawLocation `json:"locations"`
}

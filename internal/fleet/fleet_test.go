package fleet

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/hallboard/internal/backend"
	"github.com/Spok95/hallboard/internal/forms"
	"github.com/Spok95/hallboard/internal/models"
	"github.com/Spok95/hallboard/internal/testutil/fakebackend"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func loc(lat, long string) models.RawLocation {
	return models.RawLocation{LatLong: &models.RawLatLong{Lat: models.Coord(lat), Long: models.Coord(long)}}
}

func newService(t *testing.T, fb *fakebackend.Server, token string) *Service {
	t.Helper()
	c := backend.New("fleet", fb.URL, 2*time.Second, nil)
	geo := NewNominatim(backend.New("geocoder", fb.URL, 2*time.Second, nil), "hallboard-test")
	return NewService(c, Options{Geocoder: geo, Tokens: staticToken(token), JitterFactor: 0.1})
}

func TestListDrivers_SendsBearer(t *testing.T) {
	fb := fakebackend.New()
	defer fb.Close()
	fb.AddDriver(models.Vehicle{VehicleNo: "KA01", DriverName: "Ravi", VehicleType: models.Truck})

	out, err := newService(t, fb, fb.Token).ListDrivers(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, models.Truck, out[0].VehicleType)

	call, ok := fb.LastCall(http.MethodGet, "/api/auth/getDrivers")
	require.True(t, ok)
	assert.Equal(t, "Bearer "+fb.Token, call.Auth)
}

func TestListDrivers_LoggedOutIsUnauthorized(t *testing.T) {
	fb := fakebackend.New()
	defer fb.Close()

	_, err := newService(t, fb, "").ListDrivers(context.Background())
	require.Error(t, err)
	assert.True(t, backend.IsStatus(err, http.StatusUnauthorized))
}

func TestValidateRegistration(t *testing.T) {
	_, err := ValidateRegistration(models.Registration{})
	require.ErrorIs(t, err, forms.ErrInvalid)
	fe, ok := forms.Fields(err)
	require.True(t, ok)
	assert.Contains(t, fe, "driverName")
	assert.Contains(t, fe, "vehicleNo")
	assert.Contains(t, fe, "password")
	assert.NotContains(t, fe, "vehicleType")

	r, err := ValidateRegistration(models.Registration{DriverName: " Asha ", VehicleNo: "KA02", Password: "pw", VehicleType: "bike"})
	require.NoError(t, err)
	assert.Equal(t, "Asha", r.DriverName)
	assert.Equal(t, models.Bike, r.VehicleType)

	r, err = ValidateRegistration(models.Registration{DriverName: "A", VehicleNo: "B", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, models.Car, r.VehicleType)

	_, err = ValidateRegistration(models.Registration{DriverName: "A", VehicleNo: "B", Password: "p", VehicleType: "Boat"})
	fe, _ = forms.Fields(err)
	assert.Contains(t, fe, "vehicleType")
}

func TestRegister_InvalidSendsNothing(t *testing.T) {
	fb := fakebackend.New()
	defer fb.Close()

	err := newService(t, fb, fb.Token).Register(context.Background(), models.Registration{VehicleNo: "X"})
	require.Error(t, err)
	assert.Zero(t, fb.CallsTo(http.MethodPost, "/api/auth/register"))
}

func TestRegister_Posts(t *testing.T) {
	fb := fakebackend.New()
	defer fb.Close()

	err := newService(t, fb, fb.Token).Register(context.Background(), models.Registration{
		DriverName: "Asha", VehicleNo: "KA02", Password: "pw",
	})
	require.NoError(t, err)

	call, ok := fb.LastCall(http.MethodPost, "/api/auth/register")
	require.True(t, ok)
	assert.Empty(t, call.Auth)
	var sent models.Registration
	require.NoError(t, json.Unmarshal(call.Body, &sent))
	assert.Equal(t, models.Car, sent.VehicleType)
	assert.Equal(t, "pw", sent.Password)
}

func TestRegister_WithToken(t *testing.T) {
	fb := fakebackend.New()
	defer fb.Close()
	c := backend.New("fleet", fb.URL, 2*time.Second, nil)
	s := NewService(c, Options{Tokens: staticToken("abc"), RegisterWithToken: true})

	require.NoError(t, s.Register(context.Background(), models.Registration{DriverName: "A", VehicleNo: "B", Password: "p"}))
	call, _ := fb.LastCall(http.MethodPost, "/api/auth/register")
	assert.Equal(t, "Bearer abc", call.Auth)
}

func TestCurrent_LatestOnly(t *testing.T) {
	fb := fakebackend.New()
	defer fb.Close()
	fb.SetPlace("MG Road, Bengaluru")
	fb.SetLocations("KA01", []models.RawLocation{loc("12.9", "77.5"), loc("bad", "77.6"), loc("13.0", "77.7")})

	l, err := newService(t, fb, "").Current(context.Background(), "KA01")
	require.NoError(t, err)
	assert.True(t, l.Found)
	require.NotNil(t, l.Latest)
	assert.Equal(t, [2]float64{13.0, 77.7}, l.Latest.Pair())
	assert.Empty(t, l.Path)
	assert.Nil(t, l.DisplayMarker)
	assert.Equal(t, "MG Road, Bengaluru", l.Place)
}

func TestHistory_PathAndMarker(t *testing.T) {
	fb := fakebackend.New()
	defer fb.Close()
	fb.SetLocations("KA01", []models.RawLocation{loc("10", "20"), loc("11", "22")})

	l, err := newService(t, fb, "").History(context.Background(), "KA01")
	require.NoError(t, err)
	assert.Equal(t, [][2]float64{{10, 20}, {11, 22}}, l.Path)
	require.NotNil(t, l.DisplayMarker)
	assert.InDelta(t, 11.1, l.DisplayMarker[0], 1e-9)
	assert.InDelta(t, 22.2, l.DisplayMarker[1], 1e-9)
	assert.Equal(t, [2]float64{11, 22}, l.Latest.Pair())
	// geocoder unavailable: lookup still succeeds
	assert.Empty(t, l.Place)
}

func TestLookup_NoPoints(t *testing.T) {
	fb := fakebackend.New()
	defer fb.Close()
	fb.SetLocations("KA09", []models.RawLocation{loc("", "")})

	l, err := newService(t, fb, "").History(context.Background(), "KA09")
	require.NoError(t, err)
	assert.False(t, l.Found)
	assert.Nil(t, l.Latest)
}

func TestLookup_UnknownVehicle(t *testing.T) {
	fb := fakebackend.New()
	defer fb.Close()

	_, err := newService(t, fb, "").Current(context.Background(), "NOPE")
	require.Error(t, err)
	assert.True(t, backend.IsStatus(err, http.StatusNotFound))
}

type failingGeo struct{}

func (failingGeo) Reverse(context.Context, float64, float64) (string, error) {
	return "", errors.New("boom")
}

func TestPlace_GeocoderErrorIsEmpty(t *testing.T) {
	s := &Service{geo: failingGeo{}, log: NewService(nil, Options{}).log}
	assert.Empty(t, s.place(context.Background(), models.LocationPoint{Lat: 1, Lng: 2}))
}

func TestDisplayJitter(t *testing.T) {
	pts := []models.LocationPoint{{Lat: 0, Lng: 0}, {Lat: 1, Lng: -1}}
	m, ok := DisplayJitter(pts, 0.5)
	require.True(t, ok)
	assert.Equal(t, [2]float64{1.5, -1.5}, m)

	_, ok = DisplayJitter(pts[:1], 0.5)
	assert.False(t, ok)
	_, ok = DisplayJitter(pts, 0)
	assert.False(t, ok)
}

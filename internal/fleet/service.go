package fleet

import (
	"context"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/hallboard/internal/backend"
	"github.com/Spok95/hallboard/internal/forms"
	"github.com/Spok95/hallboard/internal/models"
	"github.com/Spok95/hallboard/internal/observability"
	"github.com/Spok95/hallboard/internal/tracker"
)

// TokenSource yields the current admin bearer token ("" when logged out).
type TokenSource interface {
	Token() string
}

type Service struct {
	c                 *backend.Client
	geo               Geocoder
	tokens            TokenSource
	registerWithToken bool
	jitter            float64
	log               *zap.Logger
}

type Options struct {
	Geocoder          Geocoder
	Tokens            TokenSource
	RegisterWithToken bool
	JitterFactor      float64
	Log               *zap.Logger
}

func NewService(c *backend.Client, o Options) *Service {
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	return &Service{
		c:                 c,
		geo:               o.Geocoder,
		tokens:            o.Tokens,
		registerWithToken: o.RegisterWithToken,
		jitter:            o.JitterFactor,
		log:               o.Log.Named("fleet"),
	}
}

func (s *Service) token() string {
	if s.tokens == nil {
		return ""
	}
	return s.tokens.Token()
}

func (s *Service) ListDrivers(ctx context.Context) ([]models.Vehicle, error) {
	var out []models.Vehicle
	if err := s.c.Get(ctx, "/api/auth/getDrivers", &out, backend.WithBearer(s.token())); err != nil {
		s.log.Warn("list drivers failed", zap.Error(err))
		observability.CaptureSystemErr(err)
		return nil, err
	}
	return out, nil
}

// ValidateRegistration checks the register form field by field.
func ValidateRegistration(r models.Registration) (models.Registration, error) {
	errs := forms.Errors{}
	r.DriverName = strings.TrimSpace(r.DriverName)
	r.VehicleNo = strings.TrimSpace(r.VehicleNo)
	if r.DriverName == "" {
		errs.Add("driverName", "Driver name is mandatory.")
	}
	if r.VehicleNo == "" {
		errs.Add("vehicleNo", "Vehicle number is mandatory.")
	}
	if r.Password == "" {
		errs.Add("password", "Password is mandatory.")
	}
	if r.VehicleType == "" {
		r.VehicleType = models.Car
	}
	vt, err := models.ParseVehicleType(string(r.VehicleType))
	if err != nil {
		errs.Add("vehicleType", "Vehicle type must be Car, Truck, Bike or Scooter.")
	}
	r.VehicleType = vt
	return r, errs.Err()
}

// Register creates a driver/vehicle. Nothing is sent when the form is invalid.
func (s *Service) Register(ctx context.Context, r models.Registration) error {
	r, err := ValidateRegistration(r)
	if err != nil {
		return err
	}
	var opts []backend.Option
	if s.registerWithToken {
		opts = append(opts, backend.WithBearer(s.token()))
	}
	if err := s.c.Post(ctx, "/api/auth/register", r, nil, opts...); err != nil {
		s.log.Error("register driver failed", zap.String("vehicle_no", r.VehicleNo), zap.Error(err))
		observability.CaptureSystemErr(err)
		return err
	}
	return nil
}

// Lookup is one vehicle's location view.
type Lookup struct {
	VehicleNo string                `json:"vehicleNo"`
	Found     bool                  `json:"found"`
	Latest    *models.LocationPoint `json:"latest,omitempty"`
	Path      [][2]float64          `json:"path,omitempty"`
	// DisplayMarker is where to draw the latest marker so it does not sit on top of
	// the path's last vertex. It is not a recorded position.
	DisplayMarker *[2]float64 `json:"displayMarker,omitempty"`
	Place         string      `json:"place"`
	FetchedAt     time.Time   `json:"fetchedAt"`
}

func (s *Service) points(ctx context.Context, vehicleNo string) ([]models.LocationPoint, error) {
	var out models.VehicleLocations
	if err := s.c.Get(ctx, "/api/auth/getVehicleLocations/"+url.PathEscape(vehicleNo), &out); err != nil {
		s.log.Warn("vehicle locations failed", zap.String("vehicle_no", vehicleNo), zap.Error(err))
		observability.CaptureSystemErr(err)
		return nil, err
	}
	return tracker.Clean(out.Locations), nil
}

// Current renders only the most recent point.
func (s *Service) Current(ctx context.Context, vehicleNo string) (Lookup, error) {
	pts, err := s.points(ctx, vehicleNo)
	if err != nil {
		return Lookup{}, err
	}
	l := Lookup{VehicleNo: vehicleNo, FetchedAt: time.Now()}
	if len(pts) == 0 {
		return l, nil
	}
	latest := pts[len(pts)-1]
	l.Found = true
	l.Latest = &latest
	l.Place = s.place(ctx, latest)
	return l, nil
}

// History renders the whole recorded path plus the jittered display marker.
func (s *Service) History(ctx context.Context, vehicleNo string) (Lookup, error) {
	pts, err := s.points(ctx, vehicleNo)
	if err != nil {
		return Lookup{}, err
	}
	l := Lookup{VehicleNo: vehicleNo, FetchedAt: time.Now()}
	if len(pts) == 0 {
		return l, nil
	}
	latest := pts[len(pts)-1]
	l.Found = true
	l.Latest = &latest
	l.Path = make([][2]float64, len(pts))
	for i, p := range pts {
		l.Path[i] = p.Pair()
	}
	if m, ok := DisplayJitter(pts, s.jitter); ok {
		l.DisplayMarker = &m
	}
	l.Place = s.place(ctx, latest)
	return l, nil
}

// place is best effort: any failure yields "".
func (s *Service) place(ctx context.Context, p models.LocationPoint) string {
	if s.geo == nil {
		return ""
	}
	name, err := s.geo.Reverse(ctx, p.Lat, p.Lng)
	if err != nil {
		s.log.Debug("reverse geocode failed", zap.Error(err))
		return ""
	}
	return name
}

// DisplayJitter extrapolates the last segment by factor: last + (last-prev)*factor.
// ok is false with fewer than two points or a zero factor.
func DisplayJitter(pts []models.LocationPoint, factor float64) ([2]float64, bool) {
	if len(pts) < 2 || factor == 0 {
		return [2]float64{}, false
	}
	last, prev := pts[len(pts)-1], pts[len(pts)-2]
	return [2]float64{
		last.Lat + (last.Lat-prev.Lat)*factor,
		last.Lng + (last.Lng-prev.Lng)*factor,
	}, true
}

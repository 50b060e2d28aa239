package fleet

import (
	"context"
	"net/url"
	"strconv"

	"github.com/Spok95/hallboard/internal/backend"
)

// Geocoder turns a coordinate into a place name.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lng float64) (string, error)
}

// Nominatim calls the OpenStreetMap reverse endpoint.
type Nominatim struct {
	c         *backend.Client
	userAgent string
}

func NewNominatim(c *backend.Client, userAgent string) *Nominatim {
	return &Nominatim{c: c, userAgent: userAgent}
}

func (n *Nominatim) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))

	var out struct {
		DisplayName string `json:"display_name"`
	}
	if err := n.c.Get(ctx, "/reverse", &out, backend.WithQuery(q), backend.WithHeader("User-Agent", n.userAgent)); err != nil {
		return "", err
	}
	return out.DisplayName, nil
}

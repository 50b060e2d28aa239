package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr  string
	LogLevel  string
	Env       string // dev|prod
	SentryDSN string
	Location  *time.Location

	// remote services
	TrackerURL     string
	FleetURL       string
	StudentsURL    string
	GeocoderURL    string
	BackendTimeout time.Duration

	PollInterval      time.Duration
	BannerTTL         time.Duration
	JitterFactor      float64
	RegisterWithToken bool

	// token store: file|redis
	TokenStore string
	TokenFile  string
	RedisAddr  string
	RedisKey   string

	// export delivery, optional
	TelegramToken string
	AdminIDs      []int64
}

func Load() (*Config, error) {
	tz := getenv("TZ", "Asia/Kolkata")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.Local
	}

	adminIDs, err := parseIDs(os.Getenv("ADMIN_IDS"))
	if err != nil {
		return nil, fmt.Errorf("ADMIN_IDS: %w", err)
	}

	cfg := &Config{
		HTTPAddr:  getenv("HTTP_ADDR", ":8080"),
		LogLevel:  getenv("LOG_LEVEL", "info"),
		Env:       getenv("ENV", "dev"),
		SentryDSN: os.Getenv("SENTRY_DSN"),
		Location:  loc,

		TrackerURL:  strings.TrimRight(getenv("TRACKER_URL", "https://trackeazy-backend-kse1.vercel.app"), "/"),
		FleetURL:    strings.TrimRight(getenv("FLEET_URL", "https://final-backend-trackeazy.vercel.app"), "/"),
		StudentsURL: strings.TrimRight(getenv("STUDENTS_URL", "https://bonde-backend-navy.vercel.app"), "/"),
		GeocoderURL: strings.TrimRight(getenv("GEOCODER_URL", "https://nominatim.openstreetmap.org"), "/"),

		TokenStore:    strings.ToLower(getenv("TOKEN_STORE", "file")),
		TokenFile:     getenv("TOKEN_FILE", "./data/token"),
		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisKey:      getenv("REDIS_KEY", "hallboard:token"),
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		AdminIDs:      adminIDs,
	}

	if cfg.BackendTimeout, err = durationEnv("BACKEND_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.PollInterval, err = durationEnv("POLL_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.BannerTTL, err = durationEnv("BANNER_TTL", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.JitterFactor, err = floatEnv("JITTER_FACTOR", 0.1); err != nil {
		return nil, err
	}
	if cfg.RegisterWithToken, err = boolEnv("REGISTER_WITH_TOKEN", true); err != nil {
		return nil, err
	}
	if cfg.TokenStore != "file" && cfg.TokenStore != "redis" {
		return nil, fmt.Errorf("TOKEN_STORE: unknown store %q", cfg.TokenStore)
	}
	return cfg, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func durationEnv(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %s", k, d)
	}
	return d, nil
}

func floatEnv(k string, def float64) (float64, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return f, nil
}

func boolEnv(k string, def bool) (bool, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", k, err)
	}
	return b, nil
}

func parseIDs(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad id %q: %w", p, err)
		}
		out = append(out, n)
	}
	return out, nil
}

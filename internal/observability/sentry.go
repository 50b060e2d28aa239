package observability

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/getsentry/sentry-go"
)

func InitSentry(dsn, env, release string) (func(), error) {
	if dsn == "" {
		return func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: env,
		Release:     release,
	}); err != nil {
		return func() {}, err
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

func CaptureErr(err error) {
	if err != nil {
		sentry.CaptureException(err)
	}
}

// statusCoder is implemented by backend.StatusError.
type statusCoder interface{ StatusCode() int }

// IsSystemErr reports failures worth reporting: 5xx, 429, timeouts and transport errors.
// Client-side 4xx responses are expected and stay out of Sentry.
func IsSystemErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var sc statusCoder
	if errors.As(err, &sc) {
		code := sc.StatusCode()
		return code == 429 || code >= 500
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}

// CaptureSystemErr sends err to Sentry only when IsSystemErr holds.
func CaptureSystemErr(err error) {
	if IsSystemErr(err) {
		CaptureErr(err)
	}
}

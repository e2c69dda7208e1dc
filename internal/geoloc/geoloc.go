// Package geoloc resolves the device position with explicit timeout,
// accuracy and error classification. One attempt per call; re-invoking is
// the caller's decision.
package geoloc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Code classifies a geolocation failure.
type Code int

const (
	CodeUnknown Code = iota
	CodeUnsupported
	CodePermissionDenied
	CodePositionUnavailable
	CodeTimeout
)

func (c Code) String() string {
	switch c {
	case CodeUnsupported:
		return "unsupported"
	case CodePermissionDenied:
		return "permission_denied"
	case CodePositionUnavailable:
		return "position_unavailable"
	case CodeTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error is a classified geolocation failure with a user-facing message.
type Error struct {
	Code  Code
	Cause error
}

func (e *Error) Error() string {
	msg := messageFor(e.Code)
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

func messageFor(c Code) string {
	switch c {
	case CodeUnsupported:
		return "geolocation is not supported on this device"
	case CodePermissionDenied:
		return "user denied the request for geolocation"
	case CodePositionUnavailable:
		return "location information is unavailable"
	case CodeTimeout:
		return "the request to get user location timed out"
	default:
		return "unknown geolocation error"
	}
}

// Coordinates is a device position in floating-point degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Options configure a position request.
type Options struct {
	HighAccuracy bool
	Timeout      time.Duration // default 10s
	MaximumAge   time.Duration // accepted age of a cached device fix, default 10m
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.MaximumAge <= 0 {
		o.MaximumAge = 10 * time.Minute
	}
	return o
}

// Source is the device position backend. Implementations return either a
// fix or an *Error; anything else is classified by the Resolver.
type Source interface {
	Position(ctx context.Context, opts Options) (Coordinates, error)
}

// Resolver wraps a Source with timeout and error classification.
type Resolver struct {
	src  Source
	opts Options
}

// NewResolver creates a Resolver. A nil source means the device has no
// geolocation capability; every call then fails with CodeUnsupported.
func NewResolver(src Source, opts Options) *Resolver {
	return &Resolver{src: src, opts: opts.withDefaults()}
}

// CurrentPosition performs a single position attempt.
func (r *Resolver) CurrentPosition(ctx context.Context) (Coordinates, error) {
	if r.src == nil {
		return Coordinates{}, &Error{Code: CodeUnsupported}
	}

	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	pos, err := r.src.Position(ctx, r.opts)
	if err != nil {
		return Coordinates{}, classify(err)
	}
	if pos.Latitude < -90 || pos.Latitude > 90 || pos.Longitude < -180 || pos.Longitude > 180 {
		return Coordinates{}, &Error{Code: CodePositionUnavailable, Cause: fmt.Errorf("coordinates out of range (%v, %v)", pos.Latitude, pos.Longitude)}
	}
	return pos, nil
}

func classify(err error) error {
	var ge *Error
	if errors.As(err, &ge) {
		return ge
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Code: CodeTimeout, Cause: err}
	}
	return &Error{Code: CodeUnknown, Cause: err}
}

// EnvSource reads a fixed position from SKYCAST_LAT / SKYCAST_LON. It stands
// in for a real device backend on headless hosts.
type EnvSource struct{}

func (EnvSource) Position(_ context.Context, _ Options) (Coordinates, error) {
	latStr, lonStr := os.Getenv("SKYCAST_LAT"), os.Getenv("SKYCAST_LON")
	if latStr == "" || lonStr == "" {
		return Coordinates{}, &Error{Code: CodePositionUnavailable, Cause: errors.New("SKYCAST_LAT/SKYCAST_LON not set")}
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return Coordinates{}, &Error{Code: CodePositionUnavailable, Cause: err}
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return Coordinates{}, &Error{Code: CodePositionUnavailable, Cause: err}
	}
	return Coordinates{Latitude: lat, Longitude: lon}, nil
}

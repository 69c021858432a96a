// Package retry re-runs operations that failed on transient network errors.
package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"syscall"
	"time"
)

// Policy is a fixed-backoff retry policy.
type Policy struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultPolicy makes three attempts 250ms apart.
var DefaultPolicy = Policy{Attempts: 3, Backoff: 250 * time.Millisecond}

// Do runs op until it succeeds, fails with a non-transient error, or the
// attempts run out. The last error is returned unchanged.
func (p Policy) Do(ctx context.Context, name string, op func(context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if !IsTransient(err) || attempt == attempts {
			return err
		}
		slog.WarnContext(ctx, "Transient failure, retrying",
			"operation", name,
			"attempt", attempt,
			"max_attempts", attempts,
			"error", err)

		timer := time.NewTimer(p.Backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
	return err
}

// IsTransient reports whether err looks like a network hiccup worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{
		"connection refused",
		"connection reset",
		"connection closed",
		"broken pipe",
		"unexpected eof",
		"use of closed network connection",
		"database is locked",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

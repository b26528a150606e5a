// Package context holds the timeout conventions shared by startup and shutdown code.
package context

import (
	"context"
	"time"
)

const (
	DefaultShutdownTimeout = 10 * time.Second
	DefaultPingTimeout     = 5 * time.Second
)

// WithPingTimeout bounds a dependency ping during startup or health checks.
func WithPingTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultPingTimeout)
}

// WithShutdownTimeout bounds graceful shutdown. It starts from
// context.Background since the caller's context is normally cancelled by then.
func WithShutdownTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), DefaultShutdownTimeout)
}

// Package telemetry wires structured logging (zap, grounded on
// Voskan-arena-cache's pkg/config.go use of *zap.Logger as a functional
// option) and Prometheus metrics for every layer of the edge cache.
package telemetry

import (
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// NewLogger returns a production zap logger, or a no-op logger if
// construction fails (mirrors the common "never let logging setup crash
// the service" idiom zap itself documents).
func NewLogger() *zap.Logger {
	l, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// NewDevLogger returns a human-readable logger for CLIs and tests.
func NewDevLogger() *zap.Logger {
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// Bytes renders a byte count for log fields the way capacity/eviction
// lines want to read ("13 MB" rather than "12582912"), using
// dustin/go-humanize (a transitive dependency of both Voskan-arena-cache
// and luxfi-consensus, promoted here to a direct, exercised import).
func Bytes(n uint64) string { return humanize.Bytes(n) }

// Package transport provides the deterministic propagation-latency
// injection (Simulator) of the spec's §2 "Propagation simulation & clock"
// component, plus a blocking work Queue and a Clock.
package transport

import "time"

// Clock provides time in UnixNano, reusing the teacher's cache.Clock
// contract verbatim (see the teacher's cache/options.go) so tests can
// inject a fake clock exactly as the teacher's fakeClock does in
// cache/cache_test.go. No other package reads a Clock: AdaptSize and LHD
// count accesses for their reconfiguration windows.
type Clock interface{ NowUnixNano() int64 }

// SystemClock is the default Clock backed by time.Now.
type SystemClock struct{}

func (SystemClock) NowUnixNano() int64 { return time.Now().UnixNano() }

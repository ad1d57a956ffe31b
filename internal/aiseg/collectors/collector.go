// Package collectors implements the four concrete AiSEG2 collectors
// (C5): Power, Climate, DailyTotal, CircuitDailyTotal. Each owns the
// page paths and CSS selectors for one slice of the device's web UI and
// turns them into model.Point values through internal/aiseg/htmlutil.
package collectors

import (
	"context"
	"time"

	"github.com/sawadashota/aiseg2-influxdb2-forwarder/internal/model"
)

// Fetcher is the subset of *aiseg.Client each collector depends on. Tests
// substitute a stub that returns canned HTML without a real HTTP server.
type Fetcher interface {
	Fetch(ctx context.Context, collectorID, op, path string) ([]byte, error)
}

// Collector is the contract every concrete collector satisfies (C4).
// Collect must complete or return an error within ctx's deadline; an
// empty, nil-error result is only valid when the device legitimately has
// no data, never as a substitute for a parse error. Per spec §4.4,
// collectors are stateless across calls except for immutable config
// captured at construction — Collect never depends on, or mutates, any
// bookkeeping about prior calls.
type Collector interface {
	ID() model.CollectorID
	Collect(ctx context.Context) ([]model.Point, error)
}

// DateCollector is implemented by the Total-cadence collectors whose data
// is naturally parameterised by a date (DailyTotalCollector,
// CircuitDailyTotalCollector). Collect always requests the current day
// through this same method; a caller that needs historical data — the
// startup backfill task — calls CollectDate directly with past dates,
// without the collector accumulating any state of its own.
type DateCollector interface {
	ID() model.CollectorID
	CollectDate(ctx context.Context, date time.Time) ([]model.Point, error)
}

// Clock abstracts time.Now so day-boundary backfill logic is testable
// without depending on wall-clock time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }

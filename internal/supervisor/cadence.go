// Package supervisor implements the two-cadence tick loop (C8) that ties
// collectors, circuit breakers, and the writer together. Its absolute-deadline
// wait is grounded on the teacher's monitoring task queue; the
// sequential-per-cadence execution has no teacher counterpart.
package supervisor

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawadashota/aiseg2-influxdb2-forwarder/internal/aiseg/collectors"
	"github.com/sawadashota/aiseg2-influxdb2-forwarder/internal/breaker"
	aisegerrors "github.com/sawadashota/aiseg2-influxdb2-forwarder/internal/errors"
	"github.com/sawadashota/aiseg2-influxdb2-forwarder/internal/metrics"
	"github.com/sawadashota/aiseg2-influxdb2-forwarder/internal/model"
)

// Writer is the subset of writer.Writer a CadenceRunner depends on.
type Writer interface {
	Write(ctx context.Context, cadence model.Cadence, points []model.Point) error
}

// entry pairs one collector with the breaker guarding it. Collectors
// within a cadence are invoked in this slice's order, per spec §5.
type entry struct {
	collector collectors.Collector
	breaker   *breaker.Breaker
}

// CadenceRunner drives one cadence's tick loop: an ordered list of
// collectors, each shielded by its own breaker, ticking at a fixed
// interval with a bounded per-collect deadline.
type CadenceRunner struct {
	cadence      model.Cadence
	interval     time.Duration
	taskTimeout  time.Duration
	entries      []entry
	writer       Writer
	restartDelay time.Duration
}

// NewCadenceRunner builds a CadenceRunner. collectorList and breakers must
// be the same length and index-aligned.
func NewCadenceRunner(
	cadence model.Cadence,
	interval time.Duration,
	taskTimeout time.Duration,
	collectorList []collectors.Collector,
	breakers []*breaker.Breaker,
	w Writer,
) *CadenceRunner {
	entries := make([]entry, len(collectorList))
	for i := range collectorList {
		entries[i] = entry{collector: collectorList[i], breaker: breakers[i]}
	}
	return &CadenceRunner{
		cadence:      cadence,
		interval:     interval,
		taskTimeout:  taskTimeout,
		entries:      entries,
		writer:       w,
		restartDelay: time.Second,
	}
}

// Run drives the tick loop until ctx is cancelled. If the loop body panics
// or returns unexpectedly, Run restarts it after a fixed backoff, per
// spec §4.6's restart policy (an implementer-chosen fixed 1s delay).
func (r *CadenceRunner) Run(ctx context.Context) error {
	for {
		err := r.runLoop(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			log.Error().Err(err).Str("cadence", r.cadence.String()).Msg("cadence loop exited unexpectedly, restarting")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(r.restartDelay):
		}
	}
}

// runLoop is the supervised body: sleeps to the next absolute tick
// boundary, then runs one tick. A panic is recovered and returned as an
// error so Run's restart policy applies uniformly.
func (r *CadenceRunner) runLoop(ctx context.Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &panicError{recovered: p}
		}
	}()

	next := time.Now()
	for {
		next = next.Add(r.interval)
		if wait := time.Until(next); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil
			case <-timer.C:
			}
		} else {
			// Work overran the interval; fire immediately, per spec §4.6 step 1.
			next = time.Now()
		}

		r.tick(ctx)

		if ctx.Err() != nil {
			return nil
		}
	}
}

// tick runs every collector in this cadence, in order, bounded by
// r.taskTimeout each.
func (r *CadenceRunner) tick(ctx context.Context) {
	for _, e := range r.entries {
		if ctx.Err() != nil {
			return
		}
		r.runOne(ctx, e)
	}
}

func (r *CadenceRunner) runOne(ctx context.Context, e entry) {
	id := string(e.collector.ID())

	if !e.breaker.Allow() {
		metrics.ShortCircuitedTotal.WithLabelValues(id).Inc()
		return
	}
	metrics.BreakerState.WithLabelValues(id).Set(stateGauge(e.breaker.CurrentState()))

	callCtx, cancel := context.WithTimeout(ctx, r.taskTimeout)
	defer cancel()

	start := time.Now()
	points, err := e.collector.Collect(callCtx)
	metrics.CollectorDuration.WithLabelValues(id).Observe(time.Since(start).Seconds())

	if err != nil {
		kind := "unknown"
		if callCtx.Err() == context.DeadlineExceeded {
			kind = string(aisegerrors.KindTimeout)
		} else if k, ok := aisegerrors.Classify(err); ok {
			kind = string(k)
		}
		metrics.CollectorFailuresTotal.WithLabelValues(id, kind).Inc()
		log.Warn().Err(err).Str("collector", id).Str("kind", kind).Msg("collect failed")
		e.breaker.RecordFailure()
		metrics.BreakerState.WithLabelValues(id).Set(stateGauge(e.breaker.CurrentState()))
		return
	}

	e.breaker.RecordSuccess()
	metrics.BreakerState.WithLabelValues(id).Set(stateGauge(e.breaker.CurrentState()))

	if writeErr := r.writer.Write(ctx, r.cadence, points); writeErr != nil {
		// Writer failures are never reported to the collector breaker
		// (spec §7): the breaker protects against device failure, not
		// store failure.
		log.Warn().Err(writeErr).Str("collector", id).Msg("write failed, batch dropped")
	}
}

func stateGauge(s breaker.State) float64 {
	switch s {
	case breaker.Closed:
		return 0
	case breaker.HalfOpen:
		return 1
	case breaker.Open:
		return 2
	default:
		return -1
	}
}

type panicError struct {
	recovered interface{}
}

func (p *panicError) Error() string {
	return "panic in cadence loop"
}

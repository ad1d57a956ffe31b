package supervisor

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/sawadashota/aiseg2-influxdb2-forwarder/internal/aiseg/collectors"
	"github.com/sawadashota/aiseg2-influxdb2-forwarder/internal/aiseg/htmlutil"
	"github.com/sawadashota/aiseg2-influxdb2-forwarder/internal/model"
)

// RunBackfill fetches days of history (excluding today, oldest first) from
// every given collector and writes each day's combined points in one
// batch, grounded on original_source's collect_past_total: a detached task
// run once at startup, independent of the recurring cadence loop, that
// continues past a failed collector/day rather than aborting the whole
// backfill. Callers run this in its own goroutine; it is not subject to
// CadenceRunner's per-collect deadline, so a slow device does not truncate
// history the way a bounded first tick would.
func RunBackfill(
	ctx context.Context,
	days int,
	clock collectors.Clock,
	w Writer,
	cadence model.Cadence,
	dateCollectors ...collectors.DateCollector,
) {
	if days <= 0 || len(dateCollectors) == 0 {
		return
	}
	if clock == nil {
		clock = collectors.SystemClock{}
	}

	log.Info().Int("days", days).Msg("backfill starting")
	today := htmlutil.DayOfBeginning(clock.Now())

	for i := days; i >= 1; i-- {
		if ctx.Err() != nil {
			log.Info().Msg("backfill cancelled")
			return
		}
		date := today.AddDate(0, 0, -i)

		var points []model.Point
		for _, c := range dateCollectors {
			datePoints, err := c.CollectDate(ctx, date)
			if err != nil {
				log.Warn().Err(err).
					Str("collector", string(c.ID())).
					Str("date", date.Format("2006-01-02")).
					Msg("backfill day failed, continuing")
				continue
			}
			points = append(points, datePoints...)
		}
		if len(points) == 0 {
			continue
		}

		if err := w.Write(ctx, cadence, points); err != nil {
			log.Warn().Err(err).Str("date", date.Format("2006-01-02")).Msg("backfill write failed")
			continue
		}
		log.Info().Str("date", date.Format("2006-01-02")).Msg("backfill day written")
	}

	log.Info().Int("days", days).Msg("backfill finished")
}

package collectors

import (
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/sawadashota/aiseg2-influxdb2-forwarder/internal/aiseg/htmlutil"
	aisegerrors "github.com/sawadashota/aiseg2-influxdb2-forwarder/internal/errors"
	"github.com/sawadashota/aiseg2-influxdb2-forwarder/internal/model"
)

// circuitDailyPageFmt lists every circuit's daily energy total for one
// date, mirroring the per-circuit breakdown page used by PowerCollector
// but on the daily-summary graph rather than the instantaneous flow page.
const circuitDailyPageFmt = "/page/electricflow/day?date=%s"

// CircuitDailyTotalCollector reports per-circuit daily energy totals for a
// single date. Stateless across calls like DailyTotalCollector (spec
// §4.4): Collect always requests today; historical days are fetched only
// through the exported CollectDate, driven by the startup backfill task.
type CircuitDailyTotalCollector struct {
	fetcher Fetcher
	clock   Clock
}

// NewCircuitDailyTotalCollector builds a CircuitDailyTotalCollector.
func NewCircuitDailyTotalCollector(fetcher Fetcher, clock Clock) *CircuitDailyTotalCollector {
	if clock == nil {
		clock = SystemClock{}
	}
	return &CircuitDailyTotalCollector{fetcher: fetcher, clock: clock}
}

// ID implements Collector.
func (c *CircuitDailyTotalCollector) ID() model.CollectorID {
	return model.CollectorCircuitDailyTotal
}

// Collect implements Collector, reporting today's per-circuit totals.
func (c *CircuitDailyTotalCollector) Collect(ctx context.Context) ([]model.Point, error) {
	return c.CollectDate(ctx, htmlutil.DayOfBeginning(c.clock.Now()))
}

// CollectDate implements DateCollector, reporting per-circuit totals for
// an arbitrary date. date need not be normalized to midnight; it is
// normalized here.
func (c *CircuitDailyTotalCollector) CollectDate(ctx context.Context, date time.Time) ([]model.Point, error) {
	date = htmlutil.DayOfBeginning(date)
	dateParam := date.Format("20060102")
	path := fmt.Sprintf(circuitDailyPageFmt, dateParam)

	body, err := c.fetcher.Fetch(ctx, string(c.ID()), "circuit_daily_page", path)
	if err != nil {
		return nil, err
	}
	doc, err := htmlutil.ParseDocument(body)
	if err != nil {
		return nil, aisegerrors.NewParseError(string(c.ID()), "circuit_daily_page", err)
	}

	var points []model.Point
	doc.Find("table.circuit_table tr.circuit_row").Each(func(_ int, row *goquery.Selection) {
		name, ok := htmlutil.SelectText(row, "td.name")
		if !ok || name == "" {
			return
		}
		text, ok := htmlutil.SelectText(row, "td.value")
		if !ok {
			return
		}
		kwh, ok := htmlutil.ParseNumeric(text)
		if !ok {
			log.Warn().Str("collector", string(c.ID())).Str("circuit", name).Str("date", dateParam).Str("raw", text).Msg("skipping unparseable circuit daily total")
			return
		}
		points = append(points, model.NewPoint(
			"circuit_daily_total",
			map[string]string{"circuit": name, "date": dateParam},
			map[string]model.FieldValue{"energy_kwh": model.Float(kwh)},
			date,
		))
	})

	if len(points) == 0 {
		return nil, aisegerrors.NewParseError(string(c.ID()), "collect", fmt.Errorf("no parseable circuit daily totals"))
	}
	return points, nil
}

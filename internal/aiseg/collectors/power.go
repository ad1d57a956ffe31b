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

const (
	powerMainPagePath       = "/page/electricflow/111"
	powerConsumptionPageFmt = "/page/electricflow/1113?id=%d"
	powerMaxPages           = 20
)

// powerSourceSelectors maps a tag value to the CSS selector holding that
// source's instantaneous wattage on the main flow page, grounded on
// original_source's collect_from_main_page.
var powerSourceSelectors = map[string]string{
	"grid_import": "#g_buy .num",
	"grid_export": "#g_sell .num",
	"solar":       "#g_generate .num",
	"battery":     "#g_battery .num",
	"consumption": "#g_total .num",
}

// PowerCollector reports instantaneous power flow: the whole-house
// summary from the main flow page plus a per-circuit breakdown paginated
// across the consumption detail pages.
type PowerCollector struct {
	fetcher Fetcher
	clock   Clock
}

// NewPowerCollector builds a PowerCollector. clock is used only to assign
// the single timestamp shared by every point from one Collect call.
func NewPowerCollector(fetcher Fetcher, clock Clock) *PowerCollector {
	if clock == nil {
		clock = SystemClock{}
	}
	return &PowerCollector{fetcher: fetcher, clock: clock}
}

// ID implements Collector.
func (c *PowerCollector) ID() model.CollectorID { return model.CollectorPower }

// Collect implements Collector.
func (c *PowerCollector) Collect(ctx context.Context) ([]model.Point, error) {
	ts := c.clock.Now()

	body, err := c.fetcher.Fetch(ctx, string(c.ID()), "main_page", powerMainPagePath)
	if err != nil {
		return nil, err
	}
	doc, err := htmlutil.ParseDocument(body)
	if err != nil {
		return nil, aisegerrors.NewParseError(string(c.ID()), "main_page", err)
	}

	var points []model.Point
	for source, selector := range powerSourceSelectors {
		text, ok := htmlutil.SelectText(doc, selector)
		if !ok {
			continue
		}
		watts, ok := htmlutil.ParseNumeric(text)
		if !ok {
			log.Warn().Str("collector", string(c.ID())).Str("source", source).Str("raw", text).Msg("skipping unparseable power reading")
			continue
		}
		points = append(points, model.NewPoint(
			"power",
			map[string]string{"source": source},
			map[string]model.FieldValue{"watts": model.Float(watts)},
			ts,
		))
	}

	circuitPoints, err := c.collectCircuits(ctx, ts)
	if err != nil {
		return nil, err
	}
	points = append(points, circuitPoints...)

	if len(points) == 0 {
		return nil, aisegerrors.NewParseError(string(c.ID()), "collect", fmt.Errorf("no parseable power readings"))
	}
	return points, nil
}

// collectCircuits paginates the per-circuit consumption breakdown,
// deduplicating by device name across pages, grounded on
// original_source's collect_consumption_metrics/paginate_collection.
func (c *PowerCollector) collectCircuits(ctx context.Context, ts time.Time) ([]model.Point, error) {
	seen := make(map[string]bool)
	var points []model.Point

	for page := 1; page <= powerMaxPages; page++ {
		path := fmt.Sprintf(powerConsumptionPageFmt, page)
		body, err := c.fetcher.Fetch(ctx, string(c.ID()), "consumption_page", path)
		if err != nil {
			return nil, err
		}
		doc, err := htmlutil.ParseDocument(body)
		if err != nil {
			return nil, aisegerrors.NewParseError(string(c.ID()), "consumption_page", err)
		}

		rows := doc.Find("table.circuit_table tr.circuit_row")
		if rows.Length() == 0 {
			break
		}

		newOnPage := 0
		rows.Each(func(_ int, row *goquery.Selection) {
			name, ok := htmlutil.SelectText(row, "td.name")
			if !ok || name == "" {
				return
			}
			if seen[name] {
				return
			}
			text, ok := htmlutil.SelectText(row, "td.value")
			if !ok {
				return
			}
			watts, ok := htmlutil.ParseNumeric(text)
			if !ok {
				log.Warn().Str("collector", string(c.ID())).Str("circuit", name).Str("raw", text).Msg("skipping unparseable circuit reading")
				return
			}
			seen[name] = true
			newOnPage++
			points = append(points, model.NewPoint(
				"power",
				map[string]string{"source": name},
				map[string]model.FieldValue{"watts": model.Float(watts)},
				ts,
			))
		})

		if newOnPage == 0 {
			break
		}
	}

	return points, nil
}

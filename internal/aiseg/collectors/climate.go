package collectors

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/sawadashota/aiseg2-influxdb2-forwarder/internal/aiseg/htmlutil"
	aisegerrors "github.com/sawadashota/aiseg2-influxdb2-forwarder/internal/errors"
	"github.com/sawadashota/aiseg2-influxdb2-forwarder/internal/model"
)

const climatePagePath = "/page/airenvironment/41"

// temperature and humidity are rendered as per-digit widgets rather than
// a plain text node (original_source's extract_numeric_from_digit_elements),
// so each is read via three digit selectors: tens, ones, tenths.
var (
	temperatureDigitSelectors = []string{".temp_d1", ".temp_d2", ".temp_d3"}
	humidityDigitSelectors    = []string{".humid_d1", ".humid_d2", ".humid_d3"}
)

// ClimateCollector reports per-room temperature and humidity.
type ClimateCollector struct {
	fetcher Fetcher
	clock   Clock
}

// NewClimateCollector builds a ClimateCollector.
func NewClimateCollector(fetcher Fetcher, clock Clock) *ClimateCollector {
	if clock == nil {
		clock = SystemClock{}
	}
	return &ClimateCollector{fetcher: fetcher, clock: clock}
}

// ID implements Collector.
func (c *ClimateCollector) ID() model.CollectorID { return model.CollectorClimate }

// Collect implements Collector.
func (c *ClimateCollector) Collect(ctx context.Context) ([]model.Point, error) {
	ts := c.clock.Now()

	body, err := c.fetcher.Fetch(ctx, string(c.ID()), "climate_page", climatePagePath)
	if err != nil {
		return nil, err
	}
	doc, err := htmlutil.ParseDocument(body)
	if err != nil {
		return nil, aisegerrors.NewParseError(string(c.ID()), "climate_page", err)
	}

	var points []model.Point
	doc.Find(".climate_room").Each(func(_ int, room *goquery.Selection) {
		name, ok := htmlutil.SelectText(room, ".room_name")
		if !ok || name == "" {
			log.Warn().Str("collector", string(c.ID())).Msg("skipping room with no name")
			return
		}

		fields := map[string]model.FieldValue{}

		if temp, ok := htmlutil.ExtractDigits(room, temperatureDigitSelectors...); ok {
			fields["temperature_c"] = model.Float(temp)
		} else {
			log.Warn().Str("collector", string(c.ID())).Str("room", name).Msg("skipping unparseable temperature")
		}

		if humidity, ok := htmlutil.ExtractDigits(room, humidityDigitSelectors...); ok {
			fields["humidity_pct"] = model.Float(humidity)
		} else {
			log.Warn().Str("collector", string(c.ID())).Str("room", name).Msg("skipping unparseable humidity")
		}

		if len(fields) == 0 {
			return
		}
		points = append(points, model.NewPoint("climate", map[string]string{"room": name}, fields, ts))
	})

	if len(points) == 0 {
		return nil, aisegerrors.NewParseError(string(c.ID()), "collect", fmt.Errorf("no parseable climate readings"))
	}
	return points, nil
}

// Package writer implements the InfluxDB write path (C6): one blocking
// batch write per supervisor tick, using the official InfluxDB v2 Go
// client rather than hand-rolled line protocol encoding.
package writer

import (
	"context"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	http2 "github.com/influxdata/influxdb-client-go/v2/api/http"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	aisegerrors "github.com/sawadashota/aiseg2-influxdb2-forwarder/internal/errors"
	"github.com/sawadashota/aiseg2-influxdb2-forwarder/internal/metrics"
	"github.com/sawadashota/aiseg2-influxdb2-forwarder/internal/model"
)

// Writer batches Points into InfluxDB line protocol and writes them to a
// single configured bucket. It never retries; a failed batch is dropped
// and counted, per spec §4.5.
type Writer struct {
	client   influxdb2.Client
	writeAPI api
}

// api is the subset of influxdb2's blocking write API this package uses,
// narrowed for testability.
type api interface {
	WritePoint(ctx context.Context, points ...*write.Point) error
}

// New builds a Writer against the given InfluxDB v2 server, org, and
// bucket. The returned Writer owns the underlying client and should be
// closed with Close when the process shuts down.
func New(url, token, org, bucket string) *Writer {
	client := influxdb2.NewClient(url, token)
	return &Writer{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
	}
}

// Write serializes points into InfluxDB's line protocol and performs one
// blocking batch write. Failures are classified into a WriteError and
// counted by kind; they are never reported to any collector's breaker
// (spec §7 keeps writer failures out of collector breaker state).
func (w *Writer) Write(ctx context.Context, cadence model.Cadence, points []model.Point) error {
	if len(points) == 0 {
		return nil
	}

	wps := make([]*write.Point, 0, len(points))
	for _, p := range points {
		fields := make(map[string]interface{}, len(p.Fields()))
		for k, v := range p.Fields() {
			fields[k] = v.Any()
		}
		wps = append(wps, write.NewPoint(p.Measurement(), p.Tags(), fields, p.Timestamp()))
	}

	if err := w.writeAPI.WritePoint(ctx, wps...); err != nil {
		writeErr := classify(err)
		metrics.WriteFailuresTotal.WithLabelValues(string(writeErr.Kind)).Inc()
		return writeErr
	}

	metrics.PointsWrittenTotal.WithLabelValues(cadence.String()).Add(float64(len(points)))
	return nil
}

// Close releases the underlying HTTP client's resources.
func (w *Writer) Close() {
	w.client.Close()
}

func classify(err error) *aisegerrors.WriteError {
	if apiErr, ok := err.(*http2.Error); ok {
		return &aisegerrors.WriteError{
			Kind:       aisegerrors.ClassifyWriteStatus(apiErr.StatusCode),
			StatusCode: apiErr.StatusCode,
			Err:        err,
		}
	}
	return &aisegerrors.WriteError{Kind: aisegerrors.WriteErrorTransport, Err: err}
}

package writer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawadashota/aiseg2-influxdb2-forwarder/internal/model"
)

type fakeAPI struct {
	err        error
	lastPoints []*write.Point
}

func (f *fakeAPI) WritePoint(_ context.Context, points ...*write.Point) error {
	f.lastPoints = points
	return f.err
}

func newPoint() model.Point {
	return model.NewPoint(
		"power",
		map[string]string{"source": "solar"},
		map[string]model.FieldValue{"watts": model.Float(1234.5)},
		time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC),
	)
}

func TestWrite_Success(t *testing.T) {
	fa := &fakeAPI{}
	w := &Writer{writeAPI: fa}

	err := w.Write(context.Background(), model.StatusCadence, []model.Point{newPoint()})

	require.NoError(t, err)
	assert.Len(t, fa.lastPoints, 1)
}

func TestWrite_EmptyBatchNoOp(t *testing.T) {
	fa := &fakeAPI{err: errors.New("should not be called")}
	w := &Writer{writeAPI: fa}

	err := w.Write(context.Background(), model.StatusCadence, nil)

	require.NoError(t, err)
	assert.Nil(t, fa.lastPoints)
}

func TestWrite_TransportFailureClassified(t *testing.T) {
	fa := &fakeAPI{err: errors.New("connection refused")}
	w := &Writer{writeAPI: fa}

	err := w.Write(context.Background(), model.StatusCadence, []model.Point{newPoint()})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "(transport)")
	assert.Contains(t, err.Error(), "connection refused")
}

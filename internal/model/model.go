// Package model defines the data shapes shared by every collector and the
// InfluxDB writer: the immutable measurement Point, the field value sum
// type, and the two scheduling enums (CollectorID, Cadence).
package model

import "time"

// CollectorID is a short, stable identifier used as a breaker registry key
// and in log/metric context.
type CollectorID string

const (
	CollectorPower               CollectorID = "power"
	CollectorClimate             CollectorID = "climate"
	CollectorDailyTotal          CollectorID = "daily_total"
	CollectorCircuitDailyTotal   CollectorID = "circuit_daily_total"
)

// Cadence names one of the two independent tick loops the supervisor runs.
type Cadence int

const (
	StatusCadence Cadence = iota
	TotalCadence
)

// String implements fmt.Stringer for logging.
func (c Cadence) String() string {
	switch c {
	case StatusCadence:
		return "status"
	case TotalCadence:
		return "total"
	default:
		return "unknown"
	}
}

// FieldKind identifies which arm of FieldValue is populated.
type FieldKind int

const (
	FieldFloat FieldKind = iota
	FieldInt
	FieldBool
	FieldString
)

// FieldValue is a closed sum type over the field value kinds a Point may
// carry. It is a tagged struct rather than interface{} so callers can
// switch on Kind without a type assertion at every write-path call site.
type FieldValue struct {
	Kind FieldKind

	f float64
	i int64
	b bool
	s string
}

// Float builds a floating-point field value.
func Float(v float64) FieldValue { return FieldValue{Kind: FieldFloat, f: v} }

// Int builds an integer field value.
func Int(v int64) FieldValue { return FieldValue{Kind: FieldInt, i: v} }

// Bool builds a boolean field value.
func Bool(v bool) FieldValue { return FieldValue{Kind: FieldBool, b: v} }

// String builds a string field value.
func String(v string) FieldValue { return FieldValue{Kind: FieldString, s: v} }

// Float returns the wrapped float and whether Kind was FieldFloat.
func (v FieldValue) Float() (float64, bool) { return v.f, v.Kind == FieldFloat }

// Int returns the wrapped int and whether Kind was FieldInt.
func (v FieldValue) Int() (int64, bool) { return v.i, v.Kind == FieldInt }

// Bool returns the wrapped bool and whether Kind was FieldBool.
func (v FieldValue) Bool() (bool, bool) { return v.b, v.Kind == FieldBool }

// String returns the wrapped string and whether Kind was FieldString.
func (v FieldValue) String() (string, bool) { return v.s, v.Kind == FieldString }

// Any returns the wrapped value boxed as interface{}, for callers (such as
// the InfluxDB writer) that hand values to a client library expecting
// interface{}.
func (v FieldValue) Any() interface{} {
	switch v.Kind {
	case FieldFloat:
		return v.f
	case FieldInt:
		return v.i
	case FieldBool:
		return v.b
	case FieldString:
		return v.s
	default:
		return nil
	}
}

// Point is a single immutable time-series sample: a measurement name, a tag
// set, a field set, and a timestamp. Construct with NewPoint; there are no
// exported setters.
type Point struct {
	measurement string
	tags        map[string]string
	fields      map[string]FieldValue
	timestamp   time.Time
}

// NewPoint builds a Point. The tags and fields maps are copied so the
// caller's maps can be mutated or reused afterward without affecting the
// Point.
func NewPoint(measurement string, tags map[string]string, fields map[string]FieldValue, ts time.Time) Point {
	tagsCopy := make(map[string]string, len(tags))
	for k, v := range tags {
		tagsCopy[k] = v
	}
	fieldsCopy := make(map[string]FieldValue, len(fields))
	for k, v := range fields {
		fieldsCopy[k] = v
	}
	return Point{
		measurement: measurement,
		tags:        tagsCopy,
		fields:      fieldsCopy,
		timestamp:   ts,
	}
}

// Measurement returns the measurement name.
func (p Point) Measurement() string { return p.measurement }

// Tags returns a defensive copy of the tag set.
func (p Point) Tags() map[string]string {
	out := make(map[string]string, len(p.tags))
	for k, v := range p.tags {
		out[k] = v
	}
	return out
}

// Fields returns a defensive copy of the field set.
func (p Point) Fields() map[string]FieldValue {
	out := make(map[string]FieldValue, len(p.fields))
	for k, v := range p.fields {
		out[k] = v
	}
	return out
}

// Timestamp returns the point's assigned timestamp.
func (p Point) Timestamp() time.Time { return p.timestamp }

// Package sink forwards decoded readings to external storage.
package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"

	"gitlab.com/d21d3q/golpp/internal/lpp"
)

// Reading is one decoded payload together with where it came from.
type Reading struct {
	Device string
	FPort  int
	FCnt   uint32
	Time   time.Time
	Fields *lpp.Fields
}

// Writer stores readings.
type Writer interface {
	Write(ctx context.Context, r Reading) error
	Close() error
}

// Multi fans a reading out to several writers. Every writer is tried even
// when an earlier one fails.
type Multi []Writer

func (m Multi) Write(ctx context.Context, r Reading) error {
	var result *multierror.Error
	for _, w := range m {
		if err := w.Write(ctx, r); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func (m Multi) Close() error {
	var result *multierror.Error
	for _, w := range m {
		if err := w.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// Flatten turns nested values into dotted scalar keys, e.g.
// "Accelerometer_6.x" and "GPS_1.latitude". Raw bytes become hex strings.
func Flatten(fields *lpp.Fields) map[string]any {
	out := make(map[string]any, fields.Len())
	fields.Range(func(key string, v any) bool {
		switch val := v.(type) {
		case lpp.Vector:
			out[key+".x"] = val.X
			out[key+".y"] = val.Y
			out[key+".z"] = val.Z
		case lpp.Coordinate:
			out[key+".latitude"] = val.Latitude
			out[key+".longitude"] = val.Longitude
			out[key+".altitude"] = val.Altitude
		case lpp.Raw:
			out[key] = val.String()
		case int, float64:
			out[key] = val
		default:
			out[key] = fmt.Sprint(val)
		}
		return true
	})
	return out
}

package sink

import (
	"context"
	"fmt"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/sirupsen/logrus"

	"gitlab.com/d21d3q/golpp/internal/config"
)

type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// Influx writes one point per reading into an InfluxDB 2 bucket.
type Influx struct {
	client      influxdb2.Client
	api         pointWriter
	measurement string
	log         *logrus.Entry
}

// NewInflux opens a client for cfg and checks that the server answers.
func NewInflux(ctx context.Context, cfg config.Influxdb2Config) (*Influx, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	ok, err := client.Ping(ctx)
	if err != nil || !ok {
		client.Close()
		if err == nil {
			err = fmt.Errorf("ping returned false")
		}
		return nil, fmt.Errorf("influxdb %s not reachable: %w", cfg.URL, err)
	}
	return &Influx{
		client:      client,
		api:         client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		measurement: cfg.Measurement,
		log:         logrus.WithFields(logrus.Fields{"sink": "influxdb2", "bucket": cfg.Bucket}),
	}, nil
}

// Point converts a reading into an InfluxDB point.
func (s *Influx) Point(r Reading) *write.Point {
	tags := map[string]string{}
	if r.Device != "" {
		tags["device"] = r.Device
	}
	if r.FPort > 0 {
		tags["fport"] = strconv.Itoa(r.FPort)
	}
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return influxdb2.NewPoint(s.measurement, tags, Flatten(r.Fields), ts)
}

func (s *Influx) Write(ctx context.Context, r Reading) error {
	if r.Fields.Len() == 0 {
		return nil
	}
	if err := s.api.WritePoint(ctx, s.Point(r)); err != nil {
		return fmt.Errorf("write influxdb point: %w", err)
	}
	s.log.WithField("device", r.Device).Debugf("wrote %d fields", r.Fields.Len())
	return nil
}

func (s *Influx) Close() error {
	if s.client != nil {
		s.client.Close()
	}
	return nil
}

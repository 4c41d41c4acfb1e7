package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"gitlab.com/d21d3q/golpp/internal/config"
	"gitlab.com/d21d3q/golpp/internal/sink"
	"gitlab.com/d21d3q/golpp/internal/store"
	"gitlab.com/d21d3q/golpp/pkg/golpp"
)

// App ties the decoder to the configured sinks and output format.
type App struct {
	cfg     config.Config
	decoder *golpp.Decoder
	sinks   sink.Multi
	store   *store.Store
	out     io.Writer
	format  string
	device  string
	now     func() time.Time
}

// NewApp builds the decoder and opens every sink enabled in cfg.
func NewApp(ctx context.Context, cfg config.Config, out io.Writer) (*App, error) {
	dec, err := golpp.New(newOptions(cfg))
	if err != nil {
		return nil, err
	}
	a := &App{
		cfg:     cfg,
		decoder: dec,
		out:     out,
		format:  flags.output,
		device:  flags.device,
		now:     time.Now,
	}
	if cfg.Storage.Bolt.Path != "" {
		s, err := store.Open(cfg.Storage.Bolt.Path)
		if err != nil {
			return nil, err
		}
		a.store = s
		a.sinks = append(a.sinks, s)
	}
	if cfg.Storage.Influxdb2.Enabled() {
		influx, err := sink.NewInflux(ctx, cfg.Storage.Influxdb2)
		if err != nil {
			a.close()
			return nil, err
		}
		a.sinks = append(a.sinks, influx)
	}
	logrus.WithFields(logrus.Fields{
		"custom_types": len(cfg.Types),
		"sinks":        len(a.sinks),
	}).Debug("decoder ready")
	return a, nil
}

func (a *App) close() {
	if a == nil || len(a.sinks) == 0 {
		return
	}
	if err := a.sinks.Close(); err != nil {
		logrus.WithError(err).Warn("failed to close sinks")
	}
	a.sinks = nil
}

// decodeAndEmit decodes a raw LPP payload, prints it and stores it.
func (a *App) decodeAndEmit(ctx context.Context, hexPayload string) error {
	result, err := a.decoder.DecodeHex(ctx, hexPayload)
	if err != nil {
		return err
	}
	return a.emit(ctx, result)
}

// uplinkAndEmit is decodeAndEmit for complete LoRaWAN uplinks.
func (a *App) uplinkAndEmit(ctx context.Context, frame string) error {
	result, err := a.decoder.AnalyzeUplink(ctx, frame)
	if err != nil {
		return err
	}
	return a.emit(ctx, result)
}

func (a *App) emit(ctx context.Context, result golpp.Result) error {
	if err := render(a.out, a.format, result); err != nil {
		return err
	}
	if len(a.sinks) == 0 {
		return nil
	}
	if err := a.sinks.Write(ctx, a.reading(result)); err != nil {
		return fmt.Errorf("store reading: %w", err)
	}
	return nil
}

func (a *App) reading(result golpp.Result) sink.Reading {
	r := sink.Reading{
		Device: a.device,
		Time:   a.now().UTC(),
		Fields: result.Fields,
	}
	if u := result.Uplink; u != nil {
		r.Device = u.DevAddrString()
		r.FCnt = u.FCnt
		if u.HasFPort {
			r.FPort = int(u.FPort)
		}
	}
	return r
}

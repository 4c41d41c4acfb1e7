package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gitlab.com/d21d3q/golpp/internal/config"
	"gitlab.com/d21d3q/golpp/internal/sink"
	"gitlab.com/d21d3q/golpp/internal/store"
	"gitlab.com/d21d3q/golpp/pkg/golpp"
)

type recordingWriter struct {
	readings []sink.Reading
	err      error
}

func (w *recordingWriter) Write(_ context.Context, r sink.Reading) error {
	w.readings = append(w.readings, r)
	return w.err
}

func (w *recordingWriter) Close() error { return nil }

func testApp(t *testing.T, format string, w sink.Writer) (*App, *bytes.Buffer) {
	t.Helper()
	cfg := config.Config{Types: []config.DataType{{ID: 0xA0, Name: "Counter", Size: 2}}}
	dec, err := golpp.New(newOptions(cfg))
	require.NoError(t, err)
	out := &bytes.Buffer{}
	a := &App{
		cfg:     cfg,
		decoder: dec,
		out:     out,
		format:  format,
		device:  "bench",
		now:     func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) },
	}
	if w != nil {
		a.sinks = sink.Multi{w}
	}
	return a, out
}

func TestNewOptions(t *testing.T) {
	opts := newOptions(config.Config{
		Types:   []config.DataType{{ID: 0xA0, Name: "Counter", Size: 2}},
		LoRaWAN: config.LoRaWANConfig{AppSKey: "00", SkipMIC: true},
	})
	require.Equal(t, []golpp.CustomType{{ID: 0xA0, Name: "Counter", Size: 2}}, opts.CustomTypes)
	require.Equal(t, "00", opts.AppSKeyHex)
	require.True(t, opts.SkipMIC)
}

func TestDecodeAndEmitJSON(t *testing.T) {
	w := &recordingWriter{}
	a, out := testApp(t, outputJSON, w)
	require.NoError(t, a.decodeAndEmit(context.Background(), "03670110 01A00102"))
	require.Contains(t, out.String(), `"Temperature_3": 27.2`)
	require.Contains(t, out.String(), `"Counter_1": [`)

	require.Len(t, w.readings, 1)
	require.Equal(t, "bench", w.readings[0].Device)
	require.Equal(t, []string{"Temperature_3", "Counter_1"}, w.readings[0].Fields.Keys())
}

func TestDecodeAndEmitTable(t *testing.T) {
	a, out := testApp(t, outputTable, nil)
	require.NoError(t, a.decodeAndEmit(context.Background(), "067104D2FB2E0000 018806765FF2960A0003E8"))
	require.Contains(t, out.String(), "Accelerometer_6")
	require.Contains(t, out.String(), "x=1.234 y=-1.234 z=0")
	require.Contains(t, out.String(), "lat=42.3519 lon=-87.9094 alt=10")
}

func TestDecodeAndEmitErrors(t *testing.T) {
	w := &recordingWriter{}
	a, out := testApp(t, outputJSON, w)
	err := a.decodeAndEmit(context.Background(), "0142FF")
	require.True(t, errors.Is(err, golpp.ErrUnknownDataType))
	require.Empty(t, out.String())
	require.Empty(t, w.readings)

	w.err = errors.New("disk full")
	err = a.decodeAndEmit(context.Background(), "016601")
	require.ErrorContains(t, err, "disk full")
}

func TestReadingFromUplink(t *testing.T) {
	a, _ := testApp(t, outputJSON, nil)
	raw := []byte{
		0x40,                   // unconfirmed data up
		0xDA, 0x1B, 0x01, 0x26, // DevAddr, little endian
		0x00,       // FCtrl
		0x05, 0x00, // FCnt
		0x01,                   // FPort
		0x00, 0x00, 0x00, 0x00, // MIC
	}
	result, err := a.decoder.AnalyzeUplink(context.Background(), hex.EncodeToString(raw[:9]))
	require.Error(t, err)
	require.Zero(t, result.ByteCount)

	result, err = a.decoder.AnalyzeUplink(context.Background(), hex.EncodeToString(append(raw[:8:8], raw[9:]...)))
	require.NoError(t, err)
	r := a.reading(result)
	require.Equal(t, "26011BDA", r.Device)
	require.Equal(t, uint32(5), r.FCnt)
	require.Zero(t, r.FPort)
}

func TestFormatValue(t *testing.T) {
	require.Equal(t, "27.2", formatValue(27.2))
	require.Equal(t, "1", formatValue(1))
	require.Equal(t, "0102", formatValue(golpp.Raw{0x01, 0x02}))
}

func TestRenderRecords(t *testing.T) {
	a, _ := testApp(t, outputTable, nil)
	records, err := a.decoder.RecordsHex("03670110 01A0FFFF")
	require.NoError(t, err)
	var out bytes.Buffer
	renderRecords(&out, records)
	require.Contains(t, out.String(), "Temperature_3")
	require.Contains(t, out.String(), "Counter_1")
	require.Contains(t, out.String(), "FFFF")
}

func TestRenderTypes(t *testing.T) {
	a, _ := testApp(t, outputTable, nil)
	var out bytes.Buffer
	renderTypes(&out, a.decoder.Types())
	require.Contains(t, out.String(), "0x88")
	require.Contains(t, out.String(), "Counter")
	require.Contains(t, out.String(), "custom")
}

func TestRunInteractiveStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := runInteractive(ctx, strings.NewReader("016601\n016601\n016601\n"), func(context.Context, string) error {
		calls++
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, calls)
}

func TestRunInteractiveUnblocksOnCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	ctx, cancel := context.WithCancel(context.Background())

	var got []string
	done := make(chan error, 1)
	go func() {
		done <- runInteractive(ctx, pr, func(_ context.Context, line string) error {
			got = append(got, line)
			cancel()
			return nil
		})
	}()
	_, err := pw.Write([]byte("016601\n"))
	require.NoError(t, err)

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
		require.Equal(t, []string{"016601"}, got)
	case <-time.After(2 * time.Second):
		t.Fatal("interactive loop still running after cancel")
	}
}

func TestRunInteractiveEOF(t *testing.T) {
	var got []string
	err := runInteractive(context.Background(), strings.NewReader("016601\n\n 03670110 \n"), func(_ context.Context, line string) error {
		got = append(got, line)
		return errors.New("ignored")
	})
	require.NoError(t, err)
	require.Equal(t, []string{"016601", "03670110"}, got)
}

func TestExecuteClosesStoreOnFailure(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "golpp.db")
	cfgPath := filepath.Join(dir, "golpp.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("storage:\n  bolt:\n    path: "+dbPath+"\n"), 0o600))

	rootCmd.SetArgs([]string{"--config", cfgPath, "--env", "", "decode", "0142FF"})
	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
	err := execute(context.Background())
	require.True(t, errors.Is(err, golpp.ErrUnknownDataType))
	require.Nil(t, app)

	s, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

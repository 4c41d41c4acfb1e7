package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"gitlab.com/d21d3q/golpp/internal/serialport"
	"gitlab.com/d21d3q/golpp/internal/store"
)

var (
	decodeCmd = &cobra.Command{
		Use:   "decode [hex]",
		Short: "Decode a raw LPP payload (interactive without argument)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runDecode,
	}

	batchCmd = &cobra.Command{
		Use:   "batch <file|->",
		Short: "Decode one hex payload per line",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	uplinkCmd = &cobra.Command{
		Use:   "uplink [phypayload]",
		Short: "Decrypt and decode a LoRaWAN uplink given as hex or base64",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runInteractive(cmd.Context(), cmd.InOrStdin(), app.uplinkAndEmit)
			}
			return app.uplinkAndEmit(cmd.Context(), args[0])
		},
	}

	listenCmd = &cobra.Command{
		Use:   "listen",
		Short: "Decode payloads printed line by line by a serial LoRa module",
		Args:  cobra.NoArgs,
		RunE:  runListen,
	}

	framesCmd = &cobra.Command{
		Use:   "frames <hex>",
		Short: "Show how a payload splits into records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := app.decoder.RecordsHex(args[0])
			if err != nil {
				return err
			}
			renderRecords(cmd.OutOrStdout(), records)
			return nil
		},
	}

	typesCmd = &cobra.Command{
		Use:   "types",
		Short: "List the known data types",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			renderTypes(cmd.OutOrStdout(), app.decoder.Types())
		},
	}

	historyCmd = &cobra.Command{
		Use:   "history [device]",
		Short: "Show readings kept in the local store",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runHistory,
	}

	listenFlags struct {
		port   string
		baud   int
		uplink bool
	}
	historyLimit int
)

func init() {
	listenCmd.Flags().StringVar(&listenFlags.port, "port", "", "serial device (defaults to serial.device from config)")
	listenCmd.Flags().IntVar(&listenFlags.baud, "baud", 0, "baud rate (defaults to serial.baud from config)")
	listenCmd.Flags().BoolVar(&listenFlags.uplink, "uplink", false, "lines are LoRaWAN PHYPayloads instead of raw LPP")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of readings to show (0 for all)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	var in io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	var lines []string
	err := serialport.NewLineReader(in).Each(cmd.Context(), func(line string) error {
		lines = append(lines, line)
		return nil
	})
	if err != nil {
		return err
	}
	results, batchErr := app.decoder.DecodeBatch(cmd.Context(), lines)
	for _, res := range results {
		if err := app.emit(cmd.Context(), res); err != nil {
			return err
		}
	}
	logrus.WithFields(logrus.Fields{"total": len(lines), "decoded": len(results)}).Info("batch finished")
	return batchErr
}

func runListen(cmd *cobra.Command, _ []string) error {
	port := listenFlags.port
	if port == "" {
		port = app.cfg.Serial.Device
	}
	if port == "" {
		return errors.New("no serial device: use --port or serial.device")
	}
	baud := listenFlags.baud
	if baud == 0 {
		baud = app.cfg.Serial.Baud
	}
	conn, err := serialport.Open(port, baud)
	if err != nil {
		return fmt.Errorf("open %s: %w", port, err)
	}
	defer conn.Close()

	handle := app.decodeAndEmit
	if listenFlags.uplink {
		handle = app.uplinkAndEmit
	}
	log := logrus.WithFields(logrus.Fields{"port": port, "baud": baud})
	log.Info("listening")
	err = serialport.NewLineReader(conn).Each(cmd.Context(), func(line string) error {
		if err := handle(cmd.Context(), line); err != nil {
			log.WithError(err).WithField("line", line).Warn("failed to decode payload")
		}
		return nil
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runHistory(cmd *cobra.Command, args []string) error {
	if app.store == nil {
		return errors.New("no local store: set storage.bolt.path or GOLPP_BOLT_PATH")
	}
	if len(args) == 1 {
		entries, err := app.store.History(args[0], historyLimit)
		if err != nil {
			return err
		}
		renderHistory(cmd.OutOrStdout(), entries)
		return nil
	}
	devices, err := app.store.Devices()
	if err != nil {
		return err
	}
	latest := make([]store.Entry, 0, len(devices))
	for _, dev := range devices {
		e, err := app.store.Latest(dev)
		if err != nil {
			return err
		}
		latest = append(latest, e)
	}
	renderHistory(cmd.OutOrStdout(), latest)
	return nil
}

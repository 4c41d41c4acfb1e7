package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"gitlab.com/d21d3q/golpp/internal/config"
	"gitlab.com/d21d3q/golpp/pkg/golpp"
)

var (
	rootCmd = &cobra.Command{
		Use:   "golpp [hex]",
		Short: "Decode Cayenne LPP payloads",
		Long: "golpp decodes Cayenne Low Power Payload telemetry, either raw or wrapped in\n" +
			"LoRaWAN uplinks, and can forward the readings to InfluxDB or a local store.",
		Args:              cobra.MaximumNArgs(1),
		PersistentPreRunE: setup,
		RunE:              runDecode,
	}

	flags struct {
		configPath string
		envPath    string
		logLevel   string
		output     string
		device     string
		appSKey    string
		nwkSKey    string
		skipMIC    bool
	}

	app *App
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "YAML configuration file")
	pf.StringVar(&flags.envPath, "env", ".env", "dotenv file loaded before the configuration")
	pf.StringVar(&flags.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringVarP(&flags.output, "output", "o", outputJSON, "output format (json, table)")
	pf.StringVar(&flags.device, "device", "local", "device name recorded for raw payloads")
	pf.StringVar(&flags.appSKey, "appskey", "", "hex-encoded AppSKey (32 hex chars)")
	pf.StringVar(&flags.nwkSKey, "nwkskey", "", "hex-encoded NwkSKey (32 hex chars)")
	pf.BoolVar(&flags.skipMIC, "skip-mic", false, "do not verify the uplink MIC")

	rootCmd.AddCommand(decodeCmd, batchCmd, uplinkCmd, listenCmd, framesCmd, typesCmd, historyCmd)
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := execute(ctx)
	stop()
	if err != nil && !errors.Is(err, context.Canceled) {
		logrus.Fatal(err)
	}
}

// execute runs the selected command and closes the sinks whatever the
// outcome.
func execute(ctx context.Context) error {
	defer func() {
		app.close()
		app = nil
	}()
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	level, err := logrus.ParseLevel(flags.logLevel)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	if flags.output != outputJSON && flags.output != outputTable {
		return fmt.Errorf("unknown output format %q", flags.output)
	}

	cfg, err := config.Load(flags.configPath, flags.envPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if flags.appSKey != "" {
		cfg.LoRaWAN.AppSKey = flags.appSKey
	}
	if flags.nwkSKey != "" {
		cfg.LoRaWAN.NwkSKey = flags.nwkSKey
	}
	if flags.skipMIC {
		cfg.LoRaWAN.SkipMIC = true
	}
	app, err = NewApp(cmd.Context(), cfg, cmd.OutOrStdout())
	return err
}

func runDecode(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return runInteractive(cmd.Context(), cmd.InOrStdin(), app.decodeAndEmit)
	}
	return app.decodeAndEmit(cmd.Context(), args[0])
}

// runInteractive feeds stdin lines to handle until EOF or cancellation.
// Reading happens in its own goroutine so a pending read never delays exit.
func runInteractive(ctx context.Context, in io.Reader, handle func(context.Context, string) error) error {
	logrus.Info("golpp interactive mode. Paste a hex payload and press Enter (Ctrl+D to exit).")
	lines := make(chan string)
	done := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				done <- scanner.Err()
				return
			}
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-done:
			return err
		case line := <-lines:
			if err := ctx.Err(); err != nil {
				return err
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if err := handle(ctx, line); err != nil {
				logrus.WithError(err).Error("failed to decode payload")
			}
		}
	}
}

// newOptions maps the configuration onto decoder options.
func newOptions(cfg config.Config) golpp.Options {
	opts := golpp.Options{
		AppSKeyHex: cfg.LoRaWAN.AppSKey,
		NwkSKeyHex: cfg.LoRaWAN.NwkSKey,
		SkipMIC:    cfg.LoRaWAN.SkipMIC,
	}
	for _, t := range cfg.Types {
		opts.CustomTypes = append(opts.CustomTypes, golpp.CustomType{ID: uint8(t.ID), Name: t.Name, Size: t.Size})
	}
	return opts
}

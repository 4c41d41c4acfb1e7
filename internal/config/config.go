// Package config loads the golpp YAML configuration and its environment
// overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	dotenv "github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root of the configuration file.
type Config struct {
	Types   []DataType    `yaml:"types"`
	LoRaWAN LoRaWANConfig `yaml:"lorawan"`
	Storage StorageConfig `yaml:"storage"`
	Serial  SerialConfig  `yaml:"serial"`
}

// DataType declares a custom type decoded as raw bytes.
type DataType struct {
	ID   HexByte `yaml:"id"`
	Name string  `yaml:"name"`
	Size int     `yaml:"size"`
}

// LoRaWANConfig carries the session keys used by the uplink command.
type LoRaWANConfig struct {
	AppSKey string `yaml:"appskey"`
	NwkSKey string `yaml:"nwkskey"`
	SkipMIC bool   `yaml:"skip_mic"`
}

type StorageConfig struct {
	Influxdb2 Influxdb2Config `yaml:"influxdb2"`
	Bolt      BoltConfig      `yaml:"bolt"`
}

// Influxdb2Config describes the time-series sink. The token is only read
// from the environment.
type Influxdb2Config struct {
	URL         string `yaml:"url"`
	Org         string `yaml:"org"`
	Bucket      string `yaml:"bucket"`
	Measurement string `yaml:"measurement"`
	Token       string `yaml:"-"`
}

// Enabled reports whether enough is configured to open a client.
func (c Influxdb2Config) Enabled() bool {
	return c.URL != "" && c.Bucket != ""
}

type BoltConfig struct {
	Path string `yaml:"path"`
}

type SerialConfig struct {
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
}

// HexByte accepts decimal (160) or 0x-prefixed hex (0xA0) type ids.
type HexByte uint8

// UnmarshalYAML implements yaml.Unmarshaler.
func (h *HexByte) UnmarshalYAML(node *yaml.Node) error {
	v, err := strconv.ParseUint(strings.TrimSpace(node.Value), 0, 8)
	if err != nil {
		return fmt.Errorf("line %d: type id %q is not a byte: %w", node.Line, node.Value, err)
	}
	*h = HexByte(v)
	return nil
}

const (
	defaultMeasurement = "lpp"
	defaultBaud        = 9600
)

// Load reads the optional .env file, then the YAML file at path (which may
// be empty), then applies environment overrides and validates the result.
func Load(path, envPath string) (Config, error) {
	if envPath != "" {
		if err := dotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("load env file %s: %w", envPath, err)
		}
	}
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	override := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	override(&cfg.LoRaWAN.AppSKey, "GOLPP_APPSKEY")
	override(&cfg.LoRaWAN.NwkSKey, "GOLPP_NWKSKEY")
	override(&cfg.Storage.Influxdb2.URL, "INFLUX_HOST")
	override(&cfg.Storage.Influxdb2.Org, "INFLUX_ORG")
	override(&cfg.Storage.Influxdb2.Bucket, "INFLUX_BUCKET")
	override(&cfg.Storage.Influxdb2.Token, "INFLUX_TOKEN")
	override(&cfg.Storage.Bolt.Path, "GOLPP_BOLT_PATH")
	override(&cfg.Serial.Device, "GOLPP_SERIAL_DEVICE")
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.Influxdb2.Measurement == "" {
		cfg.Storage.Influxdb2.Measurement = defaultMeasurement
	}
	if cfg.Serial.Baud == 0 {
		cfg.Serial.Baud = defaultBaud
	}
}

// Validate checks the minimums the rest of the program relies on.
func (c Config) Validate() error {
	seen := make(map[HexByte]string, len(c.Types))
	for i, t := range c.Types {
		if t.Name == "" {
			return fmt.Errorf("types[%d].name is empty", i)
		}
		if t.Size < 1 {
			return fmt.Errorf("types[%d].size must be at least 1, got %d", i, t.Size)
		}
		if prev, ok := seen[t.ID]; ok {
			return fmt.Errorf("types[%d].id 0x%02X already declared as %q", i, uint8(t.ID), prev)
		}
		seen[t.ID] = t.Name
	}
	influx := c.Storage.Influxdb2
	if influx.URL != "" && influx.Bucket == "" {
		return fmt.Errorf("storage.influxdb2.bucket is empty")
	}
	if influx.URL != "" && influx.Org == "" {
		return fmt.Errorf("storage.influxdb2.org is empty")
	}
	if c.Serial.Baud < 0 {
		return fmt.Errorf("serial.baud must be positive, got %d", c.Serial.Baud)
	}
	return nil
}

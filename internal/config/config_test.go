package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sample = `
types:
  - id: 0xA0
    name: Counter
    size: 4
  - id: 200
    name: Status
    size: 1
lorawan:
  appskey: 2B7E151628AED2A6ABF7158809CF4F3C
storage:
  influxdb2:
    url: http://localhost:8086
    org: field
    bucket: sensors
  bolt:
    path: /tmp/golpp.db
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeFile(t, "golpp.yaml", sample), "")
	require.NoError(t, err)
	require.Len(t, cfg.Types, 2)
	require.Equal(t, HexByte(0xA0), cfg.Types[0].ID)
	require.Equal(t, "Counter", cfg.Types[0].Name)
	require.Equal(t, HexByte(200), cfg.Types[1].ID)
	require.Equal(t, "lpp", cfg.Storage.Influxdb2.Measurement)
	require.True(t, cfg.Storage.Influxdb2.Enabled())
	require.Equal(t, "/tmp/golpp.db", cfg.Storage.Bolt.Path)
	require.Equal(t, 9600, cfg.Serial.Baud)
}

func TestLoadEnvOverrides(t *testing.T) {
	for _, key := range []string{"INFLUX_TOKEN", "GOLPP_NWKSKEY"} {
		t.Setenv(key, "unset")
		os.Unsetenv(key)
	}
	env := writeFile(t, ".env", "INFLUX_TOKEN=secret\nGOLPP_NWKSKEY=000102030405060708090A0B0C0D0E0F\n")
	cfg, err := Load(writeFile(t, "golpp.yaml", sample), env)
	require.NoError(t, err)
	require.Equal(t, "secret", cfg.Storage.Influxdb2.Token)
	require.Equal(t, "000102030405060708090A0B0C0D0E0F", cfg.LoRaWAN.NwkSKey)
	require.Equal(t, "2B7E151628AED2A6ABF7158809CF4F3C", cfg.LoRaWAN.AppSKey)
}

func TestLoadWithoutFiles(t *testing.T) {
	cfg, err := Load("", filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Empty(t, cfg.Types)
	require.False(t, cfg.Storage.Influxdb2.Enabled())
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]string{
		"zero size":      "types:\n  - {id: 0xA0, name: X, size: 0}\n",
		"empty name":     "types:\n  - {id: 0xA0, size: 1}\n",
		"duplicate id":   "types:\n  - {id: 0xA0, name: X, size: 1}\n  - {id: 160, name: Y, size: 1}\n",
		"id too large":   "types:\n  - {id: 0x1A0, name: X, size: 1}\n",
		"missing org":    "storage:\n  influxdb2:\n    url: http://x\n    bucket: b\n",
		"missing bucket": "storage:\n  influxdb2:\n    url: http://x\n    org: o\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("INFLUX_ORG", "")
			t.Setenv("INFLUX_BUCKET", "")
			_, err := Load(writeFile(t, "golpp.yaml", content), "")
			require.Error(t, err)
		})
	}
}

func TestLoadShippedExample(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "golpp.yaml"), "")
	require.NoError(t, err)
	require.Len(t, cfg.Types, 1)
	require.Equal(t, HexByte(0xA0), cfg.Types[0].ID)
	require.Equal(t, 9600, cfg.Serial.Baud)
}

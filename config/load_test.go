package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

const sampleYAML = `
env: dev
symbols: ["2327", "2330"]
bar:
  periodSeconds: 60
broker:
  endpoint: "wss://quote.example.com/ws"
  username: "demo"
  password: "secret"
kafka:
  enabled: false
alert:
  enabled: false
metrics:
  enabled: true
  addr: ":9100"
`

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(cfg.Symbols, []string{"2327", "2330"}) {
		t.Errorf("symbols = %v", cfg.Symbols)
	}
	if cfg.Bar.Period() != time.Minute {
		t.Errorf("bar period = %v, want 1m", cfg.Bar.Period())
	}
	if cfg.Broker.Endpoint != "wss://quote.example.com/ws" {
		t.Errorf("broker endpoint = %q", cfg.Broker.Endpoint)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, "broker:\n  endpoint: \"wss://q\"\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(cfg.Symbols, DefaultSymbols) {
		t.Errorf("symbols = %v, want default %v", cfg.Symbols, DefaultSymbols)
	}
	if cfg.Bar.Period() != time.Minute {
		t.Errorf("default bar period = %v", cfg.Bar.Period())
	}
	if cfg.Metrics.Addr != ":9100" {
		t.Errorf("default metrics addr = %q", cfg.Metrics.Addr)
	}
	if cfg.Alert.Cooldown() != 5*time.Minute {
		t.Errorf("default cooldown = %v", cfg.Alert.Cooldown())
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{"valid", func(c *AppConfig) {}, false},
		{"no broker endpoint", func(c *AppConfig) { c.Broker.Endpoint = "" }, true},
		{"no symbols", func(c *AppConfig) { c.Symbols = nil }, true},
		{"negative period", func(c *AppConfig) { c.Bar.PeriodSeconds = -1 }, true},
		{"kafka enabled without brokers", func(c *AppConfig) { c.Kafka.Enabled = true }, true},
		{"alert enabled without token", func(c *AppConfig) { c.Alert.Enabled = true }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := AppConfig{
				Symbols: []string{"2327"},
				Broker:  BrokerConfig{Endpoint: "wss://q"},
			}
			tc.mutate(&cfg)
			err := Validate(cfg)
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("STOCK_SYMBOLS", "2327, 2454 ,2327,")
	t.Setenv("BROKER_PASSWORD", "from-env")
	t.Setenv("LINE_CHANNEL_ACCESS_TOKEN", "tok")

	cfg, err := LoadWithEnvOverrides(writeTempConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(cfg.Symbols, []string{"2327", "2454"}) {
		t.Errorf("symbols = %v, want [2327 2454]", cfg.Symbols)
	}
	if cfg.Broker.Password != "from-env" {
		t.Errorf("password = %q", cfg.Broker.Password)
	}
	if cfg.Alert.LineToken != "tok" {
		t.Errorf("line token = %q", cfg.Alert.LineToken)
	}
}

func TestParseSymbolList(t *testing.T) {
	cases := []struct {
		raw  string
		want []string
	}{
		{"2327", []string{"2327"}},
		{"2327,2330", []string{"2327", "2330"}},
		{" 2327 , 2330 ", []string{"2327", "2330"}},
		{"2327,2327,2330", []string{"2327", "2330"}},
		{"", DefaultSymbols},
		{" , , ", DefaultSymbols},
	}
	for _, tc := range cases {
		if got := ParseSymbolList(tc.raw); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ParseSymbolList(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

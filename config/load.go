package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"stock-advisor-go/infrastructure/logger"
	"stock-advisor-go/msg"
)

// DefaultSymbols 未配置任何股票时的兜底订阅清单。
var DefaultSymbols = []string{"2327"}

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env     string        `yaml:"env"`
	Symbols []string      `yaml:"symbols"`
	Bar     BarConfig     `yaml:"bar"`
	Broker  BrokerConfig  `yaml:"broker"`
	Kafka   msg.Config    `yaml:"kafka"`
	Alert   AlertConfig   `yaml:"alert"`
	Logger  logger.Config `yaml:"logger"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type BarConfig struct {
	PeriodSeconds int `yaml:"periodSeconds"` // K 线周期（秒），默认 60
}

// Period 返回 K 线周期。
func (b BarConfig) Period() time.Duration {
	if b.PeriodSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(b.PeriodSeconds) * time.Second
}

type BrokerConfig struct {
	Endpoint string `yaml:"endpoint"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Timezone string `yaml:"timezone"` // 行情时间戳所属时区，默认 Asia/Taipei
}

// Location 解析行情时区，解析失败时退回本地时区。
func (b BrokerConfig) Location() *time.Location {
	name := b.Timezone
	if name == "" {
		name = "Asia/Taipei"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}

type AlertConfig struct {
	Enabled         bool   `yaml:"enabled"`
	CooldownSeconds int    `yaml:"cooldownSeconds"` // 同一股票两次缺号告警的最小间隔，默认 300
	LineToken       string `yaml:"lineToken"`
	LineUserID      string `yaml:"lineUserID"`
}

// Cooldown 返回告警冷却间隔。
func (a AlertConfig) Cooldown() time.Duration {
	if a.CooldownSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(a.CooldownSeconds) * time.Second
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"` // 默认 :9100
}

// Load reads YAML config from path and applies basic validation.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	applyDefaults(&cfg)
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides sensitive fields from env vars if present.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	ApplyEnvOverrides(&cfg)
	return cfg, Validate(cfg)
}

// ApplyEnvOverrides 用环境变量覆盖配置文件中的敏感字段和订阅清单。
func ApplyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv("STOCK_SYMBOLS"); v != "" {
		cfg.Symbols = ParseSymbolList(v)
	}
	if v := os.Getenv("BROKER_ENDPOINT"); v != "" {
		cfg.Broker.Endpoint = v
	}
	if v := os.Getenv("BROKER_USERNAME"); v != "" {
		cfg.Broker.Username = v
	}
	if v := os.Getenv("BROKER_PASSWORD"); v != "" {
		cfg.Broker.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitAndTrim(v)
	}
	if v := os.Getenv("LINE_CHANNEL_ACCESS_TOKEN"); v != "" {
		cfg.Alert.LineToken = v
	}
	if v := os.Getenv("LINE_USER_ID"); v != "" {
		cfg.Alert.LineUserID = v
	}
}

// ParseSymbolList 解析逗号分隔的股票清单，去空白、去重、保持顺序；
// 结果为空时返回默认清单。
func ParseSymbolList(raw string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, part := range strings.Split(raw, ",") {
		sym := strings.TrimSpace(part)
		if sym == "" {
			continue
		}
		key := strings.ToUpper(sym)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, sym)
	}
	if len(out) == 0 {
		return append([]string(nil), DefaultSymbols...)
	}
	return out
}

func splitAndTrim(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = append([]string(nil), DefaultSymbols...)
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9100"
	}
}

// Validate ensures required fields are present.
func Validate(cfg AppConfig) error {
	if len(cfg.Symbols) == 0 {
		return errors.New("symbols config is required")
	}
	if cfg.Broker.Endpoint == "" {
		return errors.New("broker.endpoint is required")
	}
	if cfg.Bar.PeriodSeconds < 0 {
		return errors.New("bar.periodSeconds must be >= 0")
	}
	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers is required when kafka is enabled")
	}
	if cfg.Alert.Enabled && (cfg.Alert.LineToken == "" || cfg.Alert.LineUserID == "") {
		return errors.New("alert.lineToken/lineUserID is required when alerts are enabled (or env overrides)")
	}
	return nil
}

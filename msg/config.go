package msg

// Topic names
const (
	TopicTicks = "stock.ticks"
	TopicBars  = "stock.bars"
)

// Config Kafka 发布配置。Enabled=false 时整条出站链路关闭。
type Config struct {
	Enabled   bool     `yaml:"enabled"`
	Brokers   []string `yaml:"brokers"`
	ClientID  string   `yaml:"client_id"`
	TickTopic string   `yaml:"tick_topic"`
	BarTopic  string   `yaml:"bar_topic"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig() Config {
	return Config{
		Enabled:   false,
		Brokers:   []string{"127.0.0.1:9092"},
		ClientID:  "stock-advisor",
		TickTopic: TopicTicks,
		BarTopic:  TopicBars,
	}
}

// withDefaults 补齐缺省字段。
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if len(c.Brokers) == 0 {
		c.Brokers = def.Brokers
	}
	if c.ClientID == "" {
		c.ClientID = def.ClientID
	}
	if c.TickTopic == "" {
		c.TickTopic = def.TickTopic
	}
	if c.BarTopic == "" {
		c.BarTopic = def.BarTopic
	}
	return c
}

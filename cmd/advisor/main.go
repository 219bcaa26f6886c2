package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"stock-advisor-go/config"
	"stock-advisor-go/gateway"
	"stock-advisor-go/infrastructure/alert"
	"stock-advisor-go/infrastructure/logger"
	"stock-advisor-go/internal/engine"
	"stock-advisor-go/market"
	"stock-advisor-go/metrics"
	"stock-advisor-go/msg"
	"stock-advisor-go/strategy"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	maShort := flag.Int("maShort", 5, "均线交叉策略短周期")
	maLong := flag.Int("maLong", 20, "均线交叉策略长周期")
	flag.Parse()

	// .env 不存在时静默跳过，环境变量照常生效
	_ = godotenv.Load()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	appLog, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer appLog.Close()

	m := metrics.New(prometheus.DefaultRegisterer)
	if cfg.Metrics.Enabled {
		go metrics.StartMetricsServer(cfg.Metrics.Addr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pub := market.NewPublisher()

	// Kafka 投递：订阅内部总线，异步外发
	if cfg.Kafka.Enabled {
		kafkaPub, err := msg.NewPublisher(cfg.Kafka, appLog.Logger, m)
		if err != nil {
			log.Fatalf("初始化 Kafka 失败: %v", err)
		}
		defer kafkaPub.Close()
		go kafkaPub.Run(ctx, pub.SubscribeTicks(), pub.SubscribeBars())
	}

	alerts := buildAlertManager(cfg, appLog.Logger)

	feed := gateway.NewWSFeedClient(cfg.Broker.Endpoint, appLog.Logger)
	feed.Location = cfg.Broker.Location()
	defer feed.Close()

	orch, err := engine.New(engine.Config{BarPeriod: cfg.Bar.Period()}, engine.Components{
		Broker:    feed,
		Alerts:    alerts,
		Publisher: pub,
		Metrics:   m,
		Logger:    appLog,
	})
	if err != nil {
		log.Fatalf("初始化编排器失败: %v", err)
	}

	maCross, err := strategy.NewMaCross(appLog.Logger, *maShort, *maLong)
	if err != nil {
		log.Fatalf("初始化均线策略失败: %v", err)
	}
	orch.RegisterStrategy(maCross)

	// 配置热更新：运行中不替换订阅，只提示需要重启
	watcher, err := config.NewWatcher(*cfgPath, config.DefaultWatchOptions(), appLog.Logger, func(config.AppConfig) {
		appLog.Warn("配置文件已变更，重启后生效", zap.String("path", *cfgPath))
	})
	if err != nil {
		log.Fatalf("初始化配置监听失败: %v", err)
	}
	if err := watcher.Start(ctx); err != nil {
		log.Fatalf("启动配置监听失败: %v", err)
	}
	defer watcher.Stop()

	if err := orch.Start(ctx, cfg.Symbols, cfg.Broker.Username, cfg.Broker.Password); err != nil {
		log.Fatalf("启动失败: %v", err)
	}
	appLog.Info("行情订阅就绪",
		zap.Strings("symbols", cfg.Symbols),
		zap.Duration("bar_period", cfg.Bar.Period()))

	if err := feed.Run(ctx, &gateway.FeedHandler{Sink: orch}); err != nil && ctx.Err() == nil {
		appLog.Error("行情连接中断", zap.Error(err))
	}
	appLog.Info("退出")
}

// buildAlertManager 组装告警通道。日志通道始终有；LINE 通道按配置开启。
func buildAlertManager(cfg config.AppConfig, zlog *zap.Logger) *alert.Manager {
	channels := []alert.Channel{alert.NewLogChannel("log", zlog)}
	if cfg.Alert.Enabled {
		line, err := alert.NewLineChannel(cfg.Alert.LineToken, cfg.Alert.LineUserID, zlog)
		if err != nil {
			log.Fatalf("初始化 LINE 告警失败: %v", err)
		}
		channels = append(channels, line)
	}
	return alert.NewManager(channels, cfg.Alert.Cooldown())
}

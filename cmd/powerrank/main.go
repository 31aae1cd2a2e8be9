package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/renjie/prism-power/internal/conf"
	"github.com/renjie/prism-power/pkg/adapters/fake"
	"github.com/renjie/prism-power/pkg/adapters/handoff"
	"github.com/renjie/prism-power/pkg/adapters/ingest"
	"github.com/renjie/prism-power/pkg/core/domain"
	"github.com/renjie/prism-power/pkg/core/ports"
	"github.com/renjie/prism-power/pkg/core/services"
	"github.com/renjie/prism-power/pkg/monitoring"
)

var (
	configFile = flag.String("config", "", "配置文件路径")
	inputFile  = flag.String("input", "", "快照文件 (json / csv / yaml), 覆盖 input.path")
	outFormat  = flag.String("format", "table", "输出格式: table | json | yaml")
	demo       = flag.Bool("demo", false, "使用内置演示数据")
	limit      = flag.Int("limit", -1, "展示条数上限, 负数表示使用 ranking.limit")
	statsType  = flag.String("stats", "", "统计口径: since_charged | since_unplugged")
	watch      = flag.Duration("watch", 0, "大于 0 时按该间隔持续刷新")
)

func main() {
	flag.Parse()

	// 加载配置
	config, err := conf.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	logger, err := initLogger(config.Observability)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, config, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("powerrank failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, config *conf.Config, logger *zap.Logger) error {
	if *statsType != "" {
		config.Stats.Type = *statsType
	}
	if *limit >= 0 {
		config.Ranking.Limit = *limit
	}
	if err := config.Validate(); err != nil {
		return err
	}

	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)
	if addr := config.Observability.MetricsAddr; addr != "" {
		metricsSrv := &http.Server{Addr: addr, Handler: promhttp.Handler()}
		go func() {
			logger.Info("Metrics server starting", zap.String("addr", addr))
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Metrics server shutdown failed", zap.Error(err))
			}
		}()
	}

	ranker, err := services.NewRankerFromConfigs(nil, config.RuleConfigs())
	if err != nil {
		return fmt.Errorf("build rule chain: %w", err)
	}
	summarizer := services.NewUsageSummarizer(
		services.WithRanker(ranker),
		services.WithLogger(logger),
		services.WithMetrics(metrics),
		services.WithScreenPowerThreshold(config.Ranking.MinScreenMilliAmps),
	)

	source, err := newSource(config)
	if err != nil {
		return err
	}

	ctx = domain.NewContext(ctx, domain.RefreshContext{
		TraceID:   uuid.NewString(),
		StatsType: config.StatsType(),
		Operator:  "cli",
	})

	if *watch <= 0 {
		summary, err := services.NewRefresher(source, summarizer, nil, config.Ranking.Limit, logger).Refresh(ctx)
		if err != nil {
			return err
		}
		return render(os.Stdout, summary, *outFormat)
	}

	latest := handoff.NewLatest()
	refresher := services.NewRefresher(source, summarizer, latest, config.Ranking.Limit, logger)
	go func() {
		if err := refresher.Run(ctx, *watch); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("refresher stopped", zap.Error(err))
		}
	}()

	for {
		summary, err := latest.Next(ctx)
		if err != nil {
			return err
		}
		if err := render(os.Stdout, summary, *outFormat); err != nil {
			return err
		}
	}
}

func newSource(config *conf.Config) (ports.UsageSource, error) {
	if *demo {
		return fake.Source{Restricted: config.Restricted()}, nil
	}

	path := config.Input.Path
	if *inputFile != "" {
		path = *inputFile
	}
	if path == "" {
		return nil, errors.New("no input: pass -input, set input.path or use -demo")
	}
	return &ingest.FileSource{
		Path:             path,
		Format:           config.Input.Format,
		DischargeAmount:  config.Input.DischargeAmount,
		DischargeAmounts: config.DischargeAmounts(),
		Restricted:       config.Restricted(),
		AllowPartial:     config.Input.AllowPartial,
	}, nil
}

// initLogger 初始化日志
func initLogger(cfg conf.ObservabilityConfig) (*zap.Logger, error) {
	var zapConfig zap.Config

	if cfg.LogFormat == "json" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	// 排行结果写 stdout, 日志写 stderr
	zapConfig.OutputPaths = []string{"stderr"}

	// 设置日志级别
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zapConfig.Level = level

	zapConfig.InitialFields = map[string]interface{}{
		"service": cfg.ServiceName,
	}

	return zapConfig.Build()
}

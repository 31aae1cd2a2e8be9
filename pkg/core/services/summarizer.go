package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/renjie/prism-power/pkg/core/domain"
	"github.com/renjie/prism-power/pkg/core/ports"
	"github.com/renjie/prism-power/pkg/monitoring"
)

// UsageSummarizer 功耗排行服务
// 实现了 UsageSummaryService 接口
type UsageSummarizer struct {
	coalescer          ports.Coalescer
	ranker             ports.Ranker
	logger             *zap.Logger
	metrics            *monitoring.Metrics // 可选
	minScreenMilliAmps float64             // 屏幕满亮功耗低于此值时视为功耗模型不可用
	now                func() time.Time
}

// SummarizerOption 定义配置选项函数 (Functional Option Pattern)
type SummarizerOption func(*UsageSummarizer)

// WithCoalescer 替换默认的合并器
func WithCoalescer(c ports.Coalescer) SummarizerOption {
	return func(s *UsageSummarizer) {
		s.coalescer = c
	}
}

// WithRanker 替换默认的排行器 (例如由配置构建的规则链)
func WithRanker(r ports.Ranker) SummarizerOption {
	return func(s *UsageSummarizer) {
		s.ranker = r
	}
}

// WithLogger 设置日志
func WithLogger(logger *zap.Logger) SummarizerOption {
	return func(s *UsageSummarizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics 设置指标
func WithMetrics(m *monitoring.Metrics) SummarizerOption {
	return func(s *UsageSummarizer) {
		s.metrics = m
	}
}

// WithScreenPowerThreshold 设置功耗模型门限 (默认 10mA)
func WithScreenPowerThreshold(milliAmps float64) SummarizerOption {
	return func(s *UsageSummarizer) {
		s.minScreenMilliAmps = milliAmps
	}
}

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) SummarizerOption {
	return func(s *UsageSummarizer) {
		s.now = now
	}
}

// NewUsageSummarizer 初始化排行服务
// 使用 Functional Options 模式进行配置
func NewUsageSummarizer(opts ...SummarizerOption) *UsageSummarizer {
	s := &UsageSummarizer{
		coalescer:          NewCoalescer(nil),
		ranker:             NewDefaultRanker(),
		logger:             zap.NewNop(),
		minScreenMilliAmps: domain.DefaultMinScreenMilliAmps,
		now:                time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Summarize 实现 ports.UsageSummaryService 接口
func (s *UsageSummarizer) Summarize(ctx context.Context, snapshot domain.Snapshot, limit int) (*domain.UsageSummary, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidLimit, limit)
	}
	// Step 1: A. 边界校验, 引擎本身不再检查
	if err := domain.ValidateRecords(snapshot.Records); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	start := s.now()
	info, ok := domain.FromContext(ctx)
	if !ok || info.StatsType == "" {
		info.StatsType = domain.StatsSinceCharged
	}

	// 放电量随统计口径变化, 决定每条记录的占比
	stats := snapshot.Stats.ForStatsType(info.StatsType)

	summary := &domain.UsageSummary{
		RunID:       uuid.NewString(),
		StatsType:   info.StatsType,
		GeneratedAt: start,
		Stats:       stats,
	}
	logger := s.logger.With(
		zap.String("run_id", summary.RunID),
		zap.String("trace_id", info.TraceID),
		zap.String("stats_type", string(info.StatsType)),
	)

	// 功耗模型不可用时不生成列表 (设备未提供有效的屏幕功耗)
	if snapshot.Profile != nil && snapshot.Profile.ScreenFullMilliAmps < s.minScreenMilliAmps {
		summary.NotAvailable = true
		logger.Info("power profile below threshold, usage list not available",
			zap.Float64("screen_full_milliamps", snapshot.Profile.ScreenFullMilliAmps),
			zap.Float64("threshold_milliamps", s.minScreenMilliAmps))
		s.metrics.ObserveSummary(len(snapshot.Records), summary, s.now().Sub(start))
		return summary, nil
	}

	// Step 2: B. 按规范归属方合并
	summary.Coalesced = s.coalescer.Coalesce(snapshot.Records)

	// Step 3: C. 准入过滤 + 截断
	summary.Ranked, summary.Excluded = s.ranker.Rank(summary.Coalesced, stats, limit)
	summary.NotAvailable = len(summary.Ranked) == 0

	for _, ex := range summary.Excluded {
		logger.Debug("record excluded from ranking",
			zap.String("key", ex.Record.DisplayKey()),
			zap.Stringer("drain", ex.Record.Drain),
			zap.String("rule_id", ex.RuleID),
			zap.String("reason", ex.Reason))
	}

	elapsed := s.now().Sub(start)
	logger.Info("usage summary generated",
		zap.Int("records", len(snapshot.Records)),
		zap.Int("coalesced", len(summary.Coalesced)),
		zap.Int("ranked", len(summary.Ranked)),
		zap.Int("excluded", len(summary.Excluded)),
		zap.Bool("not_available", summary.NotAvailable),
		zap.Duration("elapsed", elapsed))
	s.metrics.ObserveSummary(len(snapshot.Records), summary, elapsed)

	return summary, nil
}

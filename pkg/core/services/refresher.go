package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/renjie/prism-power/pkg/core/domain"
	"github.com/renjie/prism-power/pkg/core/ports"
)

// Refresher 在后台线程上执行刷新, 结果通过 publisher 交给展示层
type Refresher struct {
	source     ports.UsageSource
	summarizer ports.UsageSummaryService
	publisher  ports.SummaryPublisher
	limit      int
	logger     *zap.Logger
}

func NewRefresher(source ports.UsageSource, summarizer ports.UsageSummaryService, publisher ports.SummaryPublisher, limit int, logger *zap.Logger) *Refresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{
		source:     source,
		summarizer: summarizer,
		publisher:  publisher,
		limit:      limit,
		logger:     logger,
	}
}

// Refresh 执行一次: 取快照 -> 排行 -> 发布
func (r *Refresher) Refresh(ctx context.Context) (*domain.UsageSummary, error) {
	snapshot, err := r.source.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot failed: %w", err)
	}

	summary, err := r.summarizer.Summarize(ctx, snapshot, r.limit)
	if err != nil {
		return nil, fmt.Errorf("summarize failed: %w", err)
	}

	if r.publisher != nil {
		r.publisher.Publish(summary)
	}
	return summary, nil
}

// Run 立即刷新一次, 之后每个 interval 刷新; 单次失败只记录日志
func (r *Refresher) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := r.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.logger.Warn("refresh failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

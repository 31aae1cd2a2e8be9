package ports

import (
	"context"
	"io"

	"github.com/renjie/prism-power/pkg/core/domain"
)

// UniversalIngestor 万能插头 (Ingestion Layer)
// 职责: 接收 JSON / CSV / YAML 等格式的原始功耗记录, 在边界完成校验后交给下游
type UniversalIngestor interface {
	// IngestStream 接入数据流
	IngestStream(ctx context.Context, stream io.Reader) (*domain.IngestionResult, error)

	// IngestBatch 接入批量文件, format 必须与实现匹配
	IngestBatch(ctx context.Context, file io.Reader, format string) (*domain.IngestionResult, error)
}

// UsageSummaryService 功耗排行服务 (Core Capability)
// 职责:
// A. 边界校验 (负值/NaN 拒绝)
// B. 按规范归属方合并
// C. 准入过滤 + 截断
type UsageSummaryService interface {
	// Summarize 处理一个刷新周期的快照并返回排行
	Summarize(ctx context.Context, snapshot domain.Snapshot, limit int) (*domain.UsageSummary, error)
}

// UsageSource 外部测量/统计方, 每次调用返回一个不可变快照
type UsageSource interface {
	Snapshot(ctx context.Context) (domain.Snapshot, error)
}

// SummaryPublisher 单生产者/单消费者的结果交接
type SummaryPublisher interface {
	Publish(summary *domain.UsageSummary)
}

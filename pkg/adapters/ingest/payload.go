package ingest

import (
	"context"
	"fmt"

	"github.com/renjie/prism-power/pkg/core/domain"
)

// Downstream 是数据流向的下一站
type Downstream func(context.Context, []domain.PowerRecord) error

// SnapshotMeta 快照文档中附带的聚合数据 (可能缺失)
type SnapshotMeta struct {
	Stats   *domain.AggregateStatistics
	Profile *domain.PowerProfile
}

// MetaHandler receives the metadata of a snapshot document.
type MetaHandler func(SnapshotMeta)

// Option configures an ingestor.
type Option func(*options)

type options struct {
	onMeta    MetaHandler
	batchSize int
}

// WithMetaHandler 接收快照文档中的 stats / profile
func WithMetaHandler(h MetaHandler) Option {
	return func(o *options) {
		o.onMeta = h
	}
}

// WithBatchSize 设置向下游推送的批大小 (默认 100)
func WithBatchSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

func newOptions(opts []Option) options {
	o := options{batchSize: 100}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) emitMeta(meta SnapshotMeta) {
	if o.onMeta != nil && (meta.Stats != nil || meta.Profile != nil) {
		o.onMeta(meta)
	}
}

// rawRecord 定义接收的扁平化记录结构
type rawRecord struct {
	Drain    string   `json:"drain" yaml:"drain"`
	UID      *int     `json:"uid,omitempty" yaml:"uid,omitempty"` // 缺省表示纯归类桶
	PowerMah float64  `json:"power_mah" yaml:"power_mah"`
	Package  string   `json:"package,omitempty" yaml:"package,omitempty"` // 消耗最大的包名
	Packages []string `json:"packages,omitempty" yaml:"packages,omitempty"`
}

// toDomain 将扁平记录转换为领域对象, 同时完成边界校验
func (p rawRecord) toDomain() (domain.PowerRecord, error) {
	drain, err := domain.ParseDrainType(p.Drain)
	if err != nil {
		return domain.PowerRecord{}, err
	}

	rec := domain.PowerRecord{
		Drain:           drain,
		PowerMah:        p.PowerMah,
		DominantPackage: p.Package,
		Packages:        p.Packages,
	}
	if p.UID != nil {
		rec.Owner = domain.NewOwner(*p.UID)
	}

	if err := domain.ValidateRecords([]domain.PowerRecord{rec}); err != nil {
		return domain.PowerRecord{}, err
	}
	return rec, nil
}

// batcher 缓冲记录, 满批后推送给下游
type batcher struct {
	downstream Downstream
	size       int
	buffer     []domain.PowerRecord
	result     *domain.IngestionResult
}

func newBatcher(downstream Downstream, size int) *batcher {
	return &batcher{downstream: downstream, size: size, result: &domain.IngestionResult{}}
}

// add 记录一条输入; 转换失败只计数, 不中断
func (b *batcher) add(ctx context.Context, p rawRecord) error {
	b.result.Total++
	rec, err := p.toDomain()
	if err != nil {
		b.result.Failed++
		b.result.Errors = append(b.result.Errors, fmt.Sprintf("item %d skipped: %v", b.result.Total, err))
		return nil
	}
	b.buffer = append(b.buffer, rec)
	b.result.Success++

	if len(b.buffer) >= b.size {
		return b.flush(ctx)
	}
	return nil
}

func (b *batcher) fail(msg string) {
	b.result.Total++
	b.result.Failed++
	b.result.Errors = append(b.result.Errors, msg)
}

func (b *batcher) flush(ctx context.Context) error {
	if len(b.buffer) == 0 {
		return nil
	}
	if err := b.downstream(ctx, b.buffer); err != nil {
		return err
	}
	b.buffer = nil
	return nil
}

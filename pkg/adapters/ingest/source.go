package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/renjie/prism-power/pkg/core/domain"
	"github.com/renjie/prism-power/pkg/core/ports"
)

// FileSource 从本地文件读取一个刷新周期的快照
// 实现了 ports.UsageSource 接口
type FileSource struct {
	Path string
	// Format 为空时按扩展名推断 (json / csv / yaml / yml)
	Format string
	// DischargeAmount 文件中没有 stats 时用于推算聚合数据
	DischargeAmount float64
	// DischargeAmounts 按口径区分的放电量, 文件中没有提供时补上
	DischargeAmounts map[domain.StatsType]float64
	// Restricted 与文件中的 restricted_build 取或
	Restricted bool
	// AllowPartial 为 false 时, 任意一条记录解析失败都视为整个快照失败
	AllowPartial bool
}

var _ ports.UsageSource = (*FileSource)(nil)

// DetectFormat 根据扩展名推断输入格式
func DetectFormat(path string) (string, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "json", "csv", "yaml":
		return ext, nil
	case "yml":
		return "yaml", nil
	default:
		return "", fmt.Errorf("%w: cannot infer format from %q", domain.ErrUnsupportedFormat, path)
	}
}

// NewIngestor 根据格式创建对应的 ingestor
func NewIngestor(format string, downstream Downstream, opts ...Option) (ports.UniversalIngestor, error) {
	switch strings.ToLower(format) {
	case "json":
		return NewJSONIngestor(downstream, opts...), nil
	case "csv":
		return NewCSVIngestor(downstream, opts...), nil
	case "yaml", "yml":
		return NewYAMLIngestor(downstream, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, format)
	}
}

// Snapshot 实现 ports.UsageSource
func (s *FileSource) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	format := s.Format
	if format == "" {
		detected, err := DetectFormat(s.Path)
		if err != nil {
			return domain.Snapshot{}, err
		}
		format = detected
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("open snapshot file: %w", err)
	}
	defer f.Close()

	var (
		records []domain.PowerRecord
		meta    SnapshotMeta
	)
	collect := func(_ context.Context, batch []domain.PowerRecord) error {
		records = append(records, batch...)
		return nil
	}
	ingestor, err := NewIngestor(format, collect, WithMetaHandler(func(m SnapshotMeta) { meta = m }))
	if err != nil {
		return domain.Snapshot{}, err
	}

	result, err := ingestor.IngestBatch(ctx, f, format)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("ingest %s: %w", s.Path, err)
	}
	if result.Failed > 0 && !s.AllowPartial {
		return domain.Snapshot{}, fmt.Errorf("ingest %s: %d of %d records rejected: %s",
			s.Path, result.Failed, result.Total, strings.Join(result.Errors, "; "))
	}

	snapshot := domain.Snapshot{Records: records, Profile: meta.Profile}
	if meta.Stats != nil {
		snapshot.Stats = *meta.Stats
	} else {
		snapshot.Stats = domain.DeriveStatistics(records, s.DischargeAmount, false)
	}
	if len(snapshot.Stats.DischargeAmounts) == 0 && len(s.DischargeAmounts) > 0 {
		snapshot.Stats.DischargeAmounts = make(map[domain.StatsType]float64, len(s.DischargeAmounts))
		for k, v := range s.DischargeAmounts {
			snapshot.Stats.DischargeAmounts[k] = v
		}
	}
	snapshot.Stats.RestrictedBuild = snapshot.Stats.RestrictedBuild || s.Restricted
	return snapshot, nil
}

package ingest

import (
	"context"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/renjie/prism-power/pkg/core/domain"
)

// YAMLIngestor 实现 UniversalIngestor 接口
// 与 JSONIngestor 接受相同的三种形态
type YAMLIngestor struct {
	downstream Downstream
	opts       options
}

func NewYAMLIngestor(downstream Downstream, opts ...Option) *YAMLIngestor {
	return &YAMLIngestor{
		downstream: downstream,
		opts:       newOptions(opts),
	}
}

type yamlDocument struct {
	Stats   *domain.AggregateStatistics `yaml:"stats"`
	Profile *domain.PowerProfile        `yaml:"profile"`
	Records []rawRecord                 `yaml:"records"`
}

// IngestStream 实现 UniversalIngestor.IngestStream
func (y *YAMLIngestor) IngestStream(ctx context.Context, stream io.Reader) (*domain.IngestionResult, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(stream).Decode(&root); err != nil {
		if err == io.EOF {
			return &domain.IngestionResult{}, nil
		}
		return nil, fmt.Errorf("failed to decode yaml: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return &domain.IngestionResult{}, nil
	}

	b := newBatcher(y.downstream, y.opts.batchSize)
	var items []rawRecord
	node := root.Content[0]

	switch node.Kind {
	case yaml.SequenceNode:
		if err := node.Decode(&items); err != nil {
			return nil, fmt.Errorf("decode record list: %w", err)
		}
	case yaml.MappingNode:
		if hasKey(node, "records") || hasKey(node, "stats") {
			var doc yamlDocument
			if err := node.Decode(&doc); err != nil {
				return nil, fmt.Errorf("decode snapshot document: %w", err)
			}
			y.opts.emitMeta(SnapshotMeta{Stats: doc.Stats, Profile: doc.Profile})
			items = doc.Records
		} else {
			var p rawRecord
			if err := node.Decode(&p); err != nil {
				return nil, fmt.Errorf("decode record: %w", err)
			}
			items = []rawRecord{p}
		}
	default:
		return nil, fmt.Errorf("unexpected YAML node kind %d (expected sequence or mapping)", node.Kind)
	}

	for _, p := range items {
		if err := b.add(ctx, p); err != nil {
			return b.result, err
		}
	}
	if err := b.flush(ctx); err != nil {
		return b.result, err
	}
	return b.result, nil
}

// IngestBatch 实现 UniversalIngestor.IngestBatch
func (y *YAMLIngestor) IngestBatch(ctx context.Context, file io.Reader, format string) (*domain.IngestionResult, error) {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		return y.IngestStream(ctx, file)
	default:
		return nil, fmt.Errorf("%w for YAMLIngestor: %s", domain.ErrUnsupportedFormat, format)
	}
}

func hasKey(mapping *yaml.Node, key string) bool {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return true
		}
	}
	return false
}

package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/renjie/prism-power/pkg/core/domain"
)

// JSONIngestor 实现 UniversalIngestor 接口
// 支持三种形态: 记录数组 [...], 单条记录 {...}, 快照文档 {"stats": ..., "records": [...]}
type JSONIngestor struct {
	downstream Downstream
	opts       options
}

func NewJSONIngestor(downstream Downstream, opts ...Option) *JSONIngestor {
	return &JSONIngestor{
		downstream: downstream,
		opts:       newOptions(opts),
	}
}

// jsonDocument 单个对象既可能是一条记录, 也可能是快照文档
type jsonDocument struct {
	rawRecord
	Stats   *domain.AggregateStatistics `json:"stats"`
	Profile *domain.PowerProfile        `json:"profile"`
	Records []rawRecord                 `json:"records"`
}

func (d jsonDocument) isSnapshot() bool {
	return d.Records != nil || d.Stats != nil
}

// IngestStream 实现 UniversalIngestor.IngestStream
func (j *JSONIngestor) IngestStream(ctx context.Context, stream io.Reader) (*domain.IngestionResult, error) {
	// 使用 bufio.Reader 预读首字节, 避免消耗 Token
	bufStream := bufio.NewReader(stream)
	head, err := peekNonSpace(bufStream)
	if err != nil {
		if err == io.EOF {
			return &domain.IngestionResult{}, nil
		}
		return nil, fmt.Errorf("failed to peek start token: %w", err)
	}

	decoder := json.NewDecoder(bufStream)
	b := newBatcher(j.downstream, j.opts.batchSize)

	switch head {
	case '[':
		if _, err := decoder.Token(); err != nil {
			return nil, err
		}
		if err := j.decodeArray(ctx, decoder, b); err != nil {
			return b.result, err
		}
		if _, err := decoder.Token(); err != nil {
			return b.result, err
		}
	case '{':
		var doc jsonDocument
		if err := decoder.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode object: %w", err)
		}
		if doc.isSnapshot() {
			j.opts.emitMeta(SnapshotMeta{Stats: doc.Stats, Profile: doc.Profile})
			for _, p := range doc.Records {
				if err := b.add(ctx, p); err != nil {
					return b.result, err
				}
			}
		} else if err := b.add(ctx, doc.rawRecord); err != nil {
			return b.result, err
		}
	default:
		return nil, fmt.Errorf("unexpected JSON format (expected '[' or '{', got '%c')", head)
	}

	if err := b.flush(ctx); err != nil {
		return b.result, err
	}
	return b.result, nil
}

// IngestBatch 实现 UniversalIngestor.IngestBatch
func (j *JSONIngestor) IngestBatch(ctx context.Context, file io.Reader, format string) (*domain.IngestionResult, error) {
	if strings.ToLower(format) != "json" {
		return nil, fmt.Errorf("%w for JSONIngestor: %s", domain.ErrUnsupportedFormat, format)
	}
	return j.IngestStream(ctx, file)
}

func (j *JSONIngestor) decodeArray(ctx context.Context, decoder *json.Decoder, b *batcher) error {
	for decoder.More() {
		var p rawRecord
		if err := decoder.Decode(&p); err != nil {
			return fmt.Errorf("decode error inside array: %w", err)
		}
		if err := b.add(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// peekNonSpace skips leading whitespace and returns the first significant byte without consuming it.
func peekNonSpace(r *bufio.Reader) (byte, error) {
	for {
		head, err := r.Peek(1)
		if err != nil {
			return 0, err
		}
		switch head[0] {
		case ' ', '\t', '\r', '\n':
			if _, err := r.ReadByte(); err != nil {
				return 0, err
			}
		default:
			return head[0], nil
		}
	}
}

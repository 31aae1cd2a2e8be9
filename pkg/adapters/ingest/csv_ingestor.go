package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/renjie/prism-power/pkg/core/domain"
)

// PackageSeparator 分隔 packages 列中的多个包名
const PackageSeparator = "|"

// CSVIngestor 实现 UniversalIngestor 接口
// 列: drain, uid, power_mah, package, packages (顺序不限, 以表头为准)
type CSVIngestor struct {
	downstream Downstream
	opts       options
}

func NewCSVIngestor(downstream Downstream, opts ...Option) *CSVIngestor {
	return &CSVIngestor{
		downstream: downstream,
		opts:       newOptions(opts),
	}
}

// IngestStream 逐行读取 CSV 流
func (c *CSVIngestor) IngestStream(ctx context.Context, stream io.Reader) (*domain.IngestionResult, error) {
	reader := csv.NewReader(stream)
	// 允许变长字段, 避免因缺少非必填列报错
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return &domain.IngestionResult{}, nil
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	headerMap := make(map[string]int)
	for i, h := range headers {
		headerMap[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if err := validateCSVHeaders(headerMap); err != nil {
		return nil, err
	}

	b := newBatcher(c.downstream, c.opts.batchSize)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			b.fail(fmt.Sprintf("csv read error at line %d: %v", b.result.Total+2, err)) // +1 header, +1 1-based
			continue
		}

		p, err := parseCSVRow(row, headerMap)
		if err != nil {
			b.fail(fmt.Sprintf("line %d: %v", b.result.Total+2, err))
			continue
		}
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
func (c *CSVIngestor) IngestBatch(ctx context.Context, file io.Reader, format string) (*domain.IngestionResult, error) {
	if strings.ToLower(format) != "csv" {
		return nil, fmt.Errorf("%w for CSVIngestor: %s", domain.ErrUnsupportedFormat, format)
	}
	return c.IngestStream(ctx, file)
}

func validateCSVHeaders(headerMap map[string]int) error {
	required := []string{"drain", "power_mah"}
	for _, req := range required {
		if _, ok := headerMap[req]; !ok {
			return fmt.Errorf("missing required csv header: %s", req)
		}
	}
	return nil
}

func parseCSVRow(row []string, headerMap map[string]int) (rawRecord, error) {
	get := func(col string) string {
		if idx, ok := headerMap[col]; ok && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	p := rawRecord{
		Drain:   get("drain"),
		Package: get("package"),
	}

	if uidStr := get("uid"); uidStr != "" {
		uid, err := strconv.Atoi(uidStr)
		if err != nil {
			return rawRecord{}, fmt.Errorf("invalid uid: %s", uidStr)
		}
		p.UID = &uid
	}

	powerStr := get("power_mah")
	power, err := strconv.ParseFloat(powerStr, 64)
	if err != nil {
		return rawRecord{}, fmt.Errorf("invalid power_mah: %s", powerStr)
	}
	p.PowerMah = power

	if pkgs := get("packages"); pkgs != "" {
		for _, name := range strings.Split(pkgs, PackageSeparator) {
			if name = strings.TrimSpace(name); name != "" {
				p.Packages = append(p.Packages, name)
			}
		}
	}
	return p, nil
}

package ingest_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renjie/prism-power/pkg/adapters/ingest"
	"github.com/renjie/prism-power/pkg/core/domain"
)

type sink struct {
	batches int
	records []domain.PowerRecord
}

func (s *sink) downstream(_ context.Context, batch []domain.PowerRecord) error {
	s.batches++
	s.records = append(s.records, batch...)
	return nil
}

func TestJSONIngestorArray(t *testing.T) {
	var out sink
	ing := ingest.NewJSONIngestor(out.downstream, ingest.WithBatchSize(2))

	input := `
	[
		{"drain": "screen", "power_mah": 12.5},
		{"drain": "APP", "uid": 10001, "power_mah": 3, "package": "com.a", "packages": ["com.a"]},
		{"drain": "GPS", "power_mah": 1},
		{"drain": "APP", "uid": 10002, "power_mah": -1}
	]`
	res, err := ing.IngestStream(context.Background(), strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 4, res.Total)
	assert.Equal(t, 2, res.Success)
	assert.Equal(t, 2, res.Failed)
	assert.Len(t, res.Errors, 2)
	assert.Equal(t, 1, out.batches)

	require.Len(t, out.records, 2)
	assert.Equal(t, domain.DrainScreen, out.records[0].Drain)
	assert.Nil(t, out.records[0].Owner)
	assert.Equal(t, 10001, out.records[1].UID())
	assert.Equal(t, "com.a", out.records[1].DominantPackage)
}

func TestJSONIngestorSnapshotDocument(t *testing.T) {
	var out sink
	var meta ingest.SnapshotMeta
	ing := ingest.NewJSONIngestor(out.downstream, ingest.WithMetaHandler(func(m ingest.SnapshotMeta) { meta = m }))

	input := `{
		"stats": {"total_power": 100, "max_real_power": 40, "max_power": 40, "discharge_amount": 20},
		"profile": {"screen_full_milliamps": 300},
		"records": [{"drain": "APP", "uid": 10000, "power_mah": 40}]
	}`
	res, err := ing.IngestBatch(context.Background(), strings.NewReader(input), "JSON")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Success)

	require.NotNil(t, meta.Stats)
	assert.Equal(t, 100.0, meta.Stats.TotalPower)
	require.NotNil(t, meta.Profile)
	assert.Equal(t, 300.0, meta.Profile.ScreenFullMilliAmps)
	require.Len(t, out.records, 1)
}

func TestJSONIngestorSingleRecord(t *testing.T) {
	var out sink
	ing := ingest.NewJSONIngestor(out.downstream)
	res, err := ing.IngestStream(context.Background(), strings.NewReader(`{"drain": "wifi", "power_mah": 2}`))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Success)
	assert.Equal(t, domain.DrainWifi, out.records[0].Drain)

	_, err = ing.IngestBatch(context.Background(), strings.NewReader(`[]`), "csv")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	_, err = ing.IngestStream(context.Background(), strings.NewReader(`"nope"`))
	assert.Error(t, err)

	res, err = ing.IngestStream(context.Background(), strings.NewReader("  \n"))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)
}

func TestCSVIngestor(t *testing.T) {
	var out sink
	ing := ingest.NewCSVIngestor(out.downstream)

	input := "Drain, UID, power_mah, package, packages\n" +
		"SCREEN,,40,,\n" +
		"APP,10001,12.5,com.a,com.a|com.a.sync\n" +
		"APP,abc,1,,\n" +
		"APP,10002,NaN,,\n" +
		"IDLE,,3\n"
	res, err := ing.IngestBatch(context.Background(), strings.NewReader(input), "csv")
	require.NoError(t, err)

	assert.Equal(t, 5, res.Total)
	assert.Equal(t, 3, res.Success)
	assert.Equal(t, 2, res.Failed)

	require.Len(t, out.records, 3)
	assert.Nil(t, out.records[0].Owner)
	assert.Equal(t, 10001, out.records[1].UID())
	assert.Equal(t, []string{"com.a", "com.a.sync"}, out.records[1].Packages)
	assert.Equal(t, domain.DrainIdle, out.records[2].Drain)
}

func TestCSVIngestorHeaders(t *testing.T) {
	ing := ingest.NewCSVIngestor((&sink{}).downstream)

	_, err := ing.IngestStream(context.Background(), strings.NewReader("uid,package\n1,a\n"))
	assert.ErrorContains(t, err, "missing required csv header")

	res, err := ing.IngestStream(context.Background(), strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)
}

func TestYAMLIngestor(t *testing.T) {
	var out sink
	var meta ingest.SnapshotMeta
	ing := ingest.NewYAMLIngestor(out.downstream, ingest.WithMetaHandler(func(m ingest.SnapshotMeta) { meta = m }))

	input := `
stats:
  total_power: 50
  discharge_amount: 10
  restricted_build: true
records:
  - drain: APP
    uid: 10000
    power_mah: 30
    package: com.a
  - drain: overcounted
    power_mah: 20
`
	res, err := ing.IngestBatch(context.Background(), strings.NewReader(input), "yml")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Success)
	require.NotNil(t, meta.Stats)
	assert.True(t, meta.Stats.RestrictedBuild)
	assert.Equal(t, domain.DrainOvercounted, out.records[1].Drain)

	out = sink{}
	res, err = ing.IngestStream(context.Background(), strings.NewReader("- drain: idle\n  power_mah: 1\n- drain: bogus\n  power_mah: 1\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Success)
	assert.Equal(t, 1, res.Failed)

	out = sink{}
	res, err = ing.IngestStream(context.Background(), strings.NewReader("drain: camera\npower_mah: 4\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Success)
	assert.Equal(t, domain.DrainCamera, out.records[0].Drain)
}

func TestDownstreamErrorStopsIngestion(t *testing.T) {
	boom := errors.New("downstream full")
	ing := ingest.NewJSONIngestor(func(context.Context, []domain.PowerRecord) error { return boom }, ingest.WithBatchSize(1))
	_, err := ing.IngestStream(context.Background(), strings.NewReader(`[{"drain":"idle","power_mah":1},{"drain":"idle","power_mah":2}]`))
	assert.ErrorIs(t, err, boom)
}

func TestDetectFormat(t *testing.T) {
	for path, want := range map[string]string{"a.json": "json", "a.CSV": "csv", "a.yml": "yaml", "a.yaml": "yaml"} {
		got, err := ingest.DetectFormat(path)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ingest.DetectFormat("a.txt")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFileSourceDerivesStatistics(t *testing.T) {
	path := writeFile(t, "usage.csv", "drain,uid,power_mah\nAPP,10000,30\nUNACCOUNTED,,50\nSCREEN,,20\n")
	src := &ingest.FileSource{Path: path, DischargeAmount: 25, Restricted: true}

	snapshot, err := src.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snapshot.Records, 3)
	assert.Equal(t, 100.0, snapshot.Stats.TotalPower)
	assert.Equal(t, 50.0, snapshot.Stats.MaxPower)
	assert.Equal(t, 30.0, snapshot.Stats.MaxRealPower)
	assert.Equal(t, 25.0, snapshot.Stats.DischargeAmount)
	assert.True(t, snapshot.Stats.RestrictedBuild)
}

func TestFileSourceUsesDocumentStatistics(t *testing.T) {
	path := writeFile(t, "usage.json", `{"stats":{"total_power":500,"discharge_amount":80},"records":[{"drain":"APP","uid":10000,"power_mah":30}]}`)
	snapshot, err := (&ingest.FileSource{Path: path}).Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 500.0, snapshot.Stats.TotalPower)
	assert.Equal(t, 80.0, snapshot.Stats.DischargeAmount)
	assert.False(t, snapshot.Stats.RestrictedBuild)
}

func TestFileSourcePartialInput(t *testing.T) {
	path := writeFile(t, "usage.yaml", "- drain: APP\n  uid: 10000\n  power_mah: 3\n- drain: APP\n  uid: 10001\n  power_mah: -3\n")

	_, err := (&ingest.FileSource{Path: path}).Snapshot(context.Background())
	assert.ErrorContains(t, err, "1 of 2 records rejected")

	snapshot, err := (&ingest.FileSource{Path: path, AllowPartial: true}).Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snapshot.Records, 1)

	_, err = (&ingest.FileSource{Path: filepath.Join(t.TempDir(), "missing.json")}).Snapshot(context.Background())
	assert.Error(t, err)
}

func TestFileSourceFixture(t *testing.T) {
	snapshot, err := (&ingest.FileSource{Path: filepath.Join("testdata", "snapshot.json")}).Snapshot(context.Background())
	require.NoError(t, err)

	require.Len(t, snapshot.Records, 10)
	require.NotNil(t, snapshot.Profile)
	assert.Equal(t, 220.0, snapshot.Profile.ScreenFullMilliAmps)
	assert.Equal(t, 400.0, snapshot.Stats.TotalPower)
	assert.Equal(t, 40.0, snapshot.Stats.DischargeAmount)
}

func TestFileSourceDischargePerStatsType(t *testing.T) {
	path := writeFile(t, "usage.yaml", `
stats:
  total_power: 100
  discharge_amount: 30
  discharge_amounts:
    SINCE_UNPLUGGED: 6
records:
  - drain: APP
    uid: 10000
    power_mah: 100
`)
	snapshot, err := (&ingest.FileSource{Path: path}).Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6.0, snapshot.Stats.ForStatsType(domain.StatsSinceUnplugged).DischargeAmount)
	assert.Equal(t, 30.0, snapshot.Stats.ForStatsType(domain.StatsSinceCharged).DischargeAmount)

	// 文件没有按口径的放电量时使用数据源配置
	csvPath := writeFile(t, "usage.csv", "drain,uid,power_mah\nAPP,10000,10\n")
	src := &ingest.FileSource{
		Path:             csvPath,
		DischargeAmount:  50,
		DischargeAmounts: map[domain.StatsType]float64{domain.StatsSinceUnplugged: 5},
	}
	snapshot, err = src.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5.0, snapshot.Stats.ForStatsType(domain.StatsSinceUnplugged).DischargeAmount)
	assert.Equal(t, 50.0, snapshot.Stats.ForStatsType(domain.StatsSinceCharged).DischargeAmount)
}

// Package fake 生成演示用的功耗快照, 用于 -demo 模式与测试
package fake

import (
	"context"

	"github.com/renjie/prism-power/pkg/core/domain"
)

const (
	// DischargeAmount 演示数据的放电量
	DischargeAmount = 5000
	// TotalPower 演示数据的总消耗
	TotalPower = 4000

	appCount   = 100
	dex2oat    = "dex2oat"
	dexOatMah  = 10.0
	logGIDMah  = 9.0
	startUsage = 5.0
	usageStep  = 5.0
)

// Records 演示记录: 每个非 APP 归类一个桶 (消耗递增), 100 个应用, root,
// 两个 dex2oat 共享 GID 记录以及一个 logd 共享 GID 记录
func Records() []domain.PowerRecord {
	records := make([]domain.PowerRecord, 0, len(domain.AllDrainTypes())+appCount+4)

	use := startUsage
	for _, d := range domain.AllDrainTypes() {
		if d == domain.DrainApp {
			continue
		}
		records = append(records, domain.NewBucketRecord(d, use))
		use += usageStep
	}

	for i := 0; i < appCount; i++ {
		records = append(records, domain.NewAppRecord(domain.FirstApplicationUID+i, use))
	}
	records = append(records, domain.NewAppRecord(domain.RootUID, use))

	for _, appID := range []int{domain.FirstApplicationUID, domain.FirstApplicationUID + 1} {
		rec := domain.NewAppRecord(domain.SharedAppGID(appID), dexOatMah)
		rec.DominantPackage = dex2oat
		records = append(records, rec)
	}
	records = append(records, domain.NewAppRecord(domain.SharedAppGID(domain.LogUID), logGIDMah))
	return records
}

// Generate 返回完整的演示快照; 聚合数据使用固定的总量与放电量
func Generate() domain.Snapshot {
	records := Records()
	stats := domain.DeriveStatistics(records, DischargeAmount, false)
	stats.TotalPower = TotalPower
	return domain.Snapshot{Records: records, Stats: stats}
}

// Source 每次调用返回一份新的演示快照
// 实现了 ports.UsageSource 接口
type Source struct {
	Restricted bool
}

func (s Source) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, err
	}
	snapshot := Generate()
	snapshot.Stats.RestrictedBuild = s.Restricted
	return snapshot, nil
}

package services

import (
	"sort"

	"github.com/renjie/prism-power/pkg/core/domain"
	"github.com/renjie/prism-power/pkg/core/ports"
)

// UIDCoalescer 按规范 UID 合并功耗记录
type UIDCoalescer struct {
	resolver ports.IdentityResolver
}

// NewCoalescer resolver 为 nil 时使用默认的 PlatformResolver
func NewCoalescer(resolver ports.IdentityResolver) *UIDCoalescer {
	if resolver == nil {
		resolver = NewIdentityResolver()
	}
	return &UIDCoalescer{resolver: resolver}
}

// Coalesce 实现 ports.Coalescer 接口
// 输出顺序: 功耗降序; 相同功耗时无归属方的记录在前 (保持输入顺序), 有归属方的按 UID 升序
func (c *UIDCoalescer) Coalesce(records []domain.PowerRecord) []domain.PowerRecord {
	if len(records) == 0 {
		return nil
	}

	results := make([]domain.PowerRecord, 0, len(records))
	var owned []domain.PowerRecord
	index := make(map[int]int) // 规范 UID -> owned 下标, 先到先建

	for _, rec := range records {
		if !rec.HasOwner() {
			results = append(results, rec.Clone())
			continue
		}

		uid := rec.Owner.UID
		canonical := c.resolver.Canonicalize(uid, rec.DominantPackage)

		var acc domain.PowerRecord
		if canonical != uid {
			// 先分配零功耗记录再合并, 保证总量可审计
			acc = rec.Rehome(canonical)
		} else {
			acc = rec.Clone()
		}

		if i, ok := index[canonical]; ok {
			owned[i].Add(acc)
			continue
		}
		index[canonical] = len(owned)
		owned = append(owned, acc)
	}
	results = append(results, owned...)

	// 合并改变了相对大小, 需要重新排序
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.PowerMah != b.PowerMah {
			return a.PowerMah > b.PowerMah
		}
		if a.HasOwner() != b.HasOwner() {
			return !a.HasOwner()
		}
		return a.HasOwner() && a.UID() < b.UID()
	})
	return results
}

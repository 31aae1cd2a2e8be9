package domain

import (
	"math"
	"strconv"
	"strings"
)

// PowerRecord 代表一次功耗归属观测
type PowerRecord struct {
	Drain DrainType `json:"drain" yaml:"drain"`
	Owner *Owner    `json:"owner,omitempty" yaml:"owner,omitempty"` // 纯归类桶 (idle/screen/radio) 没有归属方

	PowerMah        float64  `json:"power_mah" yaml:"power_mah"`                                   // 统计周期内的消耗, 只能通过 Add 改变
	DominantPackage string   `json:"dominant_package,omitempty" yaml:"dominant_package,omitempty"` // 合并组中消耗最大的包名
	Packages        []string `json:"packages,omitempty" yaml:"packages,omitempty"`                 // 只追加, 可能包含重复

	// 仅由排行阶段写入
	Percent      float64 `json:"percent" yaml:"percent"`               // 占本次放电量的百分比
	PercentOfMax float64 `json:"percent_of_max" yaml:"percent_of_max"` // 相对最大条目的比例, 用于展示
}

// NewAppRecord is a shorthand for an owned APP record.
func NewAppRecord(uid int, powerMah float64, packages ...string) PowerRecord {
	return PowerRecord{Drain: DrainApp, Owner: NewOwner(uid), PowerMah: powerMah, Packages: packages}
}

// NewBucketRecord is a shorthand for an ownerless category bucket.
func NewBucketRecord(drain DrainType, powerMah float64) PowerRecord {
	return PowerRecord{Drain: drain, PowerMah: powerMah}
}

// HasOwner 是否参与按归属方合并; UID 0 (root) 与无归属方的记录一样直接透传
func (r PowerRecord) HasOwner() bool {
	return r.Owner != nil && r.Owner.UID > 0
}

// UID returns the owner uid or 0 for ownerless records.
func (r PowerRecord) UID() int {
	if r.Owner == nil {
		return 0
	}
	return r.Owner.UID
}

// Clone 深拷贝, 合并时不允许修改调用方的输入
func (r PowerRecord) Clone() PowerRecord {
	c := r
	if r.Owner != nil {
		c.Owner = NewOwner(r.Owner.UID)
	}
	if r.Packages != nil {
		c.Packages = append([]string(nil), r.Packages...)
	}
	return c
}

// Add 将 other 合并进 r
func (r *PowerRecord) Add(other PowerRecord) {
	r.PowerMah += other.PowerMah
	if r.DominantPackage == "" && other.DominantPackage != "" {
		r.DominantPackage = other.DominantPackage
	}
	if len(other.Packages) > 0 {
		merged := make([]string, 0, len(r.Packages)+len(other.Packages))
		merged = append(merged, r.Packages...)
		r.Packages = append(merged, other.Packages...)
	}
}

// Rehome 在 uid 名下新建零功耗记录并把 r 合并进去
func (r PowerRecord) Rehome(uid int) PowerRecord {
	moved := PowerRecord{Drain: r.Drain, Owner: NewOwner(uid)}
	moved.Add(r)
	return moved
}

// DisplayKey 展示层跨刷新周期匹配条目用的键
// 无归属方的 APP 记录: 包名拼接, 没有包名时为 "0"
func (r PowerRecord) DisplayKey() string {
	if r.Owner != nil {
		return strconv.Itoa(r.Owner.UID)
	}
	if r.Drain == DrainApp {
		if len(r.Packages) > 0 {
			return strings.Join(r.Packages, "")
		}
		return strconv.Itoa(RootUID)
	}
	return r.Drain.String()
}

// UsesSystemTint 非应用条目 (以及 root) 用系统色渲染图标
func (r PowerRecord) UsesSystemTint() bool {
	return (r.Drain != DrainApp || r.UID() == RootUID) && r.Drain != DrainUser
}

// Label 展示用名称
func (r PowerRecord) Label() string {
	switch {
	case r.DominantPackage != "":
		return r.DominantPackage
	case len(r.Packages) > 0:
		return r.Packages[0]
	case r.Owner != nil:
		return "uid " + r.Owner.String()
	default:
		return strings.ToLower(r.Drain.String())
	}
}

func validAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

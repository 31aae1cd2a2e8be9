package domain

import (
	"context"
	"fmt"
	"strings"
)

// StatsType 统计口径
type StatsType string

const (
	// StatsSinceCharged 自上次充满以来 (默认)
	StatsSinceCharged StatsType = "SINCE_CHARGED"

	// StatsSinceUnplugged 自上次拔下电源以来
	StatsSinceUnplugged StatsType = "SINCE_UNPLUGGED"
)

// ParseStatsType 空字符串返回默认口径
func ParseStatsType(s string) (StatsType, error) {
	switch StatsType(strings.ToUpper(strings.TrimSpace(s))) {
	case "", StatsSinceCharged:
		return StatsSinceCharged, nil
	case StatsSinceUnplugged:
		return StatsSinceUnplugged, nil
	default:
		return "", fmt.Errorf("unsupported stats type: %s", s)
	}
}

// RefreshContext 携带一次刷新的上下文信息
type RefreshContext struct {
	TraceID   string
	StatsType StatsType
	Operator  string // 触发方 (SYSTEM 或具体用户)
}

type refreshContextKey struct{}

// NewContext returns a new Context that carries the RefreshContext value.
func NewContext(ctx context.Context, info RefreshContext) context.Context {
	return context.WithValue(ctx, refreshContextKey{}, info)
}

// FromContext returns the RefreshContext value stored in ctx, if any.
func FromContext(ctx context.Context) (RefreshContext, bool) {
	info, ok := ctx.Value(refreshContextKey{}).(RefreshContext)
	return info, ok
}

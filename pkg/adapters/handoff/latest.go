package handoff

import (
	"context"
	"sync"

	"github.com/renjie/prism-power/pkg/core/domain"
	"github.com/renjie/prism-power/pkg/core/ports"
)

// Latest 单槽位邮箱: 后台刷新写入, 展示层读取
// 未被读取的旧结果会被新结果覆盖, 消费方永远只看到最新一次
type Latest struct {
	mu      sync.Mutex
	summary *domain.UsageSummary
	pending bool          // ready 已关闭且结果未被读取
	ready   chan struct{} // 有未读结果时被关闭
}

var _ ports.SummaryPublisher = (*Latest)(nil)

func NewLatest() *Latest {
	return &Latest{ready: make(chan struct{})}
}

// Publish 写入最新结果, 不阻塞; nil 被忽略
func (l *Latest) Publish(summary *domain.UsageSummary) {
	if summary == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.summary = summary
	if !l.pending {
		l.pending = true
		close(l.ready)
	}
}

// Next 阻塞直到有未读结果或 ctx 结束; 读取后槽位清空
func (l *Latest) Next(ctx context.Context) (*domain.UsageSummary, error) {
	for {
		l.mu.Lock()
		ready := l.ready
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ready:
		}

		l.mu.Lock()
		if l.pending && l.ready == ready {
			s := l.summary
			l.summary = nil
			l.pending = false
			l.ready = make(chan struct{})
			l.mu.Unlock()
			return s, nil
		}
		l.mu.Unlock()
	}
}

// Peek 返回当前未读结果 (可能为 nil), 不清空槽位
func (l *Latest) Peek() *domain.UsageSummary {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.summary
}

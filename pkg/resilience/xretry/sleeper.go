package xretry

import (
	"context"
	"time"
)

// Sleeper 退避等待原语
//
// 返回非 nil 错误表示等待被打断，执行器会停止重试。
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc 函数适配器
type SleeperFunc func(ctx context.Context, d time.Duration) error

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}

// ContextSleeper 协作式等待：等待期间响应 ctx 取消
type ContextSleeper struct{}

func (ContextSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// BlockingSleeper 阻塞式等待：在调用 goroutine 上 time.Sleep，不响应取消
type BlockingSleeper struct{}

func (BlockingSleeper) Sleep(_ context.Context, d time.Duration) error {
	if d > 0 {
		time.Sleep(d)
	}
	return nil
}

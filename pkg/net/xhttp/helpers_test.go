package xhttp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// recordingSleeper 记录每次等待时间，不真正挂起
type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *recordingSleeper) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

// testServer 按请求序号（从 0 开始）分派处理函数
type testServer struct {
	*httptest.Server
	hits atomic.Int32
}

func newTestServer(t *testing.T, handler func(n int, w http.ResponseWriter, r *http.Request)) *testServer {
	t.Helper()
	s := &testServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(s.hits.Add(1)) - 1
		handler(n, w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

// statusSequence 依次返回 codes，超出后重复最后一个
func statusSequence(t *testing.T, codes ...int) *testServer {
	t.Helper()
	return newTestServer(t, func(n int, w http.ResponseWriter, _ *http.Request) {
		if n >= len(codes) {
			n = len(codes) - 1
		}
		w.WriteHeader(codes[n])
		_, _ = w.Write([]byte(http.StatusText(codes[n])))
	})
}

// values 并发安全地收集处理函数中观察到的值
type values struct {
	mu    sync.Mutex
	items []string
}

func (v *values) Add(s string) {
	v.mu.Lock()
	v.items = append(v.items, s)
	v.mu.Unlock()
}

func (v *values) All() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.items...)
}

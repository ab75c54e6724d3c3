package xbreaker

import "sync"

// Group 按名称管理熔断器，首次使用时创建。并发安全。
//
//	g := xbreaker.NewGroup(xbreaker.WithOpenTimeout(30 * time.Second))
//	b := g.Get("api.example.com")
type Group struct {
	opts     []BreakerOption
	mu       sync.RWMutex
	breakers map[string]*Breaker
}

// NewGroup 创建熔断器组，opts 应用于组内每个熔断器
func NewGroup(opts ...BreakerOption) *Group {
	return &Group{
		opts:     opts,
		breakers: make(map[string]*Breaker),
	}
}

// Get 返回 name 对应的熔断器，不存在时创建
func (g *Group) Get(name string) *Breaker {
	g.mu.RLock()
	b, ok := g.breakers[name]
	g.mu.RUnlock()
	if ok {
		return b
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if b, ok := g.breakers[name]; ok {
		return b
	}
	b = NewBreaker(name, g.opts...)
	g.breakers[name] = b
	return b
}

// States 返回组内所有熔断器的当前状态
func (g *Group) States() map[string]State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	states := make(map[string]State, len(g.breakers))
	for name, b := range g.breakers {
		states[name] = b.State()
	}
	return states
}

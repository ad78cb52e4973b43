package capture

import (
	"sync"
	"time"
)

// DurationGuard 是录制时长看护：1 Hz 递增 elapsed，到达上限时恰好触发一次
// onLimit 然后自行停止。Cancel 幂等，取消后不会再有任何回调送达。
type DurationGuard struct {
	interval time.Duration
	max      int
	onTick   func(elapsed int)
	onLimit  func()

	mu      sync.Mutex
	elapsed int
	stopped bool

	quit chan struct{}
	once sync.Once
}

// NewDurationGuard 构造看护器。max 为秒数上限，onTick 每秒回调一次，
// onLimit 在 elapsed == max 时回调（之后看护器停止）。
func NewDurationGuard(max int, onTick func(int), onLimit func()) *DurationGuard {
	return newDurationGuard(DurationTick, max, onTick, onLimit)
}

func newDurationGuard(interval time.Duration, max int, onTick func(int), onLimit func()) *DurationGuard {
	return &DurationGuard{
		interval: interval,
		max:      max,
		onTick:   onTick,
		onLimit:  onLimit,
		quit:     make(chan struct{}),
	}
}

// Start 启动计时循环。只应调用一次，由录制会话在进入 Recording 时触发。
func (g *DurationGuard) Start() {
	go g.run()
}

func (g *DurationGuard) run() {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()
	for {
		select {
		case <-g.quit:
			return
		case <-ticker.C:
			if !g.advance() {
				return
			}
		}
	}
}

// advance 处理一次 tick。返回 false 表示看护器已结束（取消或到限）。
// 回调在不持有内部锁的情况下执行，允许 onLimit 反向调用 Cancel。
func (g *DurationGuard) advance() bool {
	g.mu.Lock()
	if g.stopped {
		g.mu.Unlock()
		return false
	}
	g.elapsed++
	elapsed := g.elapsed
	limit := elapsed >= g.max
	if limit {
		g.stopped = true
	}
	onTick, onLimit := g.onTick, g.onLimit
	g.mu.Unlock()

	if onTick != nil {
		onTick(elapsed)
	}
	if limit {
		if onLimit != nil {
			onLimit()
		}
		return false
	}
	return true
}

// Elapsed 返回当前已计数的秒数。
func (g *DurationGuard) Elapsed() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.elapsed
}

// Cancel 停止看护器。幂等；返回后不会再触发 onTick / onLimit。
func (g *DurationGuard) Cancel() {
	g.mu.Lock()
	g.stopped = true
	g.mu.Unlock()
	g.once.Do(func() { close(g.quit) })
}

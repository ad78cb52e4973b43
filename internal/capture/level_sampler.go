package capture

import (
	"math"
	"sync"
	"time"
)

// LevelSampler 以 20 Hz 读取麦克风输入振幅，供 UI 实时波形使用。
// 采样值归一化到 [0,1]，不落盘、不影响 JournalEntry。
// 仅在 Recording 期间运行；Cancel 幂等，取消后不再产生采样。
type LevelSampler struct {
	interval time.Duration
	source   func() float64
	onSample func(level float64)

	mu      sync.Mutex
	latest  float64
	stopped bool

	quit chan struct{}
	once sync.Once
}

// NewLevelSampler 构造采样器。source 为设备振幅读数，onSample 可为 nil。
func NewLevelSampler(source func() float64, onSample func(float64)) *LevelSampler {
	return newLevelSampler(LevelSampleInterval, source, onSample)
}

func newLevelSampler(interval time.Duration, source func() float64, onSample func(float64)) *LevelSampler {
	return &LevelSampler{
		interval: interval,
		source:   source,
		onSample: onSample,
		quit:     make(chan struct{}),
	}
}

// Start 启动采样循环。
func (s *LevelSampler) Start() {
	go s.run()
}

func (s *LevelSampler) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.quit:
			return
		case <-ticker.C:
			if !s.sample() {
				return
			}
		}
	}
}

func (s *LevelSampler) sample() bool {
	level := clampLevel(s.source())

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return false
	}
	s.latest = level
	onSample := s.onSample
	s.mu.Unlock()

	if onSample != nil {
		onSample(level)
	}
	return true
}

// Level 返回最近一次采样值；尚未采样时为 0。
func (s *LevelSampler) Level() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Cancel 停止采样。幂等；返回后 onSample 不再被调用。
func (s *LevelSampler) Cancel() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.once.Do(func() { close(s.quit) })
}

func clampLevel(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

package capture

import (
	"math"
	"sync"
	"testing"
	"time"
)

func TestLevelSamplerTracksSource(t *testing.T) {
	var (
		mu  sync.Mutex
		cur float64
	)
	source := func() float64 {
		mu.Lock()
		defer mu.Unlock()
		return cur
	}
	s := newLevelSampler(time.Millisecond, source, nil)
	s.Start()
	defer s.Cancel()

	mu.Lock()
	cur = 0.42
	mu.Unlock()
	waitFor(t, time.Second, func() bool { return s.Level() == 0.42 })

	mu.Lock()
	cur = 0.9
	mu.Unlock()
	waitFor(t, time.Second, func() bool { return s.Level() == 0.9 })
}

func TestLevelSamplerClampsToUnitRange(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{in: -0.3, want: 0},
		{in: 0, want: 0},
		{in: 0.5, want: 0.5},
		{in: 1.7, want: 1},
		{in: math.NaN(), want: 0},
	}
	for _, c := range cases {
		if got := clampLevel(c.in); got != c.want {
			t.Fatalf("clampLevel(%v)=%v, want %v", c.in, got, c.want)
		}
	}
}

func TestLevelSamplerCancelStopsSampling(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)
	s := newLevelSampler(time.Millisecond, func() float64 { return 0.5 }, func(float64) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	s.Start()
	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls > 0
	})

	s.Cancel()
	s.Cancel()

	mu.Lock()
	atCancel := calls
	mu.Unlock()
	time.Sleep(10 * time.Millisecond)
	mu.Lock()
	after := calls
	mu.Unlock()
	if after != atCancel {
		t.Fatalf("onSample fired after Cancel: %d -> %d", atCancel, after)
	}
}

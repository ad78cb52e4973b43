package capture

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type stubAuthorizer struct {
	granted bool
	err     error
	delay   time.Duration
	calls   atomic.Int32
}

func (a *stubAuthorizer) RequestAccess(ctx context.Context, _ Mode) (bool, error) {
	a.calls.Add(1)
	if a.delay > 0 {
		select {
		case <-time.After(a.delay):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	return a.granted, a.err
}

func TestGateGrantCachedPerProcess(t *testing.T) {
	auth := &stubAuthorizer{granted: true}
	g := NewGate(auth)

	cap1, err := g.Request(context.Background(), ModeAudio)
	if err != nil {
		t.Fatalf("first request: %v", err)
	}
	if !cap1.Grants(ModeAudio) {
		t.Fatal("capability does not grant requested mode")
	}
	if _, err := g.Request(context.Background(), ModeAudio); err != nil {
		t.Fatalf("second request: %v", err)
	}
	if got := auth.calls.Load(); got != 1 {
		t.Fatalf("authorizer prompted %d times, want 1", got)
	}
}

func TestGateDenialSurfacesSentinel(t *testing.T) {
	g := NewGate(&stubAuthorizer{granted: false})
	_, err := g.Request(context.Background(), ModeVideo)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestGateAuthorizerErrorPropagates(t *testing.T) {
	boom := errors.New("prompt unavailable")
	g := NewGate(&stubAuthorizer{err: boom})
	_, err := g.Request(context.Background(), ModeAudio)
	if !errors.Is(err, boom) {
		t.Fatalf("expected authorizer error, got %v", err)
	}
}

func TestGateConcurrentRequestsSingleFlight(t *testing.T) {
	auth := &stubAuthorizer{granted: true, delay: 20 * time.Millisecond}
	g := NewGate(auth)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = g.Request(context.Background(), ModeAudio)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}
	if got := auth.calls.Load(); got != 1 {
		t.Fatalf("concurrent requests reached authorizer %d times, want 1", got)
	}
}

func TestCapabilityVideoGrantCoversAudio(t *testing.T) {
	g := NewGate(&stubAuthorizer{granted: true})
	cap, err := g.Request(context.Background(), ModeVideo)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if !cap.Grants(ModeAudio) {
		t.Fatal("video grant must also cover audio capture")
	}
	audioOnly := Capability{mode: ModeAudio, granted: true}
	if audioOnly.Grants(ModeVideo) {
		t.Fatal("audio grant must not cover video capture")
	}
}

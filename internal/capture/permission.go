package capture

import (
	"context"
	"fmt"
	"sync"
)

// Authorizer 抽象平台权限 API（requestCameraAndMicrophoneAccess）。
// 实现方可能弹出系统授权框，因此调用可能长时间阻塞。
type Authorizer interface {
	RequestAccess(ctx context.Context, mode Mode) (granted bool, err error)
}

// Capability 是一次授权结果的凭证，由 Gate 签发、Session.Start 消费。
// 零值不具备任何权限。
type Capability struct {
	mode    Mode
	granted bool
}

// Grants 判断凭证是否覆盖指定模式的录制。
// 视频授权同时覆盖音频（摄像头+麦克风一并申请）。
func (c Capability) Grants(mode Mode) bool {
	if !c.granted {
		return false
	}
	return c.mode == mode || (c.mode == ModeVideo && mode == ModeAudio)
}

type permissionCall struct {
	done    chan struct{}
	granted bool
	err     error
}

// Gate 是权限门。结果仅缓存在进程内（冷启动后重新向平台确认），
// 同一模式的并发请求合并为一次系统弹框：后到的调用等待首个弹框的结果，
// 绝不重复触发第二个弹框。
type Gate struct {
	auth Authorizer

	mu      sync.Mutex
	results map[Mode]bool
	pending map[Mode]*permissionCall
}

// NewGate 构造权限门。
func NewGate(auth Authorizer) *Gate {
	return &Gate{
		auth:    auth,
		results: make(map[Mode]bool),
		pending: make(map[Mode]*permissionCall),
	}
}

// Request 为指定模式申请采集权限。
// 拒绝返回 ErrPermissionDenied；平台层失败原样包装返回。
func (g *Gate) Request(ctx context.Context, mode Mode) (Capability, error) {
	g.mu.Lock()
	if granted, ok := g.results[mode]; ok {
		g.mu.Unlock()
		return g.toCapability(mode, granted)
	}
	if call, ok := g.pending[mode]; ok {
		// 弹框仍未关闭：挂到同一次调用上，不重复弹框。
		g.mu.Unlock()
		select {
		case <-call.done:
			if call.err != nil {
				return Capability{}, call.err
			}
			return g.toCapability(mode, call.granted)
		case <-ctx.Done():
			return Capability{}, ctx.Err()
		}
	}

	call := &permissionCall{done: make(chan struct{})}
	g.pending[mode] = call
	g.mu.Unlock()

	granted, err := g.auth.RequestAccess(ctx, mode)

	g.mu.Lock()
	delete(g.pending, mode)
	if err == nil {
		g.results[mode] = granted
	}
	g.mu.Unlock()

	call.granted = granted
	if err != nil {
		call.err = fmt.Errorf("request %s access: %w", mode, err)
	}
	close(call.done)

	if call.err != nil {
		return Capability{}, call.err
	}
	return g.toCapability(mode, granted)
}

func (g *Gate) toCapability(mode Mode, granted bool) (Capability, error) {
	if !granted {
		return Capability{}, ErrPermissionDenied
	}
	return Capability{mode: mode, granted: true}, nil
}

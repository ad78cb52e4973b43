package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"go.opentelemetry.io/otel/metric"
)

// State 表示录制会话状态机的状态。
type State string

// 会话状态常量定义。合法迁移：
// Idle → Recording → Stopped → (Recording | Uploading)，
// Uploading → (Saved | Stopped[上传失败，文件保留])，
// Failed（finalize 失败）→ Idle（Acknowledge 后），
// Stopped → Idle（Reset），任意状态 → Idle（Close）。
const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StateStopped   State = "stopped"
	StateUploading State = "uploading"
	StateSaved     State = "saved"
	StateFailed    State = "failed"
)

// UploadRequest 描述一次上传所需的全部输入。
type UploadRequest struct {
	Path            string
	Mode            Mode
	ContentType     string
	DurationSeconds int
}

// Uploader 抽象媒体上传边界，由 journal API 客户端实现。
// 单次原子请求，capture 层不做任何自动重试。
type Uploader interface {
	Upload(ctx context.Context, req UploadRequest) error
}

// Session 是一次录制会话的唯一持有者：独占设备绑定、临时文件、
// 时长看护与音量采样的生命周期。所有状态变更串行化在同一把锁上；
// 不被当前状态允许的操作返回 ErrInvalidTransition 且无副作用。
type Session struct {
	mode   Mode
	device Device
	log    *log.Helper
	met    *metrics

	maxDuration    int
	tickInterval   time.Duration
	sampleInterval time.Duration
	tmpDir         string
	onLevel        func(float64)

	mu           sync.Mutex
	state        State
	stopping     bool // Recording → Stopped 的过渡期，阻止并发二次 Stop
	gen          uint64
	facing       Facing
	elapsed      int
	file         *MediaFile
	lastErr      error
	guard        *DurationGuard
	sampler      *LevelSampler
	uploadCancel context.CancelFunc
}

// Option 定制会话行为。
type Option func(*Session)

// WithLogger 注入结构化日志。
func WithLogger(logger log.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.log = log.NewHelper(logger)
		}
	}
}

// WithMeter 注入 OTel Meter，启用捕获管线指标。
func WithMeter(meter metric.Meter) Option {
	return func(s *Session) { s.met = newMetrics(meter) }
}

// WithMaxDuration 覆盖时长上限（秒）。默认 MaxDurationSeconds。
func WithMaxDuration(seconds int) Option {
	return func(s *Session) {
		if seconds > 0 {
			s.maxDuration = seconds
		}
	}
}

// WithFacing 设置初始摄像头朝向（视频模式）。
func WithFacing(facing Facing) Option {
	return func(s *Session) { s.facing = facing }
}

// WithTempDir 指定临时媒体文件目录。
func WithTempDir(dir string) Option {
	return func(s *Session) { s.tmpDir = dir }
}

// WithLevelCallback 注册音量采样回调（UI 波形）。
func WithLevelCallback(fn func(float64)) Option {
	return func(s *Session) { s.onLevel = fn }
}

// NewSession 构造一个处于 Idle 的录制会话。device 在 Start 前不被触碰。
func NewSession(mode Mode, device Device, opts ...Option) *Session {
	s := &Session{
		mode:           mode,
		device:         device,
		log:            log.NewHelper(log.GetLogger()),
		maxDuration:    MaxDurationSeconds,
		tickInterval:   DurationTick,
		sampleInterval: LevelSampleInterval,
		state:          StateIdle,
		facing:         FacingFront,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start 绑定设备并进入 Recording。仅允许从 Idle 或 Stopped（重录，
// 先丢弃上一段文件）调用；要求先通过 Gate 取得覆盖本模式的 Capability。
// 设备忙或不存在时返回 ErrDeviceUnavailable，状态回到 Idle。
func (s *Session) Start(ctx context.Context, cap Capability) error {
	if !cap.Grants(s.mode) {
		return ErrPermissionDenied
	}

	s.mu.Lock()
	if s.stopping || (s.state != StateIdle && s.state != StateStopped) {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	if s.state == StateStopped {
		s.removeFileLocked()
	}
	s.state = StateIdle
	gen := s.gen
	cfg := DeviceConfig{
		Mode:       s.mode,
		Facing:     s.facing,
		SampleRate: AudioSampleRate,
		Channels:   AudioChannels,
		Dir:        s.tmpDir,
	}
	s.mu.Unlock()

	if err := s.device.Start(ctx, cfg); err != nil {
		s.met.recordFailure(ctx, "device_start")
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	s.mu.Lock()
	if s.gen != gen || s.state != StateIdle {
		s.mu.Unlock()
		s.releaseDevice()
		return ErrInvalidTransition
	}
	s.elapsed = 0
	s.lastErr = nil
	s.guard = newDurationGuard(s.tickInterval, s.maxDuration, s.onGuardTick, s.onGuardLimit)
	if s.mode == ModeAudio {
		s.sampler = newLevelSampler(s.sampleInterval, s.device.Level, s.onLevel)
	}
	guard, sampler := s.guard, s.sampler
	s.state = StateRecording
	s.mu.Unlock()

	guard.Start()
	if sampler != nil {
		sampler.Start()
	}
	s.met.recordStart(ctx, s.mode)
	s.log.WithContext(ctx).Infof("recording started: mode=%s max_duration=%ds", s.mode, s.maxDuration)
	return nil
}

// Stop 结束录制并等待设备 finalize，成功后持有本地文件进入 Stopped。
// 仅允许从 Recording 调用；时长看护到限时也会走到这里，二者互斥，
// 幸存的一方完成迁移，另一方拿到 ErrInvalidTransition。
func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateRecording || s.stopping {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	s.stopping = true
	gen := s.gen
	guard, sampler := s.guard, s.sampler
	s.mu.Unlock()

	guard.Cancel()
	if sampler != nil {
		sampler.Cancel()
	}

	done, err := s.device.Stop(ctx)
	if err != nil {
		s.met.recordFailure(ctx, "device_stop")
		s.failStopLocked(gen, err)
		return fmt.Errorf("stop capture device: %w", err)
	}

	var res StopResult
	select {
	case res = <-done:
	case <-ctx.Done():
		s.failStopLocked(gen, ctx.Err())
		// finalize 仍会完成：排空结果并清除文件，否则既进不了
		// 会话状态也没人删。
		go func() {
			if late := <-done; late.Err == nil && late.File.Path != "" {
				_ = os.Remove(late.File.Path)
			}
		}()
		return ctx.Err()
	}

	s.mu.Lock()
	s.stopping = false
	if s.gen != gen {
		// 等待 finalize 期间会话被 Close：结果作废，文件就地清除。
		s.mu.Unlock()
		if res.Err == nil && res.File.Path != "" {
			_ = os.Remove(res.File.Path)
		}
		return ErrInvalidTransition
	}
	if res.Err != nil {
		s.state = StateFailed
		s.lastErr = res.Err
		s.mu.Unlock()
		s.met.recordFailure(ctx, "finalize")
		return fmt.Errorf("finalize recording: %w", res.Err)
	}
	file := res.File
	s.file = &file
	s.state = StateStopped
	elapsed := s.elapsed
	s.mu.Unlock()

	s.met.recordDuration(ctx, elapsed)
	s.log.WithContext(ctx).Infof("recording stopped: mode=%s elapsed=%ds file=%s", s.mode, elapsed, file.Path)
	return nil
}

func (s *Session) failStopLocked(gen uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopping = false
	if s.gen == gen {
		s.state = StateFailed
		s.lastErr = err
	}
}

// Reset 丢弃已停止的录制：删除本地文件，回到 Idle。
// 仅允许从 Stopped 调用；Recording / Idle 下调用无副作用。
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateStopped {
		return ErrInvalidTransition
	}
	s.removeFileLocked()
	s.state = StateIdle
	s.elapsed = 0
	s.lastErr = nil
	return nil
}

// Acknowledge 确认 finalize 失败，清理残留并回到 Idle。
func (s *Session) Acknowledge() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateFailed {
		return ErrInvalidTransition
	}
	s.removeFileLocked()
	s.state = StateIdle
	s.elapsed = 0
	s.lastErr = nil
	return nil
}

// SwitchFacing 切换摄像头朝向。仅视频模式、仅 Idle 下允许——
// 录制中切换会破坏正在写入的文件，直接拒绝。
func (s *Session) SwitchFacing(facing Facing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeVideo || s.state != StateIdle {
		return ErrInvalidTransition
	}
	if err := s.device.SwitchFacing(facing); err != nil {
		return fmt.Errorf("switch camera facing: %w", err)
	}
	s.facing = facing
	return nil
}

// Upload 将已停止的录制上传为持久化条目。Stopped → Uploading，
// 成功后删除本地文件进入 Saved；失败时文件与 Stopped 状态保留，
// 调用方可凭同一份文件直接重试，不自动重试。
// 上传随会话生命周期可取消：Close 会中断未完成的上传。
func (s *Session) Upload(ctx context.Context, up Uploader) error {
	if up == nil {
		return errors.New("capture: uploader is required")
	}
	s.mu.Lock()
	if s.state != StateStopped || s.file == nil {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	file := *s.file
	elapsed := s.elapsed
	gen := s.gen
	uctx, cancel := context.WithCancel(ctx)
	s.uploadCancel = cancel
	s.state = StateUploading
	s.mu.Unlock()

	err := up.Upload(uctx, UploadRequest{
		Path:            file.Path,
		Mode:            s.mode,
		ContentType:     file.ContentType,
		DurationSeconds: elapsed,
	})
	cancel()

	s.mu.Lock()
	s.uploadCancel = nil
	if s.gen != gen {
		s.mu.Unlock()
		if err != nil {
			return err
		}
		return ErrInvalidTransition
	}
	if err != nil {
		s.state = StateStopped
		s.lastErr = err
		s.mu.Unlock()
		s.met.recordFailure(ctx, "upload")
		return fmt.Errorf("upload recording: %w", err)
	}
	s.removeFileLocked()
	s.state = StateSaved
	s.lastErr = nil
	s.mu.Unlock()

	s.log.WithContext(ctx).Infof("recording uploaded: mode=%s duration=%ds", s.mode, elapsed)
	return nil
}

// Close 是无条件清理：任意状态下可调用且幂等。停止进行中的采集、
// 中断未完成的上传、释放设备绑定、删除临时文件，回到 Idle。
// 这是宿主 UI 被关闭时防止硬件会话泄漏的唯一保证。
func (s *Session) Close() error {
	s.mu.Lock()
	s.gen++
	if s.uploadCancel != nil {
		s.uploadCancel()
		s.uploadCancel = nil
	}
	guard, sampler := s.guard, s.sampler
	s.guard, s.sampler = nil, nil
	wasRecording := s.state == StateRecording && !s.stopping
	s.stopping = false
	s.removeFileLocked()
	s.state = StateIdle
	s.elapsed = 0
	s.lastErr = nil
	s.mu.Unlock()

	if guard != nil {
		guard.Cancel()
	}
	if sampler != nil {
		sampler.Cancel()
	}
	if wasRecording {
		s.releaseDevice()
	}
	return nil
}

// releaseDevice 停止设备并丢弃 finalize 产物，仅用于清理路径。
func (s *Session) releaseDevice() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	done, err := s.device.Stop(ctx)
	if err != nil {
		return
	}
	select {
	case res := <-done:
		if res.Err == nil && res.File.Path != "" {
			_ = os.Remove(res.File.Path)
		}
	case <-ctx.Done():
	}
}

// removeFileLocked 删除当前临时文件。调用方必须持有 s.mu。
func (s *Session) removeFileLocked() {
	if s.file == nil {
		return
	}
	if err := os.Remove(s.file.Path); err != nil && !os.IsNotExist(err) {
		s.log.Warnf("remove temp recording %s: %v", s.file.Path, err)
	}
	s.file = nil
}

// onGuardTick 由时长看护按秒回调。离开 Recording 后的迟到 tick 被丢弃。
func (s *Session) onGuardTick(elapsed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRecording && !s.stopping {
		s.elapsed = elapsed
	}
}

// onGuardLimit 在 elapsed == maxDuration 时触发强制停止，恰好一次。
func (s *Session) onGuardLimit() {
	ctx := context.Background()
	s.met.recordAutoStop(ctx)
	s.log.Infof("duration cap reached (%ds), forcing stop", s.maxDuration)
	if err := s.Stop(ctx); err != nil && !errors.Is(err, ErrInvalidTransition) {
		s.log.Errorf("forced stop failed: %v", err)
	}
}

// Mode 返回会话的录制模式。
func (s *Session) Mode() Mode { return s.mode }

// State 返回当前状态。
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Elapsed 返回已录制秒数。Recording 期间单调递增。
func (s *Session) Elapsed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}

// Level 返回最近一次音量采样（[0,1]）。非 Recording 状态恒为 0。
func (s *Session) Level() float64 {
	s.mu.Lock()
	sampler := s.sampler
	recording := s.state == StateRecording
	s.mu.Unlock()
	if !recording || sampler == nil {
		return 0
	}
	return sampler.Level()
}

// File 返回本地录制文件句柄；仅 Stopped / Uploading 状态存在。
func (s *Session) File() (MediaFile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return MediaFile{}, false
	}
	return *s.file, true
}

// LastError 返回最近一次失败原因（若有）。
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Facing 返回当前摄像头朝向。
func (s *Session) Facing() Facing {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.facing
}

// Package capture 实现日志录制管线的客户端核心：权限门、录制会话状态机、
// 时长看护与音量采样。capture 只依赖设备与上传两个边界接口，
// 平台捕获 API 与后端 HTTP 协议分别由 Device / Uploader 的实现方提供。
package capture

import (
	"context"
	"errors"
	"time"
)

// Mode 表示录制模式。
type Mode string

// 录制模式常量定义
const (
	ModeAudio Mode = "audio" // 纯音频录制
	ModeVideo Mode = "video" // 视频录制（含音轨）
)

// Facing 表示摄像头朝向，仅视频模式有意义。
type Facing string

// 摄像头朝向常量定义
const (
	FacingFront Facing = "front"
	FacingBack  Facing = "back"
)

// 录制管线的行为常量。与移动端保持一致：单条日志最长 180 秒，
// 时长看护 1 Hz，音量采样 20 Hz，音频按 44.1 kHz 单声道采集。
const (
	MaxDurationSeconds  = 180
	DurationTick        = time.Second
	LevelSampleInterval = 50 * time.Millisecond
	AudioSampleRate     = 44100
	AudioChannels       = 1
)

// 捕获管线的错误分类。会话的所有操作要么成功、要么返回下列哨兵之一
// （可能经 fmt.Errorf 包装）；不存在部分生效的中间态。
var (
	// ErrPermissionDenied 表示平台权限被拒绝，本次尝试终止。
	ErrPermissionDenied = errors.New("capture: permission denied")
	// ErrDeviceUnavailable 表示捕获设备忙或不存在，状态保持 Idle，可重试。
	ErrDeviceUnavailable = errors.New("capture: device unavailable")
	// ErrInvalidTransition 表示当前状态不允许该操作，调用无任何副作用。
	ErrInvalidTransition = errors.New("capture: invalid state transition")
)

// DeviceConfig 描述一次设备绑定所需的采集参数。
type DeviceConfig struct {
	Mode       Mode
	Facing     Facing // 视频模式使用
	SampleRate int
	Channels   int
	Dir        string // 临时文件目录，空值使用 os.TempDir
}

// MediaFile 是设备停止后产出的本地媒体文件句柄。
type MediaFile struct {
	Path        string
	ContentType string
	SizeBytes   int64
}

// StopResult 是设备异步 finalize 的完成事件。
type StopResult struct {
	File MediaFile
	Err  error
}

// Device 抽象平台捕获设备。设备是进程内稀缺资源：同一实例在 Stop 前
// 不允许二次 Start；绑定失败返回 ErrDeviceUnavailable 而非抢占。
// Stop 返回 finalize 完成事件的只读通道——完成通知由状态机消费，
// 而不是设备直接回调进状态机（避免隐式线程亲和）。
type Device interface {
	Start(ctx context.Context, cfg DeviceConfig) error
	Stop(ctx context.Context) (<-chan StopResult, error)
	SwitchFacing(facing Facing) error
	// Level 返回当前输入振幅，归一化到 [0,1]。仅音频路径有意义。
	Level() float64
}

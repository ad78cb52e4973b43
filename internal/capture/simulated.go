package capture

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"sync"
	"time"
)

// SimulatedDevice 是 Device 的便携实现：不依赖任何平台捕获 API，
// 合成正弦波 PCM（音频）或伪 MP4 负载（视频），按小块增量写入临时文件，
// 媒体时长不受内存约束。用于单元测试与 `journal record --simulate`。
// 语义与真实设备一致：独占绑定、异步 finalize、实时振幅读数。
type SimulatedDevice struct {
	mu        sync.Mutex
	capturing bool
	facing    Facing
	phase     float64
	level     float64

	file       *os.File
	mode       Mode
	sampleRate int
	channels   int
	dataBytes  int64

	quit chan struct{}
	done chan StopResult

	// writeInterval 控制增量写入节奏，测试可缩短。
	writeInterval time.Duration
}

// NewSimulatedDevice 构造一个未绑定的模拟设备。
func NewSimulatedDevice() *SimulatedDevice {
	return &SimulatedDevice{
		facing:        FacingFront,
		writeInterval: 50 * time.Millisecond,
	}
}

// Start 绑定设备并开始向临时文件增量写入媒体数据。
// 重复绑定返回错误（设备是稀缺资源，不抢占）。
func (d *SimulatedDevice) Start(ctx context.Context, cfg DeviceConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.capturing {
		return fmt.Errorf("simulated device already capturing")
	}

	pattern := "journal-*.wav"
	if cfg.Mode == ModeVideo {
		pattern = "journal-*.mp4"
	}
	dir := cfg.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return fmt.Errorf("create temp media file: %w", err)
	}

	d.file = f
	d.mode = cfg.Mode
	d.sampleRate = cfg.SampleRate
	if d.sampleRate <= 0 {
		d.sampleRate = AudioSampleRate
	}
	d.channels = cfg.Channels
	if d.channels <= 0 {
		d.channels = AudioChannels
	}
	if cfg.Facing != "" {
		d.facing = cfg.Facing
	}
	d.dataBytes = 0
	d.phase = 0
	d.quit = make(chan struct{})
	d.done = make(chan StopResult, 1)

	if err := d.writeHeader(); err != nil {
		f.Close()
		os.Remove(f.Name())
		d.file = nil
		return err
	}
	d.capturing = true

	go d.writeLoop(d.quit, d.done)
	return nil
}

// Stop 请求结束采集，返回 finalize 完成事件通道。
func (d *SimulatedDevice) Stop(ctx context.Context) (<-chan StopResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.capturing {
		return nil, fmt.Errorf("simulated device not capturing")
	}
	d.capturing = false
	close(d.quit)
	return d.done, nil
}

// SwitchFacing 切换朝向；采集中拒绝。
func (d *SimulatedDevice) SwitchFacing(facing Facing) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.capturing {
		return fmt.Errorf("cannot switch facing while capturing")
	}
	d.facing = facing
	return nil
}

// Level 返回最近合成样本的振幅（[0,1]）；未采集时为 0。
func (d *SimulatedDevice) Level() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.capturing {
		return 0
	}
	return d.level
}

func (d *SimulatedDevice) writeLoop(quit chan struct{}, done chan StopResult) {
	ticker := time.NewTicker(d.writeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-quit:
			done <- d.finalize()
			return
		case <-ticker.C:
			if err := d.writeChunk(); err != nil {
				done <- StopResult{Err: err}
				return
			}
		}
	}
}

// writeChunk 追加约一个 writeInterval 的媒体数据。
func (d *SimulatedDevice) writeChunk() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return fmt.Errorf("media file closed")
	}

	var buf []byte
	if d.mode == ModeVideo {
		// 伪视频帧：确定性填充，不试图构造合法编码流。
		buf = make([]byte, 4096)
		for i := range buf {
			buf[i] = byte(i ^ int(d.dataBytes))
		}
		d.level = 0
	} else {
		samples := int(float64(d.sampleRate) * d.writeInterval.Seconds())
		buf = make([]byte, samples*d.channels*2)
		step := 2 * math.Pi * 440 / float64(d.sampleRate)
		var peak float64
		for i := 0; i < samples; i++ {
			v := math.Sin(d.phase) * 0.6
			d.phase += step
			if a := math.Abs(v); a > peak {
				peak = a
			}
			sample := int16(v * math.MaxInt16)
			for c := 0; c < d.channels; c++ {
				binary.LittleEndian.PutUint16(buf[(i*d.channels+c)*2:], uint16(sample))
			}
		}
		d.level = peak
	}

	n, err := d.file.Write(buf)
	d.dataBytes += int64(n)
	if err != nil {
		return fmt.Errorf("write media chunk: %w", err)
	}
	return nil
}

// finalize 补写容器头部并关闭文件，产出 MediaFile。
func (d *SimulatedDevice) finalize() StopResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.level = 0
	f := d.file
	d.file = nil
	if f == nil {
		return StopResult{Err: fmt.Errorf("media file closed")}
	}

	contentType := "audio/wav"
	if d.mode == ModeVideo {
		contentType = "video/mp4"
	} else if err := d.patchWavHeader(f); err != nil {
		f.Close()
		return StopResult{Err: err}
	}

	if err := f.Close(); err != nil {
		return StopResult{Err: fmt.Errorf("close media file: %w", err)}
	}
	info, err := os.Stat(f.Name())
	if err != nil {
		return StopResult{Err: fmt.Errorf("stat media file: %w", err)}
	}
	return StopResult{File: MediaFile{
		Path:        f.Name(),
		ContentType: contentType,
		SizeBytes:   info.Size(),
	}}
}

// writeHeader 写容器头。WAV 的长度字段先占位，finalize 时回填。
func (d *SimulatedDevice) writeHeader() error {
	if d.mode == ModeVideo {
		// 最小 ftyp box，后续数据视作裸负载。
		header := append([]byte{0, 0, 0, 0x18}, []byte("ftypisom")...)
		header = append(header, 0, 0, 2, 0)
		header = append(header, []byte("isomiso2")...)
		_, err := d.file.Write(header)
		return err
	}

	header := make([]byte, 44)
	copy(header[0:], "RIFF")
	copy(header[8:], "WAVE")
	copy(header[12:], "fmt ")
	binary.LittleEndian.PutUint32(header[16:], 16)
	binary.LittleEndian.PutUint16(header[20:], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:], uint16(d.channels))
	binary.LittleEndian.PutUint32(header[24:], uint32(d.sampleRate))
	binary.LittleEndian.PutUint32(header[28:], uint32(d.sampleRate*d.channels*2))
	binary.LittleEndian.PutUint16(header[32:], uint16(d.channels*2))
	binary.LittleEndian.PutUint16(header[34:], 16)
	copy(header[36:], "data")
	_, err := d.file.Write(header)
	return err
}

// patchWavHeader 回填 RIFF/data 块的长度。
func (d *SimulatedDevice) patchWavHeader(f *os.File) error {
	var sizes [4]byte
	binary.LittleEndian.PutUint32(sizes[:], uint32(36+d.dataBytes))
	if _, err := f.WriteAt(sizes[:], 4); err != nil {
		return fmt.Errorf("patch riff size: %w", err)
	}
	binary.LittleEndian.PutUint32(sizes[:], uint32(d.dataBytes))
	if _, err := f.WriteAt(sizes[:], 40); err != nil {
		return fmt.Errorf("patch data size: %w", err)
	}
	return nil
}

var _ Device = (*SimulatedDevice)(nil)

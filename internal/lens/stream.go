package lens

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os/exec"
	"strconv"
	"sync"
)

// MJPEGPipeline はffmpegでアクティブレンズから連続キャプチャするSession実装
// 入力の差し替えは構成トランザクション内でのみ許され、
// コミット時にキャプチャプロセスが新しいデバイスで再起動される
type MJPEGPipeline struct {
	width  int
	height int
	fps    int

	mu            sync.Mutex
	input         Device
	pending       Device
	configuring   bool
	running       bool
	captureCancel context.CancelFunc
	captureDone   chan struct{}

	frames chan []byte
}

// NewMJPEGPipeline は新しいMJPEGPipelineを作成する
func NewMJPEGPipeline(width, height, fps int) *MJPEGPipeline {
	return &MJPEGPipeline{
		width:  width,
		height: height,
		fps:    fps,
		frames: make(chan []byte, 10),
	}
}

// Frames はキャプチャされたJPEGフレームのチャンネルを返す
// 消費が追いつかない場合は古いフレームから破棄される
func (p *MJPEGPipeline) Frames() <-chan []byte {
	return p.frames
}

// Start はパイプラインを稼働状態にする
// 入力が未設定の場合、キャプチャは最初のコミットで開始される
func (p *MJPEGPipeline) Start(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil // 既に開始済み
	}
	p.running = true

	if p.input != nil {
		p.startCaptureLocked(p.input.ID())
	}
	return nil
}

// Stop はキャプチャを停止する
func (p *MJPEGPipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	p.stopCaptureLocked()
	p.running = false
}

// BeginConfiguration は構成トランザクションを開始する
func (p *MJPEGPipeline) BeginConfiguration() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.configuring {
		return fmt.Errorf("構成トランザクションが既に進行中")
	}
	p.configuring = true
	p.pending = p.input
	return nil
}

// CommitConfiguration は構成トランザクションを確定する
// 入力が残らないコミットは拒否され、トランザクションは開いたまま維持される
func (p *MJPEGPipeline) CommitConfiguration() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.configuring {
		return fmt.Errorf("構成トランザクションが開始されていない")
	}
	if p.pending == nil {
		return fmt.Errorf("入力が存在しない状態でのコミット")
	}

	changed := p.input == nil || p.input.ID() != p.pending.ID()
	p.input = p.pending
	p.configuring = false

	if changed && p.running {
		p.stopCaptureLocked()
		p.startCaptureLocked(p.input.ID())
	}
	return nil
}

// AddInput はデバイスをトランザクション内で入力に設定する
func (p *MJPEGPipeline) AddInput(d Device) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.configuring {
		return fmt.Errorf("構成トランザクション外での入力追加")
	}
	if p.pending != nil {
		return fmt.Errorf("入力 %s が既に存在", p.pending.ID())
	}
	p.pending = d
	return nil
}

// RemoveInput は現在の入力をトランザクション内で取り除く
func (p *MJPEGPipeline) RemoveInput(d Device) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.configuring {
		return fmt.Errorf("構成トランザクション外での入力削除")
	}
	if p.pending == nil || p.pending.ID() != d.ID() {
		return fmt.Errorf("入力 %s はセッションに存在しない", d.ID())
	}
	p.pending = nil
	return nil
}

// ActiveInput はコミット済みの入力を返す
func (p *MJPEGPipeline) ActiveInput() (Device, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.input == nil {
		return nil, false
	}
	return p.input, true
}

// startCaptureLocked は指定デバイスでキャプチャゴルーチンを起動する
// 呼び出し側がp.muを保持していること
func (p *MJPEGPipeline) startCaptureLocked(devicePath string) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.captureCancel = cancel
	p.captureDone = done

	go p.captureLoop(ctx, devicePath, done)
}

// stopCaptureLocked は進行中のキャプチャを停止して終了を待つ
// 呼び出し側がp.muを保持していること
func (p *MJPEGPipeline) stopCaptureLocked() {
	if p.captureCancel == nil {
		return
	}
	p.captureCancel()
	<-p.captureDone
	p.captureCancel = nil
	p.captureDone = nil
}

// captureLoop はffmpegでMJPEGストリームを読み取りフレームに分割する
func (p *MJPEGPipeline) captureLoop(ctx context.Context, devicePath string, done chan struct{}) {
	defer close(done)

	cmd := exec.CommandContext(ctx,
		"ffmpeg",
		"-f", "v4l2",
		"-video_size", fmt.Sprintf("%dx%d", p.width, p.height),
		"-r", strconv.Itoa(p.fps),
		"-i", devicePath,
		"-f", "image2pipe",
		"-c:v", "mjpeg",
		"-q:v", "3",
		"-",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		log.Printf("stdoutパイプの作成に失敗: %v", err)
		return
	}

	if err := cmd.Start(); err != nil {
		log.Printf("ffmpegの起動に失敗: %v", err)
		return
	}
	defer func() {
		_ = cmd.Wait() // コンテキストキャンセル時のエラーは無視
	}()

	buffer := make([]byte, 1024*1024)
	frameBuffer := bytes.Buffer{}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := stdout.Read(buffer)
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("フレーム読み取りエラー: %v", err)
			}
			return
		}

		frameBuffer.Write(buffer[:n])

		// JPEGマーカーでフレームを分割
		data := frameBuffer.Bytes()
		for {
			// 開始マーカー（FF D8）を探す
			startIdx := bytes.Index(data, []byte{0xFF, 0xD8})
			if startIdx == -1 {
				break
			}

			// 終了マーカー（FF D9）を探す
			endIdx := bytes.Index(data[startIdx+2:], []byte{0xFF, 0xD9})
			if endIdx == -1 {
				// 完全なフレームがまだない
				if startIdx > 0 {
					frameBuffer.Reset()
					frameBuffer.Write(data[startIdx:])
				}
				break
			}

			endIdx += startIdx + 2 + 2
			frame := make([]byte, endIdx)
			copy(frame, data[:endIdx])

			p.publish(frame)

			remaining := data[endIdx:]
			frameBuffer.Reset()
			if len(remaining) > 0 {
				frameBuffer.Write(remaining)
				data = frameBuffer.Bytes()
			} else {
				break
			}
		}
	}
}

// publish はフレームをチャンネルに送る
// チャンネルがフルの場合は最も古いフレームを破棄する
func (p *MJPEGPipeline) publish(frame []byte) {
	select {
	case p.frames <- frame:
	default:
		select {
		case <-p.frames:
		default:
		}
		select {
		case p.frames <- frame:
		default:
		}
	}
}

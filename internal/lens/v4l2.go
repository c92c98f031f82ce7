package lens

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"os/exec"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// rampStepInterval はランプエミュレーションの刻み間隔
const rampStepInterval = 50 * time.Millisecond

// V4L2Device はv4l2-ctlコマンドを使ってUVCカメラのズームを制御するDevice実装
// ネイティブズーム係数は zoom_absolute コントロールの生の値に対応する
type V4L2Device struct {
	devicePath string
	kind       Kind

	mu         sync.Mutex
	locked     bool
	rampCancel context.CancelFunc
}

// NewV4L2Device は新しいV4L2Deviceを作成する
func NewV4L2Device(devicePath string, kind Kind) *V4L2Device {
	return &V4L2Device{devicePath: devicePath, kind: kind}
}

// ID はデバイスパスを返す
func (d *V4L2Device) ID() string { return d.devicePath }

// Kind は割り当てられたレンズ種別を返す
func (d *V4L2Device) Kind() Kind { return d.kind }

// ZoomBounds はzoom_absoluteコントロールの範囲を取得する
func (d *V4L2Device) ZoomBounds(ctx context.Context) (float64, float64, error) {
	cmd := exec.CommandContext(ctx, "v4l2-ctl", "--device", d.devicePath, "--list-ctrls")
	output, err := cmd.Output()
	if err != nil {
		return 0, 0, fmt.Errorf("コントロール一覧の取得に失敗: %w", err)
	}

	min, max, err := parseZoomBounds(string(output))
	if err != nil {
		return 0, 0, fmt.Errorf("デバイス %s: %w", d.devicePath, err)
	}
	return min, max, nil
}

// LockForConfiguration は設定の排他ロックを取得する
// V4L2にはセッションロックがないためプロセス内で排他を模倣する
func (d *V4L2Device) LockForConfiguration() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.locked {
		return fmt.Errorf("デバイス %s は既にロックされています", d.devicePath)
	}
	d.locked = true
	return nil
}

// Unlock は設定ロックを解放する
func (d *V4L2Device) Unlock() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.locked = false
}

// SetZoom はzoom_absoluteコントロールに値を即時適用する
// 進行中のランプは破棄される
func (d *V4L2Device) SetZoom(ctx context.Context, native float64) error {
	d.cancelRamp()
	return d.setRaw(ctx, int(math.Round(native)))
}

// RampZoom は目標値への段階的な遷移を開始して即座に戻る
// rate はネイティブ単位/秒。後続のSetZoom/RampZoomが遷移を上書きする
func (d *V4L2Device) RampZoom(ctx context.Context, native float64, rate float64) error {
	current, err := d.currentZoom(ctx)
	if err != nil {
		return err
	}

	target := math.Round(native)
	if rate <= 0 || math.Abs(target-current) < 1 {
		d.cancelRamp()
		return d.setRaw(ctx, int(target))
	}

	d.mu.Lock()
	if d.rampCancel != nil {
		d.rampCancel()
	}
	rampCtx, cancel := context.WithCancel(context.Background())
	d.rampCancel = cancel
	d.mu.Unlock()

	go d.runRamp(rampCtx, current, target, rate)
	return nil
}

// runRamp は刻み間隔ごとにzoom_absoluteを目標値へ近付ける
func (d *V4L2Device) runRamp(ctx context.Context, from, to, rate float64) {
	step := rate * rampStepInterval.Seconds()
	if to < from {
		step = -step
	}

	ticker := time.NewTicker(rampStepInterval)
	defer ticker.Stop()

	value := from
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			value += step
			done := (step > 0 && value >= to) || (step < 0 && value <= to)
			if done {
				value = to
			}
			if err := d.setRaw(ctx, int(math.Round(value))); err != nil {
				log.Printf("ズームランプの適用に失敗: %v", err)
				return
			}
			if done {
				return
			}
		}
	}
}

// cancelRamp は進行中のランプを中断する
func (d *V4L2Device) cancelRamp() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.rampCancel != nil {
		d.rampCancel()
		d.rampCancel = nil
	}
}

// setRaw はzoom_absoluteコントロールに生の値を書き込む
func (d *V4L2Device) setRaw(ctx context.Context, value int) error {
	cmd := exec.CommandContext(ctx, "v4l2-ctl", "--device", d.devicePath,
		"--set-ctrl", fmt.Sprintf("zoom_absolute=%d", value))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("zoom_absolute=%d の設定に失敗: %w", value, err)
	}
	return nil
}

// currentZoom はzoom_absoluteコントロールの現在値を取得する
func (d *V4L2Device) currentZoom(ctx context.Context) (float64, error) {
	cmd := exec.CommandContext(ctx, "v4l2-ctl", "--device", d.devicePath, "--get-ctrl", "zoom_absolute")
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("zoom_absoluteの取得に失敗: %w", err)
	}
	return parseZoomValue(string(output))
}

// zoomCtrlRe はv4l2-ctl --list-ctrls のzoom_absolute行にマッチする
var zoomCtrlRe = regexp.MustCompile(`zoom_absolute\s.*?min=(-?\d+)\s+max=(-?\d+)`)

// parseZoomBounds は --list-ctrls の出力からzoom_absoluteの範囲を抽出する
func parseZoomBounds(output string) (float64, float64, error) {
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, "zoom_absolute") {
			continue
		}
		matches := zoomCtrlRe.FindStringSubmatch(line)
		if len(matches) < 3 {
			return 0, 0, fmt.Errorf("zoom_absolute行の解析に失敗: %q", strings.TrimSpace(line))
		}
		min, err := strconv.ParseFloat(matches[1], 64)
		if err != nil {
			return 0, 0, fmt.Errorf("minの解析に失敗: %w", err)
		}
		max, err := strconv.ParseFloat(matches[2], 64)
		if err != nil {
			return 0, 0, fmt.Errorf("maxの解析に失敗: %w", err)
		}
		return min, max, nil
	}
	return 0, 0, fmt.Errorf("zoom_absoluteコントロールが見つかりません")
}

// parseZoomValue は --get-ctrl の出力から現在値を抽出する
func parseZoomValue(output string) (float64, error) {
	parts := strings.SplitN(output, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("--get-ctrl出力の解析に失敗: %q", strings.TrimSpace(output))
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, fmt.Errorf("zoom_absolute値の解析に失敗: %w", err)
	}
	return value, nil
}

// V4L2Assignment は物理デバイスへのレンズ種別の割り当て
type V4L2Assignment struct {
	DevicePath string
	Kind       Kind
}

// V4L2Discovery は設定で割り当てられたV4L2デバイスを検出するDiscovery実装
// レンズ種別と光学的な並びはUVCからは得られないため割り当てに従う
type V4L2Discovery struct {
	assignments map[Position][]V4L2Assignment
}

// NewV4L2Discovery は新しいV4L2Discoveryを作成する
func NewV4L2Discovery(assignments map[Position][]V4L2Assignment) *V4L2Discovery {
	return &V4L2Discovery{assignments: assignments}
}

// ScanLenses は割り当てのうち実際に利用可能なデバイスを光学順で返す
// ズーム制御を持たないデバイスと存在しないデバイスはスキップされる
func (v *V4L2Discovery) ScanLenses(ctx context.Context, pos Position) ([]Device, error) {
	var devices []Device
	for _, a := range v.assignments[pos] {
		select {
		case <-ctx.Done():
			return devices, ctx.Err()
		default:
		}

		if _, err := os.Stat(a.DevicePath); os.IsNotExist(err) {
			log.Printf("デバイス %s が存在しないためスキップ", a.DevicePath)
			continue
		}
		if !hasZoomControl(ctx, a.DevicePath) {
			log.Printf("デバイス %s はズーム制御を持たないためスキップ", a.DevicePath)
			continue
		}
		devices = append(devices, NewV4L2Device(a.DevicePath, a.Kind))
	}

	sort.Slice(devices, func(i, j int) bool {
		ri, _ := RankOf(devices[i].Kind())
		rj, _ := RankOf(devices[j].Kind())
		return ri < rj
	})

	return devices, nil
}

// SwitchOverFactors はV4L2では提供されないため常に空を返す
func (v *V4L2Discovery) SwitchOverFactors(_ context.Context, _ Position) ([]float64, error) {
	return nil, nil
}

// hasZoomControl はデバイスがzoom_absoluteコントロールを持つかチェックする
func hasZoomControl(ctx context.Context, devicePath string) bool {
	cmd := exec.CommandContext(ctx, "v4l2-ctl", "--device", devicePath, "--list-ctrls")
	output, err := cmd.Output()
	if err != nil {
		return false
	}
	return strings.Contains(string(output), "zoom_absolute")
}

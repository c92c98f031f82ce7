package lens

import (
	"context"
	"fmt"
	"sync"
)

// MockDevice はテスト用のレンズデバイス実装
// ズーム操作を記録し、失敗の注入と同時実行の検出を提供する
type MockDevice struct {
	mu          sync.Mutex
	id          string
	kind        Kind
	min, max    float64
	zoom        float64
	zoomLog     []float64
	rampLog     []float64
	locked      bool
	lockCount   int
	inFlight    int
	maxInFlight int

	// LockErr が非 nil の場合 LockForConfiguration は失敗する
	LockErr error
	// ZoomErr が非 nil の場合 SetZoom/RampZoom は失敗する
	ZoomErr error
	// BoundsErr が非 nil の場合 ZoomBounds は失敗する
	BoundsErr error
	// Gate が非 nil の場合、ズーム操作はクローズされるまでブロックする
	Gate chan struct{}
}

// NewMockDevice はモックデバイスを生成する
func NewMockDevice(id string, kind Kind, min, max float64) *MockDevice {
	return &MockDevice{id: id, kind: kind, min: min, max: max, zoom: min}
}

// ID はデバイス識別子を返す
func (d *MockDevice) ID() string { return d.id }

// Kind はレンズ種別を返す
func (d *MockDevice) Kind() Kind { return d.kind }

// ZoomBounds は設定されたネイティブズーム範囲を返す
func (d *MockDevice) ZoomBounds(ctx context.Context) (float64, float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.BoundsErr != nil {
		return 0, 0, d.BoundsErr
	}
	return d.min, d.max, nil
}

// SetBounds はデバイスが申告するズーム範囲を差し替える
// 再アクティブ化で範囲が更新されることの検証に使う
func (d *MockDevice) SetBounds(min, max float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.min, d.max = min, max
}

// LockForConfiguration は設定ロックを取得する
func (d *MockDevice) LockForConfiguration() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.LockErr != nil {
		return d.LockErr
	}
	d.locked = true
	d.lockCount++
	return nil
}

// Unlock は設定ロックを解放する
func (d *MockDevice) Unlock() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.locked = false
}

// SetZoom はネイティブズーム係数を記録する
// Gate が設定されている場合はクローズまたは ctx 終了までブロックする
func (d *MockDevice) SetZoom(ctx context.Context, native float64) error {
	if err := d.enter(ctx); err != nil {
		return err
	}
	defer d.leave()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ZoomErr != nil {
		return d.ZoomErr
	}
	d.zoom = native
	d.zoomLog = append(d.zoomLog, native)
	return nil
}

// RampZoom はネイティブズーム係数への遷移を記録し即時適用する
func (d *MockDevice) RampZoom(ctx context.Context, native float64, rate float64) error {
	if err := d.enter(ctx); err != nil {
		return err
	}
	defer d.leave()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ZoomErr != nil {
		return d.ZoomErr
	}
	d.zoom = native
	d.zoomLog = append(d.zoomLog, native)
	d.rampLog = append(d.rampLog, rate)
	return nil
}

func (d *MockDevice) enter(ctx context.Context) error {
	d.mu.Lock()
	d.inFlight++
	if d.inFlight > d.maxInFlight {
		d.maxInFlight = d.inFlight
	}
	gate := d.Gate
	d.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			d.leave()
			return ctx.Err()
		}
	}
	return nil
}

func (d *MockDevice) leave() {
	d.mu.Lock()
	d.inFlight--
	d.mu.Unlock()
}

// Zoom は最後に適用されたネイティブズーム係数を返す
func (d *MockDevice) Zoom() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.zoom
}

// ZoomLog は適用されたネイティブズーム係数の履歴を返す
func (d *MockDevice) ZoomLog() []float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]float64, len(d.zoomLog))
	copy(out, d.zoomLog)
	return out
}

// RampLog は RampZoom に渡された速度の履歴を返す
func (d *MockDevice) RampLog() []float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]float64, len(d.rampLog))
	copy(out, d.rampLog)
	return out
}

// LockCount は LockForConfiguration の成功回数を返す
func (d *MockDevice) LockCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lockCount
}

// Locked は設定ロックが保持中かを返す
func (d *MockDevice) Locked() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.locked
}

// MaxInFlight はズーム操作の最大同時実行数を返す
// 直列化が守られていれば常に1以下となる
func (d *MockDevice) MaxInFlight() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.maxInFlight
}

// InFlight は現在実行中のズーム操作数を返す
func (d *MockDevice) InFlight() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inFlight
}

// MockSession はテスト用のキャプチャセッション実装
// 構成トランザクションの規律と入力が常に1つ以下であることを強制する
type MockSession struct {
	mu          sync.Mutex
	input       Device
	configuring bool
	beginCount  int
	commitCount int
	addedIDs    []string

	// AddErrFor はデバイスIDごとに AddInput の失敗を注入する
	AddErrFor map[string]error
	// RemoveErr が非 nil の場合 RemoveInput は失敗する
	RemoveErr error
	// FailCommits が正の場合、その回数だけ CommitConfiguration が失敗する
	FailCommits int
}

// NewMockSession はモックセッションを生成する
func NewMockSession() *MockSession {
	return &MockSession{AddErrFor: make(map[string]error)}
}

// BeginConfiguration は構成トランザクションを開始する
func (s *MockSession) BeginConfiguration() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.configuring {
		return fmt.Errorf("構成トランザクションが既に進行中")
	}
	s.configuring = true
	s.beginCount++
	return nil
}

// CommitConfiguration は構成トランザクションを確定する
// 有効な入力が存在しない場合は失敗する
func (s *MockSession) CommitConfiguration() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.configuring {
		return fmt.Errorf("構成トランザクションが開始されていない")
	}
	if s.FailCommits > 0 {
		s.FailCommits--
		return fmt.Errorf("構成のコミットに失敗")
	}
	if s.input == nil {
		return fmt.Errorf("入力が存在しない状態でのコミット")
	}
	s.configuring = false
	s.commitCount++
	return nil
}

// AddInput はデバイスをセッションの入力に設定する
func (s *MockSession) AddInput(d Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.configuring {
		return fmt.Errorf("構成トランザクション外での入力追加")
	}
	if s.input != nil {
		return fmt.Errorf("入力 %s が既に存在", s.input.ID())
	}
	if err, ok := s.AddErrFor[d.ID()]; ok && err != nil {
		return err
	}
	s.input = d
	s.addedIDs = append(s.addedIDs, d.ID())
	return nil
}

// RemoveInput は現在の入力を取り除く
func (s *MockSession) RemoveInput(d Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.configuring {
		return fmt.Errorf("構成トランザクション外での入力削除")
	}
	if s.RemoveErr != nil {
		return s.RemoveErr
	}
	if s.input == nil || s.input.ID() != d.ID() {
		return fmt.Errorf("入力 %s はセッションに存在しない", d.ID())
	}
	s.input = nil
	return nil
}

// ActiveInput は現在の入力を返す
func (s *MockSession) ActiveInput() (Device, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.input == nil {
		return nil, false
	}
	return s.input, true
}

// AddedIDs は AddInput に成功したデバイスIDの履歴を返す
func (s *MockSession) AddedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.addedIDs))
	copy(out, s.addedIDs)
	return out
}

// CommitCount は CommitConfiguration の成功回数を返す
func (s *MockSession) CommitCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitCount
}

// Configuring は構成トランザクションが進行中かを返す
func (s *MockSession) Configuring() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.configuring
}

// MockDiscovery はテスト用のレンズ検出実装
type MockDiscovery struct {
	mu sync.Mutex

	// Devices はカメラ位置ごとの検出結果
	Devices map[Position][]Device
	// Factors はカメラ位置ごとの切り替え係数
	Factors map[Position][]float64
	// ScanErr が非 nil の場合 ScanLenses は失敗する
	ScanErr error
}

// NewMockDiscovery はモック検出を生成する
func NewMockDiscovery() *MockDiscovery {
	return &MockDiscovery{
		Devices: make(map[Position][]Device),
		Factors: make(map[Position][]float64),
	}
}

// ScanLenses は設定された検出結果を返す
func (m *MockDiscovery) ScanLenses(ctx context.Context, pos Position) ([]Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ScanErr != nil {
		return nil, m.ScanErr
	}
	out := make([]Device, len(m.Devices[pos]))
	copy(out, m.Devices[pos])
	return out, nil
}

// SwitchOverFactors は設定された切り替え係数を返す
func (m *MockDiscovery) SwitchOverFactors(ctx context.Context, pos Position) ([]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]float64, len(m.Factors[pos]))
	copy(out, m.Factors[pos])
	return out, nil
}

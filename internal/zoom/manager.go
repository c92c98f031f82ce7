package zoom

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"

	"sangan/internal/lens"
)

// Manager はカメラ位置ごとのズームセッションのライフサイクルを管理する
// 位置の切り替えはレンズ構成が全く別物になるため、セッション全体を
// 破棄して新しいセッションIDで作り直す
type Manager struct {
	session   lens.Session
	discovery lens.Discovery
	params    Params

	mu         sync.RWMutex
	controller *Controller
	closed     bool
}

// NewManager は新しいManagerを作成する
func NewManager(session lens.Session, discovery lens.Discovery, params Params) *Manager {
	return &Manager{session: session, discovery: discovery, params: params}
}

// Start は初期位置のズームセッションを構築する
func (m *Manager) Start(ctx context.Context) error {
	pos := m.params.Position
	if !pos.IsValid() {
		return fmt.Errorf("未知のカメラ位置: %s", pos)
	}

	ctrl, err := m.build(ctx, pos)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.controller = ctrl
	m.mu.Unlock()

	log.Printf("ズームセッションを開始: 位置=%s レンズ=%d種", pos, len(ctrl.Profiles()))
	return nil
}

// SwitchPosition はカメラ位置を切り替える
// 現在のセッションを閉じ、新しい位置のレンズ構成で作り直す
func (m *Manager) SwitchPosition(ctx context.Context, pos lens.Position) error {
	if !pos.IsValid() {
		return fmt.Errorf("未知のカメラ位置: %s", pos)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.controller != nil && m.controller.Snapshot().Position == pos {
		return nil // 既にその位置で稼働中
	}

	if m.controller != nil {
		m.controller.Close()
		m.controller = nil
	}

	ctrl, err := m.build(ctx, pos)
	if err != nil {
		return fmt.Errorf("位置 %s のセッション構築に失敗: %w", pos, err)
	}
	m.controller = ctrl

	log.Printf("カメラ位置を切り替え: %s", pos)
	return nil
}

// build は指定位置のレンズ構成からコントローラ一式を構築する
func (m *Manager) build(ctx context.Context, pos lens.Position) (*Controller, error) {
	specs := m.params.Lenses[pos]
	if len(specs) == 0 {
		return nil, fmt.Errorf("位置 %s にレンズが設定されていない: %w", pos, ErrNoLenses)
	}

	devices, err := m.discovery.ScanLenses(ctx, pos)
	if err != nil {
		return nil, fmt.Errorf("レンズ検出に失敗: %w", err)
	}

	// 検出されたデバイスと設定を突き合わせてプロファイルを作る
	// 設定済みでも検出されなかったレンズは構成から外れ、
	// 到達可能なズーム範囲が狭まるだけで異常にはしない
	specByKind := make(map[lens.Kind]LensSpec, len(specs))
	for _, s := range specs {
		specByKind[s.Kind] = s
	}

	var profiles []lens.Profile
	for _, d := range devices {
		spec, ok := specByKind[d.Kind()]
		if !ok {
			log.Printf("レンズ %s (%s) は設定がないため無視", d.Kind(), d.ID())
			continue
		}

		nativeMin, nativeMax := spec.NativeMin, spec.NativeMax
		if devMin, devMax, err := d.ZoomBounds(ctx); err == nil {
			nativeMin, nativeMax = devMin, devMax
		} else {
			log.Printf("デバイス %s のズーム範囲取得に失敗、設定値を使用: %v", d.ID(), err)
		}

		p := lens.Profile{Kind: d.Kind(), Scaler: spec.Scaler, NativeMin: nativeMin, NativeMax: nativeMax}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("レンズ構成が不正: %w", err)
		}
		profiles = append(profiles, p)
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("位置 %s で利用可能なレンズが検出されなかった: %w", pos, ErrNoLenses)
	}

	sort.Slice(profiles, func(i, j int) bool {
		ri, _ := lens.RankOf(profiles[i].Kind)
		rj, _ := lens.RankOf(profiles[j].Kind)
		return ri < rj
	})

	present := make([]lens.Kind, 0, len(profiles))
	for _, p := range profiles {
		present = append(present, p.Kind)
	}

	table, err := m.thresholdTable(ctx, pos, present)
	if err != nil {
		return nil, err
	}

	initial := pickInitialLens(profiles)
	initialProfile, _ := profileFor(profiles, initial)
	initialUI := initialProfile.ClampUI(1.0)
	rangeMin, rangeMax := uiRange(profiles)

	store := newStateStore(State{
		SessionID:     uuid.New().String(),
		Position:      pos,
		ActiveLens:    initial,
		CurrentUIZoom: initialUI,
		UIRangeMin:    rangeMin,
		UIRangeMax:    rangeMax,
	})
	actuator := NewActuator(store)
	coord := NewCoordinator(m.session, m.discovery, actuator, store, pos, profiles,
		m.params.RampRate, m.params.Presoften)
	ctrl := NewController(coord, actuator, store, table, m.params.RampRate)

	// 初期レンズをアクティブ化する。セッションに旧位置の入力が
	// 残っていればこの切り替えで外される
	if err := coord.SwitchTo(ctx, initial, initialUI); err != nil {
		store.Close()
		return nil, fmt.Errorf("初期レンズ %s のアクティブ化に失敗: %w", initial, err)
	}

	ctrl.Start()
	return ctrl, nil
}

// thresholdTable は明示設定または切替係数からテーブルを構築する
func (m *Manager) thresholdTable(ctx context.Context, pos lens.Position, present []lens.Kind) (ThresholdTable, error) {
	if len(m.params.Thresholds) > 0 {
		return TableFor(present, m.params.Thresholds)
	}

	// 設定上の全レンズ構成に対して境界を導出してから現構成へ橋渡しする
	specs := m.params.Lenses[pos]
	order := make([]lens.Kind, 0, len(specs))
	standardScaler := 1.0
	for _, s := range specs {
		order = append(order, s.Kind)
		if s.Kind == lens.KindWide {
			standardScaler = s.Scaler
		}
	}
	sort.Slice(order, func(i, j int) bool {
		ri, _ := lens.RankOf(order[i])
		rj, _ := lens.RankOf(order[j])
		return ri < rj
	})

	switchOvers, err := m.discovery.SwitchOverFactors(ctx, pos)
	if err != nil || len(switchOvers) == 0 {
		if err != nil {
			log.Printf("切替係数の取得に失敗、設定値を使用: %v", err)
		}
		switchOvers = m.params.SwitchOvers[pos]
	}

	full, err := DeriveThresholds(order, switchOvers, standardScaler, m.params.Padding)
	if err != nil {
		return ThresholdTable{}, fmt.Errorf("切り替え境界の導出に失敗: %w", err)
	}
	return TableFor(present, full)
}

// pickInitialLens は初期アクティブレンズを選ぶ
// 論理ズーム1.0を含むレンズを優先し(標準レンズを最優先)、
// どのレンズも含まない場合は1.0に最も近い範囲のレンズを選ぶ
func pickInitialLens(profiles []lens.Profile) lens.Kind {
	for _, p := range profiles {
		if p.Kind == lens.KindWide && p.ContainsUI(1.0) {
			return p.Kind
		}
	}
	for _, p := range profiles {
		if p.ContainsUI(1.0) {
			return p.Kind
		}
	}

	best := profiles[0].Kind
	bestDist := math.Inf(1)
	for _, p := range profiles {
		d := math.Min(math.Abs(p.UIMin()-1.0), math.Abs(p.UIMax()-1.0))
		if d < bestDist {
			bestDist = d
			best = p.Kind
		}
	}
	return best
}

// profileFor は指定レンズのプロファイルを探す
func profileFor(profiles []lens.Profile, k lens.Kind) (lens.Profile, bool) {
	for _, p := range profiles {
		if p.Kind == k {
			return p, true
		}
	}
	return lens.Profile{}, false
}

// Request は現在のセッションへズーム要求を委譲する
func (m *Manager) Request(ui float64, mode TransitionMode) (RequestOutcome, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed || m.controller == nil {
		return OutcomeDropped, ErrClosed
	}
	return m.controller.Request(ui, mode), nil
}

// Snapshot は現在のズーム状態を返す
func (m *Manager) Snapshot() (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed || m.controller == nil {
		return State{}, ErrClosed
	}
	return m.controller.Snapshot(), nil
}

// Profiles は現在のレンズ構成を光学順で返す
func (m *Manager) Profiles() ([]lens.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed || m.controller == nil {
		return nil, ErrClosed
	}
	return m.controller.Profiles(), nil
}

// PresetStops は各レンズの論理ズーム下限を光学順で返す
func (m *Manager) PresetStops() ([]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed || m.controller == nil {
		return nil, ErrClosed
	}
	return m.controller.PresetStops(), nil
}

// Thresholds は使用中の切り替え境界を返す
func (m *Manager) Thresholds() ([]SwitchThreshold, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed || m.controller == nil {
		return nil, ErrClosed
	}
	return m.controller.Thresholds(), nil
}

// Subscribe は状態変更の購読を開始する
// 返されたチャンネルは位置切り替え時に閉じられるため、
// 購読者は再購読によって新しいセッションへ追従する
func (m *Manager) Subscribe() (int, <-chan State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed || m.controller == nil {
		return -1, nil, ErrClosed
	}
	id, ch := m.controller.Subscribe()
	return id, ch, nil
}

// Unsubscribe は購読を解除する。位置切り替え後の古いIDは無視される
func (m *Manager) Unsubscribe(id int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.controller != nil {
		m.controller.Unsubscribe(id)
	}
}

// Close はセッションを終了する
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	if m.controller != nil {
		m.controller.Close()
		m.controller = nil
	}
}

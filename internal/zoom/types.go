package zoom

import (
	"errors"
	"fmt"

	"sangan/internal/lens"
)

// TransitionMode はズーム適用の遷移種別を表す
type TransitionMode string

const (
	// ModeInstant は連続ジェスチャ由来の即時適用
	ModeInstant TransitionMode = "instant"
	// ModeSmooth はプリセット選択由来のランプ適用
	ModeSmooth TransitionMode = "smooth"
)

// IsValid は既知の遷移種別かどうかを返す
func (m TransitionMode) IsValid() bool {
	return m == ModeInstant || m == ModeSmooth
}

// RequestOutcome はズーム要求の受理結果を表す
type RequestOutcome string

const (
	// OutcomeZoom は同一レンズ内でのズーム適用として受理された
	OutcomeZoom RequestOutcome = "zoom"
	// OutcomeSwitch はレンズ切り替えとして受理された
	OutcomeSwitch RequestOutcome = "switch"
	// OutcomeDropped は再構成中などの理由で破棄された
	OutcomeDropped RequestOutcome = "dropped"
)

// 検証可能な失敗種別。呼び出し側は errors.Is で判別できる
var (
	// ErrReconfiguring はレンズ再構成が進行中であることを示す
	ErrReconfiguring = errors.New("レンズ再構成が進行中")
	// ErrLensUnavailable は対象レンズが検出されなかったことを示す
	ErrLensUnavailable = errors.New("対象レンズが利用できない")
	// ErrConfigurationLock はデバイス設定ロックの取得失敗を示す
	ErrConfigurationLock = errors.New("デバイス設定ロックの取得に失敗")
	// ErrInputSwap はセッション入力の入れ替え失敗を示す
	ErrInputSwap = errors.New("セッション入力の入れ替えに失敗")
	// ErrNoLenses は利用可能なレンズが1つもないことを示す
	ErrNoLenses = errors.New("利用可能なレンズがない")
	// ErrClosed はズームセッションが終了済みであることを示す
	ErrClosed = errors.New("ズームセッションは終了済み")
)

// SwitchThreshold は隣接レンズ対のヒステリシス境界
// 上側レンズで DownUI 以下の要求は下側へ、下側レンズで UpUI 以上の
// 要求は上側へ切り替わる。(DownUI, UpUI) の内側では現状を維持する
type SwitchThreshold struct {
	Lower  lens.Kind `json:"lower"`   // 光学順で下側のレンズ
	Upper  lens.Kind `json:"upper"`   // 光学順で上側のレンズ
	DownUI float64   `json:"down_ui"` // 下方向切り替えの論理ズーム境界
	UpUI   float64   `json:"up_ui"`   // 上方向切り替えの論理ズーム境界
}

// Validate は境界の妥当性を検証する
// バンドが空(UpUI <= DownUI)だと境界値ちょうどで振動するため拒否する
func (t SwitchThreshold) Validate() error {
	if !t.Lower.IsValid() || !t.Upper.IsValid() {
		return fmt.Errorf("未知のレンズ種別を含む境界: %s-%s", t.Lower, t.Upper)
	}
	lowerRank, _ := lens.RankOf(t.Lower)
	upperRank, _ := lens.RankOf(t.Upper)
	if lowerRank >= upperRank {
		return fmt.Errorf("境界 %s-%s の光学順序が不正", t.Lower, t.Upper)
	}
	if t.UpUI <= t.DownUI {
		return fmt.Errorf("境界 %s-%s のヒステリシスバンドが空: down=%g up=%g",
			t.Lower, t.Upper, t.DownUI, t.UpUI)
	}
	return nil
}

// ThresholdTable は現在のレンズ構成における切り替え境界の集合
type ThresholdTable struct {
	thresholds []SwitchThreshold
}

// NewThresholdTable は境界一覧からテーブルを構築する
func NewThresholdTable(ts []SwitchThreshold) (ThresholdTable, error) {
	for _, t := range ts {
		if err := t.Validate(); err != nil {
			return ThresholdTable{}, err
		}
	}
	out := make([]SwitchThreshold, len(ts))
	copy(out, ts)
	return ThresholdTable{thresholds: out}, nil
}

// Above は指定レンズから上側への切り替え境界を返す
func (tbl ThresholdTable) Above(k lens.Kind) (SwitchThreshold, bool) {
	for _, t := range tbl.thresholds {
		if t.Lower == k {
			return t, true
		}
	}
	return SwitchThreshold{}, false
}

// Below は指定レンズから下側への切り替え境界を返す
func (tbl ThresholdTable) Below(k lens.Kind) (SwitchThreshold, bool) {
	for _, t := range tbl.thresholds {
		if t.Upper == k {
			return t, true
		}
	}
	return SwitchThreshold{}, false
}

// Thresholds は境界一覧のコピーを返す
func (tbl ThresholdTable) Thresholds() []SwitchThreshold {
	out := make([]SwitchThreshold, len(tbl.thresholds))
	copy(out, tbl.thresholds)
	return out
}

// State はズームセッションの観測スナップショット
// 値型であり、取得側は常にコピーを受け取る
type State struct {
	SessionID     string        `json:"session_id"`      // 位置切替ごとに再発行される
	Position      lens.Position `json:"position"`        // カメラ位置
	ActiveLens    lens.Kind     `json:"active_lens"`     // アクティブレンズ
	CurrentUIZoom float64       `json:"current_ui_zoom"` // 論理ズーム現在値(楽観的更新)
	Reconfiguring bool          `json:"reconfiguring"`   // レンズ再構成が進行中か
	UIRangeMin    float64       `json:"ui_range_min"`    // 到達可能な論理ズーム下限
	UIRangeMax    float64       `json:"ui_range_max"`    // 到達可能な論理ズーム上限
}

// LensSpec は設定で宣言された1レンズの静的情報
type LensSpec struct {
	Kind      lens.Kind
	Scaler    float64
	NativeMin float64 // デバイス問い合わせ失敗時の既定範囲
	NativeMax float64
}

// Params はズームセッション構築に必要な設定値
type Params struct {
	Position    lens.Position
	Lenses      map[lens.Position][]LensSpec
	SwitchOvers map[lens.Position][]float64 // プラットフォーム未申告時の切替係数
	Thresholds  []SwitchThreshold           // 明示指定(空なら切替係数から導出)
	RampRate    float64                     // ランプ速度(ネイティブ単位/秒)
	Padding     float64                     // 導出境界のヒステリシス幅
	Presoften   bool                        // 切り替え前の軟化ランプを行うか
}

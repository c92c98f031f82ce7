package zoom

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"

	"sangan/internal/lens"
)

// Coordinator はレンズ切り替えの唯一の実行者であり、
// キャプチャセッションへの入力変更を独占する
// どの失敗経路でもセッションを有効な入力なしで放置しない
type Coordinator struct {
	session   lens.Session
	discovery lens.Discovery
	actuator  *Actuator
	store     *stateStore
	position  lens.Position
	rampRate  float64
	presoften bool

	mu        sync.RWMutex
	switching bool
	active    lens.Device
	profiles  map[lens.Kind]lens.Profile
}

// NewCoordinator は新しいCoordinatorを作成する
func NewCoordinator(session lens.Session, discovery lens.Discovery, actuator *Actuator,
	store *stateStore, position lens.Position, profiles []lens.Profile,
	rampRate float64, presoften bool) *Coordinator {

	byKind := make(map[lens.Kind]lens.Profile, len(profiles))
	for _, p := range profiles {
		byKind[p.Kind] = p
	}
	return &Coordinator{
		session:   session,
		discovery: discovery,
		actuator:  actuator,
		store:     store,
		position:  position,
		profiles:  byKind,
		rampRate:  rampRate,
		presoften: presoften,
	}
}

// SwitchTo は指定レンズへの切り替えを実行し、着地ズームを適用する
// 初回呼び出し(アクティブなし)では初期入力の追加として動作する
//
// 手順: 切り替え先の解決 → 軟化ランプ → 構成トランザクション内で
// 入力を入れ替え → 新デバイスの申告範囲でプロファイル更新 → 着地ズーム。
// 入れ替えに失敗した場合は旧入力を復元してから戻る
func (c *Coordinator) SwitchTo(ctx context.Context, target lens.Kind, landingUI float64) error {
	// 再入ガード: 進行中の切り替えへ割り込む要求は即座に拒否する
	c.mu.Lock()
	if c.switching {
		c.mu.Unlock()
		return fmt.Errorf("%s へ切り替えられない: %w", target, ErrReconfiguring)
	}
	c.switching = true
	profile, known := c.profiles[target]
	alreadyActive := c.active != nil && c.active.Kind() == target
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.switching = false
		c.mu.Unlock()
	}()

	if !known {
		return fmt.Errorf("レンズ %s はこの構成に存在しない: %w", target, ErrLensUnavailable)
	}
	if alreadyActive {
		return nil
	}

	// 再構成中フラグを公開する。この間に届いた新規要求は破棄される
	c.store.Update(func(st *State) { st.Reconfiguring = true })
	defer c.store.Update(func(st *State) { st.Reconfiguring = false })

	// 入力を外す前に切り替え先デバイスを解決する
	// 検出に失敗してもセッションには一切手を触れない
	newDev, err := c.resolveDevice(ctx, target)
	if err != nil {
		return err
	}

	old, hasOld := c.session.ActiveInput()

	// 切り替え先に面した端へ旧レンズをランプし、画角ジャンプを和らげる
	if c.presoften && hasOld {
		c.soften(ctx, old, target)
	}

	if err := c.session.BeginConfiguration(); err != nil {
		return fmt.Errorf("構成トランザクションの開始に失敗: %w", err)
	}

	if hasOld {
		if err := c.session.RemoveInput(old); err != nil {
			// 旧入力は外れていないのでそのまま確定する
			if commitErr := c.session.CommitConfiguration(); commitErr != nil {
				log.Printf("ロールバック中のコミットに失敗: %v", commitErr)
			}
			return fmt.Errorf("%w: 旧入力の取り外しに失敗: %w", ErrInputSwap, err)
		}
	}

	if err := c.session.AddInput(newDev); err != nil {
		// 取り外した旧入力を復元する
		if hasOld {
			if readdErr := c.session.AddInput(old); readdErr != nil {
				log.Printf("旧入力 %s の復元に失敗: %v", old.ID(), readdErr)
				return fmt.Errorf("%w: 新入力の追加と旧入力の復元の両方に失敗: %w", ErrInputSwap, err)
			}
		}
		if commitErr := c.session.CommitConfiguration(); commitErr != nil {
			log.Printf("ロールバック中のコミットに失敗: %v", commitErr)
		}
		return fmt.Errorf("%w: 新入力の追加に失敗: %w", ErrInputSwap, err)
	}

	if err := c.session.CommitConfiguration(); err != nil {
		// コミットできない場合は入れ替えを巻き戻す
		if removeErr := c.session.RemoveInput(newDev); removeErr != nil {
			log.Printf("ロールバック中の入力削除に失敗: %v", removeErr)
		} else if hasOld {
			if readdErr := c.session.AddInput(old); readdErr != nil {
				log.Printf("旧入力 %s の復元に失敗: %v", old.ID(), readdErr)
			}
		}
		if commitErr := c.session.CommitConfiguration(); commitErr != nil {
			log.Printf("ロールバック中のコミットに失敗: %v", commitErr)
		}
		return fmt.Errorf("%w: 構成のコミットに失敗: %w", ErrInputSwap, err)
	}

	// デバイスは呼び出しごとに異なる範囲を申告し得るため、
	// アクティブ化のたびに申告範囲でプロファイルを更新する
	if devMin, devMax, err := newDev.ZoomBounds(ctx); err == nil {
		refreshed := profile.WithBounds(devMin, devMax)
		if verr := refreshed.Validate(); verr == nil {
			profile = refreshed
		} else {
			log.Printf("デバイス %s の申告範囲が不正のため設定値を維持: %v", newDev.ID(), verr)
		}
	} else {
		log.Printf("デバイス %s のズーム範囲取得に失敗、設定値を維持: %v", newDev.ID(), err)
	}

	c.mu.Lock()
	c.active = newDev
	c.profiles[target] = profile
	rangeMin, rangeMax := uiRange(c.profilesLocked())
	c.mu.Unlock()

	c.store.Update(func(st *State) {
		st.ActiveLens = target
		st.UIRangeMin = rangeMin
		st.UIRangeMax = rangeMax
	})

	// 着地ズームを新レンズへ適用する
	// ロック拒否などの一時的な失敗は切り替え自体の失敗にはしない
	if err := c.actuator.ApplyInstant(ctx, newDev, profile, landingUI); err != nil {
		log.Printf("着地ズームの適用に失敗: %v", err)
	}

	return nil
}

// resolveDevice は検出を実行して対象レンズのデバイスを返す
func (c *Coordinator) resolveDevice(ctx context.Context, target lens.Kind) (lens.Device, error) {
	devices, err := c.discovery.ScanLenses(ctx, c.position)
	if err != nil {
		return nil, fmt.Errorf("%w: レンズ検出に失敗: %w", ErrLensUnavailable, err)
	}
	for _, d := range devices {
		if d.Kind() == target {
			return d, nil
		}
	}
	return nil, fmt.Errorf("レンズ %s が検出されなかった: %w", target, ErrLensUnavailable)
}

// soften は切り替え先の方向の端まで旧レンズをランプする。ベストエフォート
func (c *Coordinator) soften(ctx context.Context, old lens.Device, target lens.Kind) {
	c.mu.RLock()
	profile, ok := c.profiles[old.Kind()]
	c.mu.RUnlock()
	if !ok {
		return
	}

	oldRank, ok1 := lens.RankOf(old.Kind())
	targetRank, ok2 := lens.RankOf(target)
	if !ok1 || !ok2 {
		return
	}

	edge := profile.NativeMax
	if targetRank < oldRank {
		edge = profile.NativeMin
	}

	if err := old.LockForConfiguration(); err != nil {
		return
	}
	defer old.Unlock()
	if err := old.RampZoom(ctx, edge, c.rampRate); err != nil {
		log.Printf("軟化ランプの開始に失敗: %v", err)
	}
}

// ActiveDevice は現在アクティブなデバイスを返す
func (c *Coordinator) ActiveDevice() (lens.Device, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.active == nil {
		return nil, false
	}
	return c.active, true
}

// Profile は指定レンズの現在のプロファイルを返す
func (c *Coordinator) Profile(k lens.Kind) (lens.Profile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.profiles[k]
	return p, ok
}

// Profiles は現在のレンズ構成を光学順で返す
func (c *Coordinator) Profiles() []lens.Profile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.profilesLocked()
}

// profilesLocked は光学順のプロファイル一覧を作る
// 呼び出し側がc.muを保持していること
func (c *Coordinator) profilesLocked() []lens.Profile {
	out := make([]lens.Profile, 0, len(c.profiles))
	for _, k := range lens.KindOrder {
		if p, ok := c.profiles[k]; ok {
			out = append(out, p)
		}
	}
	return out
}

// uiRange はレンズ構成全体で到達可能な論理ズーム範囲を返す
func uiRange(profiles []lens.Profile) (float64, float64) {
	rangeMin := math.Inf(1)
	rangeMax := math.Inf(-1)
	for _, p := range profiles {
		if p.UIMin() < rangeMin {
			rangeMin = p.UIMin()
		}
		if p.UIMax() > rangeMax {
			rangeMax = p.UIMax()
		}
	}
	if math.IsInf(rangeMin, 1) {
		return 0, 0
	}
	return rangeMin, rangeMax
}

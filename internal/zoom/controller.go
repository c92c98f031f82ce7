package zoom

import (
	"context"
	"log"
	"math"
	"sync"

	"sangan/internal/lens"
)

// zoomRequest は直列ワーカーへ渡される1件の要求
type zoomRequest struct {
	ui   float64
	mode TransitionMode
}

// Controller は論理ズーム要求の唯一の受け口
// 切り替え判定は呼び出し側ゴルーチンで同期的に行い、ハードウェア操作は
// 単一ワーカーへ直列化する。メールボックスは容量1で、滞留した要求は
// 最新の1件だけが残る(古い要求を破棄する、最新優先)
type Controller struct {
	coord    *Coordinator
	actuator *Actuator
	store    *stateStore
	table    ThresholdTable
	rampRate float64

	mailbox chan zoomRequest
	stopCh  chan struct{}
	wg      sync.WaitGroup

	mu      sync.Mutex
	started bool
	closed  bool
}

// NewController は新しいControllerを作成する。Startで稼働を開始する
func NewController(coord *Coordinator, actuator *Actuator, store *stateStore,
	table ThresholdTable, rampRate float64) *Controller {
	return &Controller{
		coord:    coord,
		actuator: actuator,
		store:    store,
		table:    table,
		rampRate: rampRate,
		mailbox:  make(chan zoomRequest, 1),
		stopCh:   make(chan struct{}),
	}
}

// Start はワーカーゴルーチンを起動する
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started || c.closed {
		return
	}
	c.started = true
	c.wg.Add(1)
	go c.run()
}

// Request は論理ズーム要求を受け付ける
// どのゴルーチンから呼んでもよく、決してブロックしない
// レンズ再構成中の要求はキューされずに破棄される
func (c *Controller) Request(ui float64, mode TransitionMode) RequestOutcome {
	if math.IsNaN(ui) {
		return OutcomeDropped
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return OutcomeDropped
	}
	c.mu.Unlock()

	snapshot := c.store.Snapshot()
	if snapshot.Reconfiguring {
		return OutcomeDropped
	}

	// 到達可能な全域へ丸め込む。範囲外はエラーではない
	if ui < snapshot.UIRangeMin {
		ui = snapshot.UIRangeMin
	}
	if ui > snapshot.UIRangeMax {
		ui = snapshot.UIRangeMax
	}

	outcome := OutcomeZoom
	if Decide(ui, snapshot.ActiveLens, c.table) != snapshot.ActiveLens {
		outcome = OutcomeSwitch
	}

	req := zoomRequest{ui: ui, mode: mode}
	select {
	case c.mailbox <- req:
	default:
		// 滞留している古い要求を破棄して最新で置き換える
		select {
		case <-c.mailbox:
		default:
		}
		select {
		case c.mailbox <- req:
		default:
		}
	}
	return outcome
}

// run は唯一のハードウェア操作ゴルーチン
func (c *Controller) run() {
	defer c.wg.Done()
	for {
		select {
		case <-c.stopCh:
			return
		case req := <-c.mailbox:
			c.execute(req)
		}
	}
}

// execute は実行時点の状態で要求を再判定して適用する
// キュー済みの切り替えが実行時点で不要になっていれば通常の適用に降格する
func (c *Controller) execute(req zoomRequest) {
	ctx := context.Background()

	snapshot := c.store.Snapshot()
	target := Decide(req.ui, snapshot.ActiveLens, c.table)

	if target != snapshot.ActiveLens {
		// 着地ズームはSwitchTo内で適用される
		if err := c.coord.SwitchTo(ctx, target, req.ui); err != nil {
			log.Printf("レンズ切り替えに失敗 (%s → %s): %v", snapshot.ActiveLens, target, err)
		}
		return
	}

	dev, ok := c.coord.ActiveDevice()
	if !ok {
		log.Printf("アクティブデバイスがないため要求を破棄: ui=%g", req.ui)
		return
	}
	profile, ok := c.coord.Profile(snapshot.ActiveLens)
	if !ok {
		log.Printf("レンズ %s のプロファイルがないため要求を破棄", snapshot.ActiveLens)
		return
	}

	var err error
	if req.mode == ModeSmooth {
		err = c.actuator.ApplySmooth(ctx, dev, profile, req.ui, c.rampRate)
	} else {
		err = c.actuator.ApplyInstant(ctx, dev, profile, req.ui)
	}
	if err != nil {
		// ロック拒否などの一時的な失敗。次の要求が自然な再試行になる
		log.Printf("ズーム適用に失敗: %v", err)
	}
}

// Snapshot は現在のズーム状態のコピーを返す
func (c *Controller) Snapshot() State {
	return c.store.Snapshot()
}

// Profiles は現在のレンズ構成を光学順で返す
func (c *Controller) Profiles() []lens.Profile {
	return c.coord.Profiles()
}

// Thresholds は使用中の切り替え境界を返す
func (c *Controller) Thresholds() []SwitchThreshold {
	return c.table.Thresholds()
}

// PresetStops は各レンズの論理ズーム下限を光学順で返す
// プリセットボタン(0.5x / 1x / 6x など)の生成に使う
func (c *Controller) PresetStops() []float64 {
	profiles := c.coord.Profiles()
	stops := make([]float64, 0, len(profiles))
	for _, p := range profiles {
		stops = append(stops, p.UIMin())
	}
	return stops
}

// Subscribe は状態変更の購読を開始する
func (c *Controller) Subscribe() (int, <-chan State) {
	return c.store.Subscribe()
}

// Unsubscribe は購読を解除する
func (c *Controller) Unsubscribe(id int) {
	c.store.Unsubscribe(id)
}

// Close はワーカーを停止し、全購読チャンネルを閉じる
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	started := c.started
	c.mu.Unlock()

	if started {
		close(c.stopCh)
		c.wg.Wait()
	}
	c.store.Close()
}

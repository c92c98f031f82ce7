package zoom

import (
	"context"
	"fmt"

	"sangan/internal/lens"
)

// Actuator はアクティブレンズへのズーム適用を担う
// ランプの完了は待たず、公開される現在値は目標値で楽観的に更新される
type Actuator struct {
	store *stateStore
}

// NewActuator は新しいActuatorを作成する
func NewActuator(store *stateStore) *Actuator {
	return &Actuator{store: store}
}

// ApplyInstant は論理ズーム値をデバイスへ即時適用する
func (a *Actuator) ApplyInstant(ctx context.Context, dev lens.Device, p lens.Profile, ui float64) error {
	return a.apply(ctx, dev, p, ui, 0, false)
}

// ApplySmooth は論理ズーム値へのランプ遷移を開始する
// rate はネイティブ単位/秒。後続の適用が進行中のランプを上書きする
func (a *Actuator) ApplySmooth(ctx context.Context, dev lens.Device, p lens.Profile, ui float64, rate float64) error {
	return a.apply(ctx, dev, p, ui, rate, true)
}

func (a *Actuator) apply(ctx context.Context, dev lens.Device, p lens.Profile, ui float64, rate float64, smooth bool) error {
	native := NativeFactor(ui, p)

	// ロック拒否は一時的な失敗として扱う。状態は変更されず、
	// 次の要求が自然に再試行となる
	if err := dev.LockForConfiguration(); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigurationLock, err)
	}
	defer dev.Unlock()

	var err error
	if smooth {
		err = dev.RampZoom(ctx, native, rate)
	} else {
		err = dev.SetZoom(ctx, native)
	}
	if err != nil {
		return fmt.Errorf("ズームの適用に失敗: %w", err)
	}

	// 楽観的更新: ランプの完了を待たず目標値を現在値として公開する
	applied := UIFactor(native, p)
	a.store.Update(func(st *State) {
		st.CurrentUIZoom = applied
	})
	return nil
}

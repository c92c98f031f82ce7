package zoom

import (
	"context"
	"errors"
	"testing"

	"sangan/internal/lens"
)

func newTestActuator() (*Actuator, *stateStore) {
	store := newStateStore(State{
		ActiveLens:    lens.KindWide,
		CurrentUIZoom: 1.0,
		UIRangeMin:    0.5,
		UIRangeMax:    15.0,
	})
	return NewActuator(store), store
}

func TestActuatorApplyInstant(t *testing.T) {
	ctx := context.Background()
	actuator, store := newTestActuator()
	dev := lens.NewMockDevice("/dev/video0", lens.KindWide, 1.0, 6.0)
	profile := lens.Profile{Kind: lens.KindWide, Scaler: 1.0, NativeMin: 1.0, NativeMax: 6.0}

	if err := actuator.ApplyInstant(ctx, dev, profile, 3.0); err != nil {
		t.Fatalf("ApplyInstant failed: %v", err)
	}

	if got := dev.Zoom(); got != 3.0 {
		t.Errorf("Expected device zoom 3.0, got %g", got)
	}
	if got := store.Snapshot().CurrentUIZoom; got != 3.0 {
		t.Errorf("Expected published zoom 3.0, got %g", got)
	}
	// 適用後にロックは解放されている
	if dev.Locked() {
		t.Error("Device should be unlocked after apply")
	}
}

// TestActuatorBoundsHonored はどの要求でもデバイスに範囲外の値が
// 書かれないことをテストする
func TestActuatorBoundsHonored(t *testing.T) {
	ctx := context.Background()
	actuator, _ := newTestActuator()
	dev := lens.NewMockDevice("/dev/video0", lens.KindWide, 1.0, 6.0)
	profile := lens.Profile{Kind: lens.KindWide, Scaler: 1.0, NativeMin: 1.0, NativeMax: 6.0}

	for _, ui := range []float64{-100, 0, 0.5, 1.0, 3.7, 6.0, 9.9, 1e6} {
		if err := actuator.ApplyInstant(ctx, dev, profile, ui); err != nil {
			t.Fatalf("ApplyInstant(%g) failed: %v", ui, err)
		}
	}

	for _, v := range dev.ZoomLog() {
		if v < profile.NativeMin || v > profile.NativeMax {
			t.Errorf("範囲外の値がデバイスへ書かれた: %g", v)
		}
	}
}

func TestActuatorApplySmooth(t *testing.T) {
	ctx := context.Background()
	actuator, store := newTestActuator()
	dev := lens.NewMockDevice("/dev/video0", lens.KindWide, 1.0, 6.0)
	profile := lens.Profile{Kind: lens.KindWide, Scaler: 1.0, NativeMin: 1.0, NativeMax: 6.0}

	if err := actuator.ApplySmooth(ctx, dev, profile, 4.0, 2.5); err != nil {
		t.Fatalf("ApplySmooth failed: %v", err)
	}

	rates := dev.RampLog()
	if len(rates) != 1 || rates[0] != 2.5 {
		t.Errorf("Expected one ramp at rate 2.5, got %v", rates)
	}
	// 現在値はランプ完了を待たず目標値へ楽観的に更新される
	if got := store.Snapshot().CurrentUIZoom; got != 4.0 {
		t.Errorf("Expected optimistic zoom 4.0, got %g", got)
	}
}

// TestActuatorLockFailure はロック拒否が状態を変えない一時的失敗として
// 扱われることをテストする
func TestActuatorLockFailure(t *testing.T) {
	ctx := context.Background()
	actuator, store := newTestActuator()
	dev := lens.NewMockDevice("/dev/video0", lens.KindWide, 1.0, 6.0)
	dev.LockErr = errors.New("デバイスは使用中")
	profile := lens.Profile{Kind: lens.KindWide, Scaler: 1.0, NativeMin: 1.0, NativeMax: 6.0}

	err := actuator.ApplyInstant(ctx, dev, profile, 3.0)
	if !errors.Is(err, ErrConfigurationLock) {
		t.Fatalf("Expected ErrConfigurationLock, got %v", err)
	}

	if len(dev.ZoomLog()) != 0 {
		t.Error("Zoom should not be written when lock is denied")
	}
	if got := store.Snapshot().CurrentUIZoom; got != 1.0 {
		t.Errorf("Published zoom should be unchanged, got %g", got)
	}
}

func TestActuatorZoomFailure(t *testing.T) {
	ctx := context.Background()
	actuator, store := newTestActuator()
	dev := lens.NewMockDevice("/dev/video0", lens.KindWide, 1.0, 6.0)
	dev.ZoomErr = errors.New("ハードウェア書き込み失敗")
	profile := lens.Profile{Kind: lens.KindWide, Scaler: 1.0, NativeMin: 1.0, NativeMax: 6.0}

	if err := actuator.ApplyInstant(ctx, dev, profile, 3.0); err == nil {
		t.Fatal("Expected error from failing device")
	}

	if got := store.Snapshot().CurrentUIZoom; got != 1.0 {
		t.Errorf("Published zoom should be unchanged, got %g", got)
	}
	// 失敗してもロックは解放される
	if dev.Locked() {
		t.Error("Device should be unlocked after failed apply")
	}
}

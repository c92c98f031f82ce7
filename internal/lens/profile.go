package lens

import "fmt"

// Profile は個別レンズの静的情報と検出済みズーム範囲を表す
// NativeMin/NativeMax は物理デバイスへの問い合わせ結果であり、
// デバイスは生存期間中に異なる範囲を申告し得るため、
// レンズがアクティブになるたびに再取得される
type Profile struct {
	Kind      Kind    // レンズ種別
	Scaler    float64 // UI→ネイティブ変換係数 (native = ui × scaler)
	NativeMin float64 // ハードウェア申告の最小ネイティブズーム係数
	NativeMax float64 // ハードウェア申告の最大ネイティブズーム係数
}

// UIMin はこのレンズが対応する論理ズームの下限を返す
func (p Profile) UIMin() float64 {
	return p.NativeMin / p.Scaler
}

// UIMax はこのレンズが対応する論理ズームの上限を返す
func (p Profile) UIMax() float64 {
	return p.NativeMax / p.Scaler
}

// ClampNative はネイティブズーム係数をこのレンズの範囲内に丸める
func (p Profile) ClampNative(v float64) float64 {
	if v < p.NativeMin {
		return p.NativeMin
	}
	if v > p.NativeMax {
		return p.NativeMax
	}
	return v
}

// ClampUI は論理ズーム値をこのレンズの対応範囲内に丸める
func (p Profile) ClampUI(ui float64) float64 {
	if ui < p.UIMin() {
		return p.UIMin()
	}
	if ui > p.UIMax() {
		return p.UIMax()
	}
	return ui
}

// ContainsUI は論理ズーム値がこのレンズの対応範囲内かどうかを返す
func (p Profile) ContainsUI(ui float64) bool {
	return ui >= p.UIMin() && ui <= p.UIMax()
}

// WithBounds はネイティブズーム範囲のみ置き換えた新しい Profile を返す
func (p Profile) WithBounds(min, max float64) Profile {
	p.NativeMin = min
	p.NativeMax = max
	return p
}

// Validate はプロファイルの妥当性を検証する
func (p Profile) Validate() error {
	if !p.Kind.IsValid() {
		return fmt.Errorf("未知のレンズ種別: %s", p.Kind)
	}
	if p.Scaler <= 0 {
		return fmt.Errorf("レンズ %s の変換係数が不正: %g", p.Kind, p.Scaler)
	}
	if p.NativeMin < 0 || p.NativeMax <= p.NativeMin {
		return fmt.Errorf("レンズ %s のネイティブズーム範囲が不正: [%g, %g]", p.Kind, p.NativeMin, p.NativeMax)
	}
	return nil
}

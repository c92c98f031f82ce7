package zoom

import (
	"math"

	"sangan/internal/lens"
)

// unitySnapEpsilon はネイティブ1.0への吸着許容誤差
// 浮動小数の丸めで1.0をわずかに外した値が光学的に意味のない
// 微小クロップを引き起こすのを防ぐ
const unitySnapEpsilon = 1e-4

// NativeFactor は論理ズーム値をレンズのネイティブズーム係数へ写像する
// 純粋関数であり、有限の入力すべてに対して定義される。範囲外の値は
// 黙ってレンズの対応範囲へ丸め込まれ、エラーにはならない
func NativeFactor(ui float64, p lens.Profile) float64 {
	native := p.ClampNative(ui * p.Scaler)
	if math.Abs(native-1.0) < unitySnapEpsilon && p.NativeMin <= 1.0 && 1.0 <= p.NativeMax {
		return 1.0
	}
	return native
}

// UIFactor はネイティブズーム係数を論理ズーム値へ逆写像する
func UIFactor(native float64, p lens.Profile) float64 {
	return native / p.Scaler
}

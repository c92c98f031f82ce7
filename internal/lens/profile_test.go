package lens

import (
	"math"
	"testing"
)

// TestProfileValidate はプロファイルの検証をテストする
func TestProfileValidate(t *testing.T) {
	testCases := []struct {
		name      string
		profile   Profile
		expectErr bool
	}{
		{
			name:      "正常な広角プロファイル",
			profile:   Profile{Kind: KindWide, Scaler: 1.0, NativeMin: 1.0, NativeMax: 6.0},
			expectErr: false,
		},
		{
			name:      "正常な超広角プロファイル",
			profile:   Profile{Kind: KindUltraWide, Scaler: 2.0, NativeMin: 1.0, NativeMax: 2.0},
			expectErr: false,
		},
		{
			name:      "ネイティブ最小値0は許容",
			profile:   Profile{Kind: KindWide, Scaler: 100, NativeMin: 0, NativeMax: 500},
			expectErr: false, // UVCのzoom_absoluteはmin=0を申告することがある
		},
		{
			name:      "未知のレンズ種別",
			profile:   Profile{Kind: Kind("fisheye"), Scaler: 1.0, NativeMin: 1.0, NativeMax: 6.0},
			expectErr: true,
		},
		{
			name:      "変換係数が0",
			profile:   Profile{Kind: KindWide, Scaler: 0, NativeMin: 1.0, NativeMax: 6.0},
			expectErr: true,
		},
		{
			name:      "変換係数が負",
			profile:   Profile{Kind: KindWide, Scaler: -1.0, NativeMin: 1.0, NativeMax: 6.0},
			expectErr: true,
		},
		{
			name:      "範囲が逆転",
			profile:   Profile{Kind: KindWide, Scaler: 1.0, NativeMin: 6.0, NativeMax: 1.0},
			expectErr: true,
		},
		{
			name:      "範囲が空",
			profile:   Profile{Kind: KindWide, Scaler: 1.0, NativeMin: 2.0, NativeMax: 2.0},
			expectErr: true,
		},
		{
			name:      "範囲が負",
			profile:   Profile{Kind: KindWide, Scaler: 1.0, NativeMin: -1.0, NativeMax: 6.0},
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.profile.Validate()
			if tc.expectErr && err == nil {
				t.Error("エラーが期待されましたが、エラーが発生しませんでした")
			}
			if !tc.expectErr && err != nil {
				t.Errorf("予期しないエラーが発生しました: %v", err)
			}
		})
	}
}

// TestProfileUIRange は論理ズームとネイティブズームの変換をテストする
func TestProfileUIRange(t *testing.T) {
	// 超広角: ネイティブ[1.0, 2.0]、係数2.0 → 論理[0.5, 1.0]
	uw := Profile{Kind: KindUltraWide, Scaler: 2.0, NativeMin: 1.0, NativeMax: 2.0}
	if got := uw.UIMin(); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("UIMin: got %g, want 0.5", got)
	}
	if got := uw.UIMax(); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("UIMax: got %g, want 1.0", got)
	}

	// 望遠: ネイティブ[6.0, 15.0]、係数6.0 → 論理[1.0, 2.5]
	tele := Profile{Kind: KindTelephoto, Scaler: 6.0, NativeMin: 6.0, NativeMax: 15.0}
	if got := tele.UIMin(); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("UIMin: got %g, want 1.0", got)
	}
	if got := tele.UIMax(); math.Abs(got-2.5) > 1e-9 {
		t.Errorf("UIMax: got %g, want 2.5", got)
	}
}

// TestProfileClamp はズーム値の丸め込みをテストする
func TestProfileClamp(t *testing.T) {
	p := Profile{Kind: KindWide, Scaler: 1.0, NativeMin: 1.0, NativeMax: 6.0}

	testCases := []struct {
		name  string
		input float64
		want  float64
	}{
		{"下限未満", 0.5, 1.0},
		{"下限ちょうど", 1.0, 1.0},
		{"範囲内", 3.3, 3.3},
		{"上限ちょうど", 6.0, 6.0},
		{"上限超過", 7.0, 6.0},
		{"極端に小さい値", -1e9, 1.0},
		{"極端に大きい値", 1e9, 6.0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := p.ClampNative(tc.input); got != tc.want {
				t.Errorf("ClampNative(%g): got %g, want %g", tc.input, got, tc.want)
			}
			// 係数1.0のため論理ズームの丸め込みも同じ結果になる
			if got := p.ClampUI(tc.input); got != tc.want {
				t.Errorf("ClampUI(%g): got %g, want %g", tc.input, got, tc.want)
			}
		})
	}
}

// TestProfileContainsUI は論理ズーム範囲の判定をテストする
func TestProfileContainsUI(t *testing.T) {
	p := Profile{Kind: KindUltraWide, Scaler: 2.0, NativeMin: 1.0, NativeMax: 2.0}

	if !p.ContainsUI(0.5) {
		t.Error("0.5 は範囲内のはず")
	}
	if !p.ContainsUI(0.75) {
		t.Error("0.75 は範囲内のはず")
	}
	if !p.ContainsUI(1.0) {
		t.Error("1.0 は範囲内のはず")
	}
	if p.ContainsUI(0.49) {
		t.Error("0.49 は範囲外のはず")
	}
	if p.ContainsUI(1.1) {
		t.Error("1.1 は範囲外のはず")
	}
}

// TestProfileWithBounds は範囲の差し替えをテストする
func TestProfileWithBounds(t *testing.T) {
	p := Profile{Kind: KindWide, Scaler: 1.0, NativeMin: 1.0, NativeMax: 6.0}
	updated := p.WithBounds(1.0, 8.0)

	if updated.NativeMax != 8.0 {
		t.Errorf("Expected NativeMax 8.0, got %g", updated.NativeMax)
	}
	if updated.Kind != KindWide || updated.Scaler != 1.0 {
		t.Error("範囲以外のフィールドは維持されるはず")
	}
	// 元のプロファイルは変更されない
	if p.NativeMax != 6.0 {
		t.Errorf("元のプロファイルが変更された: NativeMax=%g", p.NativeMax)
	}
}

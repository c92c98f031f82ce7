package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"sangan/internal/lens"
)

// TestConfigLoad は既定設定の読み込みをテストする
func TestConfigLoad(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("設定の読み込みに失敗しました: %v", err)
	}
	if cfg == nil {
		t.Fatal("設定がnilです")
	}

	// サーバー設定の検証
	if cfg.Server.Host == "" {
		t.Error("サーバーホストが設定されていません")
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		t.Errorf("無効なポート番号: %d", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout <= 0 {
		t.Error("読み込みタイムアウトが設定されていません")
	}
	// WriteTimeout は 0（無効）でも正常
	if cfg.Server.WriteTimeout < 0 {
		t.Error("書き込みタイムアウトが負の値です")
	}

	// カメラ設定の検証
	if cfg.Camera.Backend != "mock" {
		t.Errorf("既定のバックエンドがmockではありません: %s", cfg.Camera.Backend)
	}
	if cfg.Camera.Position != string(lens.PositionBack) {
		t.Errorf("既定の位置がbackではありません: %s", cfg.Camera.Position)
	}
	if cfg.Camera.FPS != 15 || cfg.Camera.Width != 1280 || cfg.Camera.Height != 720 {
		t.Errorf("ストリーミングの既定値が不正: %dx%d@%dfps",
			cfg.Camera.Width, cfg.Camera.Height, cfg.Camera.FPS)
	}
	back := cfg.Camera.Positions[string(lens.PositionBack)]
	if len(back.Lenses) != 3 {
		t.Errorf("背面カメラのレンズ数が3ではありません: %d", len(back.Lenses))
	}
	front := cfg.Camera.Positions[string(lens.PositionFront)]
	if len(front.Lenses) != 1 {
		t.Errorf("前面カメラのレンズ数が1ではありません: %d", len(front.Lenses))
	}

	// ズーム設定の検証
	if cfg.Zoom.RampRate <= 0 {
		t.Error("ランプ速度が設定されていません")
	}
	if cfg.Zoom.HysteresisPadding <= 0 {
		t.Error("ヒステリシス幅が設定されていません")
	}
	if len(cfg.Zoom.Thresholds) != 2 {
		t.Errorf("既定の切り替え境界数が2ではありません: %d", len(cfg.Zoom.Thresholds))
	}
}

// TestConfigLoadYAML はYAMLファイルによる上書きをテストする
func TestConfigLoadYAML(t *testing.T) {
	yamlContent := `
server:
  host: 127.0.0.1
  port: 9000
camera:
  backend: v4l2
  position: back
  positions:
    back:
      lenses:
        - kind: wide
          device: /dev/video0
          scaler: 1.0
          native_min: 1.0
          native_max: 4.0
      switch_overs: [2.0]
zoom:
  ramp_rate: 3.5
  hysteresis_padding: 0.1
  presoften: false
  thresholds: []
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("テスト用設定ファイルの作成に失敗: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("ホストが上書きされていません: %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("ポートが上書きされていません: %d", cfg.Server.Port)
	}
	if cfg.Camera.Backend != "v4l2" {
		t.Errorf("バックエンドが上書きされていません: %s", cfg.Camera.Backend)
	}

	back := cfg.Camera.Positions[string(lens.PositionBack)]
	if len(back.Lenses) != 1 {
		t.Fatalf("背面カメラのレンズ構成が置き換えられていません: %d", len(back.Lenses))
	}
	if back.Lenses[0].NativeMax != 4.0 {
		t.Errorf("ネイティブ範囲が読み込まれていません: %g", back.Lenses[0].NativeMax)
	}
	if len(back.SwitchOvers) != 1 || back.SwitchOvers[0] != 2.0 {
		t.Errorf("切替係数が読み込まれていません: %v", back.SwitchOvers)
	}

	// YAMLに現れない位置は既定値のまま残る
	if _, ok := cfg.Camera.Positions[string(lens.PositionFront)]; !ok {
		t.Error("前面カメラの既定構成が消えています")
	}

	if cfg.Zoom.RampRate != 3.5 {
		t.Errorf("ランプ速度が上書きされていません: %g", cfg.Zoom.RampRate)
	}
	if cfg.Zoom.HysteresisPadding != 0.1 {
		t.Errorf("ヒステリシス幅が上書きされていません: %g", cfg.Zoom.HysteresisPadding)
	}
	if cfg.Zoom.Presoften {
		t.Error("軟化ランプが無効化されていません")
	}
	if len(cfg.Zoom.Thresholds) != 0 {
		t.Errorf("明示境界が空になっていません: %v", cfg.Zoom.Thresholds)
	}
}

// TestConfigLoadMissingFile は存在しないファイル指定で既定値に
// なることをテストする
func TestConfigLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "そんなファイルはない.yaml"))
	if err != nil {
		t.Fatalf("存在しないファイルはエラーにしない: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("既定のポートではありません: %d", cfg.Server.Port)
	}
}

// TestConfigLoadInvalidYAML は壊れたYAMLがエラーになることをテストする
func TestConfigLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("server: [これは壊れて: いる"), 0644); err != nil {
		t.Fatalf("テスト用設定ファイルの作成に失敗: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("壊れたYAMLでエラーが期待されましたが、エラーが発生しませんでした")
	}
}

// TestConfigValidation は設定の検証をテストする
func TestConfigValidation(t *testing.T) {
	testCases := []struct {
		name      string
		mutate    func(*Config)
		expectErr bool
	}{
		{
			name:      "正常な設定",
			mutate:    func(c *Config) {},
			expectErr: false,
		},
		{
			name: "無効なポート番号",
			mutate: func(c *Config) {
				c.Server.Port = 99999
			},
			expectErr: true,
		},
		{
			name: "未知のバックエンド",
			mutate: func(c *Config) {
				c.Camera.Backend = "gstreamer"
			},
			expectErr: true,
		},
		{
			name: "未知のカメラ位置",
			mutate: func(c *Config) {
				c.Camera.Position = "sideways"
			},
			expectErr: true,
		},
		{
			name: "起動位置の構成なし",
			mutate: func(c *Config) {
				c.Camera.Position = string(lens.PositionFront)
				delete(c.Camera.Positions, string(lens.PositionFront))
			},
			expectErr: true,
		},
		{
			name: "ストリーミング設定が不正",
			mutate: func(c *Config) {
				c.Camera.FPS = 0
			},
			expectErr: true,
		},
		{
			name: "レンズなしの位置",
			mutate: func(c *Config) {
				pc := c.Camera.Positions[string(lens.PositionFront)]
				pc.Lenses = nil
				c.Camera.Positions[string(lens.PositionFront)] = pc
			},
			expectErr: true,
		},
		{
			name: "未知のレンズ種別",
			mutate: func(c *Config) {
				pc := c.Camera.Positions[string(lens.PositionBack)]
				pc.Lenses[0].Kind = "macro"
				c.Camera.Positions[string(lens.PositionBack)] = pc
			},
			expectErr: true,
		},
		{
			name: "レンズ種別の重複",
			mutate: func(c *Config) {
				pc := c.Camera.Positions[string(lens.PositionBack)]
				pc.Lenses[0].Kind = pc.Lenses[1].Kind
				c.Camera.Positions[string(lens.PositionBack)] = pc
			},
			expectErr: true,
		},
		{
			name: "スケーラが不正",
			mutate: func(c *Config) {
				pc := c.Camera.Positions[string(lens.PositionBack)]
				pc.Lenses[1].Scaler = 0
				c.Camera.Positions[string(lens.PositionBack)] = pc
			},
			expectErr: true,
		},
		{
			name: "ネイティブ範囲が不正",
			mutate: func(c *Config) {
				pc := c.Camera.Positions[string(lens.PositionBack)]
				pc.Lenses[1].NativeMin = 6.0
				pc.Lenses[1].NativeMax = 1.0
				c.Camera.Positions[string(lens.PositionBack)] = pc
			},
			expectErr: true,
		},
		{
			name: "v4l2でデバイスパスなし",
			mutate: func(c *Config) {
				c.Camera.Backend = "v4l2"
				pc := c.Camera.Positions[string(lens.PositionBack)]
				pc.Lenses[1].Device = ""
				c.Camera.Positions[string(lens.PositionBack)] = pc
			},
			expectErr: true,
		},
		{
			name: "空のヒステリシスバンド",
			mutate: func(c *Config) {
				c.Zoom.Thresholds[0].DownUI = 1.0
				c.Zoom.Thresholds[0].UpUI = 1.0
			},
			expectErr: true,
		},
		{
			name: "ランプ速度が不正",
			mutate: func(c *Config) {
				c.Zoom.RampRate = -1.0
			},
			expectErr: true,
		},
		{
			name: "ヒステリシス幅が不正",
			mutate: func(c *Config) {
				c.Zoom.HysteresisPadding = 0
			},
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.expectErr && err == nil {
				t.Error("エラーが期待されましたが、エラーが発生しませんでした")
			}
			if !tc.expectErr && err != nil {
				t.Errorf("予期しないエラーが発生しました: %v", err)
			}
		})
	}
}

// TestEnvironmentVariables は環境変数の処理をテストする
// 注意: このテストは環境変数を変更するため、parallelは使わない
func TestEnvironmentVariables(t *testing.T) {
	originalHost := os.Getenv("SANGAN_SERVER_HOST")
	originalPort := os.Getenv("PORT")
	originalPosition := os.Getenv("SANGAN_CAMERA_POSITION")

	defer func() {
		// テスト後に環境変数を復元
		_ = os.Setenv("SANGAN_SERVER_HOST", originalHost)
		_ = os.Setenv("PORT", originalPort)
		_ = os.Setenv("SANGAN_CAMERA_POSITION", originalPosition)
	}()

	_ = os.Setenv("SANGAN_SERVER_HOST", "test.example.com")
	_ = os.Setenv("PORT", "9999")
	_ = os.Setenv("SANGAN_CAMERA_POSITION", "front")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	if cfg.Server.Host != "test.example.com" {
		t.Errorf("環境変数のホストが反映されていません: got %s, want test.example.com", cfg.Server.Host)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("環境変数のポートが反映されていません: got %d, want 9999", cfg.Server.Port)
	}
	if cfg.Camera.Position != "front" {
		t.Errorf("環境変数のカメラ位置が反映されていません: got %s, want front", cfg.Camera.Position)
	}
}

// TestServerAddress はサーバーアドレスの生成をテストする
func TestServerAddress(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{
			Host: "192.168.1.100",
			Port: 9090,
		},
	}

	expected := "192.168.1.100:9090"
	actual := cfg.ServerAddress()

	if actual != expected {
		t.Errorf("サーバーアドレスが一致しません: got %s, want %s", actual, expected)
	}
}

// TestZoomParams はズームパラメータへの変換をテストする
func TestZoomParams(t *testing.T) {
	params := DefaultConfig().ZoomParams()

	if params.Position != lens.PositionBack {
		t.Errorf("位置が変換されていません: %s", params.Position)
	}

	backSpecs := params.Lenses[lens.PositionBack]
	if len(backSpecs) != 3 {
		t.Fatalf("背面レンズ数が3ではありません: %d", len(backSpecs))
	}
	if backSpecs[0].Kind != lens.KindUltraWide || backSpecs[0].Scaler != 2.0 {
		t.Errorf("超広角の変換が不正: %+v", backSpecs[0])
	}
	if backSpecs[2].Kind != lens.KindTelephoto || backSpecs[2].NativeMax != 7.5 {
		t.Errorf("望遠の変換が不正: %+v", backSpecs[2])
	}

	if len(params.Lenses[lens.PositionFront]) != 1 {
		t.Errorf("前面レンズ数が1ではありません: %d", len(params.Lenses[lens.PositionFront]))
	}

	so := params.SwitchOvers[lens.PositionBack]
	if len(so) != 2 || so[0] != 0.9 || so[1] != 6.0 {
		t.Errorf("切替係数が変換されていません: %v", so)
	}

	if len(params.Thresholds) != 2 {
		t.Fatalf("切り替え境界数が2ではありません: %d", len(params.Thresholds))
	}
	first := params.Thresholds[0]
	if first.Lower != lens.KindUltraWide || first.Upper != lens.KindWide ||
		first.DownUI != 0.85 || first.UpUI != 0.95 {
		t.Errorf("切り替え境界の変換が不正: %+v", first)
	}

	if params.RampRate != 2.0 || params.Padding != 0.2 {
		t.Errorf("ズーム設定の変換が不正: rate=%g padding=%g", params.RampRate, params.Padding)
	}
	if !params.Presoften {
		t.Error("軟化ランプ設定が変換されていません")
	}
}

// TestMockDiscovery はモック検出器の生成をテストする
func TestMockDiscovery(t *testing.T) {
	ctx := context.Background()
	d := DefaultConfig().MockDiscovery()

	back, err := d.ScanLenses(ctx, lens.PositionBack)
	if err != nil {
		t.Fatalf("背面レンズの検出に失敗しました: %v", err)
	}
	if len(back) != 3 {
		t.Fatalf("背面の検出デバイス数が3ではありません: %d", len(back))
	}
	if back[0].Kind() != lens.KindUltraWide {
		t.Errorf("先頭のレンズ種別が超広角ではありません: %s", back[0].Kind())
	}
	if min, max, err := back[2].ZoomBounds(ctx); err != nil || min != 3.0 || max != 7.5 {
		t.Errorf("望遠のネイティブ範囲が不正: [%g, %g] err=%v", min, max, err)
	}

	front, err := d.ScanLenses(ctx, lens.PositionFront)
	if err != nil {
		t.Fatalf("前面レンズの検出に失敗しました: %v", err)
	}
	if len(front) != 1 {
		t.Errorf("前面の検出デバイス数が1ではありません: %d", len(front))
	}

	factors, err := d.SwitchOverFactors(ctx, lens.PositionBack)
	if err != nil {
		t.Fatalf("切替係数の取得に失敗しました: %v", err)
	}
	if len(factors) != 2 || factors[0] != 0.9 || factors[1] != 6.0 {
		t.Errorf("切替係数が引き継がれていません: %v", factors)
	}
}

// TestV4L2Assignments はデバイス割り当ての生成をテストする
func TestV4L2Assignments(t *testing.T) {
	cfg := DefaultConfig()

	back := cfg.V4L2Assignments(string(lens.PositionBack))
	if len(back) != 3 {
		t.Fatalf("背面の割り当て数が3ではありません: %d", len(back))
	}
	if back[0].DevicePath != "/dev/video2" || back[0].Kind != lens.KindUltraWide {
		t.Errorf("超広角の割り当てが不正: %+v", back[0])
	}

	// デバイスパスのないレンズは割り当てから外れる
	pc := cfg.Camera.Positions[string(lens.PositionBack)]
	pc.Lenses[1].Device = ""
	cfg.Camera.Positions[string(lens.PositionBack)] = pc
	if got := cfg.V4L2Assignments(string(lens.PositionBack)); len(got) != 2 {
		t.Errorf("デバイスパスなしのレンズが除外されていません: %d", len(got))
	}

	// 未知の位置はnil
	if got := cfg.V4L2Assignments("sideways"); got != nil {
		t.Errorf("未知の位置でnilが期待されましたが: %v", got)
	}
}

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"sangan/internal/lens"
	"sangan/internal/zoom"
)

// DefaultPath は設定ファイルの既定探索パス
// 存在しない場合は既定値で起動する
const DefaultPath = "config.yaml"

// Config はアプリケーション全体の設定を保持する構造体
type Config struct {
	Server ServerConfig `yaml:"server"`
	Camera CameraConfig `yaml:"camera"`
	Zoom   ZoomConfig   `yaml:"zoom"`
}

// ServerConfig はHTTPサーバーの設定
type ServerConfig struct {
	Host string `yaml:"host"` // リッスンするホスト
	Port int    `yaml:"port"` // リッスンするポート番号

	// タイムアウト設定
	// YAMLからは読み込まない(環境変数とコード既定値のみ)
	ReadTimeout  time.Duration `yaml:"-"` // 読み込みタイムアウト
	WriteTimeout time.Duration `yaml:"-"` // 書き込みタイムアウト
}

// CameraConfig はカメラ関連の設定
type CameraConfig struct {
	Backend  string `yaml:"backend"`  // バックエンド種別 (mock | v4l2)
	Position string `yaml:"position"` // 起動時のカメラ位置 (back | front)

	// 映像ストリーミングの既定値
	FPS    int `yaml:"fps"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// カメラ位置ごとのレンズ構成
	Positions map[string]PositionConfig `yaml:"positions"`
}

// PositionConfig は1つのカメラ位置のレンズ構成
type PositionConfig struct {
	Lenses []LensConfig `yaml:"lenses"`

	// プラットフォームが切替係数を申告しない場合の退避値
	SwitchOvers []float64 `yaml:"switch_overs"`
}

// LensConfig は個別レンズの設定
type LensConfig struct {
	Kind   string `yaml:"kind"`   // レンズ種別 (ultra_wide | wide | telephoto)
	Device string `yaml:"device"` // デバイスパス (例: /dev/video0、v4l2のみ)

	Scaler    float64 `yaml:"scaler"`     // 論理ズーム1.0に対するネイティブ係数
	NativeMin float64 `yaml:"native_min"` // デバイス問い合わせ失敗時の既定範囲
	NativeMax float64 `yaml:"native_max"`
}

// ZoomConfig はズーム制御の設定
type ZoomConfig struct {
	RampRate          float64 `yaml:"ramp_rate"`          // ランプ速度(ネイティブ単位/秒)
	HysteresisPadding float64 `yaml:"hysteresis_padding"` // 導出境界のヒステリシス幅
	Presoften         bool    `yaml:"presoften"`          // 切り替え前の軟化ランプ

	// 明示的な切り替え境界。空の場合は切替係数から導出される
	Thresholds []ThresholdConfig `yaml:"thresholds"`
}

// ThresholdConfig は隣接レンズ対の切り替え境界
type ThresholdConfig struct {
	Lower  string  `yaml:"lower"`
	Upper  string  `yaml:"upper"`
	DownUI float64 `yaml:"down_ui"`
	UpUI   float64 `yaml:"up_ui"`
}

// DefaultConfig は既定の設定を返す
// 背面は超広角/広角/望遠の3レンズ構成、前面は広角のみ
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 0, // ストリーミング用にタイムアウト無効化
		},
		Camera: CameraConfig{
			Backend:  "mock",
			Position: string(lens.PositionBack),
			FPS:      15,
			Width:    1280,
			Height:   720,
			Positions: map[string]PositionConfig{
				string(lens.PositionBack): {
					Lenses: []LensConfig{
						{Kind: string(lens.KindUltraWide), Device: "/dev/video2", Scaler: 2.0, NativeMin: 1.0, NativeMax: 2.0},
						{Kind: string(lens.KindWide), Device: "/dev/video0", Scaler: 1.0, NativeMin: 1.0, NativeMax: 6.0},
						{Kind: string(lens.KindTelephoto), Device: "/dev/video4", Scaler: 0.5, NativeMin: 3.0, NativeMax: 7.5},
					},
					SwitchOvers: []float64{0.9, 6.0},
				},
				string(lens.PositionFront): {
					Lenses: []LensConfig{
						{Kind: string(lens.KindWide), Device: "/dev/video6", Scaler: 1.0, NativeMin: 1.0, NativeMax: 6.0},
					},
				},
			},
		},
		Zoom: ZoomConfig{
			RampRate:          2.0,
			HysteresisPadding: 0.2,
			Presoften:         true,
			Thresholds: []ThresholdConfig{
				{Lower: string(lens.KindUltraWide), Upper: string(lens.KindWide), DownUI: 0.85, UpUI: 0.95},
				{Lower: string(lens.KindWide), Upper: string(lens.KindTelephoto), DownUI: 5.8, UpUI: 6.2},
			},
		},
	}
}

// Load は設定を読み込む
// 既定値にYAMLファイルと環境変数を重ねて検証する
// ファイルが存在しない場合は既定値のまま続行する
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("設定ファイル %s の解析に失敗: %w", path, err)
			}
		case os.IsNotExist(err):
			// ファイルなしは既定値で続行
		default:
			return nil, fmt.Errorf("設定ファイル %s の読み込みに失敗: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定の検証に失敗: %w", err)
	}
	return cfg, nil
}

// applyEnv は環境変数による上書きを適用する
func applyEnv(cfg *Config) {
	cfg.Server.Host = getEnvOrDefault("SANGAN_SERVER_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvAsIntOrDefault("PORT", cfg.Server.Port)
	cfg.Camera.Backend = getEnvOrDefault("SANGAN_CAMERA_BACKEND", cfg.Camera.Backend)
	cfg.Camera.Position = getEnvOrDefault("SANGAN_CAMERA_POSITION", cfg.Camera.Position)
}

// Validate は設定の妥当性を検証する
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("無効なポート番号: %d", c.Server.Port)
	}

	if c.Camera.Backend != "mock" && c.Camera.Backend != "v4l2" {
		return fmt.Errorf("未知のカメラバックエンド: %s", c.Camera.Backend)
	}
	if !lens.Position(c.Camera.Position).IsValid() {
		return fmt.Errorf("未知のカメラ位置: %s", c.Camera.Position)
	}
	if _, ok := c.Camera.Positions[c.Camera.Position]; !ok {
		return fmt.Errorf("起動位置 %s のレンズ構成が存在しない", c.Camera.Position)
	}
	if c.Camera.FPS <= 0 || c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		return fmt.Errorf("無効なストリーミング設定: %dx%d@%dfps",
			c.Camera.Width, c.Camera.Height, c.Camera.FPS)
	}

	for posName, pc := range c.Camera.Positions {
		if !lens.Position(posName).IsValid() {
			return fmt.Errorf("未知のカメラ位置: %s", posName)
		}
		if len(pc.Lenses) == 0 {
			return fmt.Errorf("位置 %s にレンズが設定されていない", posName)
		}
		seen := make(map[string]bool)
		for _, lc := range pc.Lenses {
			if !lens.Kind(lc.Kind).IsValid() {
				return fmt.Errorf("位置 %s に未知のレンズ種別: %s", posName, lc.Kind)
			}
			if seen[lc.Kind] {
				return fmt.Errorf("位置 %s にレンズ種別 %s が重複", posName, lc.Kind)
			}
			seen[lc.Kind] = true
			if lc.Scaler <= 0 {
				return fmt.Errorf("レンズ %s のスケーラが不正: %g", lc.Kind, lc.Scaler)
			}
			if lc.NativeMin < 0 || lc.NativeMax <= lc.NativeMin {
				return fmt.Errorf("レンズ %s のネイティブ範囲が不正: [%g, %g]", lc.Kind, lc.NativeMin, lc.NativeMax)
			}
			if c.Camera.Backend == "v4l2" && lc.Device == "" {
				return fmt.Errorf("v4l2バックエンドのレンズ %s にデバイスパスがない", lc.Kind)
			}
		}
	}

	if c.Zoom.RampRate <= 0 {
		return fmt.Errorf("ランプ速度が不正: %g", c.Zoom.RampRate)
	}
	if c.Zoom.HysteresisPadding <= 0 {
		return fmt.Errorf("ヒステリシス幅が不正: %g", c.Zoom.HysteresisPadding)
	}
	for _, tc := range c.Zoom.Thresholds {
		st := zoom.SwitchThreshold{
			Lower:  lens.Kind(tc.Lower),
			Upper:  lens.Kind(tc.Upper),
			DownUI: tc.DownUI,
			UpUI:   tc.UpUI,
		}
		if err := st.Validate(); err != nil {
			return fmt.Errorf("切り替え境界が不正: %w", err)
		}
	}

	return nil
}

// ZoomParams は設定をズームセッションの構築パラメータへ変換する
// Validate済みの設定に対して呼ぶこと
func (c *Config) ZoomParams() zoom.Params {
	lenses := make(map[lens.Position][]zoom.LensSpec, len(c.Camera.Positions))
	switchOvers := make(map[lens.Position][]float64)
	for posName, pc := range c.Camera.Positions {
		pos := lens.Position(posName)
		specs := make([]zoom.LensSpec, 0, len(pc.Lenses))
		for _, lc := range pc.Lenses {
			specs = append(specs, zoom.LensSpec{
				Kind:      lens.Kind(lc.Kind),
				Scaler:    lc.Scaler,
				NativeMin: lc.NativeMin,
				NativeMax: lc.NativeMax,
			})
		}
		lenses[pos] = specs
		if len(pc.SwitchOvers) > 0 {
			switchOvers[pos] = pc.SwitchOvers
		}
	}

	thresholds := make([]zoom.SwitchThreshold, 0, len(c.Zoom.Thresholds))
	for _, tc := range c.Zoom.Thresholds {
		thresholds = append(thresholds, zoom.SwitchThreshold{
			Lower:  lens.Kind(tc.Lower),
			Upper:  lens.Kind(tc.Upper),
			DownUI: tc.DownUI,
			UpUI:   tc.UpUI,
		})
	}

	return zoom.Params{
		Position:    lens.Position(c.Camera.Position),
		Lenses:      lenses,
		SwitchOvers: switchOvers,
		Thresholds:  thresholds,
		RampRate:    c.Zoom.RampRate,
		Padding:     c.Zoom.HysteresisPadding,
		Presoften:   c.Zoom.Presoften,
	}
}

// MockDiscovery は設定のレンズ構成からモックバックエンドの検出器を作る
// 切替係数もプラットフォーム申告値として引き継がれる
func (c *Config) MockDiscovery() *lens.MockDiscovery {
	d := lens.NewMockDiscovery()
	for posName, pc := range c.Camera.Positions {
		pos := lens.Position(posName)
		devices := make([]lens.Device, 0, len(pc.Lenses))
		for _, lc := range pc.Lenses {
			id := fmt.Sprintf("%s-%s", posName, lc.Kind)
			devices = append(devices, lens.NewMockDevice(id, lens.Kind(lc.Kind), lc.NativeMin, lc.NativeMax))
		}
		d.Devices[pos] = devices
		if len(pc.SwitchOvers) > 0 {
			d.Factors[pos] = pc.SwitchOvers
		}
	}
	return d
}

// V4L2Assignments は指定位置のレンズからv4l2デバイス割り当てを作る
func (c *Config) V4L2Assignments(posName string) []lens.V4L2Assignment {
	pc, ok := c.Camera.Positions[posName]
	if !ok {
		return nil
	}
	out := make([]lens.V4L2Assignment, 0, len(pc.Lenses))
	for _, lc := range pc.Lenses {
		if lc.Device == "" {
			continue
		}
		out = append(out, lens.V4L2Assignment{
			DevicePath: lc.Device,
			Kind:       lens.Kind(lc.Kind),
		})
	}
	return out
}

// ServerAddress はサーバーのリッスンアドレスを返す
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// getEnvOrDefault は環境変数を取得し、設定されていない場合はデフォルト値を返す
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault は環境変数を整数として取得し、設定されていない場合はデフォルト値を返す
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		if _, err := fmt.Sscanf(value, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultValue
}

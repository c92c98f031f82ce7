// Package main はSanganサーバーコマンドの実装です
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"sangan/internal/config"
	"sangan/internal/lens"
	"sangan/internal/server"
	"sangan/internal/zoom"
)

func main() {
	// コマンドラインオプション
	var (
		configFile = flag.String("config", config.DefaultPath, "設定ファイルのパス")
		host       = flag.String("host", "", "サーバーのホスト (デフォルト: 0.0.0.0)")
		port       = flag.Int("port", 0, "サーバーのポート (デフォルト: 8080)")
		backend    = flag.String("backend", "", "カメラバックエンド (mock | v4l2)")
		position   = flag.String("position", "", "起動時のカメラ位置 (back | front)")
		help       = flag.Bool("help", false, "ヘルプを表示")
	)

	flag.Parse()

	// ヘルプ表示
	if *help {
		fmt.Println("Sangan")
		fmt.Println()
		fmt.Println("使用方法:")
		fmt.Println("  server [オプション]")
		fmt.Println()
		fmt.Println("オプション:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	// 設定を読み込む
	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	// コマンドラインオプションで設定を上書き
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *backend != "" {
		cfg.Camera.Backend = *backend
	}
	if *position != "" {
		cfg.Camera.Position = *position
	}

	// 上書き後の設定を再検証する
	if err := cfg.Validate(); err != nil {
		log.Fatalf("設定の検証に失敗しました: %v", err)
	}

	// コンテキストを作成
	ctx := context.Background()

	// カメラバックエンドを構築する
	session, discovery, frames, err := buildBackend(ctx, cfg)
	if err != nil {
		log.Fatalf("カメラバックエンドの構築に失敗しました: %v", err)
	}

	// ズームセッションを開始する
	manager := zoom.NewManager(session, discovery, cfg.ZoomParams())
	if err := manager.Start(ctx); err != nil {
		log.Fatalf("ズームセッションの開始に失敗しました: %v", err)
	}
	defer manager.Close()

	// Ginサーバーを作成
	srv := server.NewGin(cfg, manager, frames)

	// サーバーを起動
	log.Printf("Sangan サーバーを起動します: %s", cfg.ServerAddress())
	if err := srv.Start(ctx); err != nil {
		log.Fatalf("サーバーの起動に失敗しました: %v", err)
	}
}

// buildBackend は設定に応じたキャプチャセッションとレンズ検出器を構築する
// 映像フレームのチャンネルはv4l2バックエンドでのみ提供される
func buildBackend(ctx context.Context, cfg *config.Config) (lens.Session, lens.Discovery, <-chan []byte, error) {
	switch cfg.Camera.Backend {
	case "mock":
		return lens.NewMockSession(), cfg.MockDiscovery(), nil, nil

	case "v4l2":
		pipeline := lens.NewMJPEGPipeline(cfg.Camera.Width, cfg.Camera.Height, cfg.Camera.FPS)
		if err := pipeline.Start(ctx); err != nil {
			return nil, nil, nil, fmt.Errorf("映像パイプラインの起動に失敗: %w", err)
		}
		assignments := make(map[lens.Position][]lens.V4L2Assignment, len(cfg.Camera.Positions))
		for posName := range cfg.Camera.Positions {
			assignments[lens.Position(posName)] = cfg.V4L2Assignments(posName)
		}
		return pipeline, lens.NewV4L2Discovery(assignments), pipeline.Frames(), nil

	default:
		return nil, nil, nil, fmt.Errorf("未知のカメラバックエンド: %s", cfg.Camera.Backend)
	}
}

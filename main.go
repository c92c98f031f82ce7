package main

import (
	"context"
	"fmt"
	"log"

	"sangan/internal/config"
	"sangan/internal/lens"
	"sangan/internal/server"
	"sangan/internal/zoom"
)

func main() {
	// 設定を読み込む
	cfg, err := config.Load(config.DefaultPath)
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
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

	// サーバーを作成して起動する
	srv := server.NewGin(cfg, manager, frames)
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

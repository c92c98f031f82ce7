package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sangan/internal/config"
	"sangan/internal/generated"
	"sangan/internal/zoom"

	"github.com/gin-gonic/gin"
)

// GinServer はGinベースのHTTPサーバーを管理する構造体
type GinServer struct {
	config     *config.Config
	httpServer *http.Server
	engine     *gin.Engine
}

// NewGin は新しいGinServerインスタンスを作成する
// frames は映像パイプラインのフレームチャンネル。nilでもズームAPIは動作する
func NewGin(cfg *config.Config, manager *zoom.Manager, frames <-chan []byte) *GinServer {
	// 本番モードに設定
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())

	// 生成されたルーティングにハンドラーを登録
	handler := &SanganHandler{
		config:  cfg,
		manager: manager,
		frames:  frames,
	}
	generated.RegisterHandlers(engine, handler)

	// 埋め込みフロントエンドを配信
	engine.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", getIndexHTML())
	})

	return &GinServer{
		config: cfg,
		engine: engine,
		httpServer: &http.Server{
			Addr:    cfg.ServerAddress(),
			Handler: engine,
			// WriteTimeoutはストリーミング配信を妨げないよう設定値に従う
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}
}

// Start はサーバーを起動する
func (s *GinServer) Start(ctx context.Context) error {
	// シャットダウン用のチャンネル
	shutdownCh := make(chan error, 1)

	// サーバーを別ゴルーチンで起動
	go func() {
		log.Printf("HTTPサーバーを起動しています: %s", s.config.ServerAddress())
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			shutdownCh <- fmt.Errorf("サーバーの起動に失敗: %w", err)
		}
	}()

	// シグナルハンドリング
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// コンテキストかシグナルを待つ
	select {
	case <-ctx.Done():
		log.Println("コンテキストがキャンセルされました")
	case sig := <-sigCh:
		log.Printf("シグナルを受信しました: %v", sig)
	case err := <-shutdownCh:
		return err
	}

	// グレースフルシャットダウン
	return s.Shutdown()
}

// Shutdown はサーバーをグレースフルにシャットダウンする
func (s *GinServer) Shutdown() error {
	log.Println("サーバーをシャットダウンしています...")

	// 5秒のタイムアウトを設定
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("サーバーのシャットダウンに失敗: %w", err)
	}

	log.Println("サーバーが正常にシャットダウンされました")
	return nil
}

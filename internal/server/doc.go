// Package server は、HTTPサーバーとズームAPIの配信を管理します。
//
// このパッケージは、HTTPサーバーの起動、ルーティング、
// ズーム状態のSSE配信、MJPEGストリーミングの配信を担当します。
//
// 責務:
//   - HTTPサーバーの起動と管理
//   - OpenAPI定義から生成されたルーティングへのハンドラー登録
//   - ズーム状態のServer-Sent Events配信
//   - MJPEGストリーミングデータの配信
//   - 静的ファイル（HTML/CSS/JS）の配信
//
// 仕様:
//   - ルーティングにgin-gonic/ginを使用
//   - SSEの符号化にgin-contrib/sseを使用
//   - グレースフルシャットダウンに対応
//   - 複数クライアントの同時接続をサポート
package server

// Package lens は物理レンズデバイスとキャプチャセッションの抽象を提供する
//
// # 責務
// - レンズ種別(超広角/広角/望遠)と光学順序の定義
// - レンズごとの静的情報とハードウェア申告ズーム範囲(Profile)の表現
// - ズーム操作対象となるデバイス(Device)の抽象化
// - 有効な入力を常に1つ保持するキャプチャセッション(Session)の抽象化
// - カメラ位置(前面/背面)ごとのレンズ検出(Discovery)
//
// # 使い分け
// このパッケージは以下の場合に使用する：
// - ズーム制御コア(internal/zoom)からハードウェアを操作したい
// - テストや実機なし環境でレンズ一式をシミュレートしたい(Mock*)
// - Linux の UVC カメラを v4l2-ctl 経由で制御したい(V4L2*)
// - ffmpeg による MJPEG キャプチャをセッションとして扱いたい(MJPEGPipeline)
//
// # 仕様
// - Device: ズーム範囲の自己申告・設定ロック・即時/ランプ適用
// - Session: 構成トランザクション(Begin/Commit)内でのみ入力を変更できる
// - Discovery: 位置ごとの物理レンズ列挙と仮想デバイスの切替係数の取得
// - すべての実装は複数ゴルーチンからの呼び出しに対して安全
//
// # 前提要件(V4L2 バックエンド使用時)
//   - v4l-utils: ズームコントロールの読み書きに使用
//     Ubuntu/Debian: sudo apt install v4l-utils
//   - ffmpeg: MJPEG ストリーミングに使用
//     Ubuntu/Debian: sudo apt install ffmpeg
//   - video グループへの参加: デバイスアクセス権限
//     sudo usermod -a -G video $USER
package lens

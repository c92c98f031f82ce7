// Package zoom は複数レンズカメラの連続光学ズーム制御を提供する
//
// # 責務
// - 論理ズーム値(UI値)からネイティブズーム係数への写像(NativeFactor)
// - ヒステリシス付きレンズ切り替え判定(Decide / ThresholdTable)
// - アクティブレンズへのズーム適用(Actuator)
// - キャプチャセッションの入力を入れ替えるレンズ切り替え(Coordinator)
// - 要求の合流と直列実行(Controller)
// - カメラ位置ごとのセッションライフサイクル(Manager)
//
// # 使い分け
// 外部からの入口は Manager と Controller のみ:
// - HTTPハンドラなど任意のゴルーチンは Manager.Request で要求を出す
// - 状態の観測は Snapshot(ポーリング)か Subscribe(プッシュ)
// - Actuator / Coordinator を直接呼ぶのはワーカーゴルーチンだけ
//
// # 仕様
//   - 要求は到達可能な全域へ黙って丸め込まれ、範囲外はエラーにならない
//   - 境界付近の連続要求はヒステリシスバンドに吸収され、
//     切り替えの往復(チャタリング)を起こさない
//   - レンズ再構成中に届いた要求は破棄される。要求はキューに積まれず、
//     常に最新の1件だけが実行を待つ
//   - ハードウェア操作はすべて単一ワーカーで直列化され、重なり合わない
//   - どの失敗経路でもキャプチャセッションが入力なしで放置されることはない
//   - カメラ位置の切り替えはセッションの破棄と再構築であり、
//     セッションIDが再発行される
package zoom

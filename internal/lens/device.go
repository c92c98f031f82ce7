package lens

import "context"

// Device は単一の物理レンズに対するズーム操作を抽象化する
// 実装はすべてのメソッドについてゴルーチン安全でなければならない
type Device interface {
	// ID はデバイスの一意識別子を返す(V4L2 実装ではデバイスパス)
	ID() string

	// Kind はこのデバイスが属するレンズ種別を返す
	Kind() Kind

	// ZoomBounds はハードウェアが申告するネイティブズーム範囲を返す
	// デバイスは生存期間中に異なる値を申告し得るため、
	// レンズのアクティブ化ごとに呼び直すこと
	ZoomBounds(ctx context.Context) (min, max float64, err error)

	// LockForConfiguration はデバイス設定の排他ロックを取得する
	// ロックが拒否された場合は一時的な失敗として扱い、呼び出しは no-op となる
	LockForConfiguration() error

	// Unlock は LockForConfiguration で取得したロックを解放する
	Unlock()

	// SetZoom はネイティブズーム係数を即時適用する
	SetZoom(ctx context.Context, native float64) error

	// RampZoom はネイティブズーム係数へ一定速度で遷移を開始する
	// 完了を待たずに戻る。後続の SetZoom/RampZoom は進行中のランプを上書きする
	RampZoom(ctx context.Context, native float64, rate float64) error
}

// Session は常に最大1つの入力を保持するキャプチャセッションを抽象化する
// 入力の変更は BeginConfiguration/CommitConfiguration の
// 構成トランザクション内でのみ許される
// セッションを有効な入力なしで放置しないことは呼び出し側の責務である
type Session interface {
	// BeginConfiguration は構成トランザクションを開始する
	BeginConfiguration() error

	// CommitConfiguration は構成トランザクションを確定する
	// 有効な入力が存在しない状態でのコミットはエラーとなる
	CommitConfiguration() error

	// AddInput はデバイスをセッションの入力として追加する
	AddInput(d Device) error

	// RemoveInput は現在の入力をセッションから取り除く
	RemoveInput(d Device) error

	// ActiveInput は現在の入力を返す
	ActiveInput() (Device, bool)
}

// Discovery はカメラ位置ごとの物理レンズ検出を抽象化する
type Discovery interface {
	// ScanLenses は指定位置で利用可能なレンズデバイスを光学順で返す
	// 構成上存在するはずのレンズが検出されないことは異常ではなく、
	// 到達可能なズーム範囲が狭まるだけである
	ScanLenses(ctx context.Context, pos Position) ([]Device, error)

	// SwitchOverFactors は仮想デバイスが自らレンズを切り替えたがる
	// ネイティブズーム係数の列を返す(標準レンズ基準)
	// プラットフォームが申告しない場合は空を返す
	SwitchOverFactors(ctx context.Context, pos Position) ([]float64, error)
}

package lens

// Kind はレンズの種別を表す
type Kind string

const (
	KindUltraWide Kind = "ultra_wide" // 超広角レンズ
	KindWide      Kind = "wide"       // 広角レンズ(標準)
	KindTelephoto Kind = "telephoto"  // 望遠レンズ
)

// KindOrder は光学レンジの昇順で並べた既知レンズ種別の一覧
var KindOrder = []Kind{KindUltraWide, KindWide, KindTelephoto}

// RankOf は光学順序におけるレンズ種別の位置を返す
// 未知の種別の場合は false を返す
func RankOf(kind Kind) (int, bool) {
	for i, k := range KindOrder {
		if k == kind {
			return i, true
		}
	}
	return 0, false
}

// IsValid は既知のレンズ種別かどうかを返す
func (k Kind) IsValid() bool {
	_, ok := RankOf(k)
	return ok
}

// Position はカメラの位置(前面/背面)を表す
// 位置が変わるとレンズ構成は全く別物になるため、
// ズームセッションは位置の切替ごとに作り直される
type Position string

const (
	PositionBack  Position = "back"  // 背面カメラ
	PositionFront Position = "front" // 前面カメラ
)

// IsValid は既知のカメラ位置かどうかを返す
func (p Position) IsValid() bool {
	return p == PositionBack || p == PositionFront
}

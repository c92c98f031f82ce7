package lens

import "testing"

func TestKindOrder(t *testing.T) {
	// 光学レンジの昇順: 超広角 → 広角 → 望遠
	uwRank, ok := RankOf(KindUltraWide)
	if !ok {
		t.Fatal("KindUltraWide should be known")
	}
	wRank, ok := RankOf(KindWide)
	if !ok {
		t.Fatal("KindWide should be known")
	}
	tRank, ok := RankOf(KindTelephoto)
	if !ok {
		t.Fatal("KindTelephoto should be known")
	}

	if !(uwRank < wRank && wRank < tRank) {
		t.Errorf("Expected ascending optical order, got %d %d %d", uwRank, wRank, tRank)
	}

	if _, ok := RankOf(Kind("macro")); ok {
		t.Error("Unknown kind should not have a rank")
	}
}

func TestKindIsValid(t *testing.T) {
	for _, k := range KindOrder {
		if !k.IsValid() {
			t.Errorf("Expected %s to be valid", k)
		}
	}
	if Kind("").IsValid() {
		t.Error("Empty kind should be invalid")
	}
}

func TestPositionIsValid(t *testing.T) {
	if !PositionBack.IsValid() || !PositionFront.IsValid() {
		t.Error("Expected back/front to be valid positions")
	}
	if Position("side").IsValid() {
		t.Error("Unknown position should be invalid")
	}
}

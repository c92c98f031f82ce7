package zoom

import (
	"fmt"

	"sangan/internal/lens"
)

// Decide は要求された論理ズーム値とアクティブレンズから次のレンズを決定する
// 純粋関数。ヒステリシスにより境界付近の連続要求が切り替えの往復を
// 起こさないことを保証する
//
// 多段ジャンプ(例: 超広角で10.0を要求)は中間レンズを経由せず、
// 最終的に安定するレンズまで一度に解決される。反復回数はレンズ種別数で
// 抑えられるため、矛盾したテーブルでも停止する
func Decide(requestedUI float64, current lens.Kind, table ThresholdTable) lens.Kind {
	for i := 0; i < len(lens.KindOrder); i++ {
		next := step(requestedUI, current, table)
		if next == current {
			break
		}
		current = next
	}
	return current
}

// step は1段分の切り替え判定を行う
func step(ui float64, current lens.Kind, table ThresholdTable) lens.Kind {
	up, hasUp := table.Above(current)
	down, hasDown := table.Below(current)

	wantUp := hasUp && ui >= up.UpUI
	wantDown := hasDown && ui <= down.DownUI

	// 矛盾したテーブルで両方向が同時に成立した場合は現状維持を選ぶ
	if wantUp && wantDown {
		return current
	}
	if wantUp {
		return up.Upper
	}
	if wantDown {
		return down.Lower
	}
	return current
}

// DeriveThresholds はプラットフォーム申告の切替係数からレンズ構成全体の
// ヒステリシス境界を導出する。係数は標準レンズ基準のネイティブ値であり、
// 標準レンズの変換係数で論理値へ戻した境界の前後に padding を張る
func DeriveThresholds(order []lens.Kind, switchOvers []float64, standardScaler, padding float64) ([]SwitchThreshold, error) {
	if len(order) < 2 {
		return nil, nil
	}
	if len(switchOvers) < len(order)-1 {
		return nil, fmt.Errorf("切替係数が不足: レンズ%d種に対して%d件", len(order), len(switchOvers))
	}
	if standardScaler <= 0 {
		return nil, fmt.Errorf("標準レンズの変換係数が不正: %g", standardScaler)
	}
	if padding <= 0 {
		return nil, fmt.Errorf("ヒステリシス幅が不正: %g", padding)
	}

	thresholds := make([]SwitchThreshold, 0, len(order)-1)
	for i := 0; i < len(order)-1; i++ {
		boundary := switchOvers[i] / standardScaler
		t := SwitchThreshold{
			Lower:  order[i],
			Upper:  order[i+1],
			DownUI: boundary - padding,
			UpUI:   boundary + padding,
		}
		if err := t.Validate(); err != nil {
			return nil, err
		}
		thresholds = append(thresholds, t)
	}
	return thresholds, nil
}

// TableFor は全構成向けの境界一覧から、実際に検出されたレンズ構成の
// テーブルを構築する。中間レンズが欠けている場合、その間隙は上側レンズ
// への進入境界で橋渡しされる(欠けたレンズが担っていた範囲は上下の
// レンズの丸め込みで吸収される)
func TableFor(present []lens.Kind, full []SwitchThreshold) (ThresholdTable, error) {
	var bridged []SwitchThreshold
	for i := 0; i < len(present)-1; i++ {
		upper := present[i+1]

		found := false
		for _, t := range full {
			if t.Upper == upper {
				t.Lower = present[i]
				bridged = append(bridged, t)
				found = true
				break
			}
		}
		if !found {
			return ThresholdTable{}, fmt.Errorf("レンズ %s への切り替え境界が定義されていない", upper)
		}
	}
	return NewThresholdTable(bridged)
}

// Package stats は出品価格の集計統計を計算する。
package stats

import (
	"math"
	"sort"

	"github.com/hitoshi/pricecomps/internal/model"
)

// Calculate は出品リストからMarketStatsを算出する。
// 分位点（p25 / median / p75）は隣接する順序統計量の線形補間
// （R-7推定量）で計算する。入力が0件の場合、分位点は未定義のため
// nilのまま返し、Countのみ0を設定する。
func Calculate(listings []model.Listing) model.MarketStats {
	result := model.MarketStats{Count: len(listings)}
	if len(listings) == 0 {
		return result
	}

	prices := make([]float64, len(listings))
	for i, l := range listings {
		prices[i] = l.Price
	}
	sort.Float64s(prices)

	result.P25 = ptr(quantile(prices, 0.25))
	result.Median = ptr(quantile(prices, 0.5))
	result.P75 = ptr(quantile(prices, 0.75))
	return result
}

// quantile はソート済み価格列に対する分位点qを線形補間で求める。
// pos = (n-1)*q とし、base = floor(pos)、rest = pos - base として
// sorted[base] と sorted[base+1] の間を補間する。
// base+1 が範囲外の場合は sorted[base] を返す。
func quantile(sorted []float64, q float64) float64 {
	pos := float64(len(sorted)-1) * q
	base := int(math.Floor(pos))
	rest := pos - float64(base)

	if base+1 >= len(sorted) {
		return sorted[base]
	}
	return sorted[base] + rest*(sorted[base+1]-sorted[base])
}

func ptr(v float64) *float64 {
	return &v
}

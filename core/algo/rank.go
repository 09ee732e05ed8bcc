package algo

import (
	"sort"

	"github.com/huangsam/homerank/schema"
)

// RankItems sorts items by score in descending order and assigns 1-based ranks.
// Items with equal scores keep their input order. Neither input slice is modified.
func RankItems(items []schema.Item, scores []float64) []schema.RankedItem {
	return rank(items, scores, nil, nil)
}

// rank builds ranked items, attaching ideal distances when they are given.
func rank(items []schema.Item, scores, dPlus, dMinus []float64) []schema.RankedItem {
	ranked := make([]schema.RankedItem, len(items))
	for i, it := range items {
		ranked[i] = schema.RankedItem{Item: it}
		if i < len(scores) {
			ranked[i].Score = scores[i]
		}
		if i < len(dPlus) {
			ranked[i].DistancePositive = dPlus[i]
		}
		if i < len(dMinus) {
			ranked[i].DistanceNegative = dMinus[i]
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

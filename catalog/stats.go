package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceTotals is the per-source slice of Stats.
type SourceTotals struct {
	Count      int             `json:"count"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// Stats are summary figures derived from a result set. MinPrice, MaxPrice
// and LastUpdated are nil for an empty set.
type Stats struct {
	Total       int                     `json:"total"`
	Categories  int                     `json:"categories"`
	AvgPrice    decimal.Decimal         `json:"avg_price"`
	MinPrice    *decimal.Decimal        `json:"min_price,omitempty"`
	MaxPrice    *decimal.Decimal        `json:"max_price,omitempty"`
	LastUpdated *time.Time              `json:"last_updated,omitempty"`
	BySource    map[string]SourceTotals `json:"by_source"`
}

// Aggregate computes Stats over the whole result set. Records without a
// usable price count as zero so the totals agree with the visible rows.
func Aggregate(records []PriceRecord) Stats {
	stats := Stats{
		Total:    len(records),
		AvgPrice: decimal.Zero,
		BySource: make(map[string]SourceTotals),
	}
	if len(records) == 0 {
		return stats
	}

	categories := make(map[string]struct{})
	sum := decimal.Zero
	var minPrice, maxPrice decimal.Decimal
	var lastUpdated time.Time
	haveUpdated := false

	for i, rec := range records {
		price := rec.Price()
		sum = sum.Add(price)
		if i == 0 || price.LessThan(minPrice) {
			minPrice = price
		}
		if i == 0 || price.GreaterThan(maxPrice) {
			maxPrice = price
		}

		categories[rec.Category] = struct{}{}

		src := stats.BySource[rec.Source]
		src.Count++
		src.TotalPrice = src.TotalPrice.Add(price)
		stats.BySource[rec.Source] = src

		if t, ok := rec.VerifiedAt(); ok && (!haveUpdated || t.After(lastUpdated)) {
			lastUpdated = t
			haveUpdated = true
		}
	}

	stats.Categories = len(categories)
	stats.AvgPrice = sum.Div(decimal.NewFromInt(int64(len(records)))).Round(0)
	stats.MinPrice = &minPrice
	stats.MaxPrice = &maxPrice
	if haveUpdated {
		stats.LastUpdated = &lastUpdated
	}
	return stats
}

package services

import (
	"strings"
	"time"

	"pricecatalog/catalog"
)

// PriceListRow is one line of an exported price list.
type PriceListRow struct {
	Index        int
	ItemName     string
	ItemCode     string
	Category     string
	Source       string
	Unit         string
	UnitPrice    string
	IRCReference string
	LastVerified string
}

// PriceList holds all data needed for an Excel or PDF export.
type PriceList struct {
	Title         string
	FilterSummary string
	GeneratedDate string
	Rows          []PriceListRow
	Stats         catalog.Stats
}

// BuildPriceList prepares records filtered by f for export.
func BuildPriceList(records []catalog.PriceRecord, f catalog.Filter, now time.Time) PriceList {
	rows := make([]PriceListRow, 0, len(records))
	for i, rec := range records {
		verified := "N/A"
		if strings.TrimSpace(rec.LastVerified) != "" {
			verified = "Invalid Date"
			if t, ok := rec.VerifiedAt(); ok {
				verified = catalog.FormatDate(t)
			}
		}
		rows = append(rows, PriceListRow{
			Index:        i + 1,
			ItemName:     rec.ItemName,
			ItemCode:     rec.ItemCode,
			Category:     orDefault(rec.Category, "General"),
			Source:       rec.Source,
			Unit:         orDefault(rec.Unit, "N/A"),
			UnitPrice:    catalog.FormatINR(rec.Price()),
			IRCReference: strings.Join(rec.IRCReference, "; "),
			LastVerified: verified,
		})
	}

	return PriceList{
		Title:         "Price Catalog",
		FilterSummary: describeFilter(f),
		GeneratedDate: catalog.FormatDate(now),
		Rows:          rows,
		Stats:         catalog.Aggregate(records),
	}
}

func describeFilter(f catalog.Filter) string {
	f = f.Normalize()
	var parts []string
	if f.Text != "" {
		parts = append(parts, "Search: "+f.Text)
	}
	if f.Category != "" {
		parts = append(parts, "Category: "+f.Category)
	}
	if f.Source != "" {
		parts = append(parts, "Source: "+f.Source)
	}
	if len(parts) == 0 {
		return "All items"
	}
	return strings.Join(parts, " | ")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

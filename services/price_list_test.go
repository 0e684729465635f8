package services

import (
	"testing"
	"time"

	"pricecatalog/catalog"
)

func TestBuildPriceList(t *testing.T) {
	now := time.Date(2024, 11, 5, 9, 0, 0, 0, time.UTC)
	list := BuildPriceList(testRecords(), catalog.Filter{Text: "sign", Category: "all"}, now)

	if list.FilterSummary != "Search: sign" {
		t.Errorf("FilterSummary = %q", list.FilterSummary)
	}
	if list.GeneratedDate != "5/11/2024" {
		t.Errorf("GeneratedDate = %q", list.GeneratedDate)
	}
	if len(list.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(list.Rows))
	}

	first := list.Rows[0]
	if first.Index != 1 || first.UnitPrice != "₹15,000.00" || first.IRCReference != "IRC:67; IRC:SP:55" {
		t.Errorf("unexpected first row %+v", first)
	}
	if first.LastVerified != "4/11/2024" {
		t.Errorf("first LastVerified = %q", first.LastVerified)
	}

	second := list.Rows[1]
	if second.Unit != "N/A" {
		t.Errorf("expected N/A unit, got %q", second.Unit)
	}
	if second.LastVerified != "Invalid Date" {
		t.Errorf("second LastVerified = %q", second.LastVerified)
	}

	if list.Stats.Total != 2 || list.Stats.AvgPrice.String() != "7925" {
		t.Errorf("unexpected stats %+v", list.Stats)
	}
}

func TestDescribeFilter(t *testing.T) {
	tests := []struct {
		filter catalog.Filter
		want   string
	}{
		{catalog.Filter{}, "All items"},
		{catalog.Filter{Category: "all", Source: "all"}, "All items"},
		{catalog.Filter{Category: "marking", Source: "GeM"}, "Category: marking | Source: GeM"},
	}
	for _, tt := range tests {
		if got := describeFilter(tt.filter); got != tt.want {
			t.Errorf("describeFilter(%+v) = %q, want %q", tt.filter, got, tt.want)
		}
	}
}

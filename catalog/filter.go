package catalog

import "strings"

// AllValue is the dropdown value meaning "no restriction".
const AllValue = "all"

// Filter selects the result set. Empty fields match everything.
type Filter struct {
	Text     string `json:"query"`
	Category string `json:"category,omitempty"`
	Source   string `json:"source,omitempty"`
}

// Normalize trims the filter and folds the "all" dropdown value into empty.
func (f Filter) Normalize() Filter {
	f.Text = strings.TrimSpace(f.Text)
	f.Category = strings.TrimSpace(f.Category)
	f.Source = strings.TrimSpace(f.Source)
	if strings.EqualFold(f.Category, AllValue) {
		f.Category = ""
	}
	if strings.EqualFold(f.Source, AllValue) {
		f.Source = ""
	}
	return f
}

// Matches reports whether rec belongs to the result set for f. Text matches
// case-insensitively anywhere in the item name or item code; category and
// source must match exactly.
func (f Filter) Matches(rec PriceRecord) bool {
	f = f.Normalize()
	if f.Category != "" && rec.Category != f.Category {
		return false
	}
	if f.Source != "" && rec.Source != f.Source {
		return false
	}
	if f.Text == "" {
		return true
	}
	needle := strings.ToLower(f.Text)
	return strings.Contains(strings.ToLower(rec.ItemName), needle) ||
		strings.Contains(strings.ToLower(rec.ItemCode), needle)
}

// Select returns the records matching f, keeping their order.
func Select(records []PriceRecord, f Filter) []PriceRecord {
	out := make([]PriceRecord, 0, len(records))
	for _, rec := range records {
		if f.Matches(rec) {
			out = append(out, rec)
		}
	}
	return out
}

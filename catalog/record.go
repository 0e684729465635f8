// Package catalog implements the price catalog engine: filtering and paging
// a result set fetched from a remote price store, aggregating statistics over
// it, tracking a row selection, applying mutations through the store and
// exporting the current view as CSV.
package catalog

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Categories a catalog item can be filed under. Stores may hold free-text
// categories as well; these are the ones the dashboard offers.
const (
	CategorySignage   = "signage"
	CategoryMarking   = "marking"
	CategoryBarrier   = "barrier"
	CategoryLighting  = "lighting"
	CategorySurfacing = "surfacing"
	CategoryEquipment = "equipment"
	CategoryOther     = "other"
)

// Categories lists the known categories in display order.
var Categories = []string{
	CategorySignage,
	CategoryMarking,
	CategoryBarrier,
	CategoryLighting,
	CategorySurfacing,
	CategoryEquipment,
	CategoryOther,
}

// Sources identify the official price list a record was taken from.
const (
	SourceCPWDSOR  = "CPWD_SOR"
	SourceGeM      = "GeM"
	SourceMORTH    = "MORTH"
	SourceStateSOR = "STATE_SOR"
	SourceMarket   = "MARKET"
	SourceOther    = "OTHER"
)

// Sources lists the known provenance tags in display order.
var Sources = []string{
	SourceCPWDSOR,
	SourceGeM,
	SourceMORTH,
	SourceStateSOR,
	SourceMarket,
	SourceOther,
}

// PriceRecord is one priced catalog entry as returned by the store.
//
// LastVerified and CreatedAt hold the raw stored strings so that an absent
// value and a value that is not a valid date-time stay distinguishable.
type PriceRecord struct {
	ID           string
	ItemName     string
	Category     string
	UnitPrice    decimal.NullDecimal
	Unit         string
	Source       string
	ItemCode     string
	IRCReference []string
	Description  string
	LastVerified string
	CreatedAt    string
}

// priceRecordJSON has the same fields as PriceRecord but carries unit_price
// as raw JSON so it can be encoded as a number and decoded leniently.
type priceRecordJSON struct {
	ID           string          `json:"id"`
	ItemName     string          `json:"item_name"`
	Category     string          `json:"category"`
	UnitPrice    json.RawMessage `json:"unit_price"`
	Unit         string          `json:"unit"`
	Source       string          `json:"source"`
	ItemCode     string          `json:"item_code,omitempty"`
	IRCReference []string        `json:"irc_reference"`
	Description  string          `json:"description,omitempty"`
	LastVerified string          `json:"last_verified,omitempty"`
	CreatedAt    string          `json:"created_at,omitempty"`
}

// MarshalJSON encodes unit_price as a JSON number, or null when absent.
func (r PriceRecord) MarshalJSON() ([]byte, error) {
	price := json.RawMessage("null")
	if r.UnitPrice.Valid {
		price = json.RawMessage(r.UnitPrice.Decimal.String())
	}
	refs := r.IRCReference
	if refs == nil {
		refs = []string{}
	}
	return json.Marshal(priceRecordJSON{
		ID:           r.ID,
		ItemName:     r.ItemName,
		Category:     r.Category,
		UnitPrice:    price,
		Unit:         r.Unit,
		Source:       r.Source,
		ItemCode:     r.ItemCode,
		IRCReference: refs,
		Description:  r.Description,
		LastVerified: r.LastVerified,
		CreatedAt:    r.CreatedAt,
	})
}

// UnmarshalJSON accepts unit_price as a number or a numeric string. Any other
// value leaves the price invalid instead of failing the whole record.
func (r *PriceRecord) UnmarshalJSON(data []byte) error {
	var raw priceRecordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = PriceRecord{
		ID:           raw.ID,
		ItemName:     raw.ItemName,
		Category:     raw.Category,
		UnitPrice:    parseRawPrice(raw.UnitPrice),
		Unit:         raw.Unit,
		Source:       raw.Source,
		ItemCode:     raw.ItemCode,
		IRCReference: raw.IRCReference,
		Description:  raw.Description,
		LastVerified: raw.LastVerified,
		CreatedAt:    raw.CreatedAt,
	}
	return nil
}

func parseRawPrice(raw json.RawMessage) decimal.NullDecimal {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.NullDecimal{}
	}
	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return decimal.NullDecimal{}
		}
	}
	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// Price returns the unit price used for aggregation. Missing, invalid and
// negative prices count as zero.
func (r PriceRecord) Price() decimal.Decimal {
	if !r.UnitPrice.Valid || r.UnitPrice.Decimal.IsNegative() {
		return decimal.Zero
	}
	return r.UnitPrice.Decimal
}

// VerifiedAt parses LastVerified. The second result is false when the value
// is absent or cannot be parsed.
func (r PriceRecord) VerifiedAt() (time.Time, bool) {
	return ParseTimestamp(r.LastVerified)
}

// timestampLayouts are the date-time encodings stores are known to emit.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.000Z07:00",
	"2006-01-02 15:04:05.000Z",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses a stored date-time string.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeReferences trims every citation and drops the empty ones. Order
// and duplicates are kept.
func NormalizeReferences(refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		out = append(out, ref)
	}
	return out
}

// IDs returns the identifiers of records in order.
func IDs(records []PriceRecord) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}

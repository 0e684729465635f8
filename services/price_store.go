package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"pricecatalog/catalog"
	"pricecatalog/collections"
)

// ErrPriceNotFound is returned for ids that are not in price_data.
var ErrPriceNotFound = errors.New("price record not found")

// likeEscaper makes the LIKE wildcards in user text match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// searchSort keeps results stable for a fixed filter.
const searchSort = "item_name,id"

// PriceStore is a catalog.Store over the price_data collection.
type PriceStore struct {
	app core.App
}

var _ catalog.Store = (*PriceStore)(nil)

// NewPriceStore returns a store reading and writing app's price_data.
func NewPriceStore(app core.App) *PriceStore {
	return &PriceStore{app: app}
}

// BuildPriceFilter translates f into a PocketBase filter expression and its
// params. Text matches item name or item code, case-insensitively.
func BuildPriceFilter(f catalog.Filter) (string, map[string]any) {
	f = f.Normalize()
	clauses := []string{"id != ''"}
	params := map[string]any{}

	if f.Text != "" {
		clauses = append(clauses, "(item_name ~ {:query} || item_code ~ {:query})")
		params["query"] = likeEscaper.Replace(f.Text)
	}
	if f.Category != "" {
		clauses = append(clauses, "category = {:category}")
		params["category"] = f.Category
	}
	if f.Source != "" {
		clauses = append(clauses, "source = {:source}")
		params["source"] = f.Source
	}
	return strings.Join(clauses, " && "), params
}

func (s *PriceStore) Search(ctx context.Context, f catalog.Filter) ([]catalog.PriceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	filter, params := BuildPriceFilter(f)
	records, err := s.app.FindRecordsByFilter(collections.PriceData, filter, searchSort, 0, 0, params)
	if err != nil {
		return nil, fmt.Errorf("price_store: search: %w", err)
	}
	out := make([]catalog.PriceRecord, 0, len(records))
	for _, r := range records {
		out = append(out, ToPriceRecord(r))
	}
	return out, nil
}

// Create implements catalog.Store.
func (s *PriceStore) Create(ctx context.Context, rec catalog.PriceRecord, idempotencyKey string) error {
	_, _, err := s.CreateRecord(ctx, rec, idempotencyKey)
	return err
}

// CreateRecord stores rec and returns it as saved. When idempotencyKey was
// already used the earlier record is returned with created set to false.
func (s *PriceStore) CreateRecord(ctx context.Context, rec catalog.PriceRecord, idempotencyKey string) (catalog.PriceRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return catalog.PriceRecord{}, false, err
	}
	if err := catalog.ValidateRecord(rec); err != nil {
		return catalog.PriceRecord{}, false, err
	}

	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if idempotencyKey != "" {
		existing, err := s.app.FindFirstRecordByFilter(collections.PriceData,
			"idempotency_key = {:key}", map[string]any{"key": idempotencyKey})
		switch {
		case err == nil:
			log.Debug().Str("id", existing.Id).Str("idempotency_key", idempotencyKey).Msg("price_store: replayed create")
			return ToPriceRecord(existing), false, nil
		case !errors.Is(err, sql.ErrNoRows):
			return catalog.PriceRecord{}, false, fmt.Errorf("price_store: lookup idempotency key: %w", err)
		}
	}

	col, err := s.app.FindCollectionByNameOrId(collections.PriceData)
	if err != nil {
		return catalog.PriceRecord{}, false, fmt.Errorf("price_store: find collection: %w", err)
	}
	record := core.NewRecord(col)
	if err := setPriceFields(record, rec); err != nil {
		return catalog.PriceRecord{}, false, err
	}
	record.Set("idempotency_key", idempotencyKey)

	if err := s.app.Save(record); err != nil {
		return catalog.PriceRecord{}, false, fmt.Errorf("price_store: save: %w", err)
	}
	return ToPriceRecord(record), true, nil
}

// Update applies each patch on its own. One failing patch does not stop the
// others.
func (s *PriceStore) Update(ctx context.Context, patches []catalog.Patch) ([]catalog.UpdateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	results := make([]catalog.UpdateResult, 0, len(patches))
	for _, p := range patches {
		if err := s.updateOne(p); err != nil {
			log.Warn().Err(err).Str("id", p.ID).Msg("price_store: update rejected")
			results = append(results, catalog.UpdateResult{ID: p.ID, Error: err.Error()})
			continue
		}
		results = append(results, catalog.UpdateResult{ID: p.ID, OK: true})
	}
	return results, nil
}

func (s *PriceStore) updateOne(p catalog.Patch) error {
	if err := p.Validate(); err != nil {
		return err
	}
	record, err := s.app.FindRecordById(collections.PriceData, p.ID)
	if err != nil {
		return ErrPriceNotFound
	}
	next := p.Apply(ToPriceRecord(record))
	if err := setPriceFields(record, next); err != nil {
		return err
	}
	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

func (s *PriceStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	record, err := s.app.FindRecordById(collections.PriceData, id)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrPriceNotFound, id)
	}
	if err := s.app.Delete(record); err != nil {
		return fmt.Errorf("price_store: delete %s: %w", id, err)
	}
	return nil
}

// ToPriceRecord maps a price_data record to the engine type.
func ToPriceRecord(r *core.Record) catalog.PriceRecord {
	var refs []string
	if err := r.UnmarshalJSONField("irc_reference", &refs); err != nil {
		refs = nil
	}
	return catalog.PriceRecord{
		ID:           r.Id,
		ItemName:     r.GetString("item_name"),
		Category:     r.GetString("category"),
		UnitPrice:    decimal.NewNullDecimal(decimal.NewFromFloat(r.GetFloat("unit_price"))),
		Unit:         r.GetString("unit"),
		Source:       r.GetString("source"),
		ItemCode:     r.GetString("item_code"),
		IRCReference: catalog.NormalizeReferences(refs),
		Description:  r.GetString("description"),
		LastVerified: formatDateTime(r.GetDateTime("last_verified")),
		CreatedAt:    formatDateTime(r.GetDateTime("created")),
	}
}

func formatDateTime(dt types.DateTime) string {
	if dt.IsZero() {
		return ""
	}
	return dt.Time().UTC().Format(time.RFC3339)
}

// setPriceFields copies the editable fields of rec onto r.
func setPriceFields(r *core.Record, rec catalog.PriceRecord) error {
	r.Set("item_name", strings.TrimSpace(rec.ItemName))
	r.Set("category", strings.TrimSpace(rec.Category))
	r.Set("unit_price", rec.Price().InexactFloat64())
	r.Set("unit", strings.TrimSpace(rec.Unit))
	r.Set("source", strings.TrimSpace(rec.Source))
	r.Set("item_code", strings.TrimSpace(rec.ItemCode))
	r.Set("irc_reference", catalog.NormalizeReferences(rec.IRCReference))
	r.Set("description", rec.Description)

	if raw := strings.TrimSpace(rec.LastVerified); raw != "" {
		t, ok := catalog.ParseTimestamp(raw)
		if !ok {
			return &catalog.Error{
				Kind:   catalog.KindValidation,
				Op:     "save",
				Fields: map[string]string{"last_verified": "is not a valid date"},
			}
		}
		r.Set("last_verified", t.UTC())
	}
	return nil
}

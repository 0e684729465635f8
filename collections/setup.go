package collections

import (
	"fmt"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/rs/zerolog/log"
)

// PriceData is the collection holding catalog price records.
const PriceData = "price_data"

// Setup programmatically creates/ensures the price_data collection exists.
func Setup(app *pocketbase.PocketBase) error {
	_, err := ensureCollection(app, PriceData, func(c *core.Collection) {
		minPrice := 0.0
		c.Fields.Add(&core.TextField{Name: "item_name", Required: true, Max: 300})
		c.Fields.Add(&core.TextField{Name: "category", Max: 100})
		// Not Required: a required number field rejects zero.
		c.Fields.Add(&core.NumberField{Name: "unit_price", Min: &minPrice})
		c.Fields.Add(&core.TextField{Name: "unit", Max: 50})
		c.Fields.Add(&core.TextField{Name: "source", Max: 50})
		c.Fields.Add(&core.TextField{Name: "item_code", Max: 100})
		c.Fields.Add(&core.JSONField{Name: "irc_reference", MaxSize: 64 * 1024})
		c.Fields.Add(&core.TextField{Name: "description"})
		c.Fields.Add(&core.DateField{Name: "last_verified"})
		c.Fields.Add(&core.TextField{Name: "idempotency_key", Max: 100})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})

		c.AddIndex("idx_price_data_idempotency_key", true, "idempotency_key", "idempotency_key != ''")
		c.AddIndex("idx_price_data_item_name", false, "item_name", "")
		c.AddIndex("idx_price_data_category_source", false, "category, source", "")
	})
	return err
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app *pocketbase.PocketBase, name string, addFields func(*core.Collection)) (*core.Collection, error) {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		log.Debug().Str("collection", name).Msg("collections: already exists, skipping creation")
		return existing, nil
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		return nil, fmt.Errorf("create collection %q: %w", name, err)
	}

	log.Info().Str("collection", name).Str("id", collection.Id).Msg("collections: created")
	return collection, nil
}

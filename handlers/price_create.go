package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/rs/zerolog/log"

	"pricecatalog/catalog"
	"pricecatalog/services"
)

// IdempotencyKeyHeader carries the client's create key.
const IdempotencyKeyHeader = "Idempotency-Key"

// HandlePriceCreate stores a new price record. The id and created_at fields
// of the body are ignored. A repeated Idempotency-Key returns the record
// created the first time with 200 instead of 201.
// Route: POST /api/price-data
func HandlePriceCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	store := services.NewPriceStore(app)
	return func(e *core.RequestEvent) error {
		var rec catalog.PriceRecord
		if err := json.NewDecoder(e.Request.Body).Decode(&rec); err != nil {
			return ErrorJSON(e, http.StatusBadRequest, "Invalid request body")
		}
		rec.ID = ""
		rec.CreatedAt = ""

		key := strings.TrimSpace(e.Request.Header.Get(IdempotencyKeyHeader))
		saved, created, err := store.CreateRecord(e.Request.Context(), rec, key)
		if err != nil {
			if catalog.KindOf(err) != catalog.KindValidation {
				log.Error().Err(err).Str("item_name", rec.ItemName).Msg("price_create: save failed")
			}
			return storeError(e, err)
		}

		if !created {
			return e.JSON(http.StatusOK, saved)
		}
		log.Info().Str("id", saved.ID).Str("item_name", saved.ItemName).Msg("price_create: created")
		return e.JSON(http.StatusCreated, saved)
	}
}

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/rs/zerolog/log"

	"pricecatalog/catalog"
	"pricecatalog/services"
)

// UpdateRequest is the expected JSON body for a batched update.
type UpdateRequest struct {
	Items []catalog.Patch `json:"items"`
}

type updateResponse struct {
	Results []catalog.UpdateResult `json:"results"`
}

// HandlePriceUpdate applies each patch independently and reports the outcome
// per record. Only the editable fields of a patch are applied.
// Route: PATCH /api/price-data
func HandlePriceUpdate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	store := services.NewPriceStore(app)
	return func(e *core.RequestEvent) error {
		var req UpdateRequest
		if err := json.NewDecoder(e.Request.Body).Decode(&req); err != nil {
			return ErrorJSON(e, http.StatusBadRequest, "Invalid request body")
		}
		if len(req.Items) == 0 {
			return ErrorJSON(e, http.StatusBadRequest, "No items provided")
		}

		results, err := store.Update(e.Request.Context(), req.Items)
		if err != nil {
			log.Error().Err(err).Int("items", len(req.Items)).Msg("price_update: failed")
			return ErrorJSON(e, http.StatusInternalServerError, "Failed to update prices")
		}
		return e.JSON(http.StatusOK, updateResponse{Results: results})
	}
}

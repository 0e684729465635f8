package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/rs/zerolog/log"

	"pricecatalog/services"
)

// HandlePriceDelete removes one price record.
// Route: DELETE /api/price-data/{id}
func HandlePriceDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	store := services.NewPriceStore(app)
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		if id == "" {
			return ErrorJSON(e, http.StatusBadRequest, "Missing price id")
		}

		if err := store.Delete(e.Request.Context(), id); err != nil {
			if !errors.Is(err, services.ErrPriceNotFound) {
				log.Error().Err(err).Str("id", id).Msg("price_delete: failed")
			}
			return storeError(e, err)
		}
		return e.NoContent(http.StatusNoContent)
	}
}

// BulkDeleteRequest is the expected JSON body for bulk delete.
type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// HandlePriceBulkDelete deletes every listed id on a best-effort basis and
// reports the ones that could not be removed.
// Route: DELETE /api/price-data/bulk
// Expects JSON body: {"ids": ["id1", "id2", ...]}
func HandlePriceBulkDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	store := services.NewPriceStore(app)
	return func(e *core.RequestEvent) error {
		var req BulkDeleteRequest
		if err := e.BindBody(&req); err != nil {
			return ErrorJSON(e, http.StatusBadRequest, "Invalid request body")
		}
		if len(req.IDs) == 0 {
			return ErrorJSON(e, http.StatusBadRequest, "No IDs provided")
		}

		deleteErrors := []string{}
		for _, id := range req.IDs {
			err := store.Delete(e.Request.Context(), id)
			switch {
			case err == nil:
			case errors.Is(err, services.ErrPriceNotFound):
				deleteErrors = append(deleteErrors, fmt.Sprintf("%s: not found", id))
			default:
				deleteErrors = append(deleteErrors, fmt.Sprintf("%s: delete failed", id))
				log.Error().Err(err).Str("id", id).Msg("price_bulk_delete: failed")
			}
		}

		if len(deleteErrors) > 0 {
			log.Warn().Strs("errors", deleteErrors).Msg("price_bulk_delete: partial errors")
		}

		return e.JSON(http.StatusOK, map[string]any{
			"deleted": len(req.IDs) - len(deleteErrors),
			"errors":  deleteErrors,
		})
	}
}

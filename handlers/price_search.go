package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/rs/zerolog/log"

	"pricecatalog/catalog"
	"pricecatalog/metrics"
	"pricecatalog/services"
)

// searchResponse is the body of GET /api/price-data.
type searchResponse struct {
	Items []catalog.PriceRecord `json:"items"`
}

// HandlePriceSearch returns every record matching the query, category and
// source parameters, ordered by item name.
// Route: GET /api/price-data
func HandlePriceSearch(app *pocketbase.PocketBase, m *metrics.StoreMetrics) func(*core.RequestEvent) error {
	store := services.NewPriceStore(app)
	return func(e *core.RequestEvent) error {
		f := filterFromQuery(e)

		records, err := store.Search(e.Request.Context(), f)
		if err != nil {
			log.Error().Err(err).Str("query", f.Text).Msg("price_search: failed")
			return ErrorJSON(e, http.StatusInternalServerError, "Failed to search prices")
		}

		m.SetSearchResults(len(records))
		return e.JSON(http.StatusOK, searchResponse{Items: records})
	}
}

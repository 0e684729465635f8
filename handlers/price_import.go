package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/rs/zerolog/log"

	"pricecatalog/services"
)

// maxImportSize caps the multipart form held in memory.
const maxImportSize = 10 << 20

type importResponse struct {
	Validation *services.ValidationResult `json:"validation"`
	Import     *services.ImportSummary    `json:"import,omitempty"`
}

// HandlePriceImport validates an uploaded .csv or .xlsx price list and
// creates its valid rows. With ?dry_run=true nothing is created. Rows with
// errors are always skipped and listed in the response.
// Route: POST /api/price-data/import
func HandlePriceImport(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	store := services.NewPriceStore(app)
	return func(e *core.RequestEvent) error {
		if err := e.Request.ParseMultipartForm(maxImportSize); err != nil {
			return ErrorJSON(e, http.StatusBadRequest, "File too large or invalid form data")
		}

		file, header, err := e.Request.FormFile("file")
		if err != nil {
			return ErrorJSON(e, http.StatusBadRequest, "Please select a file to upload")
		}
		defer file.Close()

		result, err := services.ValidatePriceFile(file, header.Filename)
		if err != nil {
			log.Warn().Err(err).Str("file", header.Filename).Msg("price_import: rejected")
			return ErrorJSON(e, http.StatusBadRequest, err.Error())
		}

		resp := importResponse{Validation: result}
		if e.Request.URL.Query().Get("dry_run") == "true" {
			return e.JSON(http.StatusOK, resp)
		}

		summary, err := services.ImportPrices(e.Request.Context(), store, result)
		if err != nil {
			log.Error().Err(err).Str("file", header.Filename).Msg("price_import: commit failed")
			return ErrorJSON(e, http.StatusInternalServerError, "Import stopped part way. Upload the same file again to finish it.")
		}
		resp.Import = &summary
		return e.JSON(http.StatusOK, resp)
	}
}

// HandlePriceImportErrors turns the posted validation errors into an .xlsx
// report for download.
// Route: POST /api/price-data/import/errors
func HandlePriceImportErrors(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var errors []services.ValidationError
		if err := json.NewDecoder(e.Request.Body).Decode(&errors); err != nil {
			return ErrorJSON(e, http.StatusBadRequest, "Invalid error data")
		}

		xlsxBytes, err := services.GenerateErrorReport(errors)
		if err != nil {
			log.Error().Err(err).Msg("price_import_errors: report failed")
			return ErrorJSON(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		filename := fmt.Sprintf("PriceImport_Errors_%s.xlsx", time.Now().Format("2006-01-02"))
		return writeDownload(e, services.ExcelMIMEType, filename, xlsxBytes)
	}
}

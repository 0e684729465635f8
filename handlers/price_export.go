package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/rs/zerolog/log"

	"pricecatalog/catalog"
	"pricecatalog/services"
)

// writeDownload sends data as an attachment.
func writeDownload(e *core.RequestEvent, contentType, filename string, data []byte) error {
	e.Response.Header().Set("Content-Type", contentType)
	e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	e.Response.WriteHeader(http.StatusOK)
	_, err := e.Response.Write(data)
	return err
}

// loadPriceList runs the request's filter against the store.
func loadPriceList(e *core.RequestEvent, store *services.PriceStore) ([]catalog.PriceRecord, catalog.Filter, error) {
	f := filterFromQuery(e)
	records, err := store.Search(e.Request.Context(), f)
	return records, f, err
}

// HandlePriceExportCSV downloads the filtered price data as CSV. The search
// runs through a catalog session so obs sees it like any other catalog search.
// Route: GET /price-data/export/csv
func HandlePriceExportCSV(app *pocketbase.PocketBase, obs catalog.Observer) func(*core.RequestEvent) error {
	store := services.NewPriceStore(app)
	return func(e *core.RequestEvent) error {
		sess := catalog.NewSession(store, catalog.Options{Logger: log.Logger, Observer: obs})
		if err := sess.Search(e.Request.Context(), filterFromQuery(e)); err != nil {
			log.Error().Err(err).Msg("export_csv: search failed")
			return ErrorJSON(e, http.StatusInternalServerError, "Failed to load price data")
		}
		out := sess.ExportCSV(time.Now())
		return writeDownload(e, out.MIMEType, out.Filename, out.Data)
	}
}

// HandlePriceExportExcel downloads the filtered price list as .xlsx.
// Route: GET /price-data/export/excel
func HandlePriceExportExcel(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	store := services.NewPriceStore(app)
	return func(e *core.RequestEvent) error {
		records, f, err := loadPriceList(e, store)
		if err != nil {
			log.Error().Err(err).Msg("export_excel: search failed")
			return ErrorJSON(e, http.StatusInternalServerError, "Failed to load price data")
		}

		now := time.Now()
		xlsxBytes, err := services.GenerateExcel(services.BuildPriceList(records, f, now))
		if err != nil {
			log.Error().Err(err).Msg("export_excel: generate failed")
			return ErrorJSON(e, http.StatusInternalServerError, "Failed to generate Excel file")
		}

		filename := fmt.Sprintf("price_list_%s.xlsx", now.Format("2006-01-02"))
		return writeDownload(e, services.ExcelMIMEType, filename, xlsxBytes)
	}
}

// HandlePriceExportPDF downloads the filtered price list as PDF.
// Route: GET /price-data/export/pdf
func HandlePriceExportPDF(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	store := services.NewPriceStore(app)
	return func(e *core.RequestEvent) error {
		records, f, err := loadPriceList(e, store)
		if err != nil {
			log.Error().Err(err).Msg("export_pdf: search failed")
			return ErrorJSON(e, http.StatusInternalServerError, "Failed to load price data")
		}

		now := time.Now()
		pdfBytes, err := services.GeneratePDF(services.BuildPriceList(records, f, now))
		if err != nil {
			log.Error().Err(err).Msg("export_pdf: generate failed")
			return ErrorJSON(e, http.StatusInternalServerError, "Failed to generate PDF")
		}

		filename := fmt.Sprintf("price_list_%s.pdf", now.Format("2006-01-02"))
		return writeDownload(e, "application/pdf", filename, pdfBytes)
	}
}

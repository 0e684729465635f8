package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"pricecatalog/metrics"
	"pricecatalog/testhelpers"
)

func TestHandlePriceExportCSV(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestPrice(t, app, "Sign A", 15000, testhelpers.PriceFields{Source: "CPWD_SOR", ItemCode: "16.62.1"})
	testhelpers.CreateTestPrice(t, app, "Paint B", 850, testhelpers.PriceFields{Source: "GeM"})

	req := httptest.NewRequest(http.MethodGet, "/price-data/export/csv?source=GeM", nil)
	rec := serve(t, app, HandlePriceExportCSV(app, nil), req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "price_data_") || !strings.HasSuffix(cd, `.csv"`) {
		t.Errorf("Content-Disposition = %q", cd)
	}

	body := rec.Body.String()
	if !strings.HasPrefix(body, "\ufeffItem Name,") {
		t.Errorf("body does not start with BOM and header: %q", body)
	}
	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and 1 row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[1], "Paint B,General,₹850,N/A,GeM") {
		t.Errorf("row = %q", lines[1])
	}
}

func TestHandlePriceExportCSV_CountsCatalogSearch(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestPrice(t, app, "Sign A", 15000, testhelpers.PriceFields{})

	reg := prometheus.NewRegistry()
	handler := HandlePriceExportCSV(app, metrics.NewEngineMetrics(reg))
	for i := 0; i < 2; i++ {
		rec := serve(t, app, handler, httptest.NewRequest(http.MethodGet, "/price-data/export/csv", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	}

	if got := operationCount(t, reg, "search", "ok"); got != 2 {
		t.Errorf("catalog_operations_total{op=search,outcome=ok} = %v, want 2", got)
	}
}

func operationCount(t *testing.T, reg *prometheus.Registry, op, outcome string) float64 {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "catalog_operations_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["op"] == op && labels["outcome"] == outcome {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestHandlePriceExportCSV_Escaping(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestPrice(t, app, `Sign, "Large"`, 100, testhelpers.PriceFields{})

	rec := serve(t, app, HandlePriceExportCSV(app, nil), httptest.NewRequest(http.MethodGet, "/price-data/export/csv", nil))
	testhelpers.AssertBodyContains(t, rec.Body.String(), `"Sign, ""Large"""`)
}

func TestHandlePriceExportExcel(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestPrice(t, app, "Paint B", 850, testhelpers.PriceFields{Source: "GeM"})

	rec := serve(t, app, HandlePriceExportExcel(app), httptest.NewRequest(http.MethodGet, "/price-data/export/excel", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.HasSuffix(cd, `.xlsx"`) {
		t.Errorf("Content-Disposition = %q", cd)
	}
	// xlsx files are zip archives
	if !strings.HasPrefix(rec.Body.String(), "PK") {
		t.Error("body is not a zip archive")
	}
}

func TestHandlePriceExportPDF(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestPrice(t, app, "Paint B", 850, testhelpers.PriceFields{Source: "GeM"})

	rec := serve(t, app, HandlePriceExportPDF(app), httptest.NewRequest(http.MethodGet, "/price-data/export/pdf?query=paint", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "%PDF-") {
		t.Error("body is not a PDF")
	}
}

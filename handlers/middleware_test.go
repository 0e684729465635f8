package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pocketbase/pocketbase/core"
	"github.com/prometheus/client_golang/prometheus"

	"pricecatalog/metrics"
	"pricecatalog/testhelpers"
)

func requestCount(t *testing.T, reg *prometheus.Registry, op, status string) float64 {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "price_store_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["op"] == op && labels["status"] == status {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestInstrument_RecordsStatus(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	reg := prometheus.NewRegistry()
	m := metrics.NewStoreMetrics(reg)

	handler := Instrument(m, "delete", HandlePriceDelete(app))
	req := httptest.NewRequest(http.MethodDelete, "/api/price-data/missing", nil)
	req.SetPathValue("id", "missing")
	rec := serve(t, app, handler, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if got := requestCount(t, reg, "delete", "404"); got != 1 {
		t.Errorf("delete/404 count = %v, want 1", got)
	}
}

func TestInstrument_ErrorWithoutResponse(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewStoreMetrics(reg)

	failing := func(e *core.RequestEvent) error { return errors.New("boom") }
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(nil, httptest.NewRequest(http.MethodGet, "/", nil), rec)

	if err := Instrument(m, "search", failing)(e); err == nil {
		t.Fatal("expected the handler error to pass through")
	}
	if got := requestCount(t, reg, "search", "500"); got != 1 {
		t.Errorf("search/500 count = %v, want 1", got)
	}
	if e.Response != rec {
		t.Error("response writer was not restored")
	}
}

func TestInstrument_NilMetrics(t *testing.T) {
	ok := func(e *core.RequestEvent) error { return e.NoContent(http.StatusNoContent) }
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(nil, httptest.NewRequest(http.MethodGet, "/", nil), rec)

	if err := Instrument(nil, "search", ok)(e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}

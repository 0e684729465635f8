package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"pricecatalog/testhelpers"
)

func TestRouter_BulkDeleteIndependentOfRegistrationOrder(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	r, err := apis.NewRouter(app)
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	r.DELETE("/api/price-data/{id}", func(e *core.RequestEvent) error {
		return e.String(http.StatusOK, "id:"+e.Request.PathValue("id"))
	})
	r.DELETE("/api/price-data/bulk", func(e *core.RequestEvent) error {
		return e.String(http.StatusOK, "bulk")
	})

	mux, err := r.BuildMux()
	if err != nil {
		t.Fatalf("build mux: %v", err)
	}

	tests := []struct {
		path string
		want string
	}{
		{"/api/price-data/bulk", "bulk"},
		{"/api/price-data/abc123", "id:abc123"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, tt.path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("DELETE %s: expected 200, got %d", tt.path, rec.Code)
		}
		if got := rec.Body.String(); got != tt.want {
			t.Errorf("DELETE %s routed to %q, want %q", tt.path, got, tt.want)
		}
	}
}

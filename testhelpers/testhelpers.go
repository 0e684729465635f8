// Package testhelpers provides utilities for testing the PocketBase price store.
package testhelpers

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"pricecatalog/collections"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	if err := collections.Setup(app); err != nil {
		t.Fatalf("failed to set up collections: %v", err)
	}

	return app
}

// PriceFields are the optional fields of a test price record.
type PriceFields struct {
	Category     string
	Unit         string
	Source       string
	ItemCode     string
	IRCReference []string
	LastVerified string
}

// CreateTestPrice creates a price_data record and returns it.
func CreateTestPrice(t *testing.T, app *pocketbase.PocketBase, itemName string, unitPrice float64, fields PriceFields) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId(collections.PriceData)
	if err != nil {
		t.Fatalf("failed to find %s collection: %v", collections.PriceData, err)
	}

	record := core.NewRecord(col)
	record.Set("item_name", itemName)
	record.Set("unit_price", unitPrice)
	record.Set("category", fields.Category)
	record.Set("unit", fields.Unit)
	record.Set("source", fields.Source)
	record.Set("item_code", fields.ItemCode)
	if fields.IRCReference != nil {
		record.Set("irc_reference", fields.IRCReference)
	}
	if fields.LastVerified != "" {
		record.Set("last_verified", fields.LastVerified)
	}

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test price %q: %v", itemName, err)
	}

	return record
}

// CountPrices returns the number of price_data records.
func CountPrices(t *testing.T, app *pocketbase.PocketBase) int {
	t.Helper()

	n, err := app.CountRecords(collections.PriceData)
	if err != nil {
		t.Fatalf("failed to count price records: %v", err)
	}
	return int(n)
}

// DecodeJSON unmarshals body into v, failing the test on error.
func DecodeJSON(t *testing.T, body string, v any) {
	t.Helper()

	if err := json.Unmarshal([]byte(body), v); err != nil {
		t.Fatalf("failed to decode JSON response: %v\nbody (first 500 chars): %s", err, truncate(body, 500))
	}
}

// AssertBodyContains checks that body contains all specified fragments.
func AssertBodyContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("expected body to contain %q, but it was not found\nbody (first 500 chars): %s",
				frag, truncate(body, 500))
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

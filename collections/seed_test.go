package collections_test

import (
	"testing"

	"pricecatalog/collections"
	"pricecatalog/testhelpers"
)

func TestSeed_CreatesData(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	if err := collections.Seed(app); err != nil {
		t.Fatalf("Seed() error: %v", err)
	}

	records, err := app.FindRecordsByFilter(collections.PriceData, "source = 'CPWD_SOR'", "item_name", 0, 0)
	if err != nil {
		t.Fatalf("query seeded prices error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 CPWD_SOR prices, got %d", len(records))
	}
	if got := records[0].GetString("item_name"); got != "Mandatory sign, 600mm circular" {
		t.Errorf("first CPWD item = %q", got)
	}

	if n := testhelpers.CountPrices(t, app); n < 5 {
		t.Errorf("expected seed data, got %d records", n)
	}
}

func TestSeed_Idempotent(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	if err := collections.Seed(app); err != nil {
		t.Fatalf("first Seed() error: %v", err)
	}
	before := testhelpers.CountPrices(t, app)

	if err := collections.Seed(app); err != nil {
		t.Fatalf("second Seed() error: %v", err)
	}
	if after := testhelpers.CountPrices(t, app); after != before {
		t.Errorf("expected %d records after second seed, got %d", before, after)
	}
}

func TestSeed_SkipsWhenDataExists(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestPrice(t, app, "Existing item", 100, testhelpers.PriceFields{})

	if err := collections.Seed(app); err != nil {
		t.Fatalf("Seed() error: %v", err)
	}
	if n := testhelpers.CountPrices(t, app); n != 1 {
		t.Errorf("expected seed to be skipped, got %d records", n)
	}
}

package collections_test

import (
	"testing"

	"pricecatalog/collections"
	"pricecatalog/testhelpers"
)

func TestMigrateLastVerified_Backfills(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	rec := testhelpers.CreateTestPrice(t, app, "Unverified", 100, testhelpers.PriceFields{})

	if err := collections.MigrateLastVerified(app); err != nil {
		t.Fatalf("MigrateLastVerified() error: %v", err)
	}

	updated, err := app.FindRecordById(collections.PriceData, rec.Id)
	if err != nil {
		t.Fatalf("reload record: %v", err)
	}
	got := updated.GetDateTime("last_verified")
	if got.IsZero() {
		t.Fatal("expected last_verified to be backfilled")
	}
	if !got.Time().Equal(updated.GetDateTime("created").Time()) {
		t.Errorf("last_verified = %v, want created %v", got, updated.GetDateTime("created"))
	}
}

func TestMigrateLastVerified_KeepsExisting(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	rec := testhelpers.CreateTestPrice(t, app, "Verified", 100, testhelpers.PriceFields{
		LastVerified: "2024-11-04 00:00:00.000Z",
	})

	if err := collections.MigrateLastVerified(app); err != nil {
		t.Fatalf("MigrateLastVerified() error: %v", err)
	}
	// Safe to run twice.
	if err := collections.MigrateLastVerified(app); err != nil {
		t.Fatalf("second MigrateLastVerified() error: %v", err)
	}

	updated, _ := app.FindRecordById(collections.PriceData, rec.Id)
	if got := updated.GetDateTime("last_verified").String(); got != "2024-11-04 00:00:00.000Z" {
		t.Errorf("last_verified changed to %q", got)
	}
}

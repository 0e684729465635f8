package collections

import (
	"fmt"

	"github.com/pocketbase/pocketbase"
	"github.com/rs/zerolog/log"
)

// MigrateLastVerified fills last_verified from the creation time on records
// that never had it set. Safe to call on every startup.
func MigrateLastVerified(app *pocketbase.PocketBase) error {
	col, err := app.FindCollectionByNameOrId(PriceData)
	if err != nil {
		return fmt.Errorf("migrate_last_verified: could not find %s collection: %w", PriceData, err)
	}

	records, err := app.FindRecordsByFilter(col, "last_verified = ''", "", 0, 0)
	if err != nil {
		return fmt.Errorf("migrate_last_verified: could not query records: %w", err)
	}

	updated := 0
	for _, record := range records {
		created := record.GetDateTime("created")
		if created.IsZero() {
			continue
		}
		record.Set("last_verified", created)
		if err := app.Save(record); err != nil {
			log.Warn().Err(err).Str("id", record.Id).Msg("migrate_last_verified: failed to backfill record")
			continue
		}
		updated++
	}

	if updated > 0 {
		log.Info().Int("records", updated).Msg("migrate_last_verified: backfilled last_verified")
	}
	return nil
}

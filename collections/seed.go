package collections

import (
	"fmt"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/rs/zerolog/log"
)

type priceDef struct {
	itemName     string
	category     string
	unitPrice    float64
	unit         string
	source       string
	itemCode     string
	ircReference []string
	description  string
	lastVerified string
}

// seedPrices are reference road-safety items from the CPWD schedule of rates,
// GeM listings and the MoRTH standard data book.
var seedPrices = []priceDef{
	{
		itemName:     "Retro-reflective cautionary sign, 900mm triangle",
		category:     "signage",
		unitPrice:    15000,
		unit:         "nos",
		source:       "CPWD_SOR",
		itemCode:     "16.62.1",
		ircReference: []string{"IRC:67-2022", "IRC:SP:55-2014"},
		description:  "Class C high intensity prismatic sheeting on 2mm aluminium, including MS angle frame and post",
		lastVerified: "2024-11-04 00:00:00.000Z",
	},
	{
		itemName:     "Mandatory sign, 600mm circular",
		category:     "signage",
		unitPrice:    9450,
		unit:         "nos",
		source:       "CPWD_SOR",
		itemCode:     "16.62.3",
		ircReference: []string{"IRC:67-2022"},
		lastVerified: "2024-11-04 00:00:00.000Z",
	},
	{
		itemName:     "Hot applied thermoplastic road marking, 2.5mm",
		category:     "marking",
		unitPrice:    850,
		unit:         "sqm",
		source:       "GeM",
		itemCode:     "GEM-RM-2207",
		ircReference: []string{"IRC:35-2015"},
		description:  "Including glass beads at 250 g/sqm, on bituminous surface",
		lastVerified: "2024-10-18 00:00:00.000Z",
	},
	{
		itemName:     "Cold applied plastic marking, 3mm",
		category:     "marking",
		unitPrice:    1325.5,
		unit:         "sqm",
		source:       "MORTH",
		itemCode:     "803.4",
		ircReference: []string{"IRC:35-2015"},
	},
	{
		itemName:     "W-beam metal crash barrier, 3mm",
		category:     "barrier",
		unitPrice:    4875,
		unit:         "rm",
		source:       "MORTH",
		itemCode:     "810.2",
		ircReference: []string{"IRC:119-2015"},
		description:  "Galvanised W-beam with posts at 2m centres, spacer blocks and end terminals excluded",
		lastVerified: "2024-09-30 00:00:00.000Z",
	},
	{
		itemName:     "Road stud, aluminium die cast, bi-directional",
		category:     "marking",
		unitPrice:    320,
		unit:         "nos",
		source:       "GeM",
		itemCode:     "GEM-RS-1140",
		ircReference: []string{"IRC:SP:84-2019"},
		lastVerified: "2024-10-18 00:00:00.000Z",
	},
	{
		itemName:     "Solar blinker, amber, 300mm",
		category:     "lighting",
		unitPrice:    18500,
		unit:         "nos",
		source:       "GeM",
		itemCode:     "GEM-SB-0310",
		ircReference: []string{"IRC:93-1985"},
	},
	{
		itemName:     "Traffic cone, 750mm, reflective collar",
		category:     "equipment",
		unitPrice:    1450.75,
		unit:         "nos",
		source:       "MARKET",
		lastVerified: "2024-08-12 00:00:00.000Z",
	},
}

// Seed populates price_data with reference items. It is safe to call on
// every startup because it returns early if any price records already exist.
func Seed(app *pocketbase.PocketBase) error {
	col, err := app.FindCollectionByNameOrId(PriceData)
	if err != nil {
		return fmt.Errorf("seed: could not find %s collection: %w", PriceData, err)
	}
	total, err := app.CountRecords(col)
	if err != nil {
		return fmt.Errorf("seed: could not count price records: %w", err)
	}
	if total > 0 {
		return nil
	}

	log.Info().Int("records", len(seedPrices)).Msg("seed: price_data is empty, inserting reference prices")

	return app.RunInTransaction(func(txApp core.App) error {
		for _, def := range seedPrices {
			record := core.NewRecord(col)
			record.Set("item_name", def.itemName)
			record.Set("category", def.category)
			record.Set("unit_price", def.unitPrice)
			record.Set("unit", def.unit)
			record.Set("source", def.source)
			record.Set("item_code", def.itemCode)
			record.Set("irc_reference", def.ircReference)
			record.Set("description", def.description)
			record.Set("last_verified", def.lastVerified)
			if err := txApp.Save(record); err != nil {
				return fmt.Errorf("seed: could not save %q: %w", def.itemName, err)
			}
		}
		return nil
	})
}

package services

import (
	"bytes"

	"github.com/shopspring/decimal"

	"pricecatalog/catalog"
)

// bytesReader wraps a byte slice in a bytes.Reader for use with excelize.OpenReader.
func bytesReader(b []byte) *bytes.Reader {
	return bytes.NewReader(b)
}

func testPrice(v string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(v))
}

func testRecords() []catalog.PriceRecord {
	return []catalog.PriceRecord{
		{ID: "a", ItemName: "Sign A", ItemCode: "16.62.1", Category: catalog.CategorySignage, UnitPrice: testPrice("15000"), Unit: "nos", Source: catalog.SourceCPWDSOR, IRCReference: []string{"IRC:67", "IRC:SP:55"}, LastVerified: "2024-11-04T00:00:00Z"},
		{ID: "b", ItemName: "=Paint B", Category: catalog.CategoryMarking, UnitPrice: testPrice("850"), Source: catalog.SourceGeM, LastVerified: "garbage"},
	}
}

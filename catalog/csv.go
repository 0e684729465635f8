package catalog

import (
	"bytes"
	"strings"
	"time"
)

const (
	// CSVMIMEType is the content type of exported price data.
	CSVMIMEType = "text/csv; charset=utf-8"
	// utf8BOM lets spreadsheet tools detect the encoding.
	utf8BOM = "\ufeff"
)

// CSVHeader is the fixed column order of the export.
var CSVHeader = []string{
	"Item Name",
	"Category",
	"Unit Price",
	"Unit",
	"Source",
	"IRC References",
	"Updated",
}

// CSVFilename returns the download name for an export taken at now.
func CSVFilename(now time.Time) string {
	return "price_data_" + now.Format("2006-01-02") + ".csv"
}

// ToCSV serialises the full result set. The output starts with a UTF-8 BOM
// and is byte-identical for identical input.
func ToCSV(records []PriceRecord) []byte {
	var buf bytes.Buffer
	buf.WriteString(utf8BOM)
	writeCSVRow(&buf, CSVHeader)
	for _, rec := range records {
		buf.WriteByte('\n')
		writeCSVRow(&buf, CSVRow(rec))
	}
	return buf.Bytes()
}

// CSVRow renders one record in CSVHeader order, before escaping.
func CSVRow(rec PriceRecord) []string {
	name := rec.ItemName
	if rec.ItemCode != "" {
		name += " (" + rec.ItemCode + ")"
	}

	category := rec.Category
	if category == "" {
		category = "General"
	}

	price := "0"
	if rec.UnitPrice.Valid && rec.UnitPrice.Decimal.IsPositive() {
		price = FormatINRShort(rec.UnitPrice.Decimal)
	}

	unit := rec.Unit
	if unit == "" {
		unit = "N/A"
	}

	return []string{
		name,
		category,
		price,
		unit,
		rec.Source,
		strings.Join(rec.IRCReference, "; "),
		exportDate(rec.LastVerified),
	}
}

func exportDate(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "N/A"
	}
	t, ok := ParseTimestamp(raw)
	if !ok {
		return "Invalid Date"
	}
	return FormatDate(t)
}

func writeCSVRow(buf *bytes.Buffer, fields []string) {
	for i, field := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(EscapeCSVField(field))
	}
}

// EscapeCSVField applies RFC 4180 quoting. Only fields containing a comma,
// a double quote or a line break are quoted.
func EscapeCSVField(field string) string {
	if !strings.ContainsAny(field, ",\"\n\r") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"pricecatalog/catalog"
)

// ValidationError represents a single field-level error on one row.
type ValidationError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult is returned after parsing and validating an uploaded file.
type ValidationResult struct {
	TotalRows int               `json:"total_rows"`
	ValidRows int               `json:"valid_rows"`
	ErrorRows int               `json:"error_rows"`
	Errors    []ValidationError `json:"errors"`
	Rows      []ImportRow       `json:"-"`
	FileName  string            `json:"-"`
}

// ImportRow is one validated line of an uploaded price file.
type ImportRow struct {
	Row    int
	Record catalog.PriceRecord
	// Key makes a re-upload of the same file replay instead of duplicating.
	Key string
	OK  bool
}

// PriceImportRow is the raw text of one uploaded line, keyed by column.
type PriceImportRow struct {
	ItemName     string `csv:"item_name"`
	Category     string `csv:"category"`
	UnitPrice    string `csv:"unit_price"`
	Unit         string `csv:"unit"`
	Source       string `csv:"source"`
	ItemCode     string `csv:"item_code"`
	IRCReference string `csv:"irc_reference"`
	Description  string `csv:"description"`
	LastVerified string `csv:"last_verified"`
}

// importColumns maps accepted header labels to column keys. The exported CSV
// headers are accepted so an export can be uploaded again.
var importColumns = map[string]string{
	"item name":      "item_name",
	"name":           "item_name",
	"category":       "category",
	"unit price":     "unit_price",
	"price":          "unit_price",
	"unit":           "unit",
	"source":         "source",
	"item code":      "item_code",
	"code":           "item_code",
	"irc references": "irc_reference",
	"irc reference":  "irc_reference",
	"description":    "description",
	"last verified":  "last_verified",
	"verified":       "last_verified",
	"updated":        "last_verified",
}

var fieldLabels = map[string]string{
	"item_name":     "Item Name",
	"category":      "Category",
	"unit_price":    "Unit Price",
	"unit":          "Unit",
	"source":        "Source",
	"item_code":     "Item Code",
	"irc_reference": "IRC References",
	"description":   "Description",
	"last_verified": "Last Verified",
}

// parseCSV reads a CSV file and returns headers + data rows.
func parseCSV(file io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	allRows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(allRows) < 2 {
		return nil, nil, fmt.Errorf("file must contain a header row and at least one data row")
	}

	headers := allRows[0]
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}
	return headers, allRows[1:], nil
}

// parseExcel reads an xlsx file and returns headers + data rows from the first sheet.
func parseExcel(file io.Reader) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("file must contain a header row and at least one data row")
	}
	return rows[0], rows[1:], nil
}

// mapHeaders maps uploaded column headers to PriceImportRow column keys.
// Unknown and repeated columns get placeholder names so the decoder skips
// them; they are returned as unrecognized.
func mapHeaders(headers []string) ([]string, []string) {
	mapped := make([]string, len(headers))
	seen := make(map[string]bool, len(headers))
	var unrecognized []string

	for i, h := range headers {
		norm := strings.ToLower(strings.TrimSpace(h))
		// Strip trailing " *" marking required columns
		norm = strings.TrimSpace(strings.TrimSuffix(norm, " *"))

		key, ok := importColumns[norm]
		if !ok {
			if _, isKey := fieldLabels[norm]; isKey {
				key, ok = norm, true
			}
		}
		if !ok || seen[key] {
			mapped[i] = "_unused_" + strconv.Itoa(i)
			unrecognized = append(unrecognized, h)
			continue
		}
		seen[key] = true
		mapped[i] = key
	}
	return mapped, unrecognized
}

// rowSource feeds already-split rows to csvutil, padding short rows to the
// header width.
type rowSource struct {
	rows  [][]string
	width int
	next  int
}

func (s *rowSource) Read() ([]string, error) {
	if s.next >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.next]
	s.next++

	out := make([]string, s.width)
	copy(out, row)
	return out, nil
}

// ValidatePriceFile parses and validates an uploaded .csv or .xlsx price
// file. Row numbers in the result count the header as row 1.
func ValidatePriceFile(file io.Reader, fileName string) (*ValidationResult, error) {
	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	var headers []string
	var dataRows [][]string

	lowerName := strings.ToLower(fileName)
	switch {
	case strings.HasSuffix(lowerName, ".csv"):
		headers, dataRows, err = parseCSV(bytes.NewReader(content))
	case strings.HasSuffix(lowerName, ".xlsx"):
		headers, dataRows, err = parseExcel(bytes.NewReader(content))
	default:
		return nil, fmt.Errorf("unsupported file format: must be .csv or .xlsx")
	}
	if err != nil {
		return nil, err
	}

	columns, unrecognized := mapHeaders(headers)
	if len(unrecognized) > 0 {
		log.Debug().Strs("columns", unrecognized).Str("file", fileName).Msg("price_import: ignoring columns")
	}
	hasColumn := make(map[string]bool, len(columns))
	for _, c := range columns {
		hasColumn[c] = true
	}
	if !hasColumn["item_name"] || !hasColumn["unit_price"] {
		return nil, fmt.Errorf("file must have %q and %q columns", fieldLabels["item_name"], fieldLabels["unit_price"])
	}

	dec, err := csvutil.NewDecoder(&rowSource{rows: dataRows, width: len(columns)}, columns...)
	if err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}

	digest := sha256.Sum256(content)
	fileKey := hex.EncodeToString(digest[:8])

	result := &ValidationResult{FileName: fileName}
	for i := 0; ; i++ {
		var raw PriceImportRow
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("decode row %d: %w", i+2, err)
		}
		if raw.blank() {
			continue
		}

		rowNum := i + 2
		rec, rowErrors := raw.toRecord(rowNum, !hasColumn["item_code"])
		result.TotalRows++
		result.Errors = append(result.Errors, rowErrors...)
		result.Rows = append(result.Rows, ImportRow{
			Row:    rowNum,
			Record: rec,
			Key:    fmt.Sprintf("import-%s-%d", fileKey, rowNum),
			OK:     len(rowErrors) == 0,
		})
	}

	errorRowSet := make(map[int]bool)
	for _, e := range result.Errors {
		errorRowSet[e.Row] = true
	}
	result.ErrorRows = len(errorRowSet)
	result.ValidRows = result.TotalRows - result.ErrorRows

	return result, nil
}

func (r PriceImportRow) blank() bool {
	return strings.TrimSpace(r.ItemName+r.Category+r.UnitPrice+r.Unit+r.Source+
		r.ItemCode+r.IRCReference+r.Description+r.LastVerified) == ""
}

// toRecord validates the row. splitCode pulls a trailing "(CODE)" off the
// item name, the way the CSV export writes it, when the file carries no
// separate code column.
func (r PriceImportRow) toRecord(rowNum int, splitCode bool) (catalog.PriceRecord, []ValidationError) {
	var errs []ValidationError

	name := strings.TrimSpace(r.ItemName)
	code := strings.TrimSpace(r.ItemCode)
	if splitCode && code == "" {
		name, code = splitItemCode(name)
	}

	verified, err := parseImportDate(r.LastVerified)
	if err != nil {
		errs = append(errs, ValidationError{Row: rowNum, Field: fieldLabels["last_verified"], Message: err.Error()})
	}

	draft := catalog.Draft{
		ItemName:     name,
		Category:     r.Category,
		UnitPrice:    cleanPrice(r.UnitPrice),
		Unit:         notApplicable(r.Unit),
		Source:       r.Source,
		ItemCode:     code,
		IRCReference: strings.Split(r.IRCReference, ";"),
		Description:  strings.TrimSpace(r.Description),
		LastVerified: verified,
	}
	rec, err := draft.Validate()
	if err != nil {
		var cerr *catalog.Error
		if !errors.As(err, &cerr) {
			return rec, append(errs, ValidationError{Row: rowNum, Field: "Row", Message: err.Error()})
		}
		keys := make([]string, 0, len(cerr.Fields))
		for k := range cerr.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			label := fieldLabels[k]
			if label == "" {
				label = k
			}
			errs = append(errs, ValidationError{Row: rowNum, Field: label, Message: fmt.Sprintf("%s %s", label, cerr.Fields[k])})
		}
	}
	return rec, errs
}

func splitItemCode(name string) (string, string) {
	if !strings.HasSuffix(name, ")") {
		return name, ""
	}
	open := strings.LastIndex(name, " (")
	if open <= 0 {
		return name, ""
	}
	return strings.TrimSpace(name[:open]), strings.TrimSpace(name[open+2 : len(name)-1])
}

// cleanPrice accepts exported prices such as "₹15,000".
func cleanPrice(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "₹")
	return strings.ReplaceAll(strings.TrimSpace(s), ",", "")
}

func notApplicable(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "N/A") {
		return ""
	}
	return s
}

// parseImportDate accepts d/m/yyyy as exported, or an ISO date-time. The
// result is RFC 3339 in UTC, or empty for a blank cell.
func parseImportDate(s string) (string, error) {
	s = notApplicable(s)
	if s == "" {
		return "", nil
	}
	if t, err := time.ParseInLocation("2/1/2006", s, catalog.IST); err == nil {
		return t.UTC().Format(time.RFC3339), nil
	}
	if t, ok := catalog.ParseTimestamp(s); ok {
		return t.UTC().Format(time.RFC3339), nil
	}
	return "", fmt.Errorf("%q is not a valid date (use d/m/yyyy or yyyy-mm-dd)", s)
}

// ImportSummary counts what ImportPrices did.
type ImportSummary struct {
	Created  int `json:"created"`
	Replayed int `json:"replayed"`
	Skipped  int `json:"skipped"`
}

// ImportPrices creates every valid row of result. Rows with errors are
// skipped. Each row carries its own idempotency key, so a retried import of
// the same file creates nothing twice.
func ImportPrices(ctx context.Context, store *PriceStore, result *ValidationResult) (ImportSummary, error) {
	var summary ImportSummary
	for _, row := range result.Rows {
		if !row.OK {
			summary.Skipped++
			continue
		}
		_, created, err := store.CreateRecord(ctx, row.Record, row.Key)
		if err != nil {
			return summary, fmt.Errorf("import row %d: %w", row.Row, err)
		}
		if created {
			summary.Created++
		} else {
			summary.Replayed++
		}
	}
	log.Info().
		Str("file", result.FileName).
		Int("created", summary.Created).
		Int("replayed", summary.Replayed).
		Int("skipped", summary.Skipped).
		Msg("price_import: done")
	return summary, nil
}

// GenerateErrorReport creates a downloadable .xlsx file from validation errors.
func GenerateErrorReport(errors []ValidationError) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Errors"
	defaultSheet := f.GetSheetName(0)
	f.SetSheetName(defaultSheet, sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DC2626"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thinBorders(),
	})

	f.SetCellValue(sheet, "A1", "Row #")
	f.SetCellValue(sheet, "B1", "Field")
	f.SetCellValue(sheet, "C1", "Error")
	f.SetCellStyle(sheet, "A1", "C1", headerStyle)
	f.SetColWidth(sheet, "A", "A", 8)
	f.SetColWidth(sheet, "B", "B", 22)
	f.SetColWidth(sheet, "C", "C", 55)

	for i, e := range errors {
		row := fmt.Sprintf("%d", i+2)
		f.SetCellValue(sheet, "A"+row, e.Row)
		f.SetCellValue(sheet, "B"+row, e.Field)
		f.SetCellValue(sheet, "C"+row, sanitizeExcelCell(e.Message))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write error report: %w", err)
	}
	return buf.Bytes(), nil
}

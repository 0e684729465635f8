package services

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"pricecatalog/catalog"
)

// GeneratePDF renders a price list with maroto/v2 and returns the raw PDF
// bytes.
func GeneratePDF(data PriceList) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Horizontal).
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).
		WithTopMargin(10).
		WithRightMargin(10).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	addHeader(m, data)
	addTableHeader(m)
	for i, r := range data.Rows {
		addTableRow(m, r, i%2 == 1)
	}
	addSummary(m, data.Stats)
	addFooter(m, data)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return doc.GetBytes(), nil
}

// addHeader adds the title, filter summary and date.
func addHeader(m core.Maroto, data PriceList) {
	m.AddRows(
		row.New(12).Add(
			col.New(12).Add(
				text.New(data.Title, props.Text{
					Size:  16,
					Style: fontstyle.Bold,
					Align: align.Center,
				}),
			),
		),
	)

	grey := &props.Color{Red: 80, Green: 80, Blue: 80}
	m.AddRows(
		row.New(8).Add(
			col.New(8).Add(
				text.New(data.FilterSummary, props.Text{Size: 9, Align: align.Left, Color: grey}),
			),
			col.New(4).Add(
				text.New(fmt.Sprintf("Date: %s", data.GeneratedDate), props.Text{Size: 9, Align: align.Right, Color: grey}),
			),
		),
	)

	m.AddRows(row.New(4))
}

type pdfColumn struct {
	title string
	size  int
	align align.Type
}

var pdfColumns = []pdfColumn{
	{"#", 1, align.Center},
	{"Item", 3, align.Left},
	{"Code", 1, align.Center},
	{"Category", 1, align.Center},
	{"Source", 1, align.Center},
	{"Unit", 1, align.Center},
	{"Unit Price", 2, align.Right},
	{"Verified", 2, align.Center},
}

// addTableHeader adds the column header row for the price table.
func addTableHeader(m core.Maroto) {
	headerCell := props.Cell{BackgroundColor: &props.Color{Red: 33, Green: 37, Blue: 41}}
	cols := make([]core.Col, 0, len(pdfColumns))
	for _, c := range pdfColumns {
		cols = append(cols, col.New(c.size).Add(
			text.New(c.title, props.Text{
				Size:  8,
				Style: fontstyle.Bold,
				Align: c.align,
				Color: &props.Color{Red: 255, Green: 255, Blue: 255},
			}),
		).WithStyle(&headerCell))
	}
	m.AddRows(row.New(8).Add(cols...))
}

// addTableRow adds one price line. Alternate rows get a light background.
func addTableRow(m core.Maroto, r PriceListRow, shaded bool) {
	values := []string{
		fmt.Sprintf("%d", r.Index),
		r.ItemName,
		r.ItemCode,
		r.Category,
		r.Source,
		r.Unit,
		r.UnitPrice,
		r.LastVerified,
	}

	var cellStyle *props.Cell
	if shaded {
		cellStyle = &props.Cell{BackgroundColor: &props.Color{Red: 245, Green: 245, Blue: 245}}
	}

	cols := make([]core.Col, 0, len(pdfColumns))
	for i, c := range pdfColumns {
		cc := col.New(c.size).Add(text.New(values[i], props.Text{Size: 7, Align: c.align}))
		if cellStyle != nil {
			cc = cc.WithStyle(cellStyle)
		}
		cols = append(cols, cc)
	}
	m.AddRows(row.New(7).Add(cols...))
}

// addSummary adds the aggregate figures below the table.
func addSummary(m core.Maroto, stats catalog.Stats) {
	m.AddRows(row.New(6))

	summaryCell := &props.Cell{BackgroundColor: &props.Color{Red: 240, Green: 240, Blue: 240}}
	labelStyle := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}
	valueStyle := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}

	lines := [][2]string{
		{"Total Items", fmt.Sprintf("%d", stats.Total)},
		{"Categories", fmt.Sprintf("%d", stats.Categories)},
		{"Average Price", catalog.FormatINRShort(stats.AvgPrice)},
	}
	if stats.MinPrice != nil && stats.MaxPrice != nil {
		lines = append(lines, [2]string{
			"Price Range",
			catalog.FormatINRShort(*stats.MinPrice) + " - " + catalog.FormatINRShort(*stats.MaxPrice),
		})
	}

	for _, l := range lines {
		m.AddRows(
			row.New(8).Add(
				col.New(8).Add(text.New(l[0], labelStyle)).WithStyle(summaryCell),
				col.New(4).Add(text.New(l[1], valueStyle)).WithStyle(summaryCell),
			),
		)
	}
}

// addFooter adds the generated-date line at the bottom.
func addFooter(m core.Maroto, data PriceList) {
	m.AddRows(row.New(6))
	m.AddRows(
		row.New(6).Add(
			col.New(12).Add(
				text.New(
					fmt.Sprintf("Generated on %s", data.GeneratedDate),
					props.Text{
						Size:  7,
						Align: align.Left,
						Color: &props.Color{Red: 140, Green: 140, Blue: 140},
					},
				),
			),
		),
	)
}

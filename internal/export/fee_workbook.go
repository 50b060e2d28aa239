package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/hallboard/internal/fees"
)

const feeSheet = "Student Fees"

var (
	feeHeader = []string{"Sit No", "Name", "Gender", "Mobile", "Fees", "Status"}
	feeWidths = []float64{10, 25, 10, 15, 10, 15}
)

const (
	titleRow  = 1
	headerRow = 3
	firstData = 4
)

// FeeWorkbook builds the month's fee sheet: a merged title across the header
// columns, the header on row 3 and one row per student from row 4.
func FeeWorkbook(rows []fees.Row, sel fees.Selection) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", feeSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	last := colName(len(feeHeader))
	title := fmt.Sprintf("Student Fee Details for %s %s", sel.Month.Title(), sel.Year)
	if err := f.SetCellStr(feeSheet, cell(1, titleRow), title); err != nil {
		return nil, fmt.Errorf("set title: %w", err)
	}
	if err := f.MergeCell(feeSheet, cell(1, titleRow), cell(len(feeHeader), titleRow)); err != nil {
		return nil, fmt.Errorf("merge title: %w", err)
	}
	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("title style: %w", err)
	}
	_ = f.SetCellStyle(feeSheet, cell(1, titleRow), cell(len(feeHeader), titleRow), titleStyle)

	for c, h := range feeHeader {
		if err := f.SetCellStr(feeSheet, cell(c+1, headerRow), h); err != nil {
			return nil, fmt.Errorf("set header: %w", err)
		}
	}
	bold, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	_ = f.SetCellStyle(feeSheet, cell(1, headerRow), cell(len(feeHeader), headerRow), bold)
	_ = f.AutoFilter(feeSheet, fmt.Sprintf("A%d:%s%d", headerRow, last, headerRow), nil)

	for i, r := range rows {
		n := firstData + i
		s := r.Student
		vals := []any{s.SitNo, s.Name, s.Gender, s.Mobile, s.Fees, r.Status.Label()}
		for c, v := range vals {
			if err := f.SetCellValue(feeSheet, cell(c+1, n), v); err != nil {
				return nil, fmt.Errorf("set cell %s: %w", cell(c+1, n), err)
			}
		}
	}

	for i, w := range feeWidths {
		col := colName(i + 1)
		_ = f.SetColWidth(feeSheet, col, col, w)
	}
	return f, nil
}

// FeeWorkbookBytes renders the workbook to xlsx bytes.
func FeeWorkbookBytes(rows []fees.Row, sel fees.Selection) ([]byte, error) {
	f, err := FeeWorkbook(rows, sel)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// FeeFileName is "Fee_Details_JAN_2024.xlsx".
func FeeFileName(sel fees.Selection) string {
	return sanitizeFileName(fmt.Sprintf("Fee_Details_%s_%s.xlsx", strings.ToUpper(string(sel.Month)), sel.Year))
}

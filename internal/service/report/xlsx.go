package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/FordLabs/PeopleMover/internal/domain"
)

const peopleSheet = "People"

// PeopleXLSX renders the people report as a spreadsheet.
func PeopleXLSX(rows []domain.PeopleReportRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", peopleSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	header := []any{"Product Name", "Person Name", "Person Role"}
	if err := f.SetSheetRow(peopleSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []any{row.ProductName, row.PersonName, row.PersonRole}
		if err := f.SetSheetRow(peopleSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := f.SetColWidth(peopleSheet, "A", "C", 30); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

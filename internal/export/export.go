// Package export renders shopping lists as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"meal-planner/internal/shopping"
)

const (
	sheet       = "Shopping list"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Filename is the download name of a plan's spreadsheet.
func Filename(list shopping.List) string {
	if list.Plan.StartDate.IsZero() {
		return fmt.Sprintf("shopping-list-%d.xlsx", list.Plan.ID)
	}
	return fmt.Sprintf("shopping-list-%s.xlsx", list.Plan.StartDate)
}

// WriteShoppingList writes the list as an xlsx workbook with one row per
// entry, in list order.
func WriteShoppingList(w io.Writer, list shopping.List) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet writer: %w", err)
	}

	row := 1
	if !list.Plan.StartDate.IsZero() {
		title := fmt.Sprintf("Plan %s to %s", list.Plan.StartDate, list.Plan.EndDate)
		if err := sw.SetRow("A1", []any{title}); err != nil {
			return fmt.Errorf("failed to write title: %w", err)
		}
		row = 3
	}

	header, _ := excelize.CoordinatesToCellName(1, row)
	if err := sw.SetRow(header, []any{"Ingredient", "Amount", "Checked"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, e := range list.Ingredients {
		checked := ""
		if e.Checked {
			checked = "x"
		}
		cell, _ := excelize.CoordinatesToCellName(1, row+i+1)
		if err := sw.SetRow(cell, []any{e.Name, e.Amount, checked}); err != nil {
			return fmt.Errorf("failed to write entry %d: %w", i, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Package view renders directory views for a terminal.
package view

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/aryan0dhankhar/staffdir/internal/domain"
)

// Columns are the table headers, in the directory's display order.
var Columns = []string{
	domain.KeyName,
	domain.KeySector,
	domain.KeyUnit,
	domain.KeyAge,
	domain.KeyBirthMonth,
	domain.KeyBirthDate,
	domain.KeyTenureYears,
	domain.KeyHireMonth,
	domain.KeyHireDate,
}

// Row renders one employee as table cells. Absent values are empty.
func Row(e domain.Employee) []string {
	return []string{
		e.Name,
		e.Sector,
		e.Unit,
		domain.Cell(e.Age),
		domain.Cell(e.BirthMonth),
		e.BirthDate,
		domain.Cell(e.TenureYears),
		domain.Cell(e.HireMonth),
		e.HireDate,
	}
}

// RenderTable writes records as a table followed by a count line. A non-nil
// loadErr is printed instead of the count so a stale table is never mistaken
// for a fresh one.
func RenderTable(w io.Writer, records []domain.Employee, total int, loadErr error) {
	consoleTable := tablewriter.NewWriter(w)
	consoleTable.SetHeader(Columns)
	consoleTable.SetAutoFormatHeaders(false)
	for _, e := range records {
		consoleTable.Append(Row(e))
	}
	consoleTable.Render()

	if loadErr != nil {
		fmt.Fprintf(w, "error: could not load the directory: %v\n", loadErr)
		return
	}
	fmt.Fprintf(w, "%d of %d employees\n", len(records), total)
}

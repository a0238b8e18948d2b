package exportsvc

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/aula/core/attendance"
	"github.com/trezcool/aula/core/group"
)

const (
	averageLabel = "Promedio"
	dayHeader    = "Día"
	maxSheetName = 31
)

// Roster columns, in file order.
var RosterColumns = []string{"id", "first_name", "last_name", "dni", "email", "grade", "section"}

// WriteWorkbook writes one sheet per report: a row per weekday and a final row of averages.
func WriteWorkbook(w io.Writer, reports ...attendance.WeeklyReport) error {
	if len(reports) == 0 {
		return errors.New("no reports to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}

	first := f.GetSheetName(0)
	for i, wr := range reports {
		sheet := sheetName(wr, i)
		if i == 0 {
			err = f.SetSheetName(first, sheet)
		} else {
			_, err = f.NewSheet(sheet)
		}
		if err != nil {
			return errors.Wrapf(err, "creating sheet %q", sheet)
		}
		if err = writeReportSheet(f, sheet, wr, bold); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	return errors.Wrap(f.Write(w), "writing workbook")
}

func sheetName(wr attendance.WeeklyReport, i int) string {
	name := wr.Title
	if name == "" {
		name = fmt.Sprintf("Reporte %d", i+1)
	}
	if len([]rune(name)) > maxSheetName {
		name = string([]rune(name)[:maxSheetName])
	}
	return name
}

func writeReportSheet(f *excelize.File, sheet string, wr attendance.WeeklyReport, headerStyle int) error {
	header := []interface{}{dayHeader}
	for _, m := range attendance.Metrics {
		header = append(header, m.Title())
	}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}

	row := 2
	for i, label := range wr.Labels {
		values := []interface{}{label}
		for _, m := range attendance.Metrics {
			var v float64
			if i < len(wr.Values[m]) {
				v = wr.Values[m][i]
			}
			values = append(values, v)
		}
		if err := setRow(f, sheet, row, values); err != nil {
			return err
		}
		row++
	}

	avg := []interface{}{averageLabel}
	for _, m := range attendance.Metrics {
		avg = append(avg, wr.Averages[m])
	}
	if err := setRow(f, sheet, row, avg); err != nil {
		return err
	}

	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return errors.Wrap(err, "computing header range")
	}
	if err = f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return errors.Wrap(err, "styling header")
	}
	avgStart, _ := excelize.CoordinatesToCellName(1, row)
	avgEnd, _ := excelize.CoordinatesToCellName(len(header), row)
	if err = f.SetCellStyle(sheet, avgStart, avgEnd, headerStyle); err != nil {
		return errors.Wrap(err, "styling averages")
	}
	return errors.Wrap(f.SetColWidth(sheet, "A", "D", 14), "sizing columns")
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return errors.Wrapf(err, "row %d", row)
	}
	return errors.Wrapf(f.SetSheetRow(sheet, cell, &values), "writing row %d", row)
}

// RosterImport is the result of reading a roster spreadsheet.
type RosterImport struct {
	Students []group.Student
	// Skipped holds the 1-based row numbers missing an id or a name.
	Skipped []int
}

// ImportRoster reads students from the first sheet of an xlsx file. The first row is a header.
func ImportRoster(r io.Reader) (RosterImport, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return RosterImport{}, errors.Wrap(err, "opening roster")
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return RosterImport{}, errors.Wrapf(err, "reading sheet %q", sheet)
	}

	var res RosterImport
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		col := func(n int) string {
			if n < len(row) {
				return strings.TrimSpace(row[n])
			}
			return ""
		}
		st := group.Student{
			ID:        col(0),
			FirstName: col(1),
			LastName:  col(2),
			DNI:       col(3),
			Email:     strings.ToLower(col(4)),
			Grade:     col(5),
			Section:   strings.ToUpper(col(6)),
		}
		if st.ID == "" || st.Name() == "" {
			if len(strings.Join(row, "")) > 0 {
				res.Skipped = append(res.Skipped, i+1)
			}
			continue
		}
		res.Students = append(res.Students, st)
	}
	return res, nil
}

// WriteRoster writes students in the layout read by ImportRoster.
func WriteRoster(w io.Writer, students []group.Student) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := make([]interface{}, 0, len(RosterColumns))
	for _, c := range RosterColumns {
		header = append(header, c)
	}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, st := range students {
		row := []interface{}{st.ID, st.FirstName, st.LastName, st.DNI, st.Email, st.Grade, st.Section}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return errors.Wrap(f.Write(w), "writing roster")
}

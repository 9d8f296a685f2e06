package app

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
)

var reportHeader = []string{"Test Title", "User ID", "User Name", "Score", "Percentage", "Completion Time"}

const reportSheet = "Results"

func reportRows(reports []TestReport) [][]string {
	var rows [][]string
	for _, r := range reports {
		for _, res := range r.StudentResults {
			rows = append(rows, []string{
				r.TestTitle,
				res.UserID,
				res.UserName,
				strconv.Itoa(res.Score),
				res.Percentage.StringFixed(2) + "%",
				res.CompletionTime,
			})
		}
	}
	return rows
}

// WriteCSV writes one row per attempt.
func WriteCSV(w io.Writer, reports []TestReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportHeader); err != nil {
		return err
	}
	if err := cw.WriteAll(reportRows(reports)); err != nil {
		return err
	}
	return cw.Error()
}

// WriteXLSX writes the same rows as WriteCSV into a single-sheet workbook.
func WriteXLSX(w io.Writer, reports []TestReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return err
	}
	rows := append([][]string{reportHeader}, reportRows(reports)...)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(reportSheet, cell, &values); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(reportSheet, "A", "F", 20); err != nil {
		return err
	}
	if _, err := f.WriteTo(w); err != nil {
		return err
	}
	return nil
}

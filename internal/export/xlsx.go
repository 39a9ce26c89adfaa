// Package export renders activity history as spreadsheets.
package export

import (
	"fmt"
	"io"
	"time"

	activitydomain "buckety-go/internal/domain/activity"
	"github.com/xuri/excelize/v2"
)

const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const sheetName = "Activity"

var headers = []string{"Date", "Type", "Title", "Amount", "From", "To", "Description"}

// ActivitiesXLSX writes one sheet with a header row and one row per activity.
// Amounts are written as numbers so they can be summed in the sheet.
func ActivitiesXLSX(w io.Writer, activities []activitydomain.Activity) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return err
		}
	}

	for i, activity := range activities {
		row := i + 2
		amount, _ := activity.Amount.Round(2).Float64()
		values := []interface{}{
			activity.Date.UTC().Format(time.DateOnly),
			string(activity.ActivityType),
			activity.Title,
			amount,
			stringValue(activity.FromSource),
			stringValue(activity.ToDestination),
			stringValue(activity.Description),
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
	}

	widths := map[string]float64{"A": 12, "B": 14, "C": 28, "D": 12, "E": 18, "F": 18, "G": 30}
	for col, width := range widths {
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return err
		}
	}

	return f.Write(w)
}

// FileName builds the attachment name for a bucket export.
func FileName(bucketTitle string, at time.Time) string {
	name := make([]rune, 0, len(bucketTitle))
	for _, r := range bucketTitle {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			name = append(name, r)
		case r == ' ':
			name = append(name, '_')
		}
	}
	if len(name) == 0 {
		name = []rune("bucket")
	}
	return fmt.Sprintf("%s_activity_%s.xlsx", string(name), at.UTC().Format("20060102"))
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

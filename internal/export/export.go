// Package export renders the bookings collection for the admin dashboard.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"viona/internal/models"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	sheetName = "Bookings"
)

var Headers = []string{"ID", "Room", "Guest", "Check-In", "Check-Out", "Total", "Created At"}

// ParseFormat accepts csv or xlsx, case-insensitively.
func ParseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	case "":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType returns the MIME type for a format.
func ContentType(format string) string {
	if format == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

func row(b models.Booking) []string {
	return []string{
		b.ID,
		b.RoomName,
		b.CustomerName,
		b.CheckIn.Format(models.DateLayout),
		b.CheckOut.Format(models.DateLayout),
		strconv.Itoa(b.TotalPrice),
		b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func WriteCSV(w io.Writer, bookings []models.Booking) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Headers); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, b := range bookings {
		if err := cw.Write(row(b)); err != nil {
			return fmt.Errorf("write csv row %s: %w", b.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteXLSX(w io.Writer, bookings []models.Booking) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#F4EDE4"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})

	for col, h := range Headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, b := range bookings {
		r := i + 2
		values := []interface{}{
			b.ID,
			b.RoomName,
			b.CustomerName,
			b.CheckIn.Format(models.DateLayout),
			b.CheckOut.Format(models.DateLayout),
			b.TotalPrice,
			b.CreatedAt.UTC().Format(time.RFC3339),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, r)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return fmt.Errorf("error writing cell %s: %w", cell, err)
			}
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 38)
	_ = f.SetColWidth(sheetName, "B", "C", 25)
	_ = f.SetColWidth(sheetName, "D", "G", 16)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

// Write dispatches on format.
func Write(w io.Writer, format string, bookings []models.Booking) error {
	switch format {
	case FormatXLSX:
		return WriteXLSX(w, bookings)
	case FormatCSV:
		return WriteCSV(w, bookings)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// FileName is the default export file name for a point in time.
func FileName(format string, at time.Time) string {
	return fmt.Sprintf("bookings_%s.%s", at.Format("2006-01-02_150405"), format)
}

// SaveFile writes the export to path, creating parent directories.
func SaveFile(path, format string, bookings []models.Booking) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating export directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating file: %w", err)
	}
	if err := Write(file, format, bookings); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

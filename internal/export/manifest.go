package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"tripseat/internal/models"

	"github.com/xuri/excelize/v2"
)

const manifestSheet = "Manifest"

var manifestHeaders = []string{"Seats", "Passenger", "Phone", "Seat count", "Booked at", "Booking ID"}

// ManifestFileName is the download name for a trip manifest.
func ManifestFileName(trip *models.Trip) string {
	return fmt.Sprintf("manifest_trip_%d_%s.xlsx", trip.ID, trip.DepartureDate.Format("2006-01-02"))
}

// WriteManifest renders the passenger list of trip as an xlsx workbook.
// bookings must be in seat order; ranges maps booking id to its seats.
func WriteManifest(w io.Writer, trip *models.Trip, bookings []*models.Booking, ranges map[int64][]int) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(manifestSheet)
	if err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	_ = f.SetCellValue(manifestSheet, "A1", fmt.Sprintf("%s → %s, %s (%s)",
		trip.Origin, trip.Destination,
		trip.DepartureDate.Format("02.01.2006 15:04"),
		trip.CompanyName))
	lastCol, _ := excelize.ColumnNumberToName(len(manifestHeaders))
	_ = f.MergeCell(manifestSheet, "A1", lastCol+"1")
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(manifestSheet, "A1", "A1", titleStyle)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, h := range manifestHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(manifestSheet, cell, h)
		_ = f.SetCellStyle(manifestSheet, cell, cell, headerStyle)
	}

	row := 3
	booked := 0
	for _, b := range bookings {
		values := []any{
			formatSeats(ranges[b.ID]),
			b.UserName,
			b.UserPhoneNumber,
			b.NumberOfSeats,
			b.BookingDate.Format("02.01.2006 15:04"),
			b.ID,
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(manifestSheet, cell, &values); err != nil {
			return fmt.Errorf("error writing row %d: %w", row, err)
		}
		booked += b.NumberOfSeats
		row++
	}

	footer, _ := excelize.CoordinatesToCellName(1, row+1)
	_ = f.SetCellValue(manifestSheet, footer, fmt.Sprintf("Booked: %d/%d", booked, trip.TotalSeats))

	_ = f.SetColWidth(manifestSheet, "A", "A", 12)
	_ = f.SetColWidth(manifestSheet, "B", "C", 25)
	_ = f.SetColWidth(manifestSheet, "D", "F", 16)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

// formatSeats renders a contiguous range as "4-6", a single seat as "4".
func formatSeats(seats []int) string {
	switch len(seats) {
	case 0:
		return ""
	case 1:
		return strconv.Itoa(seats[0])
	}
	if seats[len(seats)-1]-seats[0] == len(seats)-1 {
		return fmt.Sprintf("%d-%d", seats[0], seats[len(seats)-1])
	}
	parts := make([]string, len(seats))
	for i, s := range seats {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, ",")
}

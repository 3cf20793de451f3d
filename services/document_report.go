package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

const expirationSheet = "Expirations"

var expirationHeaders = []string{
	"Type",
	"Périodicité",
	"Complémentaire",
	"Date d'expiration",
	"Jours restants",
	"Seuil (jours)",
	"Priorité",
	"Dans le seuil",
}

// ExpirationReport builds the XLSX overview of active documents at now.
func (s *DocumentService) ExpirationReport(ctx context.Context, now time.Time) (*bytes.Buffer, error) {
	rows, err := s.UpcomingExpirations(ctx, now)
	if err != nil {
		return nil, err
	}
	return GenerateExpirationReport(rows, s.Location)
}

// GenerateExpirationReport writes one row per document, in the given order.
func GenerateExpirationReport(rows []DocumentExpiration, loc *time.Location) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", expirationSheet)

	for i, header := range expirationHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(expirationSheet, cell, header)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(expirationSheet, "A1", "H1", headerStyle)
	f.SetColWidth(expirationSheet, "A", "A", 32)
	f.SetColWidth(expirationSheet, "B", "H", 16)

	// Rows inside their threshold are highlighted
	alertStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FDE2E1"}},
	})

	for i, r := range rows {
		row := i + 2
		values := []interface{}{
			r.Document.Type,
			string(r.Document.EffectivePeriodicity()),
			yesNo(r.Document.IsComplementary),
			r.Document.ExpiresAt.In(locOrUTC(loc)).Format("2006-01-02"),
			r.DaysLeft,
			r.Threshold,
			string(r.Priority),
			yesNo(r.WithinThreshold),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(expirationSheet, cell, v)
		}
		if r.WithinThreshold {
			f.SetCellStyle(expirationSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("H%d", row), alertStyle)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write excel buffer: %w", err)
	}
	return buf, nil
}

func yesNo(b bool) string {
	if b {
		return "oui"
	}
	return "non"
}

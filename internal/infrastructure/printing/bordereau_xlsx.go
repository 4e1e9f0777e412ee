package printing

import (
	"context"
	"fmt"

	bordereauapp "github.com/courtage/backend/internal/application/bordereau"
	"github.com/xuri/excelize/v2"
)

const bordereauSheet = "Bordereau"

var bordereauColumns = []struct {
	title string
	width float64
}{
	{"Contrat", 18},
	{"Police", 18},
	{"Assuré", 30},
	{"Immatriculation", 16},
	{"Catégorie", 12},
	{"Effet", 12},
	{"Échéance", 12},
	{"Prime nette", 14},
	{"Prime brute", 14},
	{"Réductions", 14},
	{"Commission", 14},
	{"Prime TTC", 14},
}

// firstAmountCol is the 1-based column of "Prime nette"
const firstAmountCol = 8

// Ensure BordereauWorkbook implements the bordereau export renderer
var _ bordereauapp.Renderer = (*BordereauWorkbook)(nil)

// BordereauWorkbook writes a bordereau statement as an xlsx workbook
type BordereauWorkbook struct{}

// NewBordereauWorkbook creates a BordereauWorkbook
func NewBordereauWorkbook() *BordereauWorkbook {
	return &BordereauWorkbook{}
}

// Render implements bordereauapp.Renderer. Amounts are written as numbers
// so the sheet can be summed by the insurer.
func (w *BordereauWorkbook) Render(ctx context.Context, s *bordereauapp.Statement) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), bordereauSheet); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E8EDF3"}},
	})
	if err != nil {
		return nil, err
	}
	dateFmt := "dd/mm/yyyy"
	date, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	if err != nil {
		return nil, err
	}
	amount, err := f.NewStyle(&excelize.Style{NumFmt: 3})
	if err != nil {
		return nil, err
	}
	amountBold, err := f.NewStyle(&excelize.Style{NumFmt: 3, Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	meta := [][]interface{}{
		{"Bordereau", s.Reference},
		{"Compagnie", fmt.Sprintf("%s (%s)", s.CompanyName, s.CompanyCode)},
		{"Période", fmt.Sprintf("%s - %s", s.PeriodStart.Format("02/01/2006"), s.PeriodEnd.Format("02/01/2006"))},
		{"Statut", statusText(s.Status)},
	}
	for i, row := range meta {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(bordereauSheet, cell, &row); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(bordereauSheet, "A1", fmt.Sprintf("A%d", len(meta)), bold); err != nil {
		return nil, err
	}

	headerRow := len(meta) + 2
	titles := make([]interface{}, len(bordereauColumns))
	for i, c := range bordereauColumns {
		titles[i] = c.title
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(bordereauSheet, col, col, c.width); err != nil {
			return nil, err
		}
	}
	start, _ := excelize.CoordinatesToCellName(1, headerRow)
	end, _ := excelize.CoordinatesToCellName(len(bordereauColumns), headerRow)
	if err := f.SetSheetRow(bordereauSheet, start, &titles); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(bordereauSheet, start, end, header); err != nil {
		return nil, err
	}

	row := headerRow
	for _, l := range s.Lines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row++
		values := []interface{}{
			l.ContractReference,
			l.PolicyNumber,
			l.ClientName,
			l.VehicleRegistration,
			l.ContractType,
			l.StartDate,
			l.EndDate,
			l.BasePremium.InexactFloat64(),
			l.GrossPremium.InexactFloat64(),
			l.TotalDiscount.InexactFloat64(),
			l.Commission.InexactFloat64(),
			l.TotalAmount.InexactFloat64(),
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(bordereauSheet, cell, &values); err != nil {
			return nil, err
		}
	}

	if len(s.Lines) > 0 {
		first := headerRow + 1
		if err := f.SetCellStyle(bordereauSheet, fmt.Sprintf("F%d", first), fmt.Sprintf("G%d", row), date); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(bordereauSheet, fmt.Sprintf("H%d", first), fmt.Sprintf("L%d", row), amount); err != nil {
			return nil, err
		}
	}

	totalRow := row + 1
	totals := []interface{}{
		fmt.Sprintf("Total (%d contrats)", s.Totals.Count),
		nil, nil, nil, nil, nil, nil,
		s.Totals.BasePremium.InexactFloat64(),
		s.Totals.GrossPremium.InexactFloat64(),
		s.Totals.TotalDiscount.InexactFloat64(),
		s.Totals.Commission.InexactFloat64(),
		s.Totals.TotalAmount.InexactFloat64(),
	}
	cell, _ := excelize.CoordinatesToCellName(1, totalRow)
	if err := f.SetSheetRow(bordereauSheet, cell, &totals); err != nil {
		return nil, err
	}
	totalStart, _ := excelize.CoordinatesToCellName(firstAmountCol, totalRow)
	totalEnd, _ := excelize.CoordinatesToCellName(len(bordereauColumns), totalRow)
	if err := f.SetCellStyle(bordereauSheet, totalStart, totalEnd, amountBold); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(bordereauSheet, cell, cell, bold); err != nil {
		return nil, err
	}

	if s.Notes != "" {
		notesCell, _ := excelize.CoordinatesToCellName(1, totalRow+2)
		if err := f.SetCellValue(bordereauSheet, notesCell, s.Notes); err != nil {
			return nil, err
		}
	}

	if err := f.SetPanes(bordereauSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      headerRow,
		TopLeftCell: fmt.Sprintf("A%d", headerRow+1),
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

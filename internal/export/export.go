// Package export renders lead lists as spreadsheets for the sales team.
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/models"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/pricing"
)

// ContentType is the MIME type of the rendered workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const sheetName = "Leads"

var header = []interface{}{
	"Folio",
	"Fecha",
	"Estado",
	"Nombre",
	"Teléfono",
	"Email",
	"Dirección",
	"Ciudad",
	"Estado (región)",
	"Código postal",
	"Producto",
	"Área (m²)",
	"Modalidad",
	"Total contado",
	"Total financiado",
	"Logística",
	"Factura",
	"Total final",
	"Fuera de zona",
	"Asignado a",
	"Origen",
	"Manual",
	"Notas",
	"Mapa",
}

// LeadsXLSX renders leads as a single-sheet workbook, one row per lead in
// the given order.
func LeadsXLSX(leads []models.Lead) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), sheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, l := range leads {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to address row %d: %w", i+2, err)
		}
		values := row(l)
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write lead %s: %w", l.ID, err)
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze header: %w", err)
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func row(l models.Lead) []interface{} {
	return []interface{}{
		l.Folio,
		l.CreatedAt.Format("2006-01-02 15:04"),
		string(l.Status),
		l.Name,
		l.Phone,
		deref(l.Email),
		l.Address,
		l.City,
		l.State,
		l.PostalCode,
		l.ProductID,
		l.Area,
		string(l.PricingMode),
		l.CashTotal,
		l.FinancedTotal,
		l.LogisticsCost,
		yesNo(l.InvoiceRequired),
		pricing.FinalTotal(l.BaseTotal(), l.LogisticsCost, l.InvoiceRequired),
		yesNo(l.IsOutOfZone),
		deref(l.AssignedTo),
		l.Source,
		yesNo(l.Manual),
		l.Notes,
		l.MapReference,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func yesNo(b bool) string {
	if b {
		return "Sí"
	}
	return "No"
}

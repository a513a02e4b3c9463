package infra

// pdf.go — Internal PDF generation for corte reports using go-pdf/fpdf.
// Generates an A4 reconciliation sheet with:
//   - Branch / scope header
//   - Opening, expected and counted balances plus the difference
//   - Counted breakdown per payment method
//   - Validated movement listing
//
// The output file is saved to storagePath/corte_{id}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cajas/internal/model"

	"github.com/go-pdf/fpdf"
)

// GenerateCortePDF renders the reconciliation report of a closed Corte.
// storagePath is the directory where the PDF will be written (created if
// needed). Returns the absolute path to the generated file.
func GenerateCortePDF(corte *model.Corte, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("corte_%s.pdf", corte.ID)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, tituloAmbito(corte.Ambito), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Sucursal %s", corte.SucursalID), "", 1, "C", false, 0, "")
	pdf.CellFormat(contentW, 5, corte.Fecha.Format("02/01/2006"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// ── Balances ─────────────────────────────────────────────────────────────
	labelW := contentW * 0.6
	valueW := contentW * 0.4

	row := func(label, value string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(labelW, 6, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(valueW, 6, value, "", 1, "R", false, 0, "")
	}

	row("Saldo inicial", "$"+corte.SaldoInicial.StringFixed(2), false)
	if corte.SaldoEsperado != nil {
		row("Saldo esperado", "$"+corte.SaldoEsperado.StringFixed(2), false)
	}
	if corte.SaldoReal != nil {
		row("Saldo contado", "$"+corte.SaldoReal.StringFixed(2), false)
	}
	if corte.Diferencia != nil {
		row("Diferencia", "$"+corte.Diferencia.StringFixed(2), true)
	}
	if corte.EstadoFinal != nil {
		row("Resultado", *corte.EstadoFinal, true)
	}
	pdf.Ln(2)

	// ── Counted breakdown ────────────────────────────────────────────────────
	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW, 6, "Conteo capturado", "", 1, "L", false, 0, "")
	if corte.TotalEfectivoCapturado != nil {
		row("Efectivo", "$"+corte.TotalEfectivoCapturado.StringFixed(2), false)
	}
	if corte.TotalTarjetaCapturado != nil {
		row("Tarjeta", "$"+corte.TotalTarjetaCapturado.StringFixed(2), false)
	}
	if corte.TotalTransferenciaCapturado != nil {
		row("Transferencia", "$"+corte.TotalTransferenciaCapturado.StringFixed(2), false)
	}
	pdf.Ln(2)

	// ── Movements ────────────────────────────────────────────────────────────
	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(2)

	col1 := contentW * 0.34 // categoria
	col2 := contentW * 0.16 // tipo
	col3 := contentW * 0.24 // metodo
	col4 := contentW * 0.26 // monto

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1, 6, "Categoría", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 6, "Tipo", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, "Método", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col4, 6, "Monto", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, mov := range corte.Movimientos {
		if mov.Validado != model.ValidadoAprobado {
			continue
		}
		categoria := mov.Categoria
		if len(categoria) > 28 {
			categoria = categoria[:27] + "…"
		}
		signo := "+"
		if mov.Tipo == model.TipoEgreso {
			signo = "-"
		}
		pdf.CellFormat(col1, 5, categoria, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, mov.Tipo, "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 5, mov.MetodoPago, "", 0, "L", false, 0, "")
		pdf.CellFormat(col4, 5, signo+"$"+mov.Monto.StringFixed(2), "", 1, "R", false, 0, "")
	}

	// ── Footer ───────────────────────────────────────────────────────────────
	pdf.Ln(4)
	if corte.Observaciones != nil && strings.TrimSpace(*corte.Observaciones) != "" {
		pdf.SetFont("Helvetica", "I", 8)
		pdf.MultiCell(contentW, 4, "Observaciones: "+*corte.Observaciones, "", "L", false)
	}
	if corte.FechaCierre != nil {
		pdf.SetFont("Helvetica", "", 8)
		pdf.CellFormat(contentW, 4, "Cerrado el "+corte.FechaCierre.Format("02/01/2006 15:04"), "", 1, "L", false, 0, "")
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}

	return filePath, nil
}

func tituloAmbito(ambito string) string {
	switch ambito {
	case model.AmbitoCajaChica:
		return "Cierre de Caja Chica"
	case model.AmbitoCajaGeneral:
		return "Cierre de Caja General"
	default:
		return "Corte de Caja"
	}
}

package infra

// pdf.go: cash closing report rendered with go-pdf/fpdf on A4 paper.
// Sections: store header, session info, balance breakdown, manual movements,
// and the reconciliation result when the session is closed.

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"petzap/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// CashReportData is everything the closing report prints.
type CashReportData struct {
	StoreName      string
	Session        *model.CashSession
	Movements      []model.CashMovement
	SalesTotal     decimal.Decimal
	SalesCount     int64
	Supplies       decimal.Decimal
	Withdrawals    decimal.Decimal
	Balance        decimal.Decimal
	Classification string
}

// RenderCashReportPDF writes the report to w.
func RenderCashReportPDF(w io.Writer, d CashReportData) error {
	pdf := buildCashReport(d)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf: render: %w", err)
	}
	return nil
}

// WriteCashReportPDF saves the report to storagePath/caixa_<id>.pdf and returns the path.
func WriteCashReportPDF(storagePath string, d CashReportData) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	filePath := filepath.Join(storagePath, fmt.Sprintf("caixa_%s.pdf", d.Session.ID))

	pdf := buildCashReport(d)
	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}

func money(v decimal.Decimal) string { return "R$ " + v.StringFixed(2) }

func buildCashReport(d CashReportData) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30
	labelW := contentW * 0.6
	valueW := contentW - labelW
	s := d.Session

	row := func(label, value string) {
		pdf.CellFormat(labelW, 6, tr(label), "", 0, "L", false, 0, "")
		pdf.CellFormat(valueW, 6, tr(value), "", 1, "R", false, 0, "")
	}
	separator := func() {
		pdf.Ln(2)
		pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
		pdf.Ln(3)
	}

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, tr(d.StoreName), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 6, tr("Relatório de Fechamento de Caixa"), "", 1, "C", false, 0, "")
	separator()

	// ── Session ──────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 9)
	row("Sessão", s.ID.String())
	row("Abertura", s.OpenedAt.Format("02/01/2006 15:04"))
	if s.ClosedAt != nil {
		row("Fechamento", s.ClosedAt.Format("02/01/2006 15:04"))
	}
	status := "Aberto"
	if s.Status == model.CashStatusClosed {
		status = "Fechado"
	}
	row("Status", status)
	separator()

	// ── Balance ──────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW, 7, tr("Resumo"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	row("Valor de abertura", money(s.OpeningAmount))
	row(fmt.Sprintf("Vendas pagas (%d)", d.SalesCount), money(d.SalesTotal))
	row("Suprimentos", money(d.Supplies))
	row("Sangrias", "- "+money(d.Withdrawals))
	pdf.SetFont("Helvetica", "B", 10)
	row("Saldo esperado", money(d.Balance))

	if s.ClosingAmount != nil {
		pdf.SetFont("Helvetica", "", 9)
		row("Valor contado", money(*s.ClosingAmount))
		if s.Difference != nil {
			row("Diferença", money(*s.Difference))
		}
		if d.Classification != "" {
			row("Classificação", d.Classification)
		}
	}
	separator()

	// ── Movements ────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW, 7, tr("Movimentações"), "", 1, "L", false, 0, "")
	if len(d.Movements) == 0 {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(contentW, 6, tr("Nenhuma movimentação manual."), "", 1, "L", false, 0, "")
	} else {
		col1, col2, col3 := contentW*0.2, contentW*0.2, contentW*0.4
		col4 := contentW - col1 - col2 - col3
		pdf.SetFont("Helvetica", "B", 8)
		pdf.CellFormat(col1, 6, "Hora", "B", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 6, "Tipo", "B", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 6, "Motivo", "B", 0, "L", false, 0, "")
		pdf.CellFormat(col4, 6, "Valor", "B", 1, "R", false, 0, "")
		pdf.SetFont("Helvetica", "", 8)
		for _, m := range d.Movements {
			kind := "Suprimento"
			if m.Type == model.MovementWithdrawal {
				kind = "Sangria"
			}
			reason := ""
			if m.Reason != nil {
				reason = *m.Reason
			}
			if len([]rune(reason)) > 40 {
				reason = string([]rune(reason)[:39]) + "..."
			}
			pdf.CellFormat(col1, 5, m.CreatedAt.Format("15:04"), "", 0, "L", false, 0, "")
			pdf.CellFormat(col2, 5, kind, "", 0, "L", false, 0, "")
			pdf.CellFormat(col3, 5, tr(reason), "", 0, "L", false, 0, "")
			pdf.CellFormat(col4, 5, money(m.Amount), "", 1, "R", false, 0, "")
		}
	}

	if s.Notes != nil && *s.Notes != "" {
		separator()
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(contentW, 7, tr("Observações"), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(contentW, 5, tr(*s.Notes), "", "L", false)
	}

	// ── Footer ───────────────────────────────────────────────────────────────
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, tr("Gerado em "+time.Now().Format("02/01/2006 15:04")), "", 1, "C", false, 0, "")

	return pdf
}

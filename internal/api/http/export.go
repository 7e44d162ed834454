package apihttp

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	alerts "envmonitor-cloud/internal/alerts/domain"
	"envmonitor-cloud/internal/observability/metrics"
	sensors "envmonitor-cloud/internal/sensors/domain"
)

// DailyReportRow is one sensor's line in the daily report.
type DailyReportRow struct {
	Sensor sensors.SensorKind
	Min    *float64
	Max    *float64
	Avg    *float64
}

// DailyReport aggregates today's summaries across all sensors.
type DailyReport struct {
	Date time.Time
	Rows []DailyReportRow
}

func (h *DashboardHandler) buildDailyReport(ctx context.Context, now time.Time) (*DailyReport, error) {
	report := &DailyReport{Date: now}
	for _, kind := range sensors.Kinds() {
		summary, err := h.analytics.DailySummary(ctx, kind)
		if err != nil {
			return nil, err
		}
		report.Rows = append(report.Rows, DailyReportRow{
			Sensor: kind,
			Min:    summary.Min,
			Max:    summary.Max,
			Avg:    summary.Avg,
		})
	}
	return report, nil
}

// HandleExportXLSX serves GET /api/v1/exports/daily.xlsx.
func (h *DashboardHandler) HandleExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.handleExport(w, r, "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", BuildDailyReportXLSX)
}

// HandleExportPDF serves GET /api/v1/exports/daily.pdf.
func (h *DashboardHandler) HandleExportPDF(w http.ResponseWriter, r *http.Request) {
	h.handleExport(w, r, "pdf", "application/pdf", BuildDailyReportPDF)
}

func (h *DashboardHandler) handleExport(w http.ResponseWriter, r *http.Request, format, contentType string, build func(*DailyReport) ([]byte, error)) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	report, err := h.buildDailyReport(r.Context(), time.Now())
	if err != nil {
		h.logger.Printf("daily report: %v", err)
		metrics.IncExportRequest(format, metrics.ResultError)
		http.Error(w, "query error", http.StatusInternalServerError)
		return
	}
	payload, err := build(report)
	if err != nil {
		h.logger.Printf("daily report render %s: %v", format, err)
		metrics.IncExportRequest(format, metrics.ResultError)
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}
	metrics.IncExportRequest(format, metrics.ResultSuccess)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=daily-report-%s.%s", report.Date.Format("2006-01-02"), format))
	_, _ = w.Write(payload)
}

// BuildDailyReportPDF renders a minimal PDF for the daily report.
func BuildDailyReportPDF(report *DailyReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Environmental Daily Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Date: %s", report.Date.Format("2006-01-02")))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(50, 6, "Sensor", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Min", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Max", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Avg", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, row := range report.Rows {
		pdf.CellFormat(50, 6, string(row.Sensor), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, formatCell(row.Min), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, formatCell(row.Max), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, formatCell(row.Avg), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildDailyReportXLSX renders a minimal XLSX for the daily report.
func BuildDailyReportXLSX(report *DailyReport) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "daily"
	f.SetSheetName("Sheet1", sheet)

	_ = f.SetCellValue(sheet, "A1", "Environmental Daily Report")
	_ = f.SetCellValue(sheet, "A2", "Date")
	_ = f.SetCellValue(sheet, "B2", report.Date.Format("2006-01-02"))

	_ = f.SetCellValue(sheet, "A4", "Sensor")
	_ = f.SetCellValue(sheet, "B4", "Min")
	_ = f.SetCellValue(sheet, "C4", "Max")
	_ = f.SetCellValue(sheet, "D4", "Avg")
	for i, row := range report.Rows {
		line := i + 5
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", line), string(row.Sensor))
		if row.Min != nil {
			_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", line), *row.Min)
		}
		if row.Max != nil {
			_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", line), *row.Max)
		}
		if row.Avg != nil {
			_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", line), *row.Avg)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatCell(v *float64) string {
	if v == nil {
		return "-"
	}
	return alerts.FormatValue(*v)
}

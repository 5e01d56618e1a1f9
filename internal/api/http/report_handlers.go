package apihttp

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"time"

	"driver-ledger/internal/analytics/application"
	exports "driver-ledger/internal/analytics/interfaces"
	"driver-ledger/internal/ledger/infrastructure/sheet"
	"driver-ledger/internal/observability/metrics"
)

// SummaryHandler serves the dashboard of a window.
type SummaryHandler struct {
	reports Reports
}

// NewSummaryHandler constructs a SummaryHandler.
func NewSummaryHandler(reports Reports) *SummaryHandler {
	return &SummaryHandler{reports: reports}
}

// ServeHTTP handles GET /api/v1/summary.
func (h *SummaryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.reports.Summary(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// CommissionHandler serves GP per platform.
type CommissionHandler struct {
	reports Reports
}

// NewCommissionHandler constructs a CommissionHandler.
func NewCommissionHandler(reports Reports) *CommissionHandler {
	return &CommissionHandler{reports: reports}
}

// ServeHTTP handles GET /api/v1/commission.
func (h *CommissionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.reports.Commission(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Export formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

// ExportHandler serves file downloads of a window.
type ExportHandler struct {
	reports Reports
	format  string
	pdfOpts []exports.PDFOption
}

// NewExportHandler constructs an ExportHandler for one format. pdfOpts apply to FormatPDF.
func NewExportHandler(reports Reports, format string, pdfOpts ...exports.PDFOption) *ExportHandler {
	return &ExportHandler{reports: reports, format: format, pdfOpts: pdfOpts}
}

// ServeHTTP handles GET /api/v1/exports/ledger.csv, report.xlsx and report.pdf.
func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	start := time.Now()
	q, err := parseQuery(r)
	if err != nil {
		metrics.ObserveExport(h.format, metrics.ResultRejected, time.Since(start))
		writeError(w, r, err)
		return
	}

	data, contentType, filename, err := h.render(r, q)
	if err != nil {
		result := metrics.ResultError
		if statusFor(err) == http.StatusBadRequest {
			result = metrics.ResultRejected
		}
		metrics.ObserveExport(h.format, result, time.Since(start))
		writeError(w, r, err)
		return
	}
	metrics.ObserveExport(h.format, metrics.ResultSuccess, time.Since(start))

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *ExportHandler) render(r *http.Request, q application.Query) ([]byte, string, string, error) {
	switch h.format {
	case FormatCSV:
		records, _, err := h.reports.Records(r.Context(), q)
		if err != nil {
			return nil, "", "", err
		}
		var buf bytes.Buffer
		if err := sheet.WriteCSV(&buf, records); err != nil {
			return nil, "", "", err
		}
		return buf.Bytes(), "text/csv; charset=utf-8", "ledger.csv", nil
	case FormatXLSX:
		rep, err := h.reports.Report(r.Context(), q)
		if err != nil {
			return nil, "", "", err
		}
		data, err := exports.BuildReportXLSX(rep)
		return data, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "report.xlsx", err
	case FormatPDF:
		rep, err := h.reports.Report(r.Context(), q)
		if err != nil {
			return nil, "", "", err
		}
		data, err := exports.BuildReportPDF(rep, h.pdfOpts...)
		return data, "application/pdf", "report.pdf", err
	default:
		return nil, "", "", errors.New("export: unsupported format " + h.format)
	}
}

package apihttp

import (
	"net/http"

	exports "driver-ledger/internal/analytics/interfaces"
	"driver-ledger/internal/audit"
	ledger "driver-ledger/internal/ledger/domain"
)

// Options carries the optional collaborators of the API.
type Options struct {
	// Audit receives whole-ledger rewrites; nil disables the trail.
	Audit audit.Logger
	// Platforms seeds the form pick-list.
	Platforms []string
	PDF       []exports.PDFOption
}

// Register mounts the ledger API on mux.
func Register(mux *http.ServeMux, recorder Recorder, reports Reports, store ledger.Store, opts Options) {
	records := NewRecordHandler(recorder)
	mux.HandleFunc("/api/v1/income", records.Income)
	mux.HandleFunc("/api/v1/expenses", records.Expense)
	mux.HandleFunc("/api/v1/shifts", records.Shift)
	mux.Handle("/api/v1/records", NewRecordsHandler(reports, store, opts.Audit))
	mux.Handle("/api/v1/imports/ledger.csv", NewImportHandler(store, opts.Audit))
	mux.Handle("/api/v1/platforms", NewPlatformsHandler(store, opts.Platforms))
	mux.Handle("/api/v1/summary", NewSummaryHandler(reports))
	mux.Handle("/api/v1/commission", NewCommissionHandler(reports))
	mux.Handle("/api/v1/exports/ledger.csv", NewExportHandler(reports, FormatCSV))
	mux.Handle("/api/v1/exports/report.xlsx", NewExportHandler(reports, FormatXLSX))
	mux.Handle("/api/v1/exports/report.pdf", NewExportHandler(reports, FormatPDF, opts.PDF...))
}

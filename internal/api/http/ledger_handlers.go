package apihttp

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"driver-ledger/internal/audit"
	ledger "driver-ledger/internal/ledger/domain"
	"driver-ledger/internal/ledger/infrastructure/sheet"
	"driver-ledger/internal/logger"
)

type incomeRequest struct {
	Platform string          `json:"platform"`
	Channel  string          `json:"payment_channel"`
	Quoted   decimal.Decimal `json:"quoted_amount"`
	Received decimal.Decimal `json:"received_amount"`
	Note     string          `json:"note"`
}

type expenseRequest struct {
	Activity string          `json:"activity"`
	Amount   decimal.Decimal `json:"amount"`
	Platform string          `json:"platform"`
	Source   string          `json:"energy_source"`
	Note     string          `json:"note"`
}

type shiftRequest struct {
	Activity   string  `json:"activity"`
	Odometer   float64 `json:"odometer_reading"`
	DistanceKm float64 `json:"distance_km"`
	Note       string  `json:"note"`
}

// RecordHandler serves the three submission forms.
type RecordHandler struct {
	recorder Recorder
}

// NewRecordHandler constructs a RecordHandler.
func NewRecordHandler(recorder Recorder) *RecordHandler {
	return &RecordHandler{recorder: recorder}
}

// Income handles POST /api/v1/income.
func (h *RecordHandler) Income(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req incomeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	channel, ok := ledger.ParseChannel(req.Channel)
	if !ok {
		writeError(w, r, ledger.ErrInvalidChannel)
		return
	}
	record, err := h.recorder.RecordIncome(r.Context(), ledger.IncomeInput{
		Platform: req.Platform,
		Channel:  channel,
		Quoted:   req.Quoted,
		Received: req.Received,
		Note:     req.Note,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

// Expense handles POST /api/v1/expenses.
func (h *RecordHandler) Expense(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	activity, ok := ledger.ParseActivity(req.Activity)
	if !ok {
		writeError(w, r, ledger.ErrInvalidActivity)
		return
	}
	record, err := h.recorder.RecordExpense(r.Context(), ledger.ExpenseInput{
		Activity: activity,
		Amount:   req.Amount,
		Platform: req.Platform,
		Source:   ledger.EnergySource(req.Source),
		Note:     req.Note,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

// Shift handles POST /api/v1/shifts.
func (h *RecordHandler) Shift(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req shiftRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	activity, ok := ledger.ParseActivity(req.Activity)
	if !ok {
		writeError(w, r, ledger.ErrInvalidActivity)
		return
	}
	record, err := h.recorder.RecordShift(r.Context(), ledger.ShiftInput{
		Activity:   activity,
		Odometer:   req.Odometer,
		DistanceKm: req.DistanceKm,
		Note:       req.Note,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

// RecordsHandler lists the rows of a window and replaces the whole ledger.
// Every successful replace is written to the audit log when one is set.
type RecordsHandler struct {
	reports Reports
	store   ledger.Store
	audit   audit.Logger
}

// NewRecordsHandler constructs a RecordsHandler. auditLog may be nil.
func NewRecordsHandler(reports Reports, store ledger.Store, auditLog audit.Logger) *RecordsHandler {
	return &RecordsHandler{reports: reports, store: store, audit: auditLog}
}

type recordsResponse struct {
	Window  any             `json:"window"`
	Records []ledger.Record `json:"records"`
}

// ServeHTTP handles GET and PUT /api/v1/records.
func (h *RecordsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet, http.MethodPut) {
		return
	}
	if r.Method == http.MethodPut {
		h.replace(w, r)
		return
	}

	q, err := parseQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	records, win, err := h.reports.Records(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recordsResponse{Window: win, Records: records})
}

func (h *RecordsHandler) replace(w http.ResponseWriter, r *http.Request) {
	var records []ledger.Record
	if err := decodeJSON(w, r, &records); err != nil {
		writeError(w, r, err)
		return
	}
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = uuid.NewString()
		}
	}
	before, err := h.store.All(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.Replace(r.Context(), records); err != nil {
		writeError(w, r, err)
		return
	}
	logRewrite(r, h.audit, audit.ActionReplace, len(before), records)
	writeJSON(w, http.StatusOK, recordsResponse{Records: records})
}

// logRewrite records a whole-ledger rewrite; records is the ledger as saved.
func logRewrite(r *http.Request, auditLog audit.Logger, action string, rowsBefore int, records []ledger.Record) {
	if auditLog == nil {
		return
	}
	payload, _ := json.Marshal(records)
	entry := audit.Prepare(audit.Entry{
		Action:     action,
		RowsBefore: rowsBefore,
		RowsAfter:  len(records),
		IP:         r.RemoteAddr,
		UserAgent:  r.UserAgent(),
	}, payload)
	if err := auditLog.Log(r.Context(), entry); err != nil {
		log := logger.FromContext(r.Context())
		log.Warn().Err(err).Str("audit_id", entry.ID).Msg("audit log failed")
	}
}

// ImportHandler appends the rows of an uploaded CSV ledger, in the current or
// first-generation layout. Rows without an id get one derived from their content,
// so uploading the same file twice is rejected as a duplicate.
type ImportHandler struct {
	store ledger.Store
	audit audit.Logger
}

// NewImportHandler constructs an ImportHandler. auditLog may be nil.
func NewImportHandler(store ledger.Store, auditLog audit.Logger) *ImportHandler {
	return &ImportHandler{store: store, audit: auditLog}
}

type importResponse struct {
	Imported int `json:"imported"`
	Total    int `json:"total"`
}

// ServeHTTP handles POST /api/v1/imports/ledger.csv.
func (h *ImportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	imported, err := sheet.ReadCSV(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, errors.Join(errBadRequest, err))
		return
	}
	for _, record := range imported {
		if err := record.Validate(); err != nil {
			writeError(w, r, err)
			return
		}
	}

	existing, err := h.store.All(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	merged := make([]ledger.Record, 0, len(existing)+len(imported))
	merged = append(append(merged, existing...), imported...)
	if err := h.store.Replace(r.Context(), merged); err != nil {
		writeError(w, r, err)
		return
	}
	logRewrite(r, h.audit, audit.ActionImport, len(existing), merged)
	writeJSON(w, http.StatusCreated, importResponse{Imported: len(imported), Total: len(merged)})
}

// PlatformsHandler lists the platform names offered on the income and top-up forms:
// the configured list first, then any other platform already present in the ledger.
type PlatformsHandler struct {
	store      ledger.Store
	configured []string
}

// NewPlatformsHandler constructs a PlatformsHandler.
func NewPlatformsHandler(store ledger.Store, configured []string) *PlatformsHandler {
	return &PlatformsHandler{store: store, configured: configured}
}

type platformsResponse struct {
	Platforms []string `json:"platforms"`
}

// ServeHTTP handles GET /api/v1/platforms.
func (h *PlatformsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	records, err := h.store.All(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	seen := make(map[string]bool, len(h.configured))
	platforms := make([]string, 0, len(h.configured))
	for _, name := range h.configured {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		platforms = append(platforms, name)
	}
	var extra []string
	for _, record := range records {
		name := record.Platform
		if name == "" || name == ledger.PlatformExpense || name == ledger.PlatformSystem || seen[name] {
			continue
		}
		if record.IsIncome() || record.IsTopUp() {
			seen[name] = true
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	writeJSON(w, http.StatusOK, platformsResponse{Platforms: append(platforms, extra...)})
}

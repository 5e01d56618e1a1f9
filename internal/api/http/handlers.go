package apihttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"driver-ledger/internal/analytics/application"
	"driver-ledger/internal/analytics/domain/window"
	ledger "driver-ledger/internal/ledger/domain"
	"driver-ledger/internal/logger"
)

const maxBodyBytes = 4 << 20

// Recorder creates ledger rows from submitted forms.
type Recorder interface {
	RecordIncome(ctx context.Context, in ledger.IncomeInput) (ledger.Record, error)
	RecordExpense(ctx context.Context, in ledger.ExpenseInput) (ledger.Record, error)
	RecordShift(ctx context.Context, in ledger.ShiftInput) (ledger.Record, error)
}

// Reports answers window queries.
type Reports interface {
	Records(ctx context.Context, q application.Query) ([]ledger.Record, window.Window, error)
	Summary(ctx context.Context, q application.Query) (application.SummaryReport, error)
	Commission(ctx context.Context, q application.Query) (application.CommissionReport, error)
	Report(ctx context.Context, q application.Query) (application.FullReport, error)
}

type errorBody struct {
	Error string `json:"error"`
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrValidation),
		errors.Is(err, window.ErrInvalidRange),
		errors.Is(err, window.ErrUnknownWindow),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrOrderingViolation),
		errors.Is(err, ledger.ErrDuplicateID):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrRecordNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

var errBadRequest = errors.New("bad request")

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		message = "internal error"
	}
	writeJSON(w, status, errorBody{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return nil
}

// parseQuery reads window, start and end from the query string.
func parseQuery(r *http.Request) (application.Query, error) {
	values := r.URL.Query()
	kind, err := window.ParseKind(values.Get("window"))
	if err != nil {
		return application.Query{}, err
	}
	q := application.Query{Window: kind}
	if raw := values.Get("start"); raw != "" {
		if q.Start, err = parseDateParam(raw); err != nil {
			return application.Query{}, err
		}
	}
	if raw := values.Get("end"); raw != "" {
		if q.End, err = parseDateParam(raw); err != nil {
			return application.Query{}, err
		}
	}
	if values.Get("window") == "" && (!q.Start.IsZero() || !q.End.IsZero()) {
		q.Window = window.KindCustom
	}
	return q, nil
}

func parseDateParam(raw string) (time.Time, error) {
	t, err := ledger.ParseDate(raw)
	if err != nil {
		return time.Time{}, errors.Join(errBadRequest, err)
	}
	return t, nil
}

func allow(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.WriteHeader(http.StatusMethodNotAllowed)
	return false
}

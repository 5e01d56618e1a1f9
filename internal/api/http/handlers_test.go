package apihttp

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"driver-ledger/internal/analytics/application"
	"driver-ledger/internal/audit"
	ledger "driver-ledger/internal/ledger/domain"
	ledgerapp "driver-ledger/internal/ledger/application"
	"driver-ledger/internal/ledger/infrastructure/memory"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type auditSpy struct {
	entries []audit.Entry
}

func (a *auditSpy) Log(_ context.Context, entry audit.Entry) error {
	a.entries = append(a.entries, entry)
	return nil
}

func newTestServer(t *testing.T) (*http.ServeMux, *memory.Store, *auditSpy) {
	t.Helper()
	clock := fixedClock{now: time.Date(2026, time.June, 10, 9, 30, 0, 0, time.UTC)}
	store := memory.NewStore()
	recorder, err := ledgerapp.NewRecorder(store, ledgerapp.WithClock(clock), ledgerapp.WithLocation(time.UTC))
	if err != nil {
		t.Fatalf("recorder: %v", err)
	}
	reports, err := application.NewReportService(store,
		application.WithClock(clock),
		application.WithLocation(time.UTC),
		application.WithDailyTarget(decimal.NewFromInt(1000)),
	)
	if err != nil {
		t.Fatalf("reports: %v", err)
	}
	spy := &auditSpy{}
	mux := http.NewServeMux()
	Register(mux, recorder, reports, store, Options{Audit: spy, Platforms: []string{"Grab", "Bolt"}})
	return mux, store, spy
}

func do(t *testing.T, mux http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestIncomeAndSummary(t *testing.T) {
	mux, _, _ := newTestServer(t)

	rec := do(t, mux, http.MethodPost, "/api/v1/income",
		`{"platform":"Grab","payment_channel":"card_or_wallet","quoted_amount":500,"received_amount":450}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var record ledger.Record
	if err := json.Unmarshal(rec.Body.Bytes(), &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if !record.DeductedAmount.Equal(decimal.NewFromInt(50)) || record.ID == "" {
		t.Fatalf("unexpected record %+v", record)
	}

	rec = do(t, mux, http.MethodPost, "/api/v1/expenses", `{"activity":"top_up","amount":"100","platform":"Grab"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, mux, http.MethodGet, "/api/v1/summary?window=today", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var summary application.SummaryReport
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if !summary.Summary.NetProfit.Equal(decimal.NewFromInt(350)) || !summary.Target.Window.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("unexpected summary %+v", summary)
	}

	rec = do(t, mux, http.MethodGet, "/api/v1/commission?window=this_month", "")
	var commission application.CommissionReport
	if err := json.Unmarshal(rec.Body.Bytes(), &commission); err != nil {
		t.Fatalf("decode commission: %v", err)
	}
	if len(commission.Platforms) != 1 || !commission.Platforms[0].GPPercent.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("unexpected commission %+v", commission.Platforms)
	}
}

func TestErrorMapping(t *testing.T) {
	mux, _, _ := newTestServer(t)

	cases := []struct {
		name   string
		method string
		target string
		body   string
		status int
	}{
		{"missing amount", http.MethodPost, "/api/v1/income", `{"platform":"Grab","payment_channel":"cash_or_transfer"}`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/v1/income", `{"platfrom":"Grab"}`, http.StatusBadRequest},
		{"bad activity", http.MethodPost, "/api/v1/expenses", `{"activity":"snacks","amount":10}`, http.StatusBadRequest},
		{"unknown window", http.MethodGet, "/api/v1/summary?window=decade", "", http.StatusBadRequest},
		{"reversed range", http.MethodGet, "/api/v1/summary?window=custom&start=2026-06-05&end=2026-06-01", "", http.StatusBadRequest},
		{"bad date", http.MethodGet, "/api/v1/records?start=yesterday-ish", "", http.StatusBadRequest},
		{"wrong method", http.MethodDelete, "/api/v1/records", "", http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		rec := do(t, mux, tc.method, tc.target, tc.body)
		if rec.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d: %s", tc.name, tc.status, rec.Code, rec.Body.String())
		}
	}
}

func TestShiftOdometerConflict(t *testing.T) {
	mux, _, _ := newTestServer(t)

	rec := do(t, mux, http.MethodPost, "/api/v1/shifts", `{"activity":"shift_start","odometer_reading":1000}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = do(t, mux, http.MethodPost, "/api/v1/shifts", `{"activity":"shift_end","odometer_reading":990}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRecordsReplace(t *testing.T) {
	mux, store, spy := newTestServer(t)
	do(t, mux, http.MethodPost, "/api/v1/expenses", `{"activity":"general","amount":40}`)

	rec := do(t, mux, http.MethodGet, "/api/v1/records?window=all_time", "")
	var listed struct {
		Records []ledger.Record `json:"records"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil || len(listed.Records) != 1 {
		t.Fatalf("unexpected listing %s (%v)", rec.Body.String(), err)
	}

	edited := listed.Records[0]
	edited.Note = "tyre repair"
	extra := edited
	extra.ID = ""
	body, _ := json.Marshal([]ledger.Record{edited, extra})
	rec = do(t, mux, http.MethodPut, "/api/v1/records", string(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	stored, _ := store.All(context.Background())
	if len(stored) != 2 || stored[0].Note != "tyre repair" || stored[1].ID == "" {
		t.Fatalf("unexpected stored rows %+v", stored)
	}
	if len(spy.entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(spy.entries))
	}
	entry := spy.entries[0]
	if entry.Action != audit.ActionReplace || entry.RowsBefore != 1 || entry.RowsAfter != 2 || entry.PayloadDigest == "" {
		t.Fatalf("unexpected audit entry %+v", entry)
	}

	dup, _ := json.Marshal([]ledger.Record{edited, edited})
	rec = do(t, mux, http.MethodPut, "/api/v1/records", string(dup))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate ids, got %d", rec.Code)
	}
	if len(spy.entries) != 1 {
		t.Fatalf("rejected replace must not be audited")
	}
}

func TestImportCSV(t *testing.T) {
	mux, store, spy := newTestServer(t)
	do(t, mux, http.MethodPost, "/api/v1/income", `{"platform":"Grab","payment_channel":"cash_or_transfer","quoted_amount":300}`)

	upload := "date,time,platform,category,activity,payment_channel,quoted_amount,net_amount,cash_in_hand_delta\n" +
		"2026-06-09,08:00,Maxim,income,fare,cash_or_transfer,200,200,200\n"
	rec := do(t, mux, http.MethodPost, "/api/v1/imports/ledger.csv", upload)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var result importResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Imported != 1 || result.Total != 2 {
		t.Fatalf("unexpected import result %+v", result)
	}
	stored, _ := store.All(context.Background())
	if len(stored) != 2 || stored[1].Platform != "Maxim" || stored[1].ID == "" {
		t.Fatalf("unexpected stored rows %+v", stored)
	}
	if len(spy.entries) != 1 || spy.entries[0].Action != audit.ActionImport ||
		spy.entries[0].RowsBefore != 1 || spy.entries[0].RowsAfter != 2 {
		t.Fatalf("unexpected audit entries %+v", spy.entries)
	}

	rec = do(t, mux, http.MethodPost, "/api/v1/imports/ledger.csv", upload)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for a repeated upload, got %d", rec.Code)
	}
	rec = do(t, mux, http.MethodPost, "/api/v1/imports/ledger.csv", "date,category\nnot-a-date,income\n")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a bad row, got %d", rec.Code)
	}
	if stored, _ := store.All(context.Background()); len(stored) != 2 {
		t.Fatalf("rejected uploads must not change the ledger, got %d rows", len(stored))
	}
}

func TestPlatforms(t *testing.T) {
	mux, _, _ := newTestServer(t)
	do(t, mux, http.MethodPost, "/api/v1/income", `{"platform":"Maxim","payment_channel":"cash_or_transfer","quoted_amount":80}`)
	do(t, mux, http.MethodPost, "/api/v1/income", `{"platform":"Grab","payment_channel":"cash_or_transfer","quoted_amount":90}`)
	do(t, mux, http.MethodPost, "/api/v1/expenses", `{"activity":"top_up","amount":50,"platform":"Robinhood"}`)
	do(t, mux, http.MethodPost, "/api/v1/expenses", `{"activity":"general","amount":20}`)

	rec := do(t, mux, http.MethodGet, "/api/v1/platforms", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body platformsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []string{"Grab", "Bolt", "Maxim", "Robinhood"}
	if strings.Join(body.Platforms, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected platforms %v", body.Platforms)
	}
}

func TestExports(t *testing.T) {
	mux, _, _ := newTestServer(t)
	do(t, mux, http.MethodPost, "/api/v1/income", `{"platform":"Bolt","payment_channel":"cash_or_transfer","quoted_amount":120}`)

	rec := do(t, mux, http.MethodGet, "/api/v1/exports/ledger.csv?window=today", "")
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Body.String(), "id,date,time,platform") {
		t.Fatalf("unexpected csv %d %q", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Bolt") {
		t.Fatalf("csv misses the fare row")
	}

	rec = do(t, mux, http.MethodGet, "/api/v1/exports/report.pdf?window=today", "")
	if rec.Code != http.StatusOK || !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("unexpected pdf response %d", rec.Code)
	}

	rec = do(t, mux, http.MethodGet, "/api/v1/exports/report.xlsx?window=today", "")
	if rec.Code != http.StatusOK || !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Fatalf("unexpected xlsx response %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "report.xlsx") {
		t.Fatalf("unexpected disposition %q", got)
	}
}

package api

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"transacciones_api/internal/domain"

	"github.com/shopspring/decimal"
)

func TestExportCSV(t *testing.T) {
	users := newMemUserStore()
	txs := newMemTxStore(users)
	ana := seedUser(users, "Ana", "ana@example.com")
	seedTx(txs, ana.ID, decimal.RequireFromString("150.50"), time.Date(2025, 10, 3, 15, 30, 0, 0, time.Local))
	// An ownerless row, as left behind by a user deletion
	txs.seq++
	txs.txs = append(txs.txs, domain.Transaction{ID: txs.seq, Monto: decimal.NewFromInt(75), Fecha: time.Date(2025, 10, 4, 8, 0, 0, 0, time.Local), CreatedAt: time.Now(), UpdatedAt: time.Now()})
	r := newTestRouter(users, txs)

	req := httptest.NewRequest(http.MethodGet, "/export", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("expected text/csv content type, got %s", ct)
	}
	cd := rec.Header().Get("Content-Disposition")
	if !strings.HasPrefix(cd, `attachment; filename="transacciones_`) || !strings.HasSuffix(cd, `.csv"`) {
		t.Fatalf("unexpected content disposition: %s", cd)
	}

	records, err := csv.NewReader(bytes.NewReader(rec.Body.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d records", len(records))
	}
	wantHeader := []string{"ID", "Name", "Email", "Amount", "Date", "Created", "Updated"}
	for i, col := range wantHeader {
		if records[0][i] != col {
			t.Fatalf("expected header %v, got %v", wantHeader, records[0])
		}
	}
	if records[1][1] != "Ana" || records[1][2] != "ana@example.com" || records[1][3] != "150.50" {
		t.Fatalf("unexpected owned row: %v", records[1])
	}
	if records[1][4] != "2025-10-03 15:30:00" {
		t.Fatalf("unexpected fecha cell: %v", records[1][4])
	}
	// Ownerless rows print Unknown in both identity columns
	if records[2][1] != "Unknown" || records[2][2] != "Unknown" {
		t.Fatalf("expected Unknown owner, got %v", records[2])
	}
}

func TestExportCSVDateFilter(t *testing.T) {
	users := newMemUserStore()
	txs := newMemTxStore(users)
	ana := seedUser(users, "Ana", "ana@example.com")
	seedTx(txs, ana.ID, decimal.NewFromInt(100), time.Date(2025, 10, 1, 12, 0, 0, 0, time.Local))
	seedTx(txs, ana.ID, decimal.NewFromInt(200), time.Date(2025, 10, 3, 12, 0, 0, 0, time.Local))
	r := newTestRouter(users, txs)

	req := httptest.NewRequest(http.MethodGet, "/export?from=2025-10-02&to=2025-10-03", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	records, err := csv.NewReader(bytes.NewReader(rec.Body.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header plus the one in-range row, got %d records", len(records))
	}
	if records[1][3] != "200.00" {
		t.Fatalf("expected the in-range amount, got %v", records[1])
	}
}

func TestExportCSVBadFilter(t *testing.T) {
	users := newMemUserStore()
	r := newTestRouter(users, newMemTxStore(users))

	req := httptest.NewRequest(http.MethodGet, "/export?from=yesterday", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
}

func TestSummaryByUser(t *testing.T) {
	users := newMemUserStore()
	txs := newMemTxStore(users)
	ana := seedUser(users, "Ana", "ana@example.com")
	luis := seedUser(users, "Luis", "luis@example.com")
	seedUser(users, "Eva", "eva@example.com") // No transactions, must not appear
	seedTx(txs, ana.ID, decimal.NewFromInt(100), time.Date(2025, 10, 1, 9, 0, 0, 0, time.Local))
	seedTx(txs, ana.ID, decimal.NewFromInt(200), time.Date(2025, 10, 2, 9, 0, 0, 0, time.Local))
	seedTx(txs, ana.ID, decimal.NewFromInt(600), time.Date(2025, 10, 3, 9, 0, 0, 0, time.Local))
	seedTx(txs, luis.ID, decimal.NewFromInt(50), time.Date(2025, 10, 3, 9, 0, 0, 0, time.Local))
	r := newTestRouter(users, txs)

	req := httptest.NewRequest(http.MethodGet, "/resumen-usuario", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var rows []struct {
		ID               uint            `json:"id"`
		Usuario          string          `json:"usuario"`
		Email            string          `json:"email"`
		TotalTransferido decimal.Decimal `json:"total_transferido"`
		PromedioMonto    decimal.Decimal `json:"promedio_monto"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 users with transactions, got %d", len(rows))
	}
	// Total is the arithmetic sum, average is total over count
	if !rows[0].TotalTransferido.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("expected total 900 for Ana, got %s", rows[0].TotalTransferido)
	}
	if !rows[0].PromedioMonto.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("expected average 300 for Ana, got %s", rows[0].PromedioMonto)
	}
	if rows[1].Usuario != "Luis" || !rows[1].TotalTransferido.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("unexpected second row: %+v", rows[1])
	}
}

func TestSummaryByUserDateFilter(t *testing.T) {
	users := newMemUserStore()
	txs := newMemTxStore(users)
	ana := seedUser(users, "Ana", "ana@example.com")
	seedTx(txs, ana.ID, decimal.NewFromInt(100), time.Date(2025, 10, 1, 9, 0, 0, 0, time.Local))
	seedTx(txs, ana.ID, decimal.NewFromInt(200), time.Date(2025, 10, 5, 9, 0, 0, 0, time.Local))
	r := newTestRouter(users, txs)

	req := httptest.NewRequest(http.MethodGet, "/resumen-usuario?from=2025-10-04", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var rows []struct {
		TotalTransferido decimal.Decimal `json:"total_transferido"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(rows) != 1 || !rows[0].TotalTransferido.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected only the in-range amount, got %s", rec.Body.String())
	}
}

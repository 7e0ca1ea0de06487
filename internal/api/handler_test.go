package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"pharmapos/m/domain"
	"pharmapos/m/internal/pos"
	"pharmapos/m/internal/receipt"
	"pharmapos/m/internal/store"
)

type fakeAssistant struct {
	lastPrompt string
	lastSnap   domain.AssistantSnapshot
}

func (f *fakeAssistant) Ask(_ context.Context, prompt string, snap domain.AssistantSnapshot) string {
	f.lastPrompt = prompt
	f.lastSnap = snap
	return "Reorder Ibuprofen."
}

func (f *fakeAssistant) InventoryHealth(_ context.Context, snap domain.AssistantSnapshot) domain.InventoryHealth {
	f.lastSnap = snap
	return domain.InventoryHealth{CriticalItems: []string{"Ibuprofen 400mg"}, Summary: "Fine.", RestockPriority: domain.RestockMedium}
}

type testServer struct {
	t         *testing.T
	srv       *httptest.Server
	session   *pos.Session
	assistant *fakeAssistant
	token     string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("1234"), bcrypt.MinCost)
	require.NoError(t, err)

	session := pos.Open(context.Background(), store.NewGateway(store.NewMemoryKV(), "memory"))
	fa := &fakeAssistant{}
	h := New(session, fa, Settings{
		Secret:            "test_secret",
		AdminUsername:     "admin",
		AdminPasswordHash: hash,
		Template:          receipt.DefaultTemplate(),
		LowStockDefault:   10,
	})
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return &testServer{t: t, srv: srv, session: session, assistant: fa}
}

func (ts *testServer) do(method, path string, body any) *http.Response {
	ts.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(ts.t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, reader)
	require.NoError(ts.t, err)
	req.Header.Set("Content-Type", "application/json")
	if ts.token != "" {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(ts.t, err)
	ts.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (ts *testServer) login() {
	ts.t.Helper()
	resp := ts.do(http.MethodPost, "/auth/login", map[string]string{"username": "admin", "password": "1234"})
	require.Equal(ts.t, http.StatusOK, resp.StatusCode)
	ts.token = decode[authResponse](ts.t, resp).Token
	require.NotEmpty(ts.t, ts.token)
}

func (ts *testServer) addMedicine(name string, qty int64, price float64) domain.Medicine {
	ts.t.Helper()
	resp := ts.do(http.MethodPost, "/medicines", map[string]any{
		"name": name, "category": "Painkillers", "expiry_date": "2027-01-31",
		"quantity": qty, "price": price, "manufacturer": "HealthPlus",
	})
	require.Equal(ts.t, http.StatusCreated, resp.StatusCode)
	return decode[domain.Medicine](ts.t, resp)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode[map[string]string](t, resp)["status"])
}

func TestAuth(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(http.MethodGet, "/medicines", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = ts.do(http.MethodPost, "/auth/login", map[string]string{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.False(t, ts.session.Authenticated())

	resp = ts.do(http.MethodPost, "/auth/login", map[string]string{"username": "admin", "password": "1234", "role": "owner"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "unknown fields are rejected")

	ts.login()
	assert.True(t, ts.session.Authenticated())
	resp = ts.do(http.MethodGet, "/medicines", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []domain.Medicine{}, decode[[]domain.Medicine](t, resp))

	resp = ts.do(http.MethodPost, "/auth/logout", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, ts.session.Authenticated())

	resp = ts.do(http.MethodGet, "/medicines", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "logout revokes the token")

	ts.token = "not-a-jwt"
	resp = ts.do(http.MethodGet, "/medicines", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMedicines(t *testing.T) {
	ts := newTestServer(t)
	ts.login()

	para := ts.addMedicine("Paracetamol 500mg", 250, 5.5)
	assert.NotEmpty(t, para.ID)
	assert.True(t, strings.HasPrefix(para.BatchNumber, "BAT-"))
	assert.Equal(t, int64(10), para.LowStockThreshold)
	ts.addMedicine("Ibuprofen 400mg", 5, 7.2)

	resp := ts.do(http.MethodGet, "/medicines?query=ibu", nil)
	found := decode[[]domain.Medicine](t, resp)
	require.Len(t, found, 1)
	assert.Equal(t, "Ibuprofen 400mg", found[0].Name)

	resp = ts.do(http.MethodGet, "/medicines/low-stock", nil)
	assert.Len(t, decode[[]domain.Medicine](t, resp), 1)

	resp = ts.do(http.MethodGet, "/medicines/expired?as_of=2027-02-01", nil)
	assert.Len(t, decode[[]domain.Medicine](t, resp), 2)
	resp = ts.do(http.MethodGet, "/medicines/expired?as_of=tomorrow", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(http.MethodPut, "/medicines/"+para.ID, map[string]any{"quantity": 300, "expiry_date": "2028-01-01"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[domain.Medicine](t, resp)
	assert.Equal(t, int64(300), updated.Quantity)
	assert.Equal(t, "2028-01-01", updated.ExpiryDate.String())
	assert.Equal(t, "Paracetamol 500mg", updated.Name)

	resp = ts.do(http.MethodPut, "/medicines/"+para.ID, map[string]any{"price": -1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(http.MethodPost, "/medicines", map[string]any{"name": "Bad", "quantity": -3})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(http.MethodDelete, "/medicines/"+para.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = ts.do(http.MethodDelete, "/medicines/"+para.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCheckoutFlow(t *testing.T) {
	ts := newTestServer(t)
	ts.login()
	para := ts.addMedicine("Paracetamol 500mg", 250, 5.5)

	resp := ts.do(http.MethodPost, "/cart/items", map[string]string{"medicine_id": para.ID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = ts.do(http.MethodPatch, "/cart/items/"+para.ID, map[string]int64{"delta": 9})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.do(http.MethodPut, "/cart/checkout", map[string]any{
		"customer_name": "Ahmed Ali", "discount_percent": 10, "cash_received": "100",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decode[map[string]any](t, resp)
	totals := view["totals"].(map[string]any)
	assert.Equal(t, 55.0, totals["subtotal"])
	assert.Equal(t, 49.5, totals["grandTotal"])
	assert.Equal(t, 50.5, totals["changeDue"])
	assert.Equal(t, "Change", view["changeLabel"])

	resp = ts.do(http.MethodPost, "/sales", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	settled := decode[settlementResponse](t, resp)
	assert.True(t, strings.HasPrefix(settled.Sale.ID, "INV-"))
	assert.Equal(t, "Ahmed Ali", settled.Sale.CustomerName)
	assert.Contains(t, settled.ReceiptText, "CASH INVOICE")
	assert.Contains(t, settled.ReceiptText, "Ahmed Ali")

	resp = ts.do(http.MethodGet, "/cart", nil)
	assert.Empty(t, decode[cartView](t, resp).Items)

	med := ts.do(http.MethodGet, "/medicines", nil)
	assert.Equal(t, int64(240), decode[[]domain.Medicine](t, med)[0].Quantity)

	resp = ts.do(http.MethodGet, "/sales?query=ahmed", nil)
	assert.Len(t, decode[[]domain.Sale](t, resp), 1)

	resp = ts.do(http.MethodGet, "/sales/"+settled.Sale.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, settled.Sale.ID, decode[domain.Sale](t, resp).ID)

	resp = ts.do(http.MethodGet, "/sales/"+settled.Sale.ID+"/receipt?format=text", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	text, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(text), "DUPLICATE INVOICE (REPRINT)")

	resp = ts.do(http.MethodGet, "/sales/"+settled.Sale.ID+"/receipt", nil)
	assert.True(t, decode[domain.Receipt](t, resp).Reprint)

	resp = ts.do(http.MethodGet, "/sales/INV-0", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCheckoutErrors(t *testing.T) {
	ts := newTestServer(t)
	ts.login()

	resp := ts.do(http.MethodPost, "/sales", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "empty cart")

	resp = ts.do(http.MethodPost, "/cart/items", map[string]string{"medicine_id": "missing"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	zinc := ts.addMedicine("Zinc", 2, 3)
	ts.do(http.MethodPost, "/cart/items", map[string]string{"medicine_id": zinc.ID})
	ts.do(http.MethodPost, "/cart/items", map[string]string{"medicine_id": zinc.ID})
	ts.do(http.MethodPut, "/medicines/"+zinc.ID, map[string]any{"quantity": 1})

	resp = ts.do(http.MethodPost, "/sales", nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Len(t, body["warnings"], 1)

	resp = ts.do(http.MethodPost, "/sales?allow_oversell=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(http.MethodPost, "/sales?allow_oversell=true", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	settled := decode[settlementResponse](t, resp)
	require.Len(t, settled.Warnings, 1)
	assert.Equal(t, int64(1), settled.Warnings[0].Shortfall())
}

func TestCheckoutCashField(t *testing.T) {
	ts := newTestServer(t)
	ts.login()
	zinc := ts.addMedicine("Zinc", 5, 3)
	ts.do(http.MethodPost, "/cart/items", map[string]string{"medicine_id": zinc.ID})

	resp := ts.do(http.MethodPut, "/cart/checkout", map[string]any{"cash_received": 2})
	view := decode[cartView](t, resp)
	assert.True(t, view.Checkout.CashReceived.Valid)
	assert.Equal(t, "Balance Due", view.ChangeLabel)

	resp = ts.do(http.MethodPut, "/cart/checkout", map[string]any{"customer_name": "Zoya"})
	view = decode[cartView](t, resp)
	assert.True(t, view.Checkout.CashReceived.Valid, "absent field is left as is")

	resp = ts.do(http.MethodPut, "/cart/checkout", map[string]any{"cash_received": nil})
	view = decode[cartView](t, resp)
	assert.False(t, view.Checkout.CashReceived.Valid)
	assert.Equal(t, "Change", view.ChangeLabel)

	resp = ts.do(http.MethodDelete, "/cart", nil)
	view = decode[cartView](t, resp)
	assert.Empty(t, view.Items)
	assert.Empty(t, view.Checkout.CustomerName)
}

func TestReports(t *testing.T) {
	ts := newTestServer(t)
	ts.login()
	zinc := ts.addMedicine("Zinc", 5, 3)
	ts.do(http.MethodPost, "/cart/items", map[string]string{"medicine_id": zinc.ID})
	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/sales", nil).StatusCode)

	resp := ts.do(http.MethodGet, "/reports/sales", nil)
	stats := decode[map[string]any](t, resp)
	assert.Equal(t, 1.0, stats["invoiceCount"])
	assert.Equal(t, 3.0, stats["totalRevenue"])

	resp = ts.do(http.MethodGet, "/reports/dashboard", nil)
	dash := decode[map[string]any](t, resp)
	assert.Equal(t, 12.0, dash["totalStockValue"])
	assert.Len(t, dash["lastSevenDays"], 7)

	resp = ts.do(http.MethodGet, "/reports/sales.csv", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "invoice_id,timestamp,customer,items,total_amount\n"))
	assert.Contains(t, string(data), "Zinc x1")
}

func TestAssistant(t *testing.T) {
	ts := newTestServer(t)
	ts.login()
	ts.addMedicine("Ibuprofen 400mg", 5, 7.2)

	resp := ts.do(http.MethodPost, "/assistant/ask", map[string]string{"prompt": "What to reorder?"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Reorder Ibuprofen.", decode[map[string]string](t, resp)["answer"])
	assert.Equal(t, "What to reorder?", ts.assistant.lastPrompt)
	require.Len(t, ts.assistant.lastSnap.Medicines, 1)
	assert.True(t, ts.assistant.lastSnap.Medicines[0].LowStock)

	resp = ts.do(http.MethodPost, "/assistant/ask", map[string]string{"prompt": " "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(http.MethodGet, "/assistant/inventory-health", nil)
	health := decode[domain.InventoryHealth](t, resp)
	assert.Equal(t, domain.RestockMedium, health.RestockPriority)
}

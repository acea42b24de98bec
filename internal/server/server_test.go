package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/live-labs/tradebutler/internal/credential"
	"github.com/live-labs/tradebutler/internal/journal"
	"github.com/live-labs/tradebutler/internal/storage"
)

func newTestServer(t *testing.T) (*httptest.Server, *credential.Store) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Initialize())

	creds := credential.New(db, zap.NewNop())
	credHandler := &CredentialHandler{
		Credentials: creds,
		Data:        db,
		Sessions:    NewSessions(),
	}
	journalHandler := &JournalHandler{Journal: journal.NewService(db, zap.NewNop())}

	srv := httptest.NewServer(NewRouter(credHandler, journalHandler, zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv, creds
}

func doJSON(t *testing.T, method, url, body, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewBufferString(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(sessionHeader, token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestStatusEmpty(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/lock/status", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status statusResponse
	decodeBody(t, resp, &status)
	assert.False(t, status.HasCredential)
	assert.False(t, status.Locked)
	assert.Empty(t, status.Kind)
}

func TestSetCredentialValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"five digit pin", `{"secret":"12345","kind":"pin"}`, http.StatusUnprocessableEntity},
		{"short password", `{"secret":"abc","kind":"password"}`, http.StatusUnprocessableEntity},
		{"unknown kind", `{"secret":"secret","kind":"fingerprint"}`, http.StatusUnprocessableEntity},
		{"valid pin", `{"secret":"482913","kind":"pin"}`, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPut, srv.URL+"/api/credential", tt.body, "")
			resp.Body.Close()
			assert.Equal(t, tt.code, resp.StatusCode)
		})
	}
}

func TestLockUnlockFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	// Set a PIN, then lock
	resp := doJSON(t, http.MethodPut, srv.URL+"/api/credential", `{"secret":"482913","kind":"pin"}`, "")
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/lock/lock", "", "")
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Locked: data endpoints reject, status stays reachable
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/trades", "", "")
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/lock/status", "", "")
	var status statusResponse
	decodeBody(t, resp, &status)
	assert.True(t, status.Locked)
	assert.Equal(t, "pin", status.Kind)

	// Wrong secret: generic message, still locked
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/lock/unlock", `{"secret":"111111"}`, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Correct secret: token issued, data endpoints open up
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/lock/unlock", `{"secret":"482913"}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var unlock map[string]string
	decodeBody(t, resp, &unlock)
	require.NotEmpty(t, unlock["token"])

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/trades", "", unlock["token"])
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Unlock cleared the flag, so the token is no longer needed
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/trades", "", "")
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Locking again revokes issued tokens
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/lock/lock", "", unlock["token"])
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/trades", "", unlock["token"])
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRelaunchStartsLocked(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Initialize())

	creds := credential.New(db, zap.NewNop())
	require.NoError(t, creds.Set([]byte("482913"), credential.KindPIN))
	// The previous run exited unlocked
	locked, err := creds.IsLocked()
	require.NoError(t, err)
	require.False(t, locked)

	credHandler := &CredentialHandler{
		Credentials: creds,
		Data:        db,
		Sessions:    NewSessions(),
	}
	journalHandler := &JournalHandler{Journal: journal.NewService(db, zap.NewNop())}
	require.NoError(t, credHandler.EngageStartupLock())

	srv := httptest.NewServer(NewRouter(credHandler, journalHandler, zap.NewNop()))
	t.Cleanup(srv.Close)

	// Data endpoints are gated until the credential is verified again
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/trades", "", "")
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/lock/unlock", `{"secret":"482913"}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/trades", "", "")
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStartupLockWithoutCredential(t *testing.T) {
	srv, creds := newTestServer(t)

	handler := &CredentialHandler{Credentials: creds, Sessions: NewSessions()}
	require.NoError(t, handler.EngageStartupLock())

	// No credential: the startup lock is a no-op and endpoints stay open
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/trades", "", "")
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestForgetWipesDataAndCredential(t *testing.T) {
	srv, creds := newTestServer(t)

	// Seed a trade and a credential, then lock the app
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/trades",
		`{"symbol":"AAPL","side":"BUY","quantity":10,"price":10,"timestamp":"2024-01-02T09:30:00Z","status":"Filled"}`, "")
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodPut, srv.URL+"/api/credential", `{"secret":"482913","kind":"pin"}`, "")
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.NoError(t, creds.SetLocked(true))

	// Forget is reachable from the lock screen
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/credential/forget", "", "")
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	has, err := creds.HasCredential()
	require.NoError(t, err)
	assert.False(t, has)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/trades", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var trades []journal.Trade
	decodeBody(t, resp, &trades)
	assert.Empty(t, trades)
}

func TestTradeEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/trades",
		`{"symbol":"AAPL","side":"BUY","quantity":100,"price":10,"timestamp":"2024-01-02T09:30:00Z","status":"Filled"}`, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created map[string]uint64
	decodeBody(t, resp, &created)
	require.NotZero(t, created["id"])

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/trades",
		`{"symbol":"AAPL","side":"SELL","quantity":100,"price":12,"timestamp":"2024-01-02T15:00:00Z","status":"Filled"}`, "")
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Invalid trade rejected
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/trades",
		`{"symbol":"AAPL","side":"HOLD","quantity":1,"price":1}`, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// Missing trade
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/trades/999", "", "")
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Daily P&L reflects the round trip
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/pnl/daily", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var daily []journal.DailyPnL
	decodeBody(t, resp, &daily)
	require.Len(t, daily, 1)
	assert.Equal(t, "2024-01-02", daily[0].Date)
	assert.InDelta(t, 200, daily[0].ProfitLoss, 1e-9)
}

func TestImportEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	csv := "symbol,side,quantity,price,timestamp\nAAPL,BUY,10,10,2024-01-02T09:30:00Z\n"
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/trades/import", strings.NewReader(csv))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "text/csv")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result map[string]any
	decodeBody(t, resp, &result)
	assert.EqualValues(t, 1, result["imported"])
}

func TestJournalEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/journal",
		`{"date":"2024-01-02","title":"Choppy open","content":"Stayed flat."}`, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created map[string]uint64
	decodeBody(t, resp, &created)
	id := created["id"]
	require.NotZero(t, id)

	url := srv.URL + "/api/journal/" + jsonID(id)
	resp = doJSON(t, http.MethodPut, url, `{"title":"Choppy open","content":"Took the breakout.\n"}`, "")
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, url+"/history", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var history []journal.Revision
	decodeBody(t, resp, &history)
	require.Len(t, history, 1)
	assert.Contains(t, history[0].Diff, "+++ current")

	resp = doJSON(t, http.MethodDelete, url, "", "")
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = doJSON(t, http.MethodGet, url, "", "")
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestChecklistEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/strategies",
		`{"name":"Opening range breakout","color":"#ff8800"}`, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created map[string]uint64
	decodeBody(t, resp, &created)
	strategyID := created["id"]

	checklistURL := srv.URL + "/api/strategies/" + jsonID(strategyID) + "/checklist"
	resp = doJSON(t, http.MethodPost, checklistURL, `{"text":"Range established","sort_order":1}`, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var item map[string]uint64
	decodeBody(t, resp, &item)

	resp = doJSON(t, http.MethodGet, checklistURL, "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var items []journal.ChecklistItem
	decodeBody(t, resp, &items)
	require.Len(t, items, 1)
	assert.Equal(t, "Range established", items[0].Text)

	// Responses attach to a journal entry
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/journal", `{"date":"2024-01-02","title":"ORB"}`, "")
	var entry map[string]uint64
	decodeBody(t, resp, &entry)

	entryURL := srv.URL + "/api/journal/" + jsonID(entry["id"]) + "/checklist"
	resp = doJSON(t, http.MethodPut, entryURL,
		`{"responses":{"`+jsonID(item["id"])+`":true}}`, "")
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, entryURL, "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var responses map[string]bool
	decodeBody(t, resp, &responses)
	assert.True(t, responses[jsonID(item["id"])])
}

func jsonID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

package authority

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(t *testing.T) (*httptest.Server, *Store) {
	t.Helper()

	store := NewStore()
	srv := httptest.NewServer(NewRouter(store))
	t.Cleanup(srv.Close)

	return srv, store
}

func post(t *testing.T, srv *httptest.Server, path, initData, requestID string, body any) (*http.Response, envelope) {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, srv.URL+path, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if initData != "" {
		req.Header.Set(headerInitData, initData)
	}
	if requestID != "" {
		req.Header.Set(headerRequestID, requestID)
	}

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	return resp, env
}

func TestHandlers_MissingInitData(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	resp, env := post(t, srv, "/clicker/get-me", "", "", struct{}{})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", resp.StatusCode)
	}
	if env.OK {
		t.Fatalf("unauthorized response must not be ok")
	}
}

func TestHandlers_GetMeUnknownUser(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	resp, _ := post(t, srv, "/clicker/get-me", "tok-nobody", "", struct{}{})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("want 404, got %d", resp.StatusCode)
	}
}

func TestHandlers_CreateThenGetMe(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	resp, env := post(t, srv, "/clicker/create-user", "tok-a", "", map[string]any{})
	if resp.StatusCode != http.StatusOK || !env.OK {
		t.Fatalf("create failed: status %d, env %+v", resp.StatusCode, env)
	}
	if env.User == nil || env.User.ID == 0 {
		t.Fatalf("create returned no user: %+v", env)
	}

	_, env = post(t, srv, "/clicker/get-me", "tok-a", "", struct{}{})
	if env.User == nil || env.User.ActiveEnergy != 1000 {
		t.Fatalf("get-me after create: %+v", env)
	}
}

func TestHandlers_UpdateEnergyReturnsClampedValue(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	post(t, srv, "/clicker/create-user", "tok-a", "", map[string]any{})

	_, env := post(t, srv, "/clicker/update-energy", "tok-a", "", map[string]any{"activeEnergy": 9000})
	if !env.OK || env.ActiveEnergy == nil {
		t.Fatalf("update-energy response: %+v", env)
	}
	if *env.ActiveEnergy != 1000 {
		t.Fatalf("clamped energy: want 1000, got %v", *env.ActiveEnergy)
	}
}

func TestHandlers_UpdateBalanceDeduplicatesByRequestID(t *testing.T) {
	t.Parallel()

	srv, store := newTestServer(t)
	post(t, srv, "/clicker/create-user", "tok-a", "", map[string]any{})

	post(t, srv, "/clicker/update-balance", "tok-a", "req-1", map[string]any{"balance": 70})
	post(t, srv, "/clicker/update-balance", "tok-a", "req-1", map[string]any{"balance": 70})
	post(t, srv, "/clicker/update-balance", "tok-a", "req-2", map[string]any{"balance": 5})

	user, err := store.GetUser("tok-a")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.Balance != 75 {
		t.Fatalf("balance after retried sync: want 75, got %d", user.Balance)
	}
}

func TestHandlers_UpdateAbilityInsufficientFunds(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	post(t, srv, "/clicker/create-user", "tok-a", "", map[string]any{})

	resp, env := post(t, srv, "/clicker/update-ability", "tok-a", "", map[string]any{"abilityType": "click"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("rejections ride a 200, got %d", resp.StatusCode)
	}
	if env.OK || env.Error == "" {
		t.Fatalf("broke precheck: %+v", env)
	}
}

func TestHandlers_RejectsUnknownBodyFields(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	post(t, srv, "/clicker/create-user", "tok-a", "", map[string]any{})

	resp, _ := post(t, srv, "/clicker/update-energy", "tok-a", "", map[string]any{"activEnergy": 10})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown field: want 400, got %d", resp.StatusCode)
	}
}

func TestHandlers_Healthz(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz: want 200, got %d", resp.StatusCode)
	}
}

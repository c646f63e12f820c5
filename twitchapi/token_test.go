package twitchapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTokenSource_GetCachesToken(t *testing.T) {
	tokenRequests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth2/token" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		tokenRequests++
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.Form.Get("grant_type"); got != "client_credentials" {
			t.Errorf("grant_type = %q, want client_credentials", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "app-token",
			"token_type":   "bearer",
			"expires_in":   3600,
		})
	}))
	defer server.Close()

	ts := &TokenSource{
		ClientID:     "test-client-id",
		ClientSecret: "test-secret",
		HTTPClient:   rewriteClient(server.URL),
	}

	tok, err := ts.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if tok != "app-token" {
		t.Fatalf("Get() = %q, want app-token", tok)
	}
	// Second call must hit the cache.
	if _, err := ts.Get(context.Background()); err != nil {
		t.Fatalf("second Get() error = %v", err)
	}
	if tokenRequests != 1 {
		t.Fatalf("expected 1 token request, got %d", tokenRequests)
	}
}

func TestTokenSource_ExpiryBufferTriggersRefresh(t *testing.T) {
	tokenRequests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenRequests++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "refreshed-token",
			"token_type":   "bearer",
			"expires_in":   3600,
		})
	}))
	defer server.Close()

	ts := &TokenSource{
		ClientID:     "test-client-id",
		ClientSecret: "test-secret",
		HTTPClient:   rewriteClient(server.URL),
	}
	// Seed a token inside the expiry buffer; Get must refresh.
	ts.SetToken("nearly-dead", time.Now().Add(30*time.Second))

	tok, err := ts.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if tok != "refreshed-token" {
		t.Fatalf("Get() = %q, want refreshed-token", tok)
	}
	if tokenRequests != 1 {
		t.Fatalf("expected 1 token request, got %d", tokenRequests)
	}
}

func TestTokenSource_MissingCredentials(t *testing.T) {
	ts := &TokenSource{}
	if _, err := ts.Get(context.Background()); err == nil {
		t.Fatalf("expected error when client id/secret missing")
	}
}

func TestTokenSource_Invalidate(t *testing.T) {
	ts := &TokenSource{ClientID: "id", ClientSecret: "secret"}
	ts.SetToken("cached", time.Now().Add(1*time.Hour))
	ts.Invalidate()
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.token != "" {
		t.Fatalf("Invalidate() left token %q", ts.token)
	}
}

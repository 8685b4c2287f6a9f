package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/securecookie"

	"github.com/codr1/nailbook/internal/api/auth"
	"github.com/codr1/nailbook/internal/calendar"
	"github.com/codr1/nailbook/internal/config"
	"github.com/codr1/nailbook/internal/scheduler"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	tempDir := t.TempDir()
	configBody := fmt.Sprintf(`app:
  name: "nailbook"
  environment: "development"
  port: 8080
  timezone: "UTC"

database:
  driver: "sqlite"
  filename: "%s"

business:
  provider_name: "Ana"
  whatsapp_phone: "+55 11 98765-4321"
  services: ["Manicure", "Pedicure"]

features:
  enable_metrics: true
`, filepath.ToSlash(filepath.Join(tempDir, "db", "smoke.db")))

	hash, err := auth.HashPassword("segredo")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	env := map[string]string{
		"ADMIN_PASSWORD_HASH": hash,
		"SESSION_HASH_KEY":    base64.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(32)),
	}
	cfg, err := config.Parse([]byte(configBody), func(key string) string { return env[key] })
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}

	a, err := newApp(cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(a.Close)
	t.Cleanup(func() { _ = scheduler.Stop() })

	srv := httptest.NewServer(newServer(cfg, a).Handler)
	t.Cleanup(srv.Close)
	return srv
}

func nextSaturday(now time.Time) calendar.Date {
	d := calendar.Today(now, time.UTC).AddDays(1)
	for d.Weekday() != time.Saturday {
		d = d.AddDays(1)
	}
	return d
}

func TestServerEndToEnd(t *testing.T) {
	srv := newTestServer(t)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	client := &http.Client{
		Jar:     jar,
		Timeout: 5 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := client.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected health 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("expected X-Request-ID header")
	}

	resp, err = client.Get(srv.URL + "/api/v1/admin/appointments")
	if err != nil {
		t.Fatalf("appointments: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 before login, got %d", resp.StatusCode)
	}

	saturday := nextSaturday(time.Now())
	body := fmt.Sprintf(`{"date":%q,"time":"10:00","name":"Maria","service":"Pedicure"}`, saturday)
	resp, err = client.Post(srv.URL+"/api/v1/bookings", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("booking: %v", err)
	}
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected booking 201, got %d: %s", resp.StatusCode, raw)
	}

	resp, err = client.PostForm(srv.URL+"/admin/login", url.Values{"password": {"segredo"}})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected login redirect, got %d", resp.StatusCode)
	}

	resp, err = client.Get(srv.URL + "/api/v1/admin/appointments")
	if err != nil {
		t.Fatalf("appointments: %v", err)
	}
	var agenda struct {
		OpenCount int `json:"openCount"`
	}
	err = json.NewDecoder(resp.Body).Decode(&agenda)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("decode agenda: %v", err)
	}
	if agenda.OpenCount != 1 {
		t.Fatalf("expected one open appointment, got %d", agenda.OpenCount)
	}

	resp, err = client.Get(srv.URL + "/api/v1/admin/export.csv")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	raw, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	wantRow := fmt.Sprintf("open,%s,10:00,Maria,", saturday)
	if !strings.Contains(string(raw), wantRow) {
		t.Fatalf("expected export to contain %q, got:\n%s", wantRow, raw)
	}

	resp, err = client.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	raw, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(raw), `nailbook_bookings_total{outcome="created"} 1`) {
		t.Fatalf("expected booking counter in metrics output")
	}
}

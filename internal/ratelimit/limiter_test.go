package ratelimit

import (
	"net/http"
	"sync"
	"testing"
	"time"
)

type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func newMockClock() *mockClock {
	return &mockClock{now: time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)}
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestCheckBooking_Cooldown(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{Cooldown: 60 * time.Second, MaxPerHour: 5, MaxIPPerHour: 20, Clock: clock})
	defer limiter.Close()

	phone := "+5511987654321"
	ip := "203.0.113.10"

	if result := limiter.CheckBooking(phone, ip); !result.Allowed {
		t.Fatalf("first booking should be allowed, got %s", result.Reason)
	}
	limiter.RecordBooking(phone, ip)

	clock.Advance(20 * time.Second)
	result := limiter.CheckBooking(phone, ip)
	if result.Allowed || result.Reason != "cooldown" {
		t.Fatalf("expected cooldown, got %+v", result)
	}
	if result.RetryAfter != 40*time.Second {
		t.Fatalf("RetryAfter = %v, want 40s", result.RetryAfter)
	}

	clock.Advance(41 * time.Second)
	if result := limiter.CheckBooking(phone, ip); !result.Allowed {
		t.Fatalf("booking after cooldown should be allowed, got %s", result.Reason)
	}
}

func TestCheckBooking_HourlyLimit(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{Cooldown: time.Millisecond, MaxPerHour: 3, MaxIPPerHour: 20, Clock: clock})
	defer limiter.Close()

	for i := 0; i < 3; i++ {
		if result := limiter.CheckBooking("ana", "203.0.113.10"); !result.Allowed {
			t.Fatalf("booking %d should be allowed, got %s", i+1, result.Reason)
		}
		limiter.RecordBooking("ana", "203.0.113.10")
		clock.Advance(time.Second)
	}

	result := limiter.CheckBooking("ana", "203.0.113.10")
	if result.Allowed || result.Reason != "hourly_limit" {
		t.Fatalf("expected hourly_limit, got %+v", result)
	}

	clock.Advance(time.Hour)
	if result := limiter.CheckBooking("ana", "203.0.113.10"); !result.Allowed {
		t.Fatalf("window should have reset, got %s", result.Reason)
	}
}

func TestCheckBooking_IPLimit(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{Cooldown: time.Millisecond, MaxPerHour: 10, MaxIPPerHour: 2, Clock: clock})
	defer limiter.Close()

	ip := "203.0.113.10"
	limiter.RecordBooking("visitor-1", ip)
	limiter.RecordBooking("visitor-2", ip)

	result := limiter.CheckBooking("visitor-3", ip)
	if result.Allowed || result.Reason != "ip_hourly_limit" {
		t.Fatalf("expected ip_hourly_limit, got %+v", result)
	}
	if result := limiter.CheckBooking("visitor-3", "203.0.113.11"); !result.Allowed {
		t.Fatalf("another IP should be allowed, got %s", result.Reason)
	}
}

func TestCheckBooking_IdentifierNormalization(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{Cooldown: time.Minute, MaxPerHour: 5, MaxIPPerHour: 20, Clock: clock})
	defer limiter.Close()

	limiter.RecordBooking("  Ana Souza ", "203.0.113.10")
	if result := limiter.CheckBooking("ana souza", "203.0.113.99"); result.Allowed {
		t.Fatal("identifier should be case and space insensitive")
	}
}

func TestCleanupDropsStaleEntries(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{Cooldown: time.Minute, MaxPerHour: 5, MaxIPPerHour: 20, Clock: clock})
	defer limiter.Close()

	limiter.RecordBooking("ana", "203.0.113.10")
	clock.Advance(2 * time.Hour)
	limiter.cleanup()

	limiter.mu.RLock()
	defer limiter.mu.RUnlock()
	if len(limiter.byID) != 0 || len(limiter.byIP) != 0 {
		t.Fatalf("expected empty maps, got %d/%d", len(limiter.byID), len(limiter.byIP))
	}
}

func TestGetClientIP_TrustProxy(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		trustProxy bool
		expected   string
	}{
		{"trusted XFF rightmost public IP", map[string]string{"X-Forwarded-For": "203.0.113.50, 10.0.0.1"}, "10.0.0.1:12345", true, "203.0.113.50"},
		{"trusted XFF all private", map[string]string{"X-Forwarded-For": "192.168.1.1, 10.0.0.1"}, "10.0.0.1:12345", true, "10.0.0.1"},
		{"trusted X-Real-IP", map[string]string{"X-Real-IP": "203.0.113.51"}, "10.0.0.1:12345", true, "203.0.113.51"},
		{"untrusted ignores XFF", map[string]string{"X-Forwarded-For": "203.0.113.50"}, "192.168.1.100:54321", false, "192.168.1.100"},
		{"no headers", map[string]string{}, "192.168.1.100:54321", true, "192.168.1.100"},
		{"remote addr without port", map[string]string{}, "192.168.1.100", false, "192.168.1.100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := http.NewRequest("POST", "/api/v1/bookings", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := GetClientIP(r, tt.trustProxy); got != tt.expected {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestSanitizeIdentifier(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"+5511987654321", "***4321"},
		{"Ana Souza", "***ouza"},
		{"123", "***"},
		{"", "***"},
	}
	for _, tt := range tests {
		if got := SanitizeIdentifier(tt.input); got != tt.expected {
			t.Errorf("SanitizeIdentifier(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Cooldown != time.Minute || cfg.MaxPerHour != 5 || cfg.MaxIPPerHour != 20 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

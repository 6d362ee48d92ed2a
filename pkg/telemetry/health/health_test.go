package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestNew_DefaultTimeout(t *testing.T) {
	if c := New(0); c.checkTimeout != DefaultCheckTimeout {
		t.Errorf("checkTimeout = %v, want %v", c.checkTimeout, DefaultCheckTimeout)
	}
}

func TestRegisterAndList(t *testing.T) {
	c := New(time.Second)
	c.RegisterCheck("store", PingCheck(pinger{}))
	c.RegisterCheck("kafka", PingCheck(pinger{}))
	c.UnregisterCheck("kafka")

	names := c.ListChecks()
	if len(names) != 1 || names[0] != "store" {
		t.Errorf("ListChecks() = %v, want [store]", names)
	}
}

func TestCheckReadiness(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]CheckFunc
		want   string
	}{
		{name: "no checks", want: StatusReady},
		{
			name:   "all healthy",
			checks: map[string]CheckFunc{"store": PingCheck(pinger{})},
			want:   StatusReady,
		},
		{
			name: "one unhealthy",
			checks: map[string]CheckFunc{
				"store":     PingCheck(pinger{}),
				"retention": PingCheck(pinger{err: errors.New("stale")}),
			},
			want: StatusDegraded,
		},
		{
			name: "timeout",
			checks: map[string]CheckFunc{
				"slow": func(ctx context.Context) error {
					time.Sleep(200 * time.Millisecond)
					return nil
				},
			},
			want: StatusDegraded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(50 * time.Millisecond)
			for name, check := range tt.checks {
				c.RegisterCheck(name, check)
			}

			status := c.CheckReadiness(context.Background())
			if status.Status != tt.want {
				t.Errorf("Status = %q, want %q (%v)", status.Status, tt.want, status.Checks)
			}
			if len(status.Checks) != len(tt.checks) {
				t.Errorf("got %d results, want %d", len(status.Checks), len(tt.checks))
			}
		})
	}
}

func TestFreshnessCheck(t *testing.T) {
	base := time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC)
	current := base
	now := func() time.Time { return current }
	var last time.Time

	check := FreshnessCheck(func() time.Time { return last }, 48*time.Hour, time.Hour, now)

	if err := check(context.Background()); err != nil {
		t.Errorf("fresh process reported stale: %v", err)
	}

	current = base.Add(2 * time.Hour)
	if err := check(context.Background()); err == nil {
		t.Error("expected error when no run succeeded within grace")
	}

	last = base.Add(time.Hour)
	if err := check(context.Background()); err != nil {
		t.Errorf("recent success reported stale: %v", err)
	}

	current = last.Add(49 * time.Hour)
	if err := check(context.Background()); err == nil {
		t.Error("expected error for a success older than maxAge")
	}
}

func TestMount(t *testing.T) {
	c := New(time.Second)
	c.RegisterCheck("store", PingCheck(pinger{err: errors.New("database is locked")}))

	r := chi.NewRouter()
	c.Mount(r, "1.2.3", "abc123", "2026-01-01")

	tests := []struct {
		method string
		path   string
		code   int
		status string
	}{
		{http.MethodGet, "/healthz", http.StatusOK, StatusOK},
		{http.MethodHead, "/healthz", http.StatusOK, ""},
		{http.MethodGet, "/readyz", http.StatusServiceUnavailable, StatusDegraded},
		{http.MethodPost, "/readyz", http.StatusMethodNotAllowed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.code {
				t.Fatalf("code = %d, want %d", rec.Code, tt.code)
			}
			if tt.status == "" {
				return
			}
			var body HealthStatus
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.Status != tt.status {
				t.Errorf("status = %q, want %q", body.Status, tt.status)
			}
		})
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))
	var info VersionInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatal(err)
	}
	if info.Version != "1.2.3" || info.GoVersion == "" {
		t.Errorf("version info = %+v", info)
	}
}

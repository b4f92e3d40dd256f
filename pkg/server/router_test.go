package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func named(name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(name))
	})
}

func TestRouter_AddApplication(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		wantErr error
	}{
		{"no leading slash", "metrics", ErrInvalidPrefix},
		{"empty", "", ErrInvalidPrefix},
		{"same prefix", "/metrics", ErrOverlappingPrefix},
		{"extends existing", "/metrics/extra", ErrOverlappingPrefix},
		{"is prefix of existing", "/met", ErrOverlappingPrefix},
		{"disjoint", "/health", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := NewRouter()
			if err := rt.AddApplication("/metrics", named("metrics")); err != nil {
				t.Fatal(err)
			}
			err := rt.AddApplication(tt.prefix, named("other"))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("AddApplication(%q) error = %v, want %v", tt.prefix, err, tt.wantErr)
			}
		})
	}
}

func TestRouter_ServeHTTP(t *testing.T) {
	rt := NewRouter()
	_ = rt.AddApplication("/metrics", named("metrics"))
	_ = rt.AddApplication("/health", named("health"))

	tests := []struct {
		path      string
		wantCode  int
		wantBody  string
		wantRoute string
	}{
		{"/metrics/counter", http.StatusOK, "metrics", "/metrics"},
		{"/metrics", http.StatusOK, "metrics", "/metrics"},
		{"/metricsfoo", http.StatusOK, "metrics", "/metrics"},
		{"/health", http.StatusOK, "health", "/health"},
		{"/", http.StatusNotFound, "", "/"},
		{"/unknown", http.StatusNotFound, "", RouteUnmatched},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		w := httptest.NewRecorder()
		rt.ServeHTTP(w, req)

		if w.Code != tt.wantCode {
			t.Errorf("%s: code = %d, want %d", tt.path, w.Code, tt.wantCode)
		}
		if tt.wantBody != "" && w.Body.String() != tt.wantBody {
			t.Errorf("%s: body = %q, want %q", tt.path, w.Body.String(), tt.wantBody)
		}
		if got := rt.Route(req); got != tt.wantRoute {
			t.Errorf("%s: route = %q, want %q", tt.path, got, tt.wantRoute)
		}
	}
}

func TestRouter_Root(t *testing.T) {
	rt := NewRouter()
	rt.SetRoot(named("root"))

	w := httptest.NewRecorder()
	rt.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Body.String() != "root" {
		t.Errorf("root body = %q", w.Body.String())
	}

	rt.SetRoot(nil)
	w = httptest.NewRecorder()
	rt.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("code after reset = %d", w.Code)
	}
}

func TestRouter_Prefixes(t *testing.T) {
	rt := NewRouter()
	_ = rt.AddApplication("/ready", named("r"))
	_ = rt.AddApplication("/health", named("h"))

	got := rt.Prefixes()
	if len(got) != 2 || got[0] != "/health" || got[1] != "/ready" {
		t.Errorf("Prefixes() = %v", got)
	}
}

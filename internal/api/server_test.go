package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/svanoort/script-security-plugin/internal/security"
	"github.com/svanoort/script-security-plugin/internal/signature"
	"github.com/svanoort/script-security-plugin/internal/whitelist"
)

func testServer(t *testing.T, lines ...string) *Server {
	t.Helper()
	sigs := make([]*signature.Signature, len(lines))
	for i, line := range lines {
		s, err := signature.Parse(line)
		if err != nil {
			t.Fatalf("Parse(%q): %v", line, err)
		}
		sigs[i] = s
	}
	engine := whitelist.NewTestEngine(sigs)
	interceptor := security.NewInterceptor(engine, nil)
	return NewServer(engine, interceptor, nil, false)
}

func doJSON(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var parsed map[string]any
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &parsed); err != nil {
			t.Fatalf("%s %s: invalid JSON response %q", method, path, w.Body.String())
		}
	}
	return w, parsed
}

func TestHealth(t *testing.T) {
	s := testServer(t)
	w, body := doJSON(t, s, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("health = %d %v", w.Code, body)
	}
}

func TestCheck(t *testing.T) {
	s := testServer(t, "method std.String substring int")

	tests := []struct {
		name      string
		body      string
		status    int
		permitted any
	}{
		{"permitted", `{"kind":"method","type":"std.String","name":"substring","args":["int"]}`, http.StatusOK, true},
		{"denied overload", `{"kind":"method","type":"std.String","name":"substring","args":["int","int"]}`, http.StatusOK, false},
		{"denied static", `{"kind":"staticMethod","type":"std.String","name":"substring","args":["int"]}`, http.StatusOK, false},
		{"constructor no name ok", `{"kind":"new","type":"std.List"}`, http.StatusOK, false},
		{"unknown kind", `{"kind":"ctor","type":"std.List"}`, http.StatusBadRequest, nil},
		{"missing name", `{"kind":"method","type":"std.String"}`, http.StatusBadRequest, nil},
		{"missing type", `{"kind":"method"}`, http.StatusBadRequest, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := doJSON(t, s, http.MethodPost, "/api/scriptsec/check", tt.body)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (%v)", w.Code, tt.status, body)
			}
			if tt.permitted != nil && body["permitted"] != tt.permitted {
				t.Errorf("permitted = %v, want %v", body["permitted"], tt.permitted)
			}
		})
	}
}

func TestSignatures(t *testing.T) {
	s := testServer(t,
		"method std.String substring int",
		"method std.List get int",
		"new std.List",
	)

	w, body := doJSON(t, s, http.MethodGet, "/api/scriptsec/signatures", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body["count"] != float64(3) {
		t.Errorf("count = %v", body["count"])
	}

	// Glob filter over the canonical line.
	w, body = doJSON(t, s, http.MethodGet, "/api/scriptsec/signatures?filter=method+std.String+*", "")
	if w.Code != http.StatusOK || body["count"] != float64(1) {
		t.Errorf("filtered count = %v (status %d)", body["count"], w.Code)
	}

	// Kind filter uses the canonical label.
	w, body = doJSON(t, s, http.MethodGet, "/api/scriptsec/signatures?kind=new", "")
	if w.Code != http.StatusOK || body["count"] != float64(1) {
		t.Errorf("kind-filtered count = %v (status %d)", body["count"], w.Code)
	}

	w, _ = doJSON(t, s, http.MethodGet, "/api/scriptsec/signatures?filter=%5Bbad", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid glob should 400, got %d", w.Code)
	}
}

func TestEnforce(t *testing.T) {
	s := testServer(t)

	w, body := doJSON(t, s, http.MethodPost, "/api/scriptsec/enforce", `{"enabled":false}`)
	if w.Code != http.StatusOK || body["enforcing"] != false {
		t.Fatalf("disable: %d %v", w.Code, body)
	}
	if s.interceptor.IsEnforcing() {
		t.Errorf("interceptor should be in monitor mode")
	}

	w, body = doJSON(t, s, http.MethodPost, "/api/scriptsec/enforce", `{"enabled":true}`)
	if w.Code != http.StatusOK || body["enforcing"] != true {
		t.Fatalf("enable: %d %v", w.Code, body)
	}

	w, _ = doJSON(t, s, http.MethodPost, "/api/scriptsec/enforce", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing enabled should 400, got %d", w.Code)
	}
}

func TestStatus(t *testing.T) {
	s := testServer(t, "new std.List")
	w, body := doJSON(t, s, http.MethodGet, "/api/scriptsec/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body["enforcing"] != true || body["entries"] != float64(1) || body["telemetry"] != false {
		t.Errorf("body = %v", body)
	}
}

func TestStats(t *testing.T) {
	s := testServer(t,
		"method std.String substring int",
		"method std.List get int",
		"new std.List",
	)
	w, body := doJSON(t, s, http.MethodGet, "/api/scriptsec/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body["entries"] != float64(3) {
		t.Errorf("entries = %v", body["entries"])
	}
	byKind, ok := body["entries_by_kind"].(map[string]any)
	if !ok || byKind["method"] != float64(2) || byKind["new"] != float64(1) {
		t.Errorf("entries_by_kind = %v", body["entries_by_kind"])
	}
	if _, present := body["top_denied"]; present {
		t.Errorf("top_denied should be absent without telemetry")
	}
}

func TestDenials_DisabledTelemetry(t *testing.T) {
	s := testServer(t)
	w, _ := doJSON(t, s, http.MethodGet, "/api/scriptsec/denials", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("denials without storage should 404, got %d", w.Code)
	}
	w, _ = doJSON(t, s, http.MethodGet, "/api/scriptsec/denials/top", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("top denials without storage should 404, got %d", w.Code)
	}
}

func TestReload(t *testing.T) {
	s := testServer(t, "new std.List")
	w, body := doJSON(t, s, http.MethodPost, "/api/scriptsec/reload", "")
	if w.Code != http.StatusOK {
		t.Fatalf("reload: %d %v", w.Code, body)
	}
	if body["entries"] != float64(1) {
		t.Errorf("entries = %v", body["entries"])
	}
}

func TestSecurityHeaders(t *testing.T) {
	s := testServer(t)
	w, _ := doJSON(t, s, http.MethodGet, "/health", "")
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("missing nosniff header")
	}
	if !strings.Contains(w.Header().Get("Cache-Control"), "no-store") {
		t.Errorf("missing no-store cache header")
	}
}

func TestBodySizeLimit(t *testing.T) {
	s := testServer(t)
	big := strings.Repeat("x", int(MaxBodySize)+1)
	req := httptest.NewRequest(http.MethodPost, "/api/scriptsec/check", strings.NewReader(big))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized body should 413, got %d", w.Code)
	}
}

package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stillwater-massage/practice/libs/auth"
	"github.com/stillwater-massage/practice/libs/httpx"
)

const testSecret = "test-secret"

func token(t *testing.T, sub, role string) string {
	t.Helper()
	tok, err := auth.SignHS256(auth.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}, testSecret)
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}
	return tok
}

// newGateway routes to an upstream that echoes the identity headers it saw.
func newGateway(t *testing.T) *http.ServeMux {
	t.Helper()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Seen-User", r.Header.Get(httpx.UserIDHeader))
		w.Header().Set("X-Seen-Role", r.Header.Get(httpx.RoleHeader))
		w.Header().Set("X-Seen-Path", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(upstream.Close)

	u, _ := url.Parse(upstream.URL)
	mux := http.NewServeMux()
	registerRoutes(mux, routeConfig{
		Upstream: u,
		Verifier: auth.NewVerifier(testSecret, nil),
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return mux
}

func TestRequireRole(t *testing.T) {
	h := requireRole(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), "owner", "admin")

	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	req.Header.Set(httpx.RoleHeader, "member")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rw.Code)
	}

	reqOK := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	reqOK.Header.Set(httpx.RoleHeader, "owner")
	rwOK := httptest.NewRecorder()
	h.ServeHTTP(rwOK, reqOK)
	if rwOK.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rwOK.Code)
	}
}

func TestAdminRoutesForwardIdentity(t *testing.T) {
	mux := newGateway(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/appointments", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "user-1", "owner"))
	req.Header.Set(httpx.UserIDHeader, "spoofed")
	rw := httptest.NewRecorder()
	mux.ServeHTTP(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rw.Code, rw.Body.String())
	}
	if rw.Header().Get("X-Seen-User") != "user-1" || rw.Header().Get("X-Seen-Role") != "owner" {
		t.Fatalf("identity not forwarded: user=%q role=%q", rw.Header().Get("X-Seen-User"), rw.Header().Get("X-Seen-Role"))
	}
	if rw.Header().Get("X-Seen-Path") != "/api/v1/admin/appointments" {
		t.Fatalf("unexpected upstream path %q", rw.Header().Get("X-Seen-Path"))
	}
}

func TestAdminRoutesRejectBadTokens(t *testing.T) {
	mux := newGateway(t)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer badtoken", http.StatusUnauthorized},
		{"wrong role", "Bearer " + token(t, "user-2", "customer"), http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/settings", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rw := httptest.NewRecorder()
			mux.ServeHTTP(rw, req)
			if rw.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rw.Code)
			}
		})
	}
}

func TestPublicRoutesAreAnonymous(t *testing.T) {
	mux := newGateway(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/catalog", nil)
	req.Header.Set(httpx.UserIDHeader, "spoofed")
	req.Header.Set(httpx.RoleHeader, "owner")
	rw := httptest.NewRecorder()
	mux.ServeHTTP(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	if rw.Header().Get("X-Seen-User") != "" || rw.Header().Get("X-Seen-Role") != "" {
		t.Fatal("client identity headers must not reach upstream")
	}
}

func TestUnreachableUpstreamIs503(t *testing.T) {
	u, _ := url.Parse("http://127.0.0.1:1")
	mux := http.NewServeMux()
	registerRoutes(mux, routeConfig{Upstream: u, Verifier: auth.NewVerifier(testSecret, nil), Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

	rw := httptest.NewRecorder()
	mux.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/api/v1/public/catalog", nil))
	if rw.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rw.Code)
	}
}

func TestParseUpstream(t *testing.T) {
	if _, err := parseUpstream("practice-service:8083"); err == nil {
		t.Fatal("expected error for URL without scheme")
	}
	if u, err := parseUpstream("http://practice-service:8083"); err != nil || u.Host != "practice-service:8083" {
		t.Fatalf("unexpected result %v %v", u, err)
	}
}

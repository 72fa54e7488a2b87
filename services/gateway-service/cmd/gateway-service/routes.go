package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/stillwater-massage/practice/libs/apperr"
	"github.com/stillwater-massage/practice/libs/auth"
	"github.com/stillwater-massage/practice/libs/httpx"
)

type routeConfig struct {
	Upstream  *url.URL
	Verifier  *auth.Verifier
	Transport http.RoundTripper
	Logger    *slog.Logger
}

var adminRoles = []string{"admin", "owner"}

func registerRoutes(mux *http.ServeMux, cfg routeConfig) {
	proxy := httputil.NewSingleHostReverseProxy(cfg.Upstream)
	if cfg.Transport != nil {
		proxy.Transport = cfg.Transport
	}
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		httpx.WriteError(w, r, cfg.Logger, apperr.Unavailable("practice service unreachable", err))
	}

	mux.Handle("/api/v1/public/", anonymous(proxy))
	mux.Handle("/api/v1/admin/", requireAuth(requireRole(proxy, adminRoles...), cfg.Verifier, cfg.Logger))
}

func parseUpstream(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("PRACTICE_URL must be an absolute URL (got %q)", raw)
	}
	return u, nil
}

func stripIdentity(r *http.Request) {
	r.Header.Del(httpx.UserIDHeader)
	r.Header.Del(httpx.RoleHeader)
}

// anonymous drops client-supplied identity headers so upstream never trusts them.
func anonymous(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stripIdentity(r)
		next.ServeHTTP(w, r)
	})
}

func requireAuth(next http.Handler, verifier *auth.Verifier, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stripIdentity(r)
		authHeader := r.Header.Get("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if !strings.HasPrefix(authHeader, "Bearer ") || token == "" {
			httpx.WriteError(w, r, logger, &apperr.Error{Kind: apperr.KindUnauthorized, Msg: "missing or invalid Authorization header"})
			return
		}
		claims, err := verifier.Verify(token)
		if err != nil {
			logger.Debug("token rejected", "request_id", httpx.RequestIDFromContext(r.Context()), "err", err)
			httpx.WriteError(w, r, logger, apperr.ErrUnauthorized)
			return
		}
		r.Header.Set(httpx.UserIDHeader, claims.Subject)
		r.Header.Set(httpx.RoleHeader, claims.Role)
		next.ServeHTTP(w, r)
	})
}

func requireRole(next http.Handler, roles ...string) http.Handler {
	allowed := map[string]struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := allowed[r.Header.Get(httpx.RoleHeader)]; !ok {
			httpx.WriteError(w, r, nil, apperr.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

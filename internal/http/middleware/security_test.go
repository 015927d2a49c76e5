package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func securityRouter(opt SecurityOptions, pre gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if pre != nil {
		r.Use(pre)
	}
	r.Use(SecurityHeaders(opt))
	r.GET("/*path", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestSecurityHeaders_Baseline(t *testing.T) {
	r := securityRouter(SecurityOptions{}, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil))

	h := w.Header()
	if h.Get("X-Content-Type-Options") != "nosniff" || h.Get("X-Frame-Options") != "DENY" || h.Get("Referrer-Policy") != "no-referrer" {
		t.Fatalf("baseline headers missing: %#v", h)
	}
	for _, k := range []string{"Permissions-Policy", "Cache-Control", "Strict-Transport-Security", "Access-Control-Expose-Headers"} {
		if h.Get(k) != "" {
			t.Fatalf("unexpected %s=%q", k, h.Get(k))
		}
	}
}

func TestSecurityHeaders_NoStoreByPrefix(t *testing.T) {
	r := securityRouter(SecurityOptions{NoStorePrefixes: []string{"/api/v1/admin", "/api/v1/auth", ""}}, nil)

	cases := map[string]bool{
		"/api/v1/admin/meetings":  true,
		"/api/v1/auth/login":      true,
		"/api/v1/posts":           false,
		"/api/v1/posts/slug/vize": false,
		"/health":                 false,
	}
	for path, want := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		got := w.Header().Get("Cache-Control") == "no-store" && w.Header().Get("Pragma") == "no-cache" && w.Header().Get("Expires") == "0"
		if got != want {
			t.Errorf("%s: no-store=%v, want %v (%#v)", path, got, want, w.Header())
		}
	}

	// NoStore applies everywhere.
	r = securityRouter(SecurityOptions{NoStore: true}, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("NoStore not applied")
	}
}

func TestSecurityHeaders_Policy(t *testing.T) {
	r := securityRouter(SecurityOptions{EnablePolicy: true}, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Header().Get("Permissions-Policy") == "" || w.Header().Get("X-Permitted-Cross-Domain-Policies") != "none" {
		t.Fatalf("policy headers missing: %#v", w.Header())
	}
}

func TestSecurityHeaders_HSTS(t *testing.T) {
	cases := []struct {
		name   string
		opt    SecurityOptions
		tls    bool
		proto  string
		expect string
	}{
		{"disabled", SecurityOptions{}, true, "", ""},
		{"plain http", SecurityOptions{EnableHSTS: true}, false, "", ""},
		{"direct tls, default age", SecurityOptions{EnableHSTS: true}, true, "", "max-age=15552000; includeSubDomains; preload"},
		{"behind proxy", SecurityOptions{EnableHSTS: true, HSTSMaxAge: time.Hour}, false, "HTTPS", "max-age=3600; includeSubDomains; preload"},
	}
	for _, tc := range cases {
		r := securityRouter(tc.opt, nil)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.tls {
			req.TLS = &tls.ConnectionState{}
		}
		if tc.proto != "" {
			req.Header.Set("X-Forwarded-Proto", tc.proto)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if got := w.Header().Get("Strict-Transport-Security"); got != tc.expect {
			t.Errorf("%s: HSTS=%q, want %q", tc.name, got, tc.expect)
		}
	}
}

func TestSecurityHeaders_ExposesRequestID(t *testing.T) {
	cases := []struct {
		existing string
		want     string
	}{
		{"", "X-Request-ID"},
		{"ETag", "ETag, X-Request-ID"},
		{"ETag, X-Request-ID", "ETag, X-Request-ID"},
	}
	for _, tc := range cases {
		pre := func(c *gin.Context) {
			c.Header("X-Request-ID", "rid-1")
			if tc.existing != "" {
				c.Header("Access-Control-Expose-Headers", tc.existing)
			}
			c.Next()
		}
		r := securityRouter(SecurityOptions{}, pre)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if got := w.Header().Get("Access-Control-Expose-Headers"); got != tc.want {
			t.Errorf("existing %q: got %q, want %q", tc.existing, got, tc.want)
		}
	}
}

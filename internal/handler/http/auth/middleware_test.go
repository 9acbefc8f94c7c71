package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

const middlewareTestSecret = "test-secret-key-at-least-32-characters-long-for-testing"

func testSuccessHandler(t *testing.T) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("success")); err != nil {
			t.Errorf("write response: %v", err)
		}
	}
}

// testSignedToken builds an HS256 token with the given subject and role.
func testSignedToken(t *testing.T, sub, role string, ttl time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  time.Now().Add(ttl).Unix(),
	})
	signed, err := token.SignedString([]byte(middlewareTestSecret))
	if err != nil {
		t.Fatalf("sign test token: %v", err)
	}
	return signed
}

/* ───────── 1. 公開面とゲート ───────── */

func TestAuthz_PublicEndpoints(t *testing.T) {
	t.Setenv("JWT_SECRET", middlewareTestSecret)
	middleware := Authz(testSuccessHandler(t))

	// 既定構成では読み取り面全体とプローブがトークンなしで通る
	publicEndpoints := []struct {
		name   string
		method string
		path   string
	}{
		{"blog home", "GET", "/"},
		{"archive", "GET", "/archive"},
		{"index alias", "GET", "/index"},
		{"atom feed", "GET", "/feed"},
		{"entry page", "GET", "/entry/hello-world"},
		{"about page", "GET", "/about"},
		{"health check", "GET", "/health"},
		{"readiness probe", "GET", "/ready"},
		{"liveness probe", "GET", "/live"},
		{"metrics endpoint", "GET", "/metrics"},
		{"swagger ui", "GET", "/swagger/"},
		{"swagger doc", "GET", "/swagger/index.html"},
		{"auth token", "POST", "/auth/token"},
	}

	for _, tt := range publicEndpoints {
		t.Run(tt.name, func(t *testing.T) {
			rec := authzRequest(middleware, tt.method, tt.path, "")
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "success", rec.Body.String())
		})
	}
}

func TestAuthz_ProtectedEndpoints_WithoutToken(t *testing.T) {
	t.Setenv("JWT_SECRET", middlewareTestSecret)
	middleware := Authz(testSuccessHandler(t))

	for _, path := range []string{"/compose", "/compose?id=7"} {
		for _, method := range []string{"GET", "POST"} {
			rec := authzRequest(middleware, method, path, "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", method, path)
		}
	}
}

func TestAuthz_ProtectedEndpoints_WithInvalidToken(t *testing.T) {
	t.Setenv("JWT_SECRET", middlewareTestSecret)
	middleware := Authz(testSuccessHandler(t))

	invalidHeaders := []struct {
		name   string
		header string
	}{
		{"missing bearer prefix", "invalid-token"},
		{"bearer without token", "Bearer "},
		{"malformed token", "Bearer not.a.valid.token"},
		{"empty bearer", "Bearer"},
	}

	for _, tt := range invalidHeaders {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/compose", nil)
			req.Header.Set("Authorization", tt.header)
			rec := httptest.NewRecorder()
			middleware.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestAuthz_ProtectedEndpoints_WithExpiredToken(t *testing.T) {
	t.Setenv("JWT_SECRET", middlewareTestSecret)
	middleware := Authz(testSuccessHandler(t))

	// 1 時間前に失効したトークン
	token := testSignedToken(t, "admin", "admin", -time.Hour)
	rec := authzRequest(middleware, "GET", "/compose", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

/* ───────── 2. ロールによる拒否と許可 ───────── */

func TestAuthz_InsufficientRole(t *testing.T) {
	t.Setenv("JWT_SECRET", middlewareTestSecret)
	middleware := Authz(testSuccessHandler(t))

	tests := []struct {
		name   string
		role   string
		method string
	}{
		{"unknown role on compose form", "user", "GET"},
		{"unknown role on publish", "user", "POST"},
		{"viewer cannot open compose form", "viewer", "GET"},
		{"viewer cannot publish", "viewer", "POST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := testSignedToken(t, "someone", tt.role, time.Hour)
			rec := authzRequest(middleware, tt.method, "/compose", token)
			assert.Equal(t, http.StatusForbidden, rec.Code)
		})
	}
}

func TestAuthz_ValidTokenReachesHandler(t *testing.T) {
	t.Setenv("JWT_SECRET", middlewareTestSecret)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// sub クレームがそのままコンテキストのユーザーになる
		assert.Equal(t, "admin", r.Context().Value(ctxUser))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("success"))
	})
	middleware := Authz(handler)
	token := testSignedToken(t, "admin", "admin", time.Hour)

	for _, path := range []string{"/compose", "/compose?id=7"} {
		for _, method := range []string{"GET", "POST"} {
			rec := authzRequest(middleware, method, path, token)
			assert.Equal(t, http.StatusOK, rec.Code, "%s %s", method, path)
			assert.Equal(t, "success", rec.Body.String())
		}
	}
}

// GET /compose が POST と同じようにゲートされることを固定する。編集時の
// フォームは既存エントリのタイトルと本文をプリフィルするため、認証なしの
// GET を通すと下書きが読者に漏れる。
func TestAuthz_ComposeForm_RequiresAuthentication(t *testing.T) {
	t.Setenv("JWT_SECRET", middlewareTestSecret)
	middleware := Authz(testSuccessHandler(t))
	token := testSignedToken(t, "admin", "admin", time.Hour)

	tests := []struct {
		name     string
		path     string
		token    string
		wantCode int
	}{
		{"compose without auth", "/compose", "", http.StatusUnauthorized},
		{"compose prefill without auth", "/compose?id=7", "", http.StatusUnauthorized},
		{"compose with auth", "/compose", token, http.StatusOK},
		{"compose prefill with auth", "/compose?id=7", token, http.StatusOK},
		// 読み取り面は認証不要のまま
		{"home without auth", "/", "", http.StatusOK},
		{"entry without auth", "/entry/hello-world", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := authzRequest(middleware, "GET", tt.path, tt.token)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

/* ───────── 3. 公開判定 ───────── */

func TestIsPublicEndpoint(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		public bool
	}{
		{"blog home", "/", true},
		{"archive", "/archive", true},
		{"index alias", "/index", true},
		{"atom feed", "/feed", true},
		{"entry page", "/entry/hello-world", true},
		{"about page", "/about", true},
		{"health check", "/health", true},
		{"readiness probe", "/ready", true},
		{"liveness probe", "/live", true},
		{"metrics", "/metrics", true},
		{"swagger root", "/swagger/", true},
		{"swagger resource", "/swagger/swagger-ui.css", true},
		{"auth token", "/auth/token", true},

		{"compose form", "/compose", false},
		{"compose prefill", "/compose?id=7", false},
		{"unknown path", "/unknown", false},
		// "/" は前方一致ではなく完全一致
		{"home is not a prefix", "/anything", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.public, IsPublicEndpoint(tt.path))
		})
	}
}

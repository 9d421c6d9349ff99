package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func protected(j *JWTAuth) http.Handler {
	return j.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(GetAdminSubject(r.Context())))
	}))
}

func TestJWTAuth_AcceptsAdminToken(t *testing.T) {
	j := NewJWTAuth("secret", time.Hour)
	token, err := j.GenerateAdminToken("owner")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/v1/contacts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	protected(j).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if rr.Body.String() != "owner" {
		t.Fatalf("expected subject in context, got %q", rr.Body.String())
	}
}

func TestJWTAuth_Rejections(t *testing.T) {
	j := NewJWTAuth("secret", time.Hour)

	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "owner", "role": RoleAdmin, "exp": time.Now().Add(-time.Minute).Unix(),
	}).SignedString([]byte("secret"))
	notAdmin, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "someone", "role": "viewer", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	otherKey, _ := NewJWTAuth("other", time.Hour).GenerateAdminToken("owner")

	tests := []struct {
		name   string
		header string
		status int
		msg    string
	}{
		{"missing", "", http.StatusUnauthorized, "Missing authorization header"},
		{"not bearer", "Basic abc", http.StatusUnauthorized, "Invalid authorization format"},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized, "Invalid token"},
		{"wrong key", "Bearer " + otherKey, http.StatusUnauthorized, "Invalid token"},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, "Token has expired"},
		{"not admin", "Bearer " + notAdmin, http.StatusForbidden, "Admin access required"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/contacts", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			protected(j).ServeHTTP(rr, req)

			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rr.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("expected JSON body: %v", err)
			}
			if body["error"] != tc.msg {
				t.Fatalf("expected error %q, got %q", tc.msg, body["error"])
			}
		})
	}
}

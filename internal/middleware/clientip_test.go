package middleware

import (
	"net/http/httptest"
	"testing"
)

func TestClientIdentity(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"forwarded single", map[string]string{"X-Forwarded-For": "1.2.3.4"}, "1.2.3.4"},
		{"forwarded list", map[string]string{"X-Forwarded-For": "1.2.3.4, 10.0.0.1, 10.0.0.2"}, "1.2.3.4"},
		{"forwarded wins over real ip", map[string]string{"X-Forwarded-For": "1.2.3.4", "X-Real-IP": "5.6.7.8"}, "1.2.3.4"},
		{"real ip", map[string]string{"X-Real-IP": " 5.6.7.8 "}, "5.6.7.8"},
		{"empty first entry falls through", map[string]string{"X-Forwarded-For": " , 10.0.0.1", "X-Real-IP": "5.6.7.8"}, "5.6.7.8"},
		{"none", nil, UnknownIdentity},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/v1/chat", nil)
			req.RemoteAddr = "9.9.9.9:1234"
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			if got := ClientIdentity(req); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

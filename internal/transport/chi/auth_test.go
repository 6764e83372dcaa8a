package chi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func authStatus(keys []string, path, header string) (int, string) {
	handler := BearerAuthMiddleware(keys)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, path, http.NoBody)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr.Code, rr.Body.String()
}

func TestBearerAuth(t *testing.T) {
	tests := []struct {
		name   string
		keys   []string
		path   string
		header string
		want   int
	}{
		{"no keys disables auth", nil, "/api/v1/search", "", http.StatusNoContent},
		{"blank keys disable auth", []string{"", ""}, "/api/v1/search", "", http.StatusNoContent},
		{"missing header", []string{"secret"}, "/api/v1/search", "", http.StatusUnauthorized},
		{"basic scheme", []string{"secret"}, "/api/v1/search", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"lowercase scheme", []string{"secret"}, "/api/v1/search", "bearer secret", http.StatusUnauthorized},
		{"wrong token", []string{"secret"}, "/api/v1/search", "Bearer wrong-key", http.StatusUnauthorized},
		{"token prefix only", []string{"secret"}, "/api/v1/search", "Bearer secr", http.StatusUnauthorized},
		{"valid token", []string{"secret"}, "/api/v1/search", "Bearer secret", http.StatusNoContent},
		{"second key", []string{"key1", "key2"}, "/api/v1/stats", "Bearer key2", http.StatusNoContent},
		{"documents route", []string{"secret"}, "/api/v1/collections/articles/documents", "", http.StatusUnauthorized},
		{"health exempt", []string{"secret"}, "/health", "", http.StatusNoContent},
		{"metrics exempt", []string{"secret"}, "/metrics", "", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := authStatus(tt.keys, tt.path, tt.header)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBearerAuth_ErrorBody(t *testing.T) {
	status, body := authStatus([]string{"secret"}, "/api/v1/search", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	resp := decode[ErrorResponse](t, body)
	assert.Equal(t, codeUnauthorized, resp.Code)
	assert.Equal(t, "missing authorization header", resp.Message)
}

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	enabled := Middleware(Config{Enabled: true, Token: "s3cret"})(ok)
	disabled := Middleware(Config{})(ok)
	noToken := Middleware(Config{Enabled: true})(ok)

	tests := []struct {
		name    string
		handler http.Handler
		path    string
		header  string
		want    int
	}{
		{"disabled passes", disabled, "/api/v1/objects", "", http.StatusNoContent},
		{"probe is public", enabled, "/healthz", "", http.StatusNoContent},
		{"metrics is public", enabled, "/metrics", "", http.StatusNoContent},
		{"missing header", enabled, "/api/v1/objects", "", http.StatusUnauthorized},
		{"wrong token", enabled, "/api/v1/objects", "Bearer nope", http.StatusUnauthorized},
		{"wrong scheme", enabled, "/api/v1/objects", "Basic s3cret", http.StatusUnauthorized},
		{"bare token", enabled, "/api/v1/objects", "s3cret", http.StatusUnauthorized},
		{"valid token", enabled, "/api/v1/scene", "Bearer s3cret", http.StatusNoContent},
		{"scheme is case-insensitive", enabled, "/api/v1/scene", "bearer s3cret", http.StatusNoContent},
		{"empty configured token rejects", noToken, "/api/v1/scene", "Bearer ", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			tt.handler.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusUnauthorized {
				assert.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String())
			}
		})
	}
}

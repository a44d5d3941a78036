package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestDefaultAuthConfig(t *testing.T) {
	cfg := DefaultAuthConfig("/api/v1")
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "X-API-Key", cfg.HeaderName)
	assert.Contains(t, cfg.PublicPaths, "/api/v1/health")
	assert.Contains(t, cfg.PublicPaths, "/api/v1/openapi.yaml")
}

func TestAuth(t *testing.T) {
	logger := zerolog.Nop()
	cfg := DefaultAuthConfig("/api/v1")
	cfg.Enabled = true
	cfg.APIKey = "k3y"

	tests := []struct {
		name       string
		path       string
		headers    map[string]string
		wantStatus int
	}{
		{"missing key", "/api/v1/endpoints", nil, http.StatusUnauthorized},
		{"wrong key", "/api/v1/endpoints", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"header key", "/api/v1/endpoints", map[string]string{"X-API-Key": "k3y"}, http.StatusOK},
		{"bearer key", "/api/v1/endpoints", map[string]string{"Authorization": "Bearer k3y"}, http.StatusOK},
		{"raw authorization", "/api/v1/endpoints", map[string]string{"Authorization": "k3y"}, http.StatusOK},
		{"public health", "/api/v1/health", nil, http.StatusOK},
		{"public root", "/", nil, http.StatusOK},
		{"prefix is not public", "/api/v1/health/extra", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			Auth(cfg, &logger)(okHandler()).ServeHTTP(w, req)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Contains(t, w.Body.String(), `"UNAUTHORIZED"`)
			}
		})
	}
}

func TestAuth_Disabled(t *testing.T) {
	logger := zerolog.Nop()
	w := httptest.NewRecorder()
	Auth(DefaultAuthConfig("/api/v1"), &logger)(okHandler()).ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/endpoints", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_EmptyConfiguredKeyRejectsAll(t *testing.T) {
	logger := zerolog.Nop()
	cfg := DefaultAuthConfig("/api/v1")
	cfg.Enabled = true

	req := httptest.NewRequest("GET", "/api/v1/endpoints", nil)
	req.Header.Set("X-API-Key", "")
	w := httptest.NewRecorder()
	Auth(cfg, &logger)(okHandler()).ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_ConcurrentRequests(t *testing.T) {
	logger := zerolog.Nop()
	cfg := DefaultAuthConfig("/api/v1")
	cfg.Enabled = true
	cfg.APIKey = "k3y"
	h := Auth(cfg, &logger)(okHandler())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := httptest.NewRequest("GET", "/api/v1/endpoints", nil)
			want := http.StatusUnauthorized
			if i%2 == 0 {
				req.Header.Set("X-API-Key", "k3y")
				want = http.StatusOK
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, want, w.Code)
		}(i)
	}
	wg.Wait()
}

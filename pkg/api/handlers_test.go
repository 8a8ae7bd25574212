package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/shortlinks/pkg/shortener"
)

type testEnv struct {
	server  *Server
	service *shortener.Service
	reg     *prometheus.Registry
	handler http.Handler
}

func setupTestServer(t *testing.T, cfg ServerConfig, svcCfg shortener.Config) *testEnv {
	t.Helper()

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	svc, err := shortener.New(svcCfg, shortener.WithRecorder(metrics))
	require.NoError(t, err)

	server := NewServer(svc, cfg, metrics, nil)
	return &testEnv{
		server:  server,
		service: svc,
		reg:     reg,
		handler: server.Routes(reg),
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, v interface{}) APIResponse {
	t.Helper()

	var raw struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&raw))
	if v != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, v))
	}
	return APIResponse{Success: raw.Success, Error: raw.Error}
}

func TestServer_handleHealth(t *testing.T) {
	env := setupTestServer(t, ServerConfig{}, shortener.Config{})

	w := env.do(t, "GET", "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var data map[string]string
	resp := decodeData(t, w, &data)
	assert.True(t, resp.Success)
	assert.Equal(t, "healthy", data["status"])
}

func TestServer_handleShorten(t *testing.T) {
	env := setupTestServer(t, ServerConfig{}, shortener.Config{})

	w := env.do(t, "POST", "/api/v1/shorten", `{"long_url":"http://example.com"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var out ShortenResponse
	resp := decodeData(t, w, &out)
	assert.True(t, resp.Success)
	assert.Equal(t, "AAAAAAAA", out.ShortCode)
	assert.Equal(t, "http://example.com/AAAAAAAA", out.ShortURL)

	t.Run("idempotent", func(t *testing.T) {
		w := env.do(t, "POST", "/api/v1/shorten", `{"long_url":"http://example.com"}`, nil)
		var again ShortenResponse
		decodeData(t, w, &again)
		assert.Equal(t, out.ShortCode, again.ShortCode)
	})

	t.Run("error mapping", func(t *testing.T) {
		tests := []struct {
			name           string
			body           string
			expectedStatus int
		}{
			{name: "invalid json", body: `{"long_url":`, expectedStatus: http.StatusBadRequest},
			{name: "unknown field", body: `{"url":"http://a.com"}`, expectedStatus: http.StatusBadRequest},
			{name: "blank url", body: `{"long_url":"  "}`, expectedStatus: http.StatusBadRequest},
			{name: "bad scheme", body: `{"long_url":"ftp://a.com"}`, expectedStatus: http.StatusBadRequest},
			{name: "too long", body: `{"long_url":"http://a.com/` + strings.Repeat("x", 2048) + `"}`, expectedStatus: http.StatusBadRequest},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				w := env.do(t, "POST", "/api/v1/shorten", tt.body, nil)
				assert.Equal(t, tt.expectedStatus, w.Code)
				resp := decodeData(t, w, nil)
				assert.False(t, resp.Success)
				assert.NotEmpty(t, resp.Error)
			})
		}
	})
}

func TestServer_handleShorten_CapacityExceeded(t *testing.T) {
	env := setupTestServer(t, ServerConfig{}, shortener.Config{IDLimit: 1})

	for _, u := range []string{"http://a.com", "http://b.com"} {
		w := env.do(t, "POST", "/api/v1/shorten", `{"long_url":"`+u+`"}`, nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := env.do(t, "POST", "/api/v1/shorten", `{"long_url":"http://c.com"}`, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	// known urls keep working once the space is exhausted
	w = env.do(t, "POST", "/api/v1/shorten", `{"long_url":"http://a.com"}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_BaseURL(t *testing.T) {
	env := setupTestServer(t, ServerConfig{BaseURL: "https://sho.rt/"}, shortener.Config{})

	w := env.do(t, "POST", "/api/v1/shorten", `{"long_url":"http://example.com"}`, nil)
	var out ShortenResponse
	decodeData(t, w, &out)
	assert.Equal(t, "https://sho.rt/AAAAAAAA", out.ShortURL)
}

func TestServer_handleResolve(t *testing.T) {
	env := setupTestServer(t, ServerConfig{}, shortener.Config{})
	code, err := env.service.Shorten("https://go.dev/doc")
	require.NoError(t, err)

	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedURL    string
	}{
		{name: "known code", body: `{"short_code":"` + code + `"}`, expectedStatus: http.StatusOK, expectedURL: "https://go.dev/doc"},
		{name: "unknown code", body: `{"short_code":"AAAAAAAZ"}`, expectedStatus: http.StatusNotFound},
		{name: "malformed code", body: `{"short_code":"abc"}`, expectedStatus: http.StatusNotFound},
		{name: "bad alphabet", body: `{"short_code":"AAAA+AAA"}`, expectedStatus: http.StatusNotFound},
		{name: "invalid json", body: `nope`, expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, "POST", "/api/v1/resolve", tt.body, nil)
			assert.Equal(t, tt.expectedStatus, w.Code)

			var out ResolveResponse
			decodeData(t, w, &out)
			assert.Equal(t, tt.expectedURL, out.LongURL)
		})
	}
}

func TestServer_handleRedirect(t *testing.T) {
	env := setupTestServer(t, ServerConfig{APIKey: "secret"}, shortener.Config{})
	code, err := env.service.Shorten("https://example.org/a?b=c")
	require.NoError(t, err)

	w := env.do(t, "GET", "/"+code, "", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://example.org/a?b=c", w.Header().Get("Location"))

	w = env.do(t, "GET", "/ZZZZZZZZ", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, "GET", "/short", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_handleStats(t *testing.T) {
	env := setupTestServer(t, ServerConfig{}, shortener.Config{SegmentShift: 4})
	for _, u := range []string{"http://a.com", "http://b.com", "http://a.com"} {
		_, err := env.service.Shorten(u)
		require.NoError(t, err)
	}

	w := env.do(t, "GET", "/api/v1/stats", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats shortener.Stats
	decodeData(t, w, &stats)
	assert.Equal(t, 2, stats.Links)
	assert.Equal(t, uint64(2), stats.Allocated)
	assert.Equal(t, 16, stats.Forward.SegmentSize)
	assert.Equal(t, uint64(1), stats.Forward.HighWatermark)
}

func TestServer_APIKey(t *testing.T) {
	env := setupTestServer(t, ServerConfig{APIKey: "secret"}, shortener.Config{})

	w := env.do(t, "POST", "/api/v1/shorten", `{"long_url":"http://example.com"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, "POST", "/api/v1/shorten", `{"long_url":"http://example.com"}`, map[string]string{"X-API-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, "POST", "/api/v1/shorten", `{"long_url":"http://example.com"}`, map[string]string{"X-API-Key": "secret"})
	assert.Equal(t, http.StatusOK, w.Code)

	// metrics stay open for scraping
	w = env.do(t, "GET", "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_ConcurrentShorten(t *testing.T) {
	env := setupTestServer(t, ServerConfig{}, shortener.Config{})

	const workers = 32
	codes := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body, _ := json.Marshal(ShortenRequest{LongURL: "http://same.example"})
			req := httptest.NewRequest("POST", "/api/v1/shorten", bytes.NewReader(body))
			w := httptest.NewRecorder()
			env.handler.ServeHTTP(w, req)

			var resp struct {
				Data ShortenResponse `json:"data"`
			}
			if err := json.NewDecoder(w.Body).Decode(&resp); err == nil {
				codes[i] = resp.Data.ShortCode
			}
		}(i)
	}
	wg.Wait()

	for _, c := range codes {
		assert.Equal(t, codes[0], c)
	}
	assert.Len(t, codes[0], 8)

	url, ok := env.service.Resolve(codes[0])
	assert.True(t, ok)
	assert.Equal(t, "http://same.example", url)
}

package proxy

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProxy_StripsPrefixAndJoinsTargetPath(t *testing.T) {
	var gotPath, gotQuery string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[]}`))
	}))
	defer backend.Close()

	p, err := NewProxy(backend.URL+"/api", "/api", zerolog.Nop())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/upload/recent?limit=5", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/api/upload/recent", gotPath)
	assert.Equal(t, "limit=5", gotQuery)
	body, _ := io.ReadAll(rec.Body)
	assert.JSONEq(t, `{"data":[]}`, string(body))
}

func TestProxy_BackendDownIs502(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := backend.URL
	backend.Close()

	p, err := NewProxy(url, "/api", zerolog.Nop())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/doc-1", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "BACKEND_UNAVAILABLE", body["error"])
}

func TestNewProxy_RejectsRelativeTarget(t *testing.T) {
	_, err := NewProxy("/api", "/api", zerolog.Nop())
	assert.Error(t, err)
}

package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	cachelab "github.com/abdellahhioun/Cachelab"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := cachelab.Open(filepath.Join(t.TempDir(), "store.txt"))
	require.NoError(t, err)
	srv := httptest.NewServer(newHandler(store))
	t.Cleanup(func() {
		srv.Close()
		_ = store.Close()
	})
	return srv
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var decoded map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp, decoded
}

func TestKV_putGetDelete(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodPut, srv.URL+"/kv/name", `{"value":"John"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "John", body["value"])

	// second PUT is an overwrite, not a create
	resp, _ = doJSON(t, http.MethodPut, srv.URL+"/kv/name", `{"value":"Jane"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/kv/name", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Jane", body["value"])

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/kv/name", "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/kv/name", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestKV_updateMissingIs404(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/kv/ghost", `{"value":"x"}`)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/kv/ghost", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestKV_badRequest(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPut, srv.URL+"/kv/name", `not json`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodPatch, srv.URL+"/kv/name", nil)
	raw, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = raw.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, raw.StatusCode)
}

func TestIntrospectionEndpoints(t *testing.T) {
	srv := newTestServer(t)

	for _, kv := range [][2]string{
		{"user1_name", "A"}, {"user1_phone", "B"}, {"other", "C"},
	} {
		resp, _ := doJSON(t, http.MethodPut, srv.URL+"/kv/"+kv[0], `{"value":"`+kv[1]+`"}`)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/users/user1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, map[string]any{"name": "A", "phone": "B"}, body)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/buckets", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, float64(16), body["totalBuckets"])
	require.Equal(t, float64(3), body["totalItems"])

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/loadfactor", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 0.75, body["threshold"])

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/keys?prefix=user1_", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.ElementsMatch(t, []any{"user1_name", "user1_phone"}, body["keys"])

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/hash/name", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, float64(11), body["bucket"])

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/stats", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, float64(3), body["entries"])
}

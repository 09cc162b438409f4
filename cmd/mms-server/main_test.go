package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/njchilds90/mms/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolEndpoint(t *testing.T) {
	srv := httptest.NewServer(newMux())
	defer srv.Close()

	body := `{"tool":"delp2","params":{"solution":"sin(x*pi)","geometry":"slab"}}`
	res, err := http.Post(srv.URL+"/tool", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var resp mcp.ToolResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&resp))
	assert.Empty(t, resp.Error)
	assert.Equal(t, "-pi*pi*sin(pi*x)", resp.String)
}

func TestToolEndpointRejects(t *testing.T) {
	srv := httptest.NewServer(newMux())
	defer srv.Close()

	res, err := http.Get(srv.URL + "/tool")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)

	for _, body := range []string{
		`{"tool":"parse","bogus":1}`,
		`{"tool":"parse","params":{}} {}`,
		`not json`,
	} {
		res, err := http.Post(srv.URL+"/tool", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode, body)
	}
}

func TestSchemaAndHealth(t *testing.T) {
	srv := httptest.NewServer(newMux())
	defer srv.Close()

	res, err := http.Get(srv.URL + "/schema")
	require.NoError(t, err)
	var spec map[string]interface{}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&spec))
	res.Body.Close()
	assert.Contains(t, spec, "tools")

	res, err = http.Get(srv.URL + "/health")
	require.NoError(t, err)
	var health map[string]string
	require.NoError(t, json.NewDecoder(res.Body).Decode(&health))
	res.Body.Close()
	assert.Equal(t, "ok", health["status"])
}

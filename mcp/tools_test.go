package mcp_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/njchilds90/mms/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func call(t *testing.T, tool string, params map[string]interface{}) mcp.ToolResponse {
	t.Helper()
	// Round-trip through JSON so params look like a decoded request.
	raw, err := json.Marshal(mcp.ToolRequest{Tool: tool, Params: params})
	require.NoError(t, err)
	var req mcp.ToolRequest
	require.NoError(t, json.Unmarshal(raw, &req))
	return mcp.HandleToolCall(req)
}

func TestParseAndSerialize(t *testing.T) {
	resp := call(t, "parse", map[string]interface{}{"expr": "sin(x*pi) + 0.5"})
	require.Empty(t, resp.Error)
	assert.Equal(t, "sin(pi*x) + 0.5", resp.String)

	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	var tree map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &tree))

	back := call(t, "serialize", map[string]interface{}{"expr": tree})
	require.Empty(t, back.Error)
	assert.Equal(t, resp.String, back.String)
}

func TestDiff(t *testing.T) {
	resp := call(t, "diff", map[string]interface{}{"expr": "x**3", "var": "x"})
	require.Empty(t, resp.Error)
	assert.Equal(t, "3*x**2", resp.String)
}

func TestSub(t *testing.T) {
	resp := call(t, "sub", map[string]interface{}{"expr": "x**2 + y", "var": "x", "value": "3"})
	require.Empty(t, resp.Error)
	assert.Equal(t, "y + 9", resp.String)

	resp = call(t, "sub", map[string]interface{}{"expr": "y*z", "var": "z", "value": "pi"})
	require.Empty(t, resp.Error)
	assert.Equal(t, "pi*y", resp.String)
}

func TestDelp2Tool(t *testing.T) {
	resp := call(t, "delp2", map[string]interface{}{"solution": "sin(x*pi)"})
	require.Empty(t, resp.Error)
	assert.Equal(t, "-pi*pi*sin(pi*x)", resp.String)

	resp = call(t, "delp2", map[string]interface{}{
		"solution": "sin(x*pi)",
		"metric":   map[string]interface{}{"g11": "2 + 0.01*x"},
	})
	require.Empty(t, resp.Error)
	assert.Equal(t, "-(0.01*x + 2)*pi*pi*sin(pi*x) + 0.01*cos(pi*x)*pi", resp.String)

	resp = call(t, "delp2", map[string]interface{}{
		"solution":       "sin(x*pi)",
		"metric":         map[string]interface{}{"g11": "2 + 0.01*x"},
		"no_first_order": true,
	})
	require.Empty(t, resp.Error)
	assert.Equal(t, "-(0.01*x + 2)*pi*pi*sin(pi*x)", resp.String)
}

func TestToolErrors(t *testing.T) {
	for _, tc := range []struct {
		tool   string
		params map[string]interface{}
		want   string
	}{
		{"delp2", map[string]interface{}{"solution": "sin(psi)"}, "non-scalar"},
		{"delp2", map[string]interface{}{"solution": "x", "metric": map[string]interface{}{"g21": "1"}}, "unknown component"},
		{"delp2", map[string]interface{}{"solution": "x", "geometry": "torus"}, "unknown preset"},
		{"parse", map[string]interface{}{"expr": "sin(("}, "parse error"},
		{"diff", map[string]interface{}{"expr": "x"}, "missing param: var"},
		{"sub", map[string]interface{}{"expr": "x", "var": "x"}, "missing param: value"},
		{"nope", nil, "unknown tool"},
	} {
		resp := call(t, tc.tool, tc.params)
		assert.Contains(t, resp.Error, tc.want, tc.tool)
	}
}

func TestListingTools(t *testing.T) {
	resp := call(t, "geometries", nil)
	assert.Equal(t, "shaped-tokamak, simple-tokamak, slab", resp.String)

	resp = call(t, "scenarios", nil)
	assert.Contains(t, resp.String, "laplace3d")

	resp = call(t, "metric", map[string]interface{}{"geometry": "slab"})
	require.Empty(t, resp.Error)
	assert.True(t, strings.HasPrefix(resp.String, "[mesh]\n"))
}

func TestScenarioTool(t *testing.T) {
	resp := call(t, "scenario", map[string]interface{}{"name": "sin-x", "verify": true})
	require.Empty(t, resp.Error)
	assert.True(t, strings.HasPrefix(resp.String, "solution = sin(pi*x)\ninput = -pi*pi*sin(pi*x)\n[mesh]\n"))
}

func TestEvalf(t *testing.T) {
	resp := call(t, "evalf", map[string]interface{}{"expr": "x*y + z", "at": map[string]interface{}{"x": 2, "y": 3, "z": 0.5}})
	require.Empty(t, resp.Error)
	assert.InDelta(t, 6.5, resp.Result.(float64), 1e-15)
}

func TestToolSpec(t *testing.T) {
	var spec struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal([]byte(mcp.ToolSpec()), &spec))
	names := map[string]bool{}
	for _, tool := range spec.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"parse", "serialize", "delp2", "scenario", "geometries"} {
		assert.True(t, names[want], want)
	}
}

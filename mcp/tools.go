// Package mcp exposes the generator as JSON tool calls for agent
// frameworks. Expressions may be passed either as text in the canonical
// grammar or as the JSON tree produced by mms.ToJSON.
package mcp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/njchilds90/mms"
	"github.com/njchilds90/mms/driver"
	"github.com/njchilds90/mms/geometry"
	"github.com/njchilds90/mms/metric"
	"github.com/njchilds90/mms/operator"
)

type ToolRequest struct {
	Tool   string                 `json:"tool"`
	Params map[string]interface{} `json:"params"`
}

type ToolResponse struct {
	Result interface{} `json:"result,omitempty"`
	LaTeX  string      `json:"latex,omitempty"`
	String string      `json:"string,omitempty"`
	Error  string      `json:"error,omitempty"`
}

type params map[string]interface{}

func (p params) expr(key string) (mms.Expr, error) {
	v, ok := p[key]
	if !ok {
		return nil, fmt.Errorf("missing param: %s", key)
	}
	switch val := v.(type) {
	case string:
		return mms.Parse(val)
	case map[string]interface{}:
		return mms.FromJSON(val)
	}
	return nil, fmt.Errorf("param %s must be a string or expression object", key)
}

func (p params) str(key, def string) (string, error) {
	v, ok := p[key]
	if !ok {
		if def != "" {
			return def, nil
		}
		return "", fmt.Errorf("missing param: %s", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("param %s must be a string", key)
	}
	return s, nil
}

func (p params) boolean(key string) (bool, error) {
	v, ok := p[key]
	if !ok {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("param %s must be a boolean", key)
	}
	return b, nil
}

func (p params) list(key string) ([]string, error) {
	v, ok := p[key]
	if !ok {
		return nil, fmt.Errorf("missing param: %s", key)
	}
	raw, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("param %s must be array", key)
	}
	out := make([]string, len(raw))
	for i, r := range raw {
		s, ok := r.(string)
		if !ok {
			return nil, fmt.Errorf("param %s[%d] must be string", key, i)
		}
		out[i] = s
	}
	return out, nil
}

// overrides reads an optional {component: expr} object. Values may be
// text or expression objects; both are normalized to canonical text.
func (p params) overrides(key string) (map[string]string, error) {
	v, ok := p[key]
	if !ok {
		return nil, nil
	}
	raw, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("param %s must be an object", key)
	}
	out := make(map[string]string, len(raw))
	for k := range raw {
		e, err := params(raw).expr(k)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", key, k, err)
		}
		s, err := mms.Serialize(e)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", key, k, err)
		}
		out[k] = s
	}
	return out, nil
}

func respond(e mms.Expr) ToolResponse {
	text, err := mms.Serialize(e)
	if err != nil {
		return ToolResponse{Error: err.Error()}
	}
	tree, err := mms.ToJSON(e)
	if err != nil {
		return ToolResponse{Error: err.Error()}
	}
	return ToolResponse{Result: json.RawMessage(tree), LaTeX: mms.LaTeX(e), String: text}
}

func fail(err error) ToolResponse { return ToolResponse{Error: err.Error()} }

// HandleToolCall dispatches one request. Errors are reported in the
// response, never returned.
func HandleToolCall(req ToolRequest) ToolResponse {
	p := params(req.Params)
	switch req.Tool {
	case "parse", "serialize", "simplify":
		e, err := p.expr("expr")
		if err != nil {
			return fail(err)
		}
		return respond(e)

	case "expand":
		e, err := p.expr("expr")
		if err != nil {
			return fail(err)
		}
		return respond(mms.Expand(e))

	case "diff":
		e, err := p.expr("expr")
		if err != nil {
			return fail(err)
		}
		v, err := p.str("var", "")
		if err != nil {
			return fail(err)
		}
		return respond(mms.Diff(e, v))

	case "sub":
		e, err := p.expr("expr")
		if err != nil {
			return fail(err)
		}
		v, err := p.str("var", "")
		if err != nil {
			return fail(err)
		}
		val, err := p.expr("value")
		if err != nil {
			return fail(err)
		}
		return respond(mms.Sub(e, v, val))

	case "laplacian":
		e, err := p.expr("expr")
		if err != nil {
			return fail(err)
		}
		return respond(mms.Laplacian(e, metric.Coordinates))

	case "evalf":
		e, err := p.expr("expr")
		if err != nil {
			return fail(err)
		}
		at, ok := req.Params["at"].(map[string]interface{})
		if !ok {
			return fail(fmt.Errorf("param at must be an object of numbers"))
		}
		vars := make(map[string]float64, len(at))
		for k, v := range at {
			f, ok := v.(float64)
			if !ok {
				return fail(fmt.Errorf("at.%s must be a number", k))
			}
			vars[k] = f
		}
		v, err := mms.Evalf(e, vars)
		if err != nil {
			return fail(err)
		}
		return ToolResponse{Result: v, String: fmt.Sprintf("%.17g", v)}

	case "delp2":
		f, err := p.expr("solution")
		if err != nil {
			return fail(err)
		}
		geoName, err := p.str("geometry", "slab")
		if err != nil {
			return fail(err)
		}
		geo, err := geometry.Lookup(geoName)
		if err != nil {
			return fail(err)
		}
		ov, err := p.overrides("metric")
		if err != nil {
			return fail(err)
		}
		g := geo.Metric()
		if err := driver.ApplyOverrides(g, ov); err != nil {
			return fail(err)
		}
		var opts []operator.Option
		if skip, err := p.boolean("no_first_order"); err != nil {
			return fail(err)
		} else if skip {
			opts = append(opts, operator.WithoutFirstOrderTerms())
		}
		if perp, err := p.boolean("perpendicular"); err != nil {
			return fail(err)
		} else if perp {
			opts = append(opts, operator.Perpendicular())
		}
		out, err := operator.Delp2(f, g, opts...)
		if err != nil {
			return fail(err)
		}
		return respond(out)

	case "metric":
		geoName, err := p.str("geometry", "slab")
		if err != nil {
			return fail(err)
		}
		geo, err := geometry.Lookup(geoName)
		if err != nil {
			return fail(err)
		}
		comps, err := geo.Metric().Serialized()
		if err != nil {
			return fail(err)
		}
		var buf bytes.Buffer
		if err := geo.PrintMesh(&buf); err != nil {
			return fail(err)
		}
		return ToolResponse{Result: comps, String: buf.String()}

	case "geometries":
		names := geometry.Names()
		return ToolResponse{Result: names, String: strings.Join(names, ", ")}

	case "scenarios":
		names := driver.ScenarioNames()
		return ToolResponse{Result: names, String: strings.Join(names, ", ")}

	case "scenario":
		name, err := p.str("name", "")
		if err != nil {
			return fail(err)
		}
		sc, err := driver.GetScenario(name)
		if err != nil {
			return fail(err)
		}
		if sc.Verify, err = p.boolean("verify"); err != nil {
			return fail(err)
		}
		r, err := driver.Generate(sc)
		if err != nil {
			return fail(err)
		}
		var buf bytes.Buffer
		if err := r.WriteText(&buf); err != nil {
			return fail(err)
		}
		return ToolResponse{
			Result: map[string]string{"solution": r.SolutionText, "input": r.InputText},
			String: buf.String(),
		}

	case "free_symbols":
		e, err := p.expr("expr")
		if err != nil {
			return fail(err)
		}
		syms := mms.FreeSymbols(e)
		names := make([]string, 0, len(syms))
		for s := range syms {
			names = append(names, s)
		}
		sort.Strings(names)
		return ToolResponse{Result: names, String: strings.Join(names, ", ")}

	case "gradient":
		e, err := p.expr("expr")
		if err != nil {
			return fail(err)
		}
		vars, err := p.list("vars")
		if err != nil {
			return fail(err)
		}
		grad := mms.Gradient(e, vars)
		out := make([]string, len(grad))
		for i, d := range grad {
			if out[i], err = mms.Serialize(d); err != nil {
				return fail(err)
			}
		}
		return ToolResponse{Result: out, String: "[" + strings.Join(out, ", ") + "]"}

	case "mcp_spec":
		return ToolResponse{String: ToolSpec()}
	}
	return fail(fmt.Errorf("unknown tool: %s", req.Tool))
}

// ToolSpec returns the JSON schema of every tool.
func ToolSpec() string {
	tools := []map[string]interface{}{
		ts("parse", "Parse canonical text into an expression tree", []string{"expr"}, map[string]string{"expr": "string"}),
		ts("serialize", "Render an expression in canonical text", []string{"expr"}, map[string]string{"expr": "object"}),
		ts("simplify", "Simplify a symbolic expression", []string{"expr"}, map[string]string{"expr": "object"}),
		ts("expand", "Algebraically expand expression", []string{"expr"}, map[string]string{"expr": "object"}),
		ts("diff", "First derivative d/dvar", []string{"expr", "var"}, map[string]string{"expr": "object", "var": "string"}),
		ts("sub", "Substitute value for every occurrence of var", []string{"expr", "var", "value"}, map[string]string{"expr": "object", "var": "string", "value": "object"}),
		ts("gradient", "Gradient vector. Requires vars (string[])", []string{"expr", "vars"}, map[string]string{"expr": "object", "vars": "array"}),
		ts("laplacian", "Flat-space Laplacian in x, y, z", []string{"expr"}, map[string]string{"expr": "object"}),
		ts("free_symbols", "Return free symbol names", []string{"expr"}, map[string]string{"expr": "object"}),
		ts("evalf", "Sample an expression. at={x:..,y:..,z:..}", []string{"expr", "at"}, map[string]string{"expr": "object", "at": "object"}),
		ts("delp2", "Apply Delp2 under a geometry's metric with optional overrides", []string{"solution"},
			map[string]string{"solution": "object", "geometry": "string", "metric": "object", "no_first_order": "boolean", "perpendicular": "boolean"}),
		ts("metric", "Metric components and mesh of a geometry", []string{}, map[string]string{"geometry": "string"}),
		ts("geometries", "List geometry presets", []string{}, map[string]string{}),
		ts("scenarios", "List built-in scenarios", []string{}, map[string]string{}),
		ts("scenario", "Run a built-in scenario", []string{"name"}, map[string]string{"name": "string", "verify": "boolean"}),
		ts("mcp_spec", "Return this tool schema", []string{}, map[string]string{}),
	}
	spec := map[string]interface{}{"tools": tools}
	b, _ := json.MarshalIndent(spec, "", "  ")
	return string(b)
}

func ts(name, description string, required []string, props map[string]string) map[string]interface{} {
	properties := map[string]interface{}{}
	for k, typ := range props {
		properties[k] = map[string]interface{}{"type": typ}
	}
	return map[string]interface{}{
		"name":        name,
		"description": description,
		"inputSchema": map[string]interface{}{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}

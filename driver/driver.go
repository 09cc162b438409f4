// Package driver runs manufactured-solution scenarios: it selects a
// geometry, applies metric overrides to a private copy of its metric,
// derives the forcing term with Delp2 and renders the result.
package driver

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/njchilds90/mms"
	"github.com/njchilds90/mms/geometry"
	"github.com/njchilds90/mms/metric"
	"github.com/njchilds90/mms/operator"
	"gopkg.in/yaml.v3"
)

// Result is a finished derivation. Geometry carries the overridden
// metric, so its PrintMesh reports what Delp2 actually used.
type Result struct {
	Scenario string
	Geometry geometry.Geometry
	Metric   *metric.Tensor
	Solution mms.Expr
	Input    mms.Expr

	SolutionText string
	InputText    string

	// Coefficients are G^1..G^3 of the operator, printed as G1 G2 G3
	// after the mesh so the numerical harness can compare them.
	Coefficients     [3]mms.Expr
	CoefficientTexts [3]string
}

// ApplyOverrides parses each expression and sets it on g. The key "J"
// sets the Jacobian. Keys are applied in sorted order so the first
// error reported is stable.
func ApplyOverrides(g *metric.Tensor, overrides map[string]string) error {
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		e, err := mms.Parse(overrides[k])
		if err != nil {
			return fmt.Errorf("metric %s: %w", k, err)
		}
		if k == "J" {
			g.SetJacobian(e)
			continue
		}
		if err := g.Set(k, e); err != nil {
			return err
		}
	}
	return nil
}

// Generate performs the whole derivation without writing anything.
func Generate(sc *Scenario) (*Result, error) {
	geo, err := geometry.Lookup(sc.Geometry)
	if err != nil {
		return nil, err
	}
	g := geo.Metric()
	if err := ApplyOverrides(g, sc.Metric); err != nil {
		return nil, err
	}

	solution, err := mms.Parse(sc.Solution)
	if err != nil {
		return nil, fmt.Errorf("solution: %w", err)
	}
	opts := sc.Operator.Options()
	input, err := operator.Delp2(solution, g, opts...)
	if err != nil {
		return nil, err
	}
	coeffs, err := operator.Coefficients(g, opts...)
	if err != nil {
		return nil, err
	}

	r := &Result{
		Scenario: sc.Name,
		Geometry: geo.WithMetric(g),
		Metric:   g,
		Solution: solution,
		Input:    input,

		Coefficients: coeffs,
	}
	if r.SolutionText, err = mms.Serialize(solution); err != nil {
		return nil, fmt.Errorf("solution: %w", err)
	}
	if r.InputText, err = mms.Serialize(input); err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}
	for i, c := range coeffs {
		if r.CoefficientTexts[i], err = mms.Serialize(c); err != nil {
			return nil, fmt.Errorf("G%d: %w", i+1, err)
		}
	}
	if sc.Verify {
		if err := Verify(r, DefaultVerifyPoints); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Run generates sc and writes the text form to w. Nothing is written
// unless every step succeeds.
func Run(sc *Scenario, w io.Writer) error {
	r, err := Generate(sc)
	if err != nil {
		return err
	}
	return r.WriteText(w)
}

// WriteText writes
//
//	solution = <expr>
//	input = <expr>
//	[mesh]
//	...
//	G1 = <expr>
//	G2 = <expr>
//	G3 = <expr>
func (r *Result) WriteText(w io.Writer) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "solution = %s\n", r.SolutionText)
	fmt.Fprintf(&buf, "input = %s\n", r.InputText)
	if err := r.Geometry.PrintMesh(&buf); err != nil {
		return err
	}
	for i, c := range r.CoefficientTexts {
		fmt.Fprintf(&buf, "G%d = %s\n", i+1, c)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

type yamlMesh struct {
	Nx   int    `yaml:"nx"`
	Ny   int    `yaml:"ny"`
	Nz   int    `yaml:"nz"`
	XMin string `yaml:"xmin"`
	XMax string `yaml:"xmax"`
	YMin string `yaml:"ymin"`
	YMax string `yaml:"ymax"`
	ZMin string `yaml:"zmin"`
	ZMax string `yaml:"zmax"`
}

type yamlResult struct {
	Scenario string            `yaml:"scenario"`
	Geometry string            `yaml:"geometry"`
	Solution string            `yaml:"solution"`
	Input    string            `yaml:"input"`
	Mesh     yamlMesh          `yaml:"mesh"`
	Metric   map[string]string `yaml:"metric"`
	G        map[string]string `yaml:"coefficients"`
}

// WriteYAML writes the result as a YAML document.
func (r *Result) WriteYAML(w io.Writer) error {
	comps, err := r.Metric.Serialized()
	if err != nil {
		return err
	}
	m := r.Geometry.Mesh()
	bound := func(e mms.Expr) string {
		s, err2 := mms.Serialize(e)
		if err2 != nil && err == nil {
			err = err2
		}
		return s
	}
	doc := yamlResult{
		Scenario: r.Scenario,
		Geometry: r.Geometry.Name(),
		Solution: r.SolutionText,
		Input:    r.InputText,
		Mesh: yamlMesh{
			Nx: m.Nx, Ny: m.Ny, Nz: m.Nz,
			XMin: bound(m.X.Lo), XMax: bound(m.X.Hi),
			YMin: bound(m.Y.Lo), YMax: bound(m.Y.Hi),
			ZMin: bound(m.Z.Lo), ZMax: bound(m.Z.Hi),
		},
		Metric: comps,
		G:      make(map[string]string, len(r.CoefficientTexts)),
	}
	for i, c := range r.CoefficientTexts {
		doc.G[fmt.Sprintf("G%d", i+1)] = c
	}
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err = w.Write(buf.Bytes())
	return err
}

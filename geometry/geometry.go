// Package geometry provides named mesh presets. Each preset pairs one
// metric tensor with the mesh resolution and coordinate bounds that a
// numerical harness needs to size its grid.
package geometry

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/njchilds90/mms"
	"github.com/njchilds90/mms/metric"
)

var (
	// ErrUnknownGeometry is returned by Lookup for unregistered names.
	ErrUnknownGeometry = errors.New("geometry: unknown preset")

	// ErrSampleCount is returned by Samples for n < 1.
	ErrSampleCount = errors.New("geometry: sample count must be positive")
)

// Geometry is a read-only preset. Metric returns a fresh copy on every
// call, so callers may override components without affecting the preset.
type Geometry interface {
	Name() string
	Metric() *metric.Tensor
	Mesh() Mesh
	PrintMesh(w io.Writer) error
	// WithMetric returns a copy of the preset that uses g instead of
	// its own metric.
	WithMetric(g *metric.Tensor) Geometry
}

// Interval is a closed coordinate range with symbolic bounds.
type Interval struct {
	Lo, Hi mms.Expr
}

// Floats evaluates both bounds.
func (iv Interval) Floats() (lo, hi float64, err error) {
	if lo, err = mms.Evalf(iv.Lo, nil); err != nil {
		return 0, 0, err
	}
	if hi, err = mms.Evalf(iv.Hi, nil); err != nil {
		return 0, 0, err
	}
	return lo, hi, nil
}

// Mesh is the grid resolution and the coordinate domain.
type Mesh struct {
	Nx, Ny, Nz int
	X, Y, Z    Interval
}

// DefaultMesh is the unit radial interval by two full periods in y and z.
func DefaultMesh() Mesh {
	twoPi := mms.MulOf(mms.N(2), mms.Pi)
	return Mesh{
		Nx: 36, Ny: 32, Nz: 32,
		X: Interval{Lo: mms.N(0), Hi: mms.N(1)},
		Y: Interval{Lo: mms.N(0), Hi: twoPi},
		Z: Interval{Lo: mms.N(0), Hi: twoPi},
	}
}

// Samples returns n deterministic points spread through the domain. The
// x coordinate is stratified; y and z follow additive recurrences so
// the points do not line up on a lattice.
func (m Mesh) Samples(n int) ([][3]float64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrSampleCount, n)
	}
	var lo, hi [3]float64
	for i, iv := range []Interval{m.X, m.Y, m.Z} {
		l, h, err := iv.Floats()
		if err != nil {
			return nil, fmt.Errorf("geometry: mesh bounds: %w", err)
		}
		lo[i], hi[i] = l, h
	}
	out := make([][3]float64, n)
	for k := range out {
		f := [3]float64{
			(float64(k) + 0.5) / float64(n),
			frac(0.5 + float64(k)*0.6180339887498949),
			frac(0.25 + float64(k)*0.7548776662466927),
		}
		for i := range f {
			out[k][i] = lo[i] + f[i]*(hi[i]-lo[i])
		}
	}
	return out, nil
}

func frac(v float64) float64 { return v - math.Floor(v) }

// Field is a named expression printed alongside the metric.
type Field struct {
	Name string
	Expr mms.Expr
}

// Preset is the Geometry implementation shared by every built-in.
type Preset struct {
	name   string
	metric *metric.Tensor
	mesh   Mesh
	fields []Field
}

func (p *Preset) Name() string           { return p.name }
func (p *Preset) Metric() *metric.Tensor { return p.metric.Clone() }
func (p *Preset) Mesh() Mesh             { return p.mesh }

func (p *Preset) WithMetric(g *metric.Tensor) Geometry {
	out := *p
	out.metric = g.Clone()
	return &out
}

// Fields returns the auxiliary profiles (major radius, field strengths,
// shear) that define the metric.
func (p *Preset) Fields() []Field {
	return append([]Field(nil), p.fields...)
}

// PrintMesh writes a [mesh] section: resolution, bounds, auxiliary
// profiles and every metric component, all in canonical text.
func (p *Preset) PrintMesh(w io.Writer) error {
	var sb strings.Builder
	sb.WriteString("[mesh]\n")
	fmt.Fprintf(&sb, "nx = %d\nny = %d\nnz = %d\n", p.mesh.Nx, p.mesh.Ny, p.mesh.Nz)

	bounds := []struct {
		name string
		iv   Interval
	}{{"x", p.mesh.X}, {"y", p.mesh.Y}, {"z", p.mesh.Z}}
	for _, b := range bounds {
		lo, err := mms.Serialize(b.iv.Lo)
		if err != nil {
			return fmt.Errorf("%smin: %w", b.name, err)
		}
		hi, err := mms.Serialize(b.iv.Hi)
		if err != nil {
			return fmt.Errorf("%smax: %w", b.name, err)
		}
		fmt.Fprintf(&sb, "%smin = %s\n%smax = %s\n", b.name, lo, b.name, hi)
	}

	for _, f := range p.fields {
		s, err := mms.Serialize(f.Expr)
		if err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
		fmt.Fprintf(&sb, "%s = %s\n", f.Name, s)
	}

	comps, err := p.metric.Serialized()
	if err != nil {
		return err
	}
	for _, c := range metric.Components {
		fmt.Fprintf(&sb, "%s = %s\n", c, comps[string(c)])
	}
	if j, ok := comps["J"]; ok {
		fmt.Fprintf(&sb, "J = %s\n", j)
	}

	_, err = io.WriteString(w, sb.String())
	return err
}

// ============================================================
// Registry
// ============================================================

var registry = map[string]func() *Preset{
	"slab":           Slab,
	"simple-tokamak": SimpleTokamak,
	"shaped-tokamak": ShapedTokamak,
}

var aliases = map[string]string{
	"identity":      "slab",
	"simpletokamak": "simple-tokamak",
	"shapedtokamak": "shaped-tokamak",
}

// Lookup builds the named preset. Names are case-insensitive and accept
// the CamelCase spellings SimpleTokamak and ShapedTokamak.
func Lookup(name string) (Geometry, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if a, ok := aliases[key]; ok {
		key = a
	}
	build, ok := registry[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %s)", ErrUnknownGeometry, name, strings.Join(Names(), ", "))
	}
	return build(), nil
}

// Names lists the registered presets in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

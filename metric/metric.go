// Package metric holds the contravariant metric tensor g^ij of a 3-D
// curvilinear mesh.
//
// Only the six independent entries of the symmetric tensor are stored
// (g11 g22 g33 g12 g13 g23); g21, g31 and g32 are not separate entries.
// A new [Tensor] is the identity metric, and each entry can be replaced
// individually afterwards.
package metric

import (
	"errors"
	"fmt"
	"strings"

	"github.com/njchilds90/mms"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrUnknownComponent is returned for names other than the six
	// recognized keys.
	ErrUnknownComponent = errors.New("metric: unknown component")

	// ErrMissingComponent is returned when a recognized component has no
	// value, which only happens for a zero-value Tensor.
	ErrMissingComponent = errors.New("metric: missing component")

	// ErrNotPositiveDefinite is returned by CheckPositiveDefinite.
	ErrNotPositiveDefinite = errors.New("metric: not positive definite")
)

// Coordinates are the three mesh coordinate symbols, in index order.
var Coordinates = []string{"x", "y", "z"}

// Component names one independent entry of the tensor.
type Component string

const (
	G11 Component = "g11"
	G22 Component = "g22"
	G33 Component = "g33"
	G12 Component = "g12"
	G13 Component = "g13"
	G23 Component = "g23"
)

// Components lists every entry, diagonal first.
var Components = []Component{G11, G22, G33, G12, G13, G23}

// ParseComponent maps a name such as "g13" or "G13" to its Component.
func ParseComponent(name string) (Component, error) {
	c := Component(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Components {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownComponent, name)
}

// Indices returns the zero-based (i, j) position of c with i <= j.
func (c Component) Indices() (int, int) {
	return int(c[1] - '1'), int(c[2] - '1')
}

// IsDiagonal reports whether c is one of g11, g22, g33.
func (c Component) IsDiagonal() bool {
	i, j := c.Indices()
	return i == j
}

func componentAt(i, j int) Component {
	if i > j {
		i, j = j, i
	}
	return Component([]byte{'g', byte('1' + i), byte('1' + j)})
}

// Tensor is a symmetric contravariant metric plus an optional Jacobian.
type Tensor struct {
	comps map[Component]mms.Expr
	j     mms.Expr
}

// New returns the identity metric with no Jacobian.
func New() *Tensor {
	t := &Tensor{}
	t.ResetIdentity()
	return t
}

// ResetIdentity discards every override: diagonal entries become 1,
// off-diagonal entries 0, and the Jacobian is cleared.
func (t *Tensor) ResetIdentity() {
	t.comps = make(map[Component]mms.Expr, len(Components))
	for _, c := range Components {
		if c.IsDiagonal() {
			t.comps[c] = mms.N(1)
		} else {
			t.comps[c] = mms.N(0)
		}
	}
	t.j = nil
}

// Get returns the current value of the named component.
func (t *Tensor) Get(name string) (mms.Expr, error) {
	c, err := ParseComponent(name)
	if err != nil {
		return nil, err
	}
	return t.Component(c)
}

// Component returns the value of c.
func (t *Tensor) Component(c Component) (mms.Expr, error) {
	e, ok := t.comps[c]
	if !ok || e == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingComponent, c)
	}
	return e, nil
}

// Set replaces the named component; the other five are untouched.
func (t *Tensor) Set(name string, e mms.Expr) error {
	c, err := ParseComponent(name)
	if err != nil {
		return err
	}
	if e == nil {
		return fmt.Errorf("metric: nil expression for %s", c)
	}
	if t.comps == nil {
		t.comps = make(map[Component]mms.Expr, len(Components))
	}
	t.comps[c] = e.Simplify()
	return nil
}

// SetJacobian sets J, used to weight the divergence-form operator.
func (t *Tensor) SetJacobian(j mms.Expr) { t.j = j }

// HasJacobian reports whether J was set explicitly.
func (t *Tensor) HasJacobian() bool { return t.j != nil }

// Jacobian returns J, or 1 when it was never set.
func (t *Tensor) Jacobian() mms.Expr {
	if t.j == nil {
		return mms.N(1)
	}
	return t.j
}

// Clone returns an independent copy. Expressions are immutable, so a
// shallow copy of the map is enough.
func (t *Tensor) Clone() *Tensor {
	out := &Tensor{j: t.j, comps: make(map[Component]mms.Expr, len(t.comps))}
	for c, e := range t.comps {
		out.comps[c] = e
	}
	return out
}

// Matrix returns the full symmetric 3x3 matrix g^ij.
func (t *Tensor) Matrix() (*mms.Matrix, error) {
	m := mms.NewMatrix(3, 3)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			e, err := t.Component(componentAt(i, j))
			if err != nil {
				return nil, err
			}
			m.Set(i, j, e)
			m.Set(j, i, e)
		}
	}
	return m, nil
}

// DetJacobian returns the Jacobian implied by the metric,
// J = (det g^ij)^(-1/2).
func (t *Tensor) DetJacobian() (mms.Expr, error) {
	m, err := t.Matrix()
	if err != nil {
		return nil, err
	}
	return mms.PowOf(m.Det(), mms.F(-1, 2)), nil
}

// At evaluates the tensor numerically at point (x, y, z).
func (t *Tensor) At(point [3]float64) (*mat.SymDense, error) {
	vars := mms.Coords(point[0], point[1], point[2])
	data := make([]float64, 9)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			e, err := t.Component(componentAt(i, j))
			if err != nil {
				return nil, err
			}
			v, err := mms.Evalf(e, vars)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", componentAt(i, j), err)
			}
			data[i*3+j] = v
		}
	}
	return mat.NewSymDense(3, data), nil
}

// CheckPositiveDefinite verifies, by Cholesky factorization, that the
// tensor is positive definite at every point.
func (t *Tensor) CheckPositiveDefinite(points [][3]float64) error {
	for _, p := range points {
		sym, err := t.At(p)
		if err != nil {
			return err
		}
		var chol mat.Cholesky
		if ok := chol.Factorize(sym); !ok {
			return fmt.Errorf("%w at (%g, %g, %g)", ErrNotPositiveDefinite, p[0], p[1], p[2])
		}
	}
	return nil
}

// Serialized returns every component, and J when set, in canonical text.
func (t *Tensor) Serialized() (map[string]string, error) {
	out := make(map[string]string, len(Components)+1)
	for _, c := range Components {
		e, err := t.Component(c)
		if err != nil {
			return nil, err
		}
		s, err := mms.Serialize(e)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c, err)
		}
		out[string(c)] = s
	}
	if t.j != nil {
		s, err := mms.Serialize(t.j)
		if err != nil {
			return nil, fmt.Errorf("J: %w", err)
		}
		out["J"] = s
	}
	return out, nil
}

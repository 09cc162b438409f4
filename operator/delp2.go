// Package operator applies the generalized Laplacian Delp2 to a scalar
// field under an arbitrary contravariant metric.
//
// The operator is the expansion of the divergence form
//
//	Delp2(f) = (1/J) ∂_i (J g^ij ∂_j f)
//	         = g^ij ∂_i∂_j f + G^i ∂_i f,   G^i = (1/J) ∂_j (J g^ij)
//
// summed over the symmetric tensor, so each off-diagonal entry appears
// as 2 g^ij ∂_i∂_j f. Without a Jacobian J = 1 and G^i = ∂_j g^ij.
package operator

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/njchilds90/mms"
	"github.com/njchilds90/mms/metric"
)

// ErrNonScalarInput is returned when the field is nil, contains nodes
// the kernel does not know, or depends on symbols other than x, y, z.
var ErrNonScalarInput = errors.New("operator: non-scalar input")

// Options select the variant of the operator.
type Options struct {
	// FirstOrder includes the G^i ∂_i f terms.
	FirstOrder bool
	// Perpendicular restricts the operator to the x-z plane. G^x and G^z
	// still sum over all three j.
	Perpendicular bool
	// Jacobian, when non-nil, replaces the metric's own J.
	Jacobian mms.Expr
}

// Option configures Delp2.
type Option func(*Options)

// WithoutFirstOrderTerms drops the G^i ∂_i f terms.
func WithoutFirstOrderTerms() Option { return func(o *Options) { o.FirstOrder = false } }

// Perpendicular keeps only the x and z directions.
func Perpendicular() Option { return func(o *Options) { o.Perpendicular = true } }

// WithJacobian weights the divergence form with j.
func WithJacobian(j mms.Expr) Option { return func(o *Options) { o.Jacobian = j } }

func newOptions(opts []Option) Options {
	o := Options{FirstOrder: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o Options) directions() []int {
	if o.Perpendicular {
		return []int{0, 2}
	}
	return []int{0, 1, 2}
}

// Delp2 returns the forcing term obtained by applying the operator to f
// under g. Terms are assembled in a fixed order (diagonal, cross, first
// order), so equal inputs give structurally equal results.
func Delp2(f mms.Expr, g *metric.Tensor, opts ...Option) (mms.Expr, error) {
	o := newOptions(opts)
	if err := CheckScalar(f); err != nil {
		return nil, err
	}
	if g == nil {
		return nil, fmt.Errorf("%w: nil metric", metric.ErrMissingComponent)
	}
	gm, err := g.Matrix()
	if err != nil {
		return nil, err
	}

	coords := metric.Coordinates
	dirs := o.directions()
	hess := mms.Hessian(f, coords)
	grad := mms.Gradient(f, coords)

	terms := make([]mms.Expr, 0, 9)
	for _, i := range dirs {
		terms = append(terms, mms.MulOf(gm.Get(i, i), hess.Get(i, i)))
	}
	for a, i := range dirs {
		for _, j := range dirs[a+1:] {
			terms = append(terms, mms.MulOf(mms.N(2), gm.Get(i, j), hess.Get(i, j)))
		}
	}
	if o.FirstOrder {
		G := coefficients(gm, jacobian(g, o))
		for _, i := range dirs {
			terms = append(terms, mms.MulOf(G[i], grad[i]))
		}
	}
	return mms.AddOf(terms...), nil
}

// Coefficients returns the first-derivative coefficients G^1, G^2, G^3.
func Coefficients(g *metric.Tensor, opts ...Option) ([3]mms.Expr, error) {
	o := newOptions(opts)
	if g == nil {
		return [3]mms.Expr{}, fmt.Errorf("%w: nil metric", metric.ErrMissingComponent)
	}
	gm, err := g.Matrix()
	if err != nil {
		return [3]mms.Expr{}, err
	}
	return coefficients(gm, jacobian(g, o)), nil
}

func jacobian(g *metric.Tensor, o Options) mms.Expr {
	if o.Jacobian != nil {
		return o.Jacobian
	}
	return g.Jacobian()
}

// coefficients computes G^i = (1/J) Σ_j ∂_j (J g^ij). A unit Jacobian is
// skipped entirely so the result is exactly Σ_j ∂_j g^ij.
func coefficients(gm *mms.Matrix, J mms.Expr) [3]mms.Expr {
	coords := metric.Coordinates
	unit := false
	if n, ok := J.(*mms.Num); ok && n.IsOne() {
		unit = true
	}
	var G [3]mms.Expr
	for i := 0; i < 3; i++ {
		parts := make([]mms.Expr, 3)
		for j := 0; j < 3; j++ {
			flux := gm.Get(i, j)
			if !unit {
				flux = mms.MulOf(J, flux)
			}
			parts[j] = mms.PDiff(flux, coords[j])
		}
		G[i] = mms.AddOf(parts...)
		if !unit {
			G[i] = mms.MulOf(mms.PowOf(J, mms.N(-1)), G[i])
		}
	}
	return G
}

// CheckScalar validates that f is a scalar field over the mesh
// coordinates.
func CheckScalar(f mms.Expr) error {
	if f == nil {
		return fmt.Errorf("%w: nil field", ErrNonScalarInput)
	}
	if !mms.IsScalar(f) {
		return fmt.Errorf("%w: unsupported node in %s", ErrNonScalarInput, f)
	}
	var extra []string
	for name := range mms.FreeSymbols(f) {
		if !isCoordinate(name) {
			extra = append(extra, name)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return fmt.Errorf("%w: symbols %s are not coordinates", ErrNonScalarInput, strings.Join(extra, ", "))
	}
	return nil
}

func isCoordinate(name string) bool {
	for _, c := range metric.Coordinates {
		if c == name {
			return true
		}
	}
	return false
}

package driver

import (
	"errors"
	"fmt"

	"github.com/njchilds90/mms"
	"gonum.org/v1/gonum/floats/scalar"
)

// ErrVerification is returned when a generated result fails a check.
var ErrVerification = errors.New("driver: verification failed")

// DefaultVerifyPoints is the number of mesh points sampled by Verify.
const DefaultVerifyPoints = 5

// Tolerance for the round-trip comparison, absolute or relative.
const Tolerance = 1e-9

// Verify re-parses every serialized expression and compares it with
// the original at n mesh sample points, then checks that the metric is
// positive definite at those points. When the metric carries a Jacobian
// it must also agree with (det g^ij)^(-1/2), i.e. J² det g^ij = 1.
func Verify(r *Result, n int) error {
	pts, err := r.Geometry.Mesh().Samples(n)
	if err != nil {
		return err
	}
	checks := []struct {
		name string
		expr mms.Expr
		text string
	}{
		{"solution", r.Solution, r.SolutionText},
		{"input", r.Input, r.InputText},
		{"G1", r.Coefficients[0], r.CoefficientTexts[0]},
		{"G2", r.Coefficients[1], r.CoefficientTexts[1]},
		{"G3", r.Coefficients[2], r.CoefficientTexts[2]},
	}
	for _, c := range checks {
		back, err := mms.Parse(c.text)
		if err != nil {
			return fmt.Errorf("%w: %s does not re-parse: %w", ErrVerification, c.name, err)
		}
		want, err := sample(c.expr, pts)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrVerification, c.name, err)
		}
		got, err := sample(back, pts)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrVerification, c.name, err)
		}
		for i := range want {
			if !scalar.EqualWithinAbsOrRel(want[i], got[i], Tolerance, Tolerance) {
				p := pts[i]
				return fmt.Errorf("%w: %s at (%g, %g, %g): %g != %g",
					ErrVerification, c.name, p[0], p[1], p[2], got[i], want[i])
			}
		}
	}
	if err := r.Metric.CheckPositiveDefinite(pts); err != nil {
		return fmt.Errorf("%w: %w", ErrVerification, err)
	}
	if r.Metric.HasJacobian() {
		return checkJacobian(r, pts)
	}
	return nil
}

func checkJacobian(r *Result, pts [][3]float64) error {
	implied, err := r.Metric.DetJacobian()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrVerification, err)
	}
	want, err := sample(implied, pts)
	if err != nil {
		return fmt.Errorf("%w: det g: %w", ErrVerification, err)
	}
	got, err := sample(r.Metric.Jacobian(), pts)
	if err != nil {
		return fmt.Errorf("%w: J: %w", ErrVerification, err)
	}
	for i := range want {
		if !scalar.EqualWithinAbsOrRel(want[i], got[i], Tolerance, Tolerance) {
			p := pts[i]
			return fmt.Errorf("%w: J = %g but (det g)^(-1/2) = %g at (%g, %g, %g)",
				ErrVerification, got[i], want[i], p[0], p[1], p[2])
		}
	}
	return nil
}

func sample(e mms.Expr, pts [][3]float64) ([]float64, error) {
	out := make([]float64, len(pts))
	for i, p := range pts {
		v, err := mms.Evalf(e, mms.Coords(p[0], p[1], p[2]))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

package operator

import (
	"testing"

	"github.com/njchilds90/mms"
	"github.com/njchilds90/mms/geometry"
	"github.com/njchilds90/mms/metric"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trialSolution = "sin(x*pi)*exp(sin(3*z)) + tan(sin(2*x*pi))*log(2. + sin(z + 1.7))"

var samplePoints = [][3]float64{
	{0.1, 0.2, 0.3}, {0.25, 1.1, 2.9}, {0.5, 3.0, 0.7}, {0.75, 4.4, 5.1},
	{0.9, 6.0, 1.3}, {0.33, 2.2, 4.4}, {0.05, 5.5, 3.3}, {0.61, 0.9, 6.1},
	{0.42, 3.7, 2.0}, {0.18, 1.6, 5.8}, {0.87, 2.8, 0.1},
}

func assertSameSamples(t *testing.T, want, got mms.Expr) {
	t.Helper()
	for _, p := range samplePoints {
		vars := mms.Coords(p[0], p[1], p[2])
		w, err := mms.Evalf(want, vars)
		require.NoError(t, err)
		g, err := mms.Evalf(got, vars)
		require.NoError(t, err)
		assert.InDelta(t, w, g, 1e-9, "at %v", p)
	}
}

func TestIdentityReducesToLaplacian(t *testing.T) {
	f := mms.MustParse(trialSolution)
	got, err := Delp2(f, metric.New())
	require.NoError(t, err)
	assertSameSamples(t, mms.Laplacian(f, metric.Coordinates), got)

	simple := mms.MustParse("sin(x*pi)")
	got, err = Delp2(simple, metric.New())
	require.NoError(t, err)
	assert.True(t, got.Equal(mms.Laplacian(simple, metric.Coordinates)), "got %s", got)
}

func TestDiagonalAnisotropic(t *testing.T) {
	f := mms.MustParse(trialSolution)
	g := metric.New()
	a, b, c := mms.F(3, 2), mms.N(5), mms.F(1, 4)
	require.NoError(t, g.Set("g11", a))
	require.NoError(t, g.Set("g22", b))
	require.NoError(t, g.Set("g33", c))

	got, err := Delp2(f, g)
	require.NoError(t, err)
	want := mms.AddOf(
		mms.MulOf(a, mms.Diff2(f, "x")),
		mms.MulOf(b, mms.Diff2(f, "y")),
		mms.MulOf(c, mms.Diff2(f, "z")),
	)
	assertSameSamples(t, want, got)
}

func TestOffDiagonalSymmetry(t *testing.T) {
	// Every mixed partial of f is 1 and the Laplacian is 0, so only the
	// doubled off-diagonal entries survive.
	f := mms.MustParse("x*y + x*z + y*z")
	for _, tc := range []struct {
		comp string
		want int64
	}{
		{"g12", 6},
		{"g13", 6},
		{"g23", 6},
	} {
		g := metric.New()
		require.NoError(t, g.Set(tc.comp, mms.N(3)))
		got, err := Delp2(f, g)
		require.NoError(t, err)
		assert.True(t, got.Equal(mms.N(tc.want)), "%s: got %s", tc.comp, got)
	}

	// g12 only touches the x-y mixed partial.
	g := metric.New()
	require.NoError(t, g.Set("g12", mms.N(3)))
	got, err := Delp2(mms.MustParse("x*z + y*z"), g)
	require.NoError(t, err)
	assert.True(t, got.Equal(mms.N(0)), "got %s", got)
}

func TestScenarioIdentitySine(t *testing.T) {
	got, err := Delp2(mms.MustParse("sin(x*pi)"), metric.New())
	require.NoError(t, err)
	s, err := mms.Serialize(got)
	require.NoError(t, err)
	assert.Equal(t, "-pi*pi*sin(pi*x)", s)
}

func TestScenarioGeneralMetric(t *testing.T) {
	g := metric.New()
	for name, v := range map[string]string{
		"g11": "2 + 0.01*x",
		"g22": "5",
		"g33": "3",
		"g12": "0.7",
		"g13": "0.1",
		"g23": "0.4",
	} {
		require.NoError(t, g.Set(name, mms.MustParse(v)))
	}
	got, err := Delp2(mms.MustParse("sin(x*pi)"), g)
	require.NoError(t, err)
	s, err := mms.Serialize(got)
	require.NoError(t, err)
	assert.Equal(t, "-(0.01*x + 2)*pi*pi*sin(pi*x) + 0.01*cos(pi*x)*pi", s)
	assert.Contains(t, s, "(0.01*x + 2)*pi*pi*sin(pi*x)")
	assert.Contains(t, s, "0.01*cos(pi*x)*pi")

	noFirst, err := Delp2(mms.MustParse("sin(x*pi)"), g, WithoutFirstOrderTerms())
	require.NoError(t, err)
	assert.Equal(t, "-(0.01*x + 2)*pi*pi*sin(pi*x)", mms.MustSerialize(noFirst))
}

func TestPerpendicular(t *testing.T) {
	g := metric.New()
	require.NoError(t, g.Set("g12", mms.N(3)))
	require.NoError(t, g.Set("g13", mms.N(2)))

	got, err := Delp2(mms.MustParse("x*y + x*z + sin(y)"), g, Perpendicular())
	require.NoError(t, err)
	assert.True(t, got.Equal(mms.N(4)), "got %s", got)

	// G^x still differentiates g12 along y.
	require.NoError(t, g.Set("g12", mms.S("y")))
	G, err := Coefficients(g, Perpendicular())
	require.NoError(t, err)
	assert.True(t, G[0].Equal(mms.N(1)), "G1 = %s", G[0])
}

func TestJacobianWeighting(t *testing.T) {
	g := metric.New()
	G, err := Coefficients(g, WithJacobian(mms.S("x")))
	require.NoError(t, err)
	v, err := mms.Evalf(G[0], mms.Coords(2, 0, 0))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, v, 1e-12)
	assert.True(t, G[1].Equal(mms.N(0)))
	assert.True(t, G[2].Equal(mms.N(0)))

	// A constant Jacobian cancels.
	G, err = Coefficients(g, WithJacobian(mms.N(4)))
	require.NoError(t, err)
	for i := range G {
		assert.True(t, G[i].Equal(mms.N(0)), "G%d = %s", i+1, G[i])
	}
}

// The expanded operator must agree with the divergence form
// (1/J) ∂_i (J g^ij ∂_j f) on a non-orthogonal metric with a Jacobian.
func TestMatchesDivergenceForm(t *testing.T) {
	geo := geometry.SimpleTokamak()
	g := geo.Metric()
	f := mms.MustParse("sin(x*pi)*cos(z) + x*x*sin(2*y)")

	got, err := Delp2(f, g)
	require.NoError(t, err)

	gm, err := g.Matrix()
	require.NoError(t, err)
	J := g.Jacobian()
	grad := mms.Gradient(f, metric.Coordinates)
	var terms []mms.Expr
	for i, xi := range metric.Coordinates {
		var flux []mms.Expr
		for j := range metric.Coordinates {
			flux = append(flux, mms.MulOf(J, gm.Get(i, j), grad[j]))
		}
		terms = append(terms, mms.PDiff(mms.AddOf(flux...), xi))
	}
	want := mms.MulOf(mms.PowOf(J, mms.N(-1)), mms.AddOf(terms...))

	pts, err := geo.Mesh().Samples(6)
	require.NoError(t, err)
	for _, p := range pts {
		vars := mms.Coords(p[0], p[1], p[2])
		w, err := mms.Evalf(want, vars)
		require.NoError(t, err)
		v, err := mms.Evalf(got, vars)
		require.NoError(t, err)
		assert.InEpsilon(t, w, v, 1e-8, "at %v", p)
	}
}

func TestDeterministic(t *testing.T) {
	f := mms.MustParse(trialSolution)
	g := geometry.ShapedTokamak().Metric()
	a, err := Delp2(f, g)
	require.NoError(t, err)
	b, err := Delp2(f, g.Clone())
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
	assert.Equal(t, mms.MustSerialize(a), mms.MustSerialize(b))
}

func TestErrors(t *testing.T) {
	_, err := Delp2(nil, metric.New())
	assert.ErrorIs(t, err, ErrNonScalarInput)

	_, err = Delp2(mms.MustParse("sin(psi*x)"), metric.New())
	assert.ErrorIs(t, err, ErrNonScalarInput)
	assert.Contains(t, err.Error(), "psi")

	_, err = Delp2(mms.MustParse("x"), &metric.Tensor{})
	assert.ErrorIs(t, err, metric.ErrMissingComponent)

	_, err = Delp2(mms.MustParse("x"), nil)
	assert.ErrorIs(t, err, metric.ErrMissingComponent)
}

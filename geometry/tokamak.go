package geometry

import (
	"github.com/njchilds90/mms"
	"github.com/njchilds90/mms/metric"
)

// Slab is the flat identity metric on the default mesh.
func Slab() *Preset {
	return &Preset{name: "slab", metric: metric.New(), mesh: DefaultMesh()}
}

// TokamakParams describe an analytic toroidal equilibrium. x is a
// normalized flux label in [0, 1], y the poloidal angle and z the
// toroidal angle.
type TokamakParams struct {
	Name string
	// R0 is the major radius and Bt the toroidal field on axis.
	R0, Bt *mms.Num
	// Epsilon is the inverse aspect ratio of the inner flux surface and
	// Dr the radial width of the domain.
	Epsilon, Dr *mms.Num
	// Kappa is the elongation, Delta the triangularity.
	Kappa, Delta *mms.Num
}

// SimpleTokamakParams is a large-aspect-ratio circular torus.
func SimpleTokamakParams() TokamakParams {
	return TokamakParams{
		Name:    "simple-tokamak",
		R0:      mms.N(2),
		Bt:      mms.N(1),
		Epsilon: mms.F(1, 10),
		Dr:      mms.F(1, 50),
		Kappa:   mms.N(1),
		Delta:   mms.N(0),
	}
}

// ShapedTokamakParams adds elongation and triangularity to the simple
// torus.
func ShapedTokamakParams() TokamakParams {
	p := SimpleTokamakParams()
	p.Name = "shaped-tokamak"
	p.Kappa = mms.F(3, 2)
	p.Delta = mms.F(1, 5)
	return p
}

// SimpleTokamak builds the circular preset.
func SimpleTokamak() *Preset { return NewTokamak(SimpleTokamakParams()) }

// ShapedTokamak builds the shaped preset.
func ShapedTokamak() *Preset { return NewTokamak(ShapedTokamakParams()) }

// NewTokamak builds the field-aligned metric of p. With safety factor
// q(x) = 2 + x² the flux surfaces are
//
//	R = R0 + r cos(y + δ sin y),  Z = κ r sin y,  r = ε R0 + Dr x
//
// and the field line shift is zShift = q (y + ε sin y), so that the
// integrated shear is I = ∂zShift/∂x. The resulting tensor has
// det g = Bp²/hthe² and J = hthe/Bp.
func NewTokamak(p TokamakParams) *Preset {
	x, y := mms.S("x"), mms.S("y")

	r := mms.AddOf(mms.MulOf(p.Epsilon, p.R0), mms.MulOf(p.Dr, x))
	q := mms.AddOf(mms.N(2), mms.PowOf(x, mms.N(2)))
	theta := mms.AddOf(y, mms.MulOf(p.Delta, mms.SinOf(y)))

	Rxy := mms.AddOf(p.R0, mms.MulOf(r, mms.CosOf(theta)))
	Zxy := mms.MulOf(p.Kappa, r, mms.SinOf(y))

	var hthe mms.Expr = r
	if !p.Kappa.IsOne() || !p.Delta.IsZero() {
		dR, dZ := mms.Diff(Rxy, "y"), mms.Diff(Zxy, "y")
		hthe = mms.SqrtOf(mms.AddOf(mms.PowOf(dR, mms.N(2)), mms.PowOf(dZ, mms.N(2))))
	}

	zShift := mms.MulOf(q, mms.AddOf(y, mms.MulOf(p.Epsilon, mms.SinOf(y))))
	nu := mms.Diff(zShift, "y")
	sinty := mms.Diff(zShift, "x")

	Btxy := mms.MulOf(p.Bt, p.R0, mms.PowOf(Rxy, mms.N(-1)))
	Bpxy := mms.MulOf(Btxy, hthe, mms.PowOf(mms.MulOf(nu, Rxy), mms.N(-1)))
	B2 := mms.AddOf(mms.PowOf(Btxy, mms.N(2)), mms.PowOf(Bpxy, mms.N(2)))

	g11 := mms.PowOf(mms.MulOf(Rxy, Bpxy), mms.N(2))
	g := metric.New()
	set := func(name string, e mms.Expr) {
		if err := g.Set(name, e); err != nil {
			panic(err)
		}
	}
	set("g11", g11)
	set("g22", mms.PowOf(hthe, mms.N(-2)))
	set("g33", mms.AddOf(
		mms.MulOf(mms.PowOf(sinty, mms.N(2)), g11),
		mms.MulOf(B2, mms.PowOf(g11, mms.N(-1))),
	))
	set("g12", mms.N(0))
	set("g13", mms.MulOf(mms.N(-1), sinty, g11))
	set("g23", mms.MulOf(mms.N(-1), Btxy, mms.PowOf(mms.MulOf(hthe, Bpxy, Rxy), mms.N(-1))))
	g.SetJacobian(mms.MulOf(hthe, mms.PowOf(Bpxy, mms.N(-1))))

	return &Preset{
		name:   p.Name,
		metric: g,
		mesh:   DefaultMesh(),
		fields: []Field{
			{"Rxy", Rxy},
			{"Zxy", Zxy},
			{"Bpxy", Bpxy},
			{"Btxy", Btxy},
			{"hthe", hthe},
			{"sinty", sinty},
		},
	}
}

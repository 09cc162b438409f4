package mms

// ============================================================
// Top-level convenience functions
// ============================================================

// LaTeX renders e for display.
func LaTeX(e Expr) string { return e.LaTeX() }

// Sub replaces every occurrence of varName in expr with value.
func Sub(expr Expr, varName string, value Expr) Expr {
	return expr.Sub(varName, value).Simplify()
}

func Diff(expr Expr, varName string) Expr {
	return expr.Diff(varName).Simplify()
}

func Diff2(expr Expr, varName string) Expr {
	return Diff(Diff(expr, varName), varName)
}

// ============================================================
// Partial Derivatives and Vector Calculus
// ============================================================

// PDiff computes the partial derivative ∂/∂varName of expr.
func PDiff(expr Expr, varName string) Expr { return Diff(expr, varName) }

// Gradient returns the gradient ∇f as a slice of partial derivatives.
func Gradient(expr Expr, varNames []string) []Expr {
	result := make([]Expr, len(varNames))
	for i, v := range varNames {
		result[i] = PDiff(expr, v)
	}
	return result
}

// Hessian returns the n×n matrix of second partial derivatives. Mixed
// partials are computed once and mirrored, so H is symmetric by
// construction.
func Hessian(expr Expr, varNames []string) *Matrix {
	n := len(varNames)
	mat := NewMatrix(n, n)
	grad := Gradient(expr, varNames)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			d := PDiff(grad[i], varNames[j])
			mat.Set(i, j, d)
			mat.Set(j, i, d)
		}
	}
	return mat
}

// Laplacian returns the flat-space ∇²f, the sum of unmixed second partials.
func Laplacian(expr Expr, varNames []string) Expr {
	terms := make([]Expr, len(varNames))
	for i, v := range varNames {
		terms[i] = PDiff(PDiff(expr, v), v)
	}
	return AddOf(terms...).Simplify()
}

// ============================================================
// Expansion
// ============================================================

// Expand distributes products over sums and multiplies out small
// non-negative integer powers of sums. Function arguments are expanded
// in place.
func Expand(e Expr) Expr { return expand(e).Simplify() }

func expand(e Expr) Expr {
	switch v := e.(type) {
	case *Add:
		terms := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			terms[i] = expand(t)
		}
		return AddOf(terms...)
	case *Mul:
		factors := make([]Expr, len(v.factors))
		for i, f := range v.factors {
			factors[i] = expand(f)
		}
		for i, f := range factors {
			sum, ok := f.(*Add)
			if !ok {
				continue
			}
			rest := make([]Expr, 0, len(factors)-1)
			rest = append(rest, factors[:i]...)
			rest = append(rest, factors[i+1:]...)
			terms := make([]Expr, len(sum.terms))
			for k, t := range sum.terms {
				terms[k] = expand(MulOf(append([]Expr{t}, rest...)...))
			}
			return AddOf(terms...)
		}
		return MulOf(factors...)
	case *Pow:
		base := expand(v.base)
		if n, ok := v.exp.(*Num); ok && n.IsInteger() {
			if k := n.val.Num().Int64(); k >= 2 && k <= 8 {
				if _, isSum := base.(*Add); isSum {
					out := Expr(N(1))
					for i := int64(0); i < k; i++ {
						out = expand(MulOf(out, base))
					}
					return out
				}
			}
		}
		return PowOf(base, expand(v.exp))
	case *Func:
		return funcOf(v.name, expand(v.arg)).Simplify()
	}
	return e
}

// ============================================================
// Free Symbols
// ============================================================

func FreeSymbols(e Expr) map[string]struct{} {
	result := map[string]struct{}{}
	collectSymbols(e, result)
	return result
}

func collectSymbols(e Expr, out map[string]struct{}) {
	switch v := e.(type) {
	case *Sym:
		out[v.name] = struct{}{}
	case *Add:
		for _, t := range v.terms {
			collectSymbols(t, out)
		}
	case *Mul:
		for _, f := range v.factors {
			collectSymbols(f, out)
		}
	case *Pow:
		collectSymbols(v.base, out)
		collectSymbols(v.exp, out)
	case *Func:
		collectSymbols(v.arg, out)
	}
}

// IsScalar reports whether every node of e is one of the kernel's own
// node types; foreign Expr implementations are rejected.
func IsScalar(e Expr) bool {
	switch v := e.(type) {
	case *Num, *Sym, *Const:
		return true
	case *Add:
		for _, t := range v.terms {
			if !IsScalar(t) {
				return false
			}
		}
		return true
	case *Mul:
		for _, f := range v.factors {
			if !IsScalar(f) {
				return false
			}
		}
		return true
	case *Pow:
		return IsScalar(v.base) && IsScalar(v.exp)
	case *Func:
		return IsScalar(v.arg)
	}
	return false
}

package mms

import (
	"fmt"
	"math"
)

// Evalf samples e numerically with the given symbol bindings. It exists
// for verification (round-trip and metric checks); the generator itself
// never needs numbers.
func Evalf(e Expr, vars map[string]float64) (float64, error) {
	switch v := e.(type) {
	case *Num:
		return v.Float64(), nil
	case *Const:
		return v.value, nil
	case *Sym:
		val, ok := vars[v.name]
		if !ok {
			return 0, fmt.Errorf("%w: unbound symbol %q", ErrEval, v.name)
		}
		return val, nil
	case *Add:
		acc := 0.0
		for _, t := range v.terms {
			tv, err := Evalf(t, vars)
			if err != nil {
				return 0, err
			}
			acc += tv
		}
		return acc, nil
	case *Mul:
		acc := 1.0
		for _, f := range v.factors {
			fv, err := Evalf(f, vars)
			if err != nil {
				return 0, err
			}
			acc *= fv
		}
		return acc, nil
	case *Pow:
		b, err := Evalf(v.base, vars)
		if err != nil {
			return 0, err
		}
		x, err := Evalf(v.exp, vars)
		if err != nil {
			return 0, err
		}
		return math.Pow(b, x), nil
	case *Func:
		fn, ok := funcTable[v.name]
		if !ok {
			return 0, fmt.Errorf("%w: unknown function %q", ErrEval, v.name)
		}
		a, err := Evalf(v.arg, vars)
		if err != nil {
			return 0, err
		}
		return fn(a), nil
	}
	return 0, fmt.Errorf("%w: unsupported node %T", ErrEval, e)
}

// Coords binds the three mesh coordinates for Evalf.
func Coords(x, y, z float64) map[string]float64 {
	return map[string]float64{"x": x, "y": y, "z": z}
}

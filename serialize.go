package mms

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Grammar of the canonical form, lowest binding first:
//
//	sum      a + b, a - b
//	product  a*b, a/b
//	unary    -a
//	power    a**b (right associative)
//	atom     number, identifier, pi, f(expr), (expr)
//
// Functions: sin cos tan exp log sinh cosh tanh asin acos atan abs.
// Parentheses appear only where precedence needs them.
const (
	precSum = iota + 1
	precProd
	precNeg
	precPow
	precAtom
)

// grammarFuncs maps kernel function names to their spelling in the grammar.
var grammarFuncs = map[string]string{
	"sin":  "sin",
	"cos":  "cos",
	"tan":  "tan",
	"exp":  "exp",
	"ln":   "log",
	"sinh": "sinh",
	"cosh": "cosh",
	"tanh": "tanh",
	"asin": "asin",
	"acos": "acos",
	"atan": "atan",
	"abs":  "abs",
}

// Serialize renders e in the canonical text form read back by Parse.
func Serialize(e Expr) (string, error) {
	s, _, err := render(e)
	if err != nil {
		return "", err
	}
	return s, nil
}

// MustSerialize is like Serialize but panics on error.
func MustSerialize(e Expr) string {
	s, err := Serialize(e)
	if err != nil {
		panic(err)
	}
	return s
}

func render(e Expr) (string, int, error) {
	switch v := e.(type) {
	case nil:
		return "", 0, fmt.Errorf("%w: nil expression", ErrSerialization)
	case *Num:
		s, p := renderNum(v)
		return s, p, nil
	case *Sym:
		if !isIdent(v.name) || v.name == Pi.name {
			return "", 0, fmt.Errorf("%w: symbol %q is not an identifier", ErrSerialization, v.name)
		}
		return v.name, precAtom, nil
	case *Const:
		return v.name, precAtom, nil
	case *Func:
		name, ok := grammarFuncs[v.name]
		if !ok {
			return "", 0, fmt.Errorf("%w: function %q", ErrSerialization, v.name)
		}
		arg, _, err := render(v.arg)
		if err != nil {
			return "", 0, err
		}
		return name + "(" + arg + ")", precAtom, nil
	case *Pow:
		if en, ok := v.exp.(*Num); ok && en.IsNegative() {
			return renderProduct([]Expr{v})
		}
		return renderPow(v)
	case *Mul:
		return renderProduct(v.factors)
	case *Add:
		return renderSum(v.terms)
	}
	return "", 0, fmt.Errorf("%w: unsupported node %T", ErrSerialization, e)
}

func renderNum(n *Num) (string, int) {
	if n.IsNegative() {
		s, _ := renderNum(numNeg(n))
		return "-" + s, precNeg
	}
	if n.IsInteger() {
		return n.val.Num().String(), precAtom
	}
	if s, ok := decimalString(n.val); ok {
		return s, precAtom
	}
	return n.val.Num().String() + "/" + n.val.Denom().String(), precProd
}

// decimalString renders a positive rational whose denominator has no
// prime factors other than 2 and 5. Long binary fractions (folded
// function values) use the shortest float64 form instead.
func decimalString(r *big.Rat) (string, bool) {
	d := new(big.Int).Set(r.Denom())
	twos := stripFactor(d, 2)
	fives := stripFactor(d, 5)
	if d.Cmp(big.NewInt(1)) != 0 {
		return "", false
	}
	digits := max(twos, fives)
	if digits > 17 {
		if f, exact := r.Float64(); exact {
			return strconv.FormatFloat(f, 'g', -1, 64), true
		}
	}
	return r.FloatString(digits), true
}

func stripFactor(d *big.Int, p int64) int {
	bp := big.NewInt(p)
	q, m := new(big.Int), new(big.Int)
	n := 0
	for {
		q.QuoRem(d, bp, m)
		if m.Sign() != 0 {
			return n
		}
		d.Set(q)
		n++
	}
}

func renderPow(p *Pow) (string, int, error) {
	base, bp, err := render(p.base)
	if err != nil {
		return "", 0, err
	}
	if bp < precAtom {
		base = "(" + base + ")"
	}
	exp, ep, err := render(p.exp)
	if err != nil {
		return "", 0, err
	}
	if ep < precPow {
		exp = "(" + exp + ")"
	}
	return base + "**" + exp, precPow, nil
}

// renderProduct writes numerator factors, then a single "/" followed by
// the denominator built from negative integer or rational exponents.
func renderProduct(factors []Expr) (string, int, error) {
	coeff := N(1)
	var num, den []Expr
	for _, f := range factors {
		switch v := f.(type) {
		case *Num:
			coeff = numMul(coeff, v)
		case *Pow:
			if en, ok := v.exp.(*Num); ok && en.IsNegative() {
				den = append(den, PowOf(v.base, numNeg(en)))
				continue
			}
			num = append(num, f)
		default:
			num = append(num, f)
		}
	}
	neg := coeff.IsNegative()
	if neg {
		coeff = numNeg(coeff)
	}
	if !coeff.IsOne() {
		_, decimal := decimalString(coeff.val)
		if coeff.IsInteger() || decimal {
			num = append([]Expr{coeff}, num...)
		} else {
			if p := coeff.val.Num(); p.Cmp(big.NewInt(1)) != 0 {
				num = append([]Expr{&Num{val: new(big.Rat).SetInt(p)}}, num...)
			}
			den = append([]Expr{&Num{val: new(big.Rat).SetInt(coeff.val.Denom())}}, den...)
		}
	}

	if len(num) == 1 && len(den) == 0 && !neg {
		return render(num[0])
	}

	numStr, err := joinFactors(num)
	if err != nil {
		return "", 0, err
	}
	if numStr == "" {
		numStr = "1"
	}
	out := numStr
	if len(den) > 0 {
		denStr, err := joinFactors(den)
		if err != nil {
			return "", 0, err
		}
		if len(den) > 1 {
			denStr = "(" + denStr + ")"
		}
		out += "/" + denStr
	}
	if neg {
		return "-" + out, precNeg, nil
	}
	return out, precProd, nil
}

func joinFactors(factors []Expr) (string, error) {
	parts := make([]string, len(factors))
	for i, f := range factors {
		s, p, err := render(f)
		if err != nil {
			return "", err
		}
		if p < precPow {
			s = "(" + s + ")"
		}
		parts[i] = s
	}
	return strings.Join(parts, "*"), nil
}

func renderSum(terms []Expr) (string, int, error) {
	if len(terms) == 0 {
		return "0", precAtom, nil
	}
	var sb strings.Builder
	for i, t := range terms {
		neg := false
		if i > 0 {
			neg, t = splitNegative(t)
		}
		s, p, err := render(t)
		if err != nil {
			return "", 0, err
		}
		if p <= precSum || (i > 0 && p == precNeg) {
			s = "(" + s + ")"
		}
		switch {
		case i == 0:
		case neg:
			sb.WriteString(" - ")
		default:
			sb.WriteString(" + ")
		}
		sb.WriteString(s)
	}
	if len(terms) == 1 {
		_, p, _ := render(terms[0])
		return sb.String(), p, nil
	}
	return sb.String(), precSum, nil
}

// splitNegative returns |t| and true when t carries a negative numeric
// coefficient.
func splitNegative(t Expr) (bool, Expr) {
	switch v := t.(type) {
	case *Num:
		if v.IsNegative() {
			return true, numNeg(v)
		}
	case *Mul:
		if len(v.factors) > 0 {
			if c, ok := v.factors[0].(*Num); ok && c.IsNegative() {
				rest := append([]Expr{numNeg(c)}, v.factors[1:]...)
				return true, &Mul{factors: rest}
			}
		}
	}
	return false, t
}

func isIdent(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

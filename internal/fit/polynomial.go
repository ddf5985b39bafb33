package fit

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNoRoot is returned when a curve never reaches the requested value at a positive RPM
	ErrNoRoot = errors.New("no positive root")

	// ErrDegree is returned for a negative polynomial degree or too few points for the degree
	ErrDegree = errors.New("invalid polynomial degree")
)

// Polynomial holds coefficients in ascending powers: p[0] + p[1]*x + p[2]*x² + ...
type Polynomial []float64

// Eval evaluates the polynomial at x using Horner's scheme.
func (p Polynomial) Eval(x float64) float64 {
	var y float64
	for i := len(p) - 1; i >= 0; i-- {
		y = y*x + p[i]
	}
	return y
}

// Degree returns the polynomial degree.
func (p Polynomial) Degree() int {
	return len(p) - 1
}

// FitPolynomial returns the least-squares polynomial of the given degree
// through the points (x, y). x is scaled to [-1, 1] before solving to keep the
// Vandermonde system well conditioned for RPM-sized inputs.
func FitPolynomial(x, y []float64, degree int) (Polynomial, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("x has %d points, y has %d", len(x), len(y))
	}
	if degree < 0 || len(x) <= degree {
		return nil, fmt.Errorf("degree %d with %d points: %w", degree, len(x), ErrDegree)
	}

	scale := math.Max(math.Abs(floats.Min(x)), math.Abs(floats.Max(x)))
	if scale == 0 {
		return nil, fmt.Errorf("all x values are zero: %w", ErrDegree)
	}

	cols := degree + 1
	a := mat.NewDense(len(x), cols, nil)
	for i, xi := range x {
		v := 1.0
		s := xi / scale
		for j := 0; j < cols; j++ {
			a.Set(i, j, v)
			v *= s
		}
	}

	var qr mat.QR
	qr.Factorize(a)

	var coef mat.VecDense
	if err := qr.SolveVecTo(&coef, false, mat.NewVecDense(len(y), slices.Clone(y))); err != nil {
		return nil, fmt.Errorf("solving least squares: %w", err)
	}

	p := make(Polynomial, cols)
	div := 1.0
	for j := 0; j < cols; j++ {
		p[j] = coef.AtVec(j) / div
		div *= scale
	}
	return p, nil
}

// Quadratic is f(rpm) = A·rpm² + B·rpm + C.
type Quadratic struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
	C float64 `json:"c"`
}

// FitQuadratic fits a second order polynomial by least squares.
func FitQuadratic(x, y []float64) (Quadratic, error) {
	p, err := FitPolynomial(x, y, 2)
	if err != nil {
		return Quadratic{}, err
	}
	return Quadratic{A: p[2], B: p[1], C: p[0]}, nil
}

// Eval evaluates the quadratic at x.
func (q Quadratic) Eval(x float64) float64 {
	return (q.A*x+q.B)*x + q.C
}

// Roots returns the real roots of f(x) = target in ascending order.
func (q Quadratic) Roots(target float64) []float64 {
	a, b, c := q.A, q.B, q.C-target

	// degenerate to linear when the quadratic term vanishes relative to the others
	if a == 0 || math.Abs(a) < 1e-15*(math.Abs(b)+math.Abs(c)) {
		if b == 0 {
			return nil
		}
		return []float64{-c / b}
	}

	disc := b*b - 4*a*c
	if disc < 0 {
		return nil
	}

	// numerically stable form, avoids cancellation between -b and sqrt(disc)
	sq := math.Sqrt(disc)
	qq := -0.5 * (b + math.Copysign(sq, b))

	var roots []float64
	roots = append(roots, qq/a)
	if qq != 0 {
		roots = append(roots, c/qq)
	}
	slices.Sort(roots)
	return slices.Compact(roots)
}

// Solve finds the RPM at which the curve equals target. The smallest positive
// root inside [lo, hi] wins; otherwise the smallest positive root is returned
// with inDomain set to false.
func (q Quadratic) Solve(target, lo, hi float64) (rpm float64, inDomain bool, err error) {
	var positive []float64
	for _, r := range q.Roots(target) {
		if r > 0 {
			positive = append(positive, r)
		}
	}
	if len(positive) == 0 {
		return 0, false, fmt.Errorf("f(rpm) = %0.4f: %w", target, ErrNoRoot)
	}

	for _, r := range positive {
		if r >= lo && r <= hi {
			return r, true, nil
		}
	}
	return positive[0], false, nil
}

// Peak returns the RPM of the maximum of a downward opening quadratic. ok is
// false when the curve opens upward or peaks at a non-positive RPM.
func (q Quadratic) Peak() (rpm float64, ok bool) {
	if q.A >= 0 {
		return 0, false
	}
	rpm = -q.B / (2 * q.A)
	return rpm, rpm > 0
}

// String formats the quadratic for labels.
func (q Quadratic) String() string {
	return fmt.Sprintf("%.4g·rpm² %+.4g·rpm %+.4g", q.A, q.B, q.C)
}

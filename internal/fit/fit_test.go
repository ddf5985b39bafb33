package fit

import (
	"errors"
	"math"
	"testing"

	"github.com/roman-kulish/propeller-charts/internal/propeller"
)

func almostEqual(a, b, tol float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= tol*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

// quadraticTable builds a table whose thrust, torque and power lie exactly on
// known quadratics. Rows below firstPositive have thrust truncated to zero.
func quadraticTable(rpms []float64, firstPositive int) *propeller.Table {
	rows := make([]propeller.Row, len(rpms))
	for i, rpm := range rpms {
		rows[i] = propeller.Row{
			RPM:          rpm,
			Thrust:       2e-7*rpm*rpm + 1e-4*rpm - 0.05,
			Torque:       3e-9*rpm*rpm + 2e-6*rpm,
			Power:        4e-6*rpm*rpm - 1e-3*rpm + 1,
			AdvanceRatio: 1000 / (rpm + 1),
			CT:           0.1 - rpm*1e-6,
			CP:           0.05 - rpm*5e-7,
			Efficiency:   0.5 + rpm*1e-6,
		}
		if i < firstPositive {
			rows[i].Thrust = 0
		}
	}
	return propeller.NewTable(rows)
}

func TestFitPolynomial_Exact(t *testing.T) {
	x := []float64{1000, 2000, 3000, 4000, 5000, 6000}
	want := Polynomial{3, -0.002, 1.5e-6, 2e-10}

	y := make([]float64, len(x))
	for i, xi := range x {
		y[i] = want.Eval(xi)
	}

	got, err := FitPolynomial(x, y, 3)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for _, xi := range []float64{1500, 3333, 5999} {
		if !almostEqual(got.Eval(xi), want.Eval(xi), 1e-8) {
			t.Errorf("At x=%v expected %v, got %v", xi, want.Eval(xi), got.Eval(xi))
		}
	}
	if got.Degree() != 3 {
		t.Errorf("Expected degree 3, got %d", got.Degree())
	}
}

func TestFitPolynomial_LeastSquares(t *testing.T) {
	// symmetric noise around a line cancels out
	x := []float64{1, 2, 3, 4}
	y := []float64{2 + 0.1, 4 - 0.1, 6 - 0.1, 8 + 0.1}

	p, err := FitPolynomial(x, y, 1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !almostEqual(p[1], 2, 1e-9) || !almostEqual(p[0], 0, 1e-9) {
		t.Errorf("Expected slope 2 and intercept 0, got %v", p)
	}
}

func TestFitPolynomial_Errors(t *testing.T) {
	if _, err := FitPolynomial([]float64{1, 2}, []float64{1}, 1); err == nil {
		t.Error("Expected error for mismatched lengths")
	}
	if _, err := FitPolynomial([]float64{1, 2}, []float64{1, 2}, 2); !errors.Is(err, ErrDegree) {
		t.Errorf("Expected ErrDegree, got %v", err)
	}
	if _, err := FitPolynomial([]float64{0, 0, 0}, []float64{1, 2, 3}, 1); !errors.Is(err, ErrDegree) {
		t.Errorf("Expected ErrDegree for zero x, got %v", err)
	}
}

func TestQuadratic_Roots(t *testing.T) {
	tests := []struct {
		name   string
		q      Quadratic
		target float64
		want   []float64
	}{
		{"two roots", Quadratic{A: 1, B: 0, C: -4}, 0, []float64{-2, 2}},
		{"target shifts", Quadratic{A: 1, B: 0, C: 0}, 9, []float64{-3, 3}},
		{"double root", Quadratic{A: 1, B: -2, C: 1}, 0, []float64{1}},
		{"no real root", Quadratic{A: 1, B: 0, C: 1}, 0, nil},
		{"linear", Quadratic{A: 0, B: 2, C: -4}, 0, []float64{2}},
		{"constant", Quadratic{A: 0, B: 0, C: 3}, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.q.Roots(tt.target)
			if len(got) != len(tt.want) {
				t.Fatalf("Expected roots %v, got %v", tt.want, got)
			}
			for i := range got {
				if !almostEqual(got[i], tt.want[i], 1e-12) {
					t.Errorf("Root %d: expected %v, got %v", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestQuadratic_SolvePicksSmallestPositiveInDomain(t *testing.T) {
	// (x-1000)(x-3000) = x² - 4000x + 3e6
	q := Quadratic{A: 1, B: -4000, C: 3e6}

	rpm, in, err := q.Solve(0, 0, 5000)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !in || !almostEqual(rpm, 1000, 1e-9) {
		t.Errorf("Expected (1000, true), got (%v, %v)", rpm, in)
	}

	rpm, in, err = q.Solve(0, 2000, 5000)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !in || !almostEqual(rpm, 3000, 1e-9) {
		t.Errorf("Expected (3000, true), got (%v, %v)", rpm, in)
	}

	rpm, in, err = q.Solve(0, 4000, 5000)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if in || !almostEqual(rpm, 1000, 1e-9) {
		t.Errorf("Expected (1000, false) outside domain, got (%v, %v)", rpm, in)
	}

	if _, _, err = (Quadratic{A: 1, B: 10, C: 0}).Solve(0, 0, 100); !errors.Is(err, ErrNoRoot) {
		t.Errorf("Expected ErrNoRoot for non-positive roots, got %v", err)
	}
}

func TestQuadratic_Peak(t *testing.T) {
	tests := []struct {
		name   string
		q      Quadratic
		want   float64
		wantOK bool
	}{
		{"downward", Quadratic{A: -5e-8, B: 1.5e-3}, 15_000, true},
		{"upward", Quadratic{A: 5e-8, B: 1.5e-3}, 0, false},
		{"peak below zero", Quadratic{A: -1, B: -4}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.q.Peak()
			if ok != tt.wantOK {
				t.Fatalf("Expected ok=%v, got %v", tt.wantOK, ok)
			}
			if ok && math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSelectDomain_StartsAtFirstPositiveThrust(t *testing.T) {
	rpms := []float64{0, 1000, 2000, 3000, 4000, 5000, 6000, 7000}
	table := quadraticTable(rpms, 3)
	table.Thrust[0] = 0

	d, err := SelectDomain(table, 10)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if d.Start != 3 || d.MinRPM != 3000 {
		t.Errorf("Expected domain to start at row 3 (3000 RPM), got row %d (%v RPM)", d.Start, d.MinRPM)
	}
	for i := 0; i < d.Start; i++ {
		if table.Thrust[i] > 0 && table.RPM[i] > 0 {
			t.Errorf("Row %d has positive thrust before domain start", i)
		}
	}
	if d.End != len(rpms) || d.MaxRPM != 7000 {
		t.Errorf("Expected domain to end after 7000 RPM, got end %d (%v RPM)", d.End, d.MaxRPM)
	}
}

func TestSelectDomain_BoundedByMechanicalLimit(t *testing.T) {
	var rpms []float64
	for rpm := 1000.0; rpm <= 30_000; rpm += 1000 {
		rpms = append(rpms, rpm)
	}
	table := quadraticTable(rpms, 0)

	for _, diameter := range []float64{7, 10, 12.5, 19} {
		d, err := SelectDomain(table, diameter)
		if err != nil {
			t.Fatalf("Diameter %v: unexpected error: %v", diameter, err)
		}
		limit := propeller.MaxMechanicalRPM(diameter)
		if d.MaxRPM > limit {
			t.Errorf("Diameter %v: domain end %v exceeds limit %v", diameter, d.MaxRPM, limit)
		}
		for _, rpm := range d.Slice(table.RPM) {
			if rpm > limit {
				t.Errorf("Diameter %v: domain row %v exceeds limit %v", diameter, rpm, limit)
			}
		}
		if d.End < len(rpms) && table.RPM[d.End] <= limit {
			t.Errorf("Diameter %v: row %v below limit was excluded", diameter, table.RPM[d.End])
		}
	}
}

func TestSelectDomain_InsufficientData(t *testing.T) {
	// only 3 rows under the 19 000 RPM limit of a 10 inch propeller
	table := quadraticTable([]float64{17_000, 18_000, 19_000, 20_000, 21_000}, 0)
	if _, err := SelectDomain(table, 10); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}

	table = quadraticTable([]float64{1000, 2000, 3000, 4000}, 4)
	if _, err := SelectDomain(table, 10); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData without positive thrust, got %v", err)
	}
}

func TestFitCurves(t *testing.T) {
	table := quadraticTable([]float64{0, 2000, 4000, 6000, 8000, 10_000, 12_000}, 1)

	c, err := FitCurves(table, 10)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for i := c.Domain.Start; i < c.Domain.End; i++ {
		rpm := table.RPM[i]
		if !almostEqual(c.Thrust.Eval(rpm), table.Thrust[i], 1e-8) {
			t.Errorf("Thrust at %v: expected %v, got %v", rpm, table.Thrust[i], c.Thrust.Eval(rpm))
		}
		if !almostEqual(c.Torque.Eval(rpm), table.Torque[i], 1e-8) {
			t.Errorf("Torque at %v: expected %v, got %v", rpm, table.Torque[i], c.Torque.Eval(rpm))
		}
		if !almostEqual(c.Power.Eval(rpm), table.Power[i], 1e-8) {
			t.Errorf("Power at %v: expected %v, got %v", rpm, table.Power[i], c.Power.Eval(rpm))
		}
	}
}

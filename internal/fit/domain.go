package fit

import (
	"errors"
	"fmt"

	"github.com/roman-kulish/propeller-charts/internal/propeller"
)

// MinDomainPoints is the minimum number of rows required to fit the curves
const MinDomainPoints = 4

// ErrInsufficientData is returned when the fitting domain holds too few rows
var ErrInsufficientData = errors.New("insufficient data points for curve fitting")

// Domain is the contiguous range of table rows a fit is valid over. It starts
// at the first row with positive thrust, which skips the rows truncated to zero
// by the generator, and ends at the mechanical RPM limit.
type Domain struct {
	Start  int     // Index of the first row
	End    int     // Index after the last row
	MinRPM float64 // RPM of the first row
	MaxRPM float64 // RPM of the last row
	Limit  float64 // Mechanical RPM limit the domain was bounded by
}

// Len returns the number of rows in the domain.
func (d Domain) Len() int {
	return d.End - d.Start
}

// Contains reports whether rpm lies inside the domain.
func (d Domain) Contains(rpm float64) bool {
	return rpm >= d.MinRPM && rpm <= d.MaxRPM
}

// Slice returns the part of col covered by the domain.
func (d Domain) Slice(col []float64) []float64 {
	return col[d.Start:d.End]
}

// SelectDomain determines the fitting domain of a speed table.
func SelectDomain(t *propeller.Table, diameterInches float64) (Domain, error) {
	limit := propeller.MaxMechanicalRPM(diameterInches)
	if limit <= 0 {
		return Domain{}, fmt.Errorf("diameter %v in: %w", diameterInches, propeller.ErrInvalidName)
	}

	start := -1
	for i := 0; i < t.Len(); i++ {
		if t.RPM[i] > 0 && t.Thrust[i] > 0 {
			start = i
			break
		}
	}
	if start < 0 {
		return Domain{}, fmt.Errorf("no positive thrust values: %w", ErrInsufficientData)
	}

	end := start
	for end < t.Len() && t.RPM[end] <= limit {
		end++
	}

	d := Domain{Start: start, End: end, Limit: limit}
	if d.Len() < MinDomainPoints {
		return Domain{}, fmt.Errorf("%d points between first positive thrust and %0.f RPM, need %d: %w",
			d.Len(), limit, MinDomainPoints, ErrInsufficientData)
	}

	d.MinRPM = t.RPM[start]
	d.MaxRPM = t.RPM[end-1]
	return d, nil
}

// Curves are the independent fits of one speed table.
type Curves struct {
	Domain Domain
	Thrust Quadratic
	Torque Quadratic
	Power  Quadratic
}

// FitCurves fits thrust, torque and power against RPM over the table's domain.
func FitCurves(t *propeller.Table, diameterInches float64) (*Curves, error) {
	d, err := SelectDomain(t, diameterInches)
	if err != nil {
		return nil, err
	}

	rpm := d.Slice(t.RPM)
	c := &Curves{Domain: d}

	fits := []struct {
		name string
		col  []float64
		dst  *Quadratic
	}{
		{"thrust", t.Thrust, &c.Thrust},
		{"torque", t.Torque, &c.Torque},
		{"power", t.Power, &c.Power},
	}
	for _, f := range fits {
		q, err := FitQuadratic(rpm, d.Slice(f.col))
		if err != nil {
			return nil, fmt.Errorf("fitting %s: %w", f.name, err)
		}
		*f.dst = q
	}
	return c, nil
}

package lookup

import (
	"errors"
	"fmt"
	"math"

	"github.com/roman-kulish/propeller-charts/internal/fit"
	"github.com/roman-kulish/propeller-charts/internal/propeller"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
)

var (
	// ErrInvalidThrust is returned for a non-positive target thrust
	ErrInvalidThrust = errors.New("target thrust must be positive")

	// ErrInvalidSpeed is returned for a flight speed outside the dataset range
	ErrInvalidSpeed = errors.New("flight speed out of range")
)

// WarningKind classifies conditions that do not prevent a result.
type WarningKind string

const (
	SpeedSubstituted   WarningKind = "speed-substituted"
	ThrustExtrapolated WarningKind = "thrust-extrapolated"
	RPMLimitExceeded   WarningKind = "rpm-limit-exceeded"
)

// Warning is a non-fatal remark attached to an operating point.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	return w.Message
}

// OperatingPoint is the solution of a thrust lookup.
type OperatingPoint struct {
	Propeller      string    `json:"propeller"`
	RequestedSpeed float64   `json:"requestedSpeed"` // Flight speed asked for in m/s
	FlightSpeed    int       `json:"flightSpeed"`    // Flight speed of the table used in m/s
	TargetThrust   float64   `json:"targetThrust"`   // Requested thrust in N
	Thrust         float64   `json:"thrust"`         // Fitted thrust at RPM in N
	RPM            float64   `json:"rpm"`
	Torque         float64   `json:"torque"` // Nm
	Power          float64   `json:"power"`  // W
	AdvanceRatio   float64   `json:"advanceRatio"`
	CT             float64   `json:"ct"`
	CP             float64   `json:"cp"`
	Efficiency     float64   `json:"efficiency"`
	DiameterInches float64   `json:"diameterInches"`
	MaxRPM         float64   `json:"maxRPM"`
	Static         bool      `json:"static"` // Solved by direct interpolation at zero airspeed
	Warnings       []Warning `json:"warnings,omitempty"`

	Curves *fit.Curves `json:"-"` // Fits used for the solution, nil when static
}

// HasWarning reports whether a warning of the given kind was raised.
func (p *OperatingPoint) HasWarning(kind WarningKind) bool {
	for _, w := range p.Warnings {
		if w.Kind == kind {
			return true
		}
	}
	return false
}

// HorsePower returns the shaft power in HP.
func (p *OperatingPoint) HorsePower() float64 {
	return p.Power / propeller.WattsPerHorsepower
}

func (p *OperatingPoint) warn(kind WarningKind, format string, args ...any) {
	p.Warnings = append(p.Warnings, Warning{Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// Solver maps a target thrust at a flight speed back to an operating RPM.
type Solver struct {
	dataset *propeller.Dataset
}

// NewSolver creates a solver for the dataset.
func NewSolver(ds *propeller.Dataset) *Solver {
	return &Solver{dataset: ds}
}

// FindOperatingPoint returns the RPM and derived values producing targetThrust
// at flightSpeed. Warnings are attached to the result, errors abort the query.
func (s *Solver) FindOperatingPoint(targetThrust, flightSpeed float64) (*OperatingPoint, error) {
	if !(targetThrust > 0) {
		return nil, fmt.Errorf("%0.4f N: %w", targetThrust, ErrInvalidThrust)
	}
	if flightSpeed < propeller.MinSpeed || flightSpeed > propeller.MaxSpeed || math.IsNaN(flightSpeed) {
		return nil, fmt.Errorf("%0.2f m/s, expected %d-%d: %w", flightSpeed, propeller.MinSpeed, propeller.MaxSpeed, ErrInvalidSpeed)
	}

	speed, exact, err := s.dataset.NearestSpeed(flightSpeed)
	if err != nil {
		return nil, fmt.Errorf("selecting flight speed: %w", err)
	}

	op := &OperatingPoint{
		Propeller:      s.dataset.Name,
		RequestedSpeed: flightSpeed,
		FlightSpeed:    speed,
		TargetThrust:   targetThrust,
		DiameterInches: s.dataset.DiameterInches,
		MaxRPM:         s.dataset.MaxMechanicalRPM(),
	}
	if !exact {
		op.warn(SpeedSubstituted, "flight speed %g m/s not in data, using closest available speed %d m/s", flightSpeed, speed)
	}

	table, _ := s.dataset.Table(speed)
	if speed == 0 {
		err = s.solveStatic(op, table)
	} else {
		err = s.solveFitted(op, table)
	}
	if err != nil {
		return nil, err
	}

	if op.RPM > op.MaxRPM {
		op.warn(RPMLimitExceeded, "required RPM %0.f exceeds maximum mechanical RPM %0.f, this operating point may damage the propeller", op.RPM, op.MaxRPM)
	}
	return op, nil
}

func (s *Solver) solveFitted(op *OperatingPoint, t *propeller.Table) error {
	curves, err := fit.FitCurves(t, s.dataset.DiameterInches)
	if err != nil {
		return fmt.Errorf("fitting curves at %d m/s: %w", op.FlightSpeed, err)
	}
	d := curves.Domain
	op.Curves = curves

	thrust := d.Slice(t.Thrust)
	minThrust, maxThrust := floats.Min(thrust), floats.Max(thrust)
	checkThrustRange(op, minThrust, maxThrust)

	rpm, inDomain, err := curves.Thrust.Solve(op.TargetThrust, d.MinRPM, d.MaxRPM)
	switch {
	case errors.Is(err, fit.ErrNoRoot):
		// a downward bending curve never reaches the target, settle at its peak
		peak, ok := curves.Thrust.Peak()
		if !ok {
			return fmt.Errorf("solving for RPM: %w", err)
		}
		rpm = math.Min(math.Max(peak, d.MinRPM), d.MaxRPM)
		op.warn(ThrustExtrapolated, "target thrust %0.2f N is above the fitted maximum %0.2f N, using %0.f RPM", op.TargetThrust, curves.Thrust.Eval(rpm), rpm)
	case err != nil:
		return fmt.Errorf("solving for RPM: %w", err)
	case !inDomain && !op.HasWarning(ThrustExtrapolated):
		op.warn(ThrustExtrapolated, "solved RPM %0.f lies outside fitted range %0.f-%0.f RPM, result is extrapolated", rpm, d.MinRPM, d.MaxRPM)
	}

	op.RPM = rpm
	op.Thrust = curves.Thrust.Eval(rpm)
	op.Torque = curves.Torque.Eval(rpm)
	op.Power = curves.Power.Eval(rpm)

	rpms := d.Slice(t.RPM)
	targets := []struct {
		col []float64
		dst *float64
	}{
		{t.AdvanceRatio, &op.AdvanceRatio},
		{t.CT, &op.CT},
		{t.CP, &op.CP},
		{t.Efficiency, &op.Efficiency},
	}
	for _, tg := range targets {
		v, err := interpolate(rpms, d.Slice(tg.col), rpm)
		if err != nil {
			return fmt.Errorf("interpolating coefficients: %w", err)
		}
		*tg.dst = v
	}
	return nil
}

// solveStatic handles zero airspeed, where torque and power are too non-linear
// in RPM for a polynomial fit and the table is interpolated directly.
func (s *Solver) solveStatic(op *OperatingPoint, t *propeller.Table) error {
	op.Static = true

	var rpm, thrust, torque, power, ct, cp []float64
	for i := 0; i < t.Len(); i++ {
		if t.RPM[i] <= 0 {
			continue
		}
		rpm = append(rpm, t.RPM[i])
		thrust = append(thrust, t.Thrust[i])
		torque = append(torque, t.Torque[i])
		power = append(power, t.Power[i])
		ct = append(ct, t.CT[i])
		cp = append(cp, t.CP[i])
	}
	if len(rpm) < 2 {
		return fmt.Errorf("static thrust with %d rows: %w", len(rpm), fit.ErrInsufficientData)
	}

	checkThrustRange(op, floats.Min(thrust), floats.Max(thrust))

	// thrust -> rpm needs a strictly increasing abscissa, keep the monotone envelope
	var tx, ty []float64
	for i := range thrust {
		if len(tx) == 0 || thrust[i] > tx[len(tx)-1] {
			tx = append(tx, thrust[i])
			ty = append(ty, rpm[i])
		}
	}

	var err error
	if op.RPM, err = interpolate(tx, ty, op.TargetThrust); err != nil {
		return fmt.Errorf("interpolating RPM: %w", err)
	}

	targets := []struct {
		col []float64
		dst *float64
	}{
		{torque, &op.Torque},
		{power, &op.Power},
		{ct, &op.CT},
		{cp, &op.CP},
	}
	for _, tg := range targets {
		v, err := interpolate(rpm, tg.col, op.RPM)
		if err != nil {
			return fmt.Errorf("interpolating static values: %w", err)
		}
		*tg.dst = v
	}

	op.Thrust = op.TargetThrust
	op.AdvanceRatio = 0
	op.Efficiency = 0
	return nil
}

func checkThrustRange(op *OperatingPoint, minThrust, maxThrust float64) {
	switch {
	case op.TargetThrust > maxThrust:
		op.warn(ThrustExtrapolated, "target thrust %0.2f N exceeds maximum tested thrust %0.2f N, result is extrapolated", op.TargetThrust, maxThrust)
	case op.TargetThrust < minThrust:
		op.warn(ThrustExtrapolated, "target thrust %0.2f N is below minimum tested thrust %0.2f N, result is extrapolated", op.TargetThrust, minThrust)
	}
}

// interpolate evaluates the piecewise linear interpolant of (xs, ys) at x.
// Outside the data range the end values are returned. At a node the tabulated
// value is returned exactly.
func interpolate(xs, ys []float64, x float64) (float64, error) {
	if len(xs) == 1 {
		return ys[0], nil
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return 0, err
	}
	return pl.Predict(x), nil
}

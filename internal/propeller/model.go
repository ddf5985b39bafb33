package propeller

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

const (
	// MinSpeed and MaxSpeed bound the integer flight speeds (m/s) of a dataset
	MinSpeed = 0
	MaxSpeed = 100

	// MechanicalRPMConstant is divided by the diameter in inches to get the maximum safe RPM
	MechanicalRPMConstant = 190_000.0

	// MetersPerInch converts propeller diameters
	MetersPerInch = 0.0254

	// WattsPerHorsepower converts shaft power
	WattsPerHorsepower = 745.7
)

var (
	// ErrColumnMismatch is returned when the columns of a table differ in length
	ErrColumnMismatch = errors.New("columns differ in length")

	// ErrUnorderedRPM is returned when table rows are not sorted by strictly increasing RPM
	ErrUnorderedRPM = errors.New("rpm column is not strictly increasing")

	// ErrEmptyDataset is returned when a dataset has no speed tables
	ErrEmptyDataset = errors.New("dataset has no speed tables")
)

// Row is a single operating point of a propeller at one flight speed and RPM.
type Row struct {
	RPM          float64 `json:"rpm"`          // Rotational speed in revolutions per minute
	AdvanceRatio float64 `json:"advanceRatio"` // J = V / (n * D), dimensionless
	Efficiency   float64 `json:"efficiency"`   // Propulsive efficiency η
	CT           float64 `json:"ct"`           // Thrust coefficient
	CP           float64 `json:"cp"`           // Power coefficient
	CQ           float64 `json:"cq"`           // Torque coefficient
	Power        float64 `json:"power"`        // Shaft power in W
	Torque       float64 `json:"torque"`       // Torque in Nm
	Thrust       float64 `json:"thrust"`       // Thrust in N
}

// Table holds the aligned columns of one flight speed. Index i of every column
// belongs to the same RPM.
type Table struct {
	RPM          []float64 `json:"rpm"`
	AdvanceRatio []float64 `json:"advanceRatio"`
	Efficiency   []float64 `json:"efficiency"`
	CT           []float64 `json:"ct"`
	CP           []float64 `json:"cp"`
	CQ           []float64 `json:"cq"`
	Power        []float64 `json:"power"`
	Torque       []float64 `json:"torque"`
	Thrust       []float64 `json:"thrust"`
}

// NewTable builds a table from rows, sorted by ascending RPM.
func NewTable(rows []Row) *Table {
	sorted := slices.Clone(rows)
	slices.SortFunc(sorted, func(a, b Row) int {
		switch {
		case a.RPM < b.RPM:
			return -1
		case a.RPM > b.RPM:
			return 1
		}
		return 0
	})

	t := &Table{}
	for _, r := range sorted {
		t.Append(r)
	}
	return t
}

// Append adds a row to the end of the table.
func (t *Table) Append(r Row) {
	t.RPM = append(t.RPM, r.RPM)
	t.AdvanceRatio = append(t.AdvanceRatio, r.AdvanceRatio)
	t.Efficiency = append(t.Efficiency, r.Efficiency)
	t.CT = append(t.CT, r.CT)
	t.CP = append(t.CP, r.CP)
	t.CQ = append(t.CQ, r.CQ)
	t.Power = append(t.Power, r.Power)
	t.Torque = append(t.Torque, r.Torque)
	t.Thrust = append(t.Thrust, r.Thrust)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.RPM)
}

// Row returns row i.
func (t *Table) Row(i int) Row {
	return Row{
		RPM:          t.RPM[i],
		AdvanceRatio: t.AdvanceRatio[i],
		Efficiency:   t.Efficiency[i],
		CT:           t.CT[i],
		CP:           t.CP[i],
		CQ:           t.CQ[i],
		Power:        t.Power[i],
		Torque:       t.Torque[i],
		Thrust:       t.Thrust[i],
	}
}

// IndexOfRPM returns the index of the row with exactly the given RPM, or -1.
func (t *Table) IndexOfRPM(rpm float64) int {
	i, ok := slices.BinarySearch(t.RPM, rpm)
	if !ok {
		return -1
	}
	return i
}

// Validate checks that all columns are aligned and RPM is strictly increasing.
func (t *Table) Validate() error {
	n := len(t.RPM)
	columns := map[string][]float64{
		"J":   t.AdvanceRatio,
		"eta": t.Efficiency,
		"CT":  t.CT,
		"CP":  t.CP,
		"CQ":  t.CQ,
		"P":   t.Power,
		"Q":   t.Torque,
		"T":   t.Thrust,
	}
	for name, col := range columns {
		if len(col) != n {
			return fmt.Errorf("column %s has %d rows, rpm has %d: %w", name, len(col), n, ErrColumnMismatch)
		}
	}
	for i := 1; i < n; i++ {
		if !(t.RPM[i] > t.RPM[i-1]) {
			return fmt.Errorf("row %d: %0.f after %0.f: %w", i, t.RPM[i], t.RPM[i-1], ErrUnorderedRPM)
		}
	}
	return nil
}

// Dataset is the full characteristic of a single propeller, keyed by integer flight speed in m/s.
type Dataset struct {
	Name           string         `json:"name"`           // Propeller identifier, e.g. D10P7B2TE
	DiameterInches float64        `json:"diameterInches"` // Diameter parsed from the name
	Tables         map[int]*Table `json:"tables"`         // Characteristic tables keyed by flight speed
}

// NewDataset creates an empty dataset for the named propeller. The diameter is
// parsed from the name.
func NewDataset(name string) (*Dataset, error) {
	d, err := ParseDiameter(name)
	if err != nil {
		return nil, err
	}
	return &Dataset{
		Name:           name,
		DiameterInches: d,
		Tables:         make(map[int]*Table),
	}, nil
}

// Speeds returns the available flight speeds in ascending order.
func (d *Dataset) Speeds() []int {
	speeds := make([]int, 0, len(d.Tables))
	for v := range d.Tables {
		speeds = append(speeds, v)
	}
	slices.Sort(speeds)
	return speeds
}

// Table returns the table of the given speed.
func (d *Dataset) Table(speed int) (*Table, bool) {
	t, ok := d.Tables[speed]
	return t, ok
}

// NearestSpeed returns the available speed closest to v. Ties resolve to the
// lower speed. exact reports whether v itself is a key of the dataset.
func (d *Dataset) NearestSpeed(v float64) (speed int, exact bool, err error) {
	speeds := d.Speeds()
	if len(speeds) == 0 {
		return 0, false, ErrEmptyDataset
	}

	speed = speeds[0]
	best := math.Abs(float64(speed) - v)
	for _, s := range speeds[1:] {
		if diff := math.Abs(float64(s) - v); diff < best {
			speed, best = s, diff
		}
	}
	return speed, best == 0, nil
}

// RPMs returns the distinct tested RPM values present in any speed table,
// ascending. The zero RPM row of each table is not a tested point.
func (d *Dataset) RPMs() []float64 {
	var all []float64
	for _, t := range d.Tables {
		for _, r := range t.RPM {
			if r > 0 {
				all = append(all, r)
			}
		}
	}
	slices.Sort(all)
	return slices.Compact(all)
}

// NearestRPM returns the tested RPM closest to rpm. Ties resolve to the lower RPM.
func (d *Dataset) NearestRPM(rpm float64) (nearest float64, exact bool, err error) {
	rpms := d.RPMs()
	if len(rpms) == 0 {
		return 0, false, ErrEmptyDataset
	}

	nearest = rpms[0]
	best := math.Abs(nearest - rpm)
	for _, r := range rpms[1:] {
		if diff := math.Abs(r - rpm); diff < best {
			nearest, best = r, diff
		}
	}
	return nearest, best == 0, nil
}

// MaxMechanicalRPM returns the manufacturer limit for this propeller.
func (d *Dataset) MaxMechanicalRPM() float64 {
	return MaxMechanicalRPM(d.DiameterInches)
}

// DiameterMeters returns the diameter in meters.
func (d *Dataset) DiameterMeters() float64 {
	return d.DiameterInches * MetersPerInch
}

// Validate checks every speed table.
func (d *Dataset) Validate() error {
	if len(d.Tables) == 0 {
		return ErrEmptyDataset
	}
	for _, v := range d.Speeds() {
		if v < MinSpeed || v > MaxSpeed {
			return fmt.Errorf("speed %d outside %d-%d m/s", v, MinSpeed, MaxSpeed)
		}
		if err := d.Tables[v].Validate(); err != nil {
			return fmt.Errorf("speed %d m/s: %w", v, err)
		}
	}
	return nil
}

package generator

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/interp"

	"github.com/roman-kulish/propeller-charts/internal/propeller"
)

const (
	// AirDensity is the sea level air density in kg/m³ used for the coefficients
	AirDensity = 1.225

	datExtension = ".dat"
)

// ErrNoData is returned when a propeller folder holds no usable performance files
var ErrNoData = errors.New("no usable performance data")

// Generator builds characteristic datasets from per-RPM performance files.
// Each propeller is a folder in dataDir named after it, holding one
// <rpm>.dat file per tested rotational speed.
type Generator struct {
	dataDir string
	logger  *slog.Logger
}

// New creates a generator reading propeller folders from dataDir.
func New(dataDir string, logger *slog.Logger) *Generator {
	return &Generator{dataDir: dataDir, logger: logger}
}

// Propellers returns the sorted names of the propeller folders. A missing data
// directory yields no names.
func (g *Generator) Propellers() ([]string, error) {
	entries, err := os.ReadDir(g.dataDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading data directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

type rpmSamples struct {
	rpm     float64
	samples []Sample
}

// Generate builds the dataset of the named propeller. Unreadable files are
// skipped with a warning; the dataset fails only when no file is usable.
func (g *Generator) Generate(name string) (*propeller.Dataset, error) {
	ds, err := propeller.NewDataset(name)
	if err != nil {
		return nil, err
	}

	files, err := g.readFolder(filepath.Join(g.dataDir, name))
	if err != nil {
		return nil, err
	}

	diameter := ds.DiameterMeters()
	rows := make([][]propeller.Row, propeller.MaxSpeed+1)

	for _, f := range files {
		filled, err := fillSpeeds(f.samples)
		if err != nil {
			g.logger.Warn("Skipping performance file", "propeller", name, "rpm", f.rpm, "error", err)
			continue
		}
		for v, r := range filled {
			r.RPM = f.rpm
			computeCoefficients(&r, float64(v), diameter)
			rows[v] = append(rows[v], r)
		}
	}

	if len(rows[0]) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrNoData)
	}

	for v := range rows {
		ds.Tables[v] = propeller.NewTable(append(rows[v], propeller.Row{}))
	}

	if err = ds.Validate(); err != nil {
		return nil, fmt.Errorf("validating %s: %w", name, err)
	}
	return ds, nil
}

func (g *Generator) readFolder(folder string) ([]rpmSamples, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("reading propeller folder: %w", err)
	}

	var files []rpmSamples
	seen := make(map[float64]string)

	for _, e := range entries {
		file := e.Name()
		if e.IsDir() || !strings.HasSuffix(file, datExtension) {
			continue
		}

		rpm, err := strconv.Atoi(strings.TrimSuffix(file, datExtension))
		if err != nil || rpm <= 0 {
			g.logger.Warn("Skipping file without a positive RPM name", "file", file)
			continue
		}
		if prev, ok := seen[float64(rpm)]; ok {
			g.logger.Warn("Skipping duplicate RPM file", "file", file, "duplicate", prev)
			continue
		}

		samples, err := ReadDat(filepath.Join(folder, file))
		if err != nil {
			g.logger.Warn("Skipping unreadable performance file", "file", file, "error", err)
			continue
		}

		seen[float64(rpm)] = file
		files = append(files, rpmSamples{rpm: float64(rpm), samples: samples})
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no .dat files in %s: %w", folder, ErrNoData)
	}
	return files, nil
}

// fillSpeeds returns thrust, torque and power at every integer speed from
// MinSpeed to MaxSpeed. Thrust and torque use an Akima spline, power a natural
// cubic spline. Speeds outside the tested range are zero.
func fillSpeeds(samples []Sample) ([]propeller.Row, error) {
	sorted := slices.Clone(samples)
	slices.SortStableFunc(sorted, func(a, b Sample) int {
		return cmp.Compare(a.V, b.V)
	})
	sorted = slices.CompactFunc(sorted, func(a, b Sample) bool {
		return a.V == b.V
	})
	sorted = slices.DeleteFunc(sorted, func(s Sample) bool {
		return math.IsNaN(s.V)
	})
	if len(sorted) == 0 {
		return nil, ErrNoData
	}

	n := len(sorted)
	v := make([]float64, n)
	thrust := make([]float64, n)
	torque := make([]float64, n)
	power := make([]float64, n)
	for i, s := range sorted {
		v[i], thrust[i], torque[i], power[i] = s.V, s.Thrust, s.Torque, s.Power
	}

	var thrustFit, torqueFit, powerFit interp.FittablePredictor
	switch {
	case n == 1:
		thrustFit = constant{thrust[0]}
		torqueFit = constant{torque[0]}
		powerFit = constant{power[0]}
	case n == 2:
		thrustFit = &interp.PiecewiseLinear{}
		torqueFit = &interp.PiecewiseLinear{}
		powerFit = &interp.PiecewiseLinear{}
	default:
		thrustFit = &interp.AkimaSpline{}
		torqueFit = &interp.AkimaSpline{}
		powerFit = &interp.NaturalCubic{}
	}

	fits := []struct {
		name string
		p    interp.FittablePredictor
		ys   []float64
	}{
		{"thrust", thrustFit, thrust},
		{"torque", torqueFit, torque},
		{"power", powerFit, power},
	}
	for _, f := range fits {
		if err := f.p.Fit(v, f.ys); err != nil {
			return nil, fmt.Errorf("interpolating %s: %w", f.name, err)
		}
	}

	lo, hi := v[0], v[n-1]
	rows := make([]propeller.Row, propeller.MaxSpeed+1)
	for speed := range rows {
		x := float64(speed)
		if x < lo || x > hi {
			continue
		}
		rows[speed] = propeller.Row{
			Thrust: thrustFit.Predict(x),
			Torque: torqueFit.Predict(x),
			Power:  powerFit.Predict(x),
		}
	}
	return rows, nil
}

// computeCoefficients derives J, CT, CP, CQ and η of r at airspeed v for a
// propeller of the given diameter in meters.
func computeCoefficients(r *propeller.Row, v, diameter float64) {
	n := r.RPM / 60
	if n > 0 {
		r.AdvanceRatio = v / (n * diameter)
		r.CT = r.Thrust / (AirDensity * n * n * math.Pow(diameter, 4))
		r.CP = r.Power / (AirDensity * n * n * n * math.Pow(diameter, 5))
	}
	r.CQ = r.CP / (2 * math.Pi)
	if r.CP > 0 {
		r.Efficiency = r.CT * r.AdvanceRatio / r.CP
	}
}

// constant predicts a single sample everywhere.
type constant struct {
	y float64
}

func (c constant) Fit(_, _ []float64) error { return nil }

func (c constant) Predict(float64) float64 { return c.y }

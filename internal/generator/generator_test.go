package generator

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/roman-kulish/propeller-charts/internal/propeller"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol*math.Max(1, math.Abs(b))
}

// linearDat renders a performance file with thrust, torque and power linear
// in airspeed between 0 and 20 m/s, including a non-integer airspeed.
func linearDat(scale float64) string {
	var sb strings.Builder
	sb.WriteString("# V, J, eta, CT, CP, P, Q, T\n")
	sb.WriteString("#\n\n")
	for _, v := range []float64{0, 2, 3.5, 4, 6, 8, 10, 12, 14, 16, 18, 20} {
		fmt.Fprintf(&sb, "%g, 0.1, 0.5, 0.1, 0.05, %g, %g, %g\n",
			v, scale*(200-5*v), scale*(0.4-0.01*v), scale*(10-0.4*v))
	}
	return sb.String()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func TestParseDat(t *testing.T) {
	samples, err := ParseDat(strings.NewReader(linearDat(1)))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(samples) != 12 {
		t.Fatalf("Expected 12 samples, got %d", len(samples))
	}
	if s := samples[2]; s.V != 3.5 || s.Thrust != 10-0.4*3.5 || s.Power != 200-5*3.5 {
		t.Errorf("Unexpected sample %+v", s)
	}

	if _, err = ParseDat(strings.NewReader("1, 2, 3\n")); err == nil {
		t.Error("Expected error for short line")
	}
	if _, err = ParseDat(strings.NewReader("1, 2, 3, 4, 5, 6, x, 8\n")); err == nil {
		t.Error("Expected error for non-numeric value")
	}
}

func TestGenerator_Generate(t *testing.T) {
	dir := t.TempDir()
	folder := filepath.Join(dir, "D10P7B2TE")
	writeFile(t, filepath.Join(folder, "5000.dat"), linearDat(1))
	writeFile(t, filepath.Join(folder, "10000.dat"), linearDat(4))
	writeFile(t, filepath.Join(folder, "3000.dat"), "not, a, number\n")
	writeFile(t, filepath.Join(folder, "notes.dat"), linearDat(1))
	writeFile(t, filepath.Join(folder, "readme.txt"), "ignored")

	g := New(dir, discardLogger)

	names, err := g.Propellers()
	if err != nil {
		t.Fatalf("Failed to list propellers: %v", err)
	}
	if len(names) != 1 || names[0] != "D10P7B2TE" {
		t.Fatalf("Expected [D10P7B2TE], got %v", names)
	}

	ds, err := g.Generate("D10P7B2TE")
	if err != nil {
		t.Fatalf("Failed to generate: %v", err)
	}

	if len(ds.Tables) != propeller.MaxSpeed+1 {
		t.Fatalf("Expected %d speed tables, got %d", propeller.MaxSpeed+1, len(ds.Tables))
	}
	for v, table := range ds.Tables {
		if table.Len() != 3 || table.RPM[0] != 0 || table.RPM[1] != 5000 || table.RPM[2] != 10_000 {
			t.Fatalf("Speed %d: expected RPM [0 5000 10000], got %v", v, table.RPM)
		}
		if zero := table.Row(0); zero != (propeller.Row{}) {
			t.Errorf("Speed %d: expected all-zero row at 0 RPM, got %+v", v, zero)
		}
	}

	// tabulated speed is reproduced exactly, interpolated speeds follow the line
	table, _ := ds.Table(0)
	if table.Thrust[1] != 10 {
		t.Errorf("Expected tabulated thrust 10 at 0 m/s, got %v", table.Thrust[1])
	}
	table, _ = ds.Table(7)
	if !almostEqual(table.Thrust[1], 10-0.4*7, 1e-9) {
		t.Errorf("Expected thrust %v at 7 m/s, got %v", 10-0.4*7, table.Thrust[1])
	}
	if !almostEqual(table.Power[2], 4*(200-5*7), 1e-9) {
		t.Errorf("Expected power %v at 7 m/s, got %v", 4*(200-5*7), table.Power[2])
	}

	// outside the tested range everything is zero
	table, _ = ds.Table(21)
	if table.Thrust[1] != 0 || table.Torque[1] != 0 || table.Power[1] != 0 || table.Efficiency[1] != 0 {
		t.Errorf("Expected zero values above tested range, got %+v", table.Row(1))
	}

	// coefficients are recomputed from the physical values
	table, _ = ds.Table(10)
	r := table.Row(1)
	n := 5000.0 / 60
	d := 10 * propeller.MetersPerInch
	wantJ := 10 / (n * d)
	wantCT := r.Thrust / (AirDensity * n * n * math.Pow(d, 4))
	wantCP := r.Power / (AirDensity * n * n * n * math.Pow(d, 5))
	if !almostEqual(r.AdvanceRatio, wantJ, 1e-12) {
		t.Errorf("Expected J %v, got %v", wantJ, r.AdvanceRatio)
	}
	if !almostEqual(r.CT, wantCT, 1e-12) || !almostEqual(r.CP, wantCP, 1e-12) {
		t.Errorf("Expected CT/CP %v/%v, got %v/%v", wantCT, wantCP, r.CT, r.CP)
	}
	if !almostEqual(r.CQ, wantCP/(2*math.Pi), 1e-12) {
		t.Errorf("Expected CQ %v, got %v", wantCP/(2*math.Pi), r.CQ)
	}
	if !almostEqual(r.Efficiency, wantCT*wantJ/wantCP, 1e-12) {
		t.Errorf("Expected efficiency %v, got %v", wantCT*wantJ/wantCP, r.Efficiency)
	}
}

func TestGenerator_Errors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "D10P7B2TE", "readme.txt"), "no data")
	writeFile(t, filepath.Join(dir, "Broken", "5000.dat"), linearDat(1))

	g := New(dir, discardLogger)

	if _, err := g.Generate("D10P7B2TE"); !errors.Is(err, ErrNoData) {
		t.Errorf("Expected ErrNoData, got %v", err)
	}
	if _, err := g.Generate("Broken"); !errors.Is(err, propeller.ErrInvalidName) {
		t.Errorf("Expected ErrInvalidName, got %v", err)
	}

	names, err := New(filepath.Join(dir, "missing"), discardLogger).Propellers()
	if err != nil || len(names) != 0 {
		t.Errorf("Expected no propellers for a missing directory, got %v, %v", names, err)
	}
}

func TestFillSpeeds_FewSamples(t *testing.T) {
	rows, err := fillSpeeds([]Sample{{V: 5, Thrust: 3, Torque: 0.1, Power: 50}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if rows[5].Thrust != 3 || rows[4].Thrust != 0 || rows[6].Thrust != 0 {
		t.Errorf("Expected a single filled speed, got %v/%v/%v", rows[4].Thrust, rows[5].Thrust, rows[6].Thrust)
	}

	rows, err = fillSpeeds([]Sample{{V: 0, Thrust: 4}, {V: 2, Thrust: 2}, {V: 2, Thrust: 99}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if rows[1].Thrust != 3 || rows[2].Thrust != 2 {
		t.Errorf("Expected linear fill with the first duplicate kept, got %v/%v", rows[1].Thrust, rows[2].Thrust)
	}

	if _, err = fillSpeeds(nil); !errors.Is(err, ErrNoData) {
		t.Errorf("Expected ErrNoData, got %v", err)
	}
}

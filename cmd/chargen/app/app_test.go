package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/roman-kulish/propeller-charts/internal/storage"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func writeDat(t *testing.T, path string, scale float64) {
	t.Helper()

	var sb strings.Builder
	sb.WriteString("# V, J, eta, CT, CP, P, Q, T\n")
	for v := 0; v <= 20; v += 2 {
		fmt.Fprintf(&sb, "%d, 0.1, 0.5, 0.1, 0.05, %g, %g, %g\n",
			v, scale*(200-5*float64(v)), scale*(0.4-0.01*float64(v)), scale*(10-0.4*float64(v)))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

// newPerformanceDir holds two valid propellers and one without data files.
func newPerformanceDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	for _, name := range []string{"D10P7B2TE", "D7P4B2E"} {
		writeDat(t, filepath.Join(dir, name, "5000.dat"), 1)
		writeDat(t, filepath.Join(dir, name, "10000.dat"), 4)
	}
	if err := os.MkdirAll(filepath.Join(dir, "D8P6E"), 0o755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	return dir
}

func execute(args ...string) (string, error) {
	var out bytes.Buffer
	cmd := NewCommand(discardLogger, nil)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommand_List(t *testing.T) {
	dataDir := newPerformanceDir(t)

	out, err := execute("--list", "--data-dir", dataDir)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for _, want := range []string{"3 propellers", "1. D10P7B2TE", "3. D8P6E"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
}

func TestCommand_GenerateNamed(t *testing.T) {
	dataDir := newPerformanceDir(t)
	outDir := filepath.Join(t.TempDir(), "characteristics")

	out, err := execute("--data-dir", dataDir, "--output-dir", outDir, "D10P7B2TE", "D12P6E")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(out, "Success: 1, Failed: 0, Total: 1") {
		t.Errorf("Unexpected summary:\n%s", out)
	}
	// 101 speeds with the zero row and two tested RPMs each
	if !strings.Contains(out, "OK (303 rows)") {
		t.Errorf("Unexpected progress line:\n%s", out)
	}

	ds, err := storage.NewCatalog(outDir).Load(context.Background(), "D10P7B2TE")
	if err != nil {
		t.Fatalf("Failed to load generated dataset: %v", err)
	}
	if len(ds.Tables) != 101 || ds.DiameterInches != 10 {
		t.Errorf("Expected 101 tables of a 10 in propeller, got %d of %v in", len(ds.Tables), ds.DiameterInches)
	}
}

func TestCommand_GenerateAllReportsFailures(t *testing.T) {
	dataDir := newPerformanceDir(t)
	outDir := t.TempDir()

	out, err := execute("-a", "-v", "--data-dir", dataDir, "--output-dir", outDir)
	if err == nil {
		t.Fatal("Expected error when a propeller fails")
	}
	if !strings.Contains(out, "D8P6E ... FAILED") || !strings.Contains(out, "Success: 2, Failed: 1, Total: 3") {
		t.Errorf("Unexpected output:\n%s", out)
	}

	names, err := storage.NewCatalog(outDir).Propellers()
	if err != nil {
		t.Fatalf("Failed to list datasets: %v", err)
	}
	if len(names) != 2 {
		t.Errorf("Expected 2 datasets, got %v", names)
	}
}

func TestCommand_Errors(t *testing.T) {
	dataDir := newPerformanceDir(t)

	if _, err := execute("--data-dir", dataDir); err == nil {
		t.Error("Expected error without names")
	}
	if _, err := execute("--data-dir", dataDir, "--output-dir", t.TempDir(), "D12P6E"); err == nil {
		t.Error("Expected error when no given propeller exists")
	}
}

package propeller

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidName is returned when the diameter cannot be parsed from a propeller name
var ErrInvalidName = errors.New("invalid propeller name")

// ParseDiameter extracts the diameter in inches from names like D10P7B2TE or
// D10-5P4-5B2E, where '-' stands for the decimal point.
func ParseDiameter(name string) (float64, error) {
	if !strings.HasPrefix(name, "D") {
		return 0, fmt.Errorf("%q: missing 'D' prefix: %w", name, ErrInvalidName)
	}

	end := strings.IndexByte(name, 'P')
	if end < 2 {
		return 0, fmt.Errorf("%q: missing pitch marker: %w", name, ErrInvalidName)
	}

	raw := strings.ReplaceAll(name[1:end], "-", ".")
	d, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%q: parsing diameter %q: %w", name, raw, ErrInvalidName)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%q: diameter must be positive: %w", name, ErrInvalidName)
	}
	return d, nil
}

// MaxMechanicalRPM approximates the maximum safe rotational speed of a propeller.
func MaxMechanicalRPM(diameterInches float64) float64 {
	if diameterInches <= 0 {
		return 0
	}
	return MechanicalRPMConstant / diameterInches
}

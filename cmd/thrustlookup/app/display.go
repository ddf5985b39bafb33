package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/propeller-charts/internal/lookup"
)

const (
	lowEfficiency  = 0.3
	goodEfficiency = 0.8
	veryLowRPM     = 1000
)

// writeOperatingPoint prints the result block of a lookup.
func writeOperatingPoint(w io.Writer, op *lookup.OperatingPoint) {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Operating point of %s (%g in)\n", op.Propeller, op.DiameterInches))
	sb.WriteString(strings.Repeat("-", 44) + "\n")
	if float64(op.FlightSpeed) != op.RequestedSpeed {
		sb.WriteString(fmt.Sprintf("  Flight speed:    %d m/s (requested %g m/s)\n", op.FlightSpeed, op.RequestedSpeed))
	} else {
		sb.WriteString(fmt.Sprintf("  Flight speed:    %d m/s\n", op.FlightSpeed))
	}
	sb.WriteString(fmt.Sprintf("  Target thrust:   %.2f N\n", op.TargetThrust))
	sb.WriteString(fmt.Sprintf("  Required RPM:    %.0f (max %.0f)\n", op.RPM, op.MaxRPM))
	sb.WriteString(fmt.Sprintf("  Torque:          %.4f Nm\n", op.Torque))
	sb.WriteString(fmt.Sprintf("  Power:           %s (%.3f HP)\n", humanize.SIWithDigits(op.Power, 2, "W"), op.HorsePower()))
	sb.WriteString(fmt.Sprintf("  Advance ratio J: %.4f\n", op.AdvanceRatio))
	sb.WriteString(fmt.Sprintf("  CT:              %.5f\n", op.CT))
	sb.WriteString(fmt.Sprintf("  CP:              %.5f\n", op.CP))
	if op.Static {
		sb.WriteString("  Efficiency:      n/a (static thrust)\n")
	} else {
		sb.WriteString(fmt.Sprintf("  Efficiency:      %.1f%%\n", op.Efficiency*100))
	}

	if op.Curves != nil {
		sb.WriteString(fmt.Sprintf("  Thrust fit:      %s\n", op.Curves.Thrust))
	}

	if notes := guidance(op); len(notes) > 0 {
		sb.WriteString("\n")
		for _, n := range notes {
			sb.WriteString("  * " + n + "\n")
		}
	}

	_, _ = io.WriteString(w, sb.String())
}

// guidance returns remarks on the quality of an operating point.
func guidance(op *lookup.OperatingPoint) []string {
	var notes []string
	for _, w := range op.Warnings {
		notes = append(notes, "Warning: "+w.Message)
	}

	if !op.Static {
		switch {
		case op.Efficiency < lowEfficiency:
			notes = append(notes, "Low efficiency, consider a different propeller or flight speed")
		case op.Efficiency > goodEfficiency:
			notes = append(notes, "Good efficiency at this operating point")
		}
	}
	if op.RPM < veryLowRPM {
		notes = append(notes, "Very low RPM, results may be less accurate")
	}
	return notes
}

package chart

import (
	"errors"
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/roman-kulish/propeller-charts/internal/fit"
	"github.com/roman-kulish/propeller-charts/internal/propeller"
)

// Kind names the sweep a chart shows. It is used in output file names.
type Kind string

const (
	RPMKind     Kind = "rpm" // Thrust, torque and power against RPM at one flight speed
	AdvanceKind Kind = "j"   // CT, CP and η against advance ratio at one RPM
)

const (
	fitSamples   = 200
	headroom     = 0.08 // Fraction of the value range added above the data
	labelSpacing = 0.06 // Minimum label distance as a fraction of the value range
)

var (
	// ErrNoTable is returned when the dataset has no table for the requested speed
	ErrNoTable = errors.New("no characteristic table for flight speed")

	// ErrNoRPMData is returned when too few speeds were tested at the requested RPM
	ErrNoRPMData = errors.New("not enough tested points at rpm")

	limitDashes  = []vg.Length{vg.Points(6), vg.Points(3)}
	markerDashes = []vg.Length{vg.Points(3), vg.Points(3)}
)

// Chart is a stack of panels sharing the horizontal axis quantity.
type Chart struct {
	Kind   Kind
	Value  float64 // Flight speed in m/s or RPM the chart was built for
	Title  string
	Panels []*plot.Plot
	Info   []string // Lines of the information bar
}

// RPMMarkers are reference values drawn as horizontal lines in an RPM sweep.
type RPMMarkers struct {
	Thrust []float64 // N
	Torque []float64 // Nm
	Power  []float64 // W
}

// AdvanceMarkers are reference values drawn as horizontal lines in an advance
// ratio sweep.
type AdvanceMarkers struct {
	CT         []float64
	CP         []float64
	Efficiency []float64
}

// Builder creates charts of propeller datasets.
type Builder struct {
	palette Palette
}

// NewBuilder creates a builder drawing with the colors of theme.
func NewBuilder(theme ColorTheme) *Builder {
	return &Builder{palette: NewPalette(theme)}
}

type panelData struct {
	title   string
	unit    string
	column  []float64
	curve   *fit.Quadratic
	markers []float64
}

// RPMSweep charts thrust, torque and power against RPM at the given flight
// speed: tabulated points, the fitted quadratics over the fit domain, the
// mechanical RPM limit and the reference markers.
func (b *Builder) RPMSweep(ds *propeller.Dataset, speed int, markers RPMMarkers) (*Chart, error) {
	t, ok := ds.Table(speed)
	if !ok {
		return nil, fmt.Errorf("%d m/s: %w", speed, ErrNoTable)
	}

	curves, err := fit.FitCurves(t, ds.DiameterInches)
	if err != nil {
		return nil, fmt.Errorf("fitting curves at %d m/s: %w", speed, err)
	}

	limit := ds.MaxMechanicalRPM()
	var rpm []float64
	var index []int
	for i, r := range t.RPM {
		if r > 0 {
			rpm = append(rpm, r)
			index = append(index, i)
		}
	}
	xMax := limit
	if n := len(rpm); n > 0 {
		xMax = math.Max(xMax, rpm[n-1])
	}
	xMax *= 1 + headroom

	pick := func(col []float64) []float64 {
		out := make([]float64, len(index))
		for i, j := range index {
			out[i] = col[j]
		}
		return out
	}

	panels := []panelData{
		{"Thrust", "N", pick(t.Thrust), &curves.Thrust, markers.Thrust},
		{"Torque", "Nm", pick(t.Torque), &curves.Torque, markers.Torque},
		{"Power", "W", pick(t.Power), &curves.Power, markers.Power},
	}

	c := &Chart{
		Kind:  RPMKind,
		Value: float64(speed),
		Title: fmt.Sprintf("%s at %d m/s", ds.Name, speed),
		Info: []string{
			fmt.Sprintf("Propeller: %s; Diameter: %g in; Speed: %d m/s; Max RPM: %.0f",
				ds.Name, ds.DiameterInches, speed, limit),
			fmt.Sprintf("Fit domain: %.0f - %.0f RPM (%d points)",
				curves.Domain.MinRPM, curves.Domain.MaxRPM, curves.Domain.Len()),
			"T(rpm) = " + curves.Thrust.String(),
			"Q(rpm) = " + curves.Torque.String(),
			"P(rpm) = " + curves.Power.String(),
		},
	}

	for i, s := range panels {
		p, err := b.panel(s, rpm, curves.Domain)
		if err != nil {
			return nil, fmt.Errorf("building %s panel: %w", s.title, err)
		}
		if i == 0 {
			p.Title.Text = c.Title
		}
		if i == len(panels)-1 {
			p.X.Label.Text = "RPM"
		}

		lo, hi := valueRange(s.column, s.markers, curveSamples(s.curve, curves.Domain))
		if err = b.addLimit(p, limit, lo, hi); err != nil {
			return nil, err
		}
		if err = b.addMarkers(p, s.markers, s.unit, 0, xMax, lo, hi); err != nil {
			return nil, err
		}
		p.X.Min, p.X.Max = 0, xMax
		p.Y.Min, p.Y.Max = lo, hi
		c.Panels = append(c.Panels, p)
	}

	return c, nil
}

// AdvanceSweep charts CT, CP and η against the advance ratio for the rows of
// every flight speed at the given RPM. Speeds outside the tested range, where
// thrust and power are both zero, are left out.
func (b *Builder) AdvanceSweep(ds *propeller.Dataset, rpm float64, markers AdvanceMarkers) (*Chart, error) {
	if rpm <= 0 {
		return nil, fmt.Errorf("%.0f RPM: %w", rpm, ErrNoRPMData)
	}

	var j, ct, cp, eta []float64
	for _, v := range ds.Speeds() {
		t := ds.Tables[v]
		i := t.IndexOfRPM(rpm)
		if i < 0 {
			continue
		}
		r := t.Row(i)
		if v > 0 && r.Thrust == 0 && r.Power == 0 {
			continue
		}
		j = append(j, r.AdvanceRatio)
		ct = append(ct, r.CT)
		cp = append(cp, r.CP)
		eta = append(eta, r.Efficiency)
	}
	if len(j) < 2 {
		return nil, fmt.Errorf("%.0f RPM has %d tested speeds: %w", rpm, len(j), ErrNoRPMData)
	}

	panels := []panelData{
		{title: "Thrust coefficient CT", column: ct, markers: markers.CT},
		{title: "Power coefficient CP", column: cp, markers: markers.CP},
		{title: "Efficiency η", column: eta, markers: markers.Efficiency},
	}

	c := &Chart{
		Kind:  AdvanceKind,
		Value: rpm,
		Title: fmt.Sprintf("%s at %.0f RPM", ds.Name, rpm),
		Info: []string{
			fmt.Sprintf("Propeller: %s; Diameter: %g in; RPM: %.0f; Max RPM: %.0f",
				ds.Name, ds.DiameterInches, rpm, ds.MaxMechanicalRPM()),
			fmt.Sprintf("Advance ratio: %.3f - %.3f (%d speeds)", floats.Min(j), floats.Max(j), len(j)),
			fmt.Sprintf("Peak efficiency: %.3f", floats.Max(eta)),
		},
	}

	xMax := floats.Max(j) * (1 + headroom)
	for i, s := range panels {
		p, err := b.sweepPanel(s, j)
		if err != nil {
			return nil, fmt.Errorf("building %s panel: %w", s.title, err)
		}
		if i == 0 {
			p.Title.Text = c.Title
		}
		if i == len(panels)-1 {
			p.X.Label.Text = "Advance ratio J"
		}

		lo, hi := valueRange(s.column, s.markers, nil)
		if err = b.addMarkers(p, s.markers, "", 0, xMax, lo, hi); err != nil {
			return nil, err
		}
		p.X.Min, p.X.Max = 0, xMax
		p.Y.Min, p.Y.Max = lo, hi
		c.Panels = append(c.Panels, p)
	}

	return c, nil
}

func newPanel(s panelData) *plot.Plot {
	p := plot.New()
	p.Y.Label.Text = s.title
	if s.unit != "" {
		p.Y.Label.Text = fmt.Sprintf("%s, %s", s.title, s.unit)
	}
	p.Legend.Top = true
	p.Legend.Left = true
	p.Add(plotter.NewGrid())
	return p
}

// panel draws the tabulated points and the fitted curve over its domain.
func (b *Builder) panel(s panelData, x []float64, d fit.Domain) (*plot.Plot, error) {
	p := newPanel(s)

	points, err := plotter.NewScatter(toXYs(x, s.column))
	if err != nil {
		return nil, fmt.Errorf("creating scatter: %w", err)
	}
	points.GlyphStyle.Color = b.palette.Data
	points.GlyphStyle.Radius = vg.Points(2)
	points.GlyphStyle.Shape = draw.CircleGlyph{}

	curve := s.curve
	fn := plotter.NewFunction(curve.Eval)
	fn.XMin, fn.XMax = d.MinRPM, d.MaxRPM
	fn.Samples = fitSamples
	fn.Color = b.palette.Fit
	fn.Width = vg.Points(1.5)

	p.Add(points, fn)
	p.Legend.Add("tabulated", points)
	p.Legend.Add("quadratic fit", fn)
	return p, nil
}

// sweepPanel draws a polyline through the tabulated points.
func (b *Builder) sweepPanel(s panelData, x []float64) (*plot.Plot, error) {
	p := newPanel(s)

	line, points, err := plotter.NewLinePoints(toXYs(x, s.column))
	if err != nil {
		return nil, fmt.Errorf("creating line: %w", err)
	}
	line.Color = b.palette.Fit
	line.Width = vg.Points(1.5)
	points.GlyphStyle.Color = b.palette.Data
	points.GlyphStyle.Radius = vg.Points(2)
	points.GlyphStyle.Shape = draw.CircleGlyph{}

	p.Add(line, points)
	p.Legend.Add("tabulated", line, points)
	return p, nil
}

func (b *Builder) addLimit(p *plot.Plot, limit, lo, hi float64) error {
	l, err := plotter.NewLine(plotter.XYs{{X: limit, Y: lo}, {X: limit, Y: hi}})
	if err != nil {
		return fmt.Errorf("creating limit line: %w", err)
	}
	l.Color = b.palette.Limit
	l.Width = vg.Points(1.5)
	l.Dashes = limitDashes

	p.Add(l)
	p.Legend.Add(fmt.Sprintf("max %.0f RPM", limit), l)
	return nil
}

// addMarkers draws a dashed horizontal line per marker and labels them at the
// right edge, spread apart so the labels do not overlap.
func (b *Builder) addMarkers(p *plot.Plot, markers []float64, unit string, xMin, xMax, lo, hi float64) error {
	if len(markers) == 0 {
		return nil
	}

	positions := LayoutLabels(markers, lo, hi, (hi-lo)*labelSpacing)
	xys := make(plotter.XYs, len(markers))
	names := make([]string, len(markers))

	for i, m := range markers {
		l, err := plotter.NewLine(plotter.XYs{{X: xMin, Y: m}, {X: xMax, Y: m}})
		if err != nil {
			return fmt.Errorf("creating marker line: %w", err)
		}
		l.Color = b.palette.MarkerColor(i)
		l.Width = vg.Points(1)
		l.Dashes = markerDashes
		p.Add(l)

		xys[i] = plotter.XY{X: xMax, Y: positions[i]}
		names[i] = formatMarker(m, unit)
	}

	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: names})
	if err != nil {
		return fmt.Errorf("creating marker labels: %w", err)
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].Color = b.palette.MarkerColor(i)
		labels.TextStyle[i].XAlign = text.XRight
		labels.TextStyle[i].YAlign = text.YCenter
	}
	labels.Offset = vg.Point{X: -vg.Points(4)}

	p.Add(labels)
	return nil
}

func formatMarker(v float64, unit string) string {
	if unit == "" {
		return fmt.Sprintf("%.3g", v)
	}
	return humanize.SIWithDigits(v, 2, unit)
}

func toXYs(x, y []float64) plotter.XYs {
	xys := make(plotter.XYs, len(x))
	for i := range x {
		xys[i] = plotter.XY{X: x[i], Y: y[i]}
	}
	return xys
}

func curveSamples(q *fit.Quadratic, d fit.Domain) []float64 {
	const n = 16
	out := make([]float64, 0, n+1)
	for i := 0; i <= n; i++ {
		out = append(out, q.Eval(d.MinRPM+(d.MaxRPM-d.MinRPM)*float64(i)/n))
	}
	return out
}

// valueRange returns the vertical axis range covering zero and every value.
func valueRange(sets ...[]float64) (lo, hi float64) {
	for _, set := range sets {
		for _, v := range set {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
	}
	if hi == lo {
		hi = lo + 1
	}
	span := hi - lo
	if lo < 0 {
		lo -= span * headroom
	}
	return lo, hi + span*headroom
}


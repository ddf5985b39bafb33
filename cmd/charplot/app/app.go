package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roman-kulish/propeller-charts/internal/chart"
	"github.com/roman-kulish/propeller-charts/internal/config"
	"github.com/roman-kulish/propeller-charts/internal/console"
	"github.com/roman-kulish/propeller-charts/internal/propeller"
	"github.com/roman-kulish/propeller-charts/internal/storage"
)

// App is an interactive session plotting propeller characteristics.
type App struct {
	config     *config.Config
	logger     *slog.Logger
	prompt     *console.Prompter
	catalog    *storage.Catalog
	builder    *chart.Builder
	renderer   *chart.Renderer
	previewDir string
}

func Run(ctx context.Context, config *config.Config, logger *slog.Logger) error {
	a, err := New(config, logger, os.Stdin, os.Stdout)
	if err != nil {
		return err
	}
	return a.Run(ctx)
}

// New creates a session reading answers from in and writing prompts to out.
func New(config *config.Config, logger *slog.Logger, in io.Reader, out io.Writer) (*App, error) {
	theme, err := chart.ParseTheme(config.Output.Theme)
	if err != nil {
		return nil, err
	}

	return &App{
		config:  config,
		logger:  logger,
		prompt:  console.NewPrompter(in, out),
		catalog: storage.NewCatalog(config.Data.CharacteristicsDirectory),
		builder: chart.NewBuilder(theme),
		renderer: chart.NewRenderer(chart.RenderConfig{
			Width:         config.Output.Width,
			Height:        config.Output.Height,
			DPI:           config.Output.DPI,
			NoAnnotations: config.Output.NoAnnotations,
		}),
		previewDir: os.TempDir(),
	}, nil
}

// Run asks for a propeller and plots it until the user quits or ctx is done.
func (a *App) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		err := a.session(ctx)
		if errors.Is(err, console.ErrCancelled) {
			a.prompt.Printf("\nBye.\n")
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *App) session(ctx context.Context) error {
	name, err := a.prompt.Select(a.catalog)
	if errors.Is(err, console.ErrNoChoices) {
		return fmt.Errorf("no propeller datasets in %s, run chargen first", a.catalog.Dir())
	}
	if err != nil {
		return err
	}

	ds, err := a.catalog.Load(ctx, name)
	if err != nil {
		a.logger.Error("Failed to load dataset", "propeller", name, "error", err)
		return nil
	}
	a.logger.Info("Loaded dataset",
		slog.String("propeller", ds.Name),
		slog.Float64("diameter", ds.DiameterInches),
		slog.Int("speeds", len(ds.Tables)))

	for ctx.Err() == nil {
		if err = a.plot(ds); err != nil {
			if errors.Is(err, console.ErrCancelled) {
				return err
			}
			a.logger.Error("Failed to plot", "propeller", ds.Name, "error", err)
		}

		again, err := a.prompt.Confirm(fmt.Sprintf("Another plot of %s? [Y/n]: ", ds.Name), true)
		if err != nil {
			return err
		}
		if !again {
			return nil
		}
	}
	return nil
}

func (a *App) plot(ds *propeller.Dataset) error {
	kind, err := a.prompt.Choice("Plot type, rpm (thrust, torque, power vs RPM) or j (CT, CP, η vs J): ",
		string(chart.RPMKind), string(chart.AdvanceKind))
	if err != nil {
		return err
	}

	var c *chart.Chart
	if chart.Kind(kind) == chart.RPMKind {
		c, err = a.rpmSweep(ds)
	} else {
		c, err = a.advanceSweep(ds)
	}
	if err != nil {
		return err
	}

	img, err := a.renderer.Render(c)
	if err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}

	save, err := a.prompt.Confirm("Save to the output directory? [y/N]: ", false)
	if err != nil {
		return err
	}

	dir := a.previewDir
	if save {
		dir = a.config.Output.Directory
	}
	path := filepath.Join(dir, chart.FileName(ds.Name, c, a.config.Output.Format))

	if err = chart.Save(path, img, a.config.Output.Format); err != nil {
		return err
	}

	a.logger.Info("Chart written",
		slog.Group("image",
			slog.String("destination", path),
			slog.String("format", string(a.config.Output.Format)),
			slog.String("theme", a.config.Output.Theme),
			slog.Int("width", img.Bounds().Dx()),
			slog.Int("height", img.Bounds().Dy()),
			slog.Bool("preview", !save),
		))
	return nil
}

func (a *App) rpmSweep(ds *propeller.Dataset) (*chart.Chart, error) {
	v, err := a.prompt.Float(fmt.Sprintf("Flight speed in m/s (%d-%d): ", propeller.MinSpeed, propeller.MaxSpeed), speedRange)
	if err != nil {
		return nil, err
	}

	speed, exact, err := ds.NearestSpeed(v)
	if err != nil {
		return nil, err
	}
	if !exact {
		a.logger.Warn("Flight speed not in dataset, using nearest", "requested", v, "speed", speed)
	}

	var markers chart.RPMMarkers
	if markers.Thrust, err = a.prompt.FloatList("Reference thrust in N (blank to skip): ", nil); err != nil {
		return nil, err
	}
	if markers.Torque, err = a.prompt.FloatList("Reference torque in Nm (blank to skip): ", nil); err != nil {
		return nil, err
	}
	if markers.Power, err = a.prompt.FloatList("Reference power in W (blank to skip): ", nil); err != nil {
		return nil, err
	}

	return a.builder.RPMSweep(ds, speed, markers)
}

func (a *App) advanceSweep(ds *propeller.Dataset) (*chart.Chart, error) {
	v, err := a.prompt.Float("RPM: ", positive)
	if err != nil {
		return nil, err
	}

	rpm, exact, err := ds.NearestRPM(v)
	if err != nil {
		return nil, err
	}
	if !exact {
		a.logger.Warn("RPM not in dataset, using nearest", "requested", v, "rpm", rpm)
	}

	var markers chart.AdvanceMarkers
	if markers.CT, err = a.prompt.FloatList("Reference CT (blank to skip): ", nil); err != nil {
		return nil, err
	}
	if markers.CP, err = a.prompt.FloatList("Reference CP (blank to skip): ", nil); err != nil {
		return nil, err
	}
	if markers.Efficiency, err = a.prompt.FloatList("Reference efficiency (blank to skip): ", nil); err != nil {
		return nil, err
	}

	return a.builder.AdvanceSweep(ds, rpm, markers)
}

func speedRange(v float64) error {
	if v < propeller.MinSpeed || v > propeller.MaxSpeed {
		return fmt.Errorf("speed must be between %d and %d m/s", propeller.MinSpeed, propeller.MaxSpeed)
	}
	return nil
}

func positive(v float64) error {
	if v <= 0 {
		return errors.New("value must be positive")
	}
	return nil
}

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/roman-kulish/propeller-charts/internal/config"
	"github.com/roman-kulish/propeller-charts/internal/console"
	"github.com/roman-kulish/propeller-charts/internal/lookup"
	"github.com/roman-kulish/propeller-charts/internal/propeller"
	"github.com/roman-kulish/propeller-charts/internal/storage"
)

// App is an interactive session solving thrust lookups.
type App struct {
	logger  *slog.Logger
	prompt  *console.Prompter
	out     io.Writer
	catalog *storage.Catalog
}

func Run(ctx context.Context, config *config.Config, logger *slog.Logger) error {
	return New(config, logger, os.Stdin, os.Stdout).Run(ctx)
}

// New creates a session reading answers from in and writing to out.
func New(config *config.Config, logger *slog.Logger, in io.Reader, out io.Writer) *App {
	return &App{
		logger:  logger,
		prompt:  console.NewPrompter(in, out),
		out:     out,
		catalog: storage.NewCatalog(config.Data.CharacteristicsDirectory),
	}
}

// Run asks for a propeller and solves lookups until the user quits or ctx is done.
func (a *App) Run(ctx context.Context) error {
	a.prompt.Printf("Propeller thrust lookup. Enter q at any prompt to quit.\n")

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

	speeds := ds.Speeds()
	a.prompt.Printf("\n%s: %g in diameter, max %.0f RPM, flight speeds %d-%d m/s\n",
		ds.Name, ds.DiameterInches, ds.MaxMechanicalRPM(), speeds[0], speeds[len(speeds)-1])

	solver := lookup.NewSolver(ds)
	for ctx.Err() == nil {
		if err = a.lookup(solver); err != nil {
			return err
		}

		again, err := a.prompt.Confirm(fmt.Sprintf("\nAnother lookup with %s? [Y/n]: ", ds.Name), true)
		if err != nil {
			return err
		}
		if !again {
			return nil
		}
	}
	return nil
}

func (a *App) lookup(solver *lookup.Solver) error {
	thrust, err := a.prompt.Float("\nTarget thrust in N: ", positive)
	if err != nil {
		return err
	}
	speed, err := a.prompt.Float(fmt.Sprintf("Flight speed in m/s (%d-%d): ", propeller.MinSpeed, propeller.MaxSpeed), speedRange)
	if err != nil {
		return err
	}

	op, err := solver.FindOperatingPoint(thrust, speed)
	if err != nil {
		a.logger.Error("Lookup failed", "thrust", thrust, "speed", speed, "error", err)
		return nil
	}

	// warnings are part of the printed result
	for _, w := range op.Warnings {
		a.logger.Debug(w.Message, "kind", w.Kind)
	}
	a.logger.Debug("Operating point",
		slog.Float64("rpm", op.RPM),
		slog.Int("speed", op.FlightSpeed),
		slog.Bool("static", op.Static))

	writeOperatingPoint(a.out, op)
	return nil
}

func speedRange(v float64) error {
	if v < propeller.MinSpeed || v > propeller.MaxSpeed {
		return fmt.Errorf("speed must be between %d and %d m/s", propeller.MinSpeed, propeller.MaxSpeed)
	}
	return nil
}

func positive(v float64) error {
	if v <= 0 {
		return errors.New("thrust must be positive")
	}
	return nil
}

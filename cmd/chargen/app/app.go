package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/propeller-charts/internal/config"
	"github.com/roman-kulish/propeller-charts/internal/generator"
	"github.com/roman-kulish/propeller-charts/internal/storage"
)

// Run lists or generates the propellers selected by opts. It fails when any
// propeller could not be generated.
func Run(ctx context.Context, config *config.Config, opts Options, logger *slog.Logger, out io.Writer) error {
	gen := generator.New(config.Data.PerformanceDirectory, logger)

	available, err := gen.Propellers()
	if err != nil {
		return err
	}

	if opts.List {
		fmt.Fprintf(out, "%d propellers in %s\n", len(available), config.Data.PerformanceDirectory)
		for i, name := range available {
			fmt.Fprintf(out, "%4d. %s\n", i+1, name)
		}
		return nil
	}

	names := available
	if !opts.All {
		names = nil
		for _, name := range opts.Names {
			if !slices.Contains(available, name) {
				logger.Warn("Propeller not found in data directory", "propeller", name, "directory", config.Data.PerformanceDirectory)
				continue
			}
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return fmt.Errorf("no propellers to generate in %s", config.Data.PerformanceDirectory)
	}

	catalog := storage.NewCatalog(config.Data.CharacteristicsDirectory)
	logger.Info("Generating characteristics",
		slog.Int("propellers", len(names)),
		slog.String("source", config.Data.PerformanceDirectory),
		slog.String("destination", catalog.Dir()))

	start := time.Now()
	var failed []string
	for i, name := range names {
		if err = ctx.Err(); err != nil {
			return err
		}

		fmt.Fprintf(out, "[%d/%d] %s ... ", i+1, len(names), name)
		rows, path, err := generate(ctx, gen, catalog, name)
		if err != nil {
			fmt.Fprintln(out, "FAILED")
			logger.Error("Failed to generate propeller", "propeller", name, "error", err)
			failed = append(failed, name)
			continue
		}

		fmt.Fprintf(out, "OK (%s rows)\n", humanize.Comma(int64(rows)))
		logger.Debug("Dataset written", "propeller", name, "path", path)
	}

	fmt.Fprintf(out, "\nSuccess: %d, Failed: %d, Total: %d (%s)\n",
		len(names)-len(failed), len(failed), len(names), time.Since(start).Round(time.Millisecond))

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d propellers failed: %v", len(failed), len(names), failed)
	}
	return nil
}

func generate(ctx context.Context, gen *generator.Generator, catalog *storage.Catalog, name string) (rows int, path string, err error) {
	ds, err := gen.Generate(name)
	if err != nil {
		return 0, "", err
	}
	for _, t := range ds.Tables {
		rows += t.Len()
	}

	if path, err = catalog.Save(ctx, ds); err != nil {
		return 0, "", err
	}
	return rows, path, nil
}

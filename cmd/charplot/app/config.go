package app

import (
	"flag"
	"fmt"
	"os"

	"github.com/roman-kulish/propeller-charts/internal/chart"
	"github.com/roman-kulish/propeller-charts/internal/config"
)

func NewConfigFromCLI() (*config.Config, error) {
	return parseConfig(os.Args[1:])
}

// parseConfig loads the file given with -c and applies the flags that were
// set on the command line over it.
func parseConfig(args []string) (*config.Config, error) {
	fs := flag.NewFlagSet("charplot", flag.ContinueOnError)

	var (
		configPath, dataDir, outputDir, imageFormat, theme string
		width, height, dpi                                 int
		noAnnotations, verbose                             bool
	)
	fs.StringVar(&configPath, "c", "", "Path to the configuration file")
	fs.StringVar(&dataDir, "data", "", "Directory of the APC_Prop_<name>.sqlite datasets")
	fs.StringVar(&outputDir, "o", "", "Directory saved charts are written to")
	fs.StringVar(&imageFormat, "f", "", "Output image format. [png, jpeg]")
	fs.StringVar(&theme, "theme", "", "Color theme. [classic, grayscale, jungle, thermal, marine]")
	fs.IntVar(&width, "width", 0, "Image width in pixels")
	fs.IntVar(&height, "height", 0, "Image height in pixels")
	fs.IntVar(&dpi, "dpi", 0, "Image resolution")
	fs.BoolVar(&noAnnotations, "no-annotations", false, "Omit the information bar below the plots")
	fs.BoolVar(&verbose, "verbose", false, "Enable more verbose output")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	c, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "data":
			c.Data.CharacteristicsDirectory = dataDir
		case "o":
			c.Output.Directory = outputDir
		case "f":
			c.Output.Format = config.ImageFormat(imageFormat)
		case "theme":
			c.Output.Theme = theme
		case "width":
			c.Output.Width = width
		case "height":
			c.Output.Height = height
		case "dpi":
			c.Output.DPI = dpi
		case "no-annotations":
			c.Output.NoAnnotations = noAnnotations
		case "verbose":
			if verbose {
				c.Settings.LogLevel = "debug"
			}
		}
	})

	if c.Output.Format, err = config.ParseImageFormat(string(c.Output.Format)); err != nil {
		return nil, err
	}
	if err = c.Validate(); err != nil {
		return nil, err
	}
	if _, err = chart.ParseTheme(c.Output.Theme); err != nil {
		return nil, fmt.Errorf("config.OutputConfig: %w", err)
	}
	return c, nil
}

package app

import (
	"flag"
	"os"

	"github.com/roman-kulish/propeller-charts/internal/config"
)

func NewConfigFromCLI() (*config.Config, error) {
	return parseConfig(os.Args[1:])
}

func parseConfig(args []string) (*config.Config, error) {
	fs := flag.NewFlagSet("thrustlookup", flag.ContinueOnError)

	var (
		configPath, dataDir string
		verbose             bool
	)
	fs.StringVar(&configPath, "c", "", "Path to the configuration file")
	fs.StringVar(&dataDir, "data", "", "Directory of the APC_Prop_<name>.sqlite datasets")
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
		case "verbose":
			if verbose {
				c.Settings.LogLevel = "debug"
			}
		}
	})

	if err = c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

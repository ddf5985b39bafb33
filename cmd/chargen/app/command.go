package app

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roman-kulish/propeller-charts/internal/config"
)

// Options are the command line options of chargen.
type Options struct {
	ConfigPath string
	DataDir    string
	OutputDir  string
	All        bool
	List       bool
	Verbose    bool
	Names      []string
}

// NewCommand creates the chargen root command. Verbose output lowers level to debug.
func NewCommand(logger *slog.Logger, level *slog.LevelVar) *cobra.Command {
	var opts Options

	cmd := &cobra.Command{
		Use:   "chargen [names...]",
		Short: "Generate propeller characteristic datasets from performance files",
		Long: `Generate propeller characteristic datasets from performance files.

Every propeller is a folder in the data directory named after it, e.g. D10P7B2TE,
holding one <rpm>.dat file per tested rotational speed. Thrust, torque and power
are interpolated to every flight speed from 0 to 100 m/s, the coefficients are
recomputed and the result is written to APC_Prop_<name>.sqlite in the output
directory.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Names = args
			if !opts.All && !opts.List && len(opts.Names) == 0 {
				return errors.New("no propellers given, pass names, --all or --list")
			}

			c, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("data-dir") {
				c.Data.PerformanceDirectory = opts.DataDir
			}
			if cmd.Flags().Changed("output-dir") {
				c.Data.CharacteristicsDirectory = opts.OutputDir
			}

			l, err := c.Level()
			if err != nil {
				return err
			}
			if opts.Verbose {
				l = slog.LevelDebug
			}
			if level != nil {
				level.Set(l)
			}

			return Run(cmd.Context(), c, opts, logger, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.ConfigPath, "config", "c", "", "Path to the configuration file")
	flags.StringVar(&opts.DataDir, "data-dir", "", "Directory of the per-propeller performance folders")
	flags.StringVar(&opts.OutputDir, "output-dir", "", "Directory the datasets are written to")
	flags.BoolVarP(&opts.All, "all", "a", false, "Generate every propeller in the data directory")
	flags.BoolVarP(&opts.List, "list", "l", false, "List the propellers in the data directory")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "Enable more verbose output")

	return cmd
}

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	ImagePNG  ImageFormat = "png"
	ImageJPEG ImageFormat = "jpeg"

	MinImageSize = 200
	MaxImageSize = 10_000
)

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

type ImageFormat string

func (f ImageFormat) String() string {
	return string(f)
}

// Extension returns the file extension without the dot.
func (f ImageFormat) Extension() string {
	if f == ImageJPEG {
		return "jpg"
	}
	return string(f)
}

// ParseImageFormat accepts png, jpeg and jpg in any case.
func ParseImageFormat(s string) (ImageFormat, error) {
	f := ImageFormat(strings.ToLower(strings.TrimSpace(s)))
	if f == "jpg" {
		f = ImageJPEG
	}
	if _, ok := validImageFormats[f]; !ok {
		return "", fmt.Errorf("invalid image format: %s", s)
	}
	return f, nil
}

func (f *ImageFormat) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseImageFormat(value.Value)
	if err != nil {
		return fmt.Errorf("config.ImageFormat: %w", err)
	}

	*f = parsed
	return nil
}

// Config is the configuration shared by the command line tools
type Config struct {
	Settings Settings     `yaml:"settings"`
	Data     DataConfig   `yaml:"data"`
	Output   OutputConfig `yaml:"output"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel string `yaml:"logLevel"`
}

// DataConfig locates the input data
type DataConfig struct {
	CharacteristicsDirectory string `yaml:"characteristicsDirectory"` // Generated APC_Prop_<name>.sqlite files
	PerformanceDirectory     string `yaml:"performanceDirectory"`     // One folder of <rpm>.dat files per propeller
}

// OutputConfig controls rendered charts
type OutputConfig struct {
	Directory     string      `yaml:"directory"`
	Format        ImageFormat `yaml:"format"`
	Width         int         `yaml:"width"`  // Pixels
	Height        int         `yaml:"height"` // Pixels, including the information bar
	DPI           int         `yaml:"dpi"`
	Theme         string      `yaml:"theme"`
	NoAnnotations bool        `yaml:"noAnnotations"` // Omit the information bar
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Settings: Settings{
			LogLevel: "info",
		},
		Data: DataConfig{
			CharacteristicsDirectory: "data/full-characteristics",
			PerformanceDirectory:     "data/performance",
		},
		Output: OutputConfig{
			Directory: "plots",
			Format:    ImagePNG,
			Width:     1200,
			Height:    1500,
			DPI:       96,
			Theme:     "classic",
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	p, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration file: %w", err)
	}
	if err = yaml.Unmarshal(p, c); err != nil {
		return nil, fmt.Errorf("parsing configuration file: %w", err)
	}
	if err = c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.Data.CharacteristicsDirectory == "" {
		return errors.New("config.Config: characteristics directory is required")
	}
	return c.Output.Validate()
}

// Level returns the configured log level.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Settings.LogLevel)); err != nil {
		return 0, fmt.Errorf("config.Config: invalid log level: %s", c.Settings.LogLevel)
	}
	return level, nil
}

func (c *OutputConfig) Validate() error {
	if _, ok := validImageFormats[c.Format]; !ok {
		return fmt.Errorf("config.OutputConfig: invalid image format: %s", c.Format)
	}
	if c.Width < MinImageSize || c.Width > MaxImageSize {
		return fmt.Errorf("config.OutputConfig: width must be between %d and %d: %d given", MinImageSize, MaxImageSize, c.Width)
	}
	if c.Height < MinImageSize || c.Height > MaxImageSize {
		return fmt.Errorf("config.OutputConfig: height must be between %d and %d: %d given", MinImageSize, MaxImageSize, c.Height)
	}
	if c.DPI <= 0 {
		return fmt.Errorf("config.OutputConfig: dpi must be positive: %d given", c.DPI)
	}
	if c.Theme == "" {
		return errors.New("config.OutputConfig: theme is required")
	}
	return nil
}

// Package config loads and persists the voxcut configuration.
//
// Load reads a YAML file through viper, falls back to Default for every key
// the file leaves out, and applies VOXCUT_* environment overrides
// (VOXCUT_SEGMENTATION_SIGMA, VOXCUT_SOLVER_ALGORITHM, ...). Save and
// WriteDefault write YAML with gopkg.in/yaml.v3.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/voxcut/boundary"
	"github.com/katalvlaran/voxcut/flow"
	"github.com/katalvlaran/voxcut/graphcut"
	"github.com/katalvlaran/voxcut/volume"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "VOXCUT"

// Config is the full application configuration.
type Config struct {
	// Segmentation holds the graph-cut parameters.
	Segmentation struct {
		Sigma                   float64 `yaml:"sigma" mapstructure:"sigma"`
		UseIntensity            bool    `yaml:"useIntensity" mapstructure:"useintensity"`
		UseGradientMagnitude    bool    `yaml:"useGradientMagnitude" mapstructure:"usegradientmagnitude"`
		UseForegroundBackground bool    `yaml:"useForegroundBackground" mapstructure:"useforegroundbackground"`
		// Connectivity is 6 or 26.
		Connectivity int `yaml:"connectivity" mapstructure:"connectivity"`
		// BoundaryDirection is none, bright-to-dark or dark-to-bright.
		BoundaryDirection  string  `yaml:"boundaryDirection" mapstructure:"boundarydirection"`
		ForegroundLabel    uint16  `yaml:"foregroundLabel" mapstructure:"foregroundlabel"`
		BackgroundLabel    uint16  `yaml:"backgroundLabel" mapstructure:"backgroundlabel"`
		HistogramBins      int     `yaml:"histogramBins" mapstructure:"histogrambins"`
		HistogramSmoothing float64 `yaml:"histogramSmoothing" mapstructure:"histogramsmoothing"`
		Lambda             float64 `yaml:"lambda" mapstructure:"lambda"`
	} `yaml:"segmentation" mapstructure:"segmentation"`

	// Solver holds the max-flow settings.
	Solver struct {
		// Algorithm is incremental, fifo, highest-level or dinic.
		Algorithm     string  `yaml:"algorithm" mapstructure:"algorithm"`
		Epsilon       float64 `yaml:"epsilon" mapstructure:"epsilon"`
		MaxOperations int64   `yaml:"maxOperations" mapstructure:"maxoperations"`
		// Timeout is a Go duration string; "0s" disables it.
		Timeout                string  `yaml:"timeout" mapstructure:"timeout"`
		GlobalRelabelFrequency float64 `yaml:"globalRelabelFrequency" mapstructure:"globalrelabelfrequency"`
	} `yaml:"solver" mapstructure:"solver"`

	// Runtime holds process-level knobs.
	Runtime struct {
		Workers       int    `yaml:"workers" mapstructure:"workers"`
		MaxGraphBytes int64  `yaml:"maxGraphBytes" mapstructure:"maxgraphbytes"`
		LogLevel      string `yaml:"logLevel" mapstructure:"loglevel"`
	} `yaml:"runtime" mapstructure:"runtime"`

	// Output holds the container settings of written files.
	Output struct {
		// Compression is zstd, lz4 or none.
		Compression string `yaml:"compression" mapstructure:"compression"`
	} `yaml:"output" mapstructure:"output"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	p := graphcut.DefaultParameters()
	o := flow.DefaultOptions()
	cfg := &Config{}

	cfg.Segmentation.Sigma = p.Sigma
	cfg.Segmentation.UseIntensity = p.UseIntensity
	cfg.Segmentation.UseGradientMagnitude = p.UseGradientMagnitude
	cfg.Segmentation.UseForegroundBackground = p.UseForegroundBackground
	cfg.Segmentation.Connectivity = int(p.Connectivity)
	cfg.Segmentation.BoundaryDirection = p.BoundaryDirection.String()
	cfg.Segmentation.ForegroundLabel = p.ForegroundLabel
	cfg.Segmentation.BackgroundLabel = p.BackgroundLabel
	cfg.Segmentation.HistogramBins = p.HistogramBins
	cfg.Segmentation.HistogramSmoothing = p.HistogramSmoothing
	cfg.Segmentation.Lambda = p.Lambda

	cfg.Solver.Algorithm = p.Algorithm.String()
	cfg.Solver.Epsilon = o.Epsilon
	cfg.Solver.Timeout = "0s"
	cfg.Solver.GlobalRelabelFrequency = o.GlobalRelabelFrequency

	cfg.Runtime.Workers = runtime.NumCPU()
	cfg.Runtime.LogLevel = "info"

	cfg.Output.Compression = "zstd"

	return cfg
}

// Load reads path (YAML) on top of Default and applies environment
// overrides. A missing file yields the defaults; an empty path skips the
// file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err = v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("config: reading %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}

	return cfg, nil
}

// setDefaults registers every key of d so that environment overrides and
// partial files resolve.
func setDefaults(v *viper.Viper, d *Config) {
	s := d.Segmentation
	v.SetDefault("segmentation.sigma", s.Sigma)
	v.SetDefault("segmentation.useintensity", s.UseIntensity)
	v.SetDefault("segmentation.usegradientmagnitude", s.UseGradientMagnitude)
	v.SetDefault("segmentation.useforegroundbackground", s.UseForegroundBackground)
	v.SetDefault("segmentation.connectivity", s.Connectivity)
	v.SetDefault("segmentation.boundarydirection", s.BoundaryDirection)
	v.SetDefault("segmentation.foregroundlabel", s.ForegroundLabel)
	v.SetDefault("segmentation.backgroundlabel", s.BackgroundLabel)
	v.SetDefault("segmentation.histogrambins", s.HistogramBins)
	v.SetDefault("segmentation.histogramsmoothing", s.HistogramSmoothing)
	v.SetDefault("segmentation.lambda", s.Lambda)

	v.SetDefault("solver.algorithm", d.Solver.Algorithm)
	v.SetDefault("solver.epsilon", d.Solver.Epsilon)
	v.SetDefault("solver.maxoperations", d.Solver.MaxOperations)
	v.SetDefault("solver.timeout", d.Solver.Timeout)
	v.SetDefault("solver.globalrelabelfrequency", d.Solver.GlobalRelabelFrequency)

	v.SetDefault("runtime.workers", d.Runtime.Workers)
	v.SetDefault("runtime.maxgraphbytes", d.Runtime.MaxGraphBytes)
	v.SetDefault("runtime.loglevel", d.Runtime.LogLevel)

	v.SetDefault("output.compression", d.Output.Compression)
}

// Save writes cfg to path as YAML, creating the directory if needed.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: creating directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshaling: %w", err)
	}
	if err = os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}

	return nil
}

// WriteDefault writes Default to path.
func WriteDefault(path string) error {
	return Save(Default(), path)
}

// Parameters converts the segmentation and solver sections. The result is
// not validated; graphcut.Parameters.Validate does that.
func (c *Config) Parameters() (graphcut.Parameters, error) {
	s := c.Segmentation
	dir, err := boundary.ParseDirection(s.BoundaryDirection)
	if err != nil {
		return graphcut.Parameters{}, fmt.Errorf("config: %w", err)
	}
	alg, err := flow.ParseAlgorithm(c.Solver.Algorithm)
	if err != nil {
		return graphcut.Parameters{}, fmt.Errorf("config: %w", err)
	}

	return graphcut.Parameters{
		Sigma:                   s.Sigma,
		UseIntensity:            s.UseIntensity,
		UseGradientMagnitude:    s.UseGradientMagnitude,
		UseForegroundBackground: s.UseForegroundBackground,
		Connectivity:            volume.Connectivity(s.Connectivity),
		BoundaryDirection:       dir,
		ForegroundLabel:         s.ForegroundLabel,
		BackgroundLabel:         s.BackgroundLabel,
		Algorithm:               alg,
		HistogramBins:           s.HistogramBins,
		HistogramSmoothing:      s.HistogramSmoothing,
		Lambda:                  s.Lambda,
	}, nil
}

// SolverOptions converts the solver section; log may be nil.
func (c *Config) SolverOptions(log *zap.Logger) (flow.Options, error) {
	o := flow.Options{
		Epsilon:                c.Solver.Epsilon,
		MaxOperations:          c.Solver.MaxOperations,
		GlobalRelabelFrequency: c.Solver.GlobalRelabelFrequency,
		Logger:                 log,
	}
	if c.Solver.Timeout != "" {
		d, err := time.ParseDuration(c.Solver.Timeout)
		if err != nil {
			return flow.Options{}, fmt.Errorf("config: solver timeout: %w", err)
		}
		o.Timeout = d
	}

	return o, nil
}

// FilterOptions returns the graphcut options implied by the runtime and
// solver sections.
func (c *Config) FilterOptions(log *zap.Logger) ([]graphcut.Option, error) {
	so, err := c.SolverOptions(log)
	if err != nil {
		return nil, err
	}

	return []graphcut.Option{
		graphcut.WithLogger(log),
		graphcut.WithWorkers(c.Runtime.Workers),
		graphcut.WithSolverOptions(so),
		graphcut.WithMaxGraphBytes(c.Runtime.MaxGraphBytes),
	}, nil
}

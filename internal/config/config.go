// Package config loads and validates simulation configuration.
package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"navsim/internal/boundary"
	"navsim/internal/field"
	"navsim/internal/grid"
)

const (
	DefaultNx        = 41
	DefaultNy        = 41
	DefaultLx        = 2.0
	DefaultLy        = 2.0
	DefaultRho       = 1.0
	DefaultNu        = 0.1
	DefaultDt        = 0.001
	DefaultSteps     = 500
	DefaultTolerance = 1e-3
	DefaultMaxIters  = 200
)

type Config struct {
	Grid       GridConfig     `yaml:"grid"`
	Fluid      FluidConfig    `yaml:"fluid"`
	Poisson    PoissonConfig  `yaml:"poisson"`
	Steps      int            `yaml:"steps"`
	Boundaries BoundaryConfig `yaml:"boundaries"`
	// Initial names a built-in initial condition: zero, uniform or shear.
	Initial string `yaml:"initial"`
}

type GridConfig struct {
	Nx int     `yaml:"nx"`
	Ny int     `yaml:"ny"`
	Lx float64 `yaml:"lx"`
	Ly float64 `yaml:"ly"`
}

type FluidConfig struct {
	Rho float64 `yaml:"rho"`
	Nu  float64 `yaml:"nu"`
	Dt  float64 `yaml:"dt"`
}

type PoissonConfig struct {
	Tolerance float64 `yaml:"tolerance"`
	MaxIters  int     `yaml:"max_iterations"`
	Strict    bool    `yaml:"strict"`
}

type BoundaryConfig struct {
	Left   EdgeConfig `yaml:"left"`
	Right  EdgeConfig `yaml:"right"`
	Bottom EdgeConfig `yaml:"bottom"`
	Top    EdgeConfig `yaml:"top"`
}

type EdgeConfig struct {
	Kind  string  `yaml:"kind"`
	Value float64 `yaml:"value"`
}

// DefaultConfig is the lid-driven cavity on a 41x41 square domain.
func DefaultConfig() *Config {
	return &Config{
		Grid:  GridConfig{Nx: DefaultNx, Ny: DefaultNy, Lx: DefaultLx, Ly: DefaultLy},
		Fluid: FluidConfig{Rho: DefaultRho, Nu: DefaultNu, Dt: DefaultDt},
		Poisson: PoissonConfig{
			Tolerance: DefaultTolerance,
			MaxIters:  DefaultMaxIters,
		},
		Steps: DefaultSteps,
		Boundaries: BoundaryConfig{
			Left:   EdgeConfig{Kind: "no-slip"},
			Right:  EdgeConfig{Kind: "no-slip"},
			Bottom: EdgeConfig{Kind: "no-slip"},
			Top:    EdgeConfig{Kind: "fixed-value", Value: 1.0},
		},
		Initial: "zero",
	}
}

// Load reads a yaml file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config as yaml.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks everything construction would reject, so the CLI can fail
// before allocating fields.
func (c *Config) Validate() error {
	if c.Steps <= 0 {
		return fmt.Errorf("config: steps must be positive, got %d", c.Steps)
	}
	if _, err := grid.New(c.Grid.Nx, c.Grid.Ny, c.Grid.Lx, c.Grid.Ly); err != nil {
		return err
	}
	if _, err := c.BuildPolicy(); err != nil {
		return err
	}
	if _, ok := initialConditions[c.Initial]; !ok && c.Initial != "" {
		return fmt.Errorf("config: unknown initial condition %q", c.Initial)
	}
	return nil
}

// BuildGrid constructs the discretized domain.
func (c *Config) BuildGrid() (*grid.Grid, error) {
	return grid.New(c.Grid.Nx, c.Grid.Ny, c.Grid.Lx, c.Grid.Ly)
}

// BuildFields constructs the zeroed field set.
func (c *Config) BuildFields(g *grid.Grid) (*field.FieldSet, error) {
	return field.New(g, c.Fluid.Rho, c.Fluid.Nu, c.Fluid.Dt)
}

// BuildPolicy constructs the boundary policy from the per-edge specs.
func (c *Config) BuildPolicy() (*boundary.Policy, error) {
	edges := [...]EdgeConfig{c.Boundaries.Left, c.Boundaries.Right, c.Boundaries.Bottom, c.Boundaries.Top}
	var specs [4]boundary.Spec
	for idx, e := range edges {
		kind, err := boundary.ParseKind(e.Kind)
		if err != nil {
			return nil, err
		}
		specs[idx] = boundary.Spec{Kind: kind, Value: e.Value}
	}
	return boundary.NewPolicy(specs[0], specs[1], specs[2], specs[3])
}

var initialConditions = map[string]func(c *Config) field.InitFunc{
	"zero": func(*Config) field.InitFunc { return nil },
	"uniform": func(*Config) field.InitFunc {
		return func(x, y float64) (float64, float64, float64) { return 1, 0, 0 }
	},
	"shear": func(c *Config) field.InitFunc {
		ly := c.Grid.Ly
		return func(x, y float64) (float64, float64, float64) {
			return math.Sin(2 * math.Pi * y / ly), 0, 0
		}
	},
}

// InitialCondition resolves the named initial condition. Empty and "zero" both
// keep the zero state.
func (c *Config) InitialCondition() field.InitFunc {
	if fn, ok := initialConditions[c.Initial]; ok {
		return fn(c)
	}
	return nil
}

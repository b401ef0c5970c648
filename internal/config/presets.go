package config

import "sort"

// Presets are named ready-to-run configurations.
var Presets = map[string]*Config{
	"cavity": {
		Grid:    GridConfig{Nx: 41, Ny: 41, Lx: 2.0, Ly: 2.0},
		Fluid:   FluidConfig{Rho: 1.0, Nu: 0.1, Dt: 0.001},
		Poisson: PoissonConfig{Tolerance: 1e-3, MaxIters: 200},
		Steps:   700,
		Boundaries: BoundaryConfig{
			Left:   EdgeConfig{Kind: "no-slip"},
			Right:  EdgeConfig{Kind: "no-slip"},
			Bottom: EdgeConfig{Kind: "no-slip"},
			Top:    EdgeConfig{Kind: "fixed-value", Value: 1.0},
		},
		Initial: "zero",
	},
	"channel": {
		Grid:    GridConfig{Nx: 81, Ny: 41, Lx: 4.0, Ly: 2.0},
		Fluid:   FluidConfig{Rho: 1.0, Nu: 0.05, Dt: 0.001},
		Poisson: PoissonConfig{Tolerance: 1e-3, MaxIters: 200},
		Steps:   500,
		Boundaries: BoundaryConfig{
			Left:   EdgeConfig{Kind: "periodic"},
			Right:  EdgeConfig{Kind: "periodic"},
			Bottom: EdgeConfig{Kind: "no-slip"},
			Top:    EdgeConfig{Kind: "no-slip"},
		},
		Initial: "uniform",
	},
	"shear": {
		Grid:    GridConfig{Nx: 65, Ny: 65, Lx: 2.0, Ly: 2.0},
		Fluid:   FluidConfig{Rho: 1.0, Nu: 0.01, Dt: 0.0005},
		Poisson: PoissonConfig{Tolerance: 1e-3, MaxIters: 200},
		Steps:   1000,
		Boundaries: BoundaryConfig{
			Left:   EdgeConfig{Kind: "periodic"},
			Right:  EdgeConfig{Kind: "periodic"},
			Bottom: EdgeConfig{Kind: "periodic"},
			Top:    EdgeConfig{Kind: "periodic"},
		},
		Initial: "shear",
	},
	"coarse": {
		Grid:    GridConfig{Nx: 11, Ny: 11, Lx: 2.0, Ly: 2.0},
		Fluid:   FluidConfig{Rho: 1.0, Nu: 0.1, Dt: 0.001},
		Poisson: PoissonConfig{Tolerance: 1e-3, MaxIters: 200},
		Steps:   200,
		Boundaries: BoundaryConfig{
			Left:   EdgeConfig{Kind: "no-slip"},
			Right:  EdgeConfig{Kind: "no-slip"},
			Bottom: EdgeConfig{Kind: "no-slip"},
			Top:    EdgeConfig{Kind: "fixed-value", Value: 1.0},
		},
		Initial: "zero",
	},
}

// GetPreset returns nil when the name is unknown.
func GetPreset(name string) *Config {
	return Presets[name]
}

// ListPresets returns the preset names sorted.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

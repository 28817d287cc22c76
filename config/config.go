// Package config provides configuration loading and access for the fluid simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/sphfluid/sph"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every validation failure reported by Load.
var ErrInvalid = errors.New("invalid config")

// Config holds all simulation configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	Simulation SimulationConfig `yaml:"simulation"`
	Scene      SceneConfig      `yaml:"scene"`
	Camera     CameraConfig     `yaml:"camera"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// SimulationConfig holds the SPH kernel constants.
type SimulationConfig struct {
	DT                float64 `yaml:"dt"`                 // Seconds per tick
	UnitScale         float64 `yaml:"unit_scale"`         // Metres per world unit
	Viscosity         float64 `yaml:"viscosity"`
	RestDensity       float64 `yaml:"rest_density"`       // kg/m^3
	ParticleMass      float64 `yaml:"particle_mass"`      // kg
	GasConstant       float64 `yaml:"gas_constant"`
	SmoothRadius      float64 `yaml:"smooth_radius"`      // Kernel support h, metres
	BoundaryStiffness float64 `yaml:"boundary_stiffness"`
	BoundaryDamping   float64 `yaml:"boundary_damping"`
	SpeedLimit        float64 `yaml:"speed_limit"`        // Acceleration cap before walls and gravity
	GridBorder        float64 `yaml:"grid_border"`        // World units of grid padding around the wall
	PoolCeiling       int     `yaml:"pool_ceiling"`
	Integrator        string  `yaml:"integrator"`         // euler or leapfrog
	Seed              int64   `yaml:"seed"`
}

// SceneConfig holds the initial scene. Vectors are [x, y, z] in world units.
type SceneConfig struct {
	MaxParticles int       `yaml:"max_particles"`
	WallMin      []float64 `yaml:"wall_min"`
	WallMax      []float64 `yaml:"wall_max"`
	FluidMin     []float64 `yaml:"fluid_min"`
	FluidMax     []float64 `yaml:"fluid_max"`
	Gravity      []float64 `yaml:"gravity"` // m/s^2
}

// CameraConfig holds the initial orbit camera.
type CameraConfig struct {
	Distance float64 `yaml:"distance"`
	Yaw      float64 `yaml:"yaw"`   // Degrees
	Pitch    float64 `yaml:"pitch"` // Degrees
	FOV      float64 `yaml:"fov"`   // Degrees
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`          // Simulated seconds per stats window
	PerfCollectorWindow int     `yaml:"perf_collector_window"` // Ticks averaged by the perf collector
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	ScreenW32   float32 // Screen.Width as float32
	ScreenH32   float32 // Screen.Height as float32
	WindowTicks int32   // Ticks per telemetry window, 0 disables windows
	Spacing     float64 // Lattice spacing of the initial fluid, world units
	WallMin     r3.Vec
	WallMax     r3.Vec
	FluidMin    r3.Vec
	FluidMax    r3.Vec
	Gravity     r3.Vec
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Set replaces the global configuration. Used by tools that mutate a loaded config.
func Set(cfg *Config) {
	global = cfg
}

// Defaults returns a fresh copy of the embedded defaults.
func Defaults() (*Config, error) {
	return Load("")
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Refresh(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Refresh validates the config and recomputes derived values.
// Call it after changing fields of a loaded config.
func (c *Config) Refresh() error {
	if err := c.validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}

// validate checks the values the kernel cannot recover from.
func (c *Config) validate() error {
	if err := c.SolverParams().Validate(); err != nil {
		return fmt.Errorf("%w: simulation: %w", ErrInvalid, err)
	}
	if _, err := sph.NewIntegrator(c.Simulation.Integrator, c.Simulation.DT, c.Simulation.UnitScale); err != nil {
		return fmt.Errorf("%w: simulation: %w", ErrInvalid, err)
	}
	if c.Scene.MaxParticles <= 0 {
		return fmt.Errorf("%w: scene.max_particles must be positive, got %d", ErrInvalid, c.Scene.MaxParticles)
	}

	vectors := []struct {
		name string
		v    []float64
	}{
		{"wall_min", c.Scene.WallMin},
		{"wall_max", c.Scene.WallMax},
		{"fluid_min", c.Scene.FluidMin},
		{"fluid_max", c.Scene.FluidMax},
		{"gravity", c.Scene.Gravity},
	}
	for _, vec := range vectors {
		if len(vec.v) != 3 {
			return fmt.Errorf("%w: scene.%s needs 3 components, got %d", ErrInvalid, vec.name, len(vec.v))
		}
		for _, x := range vec.v {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return fmt.Errorf("%w: scene.%s has non-finite component %v", ErrInvalid, vec.name, x)
			}
		}
	}

	if !sph.NewBox(toVec(c.Scene.WallMin), toVec(c.Scene.WallMax)).Valid() {
		return fmt.Errorf("%w: scene.wall_min exceeds wall_max", ErrInvalid)
	}
	if !sph.NewBox(toVec(c.Scene.FluidMin), toVec(c.Scene.FluidMax)).Valid() {
		return fmt.Errorf("%w: scene.fluid_min exceeds fluid_max", ErrInvalid)
	}
	if c.Telemetry.StatsWindow < 0 {
		return fmt.Errorf("%w: telemetry.stats_window must not be negative", ErrInvalid)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)

	c.Derived.WindowTicks = 0
	if c.Telemetry.StatsWindow > 0 {
		c.Derived.WindowTicks = int32(math.Round(c.Telemetry.StatsWindow / c.Simulation.DT))
		if c.Derived.WindowTicks < 1 {
			c.Derived.WindowTicks = 1
		}
	}

	c.Derived.Spacing = c.SolverParams().Spacing()
	c.Derived.WallMin = toVec(c.Scene.WallMin)
	c.Derived.WallMax = toVec(c.Scene.WallMax)
	c.Derived.FluidMin = toVec(c.Scene.FluidMin)
	c.Derived.FluidMax = toVec(c.Scene.FluidMax)
	c.Derived.Gravity = toVec(c.Scene.Gravity)
}

// SolverParams returns the kernel constants as sph.Params.
func (c *Config) SolverParams() sph.Params {
	s := c.Simulation
	return sph.Params{
		DT:                s.DT,
		UnitScale:         s.UnitScale,
		Viscosity:         s.Viscosity,
		RestDensity:       s.RestDensity,
		ParticleMass:      s.ParticleMass,
		GasConstant:       s.GasConstant,
		SmoothRadius:      s.SmoothRadius,
		BoundaryStiffness: s.BoundaryStiffness,
		BoundaryDamping:   s.BoundaryDamping,
		SpeedLimit:        s.SpeedLimit,
		GridBorder:        s.GridBorder,
		PoolCeiling:       s.PoolCeiling,
		Integrator:        s.Integrator,
		Seed:              s.Seed,
	}
}

// SceneVectors returns the initial scene with vectors converted.
func (c *Config) SceneVectors() sph.Scene {
	return sph.Scene{
		MaxParticles: c.Scene.MaxParticles,
		Wall:         sph.NewBox(c.Derived.WallMin, c.Derived.WallMax),
		Fluid:        sph.NewBox(c.Derived.FluidMin, c.Derived.FluidMax),
		Gravity:      c.Derived.Gravity,
	}
}

// toVec converts a validated [x, y, z] list.
func toVec(v []float64) r3.Vec {
	if len(v) != 3 {
		return r3.Vec{}
	}
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

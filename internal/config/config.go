package config

import (
	"io"
	"math"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/galaxy/internal/core/observability/log"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config is the complete description of a simulation run.
type Config struct {
	Simulation Simulation `yaml:"simulation"`
	Log        Log        `yaml:"log"`
	Telemetry  Telemetry  `yaml:"telemetry"`
	// AutoOrbit gives every body without an initial velocity a circular orbit
	// around the first body.
	AutoOrbit bool   `yaml:"auto_orbit"`
	Bodies    []Body `yaml:"bodies"`
	Disk      *Disk  `yaml:"disk,omitempty"`
}

type Simulation struct {
	DeltaTime   float64 `yaml:"delta_time"`
	Steps       int     `yaml:"steps"`
	Gravity     float64 `yaml:"gravity"`
	Softening   float64 `yaml:"softening"`
	Workers     int     `yaml:"workers"`
	Merge       bool    `yaml:"merge"`
	DebugChecks bool    `yaml:"debug_checks"`
	Bounds      float64 `yaml:"bounds"`
}

type Log struct {
	Level string `yaml:"level"`
	// Format is "json" or "console".
	Format string `yaml:"format"`
	// Output is a file path, "stdout" or "stderr".
	Output string `yaml:"output"`
}

type Telemetry struct {
	WebSocketAddr string `yaml:"websocket_addr"`
	QUICAddr      string `yaml:"quic_addr"`
	// Every publishes a frame once per this many steps.
	Every         int           `yaml:"every"`
	StatsInterval time.Duration `yaml:"stats_interval"`
}

// Body is one explicitly placed body. Color is "#rrggbb"; empty means the
// default body colour.
type Body struct {
	Mass  float64    `yaml:"mass"`
	Pos   [2]float64 `yaml:"pos"`
	Vel   [2]float64 `yaml:"vel"`
	Color string     `yaml:"color"`
}

// Disk generates a central body with Count bodies on near circular orbits.
type Disk struct {
	Count       int     `yaml:"count"`
	Radius      float64 `yaml:"radius"`
	CentralMass float64 `yaml:"central_mass"`
	BodyMass    float64 `yaml:"body_mass"`
	Seed        int64   `yaml:"seed"`
	Color       string  `yaml:"color"`
}

func Default() *Config {
	return &Config{
		Simulation: Simulation{
			DeltaTime: 0.01,
			Gravity:   1,
			Softening: 0.1,
		},
		Log: Log{Level: "info", Format: "json", Output: "stderr"},
		Telemetry: Telemetry{
			Every:         1,
			StatsInterval: 5 * time.Second,
		},
	}
}

// Load decodes YAML on top of Default and validates the result. Unknown keys
// are rejected.
func Load(r io.Reader) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrapf(ErrInvalidConfig, "decode: %v", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open config")
	}
	defer func() { _ = f.Close() }()

	c, err := Load(f)
	if err != nil {
		return nil, errors.WithMessage(err, path)
	}
	return c, nil
}

// Validate checks value ranges. Body level checks happen in BuildBodies.
func (c *Config) Validate() error {
	s := c.Simulation
	switch {
	case !finite(s.DeltaTime) || s.DeltaTime == 0:
		return invalid("simulation.delta_time must be finite and non-zero, got %v", s.DeltaTime)
	case s.Steps < 0:
		return invalid("simulation.steps must be >= 0, got %d", s.Steps)
	case !finite(s.Gravity) || s.Gravity < 0:
		return invalid("simulation.gravity must be finite and >= 0, got %v", s.Gravity)
	case !finite(s.Softening) || s.Softening < 0:
		return invalid("simulation.softening must be finite and >= 0, got %v", s.Softening)
	case s.Workers < 0:
		return invalid("simulation.workers must be >= 0, got %d", s.Workers)
	case !finite(s.Bounds) || s.Bounds < 0:
		return invalid("simulation.bounds must be finite and >= 0, got %v", s.Bounds)
	case c.Telemetry.Every < 0:
		return invalid("telemetry.every must be >= 0, got %d", c.Telemetry.Every)
	case c.Telemetry.StatsInterval < 0:
		return invalid("telemetry.stats_interval must be >= 0, got %v", c.Telemetry.StatsInterval)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level: %v", err)
	}
	switch c.Log.Format {
	case "", "json", "console":
	default:
		return invalid("log.format must be json or console, got %q", c.Log.Format)
	}
	if len(c.Bodies) == 0 && (c.Disk == nil || c.Disk.Count == 0) {
		return invalid("no bodies configured")
	}
	if d := c.Disk; d != nil {
		switch {
		case d.Count < 0:
			return invalid("disk.count must be >= 0, got %d", d.Count)
		case !finite(d.Radius) || d.Radius <= 0:
			return invalid("disk.radius must be finite and positive, got %v", d.Radius)
		case !finite(d.CentralMass) || d.CentralMass < 0:
			return invalid("disk.central_mass must be finite and >= 0, got %v", d.CentralMass)
		case !finite(d.BodyMass) || d.BodyMass <= 0:
			return invalid("disk.body_mass must be finite and positive, got %v", d.BodyMass)
		}
	}
	return nil
}

// LogLevel returns the parsed log level; invalid values fall back to info.
func (c *Config) LogLevel() log.Level {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.LevelInfo
	}
	return lvl
}

func invalid(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidConfig, format, args...)
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

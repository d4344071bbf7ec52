package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
	homedir "github.com/mitchellh/go-homedir"
)

// Commands recognised by Run.
const (
	CmdDescribe = "describe"
	CmdTrack    = "track"
	CmdOrbit    = "orbit"
	CmdTwiss    = "twiss"
)

// Defaults holds the settings a config file or the environment may preset.
// File values are read from TOML, environment values from LATTICEGO_*
// variables, the latter taking precedence.
type Defaults struct {
	LogLevel       string  `toml:"log_level" envconfig:"LOG_LEVEL"`
	LogFormat      string  `toml:"log_format" envconfig:"LOG_FORMAT"`
	Workers        int     `toml:"workers" envconfig:"WORKERS"`
	Turns          int     `toml:"turns" envconfig:"TURNS"`
	Energy         float64 `toml:"energy" envconfig:"ENERGY"`
	HarmonicNumber int     `toml:"harmonic_number" envconfig:"HARMONIC_NUMBER"`
	LatticeKey     string  `toml:"lattice_key" envconfig:"LATTICE_KEY"`
}

// ConfigFileName is the per-user config file looked up in the home directory
// when no explicit path is given.
const ConfigFileName = ".latticego.toml"

// LoadDefaults layers the built-in defaults, the TOML config file and the
// environment. A missing implicit config file is not an error; a missing
// explicit one is.
func LoadDefaults(path string) (Defaults, error) {
	d := Defaults{
		LogLevel:  "info",
		LogFormat: "text",
		Workers:   10,
		Turns:     1,
	}
	explicit := path != ""
	if !explicit {
		home, err := homedir.Dir()
		if err == nil {
			path = filepath.Join(home, ConfigFileName)
		}
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &d); err != nil {
			if explicit || !os.IsNotExist(err) {
				return d, fmt.Errorf("reading config file %s: %w", path, err)
			}
		}
	}
	if err := envconfig.Process("latticego", &d); err != nil {
		return d, fmt.Errorf("reading environment: %w", err)
	}
	return d, nil
}

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Command     string
	LatticePath string

	// Rin holds the launch coordinates, one 6-vector per particle. Empty
	// means a single particle on the reference orbit.
	Rin    [][]float64
	Turns  int
	DP     float64
	RefPts []int
	Chrom  bool

	// Energy, HarmonicNumber and LatticeKey override or supply values the
	// lattice file may not carry itself.
	Energy         float64
	HarmonicNumber int
	LatticeKey     string

	LogFormat string
	LogLevel  slog.Level
	Workers   int
}

func NewConfig(cfg Config) (*Config, error) {
	switch cfg.Command {
	case CmdDescribe, CmdTrack, CmdOrbit, CmdTwiss:
	default:
		return nil, fmt.Errorf("unknown command %q", cfg.Command)
	}
	if cfg.LatticePath == "" {
		return nil, errors.New("LatticePath is a required configuration field and cannot be empty")
	}
	if cfg.Turns < 1 {
		return nil, fmt.Errorf("turns must be at least 1, got %d", cfg.Turns)
	}
	for i, r := range cfg.Rin {
		if len(r) != 6 {
			return nil, fmt.Errorf("particle %d: launch coordinates must be a 6-vector, got %d values", i, len(r))
		}
	}
	return &cfg, nil
}

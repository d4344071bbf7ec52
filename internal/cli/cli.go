package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/vk/latticego/internal/app"
	"github.com/vk/latticego/internal/load"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// vectorList collects repeated -rin flags, each a comma separated 6-vector.
type vectorList [][]float64

func (v *vectorList) String() string {
	return fmt.Sprintf("%v", [][]float64(*v))
}

func (v *vectorList) Set(s string) error {
	parts := strings.Split(s, ",")
	if len(parts) != 6 {
		return fmt.Errorf("expected 6 comma separated values, got %d", len(parts))
	}
	r := make([]float64, 6)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return fmt.Errorf("value %q: %w", p, err)
		}
		r[i] = f
	}
	*v = append(*v, r)
	return nil
}

// intList collects the -refpts flag, a comma separated list of indices.
type intList []int

func (v *intList) String() string {
	return fmt.Sprintf("%v", []int(*v))
}

func (v *intList) Set(s string) error {
	var out []int
	for _, p := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return fmt.Errorf("value %q: %w", p, err)
		}
		out = append(out, n)
	}
	*v = out
	return nil
}

// Parse processes command-line arguments. It returns a populated Config, a
// boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	// A first pass picks up only -config, so the file and environment
	// defaults are known before the flag defaults are declared.
	configPath := ""
	for i, arg := range args {
		if arg == "-config" || arg == "--config" {
			if i+1 < len(args) {
				configPath = args[i+1]
			}
		} else if v, ok := strings.CutPrefix(arg, "-config="); ok {
			configPath = v
		} else if v, ok := strings.CutPrefix(arg, "--config="); ok {
			configPath = v
		}
	}
	defaults, err := app.LoadDefaults(configPath)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	flagSet := flag.NewFlagSet("latticego", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
LatticeGo - A particle accelerator lattice tracking tool.

Usage:
  latticego [options] COMMAND LATTICE_PATH

Commands:
  describe   Print the lattice and its elements.
  track      Track particles turn by turn.
  orbit      Find the transverse closed orbit.
  twiss      Compute the linear optics functions.

Arguments:
  LATTICE_PATH
    Path to a lattice file. Supported formats:
`)
		formats := load.Formats()
		exts := make([]string, 0, len(formats))
		for ext := range formats {
			exts = append(exts, ext)
		}
		sort.Strings(exts)
		for _, ext := range exts {
			fmt.Fprintf(output, "      %s  %s\n", ext, formats[ext])
		}
		fmt.Fprint(output, "\nOptions:\n")
		flagSet.PrintDefaults()
	}

	var rin vectorList
	var refpts intList
	flagSet.String("config", "", "Path to the TOML config file. Default: ~/"+app.ConfigFileName+".")
	flagSet.Var(&rin, "rin", "Launch coordinates x,px,y,py,dp,ct. May be repeated, one per particle.")
	flagSet.Var(&refpts, "refpts", "Comma separated element indices to observe. Default: end of the ring.")
	turnsFlag := flagSet.Int("turns", defaults.Turns, "Number of turns to track.")
	dpFlag := flagSet.Float64("dp", 0, "Momentum deviation.")
	chromFlag := flagSet.Bool("chrom", false, "Also compute dispersion and chromaticity (twiss only).")
	energyFlag := flagSet.Float64("energy", defaults.Energy, "Beam energy in eV, for formats that cannot express it.")
	harmFlag := flagSet.Int("harmonic-number", defaults.HarmonicNumber, "RF harmonic number, for formats that cannot express it.")
	latticeKeyFlag := flagSet.String("lattice-key", defaults.LatticeKey, "Name of the sequence to expand.")
	workersFlag := flagSet.Int("workers", defaults.Workers, "Number of concurrent workers for the tracking engine.")
	logFormatFlag := flagSet.String("log-format", defaults.LogFormat, "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", defaults.LogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if flagSet.NArg() == 0 {
		slog.Debug("No command provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}
	if flagSet.NArg() != 2 {
		return nil, false, &ExitError{Code: 2, Message: "expected COMMAND LATTICE_PATH"}
	}
	command := strings.ToLower(flagSet.Arg(0))
	path := flagSet.Arg(1)
	slog.Debug("Command determined.", "command", command, "path", path)

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	var logLevel slog.Level
	switch strings.ToLower(*logLevelFlag) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		Command:        command,
		LatticePath:    path,
		Rin:            rin,
		Turns:          *turnsFlag,
		DP:             *dpFlag,
		RefPts:         refpts,
		Chrom:          *chromFlag,
		Energy:         *energyFlag,
		HarmonicNumber: *harmFlag,
		LatticeKey:     *latticeKeyFlag,
		LogFormat:      logFormat,
		LogLevel:       logLevel,
		Workers:        *workersFlag,
	})

	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

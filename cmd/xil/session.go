package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"xil/internal/diag"
	"xil/internal/diagfmt"
	"xil/internal/driver"
	"xil/internal/observ"
	"xil/internal/source"
)

// errReported is returned when diagnostics with errors were already printed.
var errReported = errors.New("errors reported")

// session holds what every pipeline command reads from the global flags.
type session struct {
	log         *zap.Logger
	timer       *observ.Timer
	opts        driver.Options
	color       bool
	quiet       bool
	timings     bool
	diagnostics string
	cleanup     func()
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true
	return cfg.Build()
}

func newSession(cmd *cobra.Command) (*session, error) {
	flags := cmd.Root().PersistentFlags()

	colorFlag, err := flags.GetString("color")
	if err != nil {
		return nil, fmt.Errorf("failed to get color flag: %w", err)
	}
	useColor, err := diagfmt.UseColor(colorFlag, os.Stderr)
	if err != nil {
		return nil, err
	}
	quiet, err := flags.GetBool("quiet")
	if err != nil {
		return nil, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	timings, err := flags.GetBool("timings")
	if err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}
	maxDiagnostics, err := flags.GetInt("max-diagnostics")
	if err != nil {
		return nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	diagFormat, err := flags.GetString("diagnostics-format")
	if err != nil {
		return nil, fmt.Errorf("failed to get diagnostics-format flag: %w", err)
	}
	if diagFormat != "pretty" && diagFormat != "json" {
		return nil, fmt.Errorf("unsupported diagnostics format %q (must be pretty or json)", diagFormat)
	}
	logLevel, err := flags.GetString("log-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get log-level flag: %w", err)
	}
	jobs, err := flags.GetInt("jobs")
	if err != nil {
		return nil, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	noCache, err := flags.GetBool("no-cache")
	if err != nil {
		return nil, fmt.Errorf("failed to get no-cache flag: %w", err)
	}

	log, err := newLogger(logLevel)
	if err != nil {
		return nil, err
	}
	cleanupTrace, err := setupTracing(cmd, log)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		cleanupTrace()
		_ = log.Sync()
		return nil, err
	}

	s := &session{
		log:         log,
		color:       useColor,
		quiet:       quiet,
		timings:     timings,
		diagnostics: diagFormat,
		opts: driver.Options{
			MaxDiagnostics: maxDiagnostics,
			Jobs:           jobs,
			Logger:         log,
		},
	}
	if timings {
		s.timer = observ.NewTimer()
		s.opts.Timer = s.timer
	}
	if !noCache {
		cache, err := driver.OpenDiskCache("xil")
		if err != nil {
			// без кэша всё работает, просто медленнее
			log.Warn("translation cache disabled", zap.Error(err))
		} else {
			s.opts.Cache = cache
		}
	}
	s.cleanup = func() {
		stopProfiling()
		cleanupTrace()
		_ = log.Sync()
	}
	return s, nil
}

func (s *session) close() {
	if s != nil && s.cleanup != nil {
		s.cleanup()
	}
}

// report prints the diagnostics of a pipeline result and the timings.
// It returns errReported when the bag holds errors.
func (s *session) report(w io.Writer, bag *diag.Bag, fs *source.FileSet) error {
	if bag == nil {
		return nil
	}
	bag.Sort()
	switch s.diagnostics {
	case "json":
		if err := diagfmt.JSON(w, bag, fs, diagfmt.JSONOpts{IncludePositions: true, IncludeNotes: true}); err != nil {
			return err
		}
	default:
		diagfmt.Pretty(w, bag, fs, diagfmt.PrettyOpts{
			Color:     s.color,
			Context:   0,
			PathMode:  diagfmt.PathModeAuto,
			ShowNotes: true,
		})
	}

	if s.timings {
		s.timer.Log(s.log)
		if !s.quiet {
			fmt.Fprint(w, s.timer.Summary())
		}
	}
	if bag.HasErrors() {
		return errReported
	}
	return nil
}

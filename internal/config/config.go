package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config holds all parameters of a generation run.
// There is no configuration file and no environment contract: callers build
// a Config in code (cmd/cdrgen fills it from flags) starting from Default().
type Config struct {
	// OutputDir is created if absent. The generator owns the file at
	// OutputPath() for the duration of a run.
	OutputDir string
	Filename  string

	// TargetGB is the approximate output size in gigabytes (2^30 bytes).
	TargetGB float64

	// Year range for call_date sampling, inclusive.
	StartYear int
	EndYear   int

	// ProgressEvery rows, a progress line is logged (advisory).
	ProgressEvery int

	// SizeCheckEvery rows, buffers are flushed and the authoritative on-disk
	// size is compared to the target. Smaller values tighten the overshoot
	// bound at the price of more stat calls.
	SizeCheckEvery int

	// AvgRowBytes is a fixed estimate used only for the start-of-run row
	// count report; it is never measured dynamically.
	AvgRowBytes int
}

func Default() Config {
	return Config{
		OutputDir:      filepath.Join(os.TempDir(), "data_generation"),
		Filename:       "large_cdr_data.csv",
		TargetGB:       1.0,
		StartYear:      2015,
		EndYear:        2024,
		ProgressEvery:  100_000,
		SizeCheckEvery: 50_000,
		AvgRowBytes:    125,
	}
}

func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.OutputDir) == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if strings.TrimSpace(c.Filename) == "" {
		errs = append(errs, errors.New("output filename is required"))
	} else if strings.ContainsRune(c.Filename, os.PathSeparator) {
		errs = append(errs, fmt.Errorf("output filename must not contain path separators, got %q", c.Filename))
	}
	if c.TargetGB <= 0 {
		errs = append(errs, fmt.Errorf("target size must be positive, got %v GB", c.TargetGB))
	}
	if c.StartYear <= 0 || c.EndYear <= 0 {
		errs = append(errs, fmt.Errorf("year range must be positive, got %d-%d", c.StartYear, c.EndYear))
	} else if c.EndYear < c.StartYear {
		errs = append(errs, fmt.Errorf("end year must not precede start year, got %d-%d", c.StartYear, c.EndYear))
	}
	if c.ProgressEvery <= 0 {
		errs = append(errs, fmt.Errorf("progress interval must be positive, got %d", c.ProgressEvery))
	}
	if c.SizeCheckEvery <= 0 {
		errs = append(errs, fmt.Errorf("size check interval must be positive, got %d", c.SizeCheckEvery))
	}
	if c.AvgRowBytes <= 0 {
		errs = append(errs, fmt.Errorf("average row estimate must be positive, got %d", c.AvgRowBytes))
	}

	return joinErrors(errs)
}

// OutputPath is the file the generator writes.
func (c Config) OutputPath() string {
	return filepath.Join(c.OutputDir, c.Filename)
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}

package dataset

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"

	"cdrgen/internal/cdr"
	"cdrgen/internal/config"
)

const headerLine = "caller_id,recipient,call_date,end_time,duration,cost,reference,currency"

// small run that still exercises several size checks
func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.OutputDir = t.TempDir()
	cfg.Filename = "cdrs_test.csv"
	cfg.TargetGB = 0.0001 // ~107 KB
	cfg.ProgressEvery = 1_000
	cfg.SizeCheckEvery = 100
	return cfg
}

func testGenerator(cfg config.Config, seed int64) *Generator {
	return New(cfg, cdr.NewSampler(rand.New(rand.NewSource(seed))))
}

func TestRun_ReachesTargetWithBoundedOvershoot(t *testing.T) {
	cfg := testConfig(t)
	gen := testGenerator(cfg, 1)

	res, err := gen.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	targetBytes := int64(cfg.TargetGB * (1 << 30))
	if res.TargetBytes != targetBytes {
		t.Fatalf("expected target %d bytes, got %d", targetBytes, res.TargetBytes)
	}
	if res.ActualBytes < targetBytes {
		t.Fatalf("expected actual size >= %d, got %d", targetBytes, res.ActualBytes)
	}

	// overshoot is bounded by one check interval of worst-case rows
	const maxRowBytes = 128
	bound := targetBytes + int64(cfg.SizeCheckEvery)*maxRowBytes
	if res.ActualBytes > bound {
		t.Fatalf("overshoot too large: actual %d, bound %d", res.ActualBytes, bound)
	}

	info, err := os.Stat(cfg.OutputPath())
	if err != nil {
		t.Fatalf("stat output: %v", err)
	}
	if info.Size() != res.ActualBytes {
		t.Fatalf("reported actual size %d, on disk %d", res.ActualBytes, info.Size())
	}

	// no quoting is ever triggered, so the advisory running estimate must
	// agree exactly with the authoritative size at the stopping check
	if res.EstimatedBytes != res.ActualBytes {
		t.Fatalf("estimated %d bytes, actual %d", res.EstimatedBytes, res.ActualBytes)
	}
}

func TestRun_HeaderAndColumnInvariants(t *testing.T) {
	cfg := testConfig(t)
	gen := testGenerator(cfg, 2)

	res, err := gen.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	f, err := os.Open(res.Path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	first, err := bufio.NewReader(f).ReadString('\n')
	if err != nil {
		t.Fatalf("read first line: %v", err)
	}
	if first != headerLine+"\n" {
		t.Fatalf("unexpected header line %q", first)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("seek: %v", err)
	}
	r := csv.NewReader(f)
	rows := int64(0)
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("row %d: parse error: %v", rows, err)
		}
		if len(rec) != 8 {
			t.Fatalf("row %d: expected 8 fields, got %d", rows, len(rec))
		}
		rows++
	}
	if rows != res.Rows+1 { // header plus data rows
		t.Fatalf("expected %d lines, parsed %d", res.Rows+1, rows)
	}
}

func TestRun_FieldDomains(t *testing.T) {
	cfg := testConfig(t)
	gen := testGenerator(cfg, 3)

	res, err := gen.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	f, err := os.Open(res.Path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	if _, err := r.Read(); err != nil { // header
		t.Fatalf("read header: %v", err)
	}
	row := 0
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("row %d: parse error: %v", row, err)
		}
		row++

		if _, err := time.Parse("02/01/2006", rec[2]); err != nil {
			t.Fatalf("row %d: bad call_date %q: %v", row, rec[2], err)
		}
		if _, err := time.Parse("15:04:05", rec[3]); err != nil {
			t.Fatalf("row %d: bad end_time %q: %v", row, rec[3], err)
		}
		d, err := strconv.Atoi(rec[4])
		if err != nil || d < 1 || d > 7200 {
			t.Fatalf("row %d: bad duration %q", row, rec[4])
		}
		switch rec[7] {
		case "GBP", "USD", "EUR":
		default:
			t.Fatalf("row %d: bad currency %q", row, rec[7])
		}
		if len(rec[6]) != 32 {
			t.Fatalf("row %d: bad reference %q", row, rec[6])
		}
	}
}

func TestRun_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.TargetGB = 0
	gen := testGenerator(cfg, 4)

	if _, err := gen.Run(context.Background()); err == nil {
		t.Fatalf("expected validation error")
	}
	if _, err := os.Stat(cfg.OutputPath()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no output file, stat err %v", err)
	}
}

// flakySink wraps a real file and fails once a write budget is exhausted.
type flakySink struct {
	inner   sink
	written int
	budget  int
}

var errDiskFull = errors.New("disk full")

func (s *flakySink) Write(p []byte) (int, error) {
	if s.written+len(p) > s.budget {
		return 0, errDiskFull
	}
	s.written += len(p)
	return s.inner.Write(p)
}

func (s *flakySink) Size() (int64, error) { return s.inner.Size() }
func (s *flakySink) Close() error         { return s.inner.Close() }

func TestRun_RemovesPartialFileOnWriteFailure(t *testing.T) {
	cfg := testConfig(t)
	gen := testGenerator(cfg, 5)
	gen.open = func(path string) (sink, error) {
		inner, err := openFileSink(path)
		if err != nil {
			return nil, err
		}
		return &flakySink{inner: inner, budget: 10_000}, nil
	}

	_, err := gen.Run(context.Background())
	if !errors.Is(err, errDiskFull) {
		t.Fatalf("expected disk full error, got %v", err)
	}
	if _, err := os.Stat(cfg.OutputPath()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected partial file to be removed, stat err %v", err)
	}
}

func TestRun_RemovesPartialFileOnCancel(t *testing.T) {
	cfg := testConfig(t)
	gen := testGenerator(cfg, 6)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gen.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := os.Stat(cfg.OutputPath()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected partial file to be removed, stat err %v", err)
	}
}

package numerator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
)

// Mock objects
type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

type mockQuerier struct {
	mu           sync.Mutex
	currentValue int64 // Simulates DB sequence value
	lastIncr     int64 // Track last increment passed
	calls        int
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Strict passes (key), cached passes (key, increment).
	var increment int64 = 1
	if len(args) == 2 {
		if val, ok := args[1].(int64); ok {
			increment = val
		}
	}

	m.currentValue += increment
	m.lastIncr = increment
	m.calls++

	return &mockRow{val: m.currentValue}
}

func TestGetNextNumber_Strict(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := DefaultConfig("S")

	year := time.Now().Format("2006")

	num, err := svc.GetNextNumber(ctx, cfg, nil, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "S-"+year+"-00001" {
		t.Errorf("expected S-%s-00001, got %s", year, num)
	}

	num, err = svc.GetNextNumber(ctx, cfg, nil, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "S-"+year+"-00002" {
		t.Errorf("expected S-%s-00002, got %s", year, num)
	}
}

func TestGetNextNumber_Cached(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := DefaultConfig("R")
	opts := &Options{Strategy: StrategyCached, RangeSize: 10}

	year := time.Now().Format("2006")

	// First call reserves a range of 10 from the DB.
	num, err := svc.GetNextNumber(ctx, cfg, opts, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "R-"+year+"-00001" {
		t.Errorf("expected R-%s-00001, got %s", year, num)
	}
	if q.lastIncr != 10 {
		t.Errorf("expected range reservation of 10, got %d", q.lastIncr)
	}

	// Subsequent calls within the range must not hit the DB again.
	callsAfterReserve := q.calls
	for i := 2; i <= 10; i++ {
		if _, err := svc.GetNextNumber(ctx, cfg, opts, time.Now()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if q.calls != callsAfterReserve {
		t.Errorf("expected no extra DB calls within range, got %d extra", q.calls-callsAfterReserve)
	}

	// The 11th number triggers a new range.
	num, err = svc.GetNextNumber(ctx, cfg, opts, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "R-"+year+"-00011" {
		t.Errorf("expected R-%s-00011, got %s", year, num)
	}
}

func TestFormatNumber_NoYear(t *testing.T) {
	svc := New(&mockQuerier{})
	cfg := Config{Prefix: "S", IncludeYear: false, PadWidth: 4}

	got := svc.formatNumber(cfg, time.Now(), 42)
	if got != "S-0042" {
		t.Errorf("expected S-0042, got %s", got)
	}
}

func TestParseNumber(t *testing.T) {
	if got := ParseNumber("S-2026-00042"); got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
	if got := ParseNumber("R-00007"); got != 7 {
		t.Errorf("expected 7, got %d", got)
	}
	if got := ParseNumber("garbage"); got != -1 {
		t.Errorf("expected -1, got %d", got)
	}
}

package main

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEvalLogRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "optimize_log.csv")
	params := NewParamVector()
	l, err := newEvalLog(path, params, []string{"plant", "rabbit"})
	if err != nil {
		t.Fatal(err)
	}
	s := EvalSummary{Fitness: -120, Quality: 0.5, SurvivalSec: 100, FinalCounts: []float64{40, 3.5}}
	if err := l.write(1, s, params.DefaultVector()); err != nil {
		t.Fatal(err)
	}
	if err := l.close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	wantCols := 4 + 2 + params.Dim()
	if len(rows[0]) != wantCols || len(rows[1]) != wantCols {
		t.Fatalf("columns = %d/%d, want %d", len(rows[0]), len(rows[1]), wantCols)
	}
	if rows[0][5] != "final_rabbit" || rows[0][6] != params.Specs[0].Path {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][2] != "100.0" || rows[1][5] != "3.50" {
		t.Errorf("row = %v", rows[1])
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := formatCounts([]string{"plant", "rabbit"}, []float64{80, 12.34}); got != "plant=80.0 rabbit=12.3" {
		t.Errorf("formatCounts = %q", got)
	}
	tests := []struct {
		d    time.Duration
		want string
	}{
		{75 * time.Second, "1m15s"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1h02m03s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

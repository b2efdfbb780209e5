package bench

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func TestCSVSink(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewCSVSink(dir)
	if err != nil {
		t.Fatal(err)
	}
	results := []ConfigResult{
		{Algorithm: "consistent_hashing", NumServers: 10, NumRequests: 1000, Throughput: 1e6, StdErr: 100, CILow: 1e6 - 196, CIHigh: 1e6 + 196, CoV: 0.05},
		{Algorithm: "consistent_hashing", NumServers: 20, NumRequests: 1000, Throughput: 2e6, StdErr: 50, CILow: 2e6 - 98, CIHigh: 2e6 + 98, CoV: 0.04},
		{Algorithm: "jump_hashing", NumServers: 10, NumRequests: 1000, Throughput: 3e6, StdErr: 10, CILow: 3e6 - 19.6, CIHigh: 3e6 + 19.6, CoV: 0.01},
	}
	for _, res := range results {
		if err := sink.Write(res); err != nil {
			t.Fatal(err)
		}
	}
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}

	rows := readCSV(t, filepath.Join(dir, "consistent_hashing.csv"))
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d rows", len(rows))
	}
	for i, col := range resultColumns {
		if rows[0][i] != col {
			t.Errorf("header column %d: want %s, got %s", i, col, rows[0][i])
		}
	}
	if rows[1][0] != "1000" || rows[1][1] != "10" {
		t.Errorf("unexpected first row: %v", rows[1])
	}
	if rows[1][2] != "100.000000" {
		t.Errorf("requests_per_server: want 100.000000, got %s", rows[1][2])
	}

	jump := readCSV(t, filepath.Join(dir, "jump_hashing.csv"))
	if len(jump) != 2 {
		t.Fatalf("expected header plus 1 row, got %d rows", len(jump))
	}
}

func TestCSVSinkAppendsWithoutDuplicateHeader(t *testing.T) {
	dir := t.TempDir()
	res := ConfigResult{Algorithm: "maglev_hashing", NumServers: 5, NumRequests: 500, Throughput: 1}

	for i := 0; i < 2; i++ {
		sink, err := NewCSVSink(dir)
		if err != nil {
			t.Fatal(err)
		}
		if err := sink.Write(res); err != nil {
			t.Fatal(err)
		}
		if err := sink.Close(); err != nil {
			t.Fatal(err)
		}
	}

	rows := readCSV(t, filepath.Join(dir, "maglev_hashing.csv"))
	if len(rows) != 3 {
		t.Fatalf("expected one header and two rows after two runs, got %d rows", len(rows))
	}
	if rows[1][0] != rows[2][0] {
		t.Errorf("appended rows differ: %v vs %v", rows[1], rows[2])
	}
}

package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"

	"navsim/internal/field"
	"navsim/internal/grid"
)

func testSnapshot(t *testing.T) field.Snapshot {
	t.Helper()
	g, err := grid.New(4, 3, 1.0, 1.0)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	fs, err := field.New(g, 1.0, 0.1, 0.01)
	if err != nil {
		t.Fatalf("fields: %v", err)
	}
	fs.Initialize(func(x, y float64) (float64, float64, float64) {
		return x + y, x - y, x * y
	})
	return fs.Snapshot()
}

func TestSaveLoadMetadata(t *testing.T) {
	s := NewStore(t.TempDir())
	if err := s.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	snap := testSnapshot(t)
	meta := RunMetadata{
		Rho: 1.0, Nu: 0.1, Dt: 0.01, Steps: 7, Outcome: "ok",
		Metrics: map[string]float64{"kinetic_energy": 0.5},
	}
	id, err := s.Save(meta, snap)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Load(id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.ID != id || got.Nx != snap.Nx || got.Ny != snap.Ny {
		t.Errorf("metadata identity mismatch: %+v", got)
	}
	if got.Steps != 7 || got.Outcome != "ok" {
		t.Errorf("run outcome lost: %+v", got)
	}
	if got.Metrics["kinetic_energy"] != 0.5 {
		t.Errorf("metrics lost: %+v", got.Metrics)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := NewStore(t.TempDir())
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}

	snap := testSnapshot(t)
	id, err := s.Save(RunMetadata{Outcome: "ok"}, snap)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.LoadSnapshot(id)
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if got.Nx != snap.Nx || got.Ny != snap.Ny || got.Dx != snap.Dx {
		t.Fatalf("shape mismatch: %+v", got)
	}
	for k := range snap.U {
		if got.U[k] != snap.U[k] || got.V[k] != snap.V[k] || got.P[k] != snap.P[k] {
			t.Fatalf("cell %d changed across the round trip", k)
		}
	}
}

func TestListRuns(t *testing.T) {
	s := NewStore(t.TempDir() + "/never-created")
	runs, err := s.List()
	if err != nil {
		t.Fatalf("list of absent dir: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected no runs, got %d", len(runs))
	}

	s = NewStore(t.TempDir())
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	id, err := s.Save(RunMetadata{Outcome: "ok"}, testSnapshot(t))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	runs, err = s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != id {
		t.Errorf("list = %+v, want the one saved run", runs)
	}
}

func TestLoadUnknownRun(t *testing.T) {
	s := NewStore(t.TempDir())
	if _, err := s.Load("run_0"); err == nil {
		t.Error("expected error for unknown run")
	}
}

func TestWriteCSVShape(t *testing.T) {
	snap := testSnapshot(t)
	var buf bytes.Buffer
	if err := WriteCSV(&buf, snap); err != nil {
		t.Fatalf("write: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(records) != 1+snap.Nx*snap.Ny {
		t.Fatalf("row count = %d, want %d", len(records), 1+snap.Nx*snap.Ny)
	}
	if records[0][0] != "i" || records[0][6] != "p" {
		t.Errorf("header = %v", records[0])
	}
	for n, rec := range records[1:] {
		if len(rec) != 7 {
			t.Fatalf("row %d has %d columns", n+1, len(rec))
		}
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	snap := testSnapshot(t)
	var buf bytes.Buffer
	meta := RunMetadata{Outcome: "ok", Steps: 3}
	if err := WriteJSON(&buf, meta, snap); err != nil {
		t.Fatalf("write: %v", err)
	}

	var dump JSONDump
	if err := json.Unmarshal(buf.Bytes(), &dump); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dump.Nx != snap.Nx || dump.Ny != snap.Ny || dump.Meta.Steps != 3 {
		t.Errorf("dump identity mismatch: %+v", dump.Meta)
	}
	if len(dump.U) != len(snap.U) || dump.U[5] != snap.U[5] {
		t.Error("field arrays not preserved")
	}
}

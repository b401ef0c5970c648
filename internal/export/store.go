// Package export persists and renders simulation output: run directories with
// metadata and field dumps, CSV/JSON writers, and PNG heatmaps. Everything
// here consumes immutable snapshots; nothing mutates live fields.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"navsim/internal/field"
)

// RunMetadata describes one stored run.
type RunMetadata struct {
	ID        string             `json:"id"`
	Timestamp time.Time          `json:"timestamp"`
	Nx        int                `json:"nx"`
	Ny        int                `json:"ny"`
	Dx        float64            `json:"dx"`
	Dy        float64            `json:"dy"`
	Rho       float64            `json:"rho"`
	Nu        float64            `json:"nu"`
	Dt        float64            `json:"dt"`
	Steps     int                `json:"steps"`
	Outcome   string             `json:"outcome"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Store keeps runs under a base directory, one subdirectory per run with
// metadata.json and fields.csv.
type Store struct {
	baseDir string
}

func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// Save writes the snapshot and metadata, returning the generated run id.
func (s *Store) Save(meta RunMetadata, snap field.Snapshot) (string, error) {
	runID := fmt.Sprintf("run_%d", time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()
	meta.Nx = snap.Nx
	meta.Ny = snap.Ny
	meta.Dx = snap.Dx
	meta.Dy = snap.Dy

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()
	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "fields.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()
	return runID, WriteCSV(csvFile, snap)
}

// Load reads a run's metadata.
func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// List returns all stored runs, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	runs := make([]RunMetadata, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		meta, err := s.Load(e.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

// LoadSnapshot reads back a stored fields.csv.
func (s *Store) LoadSnapshot(runID string) (field.Snapshot, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "fields.csv"))
	if err != nil {
		return field.Snapshot{}, err
	}
	defer f.Close()

	meta, err := s.Load(runID)
	if err != nil {
		return field.Snapshot{}, err
	}

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return field.Snapshot{}, err
	}
	if len(records) < 1 {
		return field.Snapshot{}, fmt.Errorf("export: empty fields file for %s", runID)
	}

	n := meta.Nx * meta.Ny
	snap := field.Snapshot{
		Nx: meta.Nx,
		Ny: meta.Ny,
		Dx: meta.Dx,
		Dy: meta.Dy,
		U:  make([]float64, n),
		V:  make([]float64, n),
		P:  make([]float64, n),
	}
	if len(records)-1 != n {
		return field.Snapshot{}, fmt.Errorf("export: %s holds %d rows, want %d", runID, len(records)-1, n)
	}
	for k, rec := range records[1:] {
		// columns: i, j, x, y, u, v, p
		if len(rec) != 7 {
			return field.Snapshot{}, fmt.Errorf("export: malformed row %d in %s", k+1, runID)
		}
		vals := make([]float64, 3)
		for c := 4; c < 7; c++ {
			v, err := strconv.ParseFloat(rec[c], 64)
			if err != nil {
				return field.Snapshot{}, err
			}
			vals[c-4] = v
		}
		snap.U[k] = vals[0]
		snap.V[k] = vals[1]
		snap.P[k] = vals[2]
	}
	return snap, nil
}

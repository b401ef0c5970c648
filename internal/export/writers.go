package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"navsim/internal/field"
)

// WriteCSV dumps a snapshot as one row per grid point: i, j, x, y, u, v, p.
func WriteCSV(w io.Writer, snap field.Snapshot) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"i", "j", "x", "y", "u", "v", "p"}); err != nil {
		return err
	}
	for i := 0; i < snap.Nx; i++ {
		for j := 0; j < snap.Ny; j++ {
			row := []string{
				strconv.Itoa(i),
				strconv.Itoa(j),
				strconv.FormatFloat(float64(i)*snap.Dx, 'f', 6, 64),
				strconv.FormatFloat(float64(j)*snap.Dy, 'f', 6, 64),
				strconv.FormatFloat(snap.At(snap.U, i, j), 'g', -1, 64),
				strconv.FormatFloat(snap.At(snap.V, i, j), 'g', -1, 64),
				strconv.FormatFloat(snap.At(snap.P, i, j), 'g', -1, 64),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// JSONDump is the export-json payload.
type JSONDump struct {
	Meta RunMetadata `json:"meta"`
	Nx   int         `json:"nx"`
	Ny   int         `json:"ny"`
	U    []float64   `json:"u"`
	V    []float64   `json:"v"`
	P    []float64   `json:"p"`
}

// WriteJSON dumps metadata plus the flat field arrays.
func WriteJSON(w io.Writer, meta RunMetadata, snap field.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(JSONDump{
		Meta: meta,
		Nx:   snap.Nx,
		Ny:   snap.Ny,
		U:    snap.U,
		V:    snap.V,
		P:    snap.P,
	})
}

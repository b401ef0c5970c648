package export

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"navsim/internal/field"
)

// fieldGrid adapts a snapshot field to plotter.GridXYZ.
type fieldGrid struct {
	snap field.Snapshot
	data []float64
}

func (fg fieldGrid) Dims() (int, int)   { return fg.snap.Nx, fg.snap.Ny }
func (fg fieldGrid) Z(c, r int) float64 { return fg.snap.At(fg.data, c, r) }
func (fg fieldGrid) X(c int) float64    { return float64(c) * fg.snap.Dx }
func (fg fieldGrid) Y(r int) float64    { return float64(r) * fg.snap.Dy }

// Heatmap renders one field of a snapshot to a PNG. Known fields are
// "pressure", "u", "v" and "speed".
func Heatmap(snap field.Snapshot, which, path string) error {
	var data []float64
	switch which {
	case "pressure":
		data = snap.P
	case "u":
		data = snap.U
	case "v":
		data = snap.V
	case "speed":
		data = make([]float64, len(snap.U))
		for k := range data {
			data[k] = math.Hypot(snap.U[k], snap.V[k])
		}
	default:
		return fmt.Errorf("export: unknown field %q (want pressure, u, v or speed)", which)
	}

	pal := moreland.SmoothBlueRed().Palette(255)
	hm := plotter.NewHeatMap(fieldGrid{snap: snap, data: data}, pal)

	p := plot.New()
	p.Title.Text = which
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.Add(hm)

	return p.Save(6*vg.Inch, 6*vg.Inch, path)
}

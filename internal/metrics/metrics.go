// Package metrics derives scalar diagnostics from the flow fields.
package metrics

import (
	"math"

	"navsim/internal/field"
)

// Metric observes the committed fields once per step and reduces them to a
// scalar. Implementations are reset at the start of a run.
type Metric interface {
	Name() string
	Observe(fs *field.FieldSet, t float64)
	Value() float64
	Reset()
}

// KineticEnergy integrates 0.5*rho*(u^2+v^2) over the domain.
func KineticEnergy(fs *field.FieldSet) float64 {
	sum := 0.0
	for k := range fs.U.Data {
		u, v := fs.U.Data[k], fs.V.Data[k]
		sum += u*u + v*v
	}
	return 0.5 * fs.Rho * sum * fs.Grid.Dx * fs.Grid.Dy
}

// MaxVelocityMagnitude scans for the largest speed on the grid.
func MaxVelocityMagnitude(fs *field.FieldSet) float64 {
	maxSq := 0.0
	for k := range fs.U.Data {
		u, v := fs.U.Data[k], fs.V.Data[k]
		if sq := u*u + v*v; sq > maxSq {
			maxSq = sq
		}
	}
	return math.Sqrt(maxSq)
}

// MaxDivergence returns the largest central-difference divergence magnitude
// over the interior, a residual measure of the incompressibility constraint.
func MaxDivergence(fs *field.FieldSet) float64 {
	g := fs.Grid
	maxDiv := 0.0
	for i := 1; i < g.Nx-1; i++ {
		for j := 1; j < g.Ny-1; j++ {
			div := (fs.U.At(i+1, j)-fs.U.At(i-1, j))/(2*g.Dx) +
				(fs.V.At(i, j+1)-fs.V.At(i, j-1))/(2*g.Dy)
			if math.Abs(div) > maxDiv {
				maxDiv = math.Abs(div)
			}
		}
	}
	return maxDiv
}

// Energy tracks the mean kinetic energy over a run.
type Energy struct {
	total   float64
	samples int
}

func NewEnergy() *Energy { return &Energy{} }

func (e *Energy) Name() string { return "kinetic_energy" }

func (e *Energy) Observe(fs *field.FieldSet, t float64) {
	e.total += KineticEnergy(fs)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *Energy) Reset() {
	e.total = 0
	e.samples = 0
}

// PeakVelocity tracks the largest speed seen over a run.
type PeakVelocity struct {
	peak float64
}

func NewPeakVelocity() *PeakVelocity { return &PeakVelocity{} }

func (p *PeakVelocity) Name() string { return "peak_velocity" }

func (p *PeakVelocity) Observe(fs *field.FieldSet, t float64) {
	if v := MaxVelocityMagnitude(fs); v > p.peak {
		p.peak = v
	}
}

func (p *PeakVelocity) Value() float64 { return p.peak }

func (p *PeakVelocity) Reset() { p.peak = 0 }

// Divergence tracks the worst interior divergence over a run.
type Divergence struct {
	worst float64
}

func NewDivergence() *Divergence { return &Divergence{} }

func (d *Divergence) Name() string { return "max_divergence" }

func (d *Divergence) Observe(fs *field.FieldSet, t float64) {
	if v := MaxDivergence(fs); v > d.worst {
		d.worst = v
	}
}

func (d *Divergence) Value() float64 { return d.worst }

func (d *Divergence) Reset() { d.worst = 0 }

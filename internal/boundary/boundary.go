// Package boundary applies edge conditions to velocity and pressure fields.
//
// Conditions are a tagged variant per edge rather than an interface hierarchy:
// dispatch happens on the tag inside the policy. Edges are defined in document
// order Left, Right, Bottom, Top; on a corner shared by two edges the
// first-listed edge wins, which the policy implements by applying edges in
// reverse document order so the earlier-listed write lands last.
package boundary

import (
	"errors"
	"fmt"

	"navsim/internal/field"
)

// Kind tags the boundary condition applied along one edge.
type Kind int

const (
	// NoSlip zeroes velocity on the edge and treats pressure as zero-gradient.
	NoSlip Kind = iota
	// Periodic wraps the axis: the last index is a ghost copy of index 0 and
	// interior stencils wrap modulo the axis period.
	Periodic
	// FixedValue holds the edge at a constant. For velocity the constant is
	// the tangential component (a moving wall); the normal component is zero.
	FixedValue
	// ZeroGradient copies the nearest interior neighbor onto the edge, a
	// first-order Neumann condition.
	ZeroGradient
)

var kindNames = map[Kind]string{
	NoSlip:       "no-slip",
	Periodic:     "periodic",
	FixedValue:   "fixed-value",
	ZeroGradient: "zero-gradient",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps a config string to a Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if s == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("boundary: unknown kind %q", s)
}

// Edge identifies one side of the domain.
type Edge int

const (
	Left Edge = iota
	Right
	Bottom
	Top
)

func (e Edge) String() string {
	switch e {
	case Left:
		return "left"
	case Right:
		return "right"
	case Bottom:
		return "bottom"
	case Top:
		return "top"
	}
	return fmt.Sprintf("Edge(%d)", int(e))
}

// Spec configures one edge: the condition tag and, for FixedValue, the held
// constant.
type Spec struct {
	Kind  Kind
	Value float64
}

// ErrUnpairedPeriodic indicates a periodic edge whose opposite edge is not
// periodic. Wrap-around index arithmetic only makes sense per axis.
var ErrUnpairedPeriodic = errors.New("boundary: periodic edges must pair across the axis")

// Policy applies the configured specs to fields after each solver sweep and
// each momentum update. It is immutable after construction.
type Policy struct {
	specs      [4]Spec
	periodicX  bool
	periodicY  bool
	pinnedEdge bool // some edge already fixes pressure
}

// NewPolicy validates the per-edge specs. Periodic tags must pair across
// opposite edges.
func NewPolicy(left, right, bottom, top Spec) (*Policy, error) {
	specs := [4]Spec{Left: left, Right: right, Bottom: bottom, Top: top}
	if (left.Kind == Periodic) != (right.Kind == Periodic) {
		return nil, fmt.Errorf("%w: left=%s right=%s", ErrUnpairedPeriodic, left.Kind, right.Kind)
	}
	if (bottom.Kind == Periodic) != (top.Kind == Periodic) {
		return nil, fmt.Errorf("%w: bottom=%s top=%s", ErrUnpairedPeriodic, bottom.Kind, top.Kind)
	}
	p := &Policy{
		specs:     specs,
		periodicX: left.Kind == Periodic,
		periodicY: bottom.Kind == Periodic,
	}
	for _, s := range specs {
		if s.Kind == FixedValue {
			p.pinnedEdge = true
		}
	}
	return p, nil
}

// Spec returns the configuration of one edge.
func (p *Policy) Spec(e Edge) Spec { return p.specs[e] }

// PeriodicX reports wrap-around along the x axis.
func (p *Policy) PeriodicX() bool { return p.periodicX }

// PeriodicY reports wrap-around along the y axis.
func (p *Policy) PeriodicY() bool { return p.periodicY }

// PinsPressure reports whether an edge spec already fixes the pressure level.
// Without one the policy pins the reference cell (0,0) so the Poisson solution
// cannot drift along its constant null space.
func (p *Policy) PinsPressure() bool { return p.pinnedEdge }

// XStart returns the first column updated by interior stencils. On a periodic
// axis column 0 is a regular cell whose left neighbor wraps.
func (p *Policy) XStart() int {
	if p.periodicX {
		return 0
	}
	return 1
}

// YStart returns the first row updated by interior stencils.
func (p *Policy) YStart() int {
	if p.periodicY {
		return 0
	}
	return 1
}

// LeftOf returns the left stencil neighbor of column i, wrapping over the
// x period (nx-1 unique columns; column nx-1 is the ghost).
func (p *Policy) LeftOf(i, nx int) int {
	if p.periodicX && i == 0 {
		return nx - 2
	}
	return i - 1
}

// RightOf returns the right stencil neighbor of column i.
func (p *Policy) RightOf(i, nx int) int {
	if p.periodicX && i == nx-2 {
		return 0
	}
	return i + 1
}

// Below returns the lower stencil neighbor of row j, wrapping over the y
// period.
func (p *Policy) Below(j, ny int) int {
	if p.periodicY && j == 0 {
		return ny - 2
	}
	return j - 1
}

// Above returns the upper stencil neighbor of row j.
func (p *Policy) Above(j, ny int) int {
	if p.periodicY && j == ny-2 {
		return 0
	}
	return j + 1
}

// ApplyPressure enforces the edge specs on the pressure field and pins the
// reference cell when no edge fixes the level.
func (p *Policy) ApplyPressure(fs *field.FieldSet) {
	p.ApplyPressureField(fs.P)
}

// ApplyPressureField is ApplyPressure over an explicit scalar, used by the
// Poisson solver on its iteration buffers.
func (p *Policy) ApplyPressureField(s *field.Scalar) {
	// Reverse document order: Top, Bottom, Right, Left.
	for _, e := range [...]Edge{Top, Bottom, Right, Left} {
		p.applyScalarEdge(s, e, p.specs[e])
	}
	if !p.pinnedEdge {
		s.Set(0, 0, 0)
	}
}

// ApplyVelocity enforces the edge specs on the committed velocity fields.
func (p *Policy) ApplyVelocity(fs *field.FieldSet) {
	p.ApplyVelocityFields(fs.U, fs.V)
}

// ApplyVelocityFields enforces the edge specs on an explicit velocity pair,
// used on the next-step buffers before a commit.
func (p *Policy) ApplyVelocityFields(u, v *field.Scalar) {
	for _, e := range [...]Edge{Top, Bottom, Right, Left} {
		p.applyVelocityEdge(u, v, e, p.specs[e])
	}
}

// applyScalarEdge overwrites one edge of a scalar field. NoSlip walls use the
// zero-gradient pressure condition.
func (p *Policy) applyScalarEdge(s *field.Scalar, e Edge, spec Spec) {
	nx, ny := s.Nx, s.Ny
	switch spec.Kind {
	case FixedValue:
		forEdge(nx, ny, e, func(i, j int) { s.Set(i, j, spec.Value) })
	case Periodic:
		// Ghost row/column mirrors index 0; applying either edge of the
		// pair synchronizes the axis.
		if e == Left || e == Right {
			for j := 0; j < ny; j++ {
				s.Set(nx-1, j, s.At(0, j))
			}
		} else {
			for i := 0; i < nx; i++ {
				s.Set(i, ny-1, s.At(i, 0))
			}
		}
	case NoSlip, ZeroGradient:
		in := interiorNeighbor(e)
		forEdge(nx, ny, e, func(i, j int) { s.Set(i, j, s.At(i+in.di, j+in.dj)) })
	}
}

func (p *Policy) applyVelocityEdge(u, v *field.Scalar, e Edge, spec Spec) {
	nx, ny := u.Nx, u.Ny
	switch spec.Kind {
	case NoSlip:
		forEdge(nx, ny, e, func(i, j int) {
			u.Set(i, j, 0)
			v.Set(i, j, 0)
		})
	case FixedValue:
		// Moving wall: tangential component held, normal component zero.
		tangentialU := e == Bottom || e == Top
		forEdge(nx, ny, e, func(i, j int) {
			if tangentialU {
				u.Set(i, j, spec.Value)
				v.Set(i, j, 0)
			} else {
				u.Set(i, j, 0)
				v.Set(i, j, spec.Value)
			}
		})
	case Periodic:
		if e == Left || e == Right {
			for j := 0; j < ny; j++ {
				u.Set(nx-1, j, u.At(0, j))
				v.Set(nx-1, j, v.At(0, j))
			}
		} else {
			for i := 0; i < nx; i++ {
				u.Set(i, ny-1, u.At(i, 0))
				v.Set(i, ny-1, v.At(i, 0))
			}
		}
	case ZeroGradient:
		in := interiorNeighbor(e)
		forEdge(nx, ny, e, func(i, j int) {
			u.Set(i, j, u.At(i+in.di, j+in.dj))
			v.Set(i, j, v.At(i+in.di, j+in.dj))
		})
	}
}

type offset struct{ di, dj int }

func interiorNeighbor(e Edge) offset {
	switch e {
	case Left:
		return offset{1, 0}
	case Right:
		return offset{-1, 0}
	case Bottom:
		return offset{0, 1}
	default: // Top
		return offset{0, -1}
	}
}

func forEdge(nx, ny int, e Edge, fn func(i, j int)) {
	switch e {
	case Left:
		for j := 0; j < ny; j++ {
			fn(0, j)
		}
	case Right:
		for j := 0; j < ny; j++ {
			fn(nx-1, j)
		}
	case Bottom:
		for i := 0; i < nx; i++ {
			fn(i, 0)
		}
	case Top:
		for i := 0; i < nx; i++ {
			fn(i, ny-1)
		}
	}
}

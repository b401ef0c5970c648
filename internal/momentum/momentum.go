// Package momentum computes the explicit velocity update of the projection
// method: forward-time, backward-space advection with central-difference
// diffusion and pressure gradient.
package momentum

import (
	"fmt"

	"navsim/internal/boundary"
	"navsim/internal/field"
	"navsim/internal/grid"
)

// Columns below this count are updated serially.
const minParallelColumns = 16

// Stepper advances the velocity field one time level. It reads only committed
// time-level-n data and writes only the next-step buffers, so the stencil for
// a point never observes an already-updated neighbor. Nothing becomes visible
// until the caller commits.
type Stepper struct {
	grid   *grid.Grid
	policy *boundary.Policy
}

// NewStepper binds the stepper to one grid and boundary policy.
func NewStepper(g *grid.Grid, pol *boundary.Policy) *Stepper {
	return &Stepper{grid: g, policy: pol}
}

// ComputeNext evaluates u^{n+1}, v^{n+1} at every interior point from u^n, v^n
// and the converged pressure, into the next-step buffers. Stability is the
// caller's concern: a dt beyond the explicit limit propagates NaN/Inf, which
// the session detects before commit.
func (m *Stepper) ComputeNext(fs *field.FieldSet) {
	g, pol := m.grid, m.policy
	if fs.Grid.Nx != g.Nx || fs.Grid.Ny != g.Ny {
		panic(fmt.Sprintf("momentum: stepper for %dx%d applied to %dx%d fields",
			g.Nx, g.Ny, fs.Grid.Nx, fs.Grid.Ny))
	}

	nx, ny := g.Nx, g.Ny
	dx, dy := g.Dx, g.Dy
	dt, rho, nu := fs.Dt, fs.Rho, fs.Nu
	u, v, p := fs.U, fs.V, fs.P
	un, vn := fs.NextU(), fs.NextV()

	// Boundary cells keep their previous values until the policy rewrites
	// them after the sweep.
	un.CopyFrom(u)
	vn.CopyFrom(v)

	iLo, jLo := pol.XStart(), pol.YStart()
	field.ParallelFor(nx-1-iLo, minParallelColumns, func(start, end int) {
		for i := iLo + start; i < iLo+end; i++ {
			for j := jLo; j < ny-1; j++ {
				ir, il := pol.RightOf(i, nx), pol.LeftOf(i, nx)
				ja, jb := pol.Above(j, ny), pol.Below(j, ny)

				uc, vc := u.At(i, j), v.At(i, j)

				lapU := (u.At(ir, j)-2*uc+u.At(il, j))/(dx*dx) +
					(u.At(i, ja)-2*uc+u.At(i, jb))/(dy*dy)
				lapV := (v.At(ir, j)-2*vc+v.At(il, j))/(dx*dx) +
					(v.At(i, ja)-2*vc+v.At(i, jb))/(dy*dy)

				un.Set(i, j, uc-
					uc*dt/dx*(uc-u.At(il, j))-
					vc*dt/dy*(uc-u.At(i, jb))-
					dt/(2*rho*dx)*(p.At(ir, j)-p.At(il, j))+
					nu*dt*lapU)
				vn.Set(i, j, vc-
					uc*dt/dx*(vc-v.At(il, j))-
					vc*dt/dy*(vc-v.At(i, jb))-
					dt/(2*rho*dy)*(p.At(i, ja)-p.At(i, jb))+
					nu*dt*lapV)
			}
		}
	})
}

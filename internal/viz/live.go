// Package viz renders a running simulation in the terminal.
package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"

	"navsim/internal/field"
	"navsim/internal/sim"
)

const (
	canvasWidth     = 64
	canvasHeight    = 24
	historyCapacity = 400
	frameInterval   = 50 * time.Millisecond
)

// shadeRamp maps normalized speed to terminal shading.
const shadeRamp = " .:-=+*#%@"

// TickMsg drives the simulation clock.
type TickMsg time.Time

// Model owns the session for the lifetime of the view. Reports and field
// snapshots flow out of the session; nothing else touches its fields.
type Model struct {
	session       *sim.Session
	stepsPerFrame int

	running bool
	failed  bool
	status  string

	lastReport    sim.StepReport
	energyHistory []float64
	iterHistory   []float64
	showHelp      bool
}

// NewModel wraps an initialized session.
func NewModel(session *sim.Session, stepsPerFrame int) Model {
	if stepsPerFrame < 1 {
		stepsPerFrame = 1
	}
	return Model{
		session:       session,
		stepsPerFrame: stepsPerFrame,
		running:       true,
		energyHistory: make([]float64, 0, historyCapacity),
		iterHistory:   make([]float64, 0, historyCapacity),
	}
}

func (m Model) Init() tea.Cmd { return tick() }

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "s":
			if !m.running {
				m = m.advance(1)
			}
		case "h", "?":
			m.showHelp = !m.showHelp
		}
		return m, nil
	case TickMsg:
		if m.running && !m.failed {
			m = m.advance(m.stepsPerFrame)
		}
		return m, tick()
	}
	return m, nil
}

func (m Model) advance(steps int) Model {
	result, err := m.session.Advance(context.Background(), steps)
	if len(result.Reports) > 0 {
		m.lastReport = result.Reports[len(result.Reports)-1]
		m.energyHistory = appendCapped(m.energyHistory, m.lastReport.KineticEnergy)
		m.iterHistory = appendCapped(m.iterHistory, float64(m.lastReport.PoissonIterations))
	}
	if err != nil {
		m.failed = true
		m.running = false
		m.status = fmt.Sprintf("%s: %v", result.Outcome, err)
	}
	return m
}

func appendCapped(h []float64, v float64) []float64 {
	if len(h) >= historyCapacity {
		h = h[1:]
	}
	return append(h, v)
}

func (m Model) View() string {
	snap := m.session.Snapshot()

	var b strings.Builder
	b.WriteString(headerStyle.Render("navsim live: speed field"))
	b.WriteString("\n")

	b.WriteString(canvasStyle.Render(renderField(snap)))
	b.WriteString("\n")

	stats := fmt.Sprintf(
		"step %d  t=%.4f\npoisson: %d iters (converged=%v, residual=%.2e)\nmax |u|: %.4f  kinetic energy: %.6f",
		m.lastReport.StepIndex, m.lastReport.Time,
		m.lastReport.PoissonIterations, m.lastReport.PoissonConverged, m.lastReport.PoissonResidual,
		m.lastReport.MaxVelocity, m.lastReport.KineticEnergy,
	)
	b.WriteString(statsStyle.Render(stats))
	b.WriteString("\n")

	if len(m.energyHistory) > 1 {
		graph := asciigraph.Plot(m.energyHistory,
			asciigraph.Height(6),
			asciigraph.Width(canvasWidth),
			asciigraph.Caption("kinetic energy"),
		)
		b.WriteString(graphStyle.Render(graph))
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString(errorStyle.Render(m.status))
		b.WriteString("\n")
	}

	if m.showHelp {
		b.WriteString(helpStyle.Render("space: pause/resume  s: single step (paused)  h: help  q: quit"))
	} else {
		b.WriteString(helpStyle.Render("h for help, q to quit"))
	}
	return b.String()
}

// renderField shades the speed field onto a fixed-size character canvas, top
// row first.
func renderField(snap field.Snapshot) string {
	maxSpeed := 0.0
	speed := make([]float64, len(snap.U))
	for k := range speed {
		s := snap.U[k]*snap.U[k] + snap.V[k]*snap.V[k]
		speed[k] = s
		if s > maxSpeed {
			maxSpeed = s
		}
	}

	var b strings.Builder
	for row := 0; row < canvasHeight; row++ {
		// terminal rows run top-down, grid rows bottom-up
		j := (canvasHeight - 1 - row) * (snap.Ny - 1) / (canvasHeight - 1)
		for col := 0; col < canvasWidth; col++ {
			i := col * (snap.Nx - 1) / (canvasWidth - 1)
			var idx int
			if maxSpeed > 0 {
				idx = int(speed[i*snap.Ny+j] / maxSpeed * float64(len(shadeRamp)-1))
			}
			b.WriteByte(shadeRamp[idx])
		}
		if row < canvasHeight-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

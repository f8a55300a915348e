// Package viz renders a live terminal view of an ongoing solve: outer
// iteration readout plus an objective history graph.
package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/infopt/internal/solver"
)

// ProgressMsg carries one outer iteration into the view.
type ProgressMsg solver.Progress

// DoneMsg ends the view.
type DoneMsg struct {
	Status    string
	Objective float64
	Err       error
}

type ProgressModel struct {
	problem string

	iter      int
	penalty   float64
	violation float64
	history   []float64

	done   bool
	status string
	err    error
}

func NewProgressModel(problem string) ProgressModel {
	return ProgressModel{problem: problem}
}

func (m ProgressModel) Init() tea.Cmd { return nil }

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case ProgressMsg:
		m.iter = msg.Iter
		m.penalty = msg.Penalty
		m.violation = msg.MaxViolation
		m.history = append(m.history, msg.Objective)
	case DoneMsg:
		m.done = true
		m.status = msg.Status
		m.err = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

func (m ProgressModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("solving %s", m.problem)))
	b.WriteString("\n")

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-14s", label)))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}

	row("iteration", fmt.Sprintf("%d", m.iter))
	row("penalty", fmt.Sprintf("%.3g", m.penalty))
	row("violation", fmt.Sprintf("%.3e", m.violation))
	if n := len(m.history); n > 0 {
		row("objective", fmt.Sprintf("%.6f", m.history[n-1]))
	}

	if len(m.history) > 1 {
		graph := asciigraph.Plot(m.history,
			asciigraph.Height(8),
			asciigraph.Width(60),
			asciigraph.Caption("objective per outer iteration"),
		)
		b.WriteString(graphStyle.Render(graph))
		b.WriteString("\n")
	}

	if m.done {
		style := okStyle
		if m.status != "optimal" {
			style = warnStyle
		}
		b.WriteString("\n")
		b.WriteString(style.Render(fmt.Sprintf("status: %s", m.status)))
		b.WriteString("\n")
		if m.err != nil {
			b.WriteString(warnStyle.Render(m.err.Error()))
			b.WriteString("\n")
		}
	} else {
		b.WriteString(labelStyle.Render("\npress q to detach\n"))
	}

	return b.String()
}

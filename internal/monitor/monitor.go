// Package monitor is the live terminal view of matrix snapshots.
//
// Every cell is coloured by how it would classify against a preview
// actuation level, which can be stepped through the level table while the
// keyboard is running. Idle frames feed a tuning accumulator whose
// suggestion is shown below the grid.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"ecdrivers/ecmatrix"
	"ecdrivers/internal/console"
	"ecdrivers/internal/tuning"
)

type Options struct {
	Name      string
	Actuation uint8
	Sigma     float64
}

type frameMsg console.Snapshot
type closedMsg struct{}

type model struct {
	name      string
	actuation uint8
	sigma     float64

	frames <-chan console.Snapshot
	acc    *tuning.Accumulator

	last       console.Snapshot
	count      int
	closed     bool
	suggestion tuning.Suggestion
	err        error
}

// Run shows frames until the user quits or ctx ends. Every frame is also
// added to acc, so keys should stay untouched while tuning.
func Run(ctx context.Context, opts Options, frames <-chan console.Snapshot, acc *tuning.Accumulator, logger *zap.Logger) error {
	p := tea.NewProgram(newModel(opts, frames, acc), tea.WithContext(ctx), tea.WithAltScreen())
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		logger.Error("Monitor stopped", zap.Error(err))
	}
	return err
}

func newModel(opts Options, frames <-chan console.Snapshot, acc *tuning.Accumulator) model {
	if opts.Actuation == 0 {
		opts.Actuation = ecmatrix.DefaultActuation
	}
	return model{
		name:      opts.Name,
		actuation: opts.Actuation,
		sigma:     opts.Sigma,
		frames:    frames,
		acc:       acc,
		err:       tuning.ErrNoSamples,
	}
}

func waitForFrame(frames <-chan console.Snapshot) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-frames
		if !ok {
			return closedMsg{}
		}
		return frameMsg(s)
	}
}

func (m model) Init() tea.Cmd {
	return waitForFrame(m.frames)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "+", "=", "up":
			m.actuation = stepLevel(m.actuation, 1)
		case "-", "down":
			m.actuation = stepLevel(m.actuation, -1)
		case "enter":
			if m.err == nil {
				m.actuation = m.suggestion.Level
			}
		}
	case frameMsg:
		m.last = console.Snapshot(msg)
		m.count++
		if m.acc != nil {
			m.acc.Add(m.last.Raw)
			m.suggestion, m.err = m.acc.Suggest(m.sigma)
		}
		return m, waitForFrame(m.frames)
	case closedMsg:
		m.closed = true
	}
	return m, nil
}

// stepLevel moves to the next table level above or below actuation.
func stepLevel(actuation uint8, dir int) uint8 {
	table := ecmatrix.Levels()
	sorted := table[:]
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	if dir > 0 {
		for _, l := range sorted {
			if l > actuation {
				return l
			}
		}
		return actuation
	}
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i] < actuation {
			return sorted[i]
		}
	}
	return actuation
}

func (m model) View() string {
	var b strings.Builder

	title := "ecmon"
	if m.name != "" {
		title += " " + m.name
	}
	b.WriteString(headerStyle.Render(title))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  %d scans/s  frame %d  actuation %d", m.last.ScanRate, m.count, m.actuation)))
	b.WriteString("\n\n")

	if len(m.last.Raw) == 0 {
		b.WriteString(mutedStyle.Render("waiting for a matrix dump..."))
	} else {
		b.WriteString(m.grid())
	}
	b.WriteString("\n\n")

	switch {
	case m.err == nil:
		s := m.suggestion
		b.WriteString(fmt.Sprintf("suggested actuation %d (store keycode %d), noisiest key [%d][%d] mean %.1f sd %.2f",
			s.Level, s.Digit, s.Worst.Row, s.Worst.Col, s.Worst.Mean, s.Worst.StdDev))
	case errors.Is(m.err, tuning.ErrNoSamples):
		b.WriteString(mutedStyle.Render("no samples yet"))
	default:
		b.WriteString(errorStyle.Render(m.err.Error()))
	}
	if m.closed {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("console closed"))
	}

	b.WriteString("\n\n")
	b.WriteString(hintStyle.Render("+/- step actuation  enter use suggestion  q quit"))

	return containerStyle.Render(b.String())
}

func (m model) grid() string {
	var b strings.Builder
	b.WriteString("    ")
	for c := 0; c < m.last.Cols(); c++ {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%4X", c)))
	}
	for r, row := range m.last.Raw {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(fmt.Sprintf("[%d]:", r)))
		for _, v := range row {
			b.WriteString(cellStyle(ecmatrix.Classify(v, m.actuation)).Render(fmt.Sprintf("%4d", v)))
		}
	}
	return b.String()
}

func cellStyle(state ecmatrix.KeyState) lipgloss.Style {
	switch state {
	case ecmatrix.Pressed:
		return pressedStyle
	case ecmatrix.Near:
		return nearStyle
	}
	return releasedStyle
}

package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/jsbridge/resource"
	"github.com/wippyai/jsbridge/runtime"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	handleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	stateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const maxLogLines = 12

type handleRow struct {
	state  runtime.TraceKind
	detail string
	bytes  int
	events int
	handle resource.Handle
}

type modelState int

const (
	stateRunning modelState = iota
	stateIdle
)

type interactiveModel struct {
	ctx     context.Context
	err     error
	job     *job
	rt      *runtime.Runtime
	traces  chan runtime.Trace
	handles map[resource.Handle]*handleRow
	output  string
	log     []string
	input   textinput.Model
	spin    spinner.Model
	state   modelState
}

type startedMsg struct {
	err error
	rt  *runtime.Runtime
}

type traceMsg runtime.Trace

type runResultMsg struct {
	err error
	out runtime.Output
}

func newInteractiveModel(ctx context.Context, j *job) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "expression"
	ti.Prompt = "js> "
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &interactiveModel{
		ctx:     ctx,
		job:     j,
		traces:  make(chan runtime.Trace, 1024),
		handles: make(map[resource.Handle]*handleRow),
		input:   ti,
		spin:    sp,
		state:   stateRunning,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.start, m.nextTrace)
}

// tracer must not block workers, so traces are dropped when the UI lags.
func (m *interactiveModel) tracer(t runtime.Trace) {
	select {
	case m.traces <- t:
	default:
	}
}

func (m *interactiveModel) nextTrace() tea.Msg {
	return traceMsg(<-m.traces)
}

func (m *interactiveModel) start() tea.Msg {
	rt, err := m.job.newRuntime(m.tracer)
	return startedMsg{rt: rt, err: err}
}

func (m *interactiveModel) runScripts() tea.Msg {
	scripts, err := m.job.scripts()
	if err != nil {
		return runResultMsg{err: err}
	}
	out, err := m.rt.Run(m.ctx, scripts...)
	return runResultMsg{out: out, err: err}
}

func (m *interactiveModel) evalInput(src string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.rt.Run(m.ctx, runtime.Script{Name: "<input>", Source: src})
		return runResultMsg{out: out, err: err}
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			if m.rt != nil {
				m.rt.Close()
			}
			return m, tea.Quit

		case "enter":
			if m.state == stateIdle && m.rt != nil {
				src := strings.TrimSpace(m.input.Value())
				if src == "" {
					return m, nil
				}
				m.input.SetValue("")
				m.state = stateRunning
				m.appendLog("js> " + src)
				return m, tea.Batch(m.spin.Tick, m.evalInput(src))
			}
		}

	case startedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateIdle
			return m, nil
		}
		m.rt = msg.rt
		return m, m.runScripts

	case traceMsg:
		m.applyTrace(runtime.Trace(msg))
		return m, m.nextTrace

	case runResultMsg:
		m.state = stateIdle
		m.err = msg.err
		if msg.err == nil {
			m.output = msg.out.String()
			m.appendLog("=> " + m.output)
		}
		m.input.Focus()
		return m, textinput.Blink

	case spinner.TickMsg:
		if m.state != stateRunning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	if m.state == stateIdle {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *interactiveModel) applyTrace(t runtime.Trace) {
	row, ok := m.handles[t.Handle]
	if !ok {
		row = &handleRow{handle: t.Handle}
		m.handles[t.Handle] = row
	}
	row.events++
	switch t.Kind {
	case runtime.TraceData:
		var n int
		fmt.Sscanf(t.Detail, "%d", &n)
		row.bytes += n
	case runtime.TraceReleased:
		if row.state == runtime.TraceEnd || row.state == runtime.TraceError {
			return
		}
	}
	row.state = t.Kind
	if t.Detail != "" && t.Kind != runtime.TraceData {
		row.detail = t.Detail
	}
	m.appendLog(fmt.Sprintf("#%d %s %s", t.Handle, t.Kind, t.Detail))
}

func (m *interactiveModel) appendLog(line string) {
	m.log = append(m.log, line)
	if len(m.log) > maxLogLines {
		m.log = m.log[len(m.log)-maxLogLines:]
	}
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("JS Runner"))
	b.WriteString(" ")
	b.WriteString(strings.Join(m.job.files, " "))
	if m.rt != nil {
		b.WriteString(helpStyle.Render(fmt.Sprintf("  runtime %s  tasks %d", m.rt.ID(), m.rt.NumTasks())))
	}
	b.WriteString("\n\n")

	ids := make([]resource.Handle, 0, len(m.handles))
	for h := range m.handles {
		ids = append(ids, h)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if len(ids) == 0 {
		b.WriteString(helpStyle.Render("no requests yet"))
		b.WriteString("\n")
	}
	for _, h := range ids {
		row := m.handles[h]
		b.WriteString(handleStyle.Render(fmt.Sprintf("#%-4d", row.handle)))
		b.WriteString(" ")
		b.WriteString(stateStyle.Render(fmt.Sprintf("%-9s", row.state)))
		b.WriteString(fmt.Sprintf(" %6d B  %3d ev  %s\n", row.bytes, row.events, row.detail))
	}

	b.WriteString("\n")
	for _, line := range m.log {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}

	switch m.state {
	case stateRunning:
		b.WriteString(m.spin.View())
		b.WriteString(" running\n\n")
		b.WriteString(helpStyle.Render("esc quit"))
	case stateIdle:
		if m.output != "" {
			b.WriteString(resultStyle.Render(m.output))
			b.WriteString("\n")
		}
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter evaluate • esc quit"))
	}

	return b.String()
}

func runInteractive(ctx context.Context, j *job) error {
	m := newInteractiveModel(ctx, j)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if m.rt != nil {
		m.rt.Close()
	}
	return err
}

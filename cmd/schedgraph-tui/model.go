package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rmax-ai/schedgraph/pkg/client"
	"github.com/rmax-ai/schedgraph/pkg/domain"
)

const viewportHeight = 16

// Styles
var (
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	lockedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			Width(100)

	paneStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1).
			Width(100)

	idStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(6)
	technicianStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Width(16)
	targetStyle     = lipgloss.NewStyle().Bold(true)
	retractedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Strikethrough(true)
)

// Source is what the dashboard reads from.
type Source interface {
	Summary(ctx context.Context) (client.Summary, error)
	Assignments(ctx context.Context, period domain.Period, active bool) (client.Assignments, error)
	Capacity(ctx context.Context, period domain.Period) (client.Capacity, error)
}

type tickMsg time.Time

type dataMsg struct {
	summary     client.Summary
	assignments client.Assignments
	capacity    client.Capacity
	err         error
}

type model struct {
	source   Source
	poll     time.Duration
	spinner  spinner.Model
	viewport viewport.Model

	summary     client.Summary
	assignments client.Assignments
	capacity    client.Capacity
	selected    int
	activeOnly  bool
	err         error
	ready       bool
}

func initialModel(source Source, poll time.Duration) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return model{
		source:   source,
		poll:     poll,
		spinner:  s,
		viewport: newViewport(100),
	}
}

func newViewport(width int) viewport.Model {
	vp := viewport.New(width, viewportHeight)
	vp.Style = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		PaddingRight(2)
	return vp
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.fetchData(),
		m.tick(),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "left", "h":
			if m.selected > 0 {
				m.selected--
				return m, m.fetchData()
			}
			return m, nil
		case "right", "l":
			if m.selected < len(m.summary.Periods)-1 {
				m.selected++
				return m, m.fetchData()
			}
			return m, nil
		case "a":
			m.activeOnly = !m.activeOnly
			return m, m.fetchData()
		}
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tickMsg:
		cmds = append(cmds, m.fetchData(), m.tick())

	case dataMsg:
		m.ready = true
		if msg.err != nil {
			m.err = msg.err
			break
		}
		m.err = nil
		m.summary = msg.summary
		m.assignments = msg.assignments
		m.capacity = msg.capacity
		if m.selected >= len(m.summary.Periods) {
			m.selected = max(len(m.summary.Periods)-1, 0)
		}
		m.viewport.SetContent(renderAssignments(m.assignments))

	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = viewportHeight
	}

	return m, tea.Batch(cmds...)
}

// period returns the selected period, if the summary lists any.
func (m model) period() (domain.Period, bool) {
	if m.selected < 0 || m.selected >= len(m.summary.Periods) {
		return domain.Period{}, false
	}
	return m.summary.Periods[m.selected], true
}

func renderAssignments(resp client.Assignments) string {
	if len(resp.Assignments) == 0 {
		return subtleStyle.Render("No assignments in this period.")
	}

	var sb strings.Builder
	for _, a := range resp.Assignments {
		var targets []string
		for _, n := range a.Nodes[1:] {
			targets = append(targets, n.Value)
		}
		line := targetStyle.Render(strings.Join(targets, " "))
		if a.Shift != nil {
			line += subtleStyle.Render(" " + a.Shift.String())
		}
		if a.Retracted {
			line = retractedStyle.Render(strings.Join(targets, " "))
		}
		fmt.Fprintf(&sb, "%s %s %s\n",
			idStyle.Render(fmt.Sprintf("#%d", a.ID)),
			technicianStyle.Render("tech "+a.Technician()),
			line,
		)
	}
	return sb.String()
}

func (m model) View() string {
	if !m.ready {
		return fmt.Sprintf("\n%s Connecting...", m.spinner.View())
	}

	var top strings.Builder
	top.WriteString(lipgloss.NewStyle().Bold(true).Underline(true).Render("Capacity") + "\n\n")
	if p, ok := m.period(); ok {
		title := fmt.Sprintf("Period %s (%d/%d)", p, m.selected+1, len(m.summary.Periods))
		if m.capacity.Locked {
			title += " " + lockedStyle.Render("locked")
		}
		top.WriteString(title + "\n")
		fmt.Fprintf(&top, "Total: %v h\n", m.capacity.TotalHours)
		for _, skill := range domain.Skills() {
			if hours, ok := m.capacity.SkillHours[skill]; ok {
				fmt.Fprintf(&top, "• %s: %v h\n", skill, hours)
			}
		}
	} else {
		top.WriteString(subtleStyle.Render("No periods registered."))
	}
	topPane := paneStyle.Render(top.String())

	scope := "all"
	if m.activeOnly {
		scope = "active"
	}
	header := headerStyle.Render(fmt.Sprintf("%s Assignments (%s)", m.spinner.View(), scope))

	var status string
	if m.err != nil {
		status = errorStyle.Render(fmt.Sprintf("Offline: %v", m.err))
	} else {
		status = okStyle.Render(fmt.Sprintf("Online • %d nodes • %d edges • %d technicians • %d work orders",
			m.summary.Nodes, m.summary.Edges, len(m.summary.Technicians), len(m.summary.WorkOrders)))
	}
	footer := subtleStyle.Render(fmt.Sprintf("\n%s\n←/→ period • a toggle active • q quit", status))

	return lipgloss.JoinVertical(lipgloss.Left, topPane, header, m.viewport.View(), footer)
}

// Commands

func (m model) fetchData() tea.Cmd {
	source, selected, active := m.source, m.selected, m.activeOnly
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		summary, err := source.Summary(ctx)
		if err != nil {
			return dataMsg{err: err}
		}
		msg := dataMsg{summary: summary}
		if len(summary.Periods) == 0 {
			return msg
		}
		period := summary.Periods[min(selected, len(summary.Periods)-1)]

		if msg.assignments, err = source.Assignments(ctx, period, active); err != nil {
			return dataMsg{err: err}
		}
		if msg.capacity, err = source.Capacity(ctx, period); err != nil {
			return dataMsg{err: err}
		}
		return msg
	}
}

func (m model) tick() tea.Cmd {
	return tea.Tick(m.poll, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

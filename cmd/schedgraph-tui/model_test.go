package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rmax-ai/schedgraph/pkg/client"
	"github.com/rmax-ai/schedgraph/pkg/domain"
)

type fakeSource struct {
	periods    []domain.Period
	asked      []domain.Period
	active     bool
	summaryErr error
}

func (f *fakeSource) Summary(ctx context.Context) (client.Summary, error) {
	if f.summaryErr != nil {
		return client.Summary{}, f.summaryErr
	}
	return client.Summary{Nodes: 40, Edges: 12, Periods: f.periods, Technicians: []domain.TechnicianID{1234}}, nil
}

func (f *fakeSource) Assignments(ctx context.Context, period domain.Period, active bool) (client.Assignments, error) {
	f.asked = append(f.asked, period)
	f.active = active
	return client.Assignments{
		Period: period,
		Assignments: []client.Assignment{{
			ID:   7,
			Type: "assign",
			Nodes: []client.NodeRef{
				{Kind: "technician", Value: "1234"},
				{Kind: "work_order", Value: "1122334455"},
				{Kind: "period", Value: period.String()},
			},
		}},
	}, nil
}

func (f *fakeSource) Capacity(ctx context.Context, period domain.Period) (client.Capacity, error) {
	return client.Capacity{
		Period:     period,
		Locked:     true,
		TotalHours: 70,
		SkillHours: map[domain.Skill]domain.Work{domain.MtnMech: 70},
	}, nil
}

func twoPeriods() []domain.Period {
	first := domain.NewPeriod(domain.Date(2025, time.January, 13))
	return []domain.Period{first, first.Next()}
}

// load runs the fetch command synchronously and feeds the result back.
func load(t *testing.T, m model) model {
	t.Helper()
	next, _ := m.Update(m.fetchData()())
	return next.(model)
}

func TestModel_RendersFetchedData(t *testing.T) {
	src := &fakeSource{periods: twoPeriods()}
	m := load(t, initialModel(src, time.Second))

	view := m.View()
	for _, want := range []string{"Period 2025-01-13 (1/2)", "locked", "MTN-MECH: 70 h", "1122334455", "Online"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in view:\n%s", want, view)
		}
	}
}

func TestModel_SwitchesPeriods(t *testing.T) {
	src := &fakeSource{periods: twoPeriods()}
	m := load(t, initialModel(src, time.Second))

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRight})
	m = next.(model)
	if m.selected != 1 || cmd == nil {
		t.Fatalf("expected second period selected with a refresh, got %d", m.selected)
	}
	m = load(t, m)
	if got := src.asked[len(src.asked)-1]; got != twoPeriods()[1] {
		t.Errorf("expected assignments for %s, got %s", twoPeriods()[1], got)
	}

	// no wrap past the last period
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if next.(model).selected != 1 {
		t.Errorf("selection should stay on the last period")
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if next.(model).selected != 0 {
		t.Errorf("expected first period after left")
	}
}

func TestModel_ToggleActive(t *testing.T) {
	src := &fakeSource{periods: twoPeriods()}
	m := load(t, initialModel(src, time.Second))

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	m = load(t, next.(model))
	if !m.activeOnly || !src.active {
		t.Errorf("expected active-only fetch")
	}
}

func TestModel_Offline(t *testing.T) {
	src := &fakeSource{summaryErr: errors.New("connection refused")}
	m := load(t, initialModel(src, time.Second))

	if !strings.Contains(m.View(), "Offline: connection refused") {
		t.Errorf("expected offline status, got:\n%s", m.View())
	}
}

func TestModel_Quit(t *testing.T) {
	m := initialModel(&fakeSource{}, time.Second)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("expected tea.QuitMsg")
	}
}

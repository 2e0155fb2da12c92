package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/thewages75-crypto/idnon/internal/admin/app"
	"github.com/thewages75-crypto/idnon/internal/user"
)

// statsModel is a read-only summary of membership and delivery counts.
type statsModel struct {
	app *app.App

	width  int
	height int

	Done bool

	stats      user.Stats
	deliveries int
	joinOpen   bool
	err        error
}

func newStatsModel(a *app.App) *statsModel {
	m := &statsModel{app: a}
	m.reload()
	return m
}

func (m *statsModel) SetSize(w, h int) {
	m.width, m.height = w, h
}

func (m *statsModel) reload() {
	st, err := m.app.Users.Stats()
	if err != nil {
		m.err = err
		return
	}
	n, err := m.app.Deliveries.Count()
	if err != nil {
		m.err = err
		return
	}
	open, err := m.app.DB.JoinOpen()
	if err != nil {
		m.err = err
		return
	}
	m.stats = *st
	m.deliveries = n
	m.joinOpen = open
	m.err = nil
}

func (m *statsModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc":
			m.Done = true
		case "r":
			m.reload()
		}
	}
	return nil
}

func (m *statsModel) View() string {
	if m.err != nil {
		return errStyle.Render("Error: ") + m.err.Error() + "\n\n(esc to go back)"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Stats"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Users:        %d\n", m.stats.Total)
	fmt.Fprintf(&b, "Banned:       %d\n", m.stats.Banned)
	fmt.Fprintf(&b, "Auto-banned:  %d\n", m.stats.AutoBanned)
	fmt.Fprintf(&b, "Shadow:       %d\n", m.stats.ShadowBanned)
	fmt.Fprintf(&b, "Whitelisted:  %d\n", m.stats.Whitelisted)
	fmt.Fprintf(&b, "Deliveries:   %d\n", m.deliveries)
	fmt.Fprintf(&b, "Join open:    %t\n", m.joinOpen)
	b.WriteString("\nr: refresh  esc: back")
	return b.String()
}

package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/thewages75-crypto/idnon/internal/admin/app"
	"github.com/thewages75-crypto/idnon/internal/transport/wire"
)

type settingsModel struct {
	app *app.App

	width  int
	height int

	Done bool

	form *huh.Form
	err  error

	joinOpen bool
	passcode string
	save     bool
}

func newSettingsModel(a *app.App) *settingsModel {
	m := &settingsModel{app: a}

	open, err := a.DB.JoinOpen()
	if err != nil {
		m.err = err
		return m
	}

	m.joinOpen = open
	m.form = buildSettingsForm(&m.joinOpen, &m.passcode, &m.save)
	return m
}

func buildSettingsForm(joinOpen *bool, passcode *string, save *bool) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().Title("Joining open").Value(joinOpen),
			huh.NewInput().Title("Moderator passcode (blank keeps current)").
				EchoMode(huh.EchoModePassword).Value(passcode),
		),
		huh.NewGroup(
			huh.NewConfirm().Title("Save changes?").Value(save),
		),
	)
}

func (m *settingsModel) SetSize(w, h int) {
	m.width, m.height = w, h
}

func (m *settingsModel) Update(msg tea.Msg) tea.Cmd {
	if m.err != nil {
		switch msg := msg.(type) {
		case tea.KeyMsg:
			if msg.String() == "esc" || msg.String() == "q" || msg.String() == "enter" {
				m.Done = true
			}
		}
		return nil
	}

	if m.form == nil {
		m.form = buildSettingsForm(&m.joinOpen, &m.passcode, &m.save)
	}

	var cmd tea.Cmd
	updated, cmd := m.form.Update(msg)
	f, ok := updated.(*huh.Form)
	if !ok {
		m.err = fmt.Errorf("internal error: unexpected form model type")
		return nil
	}
	m.form = f

	if m.form.State == huh.StateCompleted {
		if m.save {
			if err := m.app.DB.SetJoinOpen(m.joinOpen); err != nil {
				m.err = err
				return nil
			}
			if code := strings.TrimSpace(m.passcode); code != "" {
				hash, err := wire.HashPasscode(code)
				if err != nil {
					m.err = err
					return nil
				}
				if err := m.app.DB.SetModeratorPassHash(hash); err != nil {
					m.err = err
					return nil
				}
			}
		}
		m.Done = true
		return nil
	}

	return cmd
}

func (m *settingsModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Settings error: %v\n\nPress Enter/Esc to go back.", m.err)
	}
	return m.form.View() + "\n\n(esc to go back)"
}

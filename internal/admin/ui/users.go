package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/huh"

	"github.com/thewages75-crypto/idnon/internal/admin/app"
	"github.com/thewages75-crypto/idnon/internal/user"
)

type usersModel struct {
	app *app.App

	width  int
	height int

	Done bool

	state usersState

	list list.Model
	err  error

	selected *user.User

	form    *huh.Form
	confirm bool
	action  string
}

type usersState int

const (
	usersStateList usersState = iota
	usersStateDetail
	usersStateConfirm
)

type userItem struct {
	id    int64
	title string
	desc  string
	kind  string
}

func (i userItem) Title() string       { return i.title }
func (i userItem) Description() string { return i.desc }
func (i userItem) FilterValue() string { return i.title }

func newUsersModel(a *app.App) *usersModel {
	m := &usersModel{app: a, state: usersStateList}
	m.reloadList()
	return m
}

func (m *usersModel) SetSize(w, h int) {
	m.width, m.height = w, h
	m.list.SetSize(w, h-2)
}

func (m *usersModel) Update(msg tea.Msg) tea.Cmd {
	if m.err != nil {
		switch msg := msg.(type) {
		case tea.KeyMsg:
			if msg.String() == "esc" || msg.String() == "q" || msg.String() == "enter" {
				m.err = nil
				m.state = usersStateList
				m.form = nil
				m.selected = nil
				m.reloadList()
			}
		}
		return nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q":
			if m.state == usersStateList {
				m.Done = true
				return nil
			}
		case "esc":
			m.back()
			return nil
		}
	}

	switch m.state {
	case usersStateList:
		return m.updateList(msg)
	case usersStateDetail:
		return m.updateDetail(msg)
	case usersStateConfirm:
		return m.updateForm(msg)
	default:
		return nil
	}
}

func (m *usersModel) updateList(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "enter" {
			it, ok := m.list.SelectedItem().(userItem)
			if !ok {
				return cmd
			}

			u, err := m.app.Users.Get(it.id)
			if err != nil {
				m.err = err
				return nil
			}
			m.selected = u
			m.state = usersStateDetail
			m.list = newActionList(m.width, m.height, u)
			return nil
		}
	}

	return cmd
}

func (m *usersModel) updateDetail(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "enter" {
			it, ok := m.list.SelectedItem().(userItem)
			if !ok {
				return cmd
			}
			if it.kind == "back" {
				m.back()
				return nil
			}
			m.startConfirm(it.kind, it.title)
			return nil
		}
	}

	return cmd
}

func (m *usersModel) updateForm(msg tea.Msg) tea.Cmd {
	if m.form == nil {
		m.err = fmt.Errorf("internal error: form not initialized")
		return nil
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
		if m.confirm && m.selected != nil {
			if err := m.apply(); err != nil {
				m.err = err
				return nil
			}
		}
		m.refreshSelected()
		m.form = nil
		m.state = usersStateDetail
		m.list = newActionList(m.width, m.height, m.selected)
		return nil
	}
	return cmd
}

// apply performs the confirmed moderation action on the selected user.
func (m *usersModel) apply() error {
	u := m.selected
	switch m.action {
	case "ban":
		return m.app.Users.SetBanned(u.ID, !u.Banned)
	case "shadow":
		_, err := m.app.Users.ToggleShadow(u.ID)
		return err
	case "whitelist":
		return m.app.Users.SetWhitelisted(u.ID, !u.Whitelisted)
	case "lift_auto":
		return m.app.Users.ClearAutoBan(u.ID, m.app.Config.Moderation.ActivationThreshold)
	case "reset_activation":
		return m.app.Users.ResetActivation(u.ID, m.app.Config.Moderation.RecoveryBaseline)
	default:
		return fmt.Errorf("unknown action %q", m.action)
	}
}

func (m *usersModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Users error: %v\n\nPress Enter/Esc to go back.", m.err)
	}

	switch m.state {
	case usersStateList:
		m.list.Title = "Users"
		return m.list.View() + "\n(q to quit, enter to select)"
	case usersStateDetail:
		if m.selected == nil {
			return "No user selected\n\n(esc to go back)"
		}
		u := m.selected
		header := fmt.Sprintf("User %d  %s\n", u.ID, displayHandle(u))
		meta := fmt.Sprintf("Banned: %v\nAuto-banned: %v\nShadow-banned: %v\nWhitelisted: %v\nMedia sent: %d\n\n",
			u.Banned, u.AutoBanned, u.ShadowBanned, u.Whitelisted, u.MediaCount,
		)
		m.list.Title = "Actions"
		return header + meta + m.list.View() + "\n(esc to go back)"
	default:
		return m.form.View() + "\n\n(esc to go back)"
	}
}

func (m *usersModel) reloadList() {
	users, err := m.app.Users.List()
	if err != nil {
		m.err = err
		return
	}

	items := make([]list.Item, 0, len(users))
	for _, u := range users {
		desc := fmt.Sprintf("media %d%s", u.MediaCount, flagSummary(u))
		items = append(items, userItem{id: u.ID, title: fmt.Sprintf("%d  %s", u.ID, displayHandle(u)), desc: desc, kind: "user"})
	}

	m.list = list.New(items, list.NewDefaultDelegate(), m.width, m.height-2)
	m.list.SetShowStatusBar(false)
	m.list.SetFilteringEnabled(true)
	m.list.SetShowHelp(true)
	m.list.Title = "Users"
}

func newActionList(w, h int, u *user.User) list.Model {
	items := []list.Item{
		userItem{title: toggleTitle("Ban", u.Banned), desc: "Manual ban blocks everything", kind: "ban"},
		userItem{title: toggleTitle("Shadow-ban", u.ShadowBanned), desc: "Silently drop their messages", kind: "shadow"},
		userItem{title: toggleTitle("Whitelist", u.Whitelisted), desc: "Exempt from activation and sweeps", kind: "whitelist"},
		userItem{title: "Lift auto-ban", desc: "Clear the inactivity ban", kind: "lift_auto"},
		userItem{title: "Reset activation", desc: "Force the user through activation again", kind: "reset_activation"},
		userItem{title: "Back", desc: "Return to users list", kind: "back"},
	}
	l := list.New(items, list.NewDefaultDelegate(), w, h-10)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(true)
	return l
}

func (m *usersModel) startConfirm(action, title string) {
	m.state = usersStateConfirm
	m.action = action
	m.confirm = true
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().Title(title + "?").Value(&m.confirm),
		),
	)
}

func (m *usersModel) back() {
	switch m.state {
	case usersStateList:
		m.Done = true
	case usersStateDetail:
		m.state = usersStateList
		m.selected = nil
		m.form = nil
		m.reloadList()
	default:
		m.state = usersStateDetail
		m.form = nil
		m.list = newActionList(m.width, m.height, m.selected)
	}
}

func (m *usersModel) refreshSelected() {
	if m.selected == nil {
		return
	}
	u, err := m.app.Users.Get(m.selected.ID)
	if err == nil {
		m.selected = u
	}
}

func displayHandle(u *user.User) string {
	if u.HasHandle() {
		return "#" + u.Handle
	}
	return "(no handle)"
}

func toggleTitle(name string, on bool) string {
	if on {
		return "Clear " + name
	}
	return "Set " + name
}

func flagSummary(u *user.User) string {
	s := ""
	if u.Banned {
		s += "  banned"
	}
	if u.AutoBanned {
		s += "  auto-banned"
	}
	if u.ShadowBanned {
		s += "  shadow"
	}
	if u.Whitelisted {
		s += "  whitelisted"
	}
	return s
}

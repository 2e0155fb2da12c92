package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/huh"

	"github.com/thewages75-crypto/idnon/internal/admin/app"
)

type wordsModel struct {
	app *app.App

	width  int
	height int

	Done bool

	state wordsState

	list list.Model
	err  error

	form     *huh.Form
	newWord  string
	addSave  bool
	selected string
	delSave  bool
}

type wordsState int

const (
	wordsStateList wordsState = iota
	wordsStateAdd
	wordsStateDelete
)

type wordItem struct {
	word  string
	title string
	desc  string
	kind  string
}

func (i wordItem) Title() string       { return i.title }
func (i wordItem) Description() string { return i.desc }
func (i wordItem) FilterValue() string { return i.title }

func newWordsModel(a *app.App) *wordsModel {
	m := &wordsModel{app: a, state: wordsStateList}
	m.reloadList()
	return m
}

func (m *wordsModel) SetSize(w, h int) {
	m.width, m.height = w, h
	m.list.SetSize(w, h-2)
}

func (m *wordsModel) Update(msg tea.Msg) tea.Cmd {
	if m.err != nil {
		switch msg := msg.(type) {
		case tea.KeyMsg:
			if msg.String() == "esc" || msg.String() == "q" || msg.String() == "enter" {
				m.err = nil
				m.state = wordsStateList
				m.form = nil
				m.reloadList()
			}
		}
		return nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q":
			if m.state == wordsStateList {
				m.Done = true
				return nil
			}
		case "esc":
			if m.state == wordsStateList {
				m.Done = true
			} else {
				m.state = wordsStateList
				m.form = nil
			}
			return nil
		}
	}

	switch m.state {
	case wordsStateList:
		return m.updateList(msg)
	default:
		return m.updateForm(msg)
	}
}

func (m *wordsModel) updateList(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "enter" {
			it, ok := m.list.SelectedItem().(wordItem)
			if !ok {
				return cmd
			}
			if it.kind == "add" {
				m.startAdd()
				return nil
			}
			m.startDelete(it.word)
			return nil
		}
	}

	return cmd
}

func (m *wordsModel) updateForm(msg tea.Msg) tea.Cmd {
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
		switch m.state {
		case wordsStateAdd:
			if m.addSave {
				if err := m.app.Words.Add(m.newWord); err != nil {
					m.err = err
					return nil
				}
			}
		case wordsStateDelete:
			if m.delSave {
				if err := m.app.Words.Remove(m.selected); err != nil {
					m.err = err
					return nil
				}
			}
		}
		m.form = nil
		m.state = wordsStateList
		m.reloadList()
		return nil
	}
	return cmd
}

func (m *wordsModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Banned words error: %v\n\nPress Enter/Esc to go back.", m.err)
	}

	switch m.state {
	case wordsStateList:
		m.list.Title = "Banned Words"
		return m.list.View() + "\n(q to quit, enter to select)"
	default:
		return m.form.View() + "\n\n(esc to go back)"
	}
}

func (m *wordsModel) reloadList() {
	words, err := m.app.Words.Words()
	if err != nil {
		m.err = err
		return
	}

	items := make([]list.Item, 0, len(words)+1)
	items = append(items, wordItem{title: "+ Add word", desc: "Filter a new word", kind: "add"})
	for _, w := range words {
		items = append(items, wordItem{word: w, title: w, desc: "enter to remove", kind: "word"})
	}

	m.list = list.New(items, list.NewDefaultDelegate(), m.width, m.height-2)
	m.list.SetShowStatusBar(false)
	m.list.SetFilteringEnabled(true)
	m.list.SetShowHelp(true)
	m.list.Title = "Banned Words"
}

func (m *wordsModel) startAdd() {
	m.state = wordsStateAdd
	m.newWord = ""
	m.addSave = true
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Word").Value(&m.newWord).Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("word cannot be empty")
				}
				return nil
			}),
		),
		huh.NewGroup(
			huh.NewConfirm().Title("Add word?").Value(&m.addSave),
		),
	)
}

func (m *wordsModel) startDelete(word string) {
	m.state = wordsStateDelete
	m.selected = word
	m.delSave = true
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().Title(fmt.Sprintf("Remove %q?", word)).Value(&m.delSave),
		),
	)
}

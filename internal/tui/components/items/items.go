package items

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habitguard/internal/constants"
	"github.com/julianstephens/habitguard/internal/tracker"
)

type AddItemMsg struct{}

type LogSuccessMsg struct {
	ID string
}

type LogSlipMsg struct {
	ID string
}

// CancelMsg asks to retract today's log, or to reopen a completed task
type CancelMsg struct {
	ID     string
	Name   string
	IsTask bool
}

type ArchiveItemMsg struct {
	ID string
}

type Item struct {
	Summary tracker.ItemSummary
}

func (i Item) Title() string {
	title := i.Summary.StatusMark() + " " + i.Summary.Item.Name
	if i.Summary.Item.IsCompleted() {
		title = "✓ " + i.Summary.Item.Name + " (done)"
	}
	if i.Summary.Item.Polarity == constants.PolarityBad {
		title += " ⊘"
	}
	return title
}

func (i Item) Description() string {
	if i.Summary.Item.IsTask() {
		return "task · " + i.Summary.NextRewardLabel()
	}
	return fmt.Sprintf("streak %d · best %d · %s", i.Summary.Streak.Current, i.Summary.Streak.Best, i.Summary.NextRewardLabel())
}

func (i Item) FilterValue() string { return i.Summary.Item.Name }

func (i Item) loggedToday() bool {
	return i.Summary.Today != nil && *i.Summary.Today == constants.OutcomeSuccess
}

type KeyMap struct {
	Log     key.Binding
	Slip    key.Binding
	Cancel  key.Binding
	Add     key.Binding
	Archive key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Log: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "log success"),
		),
		Slip: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "slip"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "cancel/reopen"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Archive: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "archive"),
		),
	}
}

func (k KeyMap) Bindings() []key.Binding {
	return []key.Binding{k.Log, k.Slip, k.Cancel, k.Add, k.Archive}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func New(sums []tracker.ItemSummary, width, height int) Model {
	l := list.New(toListItems(sums), list.NewDefaultDelegate(), width, height)
	l.Title = "Items"
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = keys.Bindings
	l.AdditionalFullHelpKeys = keys.Bindings

	return Model{list: l, keys: keys}
}

func toListItems(sums []tracker.ItemSummary) []list.Item {
	items := make([]list.Item, len(sums))
	for i, s := range sums {
		items[i] = Item{Summary: s}
	}
	return items
}

func (m *Model) SetSummaries(sums []tracker.ItemSummary) {
	m.list.SetItems(toListItems(sums))
}

func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) Keys() KeyMap { return m.keys }

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok && !m.Filtering() {
		if key.Matches(msg, m.keys.Add) {
			return m, func() tea.Msg { return AddItemMsg{} }
		}
		if i, ok := m.list.SelectedItem().(Item); ok {
			if c := m.itemAction(msg, i); c != nil {
				return m, c
			}
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// itemAction maps a key to a command for the selected item, nil when the
// key does not apply to it
func (m Model) itemAction(msg tea.KeyMsg, i Item) tea.Cmd {
	it := i.Summary.Item
	switch {
	case key.Matches(msg, m.keys.Log):
		if !it.IsCompleted() && !i.loggedToday() {
			return func() tea.Msg { return LogSuccessMsg{ID: it.ID} }
		}
	case key.Matches(msg, m.keys.Slip):
		if !it.IsCompleted() {
			return func() tea.Msg { return LogSlipMsg{ID: it.ID} }
		}
	case key.Matches(msg, m.keys.Cancel):
		if (it.IsTask() && it.IsCompleted()) || (!it.IsTask() && i.Summary.Today != nil) {
			return func() tea.Msg { return CancelMsg{ID: it.ID, Name: it.Name, IsTask: it.IsTask()} }
		}
	case key.Matches(msg, m.keys.Archive):
		return func() tea.Msg { return ArchiveItemMsg{ID: it.ID} }
	}
	return nil
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && !m.Filtering() {
		return "\n  No habits or tasks yet.\n  Press 'a' to add one."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}

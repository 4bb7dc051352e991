package grants

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habitguard/internal/tracker"
)

// RedeemMsg asks to take Quantity units off a grant
type RedeemMsg struct {
	ID       string
	Name     string
	Quantity int
}

type Item struct {
	View tracker.GrantView
}

func (i Item) Title() string {
	return fmt.Sprintf("🎁 %s ×%d", i.View.RewardName, i.View.Grant.Quantity)
}

func (i Item) Description() string {
	desc := fmt.Sprintf("%s · received %s", i.View.ItemName, i.View.Grant.DateReceived)
	if i.View.Description != "" {
		desc += " · " + i.View.Description
	}
	return desc
}

func (i Item) FilterValue() string { return i.View.RewardName }

type KeyMap struct {
	Redeem    key.Binding
	RedeemAll key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Redeem: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "redeem one"),
		),
		RedeemAll: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "redeem all"),
		),
	}
}

func (k KeyMap) Bindings() []key.Binding {
	return []key.Binding{k.Redeem, k.RedeemAll}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func New(views []tracker.GrantView, width, height int) Model {
	l := list.New(toListItems(views), list.NewDefaultDelegate(), width, height)
	l.Title = "Rewards"
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = keys.Bindings
	l.AdditionalFullHelpKeys = keys.Bindings

	return Model{list: l, keys: keys}
}

func toListItems(views []tracker.GrantView) []list.Item {
	items := make([]list.Item, len(views))
	for i, v := range views {
		items[i] = Item{View: v}
	}
	return items
}

func (m *Model) SetGrants(views []tracker.GrantView) {
	m.list.SetItems(toListItems(views))
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
		if i, ok := m.list.SelectedItem().(Item); ok {
			g := i.View.Grant
			switch {
			case key.Matches(msg, m.keys.Redeem):
				return m, func() tea.Msg { return RedeemMsg{ID: g.ID, Name: i.View.RewardName, Quantity: 1} }
			case key.Matches(msg, m.keys.RedeemAll):
				return m, func() tea.Msg { return RedeemMsg{ID: g.ID, Name: i.View.RewardName, Quantity: g.Quantity} }
			}
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && !m.Filtering() {
		return "\n  No rewards waiting.\n  Keep your streaks going to earn some."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}

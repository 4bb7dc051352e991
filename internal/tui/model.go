package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitguard/internal/constants"
	"github.com/julianstephens/habitguard/internal/logger"
	"github.com/julianstephens/habitguard/internal/tracker"
	"github.com/julianstephens/habitguard/internal/tui/components/grants"
	"github.com/julianstephens/habitguard/internal/tui/components/items"
)

// ItemFormModel holds the values bound to the add-item form
type ItemFormModel struct {
	Name        string
	Kind        constants.ItemKind
	Polarity    constants.Polarity
	RewardName  string
	RewardKind  constants.RewardKind
	Requirement string
	Quantity    string
}

// CancelFormModel holds the pending cancel/reopen confirmation
type CancelFormModel struct {
	ItemID    string
	Name      string
	IsTask    bool
	Confirmed bool
}

type Model struct {
	svc        *tracker.Service
	state      constants.SessionState
	keys       KeyMap
	help       help.Model
	itemsModel items.Model
	grantModel grants.Model
	form       *huh.Form
	itemForm   *ItemFormModel
	cancelForm *CancelFormModel

	today             string
	status            string
	statusIsError     bool
	validationWarning string

	quitting bool
	width    int
	height   int
}

func NewModel(svc *tracker.Service) (Model, error) {
	m := Model{
		svc:        svc,
		state:      constants.StateItems,
		keys:       DefaultKeyMap(),
		help:       help.New(),
		itemsModel: items.New(nil, 0, 0),
		grantModel: grants.New(nil, 0, 0),
	}
	if err := m.refresh(); err != nil {
		return Model{}, err
	}
	m.updateValidationStatus()
	return m, nil
}

// refresh reloads today's summaries and the active grants
func (m *Model) refresh() error {
	today, err := m.svc.Today()
	if err != nil {
		return err
	}
	m.today = today

	sums, err := m.svc.Summaries(today, false)
	if err != nil {
		return err
	}
	m.itemsModel.SetSummaries(sums)

	views, err := m.svc.ActiveGrants()
	if err != nil {
		return err
	}
	m.grantModel.SetGrants(views)
	return nil
}

// updateValidationStatus runs validation and updates the warning message
func (m *Model) updateValidationStatus() {
	result, _, err := m.svc.Validate()
	switch {
	case err != nil:
		m.validationWarning = "⚠ Validation unavailable"
	case result.HasConflicts():
		m.validationWarning = fmt.Sprintf("⚠ %d validation warning(s), run 'habitguard doctor'", len(result.Conflicts))
	default:
		m.validationWarning = ""
	}
}

func (m *Model) setStatus(msg string) {
	m.status = msg
	m.statusIsError = false
}

func (m *Model) setError(err error) {
	logger.Warn("TUI action failed", "error", err)
	m.status = err.Error()
	m.statusIsError = true
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	switch m.state {
	case constants.StateItems:
		keys = append(keys, m.itemsModel.Keys().Bindings()...)
	case constants.StateGrants:
		keys = append(keys, m.grantModel.Keys().Bindings()...)
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	navigation := []key.Binding{m.keys.Up, m.keys.Down}

	var actions []key.Binding
	switch m.state {
	case constants.StateItems:
		actions = m.itemsModel.Keys().Bindings()
	case constants.StateGrants:
		actions = m.grantModel.Keys().Bindings()
	}
	return [][]key.Binding{global, navigation, actions}
}

func (m Model) Init() tea.Cmd {
	return nil
}

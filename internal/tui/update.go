package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitguard/internal/constants"
	"github.com/julianstephens/habitguard/internal/rewards"
	"github.com/julianstephens/habitguard/internal/tui/components/grants"
	"github.com/julianstephens/habitguard/internal/tui/components/items"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		h, v := docStyle.GetFrameSize()
		listHeight := msg.Height - v - 4
		if listHeight < 0 {
			listHeight = 0
		}
		m.itemsModel.SetSize(msg.Width-h, listHeight)
		m.grantModel.SetSize(msg.Width-h, listHeight)
		return m, nil
	}

	switch m.state {
	case constants.StateAddItem:
		cmd := m.updateAddItem(msg)
		return m, cmd
	case constants.StateConfirmCancel:
		cmd := m.updateConfirmCancel(msg)
		return m, cmd
	}

	if handled, cmd := m.handleComponentMsg(msg); handled {
		return m, cmd
	}

	if msg, ok := msg.(tea.KeyMsg); ok && !m.filtering() {
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			if m.state == constants.StateItems {
				m.state = constants.StateGrants
			} else {
				m.state = constants.StateItems
			}
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch m.state {
	case constants.StateItems:
		m.itemsModel, cmd = m.itemsModel.Update(msg)
	case constants.StateGrants:
		m.grantModel, cmd = m.grantModel.Update(msg)
	}
	return m, cmd
}

func (m Model) filtering() bool {
	switch m.state {
	case constants.StateItems:
		return m.itemsModel.Filtering()
	case constants.StateGrants:
		return m.grantModel.Filtering()
	}
	return false
}

// handleComponentMsg applies the actions requested by the list components
func (m *Model) handleComponentMsg(msg tea.Msg) (bool, tea.Cmd) {
	switch msg := msg.(type) {
	case items.AddItemMsg:
		m.itemForm = newItemFormModel()
		m.form = NewItemForm(m.itemForm)
		m.state = constants.StateAddItem
		return true, m.form.Init()

	case items.LogSuccessMsg:
		fired, err := m.svc.LogSuccess(msg.ID, m.today, "")
		if err != nil {
			m.setError(err)
			return true, nil
		}
		m.setStatus("Logged success")
		if len(fired) > 0 {
			m.setStatus(formatFired(fired))
		}
		m.reload()
		return true, nil

	case items.LogSlipMsg:
		if err := m.svc.LogSlip(msg.ID, m.today, ""); err != nil {
			m.setError(err)
			return true, nil
		}
		m.setStatus("Logged slip. Tomorrow is a new day.")
		m.reload()
		return true, nil

	case items.CancelMsg:
		m.cancelForm = &CancelFormModel{ItemID: msg.ID, Name: msg.Name, IsTask: msg.IsTask}
		m.form = NewCancelForm(m.cancelForm)
		m.state = constants.StateConfirmCancel
		return true, m.form.Init()

	case items.ArchiveItemMsg:
		if err := m.svc.ArchiveItem(msg.ID); err != nil {
			m.setError(err)
			return true, nil
		}
		m.setStatus("Archived")
		m.reload()
		return true, nil

	case grants.RedeemMsg:
		g, err := m.svc.Redeem(msg.ID, msg.Quantity, m.today)
		if err != nil {
			m.setError(err)
			return true, nil
		}
		if g.Redeemed {
			m.setStatus(fmt.Sprintf("Enjoy your %s!", msg.Name))
		} else {
			m.setStatus(fmt.Sprintf("Redeemed %s, %d left", msg.Name, g.Quantity))
		}
		m.reload()
		return true, nil
	}
	return false, nil
}

func (m *Model) reload() {
	if err := m.refresh(); err != nil {
		m.setError(err)
	}
}

func formatFired(fired []rewards.Fired) string {
	parts := make([]string, len(fired))
	for i, f := range fired {
		parts[i] = f.Name
		if f.QuantityGranted > 1 {
			parts[i] += fmt.Sprintf(" ×%d", f.QuantityGranted)
		}
	}
	return "🎁 Earned: " + strings.Join(parts, ", ")
}

// updateForm forwards msg to the active form; esc aborts it
func (m *Model) updateForm(msg tea.Msg) (huh.FormState, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		return huh.StateAborted, nil
	}
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	return m.form.State, cmd
}

func (m *Model) updateAddItem(msg tea.Msg) tea.Cmd {
	state, cmd := m.updateForm(msg)
	switch state {
	case huh.StateCompleted:
		item, err := m.svc.AddItem(m.itemForm.toNewItem())
		if err != nil {
			m.setError(err)
		} else {
			m.setStatus(fmt.Sprintf("Added %s %q", item.Kind, item.Name))
			m.reload()
		}
		m.closeForm()
	case huh.StateAborted:
		m.closeForm()
	}
	return cmd
}

func (m *Model) updateConfirmCancel(msg tea.Msg) tea.Cmd {
	state, cmd := m.updateForm(msg)
	switch state {
	case huh.StateCompleted:
		if m.cancelForm.Confirmed {
			m.applyCancel(m.cancelForm)
		}
		m.closeForm()
	case huh.StateAborted:
		m.closeForm()
	}
	return cmd
}

func (m *Model) applyCancel(cf *CancelFormModel) {
	var err error
	if cf.IsTask {
		err = m.svc.ReopenTask(cf.ItemID)
	} else {
		err = m.svc.CancelLog(cf.ItemID, m.today)
	}
	if err != nil {
		m.setError(err)
		return
	}
	if cf.IsTask {
		m.setStatus(fmt.Sprintf("Reopened %q", cf.Name))
	} else {
		m.setStatus(fmt.Sprintf("Cancelled today's log for %q", cf.Name))
	}
	m.reload()
}

func (m *Model) closeForm() {
	m.form = nil
	m.itemForm = nil
	m.cancelForm = nil
	m.state = constants.StateItems
}

package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitguard/internal/constants"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case constants.StateItems:
		content = docStyle.Render(m.itemsModel.View())
	case constants.StateGrants:
		content = docStyle.Render(m.grantModel.View())
	case constants.StateAddItem, constants.StateConfirmCancel:
		if m.form != nil {
			content = docStyle.Render(m.form.View())
		}
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		content,
		m.viewStatus(),
		m.help.View(m),
	)
}

func (m Model) viewTabs() string {
	titles := []struct {
		name  string
		state constants.SessionState
	}{
		{"Items", constants.StateItems},
		{"Rewards", constants.StateGrants},
	}

	var tabs []string
	for _, t := range titles {
		if m.state == t.state {
			tabs = append(tabs, activeTabStyle.Render(t.name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(t.name))
		}
	}
	tabs = append(tabs, inactiveTabStyle.Render(m.today))
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewStatus() string {
	switch {
	case m.status != "" && m.statusIsError:
		return statusStyle.Render(errorStyle.Render(m.status))
	case m.status != "":
		return statusStyle.Render(rewardStyle.Render(m.status))
	case m.validationWarning != "":
		return statusStyle.Render(warningStyle.Render(m.validationWarning))
	}
	return ""
}

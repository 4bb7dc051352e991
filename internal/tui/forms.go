package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitguard/internal/constants"
	"github.com/julianstephens/habitguard/internal/tracker"
)

func validatePositive(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	if i <= 0 {
		return fmt.Errorf("must be a positive number")
	}
	return nil
}

// NewItemForm creates the add-item form
func NewItemForm(fm *ItemFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&fm.Name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name cannot be empty")
					}
					return nil
				}),
			huh.NewSelect[constants.ItemKind]().
				Title("Kind").
				Options(
					huh.NewOption("Habit", constants.ItemKindHabit),
					huh.NewOption("Task", constants.ItemKindTask),
				).
				Value(&fm.Kind),
			huh.NewSelect[constants.Polarity]().
				Title("Polarity").
				Options(
					huh.NewOption("Build (good)", constants.PolarityGood),
					huh.NewOption("Break (bad)", constants.PolarityBad),
				).
				Value(&fm.Polarity),
			huh.NewInput().
				Title("Reward").
				Description("Leave empty for no reward").
				Value(&fm.RewardName),
			huh.NewSelect[constants.RewardKind]().
				Title("Reward kind").
				Options(
					huh.NewOption("Every N successes", constants.RewardRecurring),
					huh.NewOption("Once", constants.RewardOneTime),
				).
				Value(&fm.RewardKind),
			huh.NewInput().
				Title("Requirement").
				Value(&fm.Requirement).
				Validate(validatePositive),
			huh.NewInput().
				Title("Quantity").
				Value(&fm.Quantity).
				Validate(validatePositive),
		),
	).WithShowHelp(true)
}

func newItemFormModel() *ItemFormModel {
	return &ItemFormModel{
		Kind:        constants.ItemKindHabit,
		Polarity:    constants.PolarityGood,
		RewardKind:  constants.RewardRecurring,
		Requirement: "7",
		Quantity:    "1",
	}
}

func (fm *ItemFormModel) toNewItem() tracker.NewItem {
	ni := tracker.NewItem{
		Name:     fm.Name,
		Kind:     fm.Kind,
		Polarity: fm.Polarity,
	}
	if strings.TrimSpace(fm.RewardName) != "" {
		req, _ := strconv.Atoi(fm.Requirement)
		qty, _ := strconv.Atoi(fm.Quantity)
		ni.Rules = []tracker.NewRule{{
			Name:        fm.RewardName,
			Kind:        fm.RewardKind,
			Requirement: req,
			Quantity:    qty,
		}}
	}
	return ni
}

// NewCancelForm asks before a log is retracted
func NewCancelForm(cf *CancelFormModel) *huh.Form {
	title := fmt.Sprintf("Cancel today's log for %q?", cf.Name)
	desc := "Rewards earned by today's log are taken back."
	if cf.IsTask {
		title = fmt.Sprintf("Reopen %q?", cf.Name)
		desc = "Every reward this task earned is withdrawn."
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(desc).
				Affirmative("Yes").
				Negative("No").
				Value(&cf.Confirmed),
		),
	)
}

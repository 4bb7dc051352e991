package items

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitguard/internal/cli"
	"github.com/julianstephens/habitguard/internal/constants"
	"github.com/julianstephens/habitguard/internal/tracker"
)

type ItemCmd struct {
	Add       ItemAddCmd       `cmd:"" help:"Add a habit or task."`
	List      ItemListCmd      `cmd:"" help:"List items with streaks and reward progress." default:"1"`
	Show      ItemShowCmd      `cmd:"" help:"Show one item in detail."`
	Archive   ItemArchiveCmd   `cmd:"" help:"Archive an item."`
	Unarchive ItemUnarchiveCmd `cmd:"" help:"Unarchive an item."`
	Delete    ItemDeleteCmd    `cmd:"" help:"Delete an item with its history and rewards."`
}

type ItemAddCmd struct {
	Name        string   `arg:"" optional:"" help:"Item name."`
	Kind        string   `help:"Item kind: habit or task." default:"habit" enum:"habit,task"`
	Bad         bool     `help:"Track a habit to break (success means it was avoided)."`
	Priority    int      `help:"Priority from 0 to 5." default:"0"`
	Reward      []string `help:"Reward rule as NAME:KIND:REQUIREMENT[:QUANTITY]. Repeatable." short:"r" sep:"none"`
	Interactive bool     `help:"Fill in the item with a form." short:"i"`
}

func (c *ItemAddCmd) Run(ctx *cli.Context) error {
	var ni tracker.NewItem
	if c.Interactive {
		var err error
		if ni, err = runAddForm(c.Name); err != nil {
			return err
		}
	} else {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("item name is required (or use --interactive)")
		}
		kind, err := cli.ParseItemKind(c.Kind)
		if err != nil {
			return err
		}
		ni = tracker.NewItem{
			Name:     c.Name,
			Kind:     kind,
			Polarity: constants.PolarityGood,
			Priority: c.Priority,
		}
		if c.Bad {
			ni.Polarity = constants.PolarityBad
		}
		for _, spec := range c.Reward {
			rule, err := cli.ParseRewardSpec(spec)
			if err != nil {
				return err
			}
			ni.Rules = append(ni.Rules, rule)
		}
	}

	item, err := ctx.Tracker.AddItem(ni)
	if err != nil {
		return err
	}

	fmt.Printf("Added %s: %s\n", item.Kind, item.Name)
	if len(ni.Rules) > 0 {
		fmt.Printf("  with %d reward rule(s)\n", len(ni.Rules))
	}
	return nil
}

// addForm holds the string-typed values bound to the interactive form
type addForm struct {
	Name        string
	Kind        constants.ItemKind
	Polarity    constants.Polarity
	Priority    string
	RewardName  string
	RewardKind  constants.RewardKind
	Requirement string
	Quantity    string
}

func positiveInt(s string) error {
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

func runAddForm(name string) (tracker.NewItem, error) {
	f := addForm{
		Name:        name,
		Kind:        constants.ItemKindHabit,
		Polarity:    constants.PolarityGood,
		Priority:    "0",
		RewardKind:  constants.RewardRecurring,
		Requirement: "7",
		Quantity:    "1",
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(&f.Name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name cannot be empty")
					}
					return nil
				}),
			huh.NewSelect[constants.ItemKind]().Title("Kind").
				Options(
					huh.NewOption("Habit", constants.ItemKindHabit),
					huh.NewOption("Task", constants.ItemKindTask),
				).
				Value(&f.Kind),
			huh.NewSelect[constants.Polarity]().Title("Polarity").
				Options(
					huh.NewOption("Build (good)", constants.PolarityGood),
					huh.NewOption("Break (bad)", constants.PolarityBad),
				).
				Value(&f.Polarity),
			huh.NewInput().Title("Priority (0-5)").Value(&f.Priority).
				Validate(func(s string) error {
					i, err := strconv.Atoi(s)
					if err != nil {
						return err
					}
					if i < constants.MinPriority || i > constants.MaxPriority {
						return fmt.Errorf("priority must be between %d and %d", constants.MinPriority, constants.MaxPriority)
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewInput().Title("Reward").Description("Leave empty for no reward").Value(&f.RewardName),
			huh.NewSelect[constants.RewardKind]().Title("Reward kind").
				Description("Tasks always use one-time").
				Options(
					huh.NewOption("Every N successes", constants.RewardRecurring),
					huh.NewOption("Once", constants.RewardOneTime),
				).
				Value(&f.RewardKind),
			huh.NewInput().Title("Requirement").Value(&f.Requirement).Validate(positiveInt),
			huh.NewInput().Title("Quantity").Value(&f.Quantity).Validate(positiveInt),
		),
	)
	if err := form.Run(); err != nil {
		return tracker.NewItem{}, err
	}
	return f.toNewItem(), nil
}

func (f addForm) toNewItem() tracker.NewItem {
	priority, _ := strconv.Atoi(f.Priority)
	ni := tracker.NewItem{
		Name:     f.Name,
		Kind:     f.Kind,
		Polarity: f.Polarity,
		Priority: priority,
	}
	if strings.TrimSpace(f.RewardName) != "" {
		req, _ := strconv.Atoi(f.Requirement)
		qty, _ := strconv.Atoi(f.Quantity)
		ni.Rules = []tracker.NewRule{{
			Name:        f.RewardName,
			Kind:        f.RewardKind,
			Requirement: req,
			Quantity:    qty,
		}}
	}
	return ni
}

type ItemListCmd struct {
	Archived bool `help:"Include archived items."`
}

func (c *ItemListCmd) Run(ctx *cli.Context) error {
	today, err := ctx.Tracker.Today()
	if err != nil {
		return err
	}
	sums, err := ctx.Tracker.Summaries(today, c.Archived)
	if err != nil {
		return err
	}

	if len(sums) == 0 {
		fmt.Println("No items found. Add one with 'habitguard item add'.")
		return nil
	}

	for _, sum := range sums {
		status := ""
		switch {
		case sum.Item.IsArchived():
			status = " [ARCHIVED]"
		case sum.Item.IsCompleted():
			status = " [DONE]"
		}
		fmt.Printf("%s %-24s%s\n", sum.StatusMark(), sum.Item.Name, status)
		if sum.Item.IsTask() {
			cli.Muted(os.Stdout, "    task · %s\n", sum.NextRewardLabel())
			continue
		}
		cli.Muted(os.Stdout, "    streak %d (best %d) · %s\n", sum.Streak.Current, sum.Streak.Best, sum.NextRewardLabel())
	}
	return nil
}

type ItemShowCmd struct {
	Item string `arg:"" help:"Item name or id."`
}

func (c *ItemShowCmd) Run(ctx *cli.Context) error {
	item, err := ctx.Tracker.Resolve(c.Item)
	if err != nil {
		return err
	}
	today, err := ctx.Tracker.Today()
	if err != nil {
		return err
	}
	sum, err := ctx.Tracker.Summary(item.ID, today)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", item.Name)
	fmt.Printf("  ID:        %s\n", item.ID)
	fmt.Printf("  Kind:      %s (%s)\n", item.Kind, item.Polarity)
	fmt.Printf("  Priority:  %d\n", item.Priority)
	fmt.Printf("  Created:   %s\n", item.CreatedAt.Format(constants.DateFormat))
	if item.IsArchived() {
		fmt.Printf("  Archived:  %s\n", item.ArchivedAt.Format(constants.DateFormat))
	}
	if item.IsCompleted() {
		fmt.Printf("  Completed: %s\n", item.CompletedAt.Format(constants.DateFormat))
	}
	fmt.Printf("  Today:     %s\n", sum.StatusMark())
	fmt.Printf("  Streak:    %d (best %d)\n", sum.Streak.Current, sum.Streak.Best)
	fmt.Printf("  Successes: %d\n", sum.Total)

	if len(sum.Rules) == 0 {
		fmt.Println("  Rewards:   none")
		return nil
	}
	fmt.Println("  Rewards:")
	for _, rp := range sum.Rules {
		fmt.Printf("    %s (%s, needs %d, ×%d) progress %d, %d to go\n",
			rp.Rule.Name, rp.Rule.Kind, rp.Rule.Requirement, rp.Rule.Quantity, rp.Progress, rp.Remaining)
	}
	return nil
}

type ItemArchiveCmd struct {
	Item string `arg:"" help:"Item name or id."`
}

func (c *ItemArchiveCmd) Run(ctx *cli.Context) error {
	item, err := ctx.Tracker.Resolve(c.Item)
	if err != nil {
		return err
	}
	if err := ctx.Tracker.ArchiveItem(item.ID); err != nil {
		return err
	}
	fmt.Printf("Archived %s\n", item.Name)
	return nil
}

type ItemUnarchiveCmd struct {
	Item string `arg:"" help:"Item name or id."`
}

func (c *ItemUnarchiveCmd) Run(ctx *cli.Context) error {
	item, err := ctx.Tracker.Resolve(c.Item)
	if err != nil {
		return err
	}
	if err := ctx.Tracker.UnarchiveItem(item.ID); err != nil {
		return err
	}
	fmt.Printf("Unarchived %s\n", item.Name)
	return nil
}

type ItemDeleteCmd struct {
	Item string `arg:"" help:"Item name or id."`
	Yes  bool   `help:"Skip the confirmation prompt." short:"y"`
}

func (c *ItemDeleteCmd) Run(ctx *cli.Context) error {
	item, err := ctx.Tracker.Resolve(c.Item)
	if err != nil {
		return err
	}

	if !c.Yes {
		confirmed := false
		err := huh.NewConfirm().
			Title(fmt.Sprintf("Delete %q?", item.Name)).
			Description("Its log history, reward rules and unredeemed rewards are deleted too.").
			Value(&confirmed).
			Run()
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Delete cancelled.")
			return nil
		}
	}

	if err := ctx.Tracker.DeleteItem(item.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", item.Name)
	return nil
}

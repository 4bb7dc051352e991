package rewards

import (
	"fmt"

	"github.com/julianstephens/habitguard/internal/cli"
	"github.com/julianstephens/habitguard/internal/constants"
	"github.com/julianstephens/habitguard/internal/tracker"
)

type RewardCmd struct {
	Add    RewardAddCmd    `cmd:"" help:"Attach a reward rule to an item."`
	List   RewardListCmd   `cmd:"" help:"List an item's reward rules." default:"1"`
	Edit   RewardEditCmd   `cmd:"" help:"Edit a reward rule."`
	Remove RewardRemoveCmd `cmd:"" help:"Disable a reward rule."`
}

type RewardAddCmd struct {
	Item        string `arg:"" help:"Item name or id."`
	Name        string `arg:"" help:"Reward name."`
	Description string `help:"Reward description." default:""`
	Kind        string `help:"one-time or recurring." default:"recurring"`
	Requirement int    `help:"Successes needed (consecutive days for habits)." default:"1"`
	Quantity    int    `help:"Units granted each time the rule fires." default:"1"`
}

func (c *RewardAddCmd) Run(ctx *cli.Context) error {
	item, err := ctx.Tracker.Resolve(c.Item)
	if err != nil {
		return err
	}
	kind, err := cli.ParseRewardKind(c.Kind)
	if err != nil {
		return err
	}

	rule, err := ctx.Tracker.AddRule(item.ID, tracker.NewRule{
		Name:        c.Name,
		Description: c.Description,
		Kind:        kind,
		Requirement: c.Requirement,
		Quantity:    c.Quantity,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Added reward %q to %s (%s)\n", rule.Name, item.Name, describeRule(rule.Kind, rule.Requirement, rule.Quantity))
	fmt.Printf("  ID: %s\n", rule.ID)
	return nil
}

func describeRule(kind constants.RewardKind, req, qty int) string {
	if kind == constants.RewardRecurring {
		return fmt.Sprintf("×%d every %d", qty, req)
	}
	return fmt.Sprintf("×%d once at %d", qty, req)
}

type RewardListCmd struct {
	Item     string `arg:"" help:"Item name or id."`
	Disabled bool   `help:"Include disabled rules."`
}

func (c *RewardListCmd) Run(ctx *cli.Context) error {
	item, err := ctx.Tracker.Resolve(c.Item)
	if err != nil {
		return err
	}
	rules, err := ctx.Tracker.ListRules(item.ID, c.Disabled)
	if err != nil {
		return err
	}

	if len(rules) == 0 {
		fmt.Printf("No reward rules for %s.\n", item.Name)
		return nil
	}

	for _, r := range rules {
		status := ""
		if !r.Enabled {
			status = " [DISABLED]"
		}
		fmt.Printf("%s  %s (%s) since %s%s\n", r.ID, r.Name, describeRule(r.Kind, r.Requirement, r.Quantity), r.ActivationDay(), status)
		if r.Description != "" {
			fmt.Printf("    %s\n", r.Description)
		}
	}
	return nil
}

type RewardEditCmd struct {
	ID          string  `arg:"" help:"Rule id."`
	Name        *string `help:"New name."`
	Description *string `help:"New description."`
	Kind        *string `help:"one-time or recurring."`
	Requirement *int    `help:"New requirement."`
	Quantity    *int    `help:"New quantity."`
}

func (c *RewardEditCmd) Run(ctx *cli.Context) error {
	upd := tracker.RuleUpdate{
		Name:        c.Name,
		Description: c.Description,
		Requirement: c.Requirement,
		Quantity:    c.Quantity,
	}
	if c.Kind != nil {
		kind, err := cli.ParseRewardKind(*c.Kind)
		if err != nil {
			return err
		}
		upd.Kind = &kind
	}

	rule, err := ctx.Tracker.UpdateRule(c.ID, upd)
	if err != nil {
		return err
	}
	fmt.Printf("Updated reward %q (%s)\n", rule.Name, describeRule(rule.Kind, rule.Requirement, rule.Quantity))
	return nil
}

type RewardRemoveCmd struct {
	ID string `arg:"" help:"Rule id."`
}

func (c *RewardRemoveCmd) Run(ctx *cli.Context) error {
	if err := ctx.Tracker.RemoveRule(c.ID); err != nil {
		return err
	}
	fmt.Println("Reward rule disabled. Unredeemed rewards it granted are kept.")
	return nil
}

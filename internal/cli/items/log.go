package items

import (
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/habitguard/internal/cli"
	"github.com/julianstephens/habitguard/internal/tracker"
)

type LogCmd struct {
	Item string `arg:"" help:"Item name or id."`
	Date string `help:"Date in YYYY-MM-DD format (default: today)." default:""`
	Note string `help:"Optional note for this entry." default:""`
	Slip bool   `help:"Record a slip instead of a success."`
}

func (c *LogCmd) Run(ctx *cli.Context) error {
	item, err := ctx.Tracker.Resolve(c.Item)
	if err != nil {
		return err
	}
	day, err := ctx.ResolveDay(c.Date)
	if err != nil {
		return err
	}

	if c.Slip {
		if err := ctx.Tracker.LogSlip(item.ID, day, c.Note); err != nil {
			return err
		}
		fmt.Printf("Logged slip for %q on %s\n", item.Name, day)
		return nil
	}

	fired, err := ctx.Tracker.LogSuccess(item.ID, day, c.Note)
	if err != nil {
		if errors.Is(err, tracker.ErrAlreadyCompleted) {
			return fmt.Errorf("%q is already completed; use 'habitguard reopen' first", item.Name)
		}
		return err
	}

	if item.IsTask() {
		fmt.Printf("Completed %q\n", item.Name)
	} else {
		fmt.Printf("Logged success for %q on %s\n", item.Name, day)
	}
	cli.PrintFired(os.Stdout, fired)
	return nil
}

type CancelCmd struct {
	Item string `arg:"" help:"Item name or id."`
	Date string `help:"Date in YYYY-MM-DD format (default: today)." default:""`
}

func (c *CancelCmd) Run(ctx *cli.Context) error {
	item, err := ctx.Tracker.Resolve(c.Item)
	if err != nil {
		return err
	}
	day, err := ctx.ResolveDay(c.Date)
	if err != nil {
		return err
	}

	if err := ctx.Tracker.CancelLog(item.ID, day); err != nil {
		return err
	}
	if item.IsTask() && item.IsCompleted() {
		fmt.Printf("Reopened %q; its rewards were withdrawn\n", item.Name)
	} else {
		fmt.Printf("Cancelled %q on %s\n", item.Name, day)
	}
	return nil
}

type ReopenCmd struct {
	Task string `arg:"" help:"Task name or id."`
}

func (c *ReopenCmd) Run(ctx *cli.Context) error {
	item, err := ctx.Tracker.Resolve(c.Task)
	if err != nil {
		return err
	}
	if err := ctx.Tracker.ReopenTask(item.ID); err != nil {
		return err
	}
	fmt.Printf("Reopened %q; its rewards were withdrawn\n", item.Name)
	return nil
}

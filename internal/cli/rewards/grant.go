package rewards

import (
	"fmt"

	"github.com/julianstephens/habitguard/internal/cli"
)

type GrantCmd struct {
	List   GrantListCmd   `cmd:"" help:"List unredeemed rewards." default:"1"`
	Redeem GrantRedeemCmd `cmd:"" help:"Redeem units of an earned reward."`
}

type GrantListCmd struct{}

func (c *GrantListCmd) Run(ctx *cli.Context) error {
	views, err := ctx.Tracker.ActiveGrants()
	if err != nil {
		return err
	}
	if len(views) == 0 {
		fmt.Println("No unredeemed rewards.")
		return nil
	}

	for _, v := range views {
		fmt.Printf("%s  %s ×%d  (%s, received %s)\n", v.Grant.ID, v.RewardName, v.Grant.Quantity, v.ItemName, v.Grant.DateReceived)
		if v.Description != "" {
			fmt.Printf("    %s\n", v.Description)
		}
	}
	return nil
}

type GrantRedeemCmd struct {
	ID       string `arg:"" help:"Grant id."`
	Quantity int    `help:"Units to redeem." default:"1" short:"n"`
	All      bool   `help:"Redeem every remaining unit."`
	Date     string `help:"Redemption date in YYYY-MM-DD format (default: today)." default:""`
}

func (c *GrantRedeemCmd) Run(ctx *cli.Context) error {
	day, err := ctx.ResolveDay(c.Date)
	if err != nil {
		return err
	}

	qty := c.Quantity
	if c.All {
		g, err := ctx.Store.GetGrant(c.ID)
		if err != nil {
			return err
		}
		qty = g.Quantity
	}

	g, err := ctx.Tracker.Redeem(c.ID, qty, day)
	if err != nil {
		return err
	}
	if g.Redeemed {
		fmt.Println("Reward fully redeemed. Enjoy!")
	} else {
		fmt.Printf("Redeemed %d; %d left\n", qty, g.Quantity)
	}
	return nil
}

package settings

import (
	"fmt"

	"github.com/julianstephens/habitguard/internal/cli"
	"github.com/julianstephens/habitguard/internal/models"
	"github.com/julianstephens/habitguard/internal/utils"
)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	Timezone   *string `help:"IANA timezone that defines 'today' (or 'Local')."`
	AutoBackup *bool   `help:"Snapshot the database when the TUI starts."`
}

// apply copies the requested changes onto s and reports whether anything changed
func (c *SettingsCmd) apply(s *models.Settings) (bool, error) {
	updated := false
	if c.Timezone != nil {
		if !utils.ValidateTimezone(*c.Timezone) {
			return false, fmt.Errorf("invalid timezone %q", *c.Timezone)
		}
		s.Timezone = *c.Timezone
		updated = true
	}
	if c.AutoBackup != nil {
		s.AutoBackup = *c.AutoBackup
		updated = true
	}
	return updated, nil
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if c.List {
		fmt.Println("Current Settings:")
		fmt.Printf("  Timezone:    %s\n", settings.Timezone)
		fmt.Printf("  Auto Backup: %v\n", settings.AutoBackup)
		return nil
	}

	updated, err := c.apply(&settings)
	if err != nil {
		return err
	}
	if !updated {
		fmt.Println("No changes specified. Use --list to view settings or flags to update them.")
		return nil
	}

	if err := ctx.Store.SaveSettings(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	fmt.Println("Settings updated successfully.")
	return nil
}

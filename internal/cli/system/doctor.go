package system

import (
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"

	"github.com/julianstephens/habitguard/internal/backup"
	"github.com/julianstephens/habitguard/internal/cli"
	"github.com/julianstephens/habitguard/internal/logger"
	"github.com/julianstephens/habitguard/internal/storage/sqlite"
	"github.com/julianstephens/habitguard/internal/utils"
)

type DoctorCmd struct {
	Fix bool `help:"Normalise task reward rules that have the wrong shape."`
}

// warningError marks a check whose failure is reported but not fatal
type warningError struct{ msg string }

func (w *warningError) Error() string { return w.msg }

func warning(format string, args ...interface{}) error {
	return &warningError{msg: fmt.Sprintf(format, args...)}
}

type check struct {
	name    string
	needsDB bool
	run     func(*cli.Context) error
}

var (
	okMark   = color.GreenString("✓")
	failMark = color.RedString("❌")
	warnMark = color.YellowString("⚠")
	skipMark = "⊘"
)

func (cmd *DoctorCmd) checks() []check {
	return []check{
		{name: "Schema version", needsDB: true, run: checkSchemaVersion},
		{name: "Migrations complete", needsDB: true, run: checkMigrationsComplete},
		{name: "Backups present", run: checkBackupsPresent},
		{name: "Data validation", needsDB: true, run: cmd.checkValidation},
		{name: "Clock/timezone", needsDB: true, run: checkClockTimezone},
	}
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	hasError := false

	dbReachable := true
	if err := checkDBReachable(ctx); err != nil {
		fmt.Printf("%s Database reachable: FAIL\n", failMark)
		fmt.Printf("   Error: %v\n", err)
		hasError = true
		dbReachable = false
	} else {
		fmt.Printf("%s Database reachable: OK\n", okMark)
	}

	for _, c := range cmd.checks() {
		if c.needsDB && !dbReachable {
			fmt.Printf("%s %s: SKIPPED (database not reachable)\n", skipMark, c.name)
			continue
		}
		err := c.run(ctx)
		var warn *warningError
		switch {
		case err == nil:
			fmt.Printf("%s %s: OK\n", okMark, c.name)
		case errors.As(err, &warn):
			fmt.Printf("%s %s: WARNING\n", warnMark, c.name)
			fmt.Printf("   %v\n", warn)
		default:
			fmt.Printf("%s %s: FAIL\n", failMark, c.name)
			fmt.Printf("   Error: %v\n", err)
			hasError = true
		}
	}

	if path := logger.Path(); path != "" {
		fmt.Printf("\nLog file: %s\n", path)
	}

	fmt.Println()
	if hasError {
		fmt.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	fmt.Println("All diagnostics passed!")
	return nil
}

func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	if s, ok := ctx.Store.(*sqlite.Store); ok {
		var result int
		if err := s.GetDB().QueryRow("SELECT 1").Scan(&result); err != nil {
			return fmt.Errorf("failed to query database: %w", err)
		}
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	current, err := ctx.Store.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}
	latest, err := ctx.Store.LatestSchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to get latest schema version: %w", err)
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	return nil
}

func checkMigrationsComplete(ctx *cli.Context) error {
	current, err := ctx.Store.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}
	latest, err := ctx.Store.LatestSchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to get latest schema version: %w", err)
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d", current, latest)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	if _, ok := ctx.Store.(*sqlite.Store); !ok {
		return nil
	}
	mgr := backup.NewManager(ctx.Store.GetConfigPath())
	backups, err := mgr.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return warning("no backups found - consider creating one with 'habitguard backup create'")
	}
	return nil
}

func (cmd *DoctorCmd) checkValidation(ctx *cli.Context) error {
	result, rules, err := ctx.Tracker.Validate()
	if err != nil {
		return fmt.Errorf("failed to validate data: %w", err)
	}
	if !result.HasConflicts() {
		return nil
	}

	if cmd.Fix {
		fixes := ctx.Tracker.FixTaskRules(result, rules)
		for _, f := range fixes {
			fmt.Printf("   fixed: %s\n", f.Action)
		}
		if result, _, err = ctx.Tracker.Validate(); err != nil {
			return fmt.Errorf("failed to revalidate data: %w", err)
		}
		if !result.HasConflicts() {
			return nil
		}
	}
	return fmt.Errorf("%s", result.FormatReport())
}

func checkClockTimezone(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}
	if !utils.ValidateTimezone(settings.Timezone) {
		return fmt.Errorf("configured timezone %q cannot be loaded", settings.Timezone)
	}
	now, err := utils.NowInTimezone(settings.Timezone)
	if err != nil {
		return err
	}
	if now.Year() < 2020 {
		return fmt.Errorf("system clock looks wrong: %s", now.Format(time.RFC3339))
	}
	return nil
}

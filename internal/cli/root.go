package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/julianstephens/habitguard/internal/backup"
	"github.com/julianstephens/habitguard/internal/constants"
	apperrors "github.com/julianstephens/habitguard/internal/errors"
	"github.com/julianstephens/habitguard/internal/logger"
	"github.com/julianstephens/habitguard/internal/rewards"
	"github.com/julianstephens/habitguard/internal/storage"
	"github.com/julianstephens/habitguard/internal/storage/sqlite"
	"github.com/julianstephens/habitguard/internal/tracker"
	"github.com/julianstephens/habitguard/internal/utils"
)

type Context struct {
	Store   storage.Provider
	Tracker *tracker.Service
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors.
// Only the SQLite backend has a file to snapshot.
func (c *Context) PerformAutomaticBackup() {
	if _, ok := c.Store.(*sqlite.Store); !ok {
		return
	}
	settings, err := c.Store.GetSettings()
	if err != nil {
		logger.Warn("Automatic backup skipped", "error", err)
		return
	}
	if !settings.AutoBackup {
		return
	}
	mgr := backup.NewManager(c.Store.GetConfigPath())
	if _, err := mgr.CreateBackup(); err != nil {
		// Log warning but don't interrupt user workflow
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// IsPostgres reports whether config names a PostgreSQL database rather than
// a SQLite file.
func IsPostgres(config string) bool {
	return strings.HasPrefix(config, "postgres://") ||
		strings.HasPrefix(config, "postgresql://") ||
		strings.Contains(config, "host=")
}

// ResolveDay returns date when set, otherwise today in the configured timezone
func (c *Context) ResolveDay(date string) (string, error) {
	if date == "" {
		return c.Tracker.Today()
	}
	if err := utils.ValidateDay(date); err != nil {
		return "", apperrors.Invalid("%v", err)
	}
	return date, nil
}

var (
	rewardColor = color.New(color.FgGreen, color.Bold)
	mutedColor  = color.New(color.Faint)
)

// PrintFired announces rewards earned by a log action
func PrintFired(w io.Writer, fired []rewards.Fired) {
	for _, f := range fired {
		rewardColor.Fprintf(w, "🎁 Reward earned: %s", f.Name)
		if f.QuantityGranted > 1 {
			rewardColor.Fprintf(w, " ×%d", f.QuantityGranted)
		}
		fmt.Fprintln(w)
	}
}

// Muted prints secondary information
func Muted(w io.Writer, format string, args ...interface{}) {
	mutedColor.Fprintf(w, format, args...)
}

// ParseRewardSpec parses NAME:KIND:REQUIREMENT[:QUANTITY], e.g. "Coffee:recurring:7:2".
// Quantity defaults to 1.
func ParseRewardSpec(spec string) (tracker.NewRule, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 3 || len(parts) > 4 {
		return tracker.NewRule{}, apperrors.Invalid("reward %q must look like NAME:KIND:REQUIREMENT[:QUANTITY]", spec)
	}

	kind, err := ParseRewardKind(parts[1])
	if err != nil {
		return tracker.NewRule{}, err
	}
	req, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return tracker.NewRule{}, apperrors.Invalid("reward %q: requirement must be a number", spec)
	}
	qty := 1
	if len(parts) == 4 {
		if qty, err = strconv.Atoi(strings.TrimSpace(parts[3])); err != nil {
			return tracker.NewRule{}, apperrors.Invalid("reward %q: quantity must be a number", spec)
		}
	}

	return tracker.NewRule{
		Name:        strings.TrimSpace(parts[0]),
		Kind:        kind,
		Requirement: req,
		Quantity:    qty,
	}, nil
}

// ParseRewardKind accepts "one-time"/"once" and "recurring"/"every"
func ParseRewardKind(s string) (constants.RewardKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "one-time", "onetime", "once":
		return constants.RewardOneTime, nil
	case "recurring", "every":
		return constants.RewardRecurring, nil
	}
	return "", apperrors.Invalid("unknown reward kind %q (expected one-time or recurring)", s)
}

// ParseItemKind accepts "habit" and "task"
func ParseItemKind(s string) (constants.ItemKind, error) {
	switch constants.ItemKind(strings.ToLower(strings.TrimSpace(s))) {
	case constants.ItemKindHabit:
		return constants.ItemKindHabit, nil
	case constants.ItemKindTask:
		return constants.ItemKindTask, nil
	}
	return "", apperrors.Invalid("unknown item kind %q (expected habit or task)", s)
}

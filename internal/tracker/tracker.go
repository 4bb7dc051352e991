// Package tracker implements the user-facing actions on items, logs and
// rewards. Every mutating action runs as one storage transaction.
package tracker

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitguard/internal/constants"
	apperrors "github.com/julianstephens/habitguard/internal/errors"
	"github.com/julianstephens/habitguard/internal/logger"
	"github.com/julianstephens/habitguard/internal/models"
	"github.com/julianstephens/habitguard/internal/progress"
	"github.com/julianstephens/habitguard/internal/rewards"
	"github.com/julianstephens/habitguard/internal/storage"
	"github.com/julianstephens/habitguard/internal/utils"
	"github.com/julianstephens/habitguard/internal/validation"
)

var (
	ErrAlreadyCompleted = errors.New("task is already completed")
	ErrItemArchived     = errors.New("item is archived")
	ErrNotATask         = errors.New("item is not a task")
	ErrNotCompleted     = errors.New("task is not completed")
)

type Service struct {
	store storage.Provider
	now   func() time.Time
}

func New(store storage.Provider) *Service {
	return &Service{store: store, now: time.Now}
}

// localNow returns the current time in the configured timezone. It reads
// settings, so call it outside WithTx.
func (s *Service) localNow() (time.Time, error) {
	settings, err := s.store.GetSettings()
	if err != nil {
		return time.Time{}, err
	}
	loc, err := utils.LoadLocation(settings.Timezone)
	if err != nil {
		return time.Time{}, err
	}
	return s.now().In(loc), nil
}

// Today returns the current calendar day in the configured timezone
func (s *Service) Today() (string, error) {
	now, err := s.localNow()
	if err != nil {
		return "", err
	}
	return utils.FormatDay(now), nil
}

// Resolve finds an item by id, falling back to its name
func (s *Service) Resolve(ref string) (models.Item, error) {
	item, err := s.store.GetItem(ref)
	if err == nil || !apperrors.IsNotFound(err) {
		return item, err
	}
	return s.store.GetItemByName(strings.TrimSpace(ref))
}

// NewRule describes a reward rule to attach to an item
type NewRule struct {
	Name        string
	Description string
	Kind        constants.RewardKind
	Requirement int
	Quantity    int
}

// NewItem describes an item to create together with its initial rules
type NewItem struct {
	Name     string
	Kind     constants.ItemKind
	Polarity constants.Polarity
	Priority int
	Rules    []NewRule
}

func (s *Service) buildRule(itemID string, kind constants.ItemKind, nr NewRule, now time.Time) (models.RewardRule, error) {
	quantity := nr.Quantity
	if quantity == 0 {
		quantity = 1
	}
	rule := validation.NormalizeRule(models.RewardRule{
		ID:          uuid.New().String(),
		ItemID:      itemID,
		Name:        strings.TrimSpace(nr.Name),
		Description: strings.TrimSpace(nr.Description),
		Kind:        nr.Kind,
		Requirement: nr.Requirement,
		Quantity:    quantity,
		Enabled:     true,
		CreatedAt:   now,
		ValidFrom:   now,
	}, kind)
	if err := validation.ValidateRule(rule); err != nil {
		return models.RewardRule{}, err
	}
	return rule, nil
}

// AddItem validates and stores a new item with its initial reward rules
func (s *Service) AddItem(ni NewItem) (models.Item, error) {
	now, err := s.localNow()
	if err != nil {
		return models.Item{}, err
	}
	polarity := ni.Polarity
	if polarity == "" {
		polarity = constants.PolarityGood
	}
	item := models.Item{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(ni.Name),
		Kind:      ni.Kind,
		Polarity:  polarity,
		Priority:  ni.Priority,
		CreatedAt: now,
	}
	if err := validation.ValidateItem(item); err != nil {
		return models.Item{}, err
	}

	rules := make([]models.RewardRule, 0, len(ni.Rules))
	for _, nr := range ni.Rules {
		rule, err := s.buildRule(item.ID, item.Kind, nr, now)
		if err != nil {
			return models.Item{}, err
		}
		rules = append(rules, rule)
	}

	err = s.store.WithTx(func(tx storage.Tx) error {
		if _, err := tx.GetItemByName(item.Name); err == nil {
			return apperrors.Invalid("an item named %q already exists", item.Name)
		} else if !apperrors.IsNotFound(err) {
			return err
		}
		if err := tx.AddItem(item); err != nil {
			return err
		}
		for _, rule := range rules {
			if err := tx.AddRule(rule); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.Item{}, err
	}

	logger.Info("Item added", "id", item.ID, "name", item.Name, "kind", item.Kind, "rules", len(rules))
	return item, nil
}

func (s *Service) loggableItem(tx storage.Tx, itemID string) (models.Item, error) {
	item, err := tx.GetItem(itemID)
	if err != nil {
		return models.Item{}, err
	}
	if item.IsArchived() {
		return models.Item{}, ErrItemArchived
	}
	if item.IsCompleted() {
		return models.Item{}, ErrAlreadyCompleted
	}
	return item, nil
}

// LogSuccess records a success for day and applies any rewards it earns.
// Relogging a habit day that is already a success changes only the note, so
// the same day never fires rewards twice. A reopened task recompleted on the
// same day is a new completion and is evaluated again.
func (s *Service) LogSuccess(itemID, day, note string) ([]rewards.Fired, error) {
	if err := utils.ValidateDay(day); err != nil {
		return nil, apperrors.Invalid("%v", err)
	}

	var fired []rewards.Fired
	err := s.store.WithTx(func(tx storage.Tx) error {
		item, err := s.loggableItem(tx, itemID)
		if err != nil {
			return err
		}

		now := s.now()
		entry := models.LogEntry{ItemID: item.ID, Day: day, Outcome: constants.OutcomeSuccess, Note: note, CreatedAt: now, UpdatedAt: now}
		alreadySuccess := false
		if prev, err := tx.GetEntry(item.ID, day); err == nil {
			entry.CreatedAt = prev.CreatedAt
			alreadySuccess = prev.Success()
		} else if !apperrors.IsNotFound(err) {
			return err
		}

		if err := tx.UpsertEntry(entry); err != nil {
			return err
		}

		if item.IsTask() {
			item.CompletedAt = &now
			if err := tx.UpdateItem(item); err != nil {
				return err
			}
		}

		if alreadySuccess && !item.IsTask() {
			return nil
		}

		entries, err := tx.ListEntries(item.ID)
		if err != nil {
			return err
		}
		rules, err := tx.ListRules(item.ID, false)
		if err != nil {
			return err
		}

		prog := make(map[string]int, len(rules))
		for _, rule := range rules {
			prog[rule.ID] = progress.ComputeProgress(entries, rule, item.Kind, day)
		}

		fired, err = rewards.NewEngine(tx).EvaluateAndApply(item, prog, rules, day)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("Logged success", "item", itemID, "day", day, "fired", len(fired))
	return fired, nil
}

// LogSlip records a slip for day. A slip over a success clears the rewards
// received on that day.
func (s *Service) LogSlip(itemID, day, note string) error {
	if err := utils.ValidateDay(day); err != nil {
		return apperrors.Invalid("%v", err)
	}

	return s.store.WithTx(func(tx storage.Tx) error {
		item, err := s.loggableItem(tx, itemID)
		if err != nil {
			return err
		}

		now := s.now()
		entry := models.LogEntry{ItemID: item.ID, Day: day, Outcome: constants.OutcomeSlip, Note: note, CreatedAt: now, UpdatedAt: now}
		if prev, err := tx.GetEntry(item.ID, day); err == nil {
			entry.CreatedAt = prev.CreatedAt
			if prev.Success() {
				if err := withdrawDay(tx, item, day); err != nil {
					return err
				}
			}
		} else if !apperrors.IsNotFound(err) {
			return err
		}

		return tx.UpsertEntry(entry)
	})
}

// CancelLog retracts an action. For a habit the day's entry is removed and
// the rewards that success earned are taken back. A completed task is
// reopened; any other task entry is simply removed.
func (s *Service) CancelLog(itemID, day string) error {
	item, err := s.store.GetItem(itemID)
	if err != nil {
		return err
	}
	if item.IsTask() && item.IsCompleted() {
		return s.ReopenTask(itemID)
	}
	if err := utils.ValidateDay(day); err != nil {
		return apperrors.Invalid("%v", err)
	}

	return s.store.WithTx(func(tx storage.Tx) error {
		entry, err := tx.GetEntry(item.ID, day)
		if err != nil {
			return err
		}
		if entry.Success() {
			if err := withdrawDay(tx, item, day); err != nil {
				return err
			}
		}
		return tx.DeleteEntry(item.ID, day)
	})
}

// withdrawDay takes back the rewards the success logged on day earned. It
// must run while that entry is still stored. Recurring rules that were due
// on day give back one firing; a one-time rule whose active grant was
// received on day loses it and is enabled again, so relogging restores it.
func withdrawDay(tx storage.Tx, item models.Item, day string) error {
	entries, err := tx.ListEntries(item.ID)
	if err != nil {
		return err
	}
	rules, err := tx.ListRules(item.ID, true)
	if err != nil {
		return err
	}

	for _, rule := range rules {
		if rule.IsRecurring() {
			if !rewards.Eligible(rule, item.Kind, progress.ComputeProgress(entries, rule, item.Kind, day)) {
				continue
			}
			if err := tx.WithdrawGrant(rule.ID, rule.Quantity); err != nil && !apperrors.IsNotFound(err) {
				return err
			}
			continue
		}

		g, err := tx.FindActiveGrant(rule.ID)
		if apperrors.IsNotFound(err) {
			continue
		} else if err != nil {
			return err
		}
		if g.DateReceived != day {
			continue
		}
		if err := tx.WithdrawGrant(rule.ID, g.Quantity); err != nil {
			return err
		}
		if !rule.Enabled {
			rule.Enabled = true
			if err := tx.UpdateRule(rule); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReopenTask clears a task's completion and every grant it earned. Its log
// history stays, so progress keeps counting lifetime completions.
func (s *Service) ReopenTask(itemID string) error {
	return s.store.WithTx(func(tx storage.Tx) error {
		item, err := tx.GetItem(itemID)
		if err != nil {
			return err
		}
		if !item.IsTask() {
			return ErrNotATask
		}
		if !item.IsCompleted() {
			return ErrNotCompleted
		}

		item.CompletedAt = nil
		if err := tx.UpdateItem(item); err != nil {
			return err
		}
		return tx.DeleteGrantsForItem(item.ID)
	})
}

// AddRule attaches a new reward rule to an item, active from now
func (s *Service) AddRule(itemID string, nr NewRule) (models.RewardRule, error) {
	now, err := s.localNow()
	if err != nil {
		return models.RewardRule{}, err
	}

	var rule models.RewardRule
	err = s.store.WithTx(func(tx storage.Tx) error {
		item, err := tx.GetItem(itemID)
		if err != nil {
			return err
		}
		rule, err = s.buildRule(item.ID, item.Kind, nr, now)
		if err != nil {
			return err
		}
		return tx.AddRule(rule)
	})
	return rule, err
}

// RuleUpdate carries the editable rule attributes; nil fields stay unchanged
type RuleUpdate struct {
	Name        *string
	Description *string
	Kind        *constants.RewardKind
	Requirement *int
	Quantity    *int
}

func (s *Service) UpdateRule(ruleID string, upd RuleUpdate) (models.RewardRule, error) {
	var rule models.RewardRule
	err := s.store.WithTx(func(tx storage.Tx) error {
		var err error
		rule, err = tx.GetRule(ruleID)
		if err != nil {
			return err
		}
		item, err := tx.GetItem(rule.ItemID)
		if err != nil {
			return err
		}

		if upd.Name != nil {
			rule.Name = strings.TrimSpace(*upd.Name)
		}
		if upd.Description != nil {
			rule.Description = strings.TrimSpace(*upd.Description)
		}
		if upd.Kind != nil {
			rule.Kind = *upd.Kind
		}
		if upd.Requirement != nil {
			rule.Requirement = *upd.Requirement
		}
		if upd.Quantity != nil {
			rule.Quantity = *upd.Quantity
		}
		rule = validation.NormalizeRule(rule, item.Kind)
		if err := validation.ValidateRule(rule); err != nil {
			return err
		}
		return tx.UpdateRule(rule)
	})
	return rule, err
}

// RemoveRule disables a rule. It is kept for the grant history.
func (s *Service) RemoveRule(ruleID string) error {
	return s.store.WithTx(func(tx storage.Tx) error {
		return tx.DisableRule(ruleID)
	})
}

func (s *Service) ListRules(itemID string, includeDisabled bool) ([]models.RewardRule, error) {
	return s.store.ListRules(itemID, includeDisabled)
}

func (s *Service) DeleteItem(itemID string) error {
	return s.store.WithTx(func(tx storage.Tx) error {
		return tx.DeleteItem(itemID)
	})
}

func (s *Service) ArchiveItem(itemID string) error {
	return s.store.WithTx(func(tx storage.Tx) error {
		return tx.ArchiveItem(itemID)
	})
}

func (s *Service) UnarchiveItem(itemID string) error {
	return s.store.WithTx(func(tx storage.Tx) error {
		return tx.UnarchiveItem(itemID)
	})
}

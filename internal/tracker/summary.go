package tracker

import (
	"fmt"

	"github.com/julianstephens/habitguard/internal/constants"
	apperrors "github.com/julianstephens/habitguard/internal/errors"
	"github.com/julianstephens/habitguard/internal/logger"
	"github.com/julianstephens/habitguard/internal/models"
	"github.com/julianstephens/habitguard/internal/progress"
	"github.com/julianstephens/habitguard/internal/storage"
	"github.com/julianstephens/habitguard/internal/utils"
	"github.com/julianstephens/habitguard/internal/validation"
)

// RuleProgress is an enabled rule with its progress as of a summary's day
type RuleProgress struct {
	Rule      models.RewardRule `json:"rule"`
	Progress  int               `json:"progress"`
	Remaining int               `json:"remaining"`
}

// ItemSummary is the per-item view shown in listings
type ItemSummary struct {
	Item   models.Item        `json:"item"`
	Streak progress.Streak    `json:"streak"`
	Today  *constants.Outcome `json:"today,omitempty"` // nil when nothing is logged
	Total  int                `json:"total_successes"`
	Rules  []RuleProgress     `json:"rules"`
}

// NextReward returns the enabled rule closest to firing, if any
func (s ItemSummary) NextReward() (RuleProgress, bool) {
	var best RuleProgress
	found := false
	for _, rp := range s.Rules {
		if !found || rp.Remaining < best.Remaining {
			best, found = rp, true
		}
	}
	return best, found
}

// StatusMark renders today's outcome: ✓ success, ✗ slip, ○ nothing logged
func (s ItemSummary) StatusMark() string {
	switch {
	case s.Today == nil:
		return "○"
	case *s.Today == constants.OutcomeSuccess:
		return "✓"
	default:
		return "✗"
	}
}

// NextRewardLabel describes how far the item is from its closest reward
func (s ItemSummary) NextRewardLabel() string {
	rp, ok := s.NextReward()
	if !ok {
		return "no rewards"
	}
	if rp.Remaining == 0 {
		return rp.Rule.Name + ": earned"
	}
	return fmt.Sprintf("%s in %d", rp.Rule.Name, rp.Remaining)
}

// Summaries builds the listing for every item as of today.
//
// Rule progress is shown as of today when today is already a success and as
// of yesterday otherwise, matching the reference day used for the current
// streak.
func (s *Service) Summaries(today string, includeArchived bool) ([]ItemSummary, error) {
	if err := utils.ValidateDay(today); err != nil {
		return nil, apperrors.Invalid("%v", err)
	}

	items, err := s.store.ListItems(includeArchived)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}

	entries, err := s.store.ListEntriesForItems(ids)
	if err != nil {
		return nil, err
	}
	rules, err := s.store.ListRulesForItems(ids, false)
	if err != nil {
		return nil, err
	}
	entriesByItem := models.GroupEntries(entries)
	rulesByItem := models.GroupRules(rules)

	yesterday, err := utils.AddDays(today, -1)
	if err != nil {
		return nil, err
	}

	summaries := make([]ItemSummary, 0, len(items))
	for _, item := range items {
		itemEntries := entriesByItem[item.ID]
		logMap := models.LogMap(itemEntries)

		sum := ItemSummary{
			Item:   item,
			Streak: progress.ComputeStreak(logMap, today),
			Rules:  []RuleProgress{},
		}
		for _, e := range itemEntries {
			if e.Success() {
				sum.Total++
			}
			if e.Day == today {
				outcome := e.Outcome
				sum.Today = &outcome
			}
		}

		asOf := yesterday
		if logMap[today] {
			asOf = today
		}
		for _, rule := range rulesByItem[item.ID] {
			p := progress.ComputeProgress(itemEntries, rule, item.Kind, asOf)
			sum.Rules = append(sum.Rules, RuleProgress{
				Rule:      rule,
				Progress:  p,
				Remaining: progress.Remaining(rule, p),
			})
		}
		summaries = append(summaries, sum)
	}
	return summaries, nil
}

// Summary builds the listing entry for a single item
func (s *Service) Summary(itemID, today string) (ItemSummary, error) {
	item, err := s.store.GetItem(itemID)
	if err != nil {
		return ItemSummary{}, err
	}
	all, err := s.Summaries(today, item.IsArchived())
	if err != nil {
		return ItemSummary{}, err
	}
	for _, sum := range all {
		if sum.Item.ID == item.ID {
			return sum, nil
		}
	}
	return ItemSummary{}, apperrors.NotFound("item", itemID)
}

// GrantView is an active grant joined with its rule and item
type GrantView struct {
	Grant       models.RewardGrant   `json:"grant"`
	RewardName  string               `json:"reward_name"`
	Description string               `json:"description"`
	Kind        constants.RewardKind `json:"kind"`
	ItemName    string               `json:"item_name"`
}

const unknownReward = "Unknown reward"

// ActiveGrants lists unredeemed grants, newest first
func (s *Service) ActiveGrants() ([]GrantView, error) {
	grants, err := s.store.ListActiveGrants()
	if err != nil {
		return nil, err
	}

	views := make([]GrantView, 0, len(grants))
	for _, g := range grants {
		v := GrantView{Grant: g, RewardName: unknownReward}
		if rule, err := s.store.GetRule(g.RuleID); err == nil {
			v.RewardName = rule.Name
			v.Description = rule.Description
			v.Kind = rule.Kind
		} else if !apperrors.IsNotFound(err) {
			return nil, err
		}
		if item, err := s.store.GetItem(g.ItemID); err == nil {
			v.ItemName = item.Name
		} else if !apperrors.IsNotFound(err) {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

// Redeem takes quantity units off a grant. Asking for at least what remains
// redeems the grant in full.
func (s *Service) Redeem(grantID string, quantity int, day string) (models.RewardGrant, error) {
	if quantity <= 0 {
		return models.RewardGrant{}, apperrors.Invalid("redeem quantity must be positive, got %d", quantity)
	}
	if err := utils.ValidateDay(day); err != nil {
		return models.RewardGrant{}, apperrors.Invalid("%v", err)
	}

	var out models.RewardGrant
	err := s.store.WithTx(func(tx storage.Tx) error {
		g, err := tx.GetGrant(grantID)
		if err != nil {
			return err
		}
		if g.Redeemed {
			return apperrors.NotFound("active grant", grantID)
		}

		if quantity >= g.Quantity {
			err = tx.RedeemGrant(g.ID, day)
		} else {
			err = tx.RedeemGrantPartial(g.ID, quantity, day)
		}
		if err != nil {
			return err
		}
		out, err = tx.GetGrant(g.ID)
		return err
	})
	if err != nil {
		return models.RewardGrant{}, err
	}

	logger.Info("Reward redeemed", "grant", grantID, "quantity", quantity, "remaining", out.Quantity)
	return out, nil
}

// Validate audits the stored data for inconsistencies
func (s *Service) Validate() (validation.ValidationResult, []models.RewardRule, error) {
	items, err := s.store.ListItems(true)
	if err != nil {
		return validation.ValidationResult{}, nil, err
	}
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	rules, err := s.store.ListRulesForItems(ids, true)
	if err != nil {
		return validation.ValidationResult{}, nil, err
	}
	grants, err := s.store.ListActiveGrants()
	if err != nil {
		return validation.ValidationResult{}, nil, err
	}
	entries, err := s.store.ListEntriesForItems(ids)
	if err != nil {
		return validation.ValidationResult{}, nil, err
	}
	return validation.New().ValidateData(items, rules, grants, entries), rules, nil
}

// FixTaskRules applies the task rule auto-fix for the given conflicts
func (s *Service) FixTaskRules(result validation.ValidationResult, rules []models.RewardRule) []validation.FixAction {
	return validation.AutoFixTaskRules(result.Conflicts, rules, func(r models.RewardRule) error {
		return s.store.WithTx(func(tx storage.Tx) error { return tx.UpdateRule(r) })
	})
}

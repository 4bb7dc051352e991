package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/julianstephens/habitguard/internal/constants"
	apperrors "github.com/julianstephens/habitguard/internal/errors"
	"github.com/julianstephens/habitguard/internal/models"
	"github.com/julianstephens/habitguard/internal/utils"
)

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictDuplicateItemName   ConflictType = "duplicate_item_name"
	ConflictInvalidRule         ConflictType = "invalid_rule"
	ConflictTaskRuleShape       ConflictType = "task_rule_shape"
	ConflictOrphanRule          ConflictType = "orphan_rule"
	ConflictMultipleActiveGrant ConflictType = "multiple_active_grants"
	ConflictInvalidDate         ConflictType = "invalid_date"
)

// Conflict represents a detected inconsistency in stored data
type Conflict struct {
	Type        ConflictType
	Description string
	Items       []string // item names involved
	RuleIDs     []string // rules involved (for auto-fixing)
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// FixAction represents an action taken during auto-fix
type FixAction struct {
	Action         string
	SourceConflict Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, conflict := range vr.Conflicts {
		fmt.Fprintf(&b, "- %s\n", conflict.Description)
	}
	return b.String()
}

// ValidateItem checks a new or edited item before it is stored
func ValidateItem(item models.Item) error {
	if strings.TrimSpace(item.Name) == "" {
		return apperrors.Invalid("item name cannot be empty")
	}
	switch item.Kind {
	case constants.ItemKindHabit, constants.ItemKindTask:
	default:
		return apperrors.Invalid("unknown item kind %q (expected habit or task)", item.Kind)
	}
	switch item.Polarity {
	case constants.PolarityGood, constants.PolarityBad:
	default:
		return apperrors.Invalid("unknown polarity %q (expected good or bad)", item.Polarity)
	}
	if item.Priority < constants.MinPriority || item.Priority > constants.MaxPriority {
		return apperrors.Invalid("priority must be between %d and %d, got %d", constants.MinPriority, constants.MaxPriority, item.Priority)
	}
	return nil
}

// ValidateRule checks a reward rule before it is stored. A rule that can
// never fire is rejected here; the engine ignores any that slip through.
func ValidateRule(rule models.RewardRule) error {
	if strings.TrimSpace(rule.Name) == "" {
		return apperrors.Invalid("reward name cannot be empty")
	}
	switch rule.Kind {
	case constants.RewardOneTime, constants.RewardRecurring:
	default:
		return apperrors.Invalid("unknown reward kind %q (expected one-time or recurring)", rule.Kind)
	}
	if rule.Requirement <= 0 {
		return apperrors.Invalid("requirement must be positive, got %d", rule.Requirement)
	}
	if rule.Quantity <= 0 {
		return apperrors.Invalid("quantity must be positive, got %d", rule.Quantity)
	}
	return nil
}

// NormalizeRule forces the only rule shape a task supports: one-time with a
// requirement of one completion.
func NormalizeRule(rule models.RewardRule, kind constants.ItemKind) models.RewardRule {
	if kind == constants.ItemKindTask {
		rule.Kind = constants.RewardOneTime
		rule.Requirement = 1
	}
	return rule
}

// Validator audits a whole data set for inconsistencies
type Validator struct{}

// New creates a new Validator
func New() *Validator {
	return &Validator{}
}

// ValidateData checks items, rules, active grants and log entries together
func (v *Validator) ValidateData(items []models.Item, rules []models.RewardRule, grants []models.RewardGrant, entries []models.LogEntry) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	byID := make(map[string]models.Item, len(items))
	nameCount := make(map[string][]string)
	for _, item := range items {
		byID[item.ID] = item
		key := strings.ToLower(strings.TrimSpace(item.Name))
		if key == "" {
			continue
		}
		nameCount[key] = append(nameCount[key], item.Name)
	}

	names := make([]string, 0, len(nameCount))
	for key := range nameCount {
		names = append(names, key)
	}
	sort.Strings(names)
	for _, key := range names {
		if same := nameCount[key]; len(same) > 1 {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictDuplicateItemName,
				Description: fmt.Sprintf("Item names differ only by case: %v", same),
				Items:       same,
			})
		}
	}

	for _, rule := range rules {
		item, ok := byID[rule.ItemID]
		if !ok {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictOrphanRule,
				Description: fmt.Sprintf("Reward \"%s\" belongs to a missing item %s", rule.Name, rule.ItemID),
				RuleIDs:     []string{rule.ID},
			})
			continue
		}
		if err := ValidateRule(rule); err != nil && rule.Enabled {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictInvalidRule,
				Description: fmt.Sprintf("Reward \"%s\" on \"%s\" can never fire: %v", rule.Name, item.Name, err),
				Items:       []string{item.Name},
				RuleIDs:     []string{rule.ID},
			})
		}
		if item.IsTask() && (rule.Kind != constants.RewardOneTime || rule.Requirement != 1) {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictTaskRuleShape,
				Description: fmt.Sprintf("Reward \"%s\" on task \"%s\" must be one-time with requirement 1", rule.Name, item.Name),
				Items:       []string{item.Name},
				RuleIDs:     []string{rule.ID},
			})
		}
	}

	activePerRule := make(map[string]int)
	for _, g := range grants {
		if !g.Redeemed {
			activePerRule[g.RuleID]++
		}
	}
	for ruleID, n := range activePerRule {
		if n > 1 {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictMultipleActiveGrant,
				Description: fmt.Sprintf("Reward rule %s has %d active grants", ruleID, n),
				RuleIDs:     []string{ruleID},
			})
		}
	}

	for _, e := range entries {
		if err := utils.ValidateDay(e.Day); err != nil {
			name := e.ItemID
			if item, ok := byID[e.ItemID]; ok {
				name = item.Name
			}
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictInvalidDate,
				Description: fmt.Sprintf("Log entry for \"%s\" has %v", name, err),
				Items:       []string{name},
			})
		}
	}

	return result
}

// AutoFixTaskRules rewrites task rules into the one-time, requirement 1 shape
func AutoFixTaskRules(conflicts []Conflict, rules []models.RewardRule, updateFunc func(models.RewardRule) error) []FixAction {
	var actions []FixAction

	byID := make(map[string]models.RewardRule, len(rules))
	for _, r := range rules {
		byID[r.ID] = r
	}

	for _, conflict := range conflicts {
		if conflict.Type != ConflictTaskRuleShape {
			continue
		}
		for _, id := range conflict.RuleIDs {
			rule, ok := byID[id]
			if !ok {
				continue
			}
			fixed := NormalizeRule(rule, constants.ItemKindTask)
			if err := updateFunc(fixed); err != nil {
				actions = append(actions, FixAction{
					Action:         fmt.Sprintf("Failed to fix reward \"%s\": %v", rule.Name, err),
					SourceConflict: conflict,
				})
				continue
			}
			actions = append(actions, FixAction{
				Action:         fmt.Sprintf("Reset reward \"%s\" to one-time, requirement 1", rule.Name),
				SourceConflict: conflict,
			})
		}
	}

	return actions
}

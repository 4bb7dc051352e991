package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/julianstephens/habitguard/internal/constants"
	apperrors "github.com/julianstephens/habitguard/internal/errors"
	"github.com/julianstephens/habitguard/internal/models"
)

func TestValidateItem(t *testing.T) {
	valid := models.Item{Name: "Walk", Kind: constants.ItemKindHabit, Polarity: constants.PolarityGood, Priority: 2}

	tests := []struct {
		name    string
		mutate  func(*models.Item)
		wantErr bool
	}{
		{"valid habit", func(*models.Item) {}, false},
		{"empty name", func(i *models.Item) { i.Name = "  " }, true},
		{"unknown kind", func(i *models.Item) { i.Kind = "chore" }, true},
		{"unknown polarity", func(i *models.Item) { i.Polarity = "neutral" }, true},
		{"priority too high", func(i *models.Item) { i.Priority = constants.MaxPriority + 1 }, true},
		{"negative priority", func(i *models.Item) { i.Priority = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := valid
			tt.mutate(&item)
			err := ValidateItem(item)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateItem() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, apperrors.ErrInvalidConfiguration) {
				t.Errorf("expected invalid configuration, got %v", err)
			}
		})
	}
}

func TestValidateRule(t *testing.T) {
	valid := models.RewardRule{Name: "Movie night", Kind: constants.RewardRecurring, Requirement: 7, Quantity: 1}

	tests := []struct {
		name    string
		mutate  func(*models.RewardRule)
		wantErr bool
	}{
		{"valid", func(*models.RewardRule) {}, false},
		{"zero requirement", func(r *models.RewardRule) { r.Requirement = 0 }, true},
		{"negative quantity", func(r *models.RewardRule) { r.Quantity = -1 }, true},
		{"unknown kind", func(r *models.RewardRule) { r.Kind = "weekly" }, true},
		{"empty name", func(r *models.RewardRule) { r.Name = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := valid
			tt.mutate(&rule)
			if err := ValidateRule(rule); (err != nil) != tt.wantErr {
				t.Errorf("ValidateRule() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeRule(t *testing.T) {
	rule := models.RewardRule{Kind: constants.RewardRecurring, Requirement: 5}

	task := NormalizeRule(rule, constants.ItemKindTask)
	if task.Kind != constants.RewardOneTime || task.Requirement != 1 {
		t.Errorf("expected task rule to be one-time/1, got %s/%d", task.Kind, task.Requirement)
	}

	habit := NormalizeRule(rule, constants.ItemKindHabit)
	if habit.Kind != constants.RewardRecurring || habit.Requirement != 5 {
		t.Errorf("expected habit rule unchanged, got %s/%d", habit.Kind, habit.Requirement)
	}
}

func TestValidateData(t *testing.T) {
	items := []models.Item{
		{ID: "h1", Name: "Walk", Kind: constants.ItemKindHabit},
		{ID: "h2", Name: "walk", Kind: constants.ItemKindHabit},
		{ID: "t1", Name: "Taxes", Kind: constants.ItemKindTask},
	}
	rules := []models.RewardRule{
		{ID: "r1", ItemID: "h1", Name: "ok", Kind: constants.RewardRecurring, Requirement: 7, Quantity: 1, Enabled: true},
		{ID: "r2", ItemID: "h1", Name: "broken", Kind: constants.RewardOneTime, Requirement: 0, Quantity: 1, Enabled: true},
		{ID: "r3", ItemID: "t1", Name: "treat", Kind: constants.RewardRecurring, Requirement: 3, Quantity: 1, Enabled: true},
		{ID: "r4", ItemID: "gone", Name: "orphan", Kind: constants.RewardOneTime, Requirement: 1, Quantity: 1, Enabled: true},
	}
	grants := []models.RewardGrant{
		{ID: "g1", RuleID: "r1", Quantity: 1},
		{ID: "g2", RuleID: "r1", Quantity: 2},
		{ID: "g3", RuleID: "r1", Redeemed: true},
	}
	entries := []models.LogEntry{
		{ItemID: "h1", Day: "2024-03-01"},
		{ItemID: "h1", Day: "03/02/2024"},
	}

	result := New().ValidateData(items, rules, grants, entries)

	counts := make(map[ConflictType]int)
	for _, c := range result.Conflicts {
		counts[c.Type]++
	}
	expected := map[ConflictType]int{
		ConflictDuplicateItemName:   1,
		ConflictInvalidRule:         1,
		ConflictTaskRuleShape:       1,
		ConflictOrphanRule:          1,
		ConflictMultipleActiveGrant: 1,
		ConflictInvalidDate:         1,
	}
	for typ, n := range expected {
		if counts[typ] != n {
			t.Errorf("expected %d %s conflict(s), got %d\n%s", n, typ, counts[typ], result.FormatReport())
		}
	}

	t.Run("auto fix task rules", func(t *testing.T) {
		var updated []models.RewardRule
		actions := AutoFixTaskRules(result.Conflicts, rules, func(r models.RewardRule) error {
			updated = append(updated, r)
			return nil
		})
		if len(actions) != 1 || len(updated) != 1 {
			t.Fatalf("expected one fix, got %d actions", len(actions))
		}
		if updated[0].ID != "r3" || updated[0].Kind != constants.RewardOneTime || updated[0].Requirement != 1 {
			t.Errorf("unexpected fixed rule %+v", updated[0])
		}
		if !strings.Contains(actions[0].Action, "treat") {
			t.Errorf("unexpected action %q", actions[0].Action)
		}
	})
}

func TestFormatReportEmpty(t *testing.T) {
	result := New().ValidateData(nil, nil, nil, nil)
	if result.FormatReport() != "No conflicts detected." {
		t.Errorf("unexpected report %q", result.FormatReport())
	}
}

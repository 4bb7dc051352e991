package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/julianstephens/habitguard/internal/constants"
	"github.com/julianstephens/habitguard/internal/models"
	"github.com/julianstephens/habitguard/internal/utils"
)

func successes(t *testing.T, from string, n int) []models.LogEntry {
	t.Helper()
	entries := make([]models.LogEntry, 0, n)
	for i := 0; i < n; i++ {
		day, err := utils.AddDays(from, i)
		if err != nil {
			t.Fatalf("AddDays: %v", err)
		}
		entries = append(entries, models.LogEntry{ItemID: "item", Day: day, Outcome: constants.OutcomeSuccess})
	}
	return entries
}

func ruleFrom(day string, kind constants.RewardKind, req int) models.RewardRule {
	validFrom, _ := time.Parse(constants.DateFormat, day)
	return models.RewardRule{
		ID:          "rule",
		ItemID:      "item",
		Kind:        kind,
		Requirement: req,
		Quantity:    1,
		Enabled:     true,
		CreatedAt:   validFrom,
		ValidFrom:   validFrom,
	}
}

func TestComputeProgressHabit(t *testing.T) {
	t.Run("streak ending on as-of day", func(t *testing.T) {
		entries := successes(t, "2024-03-10", 6)
		rule := ruleFrom("2024-01-01", constants.RewardRecurring, 7)
		assert.Equal(t, 6, ComputeProgress(entries, rule, constants.ItemKindHabit, today))
	})

	t.Run("activation day caps the walk", func(t *testing.T) {
		entries := successes(t, "2024-03-05", 11)
		rule := ruleFrom(today, constants.RewardOneTime, 5)
		assert.Equal(t, 1, ComputeProgress(entries, rule, constants.ItemKindHabit, today))
	})

	t.Run("slip stops the walk", func(t *testing.T) {
		entries := successes(t, "2024-03-10", 6)
		entries[2].Outcome = constants.OutcomeSlip
		rule := ruleFrom("2024-01-01", constants.RewardRecurring, 7)
		assert.Equal(t, 3, ComputeProgress(entries, rule, constants.ItemKindHabit, today))
	})

	t.Run("entries after as-of are ignored", func(t *testing.T) {
		entries := successes(t, "2024-03-10", 10)
		rule := ruleFrom("2024-01-01", constants.RewardRecurring, 7)
		assert.Equal(t, 6, ComputeProgress(entries, rule, constants.ItemKindHabit, today))
	})

	t.Run("no entry on as-of day", func(t *testing.T) {
		entries := successes(t, "2024-03-10", 3)
		rule := ruleFrom("2024-01-01", constants.RewardRecurring, 7)
		assert.Equal(t, 0, ComputeProgress(entries, rule, constants.ItemKindHabit, today))
	})
}

func TestComputeProgressTask(t *testing.T) {
	rule := ruleFrom("2024-03-01", constants.RewardOneTime, 1)

	t.Run("single completion", func(t *testing.T) {
		entries := successes(t, "2024-03-10", 1)
		assert.Equal(t, 1, ComputeProgress(entries, rule, constants.ItemKindTask, today))
	})

	t.Run("reopen and recomplete counts lifetime completions", func(t *testing.T) {
		entries := []models.LogEntry{
			{ItemID: "item", Day: "2024-03-10", Outcome: constants.OutcomeSuccess},
			{ItemID: "item", Day: "2024-03-14", Outcome: constants.OutcomeSuccess},
		}
		assert.Equal(t, 2, ComputeProgress(entries, rule, constants.ItemKindTask, today))
	})

	t.Run("completions before activation do not count", func(t *testing.T) {
		entries := []models.LogEntry{
			{ItemID: "item", Day: "2024-02-10", Outcome: constants.OutcomeSuccess},
			{ItemID: "item", Day: "2024-03-10", Outcome: constants.OutcomeSlip},
		}
		assert.Equal(t, 0, ComputeProgress(entries, rule, constants.ItemKindTask, today))
	})
}

func TestRemaining(t *testing.T) {
	tests := []struct {
		name     string
		kind     constants.RewardKind
		req      int
		progress int
		want     int
	}{
		{"recurring from zero", constants.RewardRecurring, 7, 0, 7},
		{"recurring midway", constants.RewardRecurring, 7, 3, 4},
		{"recurring at checkpoint", constants.RewardRecurring, 7, 7, 7},
		{"recurring past checkpoint", constants.RewardRecurring, 7, 9, 5},
		{"one-time midway", constants.RewardOneTime, 5, 2, 3},
		{"one-time reached", constants.RewardOneTime, 5, 8, 0},
		{"non-positive requirement", constants.RewardRecurring, 0, 4, 0},
		{"negative progress", constants.RewardOneTime, 5, -2, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := models.RewardRule{Kind: tt.kind, Requirement: tt.req}
			assert.Equal(t, tt.want, Remaining(rule, tt.progress))
		})
	}
}

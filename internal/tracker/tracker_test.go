package tracker

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habitguard/internal/constants"
	apperrors "github.com/julianstephens/habitguard/internal/errors"
	"github.com/julianstephens/habitguard/internal/models"
	"github.com/julianstephens/habitguard/internal/progress"
	"github.com/julianstephens/habitguard/internal/storage/sqlite"
	"github.com/julianstephens/habitguard/internal/utils"
)

const startDay = "2024-03-01"

type fixture struct {
	svc   *Service
	store *sqlite.Store
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "habits.db"))
	require.NoError(t, store.Init())
	t.Cleanup(func() { store.Close() })

	settings, err := store.GetSettings()
	require.NoError(t, err)
	settings.Timezone = "UTC"
	require.NoError(t, store.SaveSettings(settings))

	f := &fixture{store: store}
	f.setDay(t, startDay)
	f.svc = New(store)
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) setDay(t *testing.T, day string) {
	t.Helper()
	d, err := utils.ParseDay(day)
	require.NoError(t, err)
	f.clock = d.Add(12 * time.Hour)
}

func day(t *testing.T, offset int) string {
	t.Helper()
	d, err := utils.AddDays(startDay, offset)
	require.NoError(t, err)
	return d
}

func (f *fixture) habit(t *testing.T, name string, rules ...NewRule) models.Item {
	t.Helper()
	item, err := f.svc.AddItem(NewItem{Name: name, Kind: constants.ItemKindHabit, Rules: rules})
	require.NoError(t, err)
	return item
}

func TestRecurringRewardFiresAtCheckpoints(t *testing.T) {
	f := newFixture(t)
	item := f.habit(t, "Walk", NewRule{Name: "Movie", Kind: constants.RewardRecurring, Requirement: 7, Quantity: 1})

	var firedOn []int
	for i := 0; i < 14; i++ {
		f.setDay(t, day(t, i))
		fired, err := f.svc.LogSuccess(item.ID, day(t, i), "")
		require.NoError(t, err)
		if len(fired) > 0 {
			firedOn = append(firedOn, i+1)
			assert.Equal(t, "Movie", fired[0].Name)
		}
	}
	assert.Equal(t, []int{7, 14}, firedOn)

	grants, err := f.svc.ActiveGrants()
	require.NoError(t, err)
	require.Len(t, grants, 1, "repeat firings increment the single active grant")
	assert.Equal(t, 2, grants[0].Grant.Quantity)
	assert.Equal(t, day(t, 6), grants[0].Grant.DateReceived)
	assert.Equal(t, "Walk", grants[0].ItemName)
}

func TestRelogSameDayDoesNotFireTwice(t *testing.T) {
	f := newFixture(t)
	item := f.habit(t, "Stretch", NewRule{Name: "Tea", Kind: constants.RewardRecurring, Requirement: 1, Quantity: 1})

	fired, err := f.svc.LogSuccess(item.ID, startDay, "")
	require.NoError(t, err)
	require.Len(t, fired, 1)

	fired, err = f.svc.LogSuccess(item.ID, startDay, "edited note")
	require.NoError(t, err)
	assert.Empty(t, fired)

	entry, err := f.store.GetEntry(item.ID, startDay)
	require.NoError(t, err)
	assert.Equal(t, "edited note", entry.Note)
}

func TestOneTimeRewardFiresOnce(t *testing.T) {
	f := newFixture(t)
	item := f.habit(t, "Meditate", NewRule{Name: "Book", Kind: constants.RewardOneTime, Requirement: 5, Quantity: 1})

	total := 0
	logRun := func(from, n int) {
		for i := from; i < from+n; i++ {
			f.setDay(t, day(t, i))
			fired, err := f.svc.LogSuccess(item.ID, day(t, i), "")
			require.NoError(t, err)
			total += len(fired)
		}
	}

	logRun(0, 6)
	require.NoError(t, f.svc.LogSlip(item.ID, day(t, 6), "sick"))
	logRun(7, 5)

	assert.Equal(t, 1, total)

	rules, err := f.svc.ListRules(item.ID, true)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.False(t, rules[0].Enabled)
}

func TestActivationDayIsRespected(t *testing.T) {
	f := newFixture(t)
	item := f.habit(t, "Run")

	for i := 0; i < 10; i++ {
		f.setDay(t, day(t, i))
		_, err := f.svc.LogSuccess(item.ID, day(t, i), "")
		require.NoError(t, err)
	}

	f.setDay(t, day(t, 10))
	rule, err := f.svc.AddRule(item.ID, NewRule{Name: "Shoes", Kind: constants.RewardOneTime, Requirement: 5, Quantity: 1})
	require.NoError(t, err)

	fired, err := f.svc.LogSuccess(item.ID, day(t, 10), "")
	require.NoError(t, err)
	assert.Empty(t, fired, "a pre-existing streak must not fire a rule added today")

	for i := 11; i < 14; i++ {
		f.setDay(t, day(t, i))
		fired, err = f.svc.LogSuccess(item.ID, day(t, i), "")
		require.NoError(t, err)
		assert.Empty(t, fired)
	}

	f.setDay(t, day(t, 14))
	fired, err = f.svc.LogSuccess(item.ID, day(t, 14), "")
	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.Equal(t, rule.ID, fired[0].RuleID)
}

func TestTaskLifecycle(t *testing.T) {
	f := newFixture(t)
	task, err := f.svc.AddItem(NewItem{
		Name: "File taxes",
		Kind: constants.ItemKindTask,
		Rules: []NewRule{
			{Name: "Dinner out", Kind: constants.RewardRecurring, Requirement: 9, Quantity: 1},
		},
	})
	require.NoError(t, err)

	rules, err := f.svc.ListRules(task.ID, false)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, constants.RewardOneTime, rules[0].Kind, "task rules are forced to one-time")
	assert.Equal(t, 1, rules[0].Requirement)

	fired, err := f.svc.LogSuccess(task.ID, startDay, "")
	require.NoError(t, err)
	require.Len(t, fired, 1)

	_, err = f.svc.LogSuccess(task.ID, day(t, 1), "")
	assert.ErrorIs(t, err, ErrAlreadyCompleted)

	require.NoError(t, f.svc.CancelLog(task.ID, startDay))

	reopened, err := f.store.GetItem(task.ID)
	require.NoError(t, err)
	assert.False(t, reopened.IsCompleted())
	grants, err := f.svc.ActiveGrants()
	require.NoError(t, err)
	assert.Empty(t, grants, "reopen resets the ledger for the task")

	f.setDay(t, day(t, 1))
	fired, err = f.svc.LogSuccess(task.ID, day(t, 1), "")
	require.NoError(t, err)
	assert.Empty(t, fired, "one-time rule stays disabled after reopen")

	entries, err := f.store.ListEntries(task.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, progress.ComputeProgress(entries, rules[0], constants.ItemKindTask, day(t, 1)))

	assert.ErrorIs(t, f.svc.ReopenTask(f.habit(t, "Walk").ID), ErrNotATask)
}

func TestCancelHabitLog(t *testing.T) {
	f := newFixture(t)
	item := f.habit(t, "Floss", NewRule{Name: "Sticker", Kind: constants.RewardRecurring, Requirement: 1, Quantity: 1})

	_, err := f.svc.LogSuccess(item.ID, startDay, "")
	require.NoError(t, err)
	grants, err := f.svc.ActiveGrants()
	require.NoError(t, err)
	require.Len(t, grants, 1)

	require.NoError(t, f.svc.CancelLog(item.ID, startDay))

	_, err = f.store.GetEntry(item.ID, startDay)
	assert.True(t, apperrors.IsNotFound(err))
	grants, err = f.svc.ActiveGrants()
	require.NoError(t, err)
	assert.Empty(t, grants)

	assert.True(t, apperrors.IsNotFound(f.svc.CancelLog(item.ID, startDay)))
}

func TestSlipOverSuccessClearsDayGrants(t *testing.T) {
	f := newFixture(t)
	item := f.habit(t, "Journal", NewRule{Name: "Pen", Kind: constants.RewardRecurring, Requirement: 1, Quantity: 1})

	_, err := f.svc.LogSuccess(item.ID, startDay, "")
	require.NoError(t, err)
	require.NoError(t, f.svc.LogSlip(item.ID, startDay, "actually no"))

	grants, err := f.svc.ActiveGrants()
	require.NoError(t, err)
	assert.Empty(t, grants)
}

func TestRedeem(t *testing.T) {
	f := newFixture(t)
	item := f.habit(t, "Water", NewRule{Name: "Snack", Kind: constants.RewardRecurring, Requirement: 1, Quantity: 3})

	_, err := f.svc.LogSuccess(item.ID, startDay, "")
	require.NoError(t, err)
	grants, err := f.svc.ActiveGrants()
	require.NoError(t, err)
	require.Len(t, grants, 1)
	id := grants[0].Grant.ID

	_, err = f.svc.Redeem(id, 0, startDay)
	assert.ErrorIs(t, err, apperrors.ErrInvalidConfiguration)

	g, err := f.svc.Redeem(id, 1, startDay)
	require.NoError(t, err)
	assert.Equal(t, 2, g.Quantity)
	assert.False(t, g.Redeemed)
	require.NotNil(t, g.DateRedeemed)

	g, err = f.svc.Redeem(id, 10, day(t, 1))
	require.NoError(t, err)
	assert.Equal(t, 0, g.Quantity)
	assert.True(t, g.Redeemed)
	assert.Equal(t, day(t, 1), *g.DateRedeemed)

	_, err = f.svc.Redeem(id, 1, day(t, 1))
	assert.True(t, apperrors.IsNotFound(err))
}

func TestArchivedItemCannotBeLogged(t *testing.T) {
	f := newFixture(t)
	item := f.habit(t, "Piano")
	require.NoError(t, f.svc.ArchiveItem(item.ID))

	_, err := f.svc.LogSuccess(item.ID, startDay, "")
	assert.ErrorIs(t, err, ErrItemArchived)

	require.NoError(t, f.svc.UnarchiveItem(item.ID))
	_, err = f.svc.LogSuccess(item.ID, startDay, "")
	assert.NoError(t, err)
}

func TestAddItemValidation(t *testing.T) {
	f := newFixture(t)
	f.habit(t, "Walk")

	_, err := f.svc.AddItem(NewItem{Name: "Walk", Kind: constants.ItemKindHabit})
	assert.ErrorIs(t, err, apperrors.ErrInvalidConfiguration)

	_, err = f.svc.AddItem(NewItem{Name: "Swim", Kind: constants.ItemKindHabit, Rules: []NewRule{{Name: "x", Kind: constants.RewardRecurring, Requirement: 0}}})
	assert.ErrorIs(t, err, apperrors.ErrInvalidConfiguration)

	_, err = f.svc.Resolve("Swim")
	assert.True(t, apperrors.IsNotFound(err), "failed add must not leave a partial item")
}

func TestSummaries(t *testing.T) {
	f := newFixture(t)
	walk := f.habit(t, "Walk", NewRule{Name: "Movie", Kind: constants.RewardRecurring, Requirement: 7, Quantity: 1})
	read := f.habit(t, "Read")

	for i := 0; i < 3; i++ {
		f.setDay(t, day(t, i))
		_, err := f.svc.LogSuccess(walk.ID, day(t, i), "")
		require.NoError(t, err)
	}
	require.NoError(t, f.svc.LogSlip(read.ID, day(t, 3), ""))

	today := day(t, 3)
	summaries, err := f.svc.Summaries(today, false)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	byName := map[string]ItemSummary{}
	for _, s := range summaries {
		byName[s.Item.Name] = s
	}

	w := byName["Walk"]
	assert.Equal(t, progress.Streak{Current: 3, Best: 3}, w.Streak)
	assert.Nil(t, w.Today)
	require.Len(t, w.Rules, 1)
	assert.Equal(t, 3, w.Rules[0].Progress)
	assert.Equal(t, 4, w.Rules[0].Remaining)
	next, ok := w.NextReward()
	assert.True(t, ok)
	assert.Equal(t, "Movie", next.Rule.Name)

	r := byName["Read"]
	require.NotNil(t, r.Today)
	assert.Equal(t, constants.OutcomeSlip, *r.Today)
	assert.Equal(t, progress.Streak{}, r.Streak)

	single, err := f.svc.Summary(walk.ID, today)
	require.NoError(t, err)
	assert.Equal(t, 3, single.Total)
}

func TestTodayUsesConfiguredTimezone(t *testing.T) {
	f := newFixture(t)
	settings, err := f.store.GetSettings()
	require.NoError(t, err)
	settings.Timezone = "Pacific/Auckland"
	require.NoError(t, f.store.SaveSettings(settings))

	f.clock = time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	today, err := f.svc.Today()
	require.NoError(t, err)
	assert.Equal(t, "2024-03-02", today)
}

func TestSummaryLabels(t *testing.T) {
	sum := ItemSummary{}
	assert.Equal(t, "○", sum.StatusMark())
	assert.Equal(t, "no rewards", sum.NextRewardLabel())

	success := constants.OutcomeSuccess
	sum.Today = &success
	assert.Equal(t, "✓", sum.StatusMark())
	slip := constants.OutcomeSlip
	sum.Today = &slip
	assert.Equal(t, "✗", sum.StatusMark())

	sum.Rules = []RuleProgress{
		{Rule: models.RewardRule{Name: "Book"}, Remaining: 20},
		{Rule: models.RewardRule{Name: "Coffee"}, Remaining: 3},
	}
	assert.Equal(t, "Coffee in 3", sum.NextRewardLabel())

	sum.Rules = []RuleProgress{{Rule: models.RewardRule{Name: "Trophy"}, Remaining: 0}}
	assert.Equal(t, "Trophy: earned", sum.NextRewardLabel())
}

func TestActivationDayFollowsConfiguredTimezone(t *testing.T) {
	f := newFixture(t)
	settings, err := f.store.GetSettings()
	require.NoError(t, err)
	settings.Timezone = "America/New_York"
	require.NoError(t, f.store.SaveSettings(settings))

	// 21:00 on Mar 1 in New York, already Mar 2 in UTC
	f.clock = time.Date(2024, 3, 2, 2, 0, 0, 0, time.UTC)
	today, err := f.svc.Today()
	require.NoError(t, err)
	require.Equal(t, "2024-03-01", today)

	task, err := f.svc.AddItem(NewItem{
		Name:  "Book dentist",
		Kind:  constants.ItemKindTask,
		Rules: []NewRule{{Name: "Ice cream", Kind: constants.RewardOneTime, Requirement: 1}},
	})
	require.NoError(t, err)

	rules, err := f.svc.ListRules(task.ID, false)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, today, rules[0].ActivationDay())

	rule, err := f.svc.AddRule(task.ID, NewRule{Name: "Nap", Kind: constants.RewardOneTime, Requirement: 1})
	require.NoError(t, err)
	assert.Equal(t, today, rule.ActivationDay())

	fired, err := f.svc.LogSuccess(task.ID, today, "")
	require.NoError(t, err)
	assert.Len(t, fired, 2)
}

func TestReopenedTaskRecompletedSameDay(t *testing.T) {
	f := newFixture(t)
	task, err := f.svc.AddItem(NewItem{Name: "Renew passport", Kind: constants.ItemKindTask})
	require.NoError(t, err)

	fired, err := f.svc.LogSuccess(task.ID, startDay, "")
	require.NoError(t, err)
	assert.Empty(t, fired)

	_, err = f.svc.AddRule(task.ID, NewRule{Name: "Trip", Kind: constants.RewardOneTime, Requirement: 1})
	require.NoError(t, err)
	require.NoError(t, f.svc.ReopenTask(task.ID))

	fired, err = f.svc.LogSuccess(task.ID, startDay, "")
	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.Equal(t, "Trip", fired[0].Name)
}

func TestCancelAndRelogIsIdempotent(t *testing.T) {
	f := newFixture(t)
	item := f.habit(t, "Stretch", NewRule{Name: "Tea", Kind: constants.RewardRecurring, Requirement: 1, Quantity: 1})

	for _, d := range []string{startDay, day(t, 1)} {
		_, err := f.svc.LogSuccess(item.ID, d, "")
		require.NoError(t, err)
	}

	activeQuantity := func() int {
		t.Helper()
		grants, err := f.svc.ActiveGrants()
		require.NoError(t, err)
		total := 0
		for _, g := range grants {
			total += g.Grant.Quantity
		}
		return total
	}
	require.Equal(t, 2, activeQuantity())

	for i := 0; i < 3; i++ {
		require.NoError(t, f.svc.CancelLog(item.ID, day(t, 1)))
		assert.Equal(t, 1, activeQuantity(), "cancel takes back the day's firing")
		_, err := f.svc.LogSuccess(item.ID, day(t, 1), "")
		require.NoError(t, err)
		assert.Equal(t, 2, activeQuantity(), "relog earns it once again")
	}

	require.NoError(t, f.svc.LogSlip(item.ID, startDay, ""))
	assert.Equal(t, 1, activeQuantity())
}

func TestCancelRestoresOneTimeRewardOnRelog(t *testing.T) {
	f := newFixture(t)
	item := f.habit(t, "Run", NewRule{Name: "Shoes", Kind: constants.RewardOneTime, Requirement: 2, Quantity: 1})

	_, err := f.svc.LogSuccess(item.ID, startDay, "")
	require.NoError(t, err)
	fired, err := f.svc.LogSuccess(item.ID, day(t, 1), "")
	require.NoError(t, err)
	require.Len(t, fired, 1)

	require.NoError(t, f.svc.CancelLog(item.ID, day(t, 1)))
	grants, err := f.svc.ActiveGrants()
	require.NoError(t, err)
	assert.Empty(t, grants)

	fired, err = f.svc.LogSuccess(item.ID, day(t, 1), "")
	require.NoError(t, err)
	require.Len(t, fired, 1)
	grants, err = f.svc.ActiveGrants()
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, 1, grants[0].Grant.Quantity)
}

func TestCancelTaskSlip(t *testing.T) {
	f := newFixture(t)
	task, err := f.svc.AddItem(NewItem{Name: "Call bank", Kind: constants.ItemKindTask})
	require.NoError(t, err)

	require.NoError(t, f.svc.LogSlip(task.ID, startDay, "forgot"))
	require.NoError(t, f.svc.CancelLog(task.ID, startDay))

	_, err = f.store.GetEntry(task.ID, startDay)
	assert.True(t, apperrors.IsNotFound(err))
}

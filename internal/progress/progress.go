package progress

import (
	"github.com/julianstephens/habitguard/internal/constants"
	"github.com/julianstephens/habitguard/internal/models"
)

// ComputeProgress returns the value compared against rule's requirement as of
// asOf. Only entries on or after the rule's activation day count.
//
// Tasks count lifetime successes since activation, so a reopened and
// recompleted task reaches 2. Habits count the consecutive successes ending
// on asOf, stopping at the first missing day, the first slip, or the
// activation day, whichever comes first.
func ComputeProgress(entries []models.LogEntry, rule models.RewardRule, kind constants.ItemKind, asOf string) int {
	activation := rule.ActivationDay()

	switch kind {
	case constants.ItemKindTask:
		return countSuccesses(entries, activation)
	default:
		return habitRun(entries, activation, asOf)
	}
}

func countSuccesses(entries []models.LogEntry, activation string) int {
	n := 0
	for _, e := range entries {
		if e.Success() && e.Day >= activation {
			n++
		}
	}
	return n
}

func habitRun(entries []models.LogEntry, activation, asOf string) int {
	logMap := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.Day > asOf {
			continue
		}
		logMap[e.Day] = e.Success()
	}
	return walkBack(logMap, asOf, activation)
}

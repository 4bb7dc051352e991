package progress

import (
	"sort"
	"time"

	"github.com/julianstephens/habitguard/internal/utils"
)

// Streak holds the latest and the longest run of consecutive successful days
type Streak struct {
	Current int `json:"current"`
	Best    int `json:"best"`
}

// ComputeStreak derives the current and best streak from a day -> success map.
//
// Best only looks at recorded days: a recorded failure resets the run, and a
// gap between two recorded days breaks contiguity. Current walks backward from
// a reference day: today when today is a success, yesterday when today has no
// entry, and not at all when today is a failure. Keys that are not valid
// calendar days are ignored.
func ComputeStreak(logMap map[string]bool, today string) Streak {
	var s Streak
	if len(logMap) == 0 {
		return s
	}

	s.Best = bestRun(logMap)
	s.Current = currentRun(logMap, today, "")
	if s.Current > s.Best {
		s.Best = s.Current
	}
	return s
}

func bestRun(logMap map[string]bool) int {
	days := make([]string, 0, len(logMap))
	for day := range logMap {
		days = append(days, day)
	}
	sort.Strings(days)

	var (
		best, run int
		prev      time.Time
		havePrev  bool
	)
	for _, day := range days {
		t, err := utils.ParseDay(day)
		if err != nil {
			continue
		}
		switch {
		case !logMap[day]:
			run = 0
		case havePrev && utils.IsNextDay(prev, t):
			run++
		default:
			run = 1
		}
		if run > best {
			best = run
		}
		prev, havePrev = t, true
	}
	return best
}

// currentRun walks backward from the reference day counting recorded
// successes. When floor is set the walk also stops before that day.
func currentRun(logMap map[string]bool, today, floor string) int {
	ok, recorded := logMap[today]
	start := today
	switch {
	case recorded && !ok:
		return 0
	case !recorded:
		prev, err := utils.AddDays(today, -1)
		if err != nil {
			return 0
		}
		start = prev
	}
	return walkBack(logMap, start, floor)
}

func walkBack(logMap map[string]bool, start, floor string) int {
	count := 0
	day := start
	for {
		if floor != "" && day < floor {
			return count
		}
		if !logMap[day] {
			return count
		}
		count++
		prev, err := utils.AddDays(day, -1)
		if err != nil {
			return count
		}
		day = prev
	}
}

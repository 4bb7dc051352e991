package progress

import "github.com/julianstephens/habitguard/internal/models"

// Remaining returns how many more progress units rule needs before it next
// fires. Recurring rules count toward the next checkpoint.
func Remaining(rule models.RewardRule, progress int) int {
	req := rule.Requirement
	if req <= 0 {
		return 0
	}
	if progress < 0 {
		progress = 0
	}
	if rule.IsRecurring() {
		return clamp(req-(progress%req), 0, req)
	}
	return clamp(req-progress, 0, req)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package models

import (
	"time"

	"github.com/julianstephens/habitguard/internal/constants"
)

// RewardRule describes when an item earns a reward and how much of it
type RewardRule struct {
	ID          string               `json:"id"`
	ItemID      string               `json:"item_id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Kind        constants.RewardKind `json:"kind"`
	Requirement int                  `json:"requirement"` // progress units needed
	Quantity    int                  `json:"quantity"`    // units granted per firing
	Enabled     bool                 `json:"enabled"`
	CreatedAt   time.Time            `json:"created_at"`
	ValidFrom   time.Time            `json:"valid_from"`
}

// ActivationDay returns the calendar day the rule became active, in the
// offset the activation timestamp was recorded with. A rule without an
// activation timestamp falls back to its creation time.
func (r RewardRule) ActivationDay() string {
	switch {
	case !r.ValidFrom.IsZero():
		return r.ValidFrom.Format(constants.DateFormat)
	case !r.CreatedAt.IsZero():
		return r.CreatedAt.Format(constants.DateFormat)
	}
	return ""
}

func (r RewardRule) IsRecurring() bool { return r.Kind == constants.RewardRecurring }

// RewardGrant is a ledger entry holding earned but not yet redeemed units
type RewardGrant struct {
	ID           string  `json:"id"`
	RuleID       string  `json:"rule_id"`
	ItemID       string  `json:"item_id"`
	DateReceived string  `json:"date_received"`           // YYYY-MM-DD
	DateRedeemed *string `json:"date_redeemed,omitempty"` // YYYY-MM-DD
	Quantity     int     `json:"quantity"`                // remaining units
	Redeemed     bool    `json:"redeemed"`
}

// GroupRules splits a batch rule listing into per-item slices.
func GroupRules(rules []RewardRule) map[string][]RewardRule {
	grouped := make(map[string][]RewardRule)
	for _, r := range rules {
		grouped[r.ItemID] = append(grouped[r.ItemID], r)
	}
	return grouped
}

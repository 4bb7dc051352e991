package rewards

import (
	"github.com/julianstephens/habitguard/internal/constants"
	apperrors "github.com/julianstephens/habitguard/internal/errors"
	"github.com/julianstephens/habitguard/internal/logger"
	"github.com/julianstephens/habitguard/internal/models"
)

// Ledger is the part of the reward ledger the engine writes to
type Ledger interface {
	CreateOrIncrementGrant(ruleID, itemID string, quantity int, day string) (models.RewardGrant, error)
	DisableRule(ruleID string) error
}

// Fired describes a reward granted by a single log action
type Fired struct {
	RuleID          string `json:"rule_id"`
	Name            string `json:"name"`
	QuantityGranted int    `json:"quantity_granted"`
}

// Eligible reports whether rule fires at progress for an item of kind.
// Rules with a non-positive requirement or quantity never fire.
func Eligible(rule models.RewardRule, kind constants.ItemKind, progress int) bool {
	if !rule.Enabled || rule.Requirement <= 0 || rule.Quantity <= 0 {
		return false
	}
	if progress < rule.Requirement {
		return false
	}
	if rule.IsRecurring() {
		if kind == constants.ItemKindTask {
			return false
		}
		return progress%rule.Requirement == 0
	}
	return true
}

// Engine applies eligible reward rules to the ledger
type Engine struct {
	ledger Ledger
}

func NewEngine(ledger Ledger) *Engine {
	return &Engine{ledger: ledger}
}

// EvaluateAndApply grants every rule in rules that is eligible at progress and
// disables one-time rules once they fire. Rules whose grant or disable target
// no longer exists are skipped; any other ledger error aborts the pass.
//
// progress maps rule id to that rule's progress, since activation days differ
// per rule. day is recorded as the grant's receive date.
func (e *Engine) EvaluateAndApply(item models.Item, progress map[string]int, rules []models.RewardRule, day string) ([]Fired, error) {
	var fired []Fired
	for _, rule := range rules {
		if rule.ItemID != item.ID {
			continue
		}
		p := progress[rule.ID]
		if !Eligible(rule, item.Kind, p) {
			continue
		}

		log := logger.With("item", item.ID, "rule", rule.ID)

		if _, err := e.ledger.CreateOrIncrementGrant(rule.ID, item.ID, rule.Quantity, day); err != nil {
			if apperrors.IsNotFound(err) {
				log.Warn("Skipping reward rule, grant target missing", "error", err)
				continue
			}
			return nil, err
		}

		if !rule.IsRecurring() {
			if err := e.ledger.DisableRule(rule.ID); err != nil {
				if apperrors.IsNotFound(err) {
					log.Warn("Reward rule vanished before it could be disabled", "error", err)
				} else {
					return nil, err
				}
			}
		}

		log.Debug("Reward fired", "progress", p, "quantity", rule.Quantity)
		fired = append(fired, Fired{
			RuleID:          rule.ID,
			Name:            rule.Name,
			QuantityGranted: rule.Quantity,
		})
	}
	return fired, nil
}

package sqlstore

import (
	apperrors "github.com/julianstephens/habitguard/internal/errors"
	"github.com/julianstephens/habitguard/internal/models"
)

const ruleColumns = "id, item_id, name, description, kind, requirement, quantity, enabled, created_at, valid_from"

func scanRule(row rowScanner) (models.RewardRule, error) {
	var r models.RewardRule
	var enabled int
	var createdAt, validFrom string
	if err := row.Scan(&r.ID, &r.ItemID, &r.Name, &r.Description, &r.Kind, &r.Requirement,
		&r.Quantity, &enabled, &createdAt, &validFrom); err != nil {
		return models.RewardRule{}, err
	}
	r.Enabled = enabled != 0

	var err error
	if r.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return models.RewardRule{}, err
	}
	if r.ValidFrom, err = parseTime("valid_from", validFrom); err != nil {
		return models.RewardRule{}, err
	}
	return r, nil
}

func (s *Store) AddRule(r models.RewardRule) error {
	validFrom := r.ValidFrom
	if validFrom.IsZero() {
		validFrom = r.CreatedAt
	}
	_, err := s.exec(`
		INSERT INTO reward_rules (`+ruleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.ItemID, r.Name, r.Description, string(r.Kind), r.Requirement, r.Quantity,
		boolToInt(r.Enabled), formatTime(r.CreatedAt), formatTime(validFrom))
	if err != nil {
		return apperrors.WrapStore("add reward rule", err)
	}
	return nil
}

func (s *Store) GetRule(id string) (models.RewardRule, error) {
	r, err := scanRule(s.queryRow("SELECT "+ruleColumns+" FROM reward_rules WHERE id = ?", id))
	if err != nil {
		return models.RewardRule{}, scanErr("get reward rule", "reward rule", id, err)
	}
	return r, nil
}

func (s *Store) ListRules(itemID string, includeDisabled bool) ([]models.RewardRule, error) {
	return s.ListRulesForItems([]string{itemID}, includeDisabled)
}

func (s *Store) ListRulesForItems(itemIDs []string, includeDisabled bool) ([]models.RewardRule, error) {
	if len(itemIDs) == 0 {
		return []models.RewardRule{}, nil
	}

	query := "SELECT " + ruleColumns + " FROM reward_rules WHERE item_id IN (" + placeholders(len(itemIDs)) + ")"
	if !includeDisabled {
		query += " AND enabled = 1"
	}
	query += " ORDER BY item_id, requirement, created_at"

	rows, err := s.query(query, stringArgs(itemIDs)...)
	if err != nil {
		return nil, apperrors.WrapStore("list reward rules", err)
	}
	defer rows.Close()

	rules := []models.RewardRule{}
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, apperrors.WrapStore("list reward rules", err)
		}
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.WrapStore("list reward rules", err)
	}
	return rules, nil
}

// UpdateRule rewrites the editable attributes. item_id, created_at and
// valid_from never change.
func (s *Store) UpdateRule(r models.RewardRule) error {
	return s.execOne("update reward rule", "reward rule", r.ID, `
		UPDATE reward_rules SET name = ?, description = ?, kind = ?, requirement = ?,
			quantity = ?, enabled = ?
		WHERE id = ?`,
		r.Name, r.Description, string(r.Kind), r.Requirement, r.Quantity, boolToInt(r.Enabled), r.ID)
}

func (s *Store) DisableRule(ruleID string) error {
	return s.execOne("disable reward rule", "reward rule", ruleID,
		"UPDATE reward_rules SET enabled = 0 WHERE id = ?", ruleID)
}

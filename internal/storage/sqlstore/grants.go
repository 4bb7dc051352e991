package sqlstore

import (
	"database/sql"

	"github.com/google/uuid"

	apperrors "github.com/julianstephens/habitguard/internal/errors"
	"github.com/julianstephens/habitguard/internal/models"
)

const grantColumns = "id, rule_id, item_id, date_received, date_redeemed, quantity, redeemed"

func scanGrant(row rowScanner) (models.RewardGrant, error) {
	var g models.RewardGrant
	var dateRedeemed sql.NullString
	var redeemed int
	if err := row.Scan(&g.ID, &g.RuleID, &g.ItemID, &g.DateReceived, &dateRedeemed, &g.Quantity, &redeemed); err != nil {
		return models.RewardGrant{}, err
	}
	if dateRedeemed.Valid {
		d := dateRedeemed.String
		g.DateRedeemed = &d
	}
	g.Redeemed = redeemed != 0
	return g, nil
}

func (s *Store) FindActiveGrant(ruleID string) (models.RewardGrant, error) {
	g, err := scanGrant(s.queryRow(
		"SELECT "+grantColumns+" FROM reward_grants WHERE rule_id = ? AND redeemed = 0", ruleID))
	if err != nil {
		return models.RewardGrant{}, scanErr("find active grant", "active grant for rule", ruleID, err)
	}
	return g, nil
}

func (s *Store) GetGrant(id string) (models.RewardGrant, error) {
	g, err := scanGrant(s.queryRow("SELECT "+grantColumns+" FROM reward_grants WHERE id = ?", id))
	if err != nil {
		return models.RewardGrant{}, scanErr("get grant", "reward grant", id, err)
	}
	return g, nil
}

// CreateOrIncrementGrant returns NotFound when the rule no longer exists.
func (s *Store) CreateOrIncrementGrant(ruleID, itemID string, quantity int, day string) (models.RewardGrant, error) {
	if quantity <= 0 {
		return models.RewardGrant{}, apperrors.Invalid("grant quantity must be positive, got %d", quantity)
	}
	if _, err := s.GetRule(ruleID); err != nil {
		return models.RewardGrant{}, err
	}

	result, err := s.exec(
		"UPDATE reward_grants SET quantity = quantity + ? WHERE rule_id = ? AND redeemed = 0",
		quantity, ruleID)
	if err != nil {
		return models.RewardGrant{}, apperrors.WrapStore("increment grant", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return models.RewardGrant{}, apperrors.WrapStore("increment grant", err)
	} else if n > 0 {
		return s.FindActiveGrant(ruleID)
	}

	g := models.RewardGrant{
		ID:           uuid.New().String(),
		RuleID:       ruleID,
		ItemID:       itemID,
		DateReceived: day,
		Quantity:     quantity,
	}
	if _, err := s.exec(`
		INSERT INTO reward_grants (`+grantColumns+`)
		VALUES (?, ?, ?, ?, NULL, ?, 0)`,
		g.ID, g.RuleID, g.ItemID, g.DateReceived, g.Quantity); err != nil {
		return models.RewardGrant{}, apperrors.WrapStore("create grant", err)
	}
	return g, nil
}

func (s *Store) DeleteGrantsForItem(itemID string) error {
	if _, err := s.exec("DELETE FROM reward_grants WHERE item_id = ?", itemID); err != nil {
		return apperrors.WrapStore("delete grants", err)
	}
	return nil
}

// WithdrawGrant takes quantity units back from the rule's active grant and
// removes the grant once nothing is left. NotFound when no grant is active.
func (s *Store) WithdrawGrant(ruleID string, quantity int) error {
	if quantity <= 0 {
		return apperrors.Invalid("withdraw quantity must be positive, got %d", quantity)
	}
	g, err := s.FindActiveGrant(ruleID)
	if err != nil {
		return err
	}
	if quantity >= g.Quantity {
		return s.execOne("withdraw grant", "active grant", g.ID,
			"DELETE FROM reward_grants WHERE id = ? AND redeemed = 0", g.ID)
	}
	return s.execOne("withdraw grant", "active grant", g.ID,
		"UPDATE reward_grants SET quantity = quantity - ? WHERE id = ? AND redeemed = 0",
		quantity, g.ID)
}

func (s *Store) ListActiveGrants() ([]models.RewardGrant, error) {
	rows, err := s.query(
		"SELECT " + grantColumns + " FROM reward_grants WHERE redeemed = 0 ORDER BY date_received DESC, id")
	if err != nil {
		return nil, apperrors.WrapStore("list grants", err)
	}
	defer rows.Close()

	grants := []models.RewardGrant{}
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, apperrors.WrapStore("list grants", err)
		}
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.WrapStore("list grants", err)
	}
	return grants, nil
}

// RedeemGrant redeems every remaining unit of an active grant.
func (s *Store) RedeemGrant(id, day string) error {
	return s.execOne("redeem grant", "active grant", id,
		"UPDATE reward_grants SET quantity = 0, redeemed = 1, date_redeemed = ? WHERE id = ? AND redeemed = 0",
		day, id)
}

// RedeemGrantPartial takes quantity units off an active grant. Taking the
// last unit marks the grant redeemed.
func (s *Store) RedeemGrantPartial(id string, quantity int, day string) error {
	if quantity <= 0 {
		return apperrors.Invalid("redeem quantity must be positive, got %d", quantity)
	}

	g, err := s.GetGrant(id)
	if err != nil {
		return err
	}
	if g.Redeemed {
		return apperrors.NotFound("active grant", id)
	}
	if quantity > g.Quantity {
		return apperrors.Invalid("cannot redeem %d, only %d remaining", quantity, g.Quantity)
	}
	if quantity == g.Quantity {
		return s.RedeemGrant(id, day)
	}

	return s.execOne("redeem grant", "active grant", id,
		"UPDATE reward_grants SET quantity = quantity - ?, date_redeemed = ? WHERE id = ? AND redeemed = 0",
		quantity, day, id)
}

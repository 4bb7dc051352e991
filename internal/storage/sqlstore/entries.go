package sqlstore

import (
	apperrors "github.com/julianstephens/habitguard/internal/errors"
	"github.com/julianstephens/habitguard/internal/models"
)

const entryColumns = "item_id, day, outcome, note, created_at, updated_at"

func scanEntry(row rowScanner) (models.LogEntry, error) {
	var e models.LogEntry
	var createdAt, updatedAt string
	if err := row.Scan(&e.ItemID, &e.Day, &e.Outcome, &e.Note, &createdAt, &updatedAt); err != nil {
		return models.LogEntry{}, err
	}

	var err error
	if e.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return models.LogEntry{}, err
	}
	if e.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return models.LogEntry{}, err
	}
	return e, nil
}

func (s *Store) GetEntry(itemID, day string) (models.LogEntry, error) {
	e, err := scanEntry(s.queryRow(
		"SELECT "+entryColumns+" FROM log_entries WHERE item_id = ? AND day = ?", itemID, day))
	if err != nil {
		return models.LogEntry{}, scanErr("get log entry", "log entry", itemID+"@"+day, err)
	}
	return e, nil
}

func (s *Store) ListEntries(itemID string) ([]models.LogEntry, error) {
	return s.listEntries("SELECT "+entryColumns+" FROM log_entries WHERE item_id = ? ORDER BY day", itemID)
}

func (s *Store) ListEntriesForItems(itemIDs []string) ([]models.LogEntry, error) {
	if len(itemIDs) == 0 {
		return []models.LogEntry{}, nil
	}
	return s.listEntries(
		"SELECT "+entryColumns+" FROM log_entries WHERE item_id IN ("+placeholders(len(itemIDs))+") ORDER BY item_id, day",
		stringArgs(itemIDs)...)
}

func (s *Store) listEntries(query string, args ...any) ([]models.LogEntry, error) {
	rows, err := s.query(query, args...)
	if err != nil {
		return nil, apperrors.WrapStore("list log entries", err)
	}
	defer rows.Close()

	entries := []models.LogEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, apperrors.WrapStore("list log entries", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.WrapStore("list log entries", err)
	}
	return entries, nil
}

// UpsertEntry inserts the entry or replaces the outcome and note of the
// existing entry for the same item and day. created_at is kept on update.
func (s *Store) UpsertEntry(e models.LogEntry) error {
	_, err := s.exec(`
		INSERT INTO log_entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(item_id, day) DO UPDATE SET
			outcome = excluded.outcome,
			note = excluded.note,
			updated_at = excluded.updated_at`,
		e.ItemID, e.Day, int(e.Outcome), e.Note, formatTime(e.CreatedAt), formatTime(e.UpdatedAt))
	if err != nil {
		return apperrors.WrapStore("upsert log entry", err)
	}
	return nil
}

func (s *Store) DeleteEntry(itemID, day string) error {
	return s.execOne("delete log entry", "log entry", itemID+"@"+day,
		"DELETE FROM log_entries WHERE item_id = ? AND day = ?", itemID, day)
}

func (s *Store) DeleteAllEntries(itemID string) error {
	if _, err := s.exec("DELETE FROM log_entries WHERE item_id = ?", itemID); err != nil {
		return apperrors.WrapStore("delete log entries", err)
	}
	return nil
}

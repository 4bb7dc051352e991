package sqlstore

import (
	"database/sql"
	"time"

	apperrors "github.com/julianstephens/habitguard/internal/errors"
	"github.com/julianstephens/habitguard/internal/models"
)

const itemColumns = "id, name, kind, polarity, priority, created_at, archived_at, completed_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (models.Item, error) {
	var it models.Item
	var createdAt string
	var archivedAt, completedAt sql.NullString

	if err := row.Scan(&it.ID, &it.Name, &it.Kind, &it.Polarity, &it.Priority, &createdAt, &archivedAt, &completedAt); err != nil {
		return models.Item{}, err
	}

	var err error
	if it.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return models.Item{}, err
	}
	if it.ArchivedAt, err = parseNullTime("archived_at", archivedAt); err != nil {
		return models.Item{}, err
	}
	if it.CompletedAt, err = parseNullTime("completed_at", completedAt); err != nil {
		return models.Item{}, err
	}
	return it, nil
}

func (s *Store) AddItem(item models.Item) error {
	_, err := s.exec(`
		INSERT INTO items (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Name, string(item.Kind), string(item.Polarity), item.Priority,
		formatTime(item.CreatedAt), nullTime(item.ArchivedAt), nullTime(item.CompletedAt))
	if err != nil {
		return apperrors.WrapStore("add item", err)
	}
	return nil
}

func (s *Store) GetItem(id string) (models.Item, error) {
	it, err := scanItem(s.queryRow("SELECT "+itemColumns+" FROM items WHERE id = ?", id))
	if err != nil {
		return models.Item{}, scanErr("get item", "item", id, err)
	}
	return it, nil
}

func (s *Store) GetItemByName(name string) (models.Item, error) {
	it, err := scanItem(s.queryRow("SELECT "+itemColumns+" FROM items WHERE name = ?", name))
	if err != nil {
		return models.Item{}, scanErr("get item", "item", name, err)
	}
	return it, nil
}

// ListItems orders by priority (highest first) then creation time.
func (s *Store) ListItems(includeArchived bool) ([]models.Item, error) {
	query := "SELECT " + itemColumns + " FROM items"
	if !includeArchived {
		query += " WHERE archived_at IS NULL"
	}
	query += " ORDER BY priority DESC, created_at, name"

	rows, err := s.query(query)
	if err != nil {
		return nil, apperrors.WrapStore("list items", err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, apperrors.WrapStore("list items", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.WrapStore("list items", err)
	}
	return items, nil
}

func (s *Store) UpdateItem(item models.Item) error {
	return s.execOne("update item", "item", item.ID, `
		UPDATE items SET name = ?, kind = ?, polarity = ?, priority = ?,
			archived_at = ?, completed_at = ?
		WHERE id = ?`,
		item.Name, string(item.Kind), string(item.Polarity), item.Priority,
		nullTime(item.ArchivedAt), nullTime(item.CompletedAt), item.ID)
}

func (s *Store) ArchiveItem(id string) error {
	return s.execOne("archive item", "unarchived item", id,
		"UPDATE items SET archived_at = ? WHERE id = ? AND archived_at IS NULL",
		formatTime(time.Now()), id)
}

func (s *Store) UnarchiveItem(id string) error {
	return s.execOne("unarchive item", "archived item", id,
		"UPDATE items SET archived_at = NULL WHERE id = ? AND archived_at IS NOT NULL", id)
}

func (s *Store) DeleteItem(id string) error {
	for _, stmt := range []string{
		"DELETE FROM reward_grants WHERE item_id = ?",
		"DELETE FROM reward_rules WHERE item_id = ?",
		"DELETE FROM log_entries WHERE item_id = ?",
	} {
		if _, err := s.exec(stmt, id); err != nil {
			return apperrors.WrapStore("delete item", err)
		}
	}
	return s.execOne("delete item", "item", id, "DELETE FROM items WHERE id = ?", id)
}

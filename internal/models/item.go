package models

import (
	"time"

	"github.com/julianstephens/habitguard/internal/constants"
)

// Item is a trackable habit or task
type Item struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Kind        constants.ItemKind `json:"kind"`
	Polarity    constants.Polarity `json:"polarity"`
	Priority    int                `json:"priority"`
	CreatedAt   time.Time          `json:"created_at"`
	ArchivedAt  *time.Time         `json:"archived_at,omitempty"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"` // tasks only
}

func (i Item) IsTask() bool     { return i.Kind == constants.ItemKindTask }
func (i Item) IsArchived() bool { return i.ArchivedAt != nil }
func (i Item) IsCompleted() bool {
	return i.Kind == constants.ItemKindTask && i.CompletedAt != nil
}

// LogEntry is the single recorded outcome of an item on a calendar day
type LogEntry struct {
	ItemID    string            `json:"item_id"`
	Day       string            `json:"day"` // YYYY-MM-DD format
	Outcome   constants.Outcome `json:"outcome"`
	Note      string            `json:"note,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (e LogEntry) Success() bool { return e.Outcome == constants.OutcomeSuccess }

// LogMap converts entries into the day -> success mapping used by the streak calculator.
func LogMap(entries []LogEntry) map[string]bool {
	m := make(map[string]bool, len(entries))
	for _, e := range entries {
		m[e.Day] = e.Success()
	}
	return m
}

// GroupEntries splits a batch listing into per-item slices, preserving order.
func GroupEntries(entries []LogEntry) map[string][]LogEntry {
	grouped := make(map[string][]LogEntry)
	for _, e := range entries {
		grouped[e.ItemID] = append(grouped[e.ItemID], e)
	}
	return grouped
}

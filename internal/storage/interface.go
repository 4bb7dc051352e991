package storage

import "github.com/julianstephens/habitguard/internal/models"

// LogStore persists at most one outcome per item per calendar day
type LogStore interface {
	GetEntry(itemID, day string) (models.LogEntry, error)
	// ListEntries returns the item's entries ordered by day.
	ListEntries(itemID string) ([]models.LogEntry, error)
	// ListEntriesForItems is the batch form of ListEntries, ordered by item then day.
	ListEntriesForItems(itemIDs []string) ([]models.LogEntry, error)
	UpsertEntry(models.LogEntry) error
	DeleteEntry(itemID, day string) error
	DeleteAllEntries(itemID string) error
}

// Ledger stores granted reward units. A rule has at most one active
// (unredeemed) grant at a time.
type Ledger interface {
	FindActiveGrant(ruleID string) (models.RewardGrant, error)
	// CreateOrIncrementGrant adds quantity to the rule's active grant, or
	// creates a new grant received on day when none is active.
	CreateOrIncrementGrant(ruleID, itemID string, quantity int, day string) (models.RewardGrant, error)
	DisableRule(ruleID string) error
	DeleteGrantsForItem(itemID string) error
	// WithdrawGrant takes units back from the rule's active grant, deleting
	// it when none remain.
	WithdrawGrant(ruleID string, quantity int) error
	GetGrant(id string) (models.RewardGrant, error)
	// ListActiveGrants returns unredeemed grants, newest first.
	ListActiveGrants() ([]models.RewardGrant, error)
	RedeemGrant(id, day string) error
	RedeemGrantPartial(id string, quantity int, day string) error
}

type ItemStore interface {
	AddItem(models.Item) error
	GetItem(id string) (models.Item, error)
	GetItemByName(name string) (models.Item, error)
	ListItems(includeArchived bool) ([]models.Item, error)
	UpdateItem(models.Item) error
	ArchiveItem(id string) error
	UnarchiveItem(id string) error
	// DeleteItem removes the item with its grants, rules and log entries.
	DeleteItem(id string) error
}

type RuleStore interface {
	AddRule(models.RewardRule) error
	GetRule(id string) (models.RewardRule, error)
	ListRules(itemID string, includeDisabled bool) ([]models.RewardRule, error)
	ListRulesForItems(itemIDs []string, includeDisabled bool) ([]models.RewardRule, error)
	UpdateRule(models.RewardRule) error
}

// Tx is the set of stores available inside one all-or-nothing unit of work
type Tx interface {
	LogStore
	Ledger
	ItemStore
	RuleStore
}

type Provider interface {
	Tx

	// Lifecycle
	Init() error
	Load() error
	Close() error
	// Migrate applies pending schema migrations to an existing database.
	Migrate(logFn func(string)) (int, error)

	// Settings
	GetSettings() (models.Settings, error)
	SaveSettings(models.Settings) error

	// WithTx runs fn in a transaction, committing when fn returns nil.
	WithTx(fn func(Tx) error) error

	// ExportTables returns every row of every application table.
	ExportTables() (map[string][]map[string]any, error)
	SchemaVersion() (int, error)
	LatestSchemaVersion() (int, error)

	// Utils
	GetConfigPath() string
}

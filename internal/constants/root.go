package constants

// ItemKind distinguishes repeatable habits from one-shot tasks
type ItemKind string

// Polarity records whether a habit is one to keep or one to break
type Polarity string

// Outcome is the recorded result of a day for an item
type Outcome int

// RewardKind represents how often a reward rule can fire
type RewardKind string

// SessionState represents the current state of the TUI application
type SessionState int

const (
	AppName            = "habitguard"
	DisplayName        = "Habit Guardian"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/habitguard/habitguard.db"
	Version            = "v0.3.0"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "habitguard-"
	BackupFileSuffix = ".db"

	// Export constants
	ExportFilePrefix = "habitguard-export-"
	ExportFormatJSON = "json"
	ExportFormatYAML = "yaml"

	// Item kinds
	ItemKindHabit ItemKind = "habit"
	ItemKindTask  ItemKind = "task"

	// Polarity
	PolarityGood Polarity = "good"
	PolarityBad  Polarity = "bad"

	// Outcomes are stored as integers, 1=success, 0=slip
	OutcomeSlip    Outcome = 0
	OutcomeSuccess Outcome = 1

	// Reward kinds
	RewardOneTime   RewardKind = "one-time"
	RewardRecurring RewardKind = "recurring"

	// Priority bounds
	MinPriority = 0
	MaxPriority = 5
)

// Session States
const (
	StateItems SessionState = iota
	StateGrants
	StateAddItem
	StateConfirmCancel
)

package models

// Settings represents application-wide settings
type Settings struct {
	Timezone   string `json:"timezone"`    // IANA timezone name, or "Local" for the system timezone
	AutoBackup bool   `json:"auto_backup"` // snapshot the database when the TUI starts
}

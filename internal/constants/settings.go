package constants

const (
	SettingTimezone   = "timezone"
	SettingAutoBackup = "auto_backup"

	DefaultTimezone   = "Local" // Use system local timezone by default
	DefaultAutoBackup = true
)

// Package appinfo provides application identity constants.
// These are used across packages for consistent naming.
package appinfo

const (
	// AppName is the display name of the application.
	AppName = "YardWatch"

	// DirName is the directory name used for storing application data.
	// Location: %LOCALAPPDATA%/yardwatch/ (Windows) or ~/.config/yardwatch/ (other)
	DirName = "yardwatch"

	// ConfigFileName is the configuration file name.
	ConfigFileName = "config.json"

	// SecretsFileName is the secrets file name.
	SecretsFileName = "secrets.json"

	// DatabaseFileName is the SQLite database file name.
	DatabaseFileName = "yardwatch.sqlite"
)

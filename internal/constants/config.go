package constants

// ConfigDirName is the name of the configuration directory in the user's home directory.
const ConfigDirName = "." + ProjectName

// ConfigFileName is the name of the global configuration file.
const ConfigFileName = "config.yaml"

// EnvPrefix is the prefix for environment variables read by the config loader (ZERO_PORT, ...).
const EnvPrefix = "ZERO"

// ConfigDirPath returns the full path to the global configuration directory.
func ConfigDirPath(homeDir string) string {
	return homeDir + "/" + ConfigDirName
}

// ConfigFilePath returns the full path to the global configuration file.
func ConfigFilePath(homeDir string) string {
	return ConfigDirPath(homeDir) + "/" + ConfigFileName
}

// ConfigDirPermissions is the file system permissions for config directory (0750).
const ConfigDirPermissions = 0o750

// ConfigFilePermissions is the file system permissions for config file (0600).
const ConfigFilePermissions = 0o600

// DefaultStorageDirName is the directory, relative to the working directory,
// where the filesystem storage driver keeps volumes.
const DefaultStorageDirName = "zero-storage"

// DefaultPort is the default port of the HTTP facade started by `zero serve`.
const DefaultPort = 8080

// Environment represents the execution environment (e.g., CLI, server).
type Environment string

// Environment types for logger configuration
const (
	Development Environment = "development"
	Production  Environment = "production"
	CLI         Environment = "cli"
)

// OutputFormat selects how service responses are rendered by the CLI.
type OutputFormat string

// Supported output formats.
const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
	OutputYAML OutputFormat = "yaml"
)

// OutputFormats lists the accepted --output values.
func OutputFormats() []OutputFormat {
	return []OutputFormat{OutputText, OutputJSON, OutputYAML}
}

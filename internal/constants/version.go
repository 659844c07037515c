// Package constants defines global constants used throughout zero.
package constants

var version = "0.0.0-development" // Updated by CI/CD pipeline at build time

// GetVersion returns the current version of zero.
func GetVersion() *string {
	return &version
}

// ProjectName is the name of the CLI tool and application
const ProjectName = "zero"

// ProductName is the human readable product name.
const ProductName = "ZeroCloud"

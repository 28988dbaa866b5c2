// Package voxmind provides the version information for voxmind.
package voxmind

// Version is the current version of voxmind.
const Version = "0.1.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}

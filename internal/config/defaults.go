// ABOUTME: Centralized configuration defaults for reader
// ABOUTME: Contains magic numbers and hardcoded values for display and storage

package config

// Display settings
const (
	DefaultListLimit = 20
	DisplayIDLength  = 8
	SeparatorWidth   = 60
	DateFormatShort  = "02 Jan 06 15:04 MST"
	DateFormatLong   = "Mon, 02 Jan 2006 15:04 MST"
)

// Storage settings
const (
	DefaultDirPerms = 0755
)

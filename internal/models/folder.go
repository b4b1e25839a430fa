// ABOUTME: Folder model grouping feeds within one account
// ABOUTME: Folders contain feeds only, never other folders

package models

// Folder groups a subset of an account's feeds. A folder belongs to
// exactly one account and cannot contain other folders.
type Folder struct {
	Name       string
	ExternalID *string // Backend-native identifier
	SyncPaused bool    // When true, refresh skips this folder's feeds
}

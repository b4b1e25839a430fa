// ABOUTME: Account type enumeration and persisted account metadata
// ABOUTME: The account aggregate itself lives in internal/account

package models

import "fmt"

// AccountType selects which sync backend an account is bound to.
// The binding happens once at account construction and never changes.
type AccountType string

const (
	// AccountLocal keeps everything on this machine.
	AccountLocal AccountType = "local"
	// AccountCloud replicates subscriptions and article state to a
	// Charm KV database shared across devices.
	AccountCloud AccountType = "cloud"
	// AccountStream syncs against a Google-Reader-compatible service.
	AccountStream AccountType = "stream"
)

// ParseAccountType validates a config-supplied account type string.
func ParseAccountType(s string) (AccountType, error) {
	switch AccountType(s) {
	case AccountLocal, AccountCloud, AccountStream:
		return AccountType(s), nil
	}
	return "", fmt.Errorf("unknown account type: %q", s)
}

// AccountMeta is the persisted, mutable metadata of an account.
// The ID is globally unique and immutable.
type AccountMeta struct {
	ID          string      `json:"id"`
	Type        AccountType `json:"type"`
	Name        string      `json:"name"`
	Active      bool        `json:"active"`
	Username    string      `json:"username,omitempty"`
	EndpointURL string      `json:"endpoint_url,omitempty"`
	BlockTerms  []string    `json:"block_terms,omitempty"`
}

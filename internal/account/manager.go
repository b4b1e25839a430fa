// ABOUTME: AccountManager fans account-wide operations out over all accounts
// ABOUTME: Inactive accounts are skipped; per-account failures don't stop the rest

package account

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Manager owns the set of configured accounts.
type Manager struct {
	mu       sync.Mutex
	accounts map[string]*Account
}

// NewManager constructs an empty manager.
func NewManager() *Manager {
	return &Manager{accounts: make(map[string]*Account)}
}

// Add registers an account.
func (m *Manager) Add(a *Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.ID()] = a
}

// Account returns the account with the given ID.
func (m *Manager) Account(id string) (*Account, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	return a, ok
}

// Accounts returns all registered accounts, sorted by name.
func (m *Manager) Accounts() []*Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// ActiveAccounts returns the accounts that participate in refresh-all.
func (m *Manager) ActiveAccounts() []*Account {
	var out []*Account
	for _, a := range m.Accounts() {
		if a.Active() {
			out = append(out, a)
		}
	}
	return out
}

// RefreshAll refreshes every active account concurrently. Accounts
// sync independently: each one's error is collected, and the first is
// returned after all have finished.
func (m *Manager) RefreshAll(ctx context.Context) error {
	var g errgroup.Group
	for _, a := range m.ActiveAccounts() {
		g.Go(func() error {
			if err := a.RefreshAll(ctx); err != nil {
				return fmt.Errorf("account %s: %w", a.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

// SyncArticleStatuses pushes pending status changes for every active
// account.
func (m *Manager) SyncArticleStatuses(ctx context.Context) error {
	var g errgroup.Group
	for _, a := range m.ActiveAccounts() {
		g.Go(func() error {
			if err := a.SyncArticleStatus(ctx); err != nil {
				return fmt.Errorf("account %s: %w", a.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Close closes every account's store.
func (m *Manager) Close() error {
	var first error
	for _, a := range m.Accounts() {
		if err := a.Store().Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ABOUTME: Root Cobra command and global flags
// ABOUTME: Loads config and builds the account manager for subcommands

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/harper/reader/internal/account"
	"github.com/harper/reader/internal/config"
	"github.com/harper/reader/internal/models"
)

var (
	accountFlag string
	verboseFlag bool

	cfg       *config.Config
	manager   *account.Manager
	appLogger *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "reader",
	Short: "Feed reader with multi-account sync",
	Long: `
██████╗ ███████╗ █████╗ ██████╗ ███████╗██████╗
██╔══██╗██╔════╝██╔══██╗██╔══██╗██╔════╝██╔══██╗
██████╔╝█████╗  ███████║██║  ██║█████╗  ██████╔╝
██╔══██╗██╔══╝  ██╔══██║██║  ██║██╔══╝  ██╔══██╗
██║  ██║███████╗██║  ██║██████╔╝███████╗██║  ██║
╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝╚═════╝ ╚══════╝╚═╝  ╚═╝

RSS/Atom reader that syncs read and starred state across
local, Charm-replicated, and Google Reader compatible accounts.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		appLogger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "reader"})
		if verboseFlag {
			appLogger.SetLevel(log.DebugLevel)
		} else {
			appLogger.SetLevel(log.WarnLevel)
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		manager, err = cfg.BuildManager(appLogger)
		if err != nil {
			return fmt.Errorf("failed to open accounts: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if manager != nil {
			if err := manager.Close(); err != nil {
				return fmt.Errorf("failed to close accounts: %w", err)
			}
		}
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&accountFlag, "account", "A", "", "account name (default: the only/first active account)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "verbose logging")
}

// currentAccount resolves the account a command operates on: the
// --account flag if set, otherwise the single configured account,
// otherwise the first active one.
func currentAccount() (*account.Account, error) {
	accounts := manager.Accounts()
	if len(accounts) == 0 {
		return nil, fmt.Errorf("no accounts configured")
	}
	if accountFlag != "" {
		for _, a := range accounts {
			if a.Name() == accountFlag || a.ID() == accountFlag {
				return a, nil
			}
		}
		return nil, fmt.Errorf("account %q not found", accountFlag)
	}
	if len(accounts) == 1 {
		return accounts[0], nil
	}
	for _, a := range accounts {
		if a.Active() {
			return a, nil
		}
	}
	return accounts[0], nil
}

// resolveFeed finds a feed by URL, exact ID, or ID prefix (min 6 chars).
func resolveFeed(a *account.Account, ref string) (*models.Feed, error) {
	if feed, ok := a.FeedByURL(ref); ok {
		return feed, nil
	}
	if feed, ok := a.FeedByID(ref); ok {
		return feed, nil
	}
	if len(ref) >= 6 {
		var matches []*models.Feed
		for _, feed := range a.Feeds() {
			if strings.HasPrefix(feed.ID, ref) {
				matches = append(matches, feed)
			}
		}
		if len(matches) == 1 {
			return matches[0], nil
		}
		if len(matches) > 1 {
			return nil, fmt.Errorf("ambiguous feed reference %q matches %d feeds", ref, len(matches))
		}
	}
	return nil, fmt.Errorf("feed not found: %s", ref)
}

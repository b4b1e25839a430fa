// ABOUTME: Refresh command syncing all active accounts
// ABOUTME: One-shot by default; --watch keeps refreshing on a cron schedule

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/harper/reader/internal/account"
)

var refreshCmd = &cobra.Command{
	Use:     "refresh",
	Aliases: []string{"sync", "r"},
	Short:   "Refresh feeds and sync statuses",
	Long:    "Fetch new articles and reconcile read/starred state for every active account, or one account with --account.",
	RunE: func(cmd *cobra.Command, args []string) error {
		watch, _ := cmd.Flags().GetBool("watch")
		schedule, _ := cmd.Flags().GetString("schedule")

		run := func() error {
			if accountFlag != "" {
				a, err := currentAccount()
				if err != nil {
					return err
				}
				return refreshOne(cmd, a)
			}
			var firstErr error
			for _, a := range manager.ActiveAccounts() {
				if err := refreshOne(cmd, a); err != nil && firstErr == nil {
					firstErr = err
				}
			}
			return firstErr
		}

		if !watch {
			return run()
		}

		c := cron.New()
		if _, err := c.AddFunc(schedule, func() {
			if err := run(); err != nil {
				appLogger.Error("scheduled refresh failed", "err", err)
			}
		}); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", schedule, err)
		}
		fmt.Printf("Watching, refreshing on schedule %q (ctrl-c to stop)\n", schedule)
		if err := run(); err != nil {
			appLogger.Error("initial refresh failed", "err", err)
		}
		c.Run()
		return nil
	},
}

func refreshOne(cmd *cobra.Command, a *account.Account) error {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	downloaded := 0
	unsubscribe := a.Events().Subscribe(func(e account.Event) {
		if d, ok := e.(account.ArticlesDownloaded); ok {
			downloaded += len(d.New)
		}
	})
	defer unsubscribe()

	fmt.Printf("Refreshing %s...\n", a.Name())
	if err := a.RefreshAll(cmd.Context()); err != nil {
		fmt.Printf("  %s %v\n", red("error:"), err)
		return err
	}
	fmt.Printf("  %s %d new article(s), %d unread\n", green("done:"), downloaded, a.UnreadIndex().Total())
	return nil
}

func init() {
	rootCmd.AddCommand(refreshCmd)
	refreshCmd.Flags().BoolP("watch", "w", false, "keep running, refreshing on a schedule")
	refreshCmd.Flags().String("schedule", "@every 30m", "cron schedule for --watch")
}

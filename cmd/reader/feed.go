// ABOUTME: Feed management commands: add, remove, rename, move, list
// ABOUTME: Subscription changes go through the account so backends stay in sync

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harper/reader/internal/config"
	"github.com/harper/reader/internal/discover"
)

var feedCmd = &cobra.Command{
	Use:     "feed",
	Aliases: []string{"feeds", "f"},
	Short:   "Manage feed subscriptions",
}

var feedAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Subscribe to a feed",
	Long:  "Subscribe to a feed by URL. Non-feed URLs are probed for a linked feed unless --no-discover is set.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url := args[0]
		folder, _ := cmd.Flags().GetString("folder")
		title, _ := cmd.Flags().GetString("title")
		noDiscover, _ := cmd.Flags().GetBool("no-discover")

		a, err := currentAccount()
		if err != nil {
			return err
		}

		if !noDiscover {
			if found, err := discover.Discover(cmd.Context(), url); err == nil {
				if found.URL != url {
					fmt.Printf("Discovered feed: %s\n", found.URL)
				}
				url = found.URL
				if title == "" {
					title = found.Title
				}
			}
		}

		feed, err := a.AddFeed(cmd.Context(), url, title, folder)
		if err != nil {
			return fmt.Errorf("failed to add feed: %w", err)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s %s\n", green("Subscribed:"), feed.DisplayName())
		if feed.Folder != "" {
			fmt.Printf("  folder: %s\n", feed.Folder)
		}
		return nil
	},
}

var feedListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List subscribed feeds",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := currentAccount()
		if err != nil {
			return err
		}

		feeds := a.Feeds()
		if len(feeds) == 0 {
			fmt.Println("No feeds. Add one with: reader feed add <url>")
			return nil
		}

		faint := color.New(color.Faint).SprintFunc()
		for _, feed := range feeds {
			idShort := feed.ID
			if len(idShort) > config.DisplayIDLength {
				idShort = idShort[:config.DisplayIDLength]
			}
			fmt.Print(faint(idShort), " ")

			if n := a.UnreadIndex().Count(feed.ID); n > 0 {
				fmt.Printf("(%d) ", n)
			}
			fmt.Print(feed.DisplayName())
			if feed.Folder != "" {
				fmt.Print(" ", faint("["+feed.Folder+"]"))
			}
			if feed.LastError != nil {
				fmt.Print(" ", color.New(color.FgRed).Sprint("!"))
			}
			fmt.Println()
		}
		return nil
	},
}

var feedRemoveCmd = &cobra.Command{
	Use:     "remove <url-or-id>",
	Aliases: []string{"rm"},
	Short:   "Unsubscribe from a feed",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := currentAccount()
		if err != nil {
			return err
		}
		feed, err := resolveFeed(a, args[0])
		if err != nil {
			return err
		}
		if err := a.RemoveFeed(cmd.Context(), feed.ID); err != nil {
			return fmt.Errorf("failed to remove feed: %w", err)
		}
		fmt.Printf("Unsubscribed: %s\n", feed.DisplayName())
		return nil
	},
}

var feedRenameCmd = &cobra.Command{
	Use:   "rename <url-or-id> <name>",
	Short: "Rename a feed",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := currentAccount()
		if err != nil {
			return err
		}
		feed, err := resolveFeed(a, args[0])
		if err != nil {
			return err
		}
		if err := a.RenameFeed(cmd.Context(), feed.ID, args[1]); err != nil {
			return fmt.Errorf("failed to rename feed: %w", err)
		}
		fmt.Printf("Renamed to: %s\n", args[1])
		return nil
	},
}

var feedMoveCmd = &cobra.Command{
	Use:   "move <url-or-id> <folder>",
	Short: "Move a feed into a folder (empty name moves to top level)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := currentAccount()
		if err != nil {
			return err
		}
		feed, err := resolveFeed(a, args[0])
		if err != nil {
			return err
		}
		if err := a.MoveFeed(cmd.Context(), feed.ID, args[1]); err != nil {
			return fmt.Errorf("failed to move feed: %w", err)
		}
		if args[1] == "" {
			fmt.Printf("Moved %s to top level\n", feed.DisplayName())
		} else {
			fmt.Printf("Moved %s to %s\n", feed.DisplayName(), args[1])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(feedCmd)
	feedCmd.AddCommand(feedAddCmd)
	feedCmd.AddCommand(feedListCmd)
	feedCmd.AddCommand(feedRemoveCmd)
	feedCmd.AddCommand(feedRenameCmd)
	feedCmd.AddCommand(feedMoveCmd)

	feedAddCmd.Flags().StringP("folder", "d", "", "folder to place the feed in")
	feedAddCmd.Flags().StringP("title", "t", "", "override the feed title")
	feedAddCmd.Flags().Bool("no-discover", false, "treat the URL as a feed directly, skip discovery")
}

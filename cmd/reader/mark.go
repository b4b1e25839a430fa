// ABOUTME: Status commands: mark-read, mark-unread, star, unstar
// ABOUTME: Batch marks report how many articles actually changed

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/reader/internal/models"
)

func markArticles(cmd *cobra.Command, args []string, key models.StatusKey, flag bool, verb string) error {
	feedRef, _ := cmd.Flags().GetString("feed")
	allFlag, _ := cmd.Flags().GetBool("all")

	a, err := currentAccount()
	if err != nil {
		return err
	}

	var ids []string
	switch {
	case feedRef != "":
		feed, err := resolveFeed(a, feedRef)
		if err != nil {
			return err
		}
		articles, err := a.FetchUnread(feed.ID, 0)
		if err != nil {
			return err
		}
		for _, article := range articles {
			ids = append(ids, article.ID)
		}
	case allFlag:
		articles, err := a.FetchUnread("", 0)
		if err != nil {
			return err
		}
		for _, article := range articles {
			ids = append(ids, article.ID)
		}
	default:
		if len(args) == 0 {
			return fmt.Errorf("provide article IDs, --feed, or --all")
		}
		for _, ref := range args {
			article, err := resolveArticle(a, ref)
			if err != nil {
				return err
			}
			ids = append(ids, article.ID)
		}
	}

	changed, err := a.Mark(ids, key, flag)
	if err != nil {
		return fmt.Errorf("failed to mark articles: %w", err)
	}
	if len(changed) == 0 {
		fmt.Println("Nothing to do")
		return nil
	}
	fmt.Printf("%s %d article(s)\n", verb, len(changed))
	return nil
}

var markReadCmd = &cobra.Command{
	Use:   "mark-read [article-id...]",
	Short: "Mark articles as read",
	Long:  "Mark specific articles, a whole feed (--feed), or everything (--all) as read.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return markArticles(cmd, args, models.StatusRead, true, "Marked read:")
	},
}

var markUnreadCmd = &cobra.Command{
	Use:   "mark-unread <article-id>...",
	Short: "Mark articles as unread",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return markArticles(cmd, args, models.StatusRead, false, "Marked unread:")
	},
}

var starCmd = &cobra.Command{
	Use:   "star <article-id>...",
	Short: "Star articles",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return markArticles(cmd, args, models.StatusStarred, true, "Starred:")
	},
}

var unstarCmd = &cobra.Command{
	Use:   "unstar <article-id>...",
	Short: "Unstar articles",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return markArticles(cmd, args, models.StatusStarred, false, "Unstarred:")
	},
}

func init() {
	rootCmd.AddCommand(markReadCmd)
	rootCmd.AddCommand(markUnreadCmd)
	rootCmd.AddCommand(starCmd)
	rootCmd.AddCommand(unstarCmd)

	markReadCmd.Flags().StringP("feed", "f", "", "mark a whole feed read")
	markReadCmd.Flags().BoolP("all", "a", false, "mark everything read")
}

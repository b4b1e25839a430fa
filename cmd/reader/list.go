// ABOUTME: List command for viewing articles with smart-view filtering
// ABOUTME: Displays unread by default with read status, title, and date

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harper/reader/internal/account"
	"github.com/harper/reader/internal/config"
	"github.com/harper/reader/internal/models"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "l"},
	Short:   "List articles",
	Long:    "List unread articles by default, or a smart view with --starred, --today, --week, --all, --feed, --folder, or --search.",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		starred, _ := cmd.Flags().GetBool("starred")
		today, _ := cmd.Flags().GetBool("today")
		week, _ := cmd.Flags().GetBool("week")
		feedRef, _ := cmd.Flags().GetString("feed")
		folderName, _ := cmd.Flags().GetString("folder")
		search, _ := cmd.Flags().GetString("search")
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := currentAccount()
		if err != nil {
			return err
		}

		var articles []*models.Article
		switch {
		case search != "":
			articles, err = a.Search(search, limit)
		case starred:
			articles, err = a.FetchStarred(limit)
		case today:
			articles, err = a.FetchToday(limit)
		case week:
			articles, err = a.FetchWeek(limit)
		case folderName != "":
			articles, err = a.FetchFolder(folderName, limit)
		case feedRef != "":
			var feed *models.Feed
			feed, err = resolveFeed(a, feedRef)
			if err != nil {
				return err
			}
			if all {
				articles, err = a.FetchFeed(feed.ID, limit)
			} else {
				articles, err = a.FetchUnread(feed.ID, limit)
			}
		case all:
			articles, err = a.FetchAll(limit)
		default:
			articles, err = a.FetchUnread("", limit)
		}
		if err != nil {
			return fmt.Errorf("failed to list articles: %w", err)
		}

		if len(articles) == 0 {
			fmt.Println("No articles found")
			return nil
		}

		printArticles(a, articles)
		return nil
	},
}

func printArticles(a *account.Account, articles []*models.Article) {
	faint := color.New(color.Faint).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	for _, article := range articles {
		idShort := article.ID
		if len(idShort) > config.DisplayIDLength {
			idShort = idShort[:config.DisplayIDLength]
		}
		fmt.Print(faint(idShort), " ")

		if article.Status.Read {
			fmt.Print("✓ ")
		} else {
			fmt.Print("  ")
		}
		if article.Status.Starred {
			fmt.Print(yellow("★ "))
		}

		fmt.Print(article.DisplayTitle())

		if feed, ok := a.FeedByID(article.FeedID); ok {
			fmt.Print(" ", faint("· "+feed.DisplayName()))
		}
		if article.PublishedAt != nil {
			fmt.Print(" ", faint(article.PublishedAt.Format(config.DateFormatShort)))
		}
		fmt.Println()
	}
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolP("all", "a", false, "include read articles")
	listCmd.Flags().BoolP("starred", "s", false, "show starred articles")
	listCmd.Flags().Bool("today", false, "show articles that arrived today")
	listCmd.Flags().Bool("week", false, "show articles that arrived this week")
	listCmd.Flags().StringP("feed", "f", "", "filter by feed URL or ID prefix")
	listCmd.Flags().StringP("folder", "d", "", "filter by folder")
	listCmd.Flags().StringP("search", "q", "", "full-text search titles and bodies")
	listCmd.Flags().IntP("limit", "n", config.DefaultListLimit, "max articles to show")

	listCmd.MarkFlagsMutuallyExclusive("starred", "today", "week", "search")
	listCmd.MarkFlagsMutuallyExclusive("feed", "folder")
}

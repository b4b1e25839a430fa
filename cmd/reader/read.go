// ABOUTME: Read command for viewing article content
// ABOUTME: Renders markdown with glamour and marks the article read

package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harper/reader/internal/account"
	"github.com/harper/reader/internal/config"
	"github.com/harper/reader/internal/content"
	"github.com/harper/reader/internal/models"
)

var readCmd = &cobra.Command{
	Use:   "read <article-id>",
	Short: "Read an article",
	Long:  "Display the full content of an article and mark it as read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		noMark, _ := cmd.Flags().GetBool("no-mark")

		a, err := currentAccount()
		if err != nil {
			return err
		}

		article, err := resolveArticle(a, args[0])
		if err != nil {
			return err
		}

		bold := color.New(color.Bold).SprintFunc()
		faint := color.New(color.Faint).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()

		fmt.Println(strings.Repeat("─", config.SeparatorWidth))
		fmt.Printf("%s\n\n", bold(article.DisplayTitle()))

		if feed, ok := a.FeedByID(article.FeedID); ok {
			fmt.Printf("%s %s\n", faint("Feed:"), feed.DisplayName())
		}
		if article.Author != nil && *article.Author != "" {
			fmt.Printf("%s %s\n", faint("Author:"), *article.Author)
		}
		if article.PublishedAt != nil {
			fmt.Printf("%s %s\n", faint("Published:"), article.PublishedAt.Format(config.DateFormatLong))
		}
		if article.Link != nil {
			fmt.Printf("%s %s\n", faint("Link:"), cyan(*article.Link))
		}
		fmt.Println(strings.Repeat("─", config.SeparatorWidth))

		if article.Body != nil && *article.Body != "" {
			markdown := content.ToMarkdown(*article.Body)
			rendered, err := glamour.Render(markdown, "dark")
			if err != nil {
				fmt.Printf("%s\n", faint("(markdown rendering unavailable, showing plain text)"))
				fmt.Printf("\n%s\n", markdown)
			} else {
				fmt.Print(rendered)
			}
		} else {
			fmt.Println("\n(No content available)")
		}
		fmt.Println()

		if !noMark && !article.Status.Read {
			if _, err := a.Mark([]string{article.ID}, models.StatusRead, true); err != nil {
				return fmt.Errorf("failed to mark as read: %w", err)
			}
			fmt.Printf("%s\n", faint("Marked as read"))
		}
		return nil
	},
}

// resolveArticle finds an article by exact ID or ID prefix.
func resolveArticle(a *account.Account, ref string) (*models.Article, error) {
	if article, err := a.Article(ref); err == nil {
		return article, nil
	}
	if len(ref) >= 6 {
		matches, err := a.FetchAll(0)
		if err != nil {
			return nil, err
		}
		var found []*models.Article
		for _, article := range matches {
			if strings.HasPrefix(article.ID, ref) {
				found = append(found, article)
			}
		}
		if len(found) == 1 {
			return found[0], nil
		}
		if len(found) > 1 {
			return nil, fmt.Errorf("ambiguous article reference %q matches %d articles", ref, len(found))
		}
	}
	return nil, fmt.Errorf("article not found: %s", ref)
}

func init() {
	rootCmd.AddCommand(readCmd)
	readCmd.Flags().Bool("no-mark", false, "do not mark the article as read")
}

// ABOUTME: Account management commands
// ABOUTME: List, add, remove, and toggle sync accounts in the config

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/harper/reader/internal/models"
)

var accountCmd = &cobra.Command{
	Use:     "account",
	Aliases: []string{"accounts"},
	Short:   "Manage sync accounts",
}

var accountListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List configured accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		accounts := manager.Accounts()
		if len(accounts) == 0 {
			fmt.Println("No accounts configured.")
			return nil
		}

		faint := color.New(color.Faint).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		for _, a := range accounts {
			status := ""
			if !a.Active() {
				status = red(" (inactive)")
			}
			fmt.Printf("%s  %s %s%s  %s\n",
				faint(a.ID()[:8]),
				a.Name(),
				faint("["+string(a.Type())+"]"),
				status,
				faint(fmt.Sprintf("%d unread", a.UnreadIndex().Total())))
		}
		return nil
	},
}

var accountAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a new account",
	Long: `Add a new sync account.

For stream accounts pass --endpoint and --username; the password is
read from the READER_PASSWORD_<NAME> environment variable at sync time.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		typeStr, _ := cmd.Flags().GetString("type")
		endpoint, _ := cmd.Flags().GetString("endpoint")
		username, _ := cmd.Flags().GetString("username")

		accountType, err := models.ParseAccountType(typeStr)
		if err != nil {
			return err
		}
		if accountType == models.AccountStream {
			if endpoint == "" || username == "" {
				return fmt.Errorf("stream accounts require --endpoint and --username")
			}
		}

		meta := models.AccountMeta{
			ID:          uuid.New().String(),
			Type:        accountType,
			Name:        args[0],
			Active:      true,
			Username:    username,
			EndpointURL: endpoint,
		}
		if err := cfg.AddAccount(meta); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Added %s account %q\n", green("✓"), accountType, meta.Name)
		return nil
	},
}

var accountRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove an account",
	Long:    "Remove an account from the config. The local database file is left in place.",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RemoveAccount(args[0]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Printf("Removed account %q\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(accountCmd)
	accountCmd.AddCommand(accountListCmd)
	accountCmd.AddCommand(accountAddCmd)
	accountCmd.AddCommand(accountRemoveCmd)

	accountAddCmd.Flags().StringP("type", "t", "local", "account type (local, cloud, stream)")
	accountAddCmd.Flags().String("endpoint", "", "service endpoint URL (stream accounts)")
	accountAddCmd.Flags().StringP("username", "u", "", "service username (stream accounts)")
}

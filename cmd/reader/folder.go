// ABOUTME: Folder management commands: list, add, rename, remove, pause, resume
// ABOUTME: Folders are flat containers; removal moves feeds to the top level

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var folderCmd = &cobra.Command{
	Use:     "folder",
	Aliases: []string{"folders"},
	Short:   "Manage folders",
}

var folderListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List folders and their feed counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := currentAccount()
		if err != nil {
			return err
		}
		folders := a.Folders()
		if len(folders) == 0 {
			fmt.Println("No folders")
			return nil
		}
		faint := color.New(color.Faint).SprintFunc()
		for _, folder := range folders {
			count := len(a.FeedsInFolder(folder.Name))
			fmt.Printf("%s %s\n", folder.Name, faint(fmt.Sprintf("(%d feeds)", count)))
			if folder.SyncPaused {
				fmt.Printf("  %s\n", faint("sync paused"))
			}
		}
		return nil
	},
}

var folderAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := currentAccount()
		if err != nil {
			return err
		}
		if _, err := a.AddFolder(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to add folder: %w", err)
		}
		fmt.Printf("Created folder: %s\n", args[0])
		return nil
	},
}

var folderRenameCmd = &cobra.Command{
	Use:   "rename <old> <new>",
	Short: "Rename a folder",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := currentAccount()
		if err != nil {
			return err
		}
		if err := a.RenameFolder(cmd.Context(), args[0], args[1]); err != nil {
			return fmt.Errorf("failed to rename folder: %w", err)
		}
		fmt.Printf("Renamed %s to %s\n", args[0], args[1])
		return nil
	},
}

var folderRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a folder, moving its feeds to the top level",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := currentAccount()
		if err != nil {
			return err
		}
		if err := a.RemoveFolder(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to remove folder: %w", err)
		}
		fmt.Printf("Removed folder: %s\n", args[0])
		return nil
	},
}

var folderPauseCmd = &cobra.Command{
	Use:   "pause <name>",
	Short: "Skip a folder's feeds during refresh",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := currentAccount()
		if err != nil {
			return err
		}
		if err := a.SetFolderSyncPaused(args[0], true); err != nil {
			return fmt.Errorf("failed to pause folder: %w", err)
		}
		fmt.Printf("Paused: %s\n", args[0])
		return nil
	},
}

var folderResumeCmd = &cobra.Command{
	Use:   "resume <name>",
	Short: "Resume refreshing a paused folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := currentAccount()
		if err != nil {
			return err
		}
		if err := a.SetFolderSyncPaused(args[0], false); err != nil {
			return fmt.Errorf("failed to resume folder: %w", err)
		}
		fmt.Printf("Resumed: %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(folderCmd)
	folderCmd.AddCommand(folderListCmd)
	folderCmd.AddCommand(folderAddCmd)
	folderCmd.AddCommand(folderRenameCmd)
	folderCmd.AddCommand(folderRemoveCmd)
	folderCmd.AddCommand(folderPauseCmd)
	folderCmd.AddCommand(folderResumeCmd)
}

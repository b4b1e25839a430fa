// ABOUTME: OPML import and export commands
// ABOUTME: Round-trips subscriptions with folder structure preserved

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harper/reader/internal/opml"
)

var opmlCmd = &cobra.Command{
	Use:   "opml",
	Short: "Import and export subscriptions as OPML",
}

var opmlImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import subscriptions from an OPML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := currentAccount()
		if err != nil {
			return err
		}

		doc, err := opml.ParseFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to parse OPML: %w", err)
		}

		added, err := a.ImportOPML(cmd.Context(), doc)
		if err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Imported %d feed(s) into %s\n", green("✓"), added, a.Name())
		return nil
	},
}

var opmlExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export subscriptions to an OPML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := currentAccount()
		if err != nil {
			return err
		}

		doc := opml.NewDocument(a.Name() + " subscriptions")
		for _, f := range a.Folders() {
			if err := doc.AddFolder(f.Name); err != nil {
				return err
			}
		}
		count := 0
		for _, f := range a.Feeds() {
			if err := doc.AddFeed(f.URL, f.DisplayName(), f.Folder); err != nil {
				return err
			}
			count++
		}

		if err := doc.WriteFile(args[0]); err != nil {
			return fmt.Errorf("failed to write OPML: %w", err)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Exported %d feed(s) to %s\n", green("✓"), count, args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(opmlCmd)
	opmlCmd.AddCommand(opmlImportCmd)
	opmlCmd.AddCommand(opmlExportCmd)
}

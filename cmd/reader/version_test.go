// ABOUTME: Tests for version command
// ABOUTME: Checks build-time variables carry usable defaults

package main

import "testing"

func TestVersionDefaults(t *testing.T) {
	for name, value := range map[string]string{
		"Version":   Version,
		"Commit":    Commit,
		"BuildDate": BuildDate,
	} {
		if value == "" {
			t.Errorf("%s has no default", name)
		}
	}
}

func TestVersionCommandUse(t *testing.T) {
	if versionCmd.Use != "version" {
		t.Errorf("Use = %q, want %q", versionCmd.Use, "version")
	}
	if versionCmd.Short == "" {
		t.Error("version command has no short description")
	}
}

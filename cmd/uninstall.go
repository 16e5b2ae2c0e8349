package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func (a *app) uninstallHooksCmd() *cobra.Command {
	var (
		agent         bool
		agentSettings string
		purge         bool
	)
	cmd := &cobra.Command{
		Use:   "uninstall-hooks",
		Short: "Remove git-attrib's git hooks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, st, err := a.openRepo(cmd.Context())
			if err != nil {
				return err
			}
			var removed []string
			for _, h := range gitHooks {
				cleanGitHook(st.Paths().HooksDir(), h, &removed)
			}
			if agent {
				ok, err := uninstallAgentHook(agentSettings)
				if err != nil {
					return err
				}
				if ok {
					removed = append(removed, "agent hook in "+agentSettings)
				}
			}
			if purge {
				if info, err := os.Stat(st.Paths().CacheDir); err == nil && info.IsDir() {
					if err := os.RemoveAll(st.Paths().CacheDir); err != nil {
						return err
					}
					removed = append(removed, relToRepo(repo.Workdir(), st.Paths().CacheDir)+"/")
				}
			}

			if len(removed) == 0 {
				fmt.Fprintln(a.stdout, "git-attrib hooks are not installed in this repo.")
				return nil
			}
			for _, item := range removed {
				fmt.Fprintf(a.stdout, "  Removed %s\n", item)
			}
			fmt.Fprintln(a.stdout)
			fmt.Fprintln(a.stdout, "Authorship notes are kept; run 'git-attrib install-hooks' to re-enable.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&agent, "agent", false, "also remove the agent-edit hook from the agent's settings")
	cmd.Flags().StringVar(&agentSettings, "agent-settings", defaultAgentSettings(), "agent settings file to update")
	cmd.Flags().BoolVar(&purge, "purge", false, "also delete working logs, the index and debug logs")
	return cmd
}

func relToRepo(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}

// cleanGitHook removes h's block from its hook script, deleting the
// script when nothing else is left in it.
func cleanGitHook(hooksDir string, h gitHook, removed *[]string) {
	hookFile := filepath.Join(hooksDir, h.name)
	data, err := os.ReadFile(hookFile)
	if err != nil {
		return
	}
	content := string(data)
	if !strings.Contains(content, h.marker) {
		return
	}

	var cleaned []string
	skip := false
	for _, line := range strings.Split(content, "\n") {
		if strings.Contains(line, h.marker) {
			skip = true
			if len(cleaned) > 0 && strings.TrimSpace(cleaned[len(cleaned)-1]) == "" {
				cleaned = cleaned[:len(cleaned)-1]
			}
			continue
		}
		if skip {
			stripped := strings.TrimSpace(line)
			if strings.HasPrefix(stripped, "git-attrib ") ||
				strings.HasPrefix(stripped, "if command -v git-attrib") ||
				stripped == "fi" {
				continue
			}
			skip = false
		}
		cleaned = append(cleaned, line)
	}

	remaining := strings.TrimSpace(strings.Join(cleaned, "\n"))
	if remaining == "" || remaining == "#!/bin/sh" || remaining == "#!/usr/bin/env bash" {
		_ = os.Remove(hookFile)
		*removed = append(*removed, fmt.Sprintf(".git/hooks/%s (deleted)", h.name))
		return
	}
	_ = os.WriteFile(hookFile, []byte(strings.Join(cleaned, "\n")), 0o755)
	*removed = append(*removed, fmt.Sprintf(".git/hooks/%s (cleaned)", h.name))
}

// uninstallAgentHook drops the agent-edit registration. It reports
// whether anything was removed.
func uninstallAgentHook(settingsFile string) (bool, error) {
	if settingsFile == "" {
		return false, nil
	}
	if _, err := os.Stat(settingsFile); err != nil {
		return false, nil
	}
	settings, err := readSettings(settingsFile)
	if err != nil {
		return false, err
	}
	hooks, _ := settings["hooks"].(map[string]interface{})
	existing, _ := hooks["PostToolUse"].([]interface{})
	filtered := filterHookEntries(hooks, "PostToolUse", agentHookCommand)
	if len(filtered) == len(existing) {
		return false, nil
	}
	if len(filtered) == 0 {
		delete(hooks, "PostToolUse")
	} else {
		hooks["PostToolUse"] = filtered
	}
	return true, writeSettings(settingsFile, settings)
}

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const agentHookCommand = "hook agent-edit"

// gitHook is a block git-attrib owns inside a git hook script.
type gitHook struct {
	name    string
	marker  string
	command string
}

var gitHooks = []gitHook{
	{"post-commit", "# git-attrib: finalize attribution", "git-attrib hook post-commit"},
	{"pre-push", "# git-attrib: push authorship notes", `git-attrib hook pre-push "$@"`},
	{"post-checkout", "# git-attrib: move attribution to the new HEAD", `git-attrib hook post-checkout "$@"`},
}

func defaultAgentSettings() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".claude", "settings.json")
}

func (a *app) installHooksCmd() *cobra.Command {
	var (
		agent         bool
		agentSettings string
	)
	cmd := &cobra.Command{
		Use:   "install-hooks",
		Short: "Install git hooks that finalize attribution and push notes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, st, err := a.openRepo(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Installing git-attrib in %s\n", repo.Workdir())
			if err := os.MkdirAll(st.Paths().LogDir, 0o755); err != nil {
				return err
			}
			for _, h := range gitHooks {
				msg, err := installGitHook(st.Paths().HooksDir(), h)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "  ✓ %s\n", msg)
			}
			if agent {
				if err := installAgentHook(a.stdout, agentSettings); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&agent, "agent", false, "also register the agent-edit hook in the agent's settings")
	cmd.Flags().StringVar(&agentSettings, "agent-settings", defaultAgentSettings(), "agent settings file to update")
	return cmd
}

// installGitHook adds h's block to its hook script, creating the script
// when it does not exist.
func installGitHook(hooksDir string, h gitHook) (string, error) {
	path := filepath.Join(hooksDir, h.name)
	block := fmt.Sprintf("\n%s\nif command -v git-attrib >/dev/null 2>&1; then\n    %s || true\nfi\n", h.marker, h.command)

	data, err := os.ReadFile(path)
	if err == nil && strings.Contains(string(data), h.marker) {
		return h.name + " hook already installed", nil
	}
	if err := os.MkdirAll(hooksDir, 0o755); err != nil {
		return "", err
	}
	if err == nil {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o755)
		if err != nil {
			return "", err
		}
		defer f.Close()
		if _, err := f.WriteString(block); err != nil {
			return "", err
		}
		return "appended to existing " + h.name + " hook", nil
	}
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+block), 0o755); err != nil {
		return "", err
	}
	return "installed " + h.name + " hook", nil
}

// installAgentHook registers "git-attrib hook agent-edit" as a PostToolUse
// hook for file-editing tools, replacing any earlier registration.
func installAgentHook(w io.Writer, settingsFile string) error {
	if settingsFile == "" {
		return fmt.Errorf("no agent settings file")
	}
	binaryPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("could not determine binary path: %w", err)
	}
	settings, err := readSettings(settingsFile)
	if err != nil {
		return err
	}
	hooks, _ := settings["hooks"].(map[string]interface{})
	if hooks == nil {
		hooks = map[string]interface{}{}
	}
	postTool := filterHookEntries(hooks, "PostToolUse", agentHookCommand)
	postTool = append(postTool, map[string]interface{}{
		"matcher": "Edit|Write|MultiEdit",
		"hooks": []interface{}{map[string]interface{}{
			"type":    "command",
			"command": binaryPath + " " + agentHookCommand,
		}},
	})
	hooks["PostToolUse"] = postTool
	settings["hooks"] = hooks

	if err := writeSettings(settingsFile, settings); err != nil {
		return err
	}
	fmt.Fprintf(w, "  ✓ agent hook configured in %s\n", settingsFile)
	return nil
}

func readSettings(path string) (map[string]interface{}, error) {
	settings := map[string]interface{}{}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return settings, nil
	}
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return settings, nil
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return settings, nil
}

func writeSettings(path string, settings map[string]interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

// filterHookEntries returns the entries under key whose commands do not
// contain exclude.
func filterHookEntries(hooks map[string]interface{}, key, exclude string) []interface{} {
	existing, _ := hooks[key].([]interface{})
	var filtered []interface{}
	for _, entry := range existing {
		e, ok := entry.(map[string]interface{})
		if !ok {
			filtered = append(filtered, entry)
			continue
		}
		hooksList, _ := e["hooks"].([]interface{})
		hasExcluded := false
		for _, h := range hooksList {
			hm, ok := h.(map[string]interface{})
			if ok {
				cmd, _ := hm["command"].(string)
				if strings.Contains(cmd, exclude) {
					hasExcluded = true
					break
				}
			}
		}
		if !hasExcluded {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

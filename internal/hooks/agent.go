package hooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jensroland/git-attrib/internal/attribution"
	"github.com/jensroland/git-attrib/internal/checkpoint"
	"github.com/jensroland/git-attrib/internal/store"
	"github.com/jensroland/git-attrib/internal/transcript"
)

const maxPromptSummary = 200

// AgentEdit records an AI checkpoint for every file named in a
// PostToolUse-style JSON payload read from r. tool names the agent when
// the payload does not.
func AgentEdit(ctx context.Context, hc *Context, capturer *checkpoint.Capturer, r io.Reader, tool string) ([]*store.Checkpoint, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading payload: %w", err)
	}
	if strings.TrimSpace(string(raw)) == "" {
		return nil, nil
	}
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parsing payload: %w", err)
	}
	hc.log("agent edit payload", map[string]interface{}{
		"tool_name":   getString(data, "tool_name"),
		"raw_length":  len(raw),
		"raw_preview": string(raw[:min(len(raw), 2000)]),
	})

	if t := getString(data, "agent"); t != "" {
		tool = t
	}
	if tool == "" {
		tool = "claude"
	}
	model := getString(data, "model")
	promptText := getString(data, "prompt")
	if path := getString(data, "transcript_path"); path != "" && (model == "" || promptText == "") {
		session, err := transcript.Read(path)
		if err != nil {
			hc.logError("reading transcript", err)
		}
		if model == "" {
			model = session.Model
		}
		if promptText == "" {
			promptText = session.LastPrompt()
		}
	}
	author := attribution.AI(tool, model, getString(data, "session_id"))
	prompt := &attribution.Prompt{
		Tool:        tool,
		Model:       model,
		HumanAuthor: hc.Repo.UserName(ctx),
		Summary:     summarize(promptText),
	}

	var out []*store.Checkpoint
	for _, file := range editedFiles(data, hc.Repo.Workdir()) {
		cp, err := capturer.Capture(ctx, checkpoint.Request{File: file, Author: author, Prompt: prompt})
		if err != nil {
			hc.logError("agent checkpoint failed for "+file, err)
			continue
		}
		if cp != nil {
			out = append(out, cp)
			// Later files in the same payload reuse the recorded prompt.
			author.PromptID = cp.PromptID
		}
	}
	return out, nil
}

// editedFiles lists the repository-relative files a tool payload touched.
func editedFiles(data map[string]interface{}, root string) []string {
	toolInput := getMap(data, "tool_input")
	seen := make(map[string]bool)
	add := func(p string) {
		rel := relativize(p, root)
		if rel != "" {
			seen[rel] = true
		}
	}

	filePath := getString(toolInput, "file_path")
	if filePath == "" {
		filePath = getString(toolInput, "path")
	}
	add(filePath)

	edits := getArray(toolInput, "edits")
	if edits == nil {
		edits = getArray(toolInput, "changes")
	}
	for _, e := range edits {
		if m, ok := e.(map[string]interface{}); ok {
			add(getString(m, "file_path"))
		}
	}

	files := make([]string, 0, len(seen))
	for f := range seen {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// relativize maps a payload path to a slash-separated path inside root,
// or "" for paths outside it.
func relativize(p, root string) string {
	if p == "" {
		return ""
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return ""
	}
	return filepath.ToSlash(rel)
}

func summarize(prompt string) string {
	s := strings.Join(strings.Fields(prompt), " ")
	if len(s) > maxPromptSummary {
		s = s[:maxPromptSummary]
	}
	return s
}

// Helper functions for safe map access.

func getString(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

func getMap(m map[string]interface{}, key string) map[string]interface{} {
	if m == nil {
		return nil
	}
	sub, _ := m[key].(map[string]interface{})
	return sub
}

func getArray(m map[string]interface{}, key string) []interface{} {
	if m == nil {
		return nil
	}
	arr, _ := m[key].([]interface{})
	return arr
}

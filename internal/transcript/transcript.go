// Package transcript reads agent session transcripts (JSONL, one message
// per line) to recover what the human asked for and which model answered.
package transcript

import (
	"bufio"
	"encoding/json"
	"os"
	"regexp"
	"strings"
)

type entry struct {
	Type    string `json:"type"`
	Message struct {
		Role    string          `json:"role"`
		Model   string          `json:"model"`
		Content json.RawMessage `json:"content"`
	} `json:"message"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Session is what a transcript says about the edit being recorded.
type Session struct {
	// Prompts are the human's messages in order, with editor and
	// system annotations removed.
	Prompts []string
	// Model is the model of the latest assistant message.
	Model string
}

// LastPrompt returns the most recent human prompt, or "".
func (s Session) LastPrompt() string {
	if len(s.Prompts) == 0 {
		return ""
	}
	return s.Prompts[len(s.Prompts)-1]
}

var (
	ideTagRe      = regexp.MustCompile(`(?s)<ide_\w+>.*?</ide_\w+>\s*`)
	sysReminderRe = regexp.MustCompile(`(?s)<system-reminder>.*?</system-reminder>\s*`)
)

// Read parses the transcript at path. Lines that are not valid JSON are
// skipped.
func Read(path string) (Session, error) {
	var s Session
	entries, err := readEntries(path)
	if err != nil {
		return s, err
	}
	for _, e := range entries {
		role := e.Message.Role
		if role == "" {
			role = e.Type
		}
		switch role {
		case "assistant":
			if e.Message.Model != "" {
				s.Model = e.Message.Model
			}
		case "user":
			if text := promptText(e.Message.Content); text != "" {
				s.Prompts = append(s.Prompts, text)
			}
		}
	}
	return s, nil
}

// promptText joins the text blocks of a user message. Messages made only
// of tool results carry no prompt.
func promptText(raw json.RawMessage) string {
	var plain string
	if json.Unmarshal(raw, &plain) == nil {
		return cleanPromptText(plain)
	}
	var blocks []contentBlock
	if json.Unmarshal(raw, &blocks) != nil {
		return ""
	}
	var parts []string
	for _, b := range blocks {
		if b.Type != "text" {
			continue
		}
		if text := cleanPromptText(b.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n")
}

func cleanPromptText(raw string) string {
	cleaned := ideTagRe.ReplaceAllString(raw, "")
	cleaned = sysReminderRe.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

func readEntries(path string) ([]entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 4*1024*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e entry
		if json.Unmarshal([]byte(line), &e) == nil {
			entries = append(entries, e)
		}
	}
	return entries, scanner.Err()
}

package attribution

import "fmt"

// Kind distinguishes human-written from AI-generated lines.
type Kind string

const (
	KindHuman Kind = "human"
	KindAI    Kind = "ai"
)

// Author identifies who produced a line. A human author with an empty Name
// means "whoever git says committed it".
type Author struct {
	Kind     Kind   `json:"kind"`
	Name     string `json:"name,omitempty"`
	Tool     string `json:"tool,omitempty"`
	Model    string `json:"model,omitempty"`
	PromptID string `json:"prompt_id,omitempty"`
}

// Human returns a human author. Pass "" to defer to the native identity.
func Human(name string) Author {
	return Author{Kind: KindHuman, Name: name}
}

// AI returns an AI author for the given tool.
func AI(tool, model, promptID string) Author {
	return Author{Kind: KindAI, Tool: tool, Model: model, PromptID: promptID}
}

// IsAI reports whether the author is an AI tool.
func (a Author) IsAI() bool {
	return a.Kind == KindAI
}

// DisplayName is the name shown in blame output. Empty for a human author
// that defers to git.
func (a Author) DisplayName() string {
	if a.IsAI() {
		return a.Tool
	}
	return a.Name
}

// Validate checks the author is well formed.
func (a Author) Validate() error {
	switch a.Kind {
	case KindHuman:
		if a.Tool != "" || a.Model != "" || a.PromptID != "" {
			return fmt.Errorf("human author carries AI fields")
		}
	case KindAI:
		if a.Tool == "" {
			return fmt.Errorf("ai author without tool")
		}
	default:
		return fmt.Errorf("unknown author kind %q", a.Kind)
	}
	return nil
}

func (a Author) String() string {
	if a.IsAI() {
		if a.Model != "" {
			return fmt.Sprintf("ai:%s/%s", a.Tool, a.Model)
		}
		return "ai:" + a.Tool
	}
	if a.Name == "" {
		return "human"
	}
	return "human:" + a.Name
}

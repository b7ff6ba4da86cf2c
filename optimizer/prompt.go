package optimizer

import (
	"regexp"

	"github.com/promptlearn/promptlearn/llm"
)

// Message is one role/content pair in a chat-style prompt.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Prompt is the tagged union of prompt representations the optimizer accepts.
// Exactly one editable message is located by role; everything else is
// preserved verbatim through a rewrite, so the output always has the same
// shape as the input.
type Prompt interface {
	// EditableContent returns the instruction text that gets rewritten.
	EditableContent() (string, error)
	// WithEditableContent rebuilds the prompt with the editable content
	// replaced, preserving the representation's shape.
	WithEditableContent(content string) Prompt
}

// TextPrompt is a bare instruction string.
type TextPrompt struct {
	Text string
}

func (p TextPrompt) EditableContent() (string, error) {
	return p.Text, nil
}

func (p TextPrompt) WithEditableContent(content string) Prompt {
	return TextPrompt{Text: content}
}

// ChatPrompt is an ordered message list. The first user message is editable;
// if no user message exists, the first message is.
type ChatPrompt struct {
	Messages []Message
}

func (p ChatPrompt) editableIndex() (int, error) {
	for i, m := range p.Messages {
		if m.Role == "user" {
			return i, nil
		}
	}
	if len(p.Messages) > 0 {
		return 0, nil
	}
	return 0, llm.NewError(llm.ErrorTypeConfiguration, "prompt has no messages", nil)
}

func (p ChatPrompt) EditableContent() (string, error) {
	i, err := p.editableIndex()
	if err != nil {
		return "", err
	}
	return p.Messages[i].Content, nil
}

func (p ChatPrompt) WithEditableContent(content string) Prompt {
	i, err := p.editableIndex()
	if err != nil {
		return p
	}
	messages := make([]Message, len(p.Messages))
	copy(messages, p.Messages)
	messages[i].Content = content
	return ChatPrompt{Messages: messages}
}

// VersionedPrompt is an external registry handle with an embedded message
// list. Handle metadata survives a rewrite untouched.
type VersionedPrompt struct {
	ID       string
	Model    string
	Provider string
	Messages []Message
}

func (p VersionedPrompt) chat() ChatPrompt {
	return ChatPrompt{Messages: p.Messages}
}

func (p VersionedPrompt) EditableContent() (string, error) {
	return p.chat().EditableContent()
}

func (p VersionedPrompt) WithEditableContent(content string) Prompt {
	rebuilt, ok := p.chat().WithEditableContent(content).(ChatPrompt)
	if !ok {
		return p
	}
	return VersionedPrompt{
		ID:       p.ID,
		Model:    p.Model,
		Provider: p.Provider,
		Messages: rebuilt.Messages,
	}
}

var templateVarRe = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// DetectTemplateVariables returns the unique {placeholder} names found in
// content, in order of first appearance.
func DetectTemplateVariables(content string) []string {
	seen := make(map[string]bool)
	var vars []string
	for _, m := range templateVarRe.FindAllStringSubmatch(content, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			vars = append(vars, m[1])
		}
	}
	return vars
}

// missingVariables returns the declared variables absent from content.
func missingVariables(content string, declared []string) []string {
	present := make(map[string]bool)
	for _, v := range DetectTemplateVariables(content) {
		present[v] = true
	}
	var missing []string
	for _, v := range declared {
		if !present[v] {
			missing = append(missing, v)
		}
	}
	return missing
}

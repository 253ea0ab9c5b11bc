package bubbletea

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/parley"
	"github.com/fwojciec/parley/goldmark"
)

// thinkingText stands in for an assistant reply that has not produced any
// content yet.
const thinkingText = "Thinking..."

// MessageBlock is a renderable message in the conversation. View takes a
// width so the chat view controls layout and blocks are testable in
// isolation.
type MessageBlock interface {
	View(width int) string
}

var (
	_ MessageBlock = (*UserBlock)(nil)
	_ MessageBlock = (*AssistantBlock)(nil)
)

// UserBlock renders a user message with a "> " prefix.
type UserBlock struct {
	text   string
	styles Styles
}

// NewUserBlock creates a UserBlock.
func NewUserBlock(text string, styles Styles) *UserBlock {
	return &UserBlock{text: text, styles: styles}
}

func (b *UserBlock) View(width int) string {
	content := b.styles.UserMsg.Render("> ") + goldmark.Sanitize(b.text)
	return lipgloss.NewStyle().Width(width).Render(content)
}

// AssistantBlock renders an assistant reply as markdown. While streaming,
// paragraphs that can no longer change (those before the last blank line
// outside a code fence) are rendered once per width and cached; only the
// trailing text is re-rendered on each fragment.
type AssistantBlock struct {
	renderer *goldmark.Renderer
	styles   Styles

	content   string
	streaming bool

	finalizedRaw     string
	finalizedByWidth map[int]string
}

// NewAssistantBlock creates an empty AssistantBlock.
func NewAssistantBlock(renderer *goldmark.Renderer, styles Styles) *AssistantBlock {
	return &AssistantBlock{
		renderer:         renderer,
		styles:           styles,
		finalizedByWidth: make(map[int]string),
	}
}

// Set replaces the reply text. Fragments arrive as whole-content updates
// through snapshots, so Set is called with the accumulated text each time.
func (b *AssistantBlock) Set(content string, streaming bool) {
	b.streaming = streaming
	if content == b.content {
		return
	}
	if !strings.HasPrefix(content, b.finalizedRaw) {
		b.finalizedRaw = ""
		clear(b.finalizedByWidth)
	}
	b.content = content
	b.promoteFinalized()
}

// Content returns the reply text.
func (b *AssistantBlock) Content() string { return b.content }

func (b *AssistantBlock) View(width int) string {
	switch {
	case b.content == "" && b.streaming:
		return b.styles.Thinking.Render(thinkingText)
	case b.content == parley.ErrorReply:
		return lipgloss.NewStyle().Width(width).Render(b.styles.Error.Render(b.content))
	}

	finalized := b.renderFinalized(width)
	trailing := b.trailingRaw()
	if hasUnclosedFence(trailing) {
		// Close the fence for rendering only so a partial block displays.
		trailing += "\n```"
	}
	rendered := ""
	if strings.TrimSpace(trailing) != "" {
		rendered = b.renderer.Render(trailing, width)
	}
	switch {
	case rendered == "":
		return finalized
	case finalized == "":
		return rendered
	default:
		return strings.TrimRight(finalized, "\n") + "\n\n" + strings.TrimLeft(rendered, "\n")
	}
}

// promoteFinalized moves the finalized boundary to the last "\n\n" whose
// prefix has every code fence closed.
func (b *AssistantBlock) promoteFinalized() {
	raw := b.content
	for end := len(raw); ; {
		idx := strings.LastIndex(raw[:end], "\n\n")
		if idx <= 0 {
			return
		}
		candidate := raw[:idx]
		if !hasUnclosedFence(candidate) {
			if candidate != b.finalizedRaw {
				b.finalizedRaw = candidate
				clear(b.finalizedByWidth)
			}
			return
		}
		end = idx
	}
}

func (b *AssistantBlock) renderFinalized(width int) string {
	if width <= 0 || b.finalizedRaw == "" {
		return ""
	}
	if cached, ok := b.finalizedByWidth[width]; ok {
		return cached
	}
	rendered := b.renderer.Render(b.finalizedRaw, width)
	b.finalizedByWidth[width] = rendered
	return rendered
}

func (b *AssistantBlock) trailingRaw() string {
	if b.finalizedRaw == "" {
		return b.content
	}
	return strings.TrimPrefix(b.content, b.finalizedRaw+"\n\n")
}

// hasUnclosedFence reports an odd number of "```" markers. Triple
// backticks inside inline code are miscounted; replies rarely contain them.
func hasUnclosedFence(s string) bool {
	return strings.Count(s, "```")%2 == 1
}
